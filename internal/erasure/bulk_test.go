// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestBulkWriterZeroBlocksCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	w := &BulkWriter{}

	result, err := w.Run(context.Background(), path, make([]byte, 4096), Bounded(0))
	require.NoError(t, err)
	require.Equal(t, Completed, result.Outcome)
	require.Equal(t, uint64(0), result.Blocks)
	require.Equal(t, int64(0), fileSize(t, path))
}

func TestBulkWriterBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	buf, err := NewFillBuffer(512, FillRandom)
	require.NoError(t, err)

	progress := &recordingProgress{}
	w := &BulkWriter{Progress: progress}
	result, err := w.Run(context.Background(), path, buf, Bounded(100))
	require.NoError(t, err)
	require.Equal(t, Completed, result.Outcome)
	require.Equal(t, uint64(100), result.Blocks)
	require.Equal(t, uint64(100*512), result.Bytes)
	require.Equal(t, int64(100*512), fileSize(t, path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.Equal(bytes.Repeat(buf, 100), contents))

	require.Equal(t, "start:"+PhaseData, progress.events[0])
	require.Equal(t, []string{"10%", "20%", "30%", "40%", "50%", "60%", "70%", "80%", "90%"}, progress.percents())
	require.Equal(t, "finish:true", progress.events[len(progress.events)-1])
}

func TestBulkWriterUnboundedStopsWhenStorageIsFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	const blockSize = 4096
	const capBlocks = 37

	storage := &cappedStorage{remaining: capBlocks * blockSize}
	w := &BulkWriter{Create: storage.Create}

	result, err := w.Run(context.Background(), path, make([]byte, blockSize), Unbounded)
	require.NoError(t, err)
	require.Equal(t, ExhaustedStorage, result.Outcome)
	require.Equal(t, uint64(capBlocks), result.Blocks)
	require.Equal(t, int64(capBlocks*blockSize), fileSize(t, path))
}

func TestBulkWriterDropsPartialBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	const blockSize = 1000

	storage := &cappedStorage{remaining: 5*blockSize + 321}
	w := &BulkWriter{Create: storage.Create}

	result, err := w.Run(context.Background(), path, make([]byte, blockSize), Unbounded)
	require.NoError(t, err)
	require.Equal(t, ExhaustedStorage, result.Outcome)
	require.Equal(t, uint64(5), result.Blocks)
	require.Equal(t, int64(5*blockSize), fileSize(t, path))
}

func TestBulkWriterLogsFailedTruncate(t *testing.T) {
	var out bytes.Buffer
	ctx := zerolog.New(&out).WithContext(context.Background())

	path := filepath.Join(t.TempDir(), BulkFileName)
	storage := &cappedStorage{remaining: 2*1000 + 10}
	w := &BulkWriter{Create: func(path string) (File, error) {
		file, err := storage.Create(path)
		if err != nil {
			return nil, err
		}
		return &truncateFailingFile{File: file}, nil
	}}

	result, err := w.Run(ctx, path, make([]byte, 1000), Unbounded)
	require.NoError(t, err)
	require.Equal(t, ExhaustedStorage, result.Outcome)
	require.Equal(t, uint64(2), result.Blocks)

	require.Contains(t, out.String(), "Unable to remove partial block")
	require.Contains(t, out.String(), `"blocksWritten":2`)
	require.Contains(t, out.String(), `"level":"warn"`)
}

type truncateFailingFile struct {
	File
}

func (f *truncateFailingFile) Truncate(int64) error {
	return errors.New("truncate failed")
}

func TestBulkWriterBoundedStopsWhenStorageIsFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	storage := &cappedStorage{remaining: 3 * 512}
	w := &BulkWriter{Create: storage.Create}

	result, err := w.Run(context.Background(), path, make([]byte, 512), Bounded(100))
	require.NoError(t, err)
	require.Equal(t, ExhaustedStorage, result.Outcome)
	require.Equal(t, uint64(3), result.Blocks)
}

func TestBulkWriterBoundedWriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	storage := &failingStorage{failAll: true, err: errors.New("device error")}
	progress := &recordingProgress{}
	w := &BulkWriter{Create: storage.Create, Progress: progress}

	result, err := w.Run(context.Background(), path, make([]byte, 512), Bounded(10))
	require.Equal(t, Failed, result.Outcome)
	require.True(t, IsWriteErrorKind(err, WriteShort))
	require.Equal(t, "finish:false", progress.events[len(progress.events)-1])
}

func TestBulkWriterUnboundedTreatsAnyFailureAsExhaustion(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	storage := &failingStorage{failAll: true, err: errors.New("device error")}
	w := &BulkWriter{Create: storage.Create}

	result, err := w.Run(context.Background(), path, make([]byte, 512), Unbounded)
	require.NoError(t, err)
	require.Equal(t, ExhaustedStorage, result.Outcome)
	require.Equal(t, uint64(0), result.Blocks)
}

func TestBulkWriterCreateFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", BulkFileName)
	w := &BulkWriter{}

	result, err := w.Run(context.Background(), path, make([]byte, 512), Bounded(1))
	require.Equal(t, Failed, result.Outcome)
	require.True(t, IsWriteErrorKind(err, WriteCreate))
}

func TestBulkWriterCloseFailureAfterCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	w := &BulkWriter{Create: createCloseFailing}

	result, err := w.Run(context.Background(), path, make([]byte, 512), Bounded(4))
	require.Equal(t, Failed, result.Outcome)
	require.Equal(t, uint64(4), result.Blocks)
	require.True(t, IsWriteErrorKind(err, WriteClose))
}

func TestBulkWriterCloseFailureAfterExhaustionIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	storage := &cappedStorage{remaining: 2 * 512}
	w := &BulkWriter{Create: func(path string) (File, error) {
		file, err := storage.Create(path)
		if err != nil {
			return nil, err
		}
		return &closeFailingFile{File: file}, nil
	}}

	result, err := w.Run(context.Background(), path, make([]byte, 512), Unbounded)
	require.NoError(t, err)
	require.Equal(t, ExhaustedStorage, result.Outcome)
	require.Equal(t, uint64(2), result.Blocks)
}

func TestBulkWriterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), BulkFileName)
	result, err := (&BulkWriter{}).Run(ctx, path, make([]byte, 512), Unbounded)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Interrupted, result.Outcome)
	require.Equal(t, int64(0), fileSize(t, path))
}

func TestBulkWriterGigabyteMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)

	// With a block of 1,024,000 bytes, 1024 blocks make a marker. Cap at
	// 12 markers' worth to check that only 10 are emitted.
	const blockSize = MegabyteBytes
	storage := &cappedStorage{remaining: 12 * 1024 * blockSize}
	progress := &recordingProgress{}

	w := &BulkWriter{Create: nullCreate(storage), Progress: progress}
	result, err := w.Run(context.Background(), path, make([]byte, blockSize), Unbounded)
	require.NoError(t, err)
	require.Equal(t, ExhaustedStorage, result.Outcome)
	require.Equal(t, uint64(12*1024), result.Blocks)

	var markers []string
	for _, e := range progress.events {
		if len(e) > 2 && e[len(e)-2:] == "Gb" {
			markers = append(markers, e)
		}
	}
	require.Equal(t, []string{"1Gb", "2Gb", "3Gb", "4Gb", "5Gb", "6Gb", "7Gb", "8Gb", "9Gb", "10Gb"}, markers)
}

func TestBulkWriterEmptyBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	result, err := (&BulkWriter{}).Run(context.Background(), path, nil, Unbounded)
	require.ErrorIs(t, err, ErrAllocation)
	require.Equal(t, Failed, result.Outcome)
}

func TestBulkWriterMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), BulkFileName)
	metrics := &TransferMetrics{Interval: time.Millisecond}
	w := &BulkWriter{Metrics: metrics}

	result, err := w.Run(context.Background(), path, make([]byte, 1024), Bounded(64))
	require.NoError(t, err)
	require.Equal(t, uint64(64), result.Blocks)
	require.Equal(t, uint64(64*1024), metrics.totalBytes)
}

// nullCreate returns files that count bytes against storage without
// persisting them, so large volumes can be simulated cheaply.
func nullCreate(storage *cappedStorage) CreateFunc {
	return func(path string) (File, error) {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return nil, err
		}
		return &cappedFile{File: nullFile{}, storage: storage, path: path}, nil
	}
}

type nullFile struct{}

func (nullFile) Write(p []byte) (int, error) { return len(p), nil }
func (nullFile) Close() error                { return nil }
func (nullFile) Truncate(int64) error        { return nil }

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "completed", Completed.String())
	require.Equal(t, "exhausted storage", ExhaustedStorage.String())
	require.Equal(t, "interrupted", Interrupted.String())
	require.Equal(t, "failed", Failed.String())
	require.Equal(t, "Outcome(9)", Outcome(9).String())
}
