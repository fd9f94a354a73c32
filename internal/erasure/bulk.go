// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"
)

const (
	BulkFileName = "000000000"

	// Unbounded writes emit a marker for each completed gigabyte, up to this
	// many markers.
	MaxGigabyteMarkers = 10
)

type Outcome int8

const (
	Completed Outcome = iota
	ExhaustedStorage
	Interrupted
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case ExhaustedStorage:
		return "exhausted storage"
	case Interrupted:
		return "interrupted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int8(o))
	}
}

type BulkResult struct {
	Blocks  uint64
	Bytes   uint64
	Outcome Outcome
}

// BulkWriter appends a fill buffer to a single growing file.
type BulkWriter struct {
	Create   CreateFunc
	Progress ProgressReporter
	Limiter  ratelimit.Limiter
	Metrics  *TransferMetrics
}

type writeSession struct {
	file      File
	path      string
	blockSize int
	blocks    uint64
}

// Run writes buf to the file at path until target is satisfied or, for the
// unbounded target, until storage refuses a write. The returned error is
// non-nil only when the outcome is Failed or Interrupted.
func (w *BulkWriter) Run(ctx context.Context, path string, buf []byte, target VolumeTarget) (BulkResult, error) {
	if len(buf) == 0 {
		return BulkResult{Outcome: Failed}, fmt.Errorf("%w: empty fill buffer", ErrAllocation)
	}

	create := w.Create
	if create == nil {
		create = CreateFile
	}

	file, err := create(path)
	if err != nil {
		return BulkResult{Outcome: Failed}, &WriteError{Kind: WriteCreate, Path: path, Err: err}
	}

	session := &writeSession{file: file, path: path, blockSize: len(buf)}
	progress := progressOrNop(w.Progress)
	progress.Start(PhaseData)

	if w.Metrics != nil {
		if w.Metrics.Context == nil {
			w.Metrics.Context = ctx
		}
		w.Metrics.Start()
	}

	var outcome Outcome
	var writeErr error
	if target.IsUnbounded() {
		outcome, writeErr = w.writeUnbounded(ctx, session, buf, progress)
	} else {
		outcome, writeErr = w.writeBounded(ctx, session, buf, target.Blocks(), progress)
	}

	if w.Metrics != nil {
		w.Metrics.Stop()
	}

	closeErr := session.file.Close()
	switch outcome {
	case Completed:
		if closeErr != nil {
			outcome = Failed
			writeErr = &WriteError{Kind: WriteClose, Path: path, Err: closeErr}
		}
	case ExhaustedStorage:
		if closeErr != nil {
			log.Ctx(ctx).Debug().Err(closeErr).Str("path", path).Msg("Ignoring close failure after storage was exhausted")
		}
	case Interrupted, Failed:
		if closeErr != nil {
			log.Ctx(ctx).Warn().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}

	progress.Finish(outcome == Completed || outcome == ExhaustedStorage)

	result := BulkResult{
		Blocks:  session.blocks,
		Bytes:   session.blocks * uint64(session.blockSize),
		Outcome: outcome,
	}
	return result, writeErr
}

func (w *BulkWriter) writeBounded(ctx context.Context, s *writeSession, buf []byte, count uint64, progress ProgressReporter) (Outcome, error) {
	deciles := NewDeciles(count, progress)
	for s.blocks < count {
		if err := ctx.Err(); err != nil {
			return Interrupted, err
		}

		if err := w.writeBlock(ctx, s, buf); err != nil {
			if IsStorageExhausted(err) {
				return ExhaustedStorage, nil
			}
			return Failed, &WriteError{Kind: WriteShort, Path: s.path, Err: err}
		}

		deciles.Advance(s.blocks)
	}

	return Completed, nil
}

func (w *BulkWriter) writeUnbounded(ctx context.Context, s *writeSession, buf []byte, progress ProgressReporter) (Outcome, error) {
	blocksPerGigabyte := BlocksPerGigabyte(s.blockSize)
	markers := 0
	for {
		if err := ctx.Err(); err != nil {
			return Interrupted, err
		}

		if err := w.writeBlock(ctx, s, buf); err != nil {
			// Any refusal is how an unbounded write ends.
			log.Ctx(ctx).Debug().Err(err).Uint64("blocksWritten", s.blocks).Msg("Storage refused further writes")
			return ExhaustedStorage, nil
		}

		if blocksPerGigabyte > 0 && markers < MaxGigabyteMarkers && s.blocks >= uint64(markers+1)*blocksPerGigabyte {
			markers++
			progress.Gigabytes(markers)
		}
	}
}

// writeBlock appends one block. A partially written block is truncated away
// so that the file always holds a whole number of blocks.
func (w *BulkWriter) writeBlock(ctx context.Context, s *writeSession, buf []byte) error {
	if w.Limiter != nil {
		w.Limiter.Take()
	}

	n, err := s.file.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 {
			if truncErr := s.file.Truncate(int64(s.blocks) * int64(s.blockSize)); truncErr != nil {
				log.Ctx(ctx).Warn().Err(truncErr).
					Str("path", s.path).
					Uint64("blocksWritten", s.blocks).
					Msg("Unable to remove partial block")
			}
		}
		return err
	}

	s.blocks++
	if w.Metrics != nil {
		w.Metrics.Update(uint64(n))
	}
	return nil
}
