// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
)

const FilePrefix = "000000000"

func SeriesFileName(index int) string {
	return FilePrefix + strconv.Itoa(index)
}

// FileSeries writes a numbered series of single-block files.
type FileSeries struct {
	Create   CreateFunc
	Progress ProgressReporter
	Limiter  ratelimit.Limiter

	// Dop is the number of files written concurrently. Values below 2 write
	// the files one after another.
	Dop int
}

// Run writes count files named SeriesFileName(1..count) into dir, each
// containing buf. It stops at the first failure and returns it together with
// the number of files written.
func (s *FileSeries) Run(ctx context.Context, dir string, count int, buf []byte) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	progress := progressOrNop(s.Progress)
	progress.Start(PhaseFiles)

	var written int
	var err error
	if s.Dop > 1 {
		written, err = s.runParallel(ctx, dir, count, buf, progress)
	} else {
		written, err = s.runSequential(ctx, dir, count, buf, progress)
	}

	progress.Finish(err == nil)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Int("filesWritten", written).Msg("File series stopped")
	}
	return written, err
}

func (s *FileSeries) runSequential(ctx context.Context, dir string, count int, buf []byte, progress ProgressReporter) (int, error) {
	deciles := NewDeciles(uint64(count), progress)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return i - 1, err
		}

		if err := s.writeOne(dir, i, buf); err != nil {
			return i - 1, err
		}

		deciles.Advance(uint64(i))
	}

	return count, nil
}

func (s *FileSeries) runParallel(ctx context.Context, dir string, count int, buf []byte, progress ProgressReporter) (int, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.Dop)

	var written atomic.Int64
	var mu sync.Mutex
	deciles := NewDeciles(uint64(count), progress)

	for i := 1; i <= count; i++ {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			if err := s.writeOne(dir, i, buf); err != nil {
				return err
			}

			done := written.Add(1)
			mu.Lock()
			deciles.Advance(uint64(done))
			mu.Unlock()
			return nil
		})
	}

	err := group.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return int(written.Load()), err
}

func (s *FileSeries) writeOne(dir string, index int, buf []byte) error {
	create := s.Create
	if create == nil {
		create = CreateFile
	}
	if s.Limiter != nil {
		s.Limiter.Take()
	}
	return writeBlockFile(create, filepath.Join(dir, SeriesFileName(index)), buf)
}
