// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package fill

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/erasure-tools/overwrite/internal/config"
	"github.com/erasure-tools/overwrite/internal/erasure"
	"github.com/erasure-tools/overwrite/internal/workspace"
	"github.com/rs/zerolog/log"
)

// createFile opens every artifact of a run.
var createFile erasure.CreateFunc = erasure.CreateFile

// Summary describes what a run did. Phase errors are recorded here rather
// than aborting the run, since the file and data phases are independent.
type Summary struct {
	Dir          string
	FilesWritten int
	FilesErr     error
	Bulk         *erasure.BulkResult
	BulkErr      error
	CleanErr     error
	Elapsed      time.Duration
}

// Failed reports whether a phase ended with an error. Running out of storage
// is not a failure.
func (s *Summary) Failed() bool {
	return s.FilesErr != nil || s.BulkErr != nil
}

// Run builds the fill buffer, writes the file series and the bulk data, and
// removes the artifacts unless settings.Keep is set. The returned error is
// reserved for conditions that prevent any writing.
func Run(ctx context.Context, settings *config.Settings, progress erasure.ProgressReporter) (*Summary, error) {
	start := time.Now()

	buf, err := erasure.NewFillBuffer(settings.BlockSize, settings.FillMode)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.Prepare(ctx, settings.Directory)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Dir: ws.Dir}

	logger := log.Ctx(ctx).With().Str("dir", ws.Dir).Int("blockSize", settings.BlockSize).Logger()
	ctx = logger.WithContext(ctx)

	if available, err := erasure.AvailableBytes(ws.Dir); err == nil {
		log.Ctx(ctx).Info().
			Str("available", humanize.IBytes(available)).
			Str("fill", settings.FillMode.String()).
			Msg("Starting")
	} else {
		log.Ctx(ctx).Debug().Err(err).Msg("Unable to determine available space")
	}

	limiter := config.NewLimiter(settings.MaxRate, settings.BlockSize)

	if settings.FileCount > 0 {
		series := &erasure.FileSeries{
			Create:   createFile,
			Progress: progress,
			Limiter:  limiter,
			Dop:      settings.Dop,
		}

		summary.FilesWritten, summary.FilesErr = series.Run(ctx, ws.Dir, settings.FileCount, buf)
		if summary.FilesErr != nil {
			log.Ctx(ctx).Error().Err(summary.FilesErr).Int("filesWritten", summary.FilesWritten).Msg("Error writing files")
		} else {
			log.Ctx(ctx).Info().Str("files", humanize.Comma(int64(summary.FilesWritten))).Msg("Files written")
		}
	}

	if settings.Volume != nil && ctx.Err() == nil {
		bulk := &erasure.BulkWriter{
			Create:   createFile,
			Progress: progress,
			Limiter:  limiter,
			Metrics: &erasure.TransferMetrics{
				Context: ctx,
				Path:    ws.BulkPath(),
			},
		}

		result, err := bulk.Run(ctx, ws.BulkPath(), buf, *settings.Volume)
		summary.Bulk = &result
		summary.BulkErr = err

		event := log.Ctx(ctx).Info()
		if err != nil {
			event = log.Ctx(ctx).Error().Err(err)
		}
		event.
			Str("outcome", result.Outcome.String()).
			Uint64("blocksWritten", result.Blocks).
			Str("written", humanize.IBytes(result.Bytes)).
			Msg("Data written")
	}

	if !settings.Keep {
		summary.CleanErr = ws.Clean(ctx, settings.FileCount, progress)
		if summary.CleanErr != nil {
			log.Ctx(ctx).Warn().Err(summary.CleanErr).Msg("Cleanup incomplete")
		}
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}
