// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package cmd

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/erasure-tools/overwrite/internal/config"
	"github.com/erasure-tools/overwrite/internal/erasure"
	"github.com/erasure-tools/overwrite/internal/fill"
	"github.com/erasure-tools/overwrite/internal/logging"
	"github.com/erasure-tools/overwrite/internal/runid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag"
)

func NewFillCommand() *cobra.Command {
	configPath := ""
	overrides := make(map[string]string)
	path := ""
	files := 0
	data := ""
	blockSize := ""
	dop := 1
	maxRate := ""
	keep := false
	fillMode := erasure.FillZero

	cmd := &cobra.Command{
		Use:   "fill --path DIR { --files N | --data SIZE } [flags]",
		Short: "Overwrites free space with small files and bulk data",
		Long: `Overwrites free space on the filesystem containing DIR.

A work directory is created under DIR. With --files, that many files of one block each are written.
With --data, a single file is grown to SIZE, which is a number followed by 'mb' or 'gb' (1mb is
1,024,000 bytes), or 'all' to keep writing until the filesystem is full. All written files are
removed at the end unless --keep is given.`,
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := runid.WithRunId(cmd.Context())

			flagValues := make(map[string]any)
			flags := cmd.Flags()
			setIfChanged := func(name, key string, value any) {
				if flags.Changed(name) {
					flagValues[key] = value
				}
			}
			setIfChanged("path", "path", path)
			setIfChanged("files", "files", files)
			setIfChanged("data", "data", data)
			setIfChanged("block-size", "blockSize", blockSize)
			setIfChanged("dop", "dop", dop)
			setIfChanged("max-rate", "maxRate", maxRate)
			setIfChanged("keep", "keep", keep)
			if flags.Changed("fill") {
				flagValues["fill"] = fillMode.String()
			}

			sink := logging.GetProgressSinkFromContext(ctx)

			cfg, err := config.Load(configPath, overrides, flagValues)
			if err != nil {
				printError(os.Stderr, err)
				log.Ctx(ctx).Fatal().Err(err).Msg("Invalid configuration")
			}

			settings, err := cfg.Resolve()
			if err != nil {
				printError(os.Stderr, err)
				log.Ctx(ctx).Fatal().Err(err).Msg("Invalid configuration")
			}

			ctx, stop := withInterrupt(ctx)
			defer stop()

			progress := erasure.MultiProgress(erasure.NewConsoleProgress(sink), erasure.NewLogProgress(ctx))
			summary, err := fill.Run(ctx, settings, progress)
			if err != nil {
				printError(os.Stderr, err)
				log.Ctx(ctx).Fatal().Err(err).Msg("Unable to start writing")
			}

			if ctx.Err() != nil {
				log.Ctx(ctx).Warn().Msg("Interrupted before completion")
			}

			if summary.Bulk != nil && summary.Bulk.Outcome == erasure.ExhaustedStorage {
				log.Ctx(ctx).Info().
					Str("written", humanize.IBytes(summary.Bulk.Bytes)).
					Msg("The filesystem is full")
			}

			printElapsed(sink, summary.Elapsed.Seconds())
			if summary.Failed() {
				if summary.FilesErr != nil {
					printError(os.Stderr, summary.FilesErr)
				}
				if summary.BulkErr != nil {
					printError(os.Stderr, summary.BulkErr)
				}
				stop()
				os.Exit(1)
			}

			printDone(sink)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "d", path, "The directory on the filesystem to overwrite")
	cmd.Flags().IntVarP(&files, "files", "n", files, "The number of files to write, one block each")
	cmd.Flags().StringVar(&data, "data", data, "The quantity of data to write: e.g. 10mb, 5gb, or all")
	cmd.Flags().Var(
		enumflag.New(&fillMode, "mode", erasure.FillModeIds, enumflag.EnumCaseInsensitive),
		"fill",
		"The byte pattern to write. Can be one of: 'zero', 'ones', or 'random'.")
	cmd.Flags().StringVarP(&blockSize, "block-size", "b", blockSize, "The block size, e.g. 4096 or 4KiB. Defaults to 4096 bytes.")
	cmd.Flags().IntVarP(&dop, "dop", "p", dop, "The number of files written in parallel")
	cmd.Flags().StringVar(&maxRate, "max-rate", maxRate, "The maximum write rate per second, e.g. 50MiB. Unlimited if not specified.")
	cmd.Flags().BoolVar(&keep, "keep", keep, "Do not delete the written files")
	cmd.Flags().StringVar(&configPath, "config", configPath, "A YAML file with default values for these flags")
	cmd.Flags().StringToStringVar(&overrides, "set", overrides, "Overrides a configuration value as key=value. Can be specified multiple times.")

	return cmd
}
