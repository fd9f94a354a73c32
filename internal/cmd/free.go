// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/erasure-tools/overwrite/internal/erasure"
	"github.com/erasure-tools/overwrite/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewFreeCommand() *cobra.Command {
	path := ""
	blockSize := erasure.DefaultBlockSize

	cmd := &cobra.Command{
		Use:                   "free --path DIR",
		Short:                 "Shows the space available on the filesystem containing DIR",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if blockSize <= 0 {
				log.Fatal().Int("blockSize", blockSize).Msg("the block size must be positive")
			}

			available, err := erasure.AvailableBytes(path)
			if err != nil {
				log.Ctx(ctx).Fatal().Err(err).Str("path", path).Msg("Unable to determine available space")
			}

			sink := logging.GetProgressSinkFromContext(ctx)
			fmt.Fprintf(sink, "%s available (%s bytes, about %s blocks of %d bytes)\n",
				humanize.IBytes(available),
				humanize.Comma(int64(available)),
				humanize.Comma(int64(available/uint64(blockSize))),
				blockSize)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "d", path, "A directory on the filesystem to inspect")
	cmd.Flags().IntVarP(&blockSize, "block-size", "b", blockSize, "The block size used to estimate the block count")
	cmd.MarkFlagRequired("path")

	return cmd
}
