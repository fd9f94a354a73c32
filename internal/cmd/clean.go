// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package cmd

import (
	"os"

	"github.com/erasure-tools/overwrite/internal/erasure"
	"github.com/erasure-tools/overwrite/internal/logging"
	"github.com/erasure-tools/overwrite/internal/workspace"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewCleanCommand() *cobra.Command {
	path := ""
	files := 0

	cmd := &cobra.Command{
		Use:                   "clean --path DIR [--files N]",
		Short:                 "Removes the files left by a fill run with --keep",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if files < 0 {
				log.Fatal().Int("files", files).Msg("the number of files must not be negative")
			}

			ws := workspace.At(path)
			if _, err := os.Stat(ws.Dir); err != nil {
				log.Ctx(ctx).Fatal().Err(err).Msg("Nothing to clean")
			}

			sink := logging.GetProgressSinkFromContext(ctx)
			if err := ws.Clean(ctx, files, erasure.NewConsoleProgress(sink)); err != nil {
				printError(os.Stderr, err)
				os.Exit(1)
			}

			printDone(sink)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "d", path, "The directory given to the fill command")
	cmd.Flags().IntVarP(&files, "files", "n", files, "The number of files given to the fill command")
	cmd.MarkFlagRequired("path")

	return cmd
}
