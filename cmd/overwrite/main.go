// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"os"

	"github.com/erasure-tools/overwrite/internal/cmd"
	"github.com/spf13/cobra"
)

var (
	// set during build
	commit = ""
)

func newRootCommand() *cobra.Command {
	rootCommand := cmd.NewCommonRootCommand(commit)
	rootCommand.Use = "overwrite"
	rootCommand.Short = "Overwrites free disk space to hinder recovery of deleted data."
	rootCommand.Long = `Overwrites free disk space by writing small files and bulk data filled with zeros, ones, or random bytes.`

	rootCommand.AddCommand(cmd.NewFillCommand())
	rootCommand.AddCommand(cmd.NewCleanCommand())
	rootCommand.AddCommand(cmd.NewFreeCommand())

	return rootCommand
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		os.Exit(1)
	}
}
