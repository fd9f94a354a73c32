// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

// withInterrupt returns a context that is canceled on SIGINT or SIGTERM.
// Writers stop between blocks when it is canceled.
func withInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func printError(w io.Writer, err error) {
	color.New(color.FgRed).FprintfFunc()(w, "Error: %s\n", err.Error())
}

func printDone(w io.Writer) {
	color.New(color.FgGreen).Fprintln(w, "Done.")
}

func printElapsed(w io.Writer, seconds float64) {
	fmt.Fprintf(w, "Time: %.3f seconds \n", seconds)
}
