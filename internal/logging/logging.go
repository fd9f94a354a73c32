// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package logging

import (
	"context"
	"io"
	"os"
)

type progressSinkContextKeyType int

const progressSinkKey progressSinkContextKeyType = iota

// GetProgressSinkFromContext returns the writer that console progress markers
// and run summaries are written to. It defaults to standard output.
func GetProgressSinkFromContext(ctx context.Context) io.Writer {
	if sink, ok := ctx.Value(progressSinkKey).(io.Writer); ok {
		return sink
	}
	return os.Stdout
}

func SetProgressSinkOnContext(ctx context.Context, sink io.Writer) context.Context {
	return context.WithValue(ctx, progressSinkKey, sink)
}

// ProgressTarget selects where progress markers go.
type ProgressTarget int8

const (
	ProgressStdout ProgressTarget = iota
	ProgressStderr
	ProgressNone
)

var ProgressTargetIds = map[ProgressTarget][]string{
	ProgressStdout: {"stdout"},
	ProgressStderr: {"stderr"},
	ProgressNone:   {"none"},
}

func (t ProgressTarget) Writer() io.Writer {
	switch t {
	case ProgressStderr:
		return os.Stderr
	case ProgressNone:
		return io.Discard
	default:
		return os.Stdout
	}
}
