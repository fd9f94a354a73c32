// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"context"
	"fmt"
	"io"
	"math/bits"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	PhaseFiles = "Writing files"
	PhaseData  = "Writing data"
	PhaseClean = "Cleaning"
)

type ProgressReporter interface {
	Start(phase string)
	Percent(percent int)
	Gigabytes(count int)

	// Finish ends the phase. complete is false when the phase stopped early
	// because of an error.
	Finish(complete bool)
}

type nopProgress struct{}

func (nopProgress) Start(string)  {}
func (nopProgress) Percent(int)   {}
func (nopProgress) Gigabytes(int) {}
func (nopProgress) Finish(bool)   {}

func NopProgress() ProgressReporter {
	return nopProgress{}
}

// ConsoleProgress prints terse markers ("10% 20% ... 100%" or "1Gb 2Gb ...")
// on a single line per phase.
type ConsoleProgress struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	return &ConsoleProgress{out: out}
}

func (p *ConsoleProgress) Start(phase string) {
	p.printf("%s: \n", phase)
}

func (p *ConsoleProgress) Percent(percent int) {
	p.printf("%d%% ", percent)
}

func (p *ConsoleProgress) Gigabytes(count int) {
	p.printf("%dGb ", count)
}

func (p *ConsoleProgress) Finish(complete bool) {
	if complete {
		p.printf("100%% \n")
	} else {
		p.printf("\n")
	}
}

func (p *ConsoleProgress) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

type logProgress struct {
	ctx   context.Context
	phase string
}

// NewLogProgress reports progress as debug-level structured log events.
func NewLogProgress(ctx context.Context) ProgressReporter {
	return &logProgress{ctx: ctx}
}

func (p *logProgress) Start(phase string) {
	p.phase = phase
	log.Ctx(p.ctx).Debug().Str("phase", phase).Msg("Phase starting")
}

func (p *logProgress) Percent(percent int) {
	log.Ctx(p.ctx).Debug().Str("phase", p.phase).Int("percent", percent).Msg("Progress")
}

func (p *logProgress) Gigabytes(count int) {
	log.Ctx(p.ctx).Debug().Str("phase", p.phase).Int("gigabytes", count).Msg("Progress")
}

func (p *logProgress) Finish(complete bool) {
	log.Ctx(p.ctx).Debug().Str("phase", p.phase).Bool("complete", complete).Msg("Phase finished")
}

type multiProgress []ProgressReporter

func MultiProgress(reporters ...ProgressReporter) ProgressReporter {
	return multiProgress(reporters)
}

func (m multiProgress) Start(phase string) {
	for _, r := range m {
		r.Start(phase)
	}
}

func (m multiProgress) Percent(percent int) {
	for _, r := range m {
		r.Percent(percent)
	}
}

func (m multiProgress) Gigabytes(count int) {
	for _, r := range m {
		r.Gigabytes(count)
	}
}

func (m multiProgress) Finish(complete bool) {
	for _, r := range m {
		r.Finish(complete)
	}
}

func progressOrNop(p ProgressReporter) ProgressReporter {
	if p == nil {
		return nopProgress{}
	}
	return p
}

// Deciles emits 10%..90% markers as work units complete. A marker for decile
// d is emitted once done*10 > total*d.
type Deciles struct {
	total    uint64
	next     uint64
	reporter ProgressReporter
}

func NewDeciles(total uint64, reporter ProgressReporter) *Deciles {
	return &Deciles{total: total, next: 1, reporter: progressOrNop(reporter)}
}

func (d *Deciles) Advance(done uint64) {
	for d.next < 10 && greaterProduct(done, 10, d.total, d.next) {
		d.reporter.Percent(int(d.next * 10))
		d.next++
	}
}

// greaterProduct reports whether a*b > c*d without overflowing.
func greaterProduct(a, b, c, d uint64) bool {
	hi1, lo1 := bits.Mul64(a, b)
	hi2, lo2 := bits.Mul64(c, d)
	return hi1 > hi2 || (hi1 == hi2 && lo1 > lo2)
}
