// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package erasure

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// TransferMetrics periodically logs write throughput while a phase runs.
type TransferMetrics struct {
	Context            context.Context
	Path               string
	Interval           time.Duration
	totalBytes         uint64
	currentPeriodBytes uint64
	startTime          time.Time
	ticker             *time.Ticker
	stoppedChannel     chan any
	reportingComplete  chan any
}

func (ts *TransferMetrics) Update(byteCount uint64) {
	atomic.AddUint64(&ts.currentPeriodBytes, byteCount)
}

func (ts *TransferMetrics) Start() {
	interval := ts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ts.stoppedChannel = make(chan any)
	ts.reportingComplete = make(chan any)
	ts.ticker = time.NewTicker(interval)
	lastTime := time.Now()
	ts.startTime = lastTime
	go func() {
		for {
			select {
			case <-ts.stoppedChannel:
				ts.ticker.Stop()
				ts.reportingComplete <- nil
				return
			case t := <-ts.ticker.C:
				elapsed := t.Sub(lastTime)
				lastTime = t
				currentBytes := atomic.SwapUint64(&ts.currentPeriodBytes, 0)
				if currentBytes > 0 {
					atomic.AddUint64(&ts.totalBytes, currentBytes)
					// Storage throughput is reported in base 2 units, unlike network throughput.
					currentMiBps := float32(currentBytes) / (1024 * 1024) / float32(elapsed.Seconds())
					log.Ctx(ts.Context).Info().
						Float32("throughputMiBps", currentMiBps).
						Str("written", humanize.IBytes(atomic.LoadUint64(&ts.totalBytes))).
						Msg("Write progress")
				}
			}
		}
	}()

	log.Ctx(ts.Context).Debug().Str("path", ts.Path).Msg("Write starting")
}

// Stop ends periodic reporting and returns the total number of bytes
// recorded.
func (ts *TransferMetrics) Stop() uint64 {
	elapsed := time.Since(ts.startTime)
	ts.stoppedChannel <- nil
	<-ts.reportingComplete
	total := atomic.AddUint64(&ts.totalBytes, atomic.SwapUint64(&ts.currentPeriodBytes, 0))
	log.Ctx(ts.Context).Info().
		Float32("elapsedSeconds", float32(elapsed.Seconds())).
		Float32("totalGiB", float32(total)/(1024*1024*1024)).
		Msg("Write complete")
	return total
}
