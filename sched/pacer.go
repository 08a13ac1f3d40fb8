// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sched

import (
	"context"
	"time"

	"github.com/juju/clock"
)

const (
	// Do not sleep for less than this; run slightly ahead instead.
	minSleep = time.Millisecond

	// Falling further behind than this drops the backlog instead of
	// running batches back to back to catch up.
	maxLag = 50 * time.Millisecond
)

// A pacer keeps a stream of cycle batches in step with a clock.
type pacer struct {
	clock  clock.Clock
	hz     uint64
	start  time.Time // time at which cycles were zero
	cycles uint64    // cycles elapsed since start, always under hz
}

func newPacer(c clock.Clock, hz int) *pacer {
	return &pacer{clock: c, hz: uint64(hz), start: c.Now()}
}

// wait accounts for n more cycles and sleeps until the clock has caught
// up with them.
func (p *pacer) wait(ctx context.Context, n int) error {
	p.cycles += uint64(n)
	for p.cycles >= p.hz {
		p.cycles -= p.hz
		p.start = p.start.Add(time.Second)
	}

	due := p.start.Add(time.Duration(p.cycles * uint64(time.Second) / p.hz))
	now := p.clock.Now()
	d := due.Sub(now)
	switch {
	case d < -maxLag:
		logger.Debugf("%v behind, skipping ahead", -d)
		p.start, p.cycles = now, 0
		return nil
	case d < minSleep:
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(d):
		return nil
	}
}
