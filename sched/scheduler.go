// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sched runs a microcontroller in fixed-size cycle batches on its
// own goroutine, and exchanges serial bytes with a second I/O goroutine
// through lock-free queues.
//
// Everything the I/O side may touch while the emulation goroutine runs is
// either one of the two queues or an atomic flag. The MCU itself belongs
// to whichever goroutine calls RunBatch or Run.
package sched

import (
	"context"
	"sync/atomic"

	"github.com/beevik/go6301/mcu"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("go6301.sched")

// ErrQueueFull is returned by Feed when the inbound queue has no room.
var ErrQueueFull = errors.New("queue full")

// Defaults used for zero Config fields.
const (
	DefaultClockHz     = 1000000
	DefaultBatchCycles = 320
	DefaultQueueSize   = 64
)

// Config holds the scheduler's tunables.
type Config struct {
	ClockHz     int         // effective CPU clock rate
	BatchCycles int         // cycles executed between boundaries
	QueueSize   int         // capacity of each byte queue
	Clock       clock.Clock // time source used for pacing
}

// Diagnostics is a snapshot of the scheduler's counters.
type Diagnostics struct {
	Batches      uint64 // batches executed, not counting paused ones
	Cycles       uint64 // CPU cycles consumed
	Inbound      int    // bytes waiting in the inbound queue
	Outbound     int    // bytes waiting in the outbound queue
	InboundFull  uint64 // Feed calls rejected with ErrQueueFull
	OutboundFull uint64 // boundaries at which an outbound byte was held back
	Paused       bool
	Crashed      bool
}

// A Scheduler drives an MCU in batches. RunBatch and Run must be called
// from one goroutine only; the remaining methods may be called from any
// goroutine, with Feed and Drain each restricted to a single caller.
type Scheduler struct {
	mcu      *mcu.MCU
	cfg      Config
	inbound  *Queue
	outbound *Queue
	signal   chan struct{}

	pauseReq atomic.Bool
	paused   atomic.Bool
	resetReq atomic.Int32 // ResetKind+1, or 0
	crashed  atomic.Bool

	batches      atomic.Uint64
	cycles       atomic.Uint64
	inboundFull  atomic.Uint64
	outboundFull atomic.Uint64

	held bool // outbound byte held back at the last boundary
}

// New creates a scheduler for the microcontroller. Zero configuration
// fields take their defaults.
func New(m *mcu.MCU, cfg Config) *Scheduler {
	if cfg.ClockHz <= 0 {
		cfg.ClockHz = DefaultClockHz
	}
	if cfg.BatchCycles <= 0 {
		cfg.BatchCycles = DefaultBatchCycles
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	s := &Scheduler{
		mcu:      m,
		cfg:      cfg,
		inbound:  NewQueue(cfg.QueueSize),
		outbound: NewQueue(cfg.QueueSize),
		signal:   make(chan struct{}, 1),
	}
	s.crashed.Store(m.IsCrashed())
	m.ReportTransmitCapacity(true)
	return s
}

// MCU returns the scheduled microcontroller. It may only be touched by
// the goroutine that runs batches.
func (s *Scheduler) MCU() *mcu.MCU {
	return s.mcu
}

// Config returns the scheduler's effective configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// SetBatchCycles changes the batch size. Like RunBatch, it must be called
// from the emulation goroutine.
func (s *Scheduler) SetBatchCycles(n int) {
	if n > 0 {
		s.cfg.BatchCycles = n
	}
}

// RunBatch runs a single batch. At the boundary it first performs any
// requested reset and then honors the pause flag. While paused it returns
// zero without touching the MCU.
func (s *Scheduler) RunBatch() int {
	return s.runBatch(s.cfg.BatchCycles)
}

// Step runs a batch of a single instruction, with the same boundary
// handling as RunBatch. Debuggers use it to walk the firmware.
func (s *Scheduler) Step() int {
	return s.runBatch(1)
}

// Service handles a batch boundary without running any instructions. A
// debugger that owns the emulation goroutine calls it to apply requests
// immediately.
func (s *Scheduler) Service() {
	s.runBatch(0)
}

func (s *Scheduler) runBatch(budget int) int {
	if k := s.resetReq.Swap(0); k != 0 {
		s.mcu.Reset(mcu.ResetKind(k - 1))
		s.crashed.Store(false)
	}

	if s.pauseReq.Load() {
		if !s.paused.Load() {
			s.paused.Store(true)
			logger.Infof("paused at cycle %d", s.mcu.Cycles())
		}
		return 0
	}
	if s.paused.Load() {
		s.paused.Store(false)
		logger.Infof("resumed at cycle %d", s.mcu.Cycles())
	}

	s.deliver()
	n := s.mcu.Run(budget)
	s.collect()
	s.deliver()

	if s.mcu.IsCrashed() && !s.crashed.Load() {
		logger.Infof("firmware crashed at cycle %d, emulation continues", s.mcu.Cycles())
		s.crashed.Store(true)
	}
	if budget > 0 {
		s.batches.Add(1)
		s.cycles.Add(uint64(n))
	}
	return n
}

// Move queued inbound bytes into the receiver until it holds an unread
// byte. It runs on both sides of a batch, so a byte the firmware read
// during the batch is replaced before the next one starts.
func (s *Scheduler) deliver() {
	for !s.mcu.IsReceiveBusy() {
		b, ok := s.inbound.Pop()
		if !ok {
			return
		}
		s.mcu.FeedInbound(b)
	}
}

// Move transmitted bytes into the outbound queue. A byte that does not
// fit stays in the SCI, and TDRE stays clear until there is room again.
func (s *Scheduler) collect() {
	pushed := false
	for s.mcu.HasOutbound() {
		if s.outbound.Free() == 0 {
			s.outboundFull.Add(1)
			if !s.held {
				logger.Warningf("outbound queue full, holding transmit")
			}
			s.held = true
			break
		}
		b, _ := s.mcu.DrainOutbound()
		s.outbound.Push(b)
		pushed = true
		s.held = false
	}
	s.mcu.ReportTransmitCapacity(s.outbound.Free() > 0)

	if pushed {
		select {
		case s.signal <- struct{}{}:
		default:
		}
	}
}

// Run executes batches until the context is canceled, pacing them so the
// MCU runs at the configured clock rate. The context is only checked at
// batch boundaries.
func (s *Scheduler) Run(ctx context.Context) error {
	p := newPacer(s.cfg.Clock, s.cfg.ClockHz)
	logger.Infof("running at %d Hz, %d cycles per batch", s.cfg.ClockHz, s.cfg.BatchCycles)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := s.RunBatch()
		if n == 0 {
			n = s.cfg.BatchCycles
		}
		if err := p.wait(ctx, n); err != nil {
			return err
		}
	}
}

// RequestPause asks the emulation goroutine to stop at the next batch
// boundary. IsPaused reports when it has.
func (s *Scheduler) RequestPause() {
	s.pauseReq.Store(true)
}

// RequestResume cancels a pause request.
func (s *Scheduler) RequestResume() {
	s.pauseReq.Store(false)
}

// IsPaused returns true once a pause request has been honored and until
// the next batch after a resume.
func (s *Scheduler) IsPaused() bool {
	return s.paused.Load()
}

// IsCrashed returns true if the firmware executed an illegal opcode. The
// flag is updated at batch boundaries.
func (s *Scheduler) IsCrashed() bool {
	return s.crashed.Load()
}

// RequestReset asks for a reset at the next batch boundary. A later
// request replaces an earlier one that has not been performed yet.
func (s *Scheduler) RequestReset(kind mcu.ResetKind) {
	s.resetReq.Store(int32(kind) + 1)
}

// Feed queues a byte for delivery to the SCI receiver.
func (s *Scheduler) Feed(b byte) error {
	if !s.inbound.Push(b) {
		if n := s.inboundFull.Add(1); n&(n-1) == 0 {
			logger.Warningf("inbound queue full, byte $%02X rejected", b)
		}
		return ErrQueueFull
	}
	return nil
}

// Drain takes the next byte the firmware transmitted.
func (s *Scheduler) Drain() (byte, bool) {
	return s.outbound.Pop()
}

// Outbound returns a channel that receives a value after bytes have been
// added to the outbound queue.
func (s *Scheduler) Outbound() <-chan struct{} {
	return s.signal
}

// Diagnostics returns the scheduler's counters.
func (s *Scheduler) Diagnostics() Diagnostics {
	return Diagnostics{
		Batches:      s.batches.Load(),
		Cycles:       s.cycles.Load(),
		Inbound:      s.inbound.Len(),
		Outbound:     s.outbound.Len(),
		InboundFull:  s.inboundFull.Load(),
		OutboundFull: s.outboundFull.Load(),
		Paused:       s.paused.Load(),
		Crashed:      s.crashed.Load(),
	}
}
