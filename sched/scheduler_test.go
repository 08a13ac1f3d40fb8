// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sched_test

import (
	"context"
	"testing"
	"time"

	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/mcu/mcutest"
	"github.com/beevik/go6301/sched"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T, src string, cfg sched.Config) *sched.Scheduler {
	t.Helper()
	m := mcu.New(mcutest.Firmware(t, src), mcu.WithPhase(func() uint32 { return 0 }))
	return sched.New(m, cfg)
}

// Run batches until n bytes have been drained or the batch limit is hit.
func collect(s *sched.Scheduler, n, batches int) []byte {
	var out []byte
	for i := 0; i < batches && len(out) < n; i++ {
		s.RunBatch()
		for b, ok := s.Drain(); ok; b, ok = s.Drain() {
			out = append(out, b)
		}
	}
	return out
}

func TestBootAcknowledge(t *testing.T) {
	s := newScheduler(t, mcutest.BootROM, sched.Config{})
	out := collect(s, 1, 100)
	require.Equal(t, []byte{0xf1}, out)
	assert.Less(t, s.Diagnostics().Cycles, uint64(10000))

	select {
	case <-s.Outbound():
	default:
		t.Error("no outbound signal")
	}
}

func TestCommandFraming(t *testing.T) {
	s := newScheduler(t, mcutest.CommandROM, sched.Config{})
	require.NoError(t, s.Feed(0x14))
	require.NoError(t, s.Feed(0x01))

	out := collect(s, 2, 100)
	assert.Equal(t, []byte{0x14, 0x01}, out)
}

func TestDeliverAfterBatch(t *testing.T) {
	s := newScheduler(t, mcutest.CommandROM, sched.Config{})
	require.NoError(t, s.Feed(0x14))
	require.NoError(t, s.Feed(0x01))

	s.RunBatch()
	assert.Equal(t, 0, s.Diagnostics().Inbound)
	assert.True(t, s.MCU().IsReceiveBusy())
	assert.Equal(t, byte(0x01), s.MCU().Bank.Peek(mcu.RegRDR))
}

func TestOversizedBatchSplitsCommand(t *testing.T) {
	s := newScheduler(t, mcutest.CommandROM, sched.Config{BatchCycles: 5000})
	require.NoError(t, s.Feed(0x14))
	require.NoError(t, s.Feed(0x01))

	out := collect(s, 2, 10)
	assert.Equal(t, []byte{0xee, 0x01}, out)
}

func TestPauseIsStable(t *testing.T) {
	s := newScheduler(t, mcutest.CommandROM, sched.Config{})
	for i := 0; i < 10; i++ {
		s.RunBatch()
	}
	require.NoError(t, s.Feed(0x42))

	s.RequestPause()
	assert.False(t, s.IsPaused())
	assert.Equal(t, 0, s.RunBatch())
	require.True(t, s.IsPaused())

	m := s.MCU()
	cycles, reg, diag := m.Cycles(), m.CPU.Reg, s.Diagnostics()
	for i := 0; i < 20; i++ {
		require.Equal(t, 0, s.RunBatch())
	}
	assert.Equal(t, cycles, m.Cycles())
	assert.Equal(t, reg, m.CPU.Reg)
	assert.Equal(t, diag, s.Diagnostics())
	assert.Equal(t, 1, diag.Inbound)

	s.RequestResume()
	assert.Positive(t, s.RunBatch())
	assert.False(t, s.IsPaused())
	assert.Equal(t, []byte{0x42}, collect(s, 1, 100))
}

func TestRequestReset(t *testing.T) {
	s := newScheduler(t, mcutest.BootROM, sched.Config{})
	require.Equal(t, []byte{0xf1}, collect(s, 1, 100))

	s.RequestReset(mcu.Warm)
	require.Equal(t, []byte{0xf1}, collect(s, 1, 100))
	assert.Less(t, s.MCU().CPU.Reg.PC, uint16(0xf100))
}

const crashROM = `
start:
	LDS #$FF
	BSR serial
	LDAA #$F1
	BSR putc
	.byte $00
serial:
	LDAA #$01
	STAA RMCR
	LDAA #$0A
	STAA TRCSR
	RTS
putc:
	LDAB TRCSR
	BITB #$20
	BEQ putc
	STAA TDR
	RTS
	.org $FFF0
	.word start, start, start, start, start, start, start, start
`

func TestCrashedKeepsRunning(t *testing.T) {
	s := newScheduler(t, crashROM, sched.Config{})

	// The byte written just before the crash is still shifting out.
	s.RunBatch()
	require.True(t, s.IsCrashed())
	assert.Equal(t, []byte{0xf1}, collect(s, 1, 100))

	n := s.RunBatch()
	assert.GreaterOrEqual(t, n, 320)
	assert.True(t, s.Diagnostics().Crashed)

	// The reset happens before the pause is honored.
	s.RequestReset(mcu.Cold)
	s.RequestPause()
	assert.Equal(t, 0, s.RunBatch())
	assert.False(t, s.IsCrashed())
}

func TestInboundSaturation(t *testing.T) {
	s := newScheduler(t, mcutest.CommandROM, sched.Config{QueueSize: 2})
	require.NoError(t, s.Feed(1))
	require.NoError(t, s.Feed(2))
	assert.ErrorIs(t, s.Feed(3), sched.ErrQueueFull)
	assert.Equal(t, uint64(1), s.Diagnostics().InboundFull)
}

const burstROM = `
start:
	LDS #$FF
	LDAA #$01
	STAA RMCR
	LDAA #$02
	STAA TRCSR
	LDAA #$01
next:
	LDAB TRCSR
	BITB #$20
	BEQ next
	STAA TDR
	INCA
	CMPA #$05
	BNE next
idle:
	BRA idle
	.org $FFF0
	.word start, start, start, start, start, start, start, start
`

func TestOutboundSaturation(t *testing.T) {
	s := newScheduler(t, burstROM, sched.Config{QueueSize: 2, BatchCycles: 10000})
	for i := 0; i < 5; i++ {
		s.RunBatch()
	}

	// Two bytes fill the queue and the third is held in the SCI.
	d := s.Diagnostics()
	assert.Equal(t, 2, d.Outbound)
	assert.Positive(t, d.OutboundFull)

	assert.Equal(t, []byte{1, 2, 3, 4}, collect(s, 4, 20))
}

func TestRunPacing(t *testing.T) {
	clk := testclock.NewClock(time.Time{})
	s := newScheduler(t, mcutest.BootROM, sched.Config{Clock: clk})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// The scheduler runs about a millisecond ahead of the clock and then
	// waits for it.
	<-clk.Alarms()
	c := s.Diagnostics().Cycles
	assert.GreaterOrEqual(t, c, uint64(1000))
	assert.Less(t, c, uint64(1700))

	require.NoError(t, clk.WaitAdvance(10*time.Millisecond, time.Second, 1))
	<-clk.Alarms()
	c = s.Diagnostics().Cycles
	assert.GreaterOrEqual(t, c, uint64(11000))
	assert.Less(t, c, uint64(11700))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStepAndService(t *testing.T) {
	s := newScheduler(t, mcutest.BootROM, sched.Config{})
	pc := s.MCU().CPU.Reg.PC

	n := s.Step()
	assert.Greater(t, n, 0)
	assert.NotEqual(t, pc, s.MCU().CPU.Reg.PC)
	assert.Equal(t, uint64(1), s.Diagnostics().Batches)

	s.RequestReset(mcu.Warm)
	s.Service()
	assert.Equal(t, pc, s.MCU().CPU.Reg.PC)
	assert.Equal(t, uint64(1), s.Diagnostics().Batches)
}
