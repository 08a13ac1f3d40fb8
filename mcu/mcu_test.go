// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcu_test

import (
	"testing"

	"github.com/beevik/go6301/cpu"
	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/mcu/mcutest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const idleROM = `
start:
	BRA start
	.org $FFF0
	.word start, start, start, start, start, start, start, start
`

func zeroPhase() uint32 { return 0 }

func newMCU(t *testing.T, src string) *mcu.MCU {
	t.Helper()
	return mcu.New(mcutest.Firmware(t, src), mcu.WithPhase(zeroPhase))
}

func runUntilOutput(m *mcu.MCU, limit int) (byte, int, bool) {
	n := 0
	for n < limit {
		n += m.Run(64)
		if b, ok := m.DrainOutbound(); ok {
			return b, n, true
		}
	}
	return 0, n, false
}

func TestColdReset(t *testing.T) {
	m := newMCU(t, idleROM)
	for a := uint16(mcu.RAMBase); a < mcu.RAMBase+mcu.RAMSize; a++ {
		m.Bank.StoreByte(a, 0x5a)
	}
	m.Run(100)
	m.Reset(mcu.Cold)

	for a := uint16(mcu.RAMBase); a < mcu.RAMBase+mcu.RAMSize; a++ {
		require.Equal(t, byte(0), m.Bank.Peek(a), "RAM at $%04X", a)
	}
	assert.NotZero(t, m.Bank.Peek(mcu.RegTRCSR)&mcu.TDRE, "TDRE after reset")
	assert.Equal(t, uint16(0xffff), m.Timer.Compare())
	assert.Equal(t, m.Firmware().ResetVector(), m.CPU.Reg.PC)
	assert.True(t, m.CPU.Reg.InterruptMask)
}

func TestFirmwareVector(t *testing.T) {
	f := mcutest.Firmware(t, idleROM)
	assert.Equal(t, uint16(mcu.ROMBase), f.Vector(0xfff0))
	assert.Equal(t, uint16(0), f.Vector(0x0080))
	assert.Equal(t, uint16(0), f.Vector(0xffff))
}

func TestWarmResetKeepsRAM(t *testing.T) {
	m := newMCU(t, idleROM)
	m.Bank.StoreByte(0x90, 0xa5)
	m.Bank.StoreByte(mcu.RegTRCSR, mcu.TE|mcu.RE)
	m.Run(100)

	m.Reset(mcu.Warm)
	assert.Equal(t, byte(0xa5), m.Bank.Peek(0x90))
	assert.Equal(t, byte(mcu.TDRE), m.Bank.Peek(mcu.RegTRCSR))
	assert.Equal(t, uint16(0xf000), m.CPU.Reg.PC)
}

func TestBankDecoding(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank

	// ROM ignores writes.
	rom := b.LoadByte(0xf000)
	b.StoreByte(0xf000, ^rom)
	assert.Equal(t, rom, b.LoadByte(0xf000))

	// Unmapped and reserved addresses float high.
	for _, addr := range []uint16{0x0015, 0x001f, 0x0020, 0x007f, 0x0100, 0x8000, 0xefff} {
		b.StoreByte(addr, 0x00)
		assert.Equal(t, byte(0xff), b.LoadByte(addr), "address $%04X", addr)
	}

	// RAM is plain storage.
	b.StoreByte(0x80, 0x12)
	b.StoreByte(0xff, 0x34)
	assert.Equal(t, byte(0x12), b.LoadByte(0x80))
	assert.Equal(t, byte(0x34), b.LoadByte(0xff))

	// Peripheral registers are not.
	b.StoreByte(mcu.RegTDR, 0x42)
	assert.Equal(t, byte(0xff), b.LoadByte(mcu.RegTDR))
	assert.Equal(t, "SCI", b.RegionName(mcu.RegTDR))
	assert.Equal(t, "", b.RegionName(0x15))

	// Clearing RAME disables RAM.
	b.StoreByte(mcu.RegRAMControl, 0x00)
	assert.Equal(t, byte(0xff), b.LoadByte(0x80))
	b.StoreByte(mcu.RegRAMControl, 0x40)
	assert.Equal(t, byte(0x12), b.LoadByte(0x80))
}

func TestFeedOverrunPreservesUnreadByte(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank

	assert.False(t, m.IsReceiveBusy())
	assert.Equal(t, mcu.Accepted, m.FeedInbound(0x14))
	assert.True(t, m.IsReceiveBusy())

	assert.Equal(t, mcu.Overrun, m.FeedInbound(0x99))
	status := b.Peek(mcu.RegTRCSR)
	assert.NotZero(t, status&mcu.ORFE, "ORFE")
	assert.NotZero(t, status&mcu.RDRF, "RDRF")
	assert.Equal(t, byte(0x14), b.Peek(mcu.RegRDR), "unread byte kept")

	// Peeking has no side effects.
	assert.True(t, m.IsReceiveBusy())

	// Status read followed by RDR read clears both flags.
	b.LoadByte(mcu.RegTRCSR)
	assert.Equal(t, byte(0x14), b.LoadByte(mcu.RegRDR))
	assert.Zero(t, b.Peek(mcu.RegTRCSR)&(mcu.RDRF|mcu.ORFE))
	assert.False(t, m.IsReceiveBusy())

	assert.Equal(t, mcu.Accepted, m.FeedInbound(0x01))
	assert.Equal(t, byte(0x01), b.Peek(mcu.RegRDR))
}

func TestRDRReadWithoutStatusKeepsORFE(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank

	m.FeedInbound(0x01)
	m.FeedInbound(0x02)
	b.LoadByte(mcu.RegRDR)

	status := b.Peek(mcu.RegTRCSR)
	assert.Zero(t, status&mcu.RDRF)
	assert.NotZero(t, status&mcu.ORFE)
}

func TestTransmitShiftTime(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank
	b.StoreByte(mcu.RegRMCR, 0x01) // E/128
	b.StoreByte(mcu.RegTRCSR, mcu.TE)

	b.StoreByte(mcu.RegTDR, 0x42)
	assert.Zero(t, b.Peek(mcu.RegTRCSR)&mcu.TDRE, "TDRE clears on TDR write")

	// The first bit clock edge moves the byte into the shift register.
	m.Advance(1)
	assert.NotZero(t, b.Peek(mcu.RegTRCSR)&mcu.TDRE)

	m.Advance(10*128 - 1)
	_, ok := m.DrainOutbound()
	assert.False(t, ok, "byte drained before its frame finished")

	m.Advance(1)
	v, ok := m.DrainOutbound()
	require.True(t, ok)
	assert.Equal(t, byte(0x42), v)

	_, ok = m.DrainOutbound()
	assert.False(t, ok)
}

func TestTransmitDisabled(t *testing.T) {
	m := newMCU(t, idleROM)
	m.Bank.StoreByte(mcu.RegTDR, 0x42)
	m.Advance(100000)

	_, ok := m.DrainOutbound()
	assert.False(t, ok)
	assert.Zero(t, m.Bank.Peek(mcu.RegTRCSR)&mcu.TDRE)
}

func TestTransmitHoldsWhenLatchFull(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank
	b.StoreByte(mcu.RegTRCSR, mcu.TE) // E/16

	for _, v := range []byte{0x01, 0x02, 0x03} {
		b.StoreByte(mcu.RegTDR, v)
		m.Advance(16 * 12)
	}

	// The first byte waits in the latch, the second in the shift
	// register, and the third in TDR.
	assert.Zero(t, b.Peek(mcu.RegTRCSR)&mcu.TDRE)
	for _, want := range []byte{0x01, 0x02, 0x03} {
		v, ok := m.DrainOutbound()
		require.True(t, ok)
		assert.Equal(t, want, v)
		m.Advance(16 * 12)
	}
}

func TestTransmitCapacity(t *testing.T) {
	m := newMCU(t, idleROM)
	m.ReportTransmitCapacity(false)
	assert.Zero(t, m.Bank.Peek(mcu.RegTRCSR)&mcu.TDRE)
	m.ReportTransmitCapacity(true)
	assert.NotZero(t, m.Bank.Peek(mcu.RegTRCSR)&mcu.TDRE)
}

func TestTimerCompareInterrupt(t *testing.T) {
	m := newMCU(t, mcutest.TimerROM)

	m.Run(1000 + 12 + 200)
	assert.Equal(t, byte(1), m.Bank.Peek(mcutest.CounterRAM))

	m.Run(20000)
	assert.Equal(t, byte(1), m.Bank.Peek(mcutest.CounterRAM), "compare fires once per counter period")
}

func TestTimerOverflow(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank

	b.StoreByte(mcu.RegFRCH, 0x00)
	assert.Equal(t, uint16(0xfff8), m.Timer.Counter())
	m.Advance(7)
	assert.Zero(t, b.Peek(mcu.RegTCSR)&mcu.TOF)
	m.Advance(1)
	assert.NotZero(t, b.Peek(mcu.RegTCSR)&mcu.TOF)

	// Reading the counter without reading TCSR first leaves TOF set.
	b.LoadByte(mcu.RegFRCH)
	assert.NotZero(t, b.Peek(mcu.RegTCSR)&mcu.TOF)

	b.LoadByte(mcu.RegTCSR)
	b.LoadByte(mcu.RegFRCH)
	assert.Zero(t, b.Peek(mcu.RegTCSR)&mcu.TOF)
}

func TestTimerCompareFlag(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank

	b.StoreByte(mcu.RegOCRH, 0x00)
	b.StoreByte(mcu.RegOCRL, 0x10)
	m.Advance(0x0f - int(m.Timer.Counter()))
	assert.Zero(t, b.Peek(mcu.RegTCSR)&mcu.OCF)
	m.Advance(1)
	assert.NotZero(t, b.Peek(mcu.RegTCSR)&mcu.OCF)

	// Sticky until TCSR is read and OCR written.
	b.StoreByte(mcu.RegOCRL, 0x10)
	assert.NotZero(t, b.Peek(mcu.RegTCSR)&mcu.OCF)
	b.LoadByte(mcu.RegTCSR)
	b.StoreByte(mcu.RegOCRL, 0x10)
	assert.Zero(t, b.Peek(mcu.RegTCSR)&mcu.OCF)
}

func TestCounterLatch(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank

	m.Advance(0x1234 - int(m.Timer.Counter()))
	assert.Equal(t, byte(0x12), b.LoadByte(mcu.RegFRCH))
	m.Advance(0x10)
	assert.Equal(t, byte(0x34), b.LoadByte(mcu.RegFRCL))
	assert.Equal(t, byte(0x44), b.LoadByte(mcu.RegFRCL))
}

func TestInterruptPriority(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank

	_, ok := m.Pending()
	assert.False(t, ok)

	b.StoreByte(mcu.RegTRCSR, mcu.RIE|mcu.RE)
	m.FeedInbound(0x01)
	v, ok := m.Pending()
	assert.True(t, ok)
	assert.Equal(t, uint16(cpu.VectorSCI), v)

	b.StoreByte(mcu.RegTCSR, mcu.ETOI)
	b.StoreByte(mcu.RegFRCH, 0)
	m.Advance(8)
	v, _ = m.Pending()
	assert.Equal(t, uint16(cpu.VectorTOF), v)

	b.StoreByte(mcu.RegTCSR, mcu.ETOI|mcu.EOCI)
	b.StoreByte(mcu.RegOCRH, 0x00)
	b.StoreByte(mcu.RegOCRL, 0x10)
	m.Advance(0x10)
	v, _ = m.Pending()
	assert.Equal(t, uint16(cpu.VectorOCF), v)

	m.SetIRQ1(true)
	v, _ = m.Pending()
	assert.Equal(t, uint16(cpu.VectorIRQ1), v)
}

func TestBootAcknowledge(t *testing.T) {
	m := mcu.New(mcutest.Firmware(t, mcutest.BootROM))

	b, n, ok := runUntilOutput(m, 5000)
	require.True(t, ok, "no output within %d cycles", n)
	assert.Equal(t, byte(0xf1), b)
}

func TestCommandFraming(t *testing.T) {
	m := newMCU(t, mcutest.CommandROM)
	m.Run(200)

	m.FeedInbound(0x55)
	b, _, ok := runUntilOutput(m, 5000)
	require.True(t, ok)
	assert.Equal(t, byte(0x55), b)
}

func TestIllegalOpcode(t *testing.T) {
	m := newMCU(t, `
start:
	NOP
	.byte $00
	.org $FFF0
	.word start, start, start, start, start, start, start, start
`)

	n := m.Run(100)
	assert.GreaterOrEqual(t, n, 100)
	assert.True(t, m.IsCrashed())
	assert.Equal(t, uint16(0xf001), m.CPU.Fault().PC)

	// Peripherals keep running while crashed.
	before := m.Timer.Counter()
	m.Run(50)
	assert.Equal(t, before+50, m.Timer.Counter())

	m.Reset(mcu.Warm)
	assert.False(t, m.IsCrashed())
}

type fixedPins struct {
	levels  byte
	outputs mcu.PortLevels
}

func (p *fixedPins) InputPins(port mcu.Port, outputs mcu.PortLevels) byte {
	p.outputs = outputs
	return p.levels
}

func TestPorts(t *testing.T) {
	m := newMCU(t, idleROM)
	b := m.Bank
	pins := &fixedPins{levels: 0xa5}
	m.SetPinSource(pins)

	// All inputs after reset.
	assert.Equal(t, byte(0xa5), b.LoadByte(mcu.RegP1))

	b.StoreByte(mcu.RegP1DDR, 0x0f)
	b.StoreByte(mcu.RegP1, 0x00)
	assert.Equal(t, byte(0xa0), b.LoadByte(mcu.RegP1))
	assert.Equal(t, byte(0xff), b.LoadByte(mcu.RegP1DDR), "DDR is write-only")

	b.StoreByte(mcu.RegP3DDR, 0xfe)
	b.StoreByte(mcu.RegP3, 0xfd)
	b.LoadByte(mcu.RegP1)
	assert.Equal(t, byte(0xfd), pins.outputs[mcu.P3])
	assert.Equal(t, byte(0xf0), pins.outputs[mcu.P1])

	// Port 2 reports mode 7 in its upper bits.
	assert.Equal(t, byte(0xe5), b.LoadByte(mcu.RegP2))
}
