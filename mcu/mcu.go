// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcu assembles an HD6301V1 microcontroller from the cpu core, the
// address-decoded register bank and the on-chip peripherals.
package mcu

import (
	"math/rand/v2"

	"github.com/beevik/go6301/cpu"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("go6301.mcu")

// ResetKind selects between a cold (power-on) reset and a warm reset.
type ResetKind int

// Reset kinds.
const (
	Cold ResetKind = iota // clear RAM and re-randomize the SCI phase
	Warm                  // keep RAM
)

func (k ResetKind) String() string {
	if k == Warm {
		return "warm"
	}
	return "cold"
}

// An Option configures an MCU.
type Option func(m *MCU)

// WithPhase replaces the random source used to seed the SCI phase on
// cold reset.
func WithPhase(phase func() uint32) Option {
	return func(m *MCU) {
		m.phase = phase
	}
}

// MCU is an HD6301V1 with its firmware. It is owned by a single
// goroutine; nothing here is safe for concurrent use.
type MCU struct {
	CPU      *cpu.CPU
	Bank     *Bank
	SCI      *SCI
	Timer    *Timer
	Ports    *Ports
	firmware *Firmware
	phase    func() uint32
	irq1     bool
}

// New creates a microcontroller running the firmware and cold-resets it.
func New(f *Firmware, options ...Option) *MCU {
	m := &MCU{
		Bank:     NewBank(),
		SCI:      newSCI(),
		Timer:    newTimer(),
		Ports:    newPorts(),
		firmware: f,
		phase:    rand.Uint32,
	}
	for _, o := range options {
		o(m)
	}

	m.Bank.MapIO("PORT", RegP1DDR, RegP4, m.Ports.read, nil, m.Ports.write)
	m.Bank.MapIO("TIMER", RegTCSR, RegICRL, m.Timer.read, m.Timer.peek, m.Timer.write)
	m.Bank.MapIO("P3CSR", RegP3CSR, RegP3CSR, m.Ports.read, nil, m.Ports.write)
	m.Bank.MapIO("SCI", RegRMCR, RegTDR, m.SCI.read, m.SCI.peek, m.SCI.write)
	m.Bank.LoadROM(f)

	m.CPU = cpu.NewCPU(m.Bank)
	m.CPU.AttachPeripherals(m)
	m.Reset(Cold)
	return m
}

// Firmware returns the ROM image the MCU runs.
func (m *MCU) Firmware() *Firmware {
	return m.firmware
}

// Reset performs a cold or warm reset. Both reinitialize the CPU
// registers, the peripheral control registers and the program counter.
// A cold reset also clears RAM and re-randomizes the SCI phase counter.
func (m *MCU) Reset(kind ResetKind) {
	m.Bank.Reset()
	m.Timer.reset()
	m.SCI.reset()
	m.Ports.reset()
	m.irq1 = false

	if kind == Cold {
		m.Bank.ClearRAM()
		phase := m.phase()
		m.SCI.seed(phase)
		logger.Debugf("SCI phase %d", phase)
	}

	m.CPU.Reset()
	logger.Infof("%s reset, PC=$%04X", kind, m.CPU.Reg.PC)
}

// Run executes instructions until at least budget cycles have been
// consumed, and returns the number of cycles consumed.
func (m *MCU) Run(budget int) int {
	return m.CPU.Run(budget)
}

// Cycles returns the total number of cycles consumed since creation.
func (m *MCU) Cycles() uint64 {
	return m.CPU.Cycles
}

// IsCrashed returns true if the CPU has executed an illegal opcode and
// has not been reset since.
func (m *MCU) IsCrashed() bool {
	return m.CPU.Crashed()
}

// FeedInbound delivers a byte from the host into the SCI receiver.
func (m *MCU) FeedInbound(b byte) FeedResult {
	r := m.SCI.feed(b)
	if r == Overrun {
		logger.Warningf("SCI overrun, byte $%02X discarded", b)
	} else {
		logger.Tracef("SCI rx $%02X", b)
	}
	return r
}

// DrainOutbound takes the next byte the firmware has transmitted, if any.
func (m *MCU) DrainOutbound() (byte, bool) {
	b, ok := m.SCI.drain()
	if ok {
		logger.Tracef("SCI tx $%02X", b)
	}
	return b, ok
}

// HasOutbound returns true if a transmitted byte is waiting to be
// drained.
func (m *MCU) HasOutbound() bool {
	return m.SCI.outFull
}

// IsReceiveBusy returns true while RDR holds a byte the firmware has not
// read.
func (m *MCU) IsReceiveBusy() bool {
	return m.SCI.rdrf
}

// ReportTransmitCapacity tells the SCI whether the outbound transport can
// accept another byte. TDRE only reads set while it can.
func (m *MCU) ReportTransmitCapacity(ok bool) {
	m.SCI.capacity = ok
}

// SetIRQ1 drives the external interrupt request line. The line is level
// sensitive.
func (m *MCU) SetIRQ1(asserted bool) {
	m.irq1 = asserted
}

// SetPinSource connects external hardware to the I/O port pins.
func (m *MCU) SetPinSource(src PinSource) {
	if src == nil {
		src = pullUps{}
	}
	m.Ports.source = src
}

// Pending returns the vector of the highest priority interrupt request.
// It implements cpu.Peripherals.
func (m *MCU) Pending() (vector uint16, ok bool) {
	if m.irq1 {
		return cpu.VectorIRQ1, true
	}
	icf, ocf, tof := m.Timer.pending()
	switch {
	case icf:
		return cpu.VectorICF, true
	case ocf:
		return cpu.VectorOCF, true
	case tof:
		return cpu.VectorTOF, true
	case m.SCI.pending():
		return cpu.VectorSCI, true
	}
	return 0, false
}

// Advance moves the timer and serial clocks forward. It implements
// cpu.Peripherals.
func (m *MCU) Advance(cycles int) {
	m.Timer.advance(cycles)
	m.SCI.advance(cycles)
}
