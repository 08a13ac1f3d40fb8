// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Registers contains the state of all HD6301 registers.
type Registers struct {
	A             byte   // accumulator A (high byte of D)
	B             byte   // accumulator B (low byte of D)
	X             uint16 // index register
	SP            uint16 // stack pointer
	PC            uint16 // program counter
	HalfCarry     bool   // CC: half carry from bit 3
	InterruptMask bool   // CC: interrupt mask
	Negative      bool   // CC: negative
	Zero          bool   // CC: zero
	Overflow      bool   // CC: two's complement overflow
	Carry         bool   // CC: carry/borrow
}

// Bits assigned to the condition code register
const (
	CarryBit         = 1 << 0
	OverflowBit      = 1 << 1
	ZeroBit          = 1 << 2
	NegativeBit      = 1 << 3
	InterruptMaskBit = 1 << 4
	HalfCarryBit     = 1 << 5
	ReservedBits     = 3 << 6
)

// D returns the 16-bit accumulator formed by A and B.
func (r *Registers) D() uint16 {
	return uint16(r.A)<<8 | uint16(r.B)
}

// SetD updates A and B from a 16-bit value.
func (r *Registers) SetD(v uint16) {
	r.A = byte(v >> 8)
	r.B = byte(v)
}

// SaveCC packs the condition codes into a byte. The two unused high bits
// always read as ones.
func (r *Registers) SaveCC() byte {
	cc := byte(ReservedBits)
	if r.Carry {
		cc |= CarryBit
	}
	if r.Overflow {
		cc |= OverflowBit
	}
	if r.Zero {
		cc |= ZeroBit
	}
	if r.Negative {
		cc |= NegativeBit
	}
	if r.InterruptMask {
		cc |= InterruptMaskBit
	}
	if r.HalfCarry {
		cc |= HalfCarryBit
	}
	return cc
}

// RestoreCC unpacks the condition codes from a byte.
func (r *Registers) RestoreCC(cc byte) {
	r.Carry = (cc & CarryBit) != 0
	r.Overflow = (cc & OverflowBit) != 0
	r.Zero = (cc & ZeroBit) != 0
	r.Negative = (cc & NegativeBit) != 0
	r.InterruptMask = (cc & InterruptMaskBit) != 0
	r.HalfCarry = (cc & HalfCarryBit) != 0
}

// Init puts the registers in their power-on state. The accumulators,
// index register and stack pointer are cleared and interrupts are masked.
func (r *Registers) Init() {
	r.A = 0
	r.B = 0
	r.X = 0
	r.SP = 0
	r.PC = 0
	r.RestoreCC(InterruptMaskBit)
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
