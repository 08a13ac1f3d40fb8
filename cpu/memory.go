// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur. Implementations may attach side effects to
// individual addresses, so the CPU reads every byte exactly once per
// architectural access.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer with no side effects.
type FlatMemory struct {
	b [64 * 1024]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes starting at the requested address,
// wrapping at the top of the address space.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	for i, v := range b {
		m.b[addr+uint16(i)] = v
	}
}

// LoadWord loads a big-endian 16-bit value from memory. The high byte is
// read first, which matters for latched peripheral registers.
func LoadWord(m Memory, addr uint16) uint16 {
	hi := m.LoadByte(addr)
	lo := m.LoadByte(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// StoreWord stores a big-endian 16-bit value to memory.
func StoreWord(m Memory, addr uint16, v uint16) {
	m.StoreByte(addr, byte(v>>8))
	m.StoreByte(addr+1, byte(v))
}

// Convert a 1- or 2-byte big-endian operand into a value.
func operandToWord(operand []byte) uint16 {
	switch len(operand) {
	case 1:
		return uint16(operand[0])
	case 2:
		return uint16(operand[0])<<8 | uint16(operand[1])
	}
	return 0
}
