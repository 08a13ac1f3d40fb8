// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcu

import "fmt"

// HD6301V1 memory map.
const (
	RegisterBase = 0x0000 // internal register window
	RegisterSize = 0x20
	RAMBase      = 0x0080 // on-chip RAM
	RAMSize      = 0x80
	ROMBase      = 0xf000 // mask ROM
	ROMSize      = 0x1000
)

// Address of the RAM control register, which the bank owns.
const RegRAMControl = 0x14

// RAM control register bits.
const (
	ramStandbyBit = 0x80 // STBY PWR
	ramEnableBit  = 0x40 // RAME
)

// Value returned by reads of unmapped and reserved addresses.
const openBus = 0xff

// An IORegion is a range of internal registers owned by a peripheral.
// Every access to the range is routed through the region's hooks. The
// optional peek hook reads without side effects; when it is nil the bank
// assumes onRead is side-effect free.
type IORegion struct {
	Name    string
	start   uint16
	end     uint16
	onRead  func(addr uint16) byte
	onPeek  func(addr uint16) byte
	onWrite func(addr uint16, v byte)
}

// A Bank decodes the 64 KiB address space of the HD6301V1 into the
// internal register window, on-chip RAM and mask ROM. Addresses that are
// none of these read $FF and ignore writes. The Bank implements the
// cpu.Memory interface.
type Bank struct {
	regions    [RegisterSize]*IORegion
	ram        [RAMSize]byte
	rom        [ROMSize]byte
	ramControl byte
}

// NewBank creates an empty bank with every internal register reserved.
func NewBank() *Bank {
	b := &Bank{}
	b.MapIO("RAMCR", RegRAMControl, RegRAMControl, b.readRAMControl, nil, b.writeRAMControl)
	b.Reset()
	return b
}

// MapIO hands the internal registers from start to end (inclusive) to a
// peripheral. A nil onWrite makes the registers read-only.
func (b *Bank) MapIO(name string, start, end uint16, onRead, onPeek func(addr uint16) byte, onWrite func(addr uint16, v byte)) {
	if end < start || end >= RegisterBase+RegisterSize {
		panic(fmt.Sprintf("MapIO %s: invalid register range $%02X-$%02X", name, start, end))
	}
	region := &IORegion{
		Name:    name,
		start:   start,
		end:     end,
		onRead:  onRead,
		onPeek:  onPeek,
		onWrite: onWrite,
	}
	for addr := start; addr <= end; addr++ {
		if b.regions[addr] != nil {
			panic(fmt.Sprintf("MapIO %s: register $%02X already owned by %s", name, addr, b.regions[addr].Name))
		}
		b.regions[addr] = region
	}
}

// RegionName returns the name of the peripheral owning an internal
// register address, or "" if the address is reserved or outside the
// register window.
func (b *Bank) RegionName(addr uint16) string {
	if addr < RegisterBase+RegisterSize && b.regions[addr] != nil {
		return b.regions[addr].Name
	}
	return ""
}

// Reset restores the RAM control register to its power-on value.
func (b *Bank) Reset() {
	b.ramControl = ramStandbyBit | ramEnableBit
}

// ClearRAM zeroes the on-chip RAM.
func (b *Bank) ClearRAM() {
	clear(b.ram[:])
}

// LoadROM copies a firmware image into the mask ROM.
func (b *Bank) LoadROM(f *Firmware) {
	copy(b.rom[:], f.data[:])
}

func (b *Bank) ramEnabled() bool {
	return b.ramControl&ramEnableBit != 0
}

// LoadByte reads a byte, triggering any peripheral read side effects.
func (b *Bank) LoadByte(addr uint16) byte {
	switch {
	case addr < RegisterBase+RegisterSize:
		if r := b.regions[addr]; r != nil && r.onRead != nil {
			return r.onRead(addr)
		}
		return openBus
	case addr >= RAMBase && addr < RAMBase+RAMSize:
		if !b.ramEnabled() {
			return openBus
		}
		return b.ram[addr-RAMBase]
	case addr >= ROMBase:
		return b.rom[addr-ROMBase]
	default:
		return openBus
	}
}

// Peek reads a byte without triggering peripheral side effects. It is
// used by the disassembler and debug console.
func (b *Bank) Peek(addr uint16) byte {
	if addr < RegisterBase+RegisterSize {
		r := b.regions[addr]
		switch {
		case r == nil:
			return openBus
		case r.onPeek != nil:
			return r.onPeek(addr)
		case r.onRead != nil:
			return r.onRead(addr)
		default:
			return openBus
		}
	}
	return b.LoadByte(addr)
}

// StoreByte writes a byte. Writes to ROM, unmapped addresses and
// read-only registers are ignored.
func (b *Bank) StoreByte(addr uint16, v byte) {
	switch {
	case addr < RegisterBase+RegisterSize:
		if r := b.regions[addr]; r != nil && r.onWrite != nil {
			r.onWrite(addr, v)
		}
	case addr >= RAMBase && addr < RAMBase+RAMSize:
		if b.ramEnabled() {
			b.ram[addr-RAMBase] = v
		}
	}
}

func (b *Bank) readRAMControl(addr uint16) byte {
	return b.ramControl | 0x3f
}

func (b *Bank) writeRAMControl(addr uint16, v byte) {
	b.ramControl = v & (ramStandbyBit | ramEnableBit)
}

// A View adapts the bank to the cpu.Memory interface using side-effect
// free reads, so that inspection tools can walk memory safely. Stores
// pass through to the bank.
type View struct {
	Bank *Bank
}

// LoadByte peeks at a byte.
func (v View) LoadByte(addr uint16) byte {
	return v.Bank.Peek(addr)
}

// StoreByte stores a byte in the bank.
func (v View) StoreByte(addr uint16, b byte) {
	v.Bank.StoreByte(addr, b)
}
