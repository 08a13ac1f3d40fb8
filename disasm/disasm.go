// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements an HD6301 instruction set
// disassembler.
package disasm

import (
	"fmt"

	"github.com/beevik/go6301/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = [...]string{
	cpu.INH: "",
	cpu.IMM: "#$%s",
	cpu.DIR: "$%s",
	cpu.IDX: "$%s,X",
	cpu.EXT: "$%s",
	cpu.REL: "$%s",
	cpu.BDR: "#$%s,$%s",
	cpu.BIX: "#$%s,$%s,X",
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the big-endian byte
// slice.
func hexString(b []byte) string {
	hexbuf := make([]byte, 0, len(b)*2)
	for _, n := range b {
		hexbuf = append(hexbuf, hex[n>>4], hex[n&0xf])
	}
	return string(hexbuf)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Memory is read
// with LoadByte, so pass a side-effect-free view when disassembling
// peripheral registers.
func Disassemble(m cpu.Memory, addr uint16) (line string, next uint16) {
	opcode := m.LoadByte(addr)
	inst := cpu.GetInstructionSet().Lookup(opcode)
	next = addr + uint16(inst.Length)

	if inst.Illegal() {
		return fmt.Sprintf(".byte $%02X", opcode), next
	}

	operand := make([]byte, inst.Length-1)
	for i := range operand {
		operand[i] = m.LoadByte(addr + 1 + uint16(i))
	}

	switch inst.Mode {
	case cpu.INH:
		return inst.Name, next
	case cpu.REL:
		// Convert relative offset to absolute address.
		target := next + uint16(int8(operand[0]))
		operand = []byte{byte(target >> 8), byte(target)}
	case cpu.BDR, cpu.BIX:
		format := "%s " + modeFormat[inst.Mode]
		return fmt.Sprintf(format, inst.Name, hexString(operand[:1]), hexString(operand[1:])), next
	}

	format := "%s " + modeFormat[inst.Mode]
	return fmt.Sprintf(format, inst.Name, hexString(operand)), next
}

// GetRegisterString returns a string describing the contents of the
// registers. Condition code flags that are set appear as letters and
// clear flags as dashes.
func GetRegisterString(r *cpu.Registers) string {
	cc := []byte("HINZVC")
	for i, set := range []bool{r.HalfCarry, r.InterruptMask, r.Negative, r.Zero, r.Overflow, r.Carry} {
		if !set {
			cc[i] = '-'
		}
	}
	return fmt.Sprintf("A=%02X B=%02X X=%04X SP=%04X CC=%s", r.A, r.B, r.X, r.SP, cc)
}
