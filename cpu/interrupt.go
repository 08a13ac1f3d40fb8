// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Interrupt vectors
const (
	VectorTrap  = 0xffee // illegal opcode trap (unused, see Fault)
	VectorSCI   = 0xfff0 // serial communications interface
	VectorTOF   = 0xfff2 // timer overflow
	VectorOCF   = 0xfff4 // timer output compare
	VectorICF   = 0xfff6 // timer input capture
	VectorIRQ1  = 0xfff8 // external interrupt request
	VectorSWI   = 0xfffa // software interrupt
	VectorNMI   = 0xfffc // non-maskable interrupt
	VectorReset = 0xfffe // reset
)

// InterruptCycles is the number of cycles consumed when the CPU stacks its
// state and enters an interrupt handler.
const InterruptCycles = 12

// Cycles consumed leaving a WAI once an interrupt arrives. The machine
// state was already stacked by WAI itself.
const wakeCycles = 4

// Peripherals is the interface the CPU uses to reach on-chip devices. It is
// consulted before every instruction fetch and informed of the cycles every
// step consumed.
type Peripherals interface {
	// Pending returns the vector of the highest priority interrupt request
	// currently asserted, whether or not the CPU has interrupts masked.
	Pending() (vector uint16, ok bool)

	// Advance moves peripheral time forward by the given number of cycles.
	Advance(cycles int)
}

// Consult the peripherals and dispatch an interrupt if one is pending and
// unmasked. Returns true if a dispatch happened.
func (cpu *CPU) serviceInterrupt() bool {
	if cpu.periph == nil {
		return false
	}
	vector, ok := cpu.periph.Pending()
	if !ok {
		return false
	}

	var cycles uint64
	switch {
	case cpu.Reg.InterruptMask:
		// SLP is released by any request. Execution continues after it.
		if cpu.wait == sleeping {
			cpu.wait = running
		}
		return false
	case cpu.wait == waitInterrupt:
		cycles = wakeCycles
	default:
		cpu.pushState()
		cycles = InterruptCycles
	}

	cpu.wait = running
	cpu.Reg.InterruptMask = true
	cpu.LastPC = cpu.Reg.PC
	cpu.Reg.PC = LoadWord(cpu.Mem, vector)
	cpu.Cycles += cycles

	if cpu.debugger != nil {
		cpu.debugger.onUpdatePC(cpu, cpu.Reg.PC)
	}
	return true
}
