// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements the Hitachi HD6301 instruction set and
// an instruction-level emulator for it.
package cpu

import (
	"errors"
	"fmt"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("go6301.cpu")

// ErrCrashed is the error every Fault wraps.
var ErrCrashed = errors.New("cpu crashed")

// A Fault records the illegal opcode that crashed the CPU.
type Fault struct {
	PC     uint16 // address of the offending opcode
	Opcode byte   // the opcode itself
}

func (f *Fault) Error() string {
	return fmt.Sprintf("illegal opcode $%02X at $%04X", f.Opcode, f.PC)
}

func (f *Fault) Unwrap() error {
	return ErrCrashed
}

type waitState byte

const (
	running       waitState = iota
	waitInterrupt           // WAI: state stacked, waiting for an unmasked interrupt
	sleeping                // SLP: waiting for any interrupt request
)

// CPU represents a single HD6301 CPU core. It contains a pointer to the
// memory associated with the CPU.
type CPU struct {
	Reg       Registers       // CPU registers
	Mem       Memory          // assigned memory
	Cycles    uint64          // total executed CPU cycles
	LastPC    uint16          // Previous program counter
	InstSet   *InstructionSet // Instruction set used by the CPU
	periph    Peripherals
	wait      waitState
	fault     *Fault
	debugger  *Debugger
	brk       bool
	storeByte func(cpu *CPU, addr uint16, v byte)
}

// NewCPU creates an emulated HD6301 CPU bound to the specified memory.
func NewCPU(m Memory) *CPU {
	cpu := &CPU{
		Mem:       m,
		InstSet:   GetInstructionSet(),
		storeByte: (*CPU).storeByteNormal,
	}

	cpu.Reg.Init()
	return cpu
}

// AttachPeripherals connects the on-chip devices that raise interrupts and
// follow the CPU's cycle count.
func (cpu *CPU) AttachPeripherals(p Peripherals) {
	cpu.periph = p
}

// SetPC updates the CPU program counter to 'addr'.
func (cpu *CPU) SetPC(addr uint16) {
	cpu.Reg.PC = addr
}

// Reset initializes the registers, clears any crash and wait state, and
// loads the program counter from the reset vector.
func (cpu *CPU) Reset() {
	cpu.Reg.Init()
	cpu.wait = running
	cpu.fault = nil
	cpu.Reg.PC = LoadWord(cpu.Mem, VectorReset)
}

// Crashed returns true if the CPU has executed an illegal opcode. A crashed
// CPU makes no further progress until it is reset.
func (cpu *CPU) Crashed() bool {
	return cpu.fault != nil
}

// Fault returns the illegal opcode that crashed the CPU, or nil.
func (cpu *CPU) Fault() *Fault {
	return cpu.fault
}

// Waiting returns true while the CPU is idling in WAI or SLP.
func (cpu *CPU) Waiting() bool {
	return cpu.wait != running
}

// GetInstruction returns the instruction opcode at the requested address.
func (cpu *CPU) GetInstruction(addr uint16) *Instruction {
	opcode := cpu.Mem.LoadByte(addr)
	return cpu.InstSet.Lookup(opcode)
}

// NextAddr returns the address of the next instruction following the
// instruction at addr.
func (cpu *CPU) NextAddr(addr uint16) uint16 {
	opcode := cpu.Mem.LoadByte(addr)
	inst := cpu.InstSet.Lookup(opcode)
	return addr + uint16(inst.Length)
}

// Step the cpu by one instruction, one interrupt dispatch, or one idle
// cycle, and return the number of cycles consumed.
func (cpu *CPU) Step() int {
	start := cpu.Cycles

	switch {
	case cpu.fault != nil:
		cpu.Cycles++
	case cpu.serviceInterrupt():
	case cpu.wait != running:
		cpu.Cycles++
	default:
		cpu.execute()
	}

	n := int(cpu.Cycles - start)
	if cpu.periph != nil {
		cpu.periph.Advance(n)
	}
	return n
}

// Run executes whole instructions until at least 'budget' cycles have been
// consumed or Break is called. The final instruction may overshoot the
// budget. It returns the number of cycles actually consumed.
func (cpu *CPU) Run(budget int) int {
	n := 0
	cpu.brk = false
	for n < budget && !cpu.brk {
		n += cpu.Step()
	}
	return n
}

// Break makes Run return after the current instruction. Breakpoint
// handlers use it to stop the CPU.
func (cpu *CPU) Break() {
	cpu.brk = true
}

func (cpu *CPU) execute() {
	// Grab the next opcode at the current PC
	opcode := cpu.Mem.LoadByte(cpu.Reg.PC)

	// Look up the instruction data for the opcode
	inst := cpu.InstSet.Lookup(opcode)
	if inst.fn == nil {
		cpu.crash(opcode)
		cpu.Cycles++
		return
	}

	// Fetch the operand (if any) and advance the PC
	var buf [2]byte
	operand := buf[:inst.Length-1]
	for i := range operand {
		operand[i] = cpu.Mem.LoadByte(cpu.Reg.PC + 1 + uint16(i))
	}
	cpu.LastPC = cpu.Reg.PC
	cpu.Reg.PC += uint16(inst.Length)

	inst.fn(cpu, inst, operand)
	cpu.Cycles += uint64(inst.Cycles)

	if cpu.debugger != nil {
		cpu.debugger.onUpdatePC(cpu, cpu.Reg.PC)
	}
}

func (cpu *CPU) crash(opcode byte) {
	cpu.fault = &Fault{PC: cpu.Reg.PC, Opcode: opcode}
	logger.Errorf("%v; cpu halted until reset", cpu.fault)
}

// AttachDebugger attaches a debugger to the CPU. The debugger receives
// notifications whenever the CPU executes an instruction or stores a byte
// to memory.
func (cpu *CPU) AttachDebugger(debugger *Debugger) {
	cpu.debugger = debugger
	cpu.storeByte = (*CPU).storeByteDebugger
}

// DetachDebugger detaches the currently debugger from the CPU.
func (cpu *CPU) DetachDebugger() {
	cpu.debugger = nil
	cpu.storeByte = (*CPU).storeByteNormal
}

// Compute the effective address of a memory operand.
func (cpu *CPU) address(mode Mode, operand []byte) uint16 {
	switch mode {
	case DIR:
		return uint16(operand[0])
	case IDX:
		return cpu.Reg.X + uint16(operand[0])
	case EXT:
		return operandToWord(operand)
	case BDR:
		return uint16(operand[1])
	case BIX:
		return cpu.Reg.X + uint16(operand[1])
	default:
		panic("Invalid addressing mode")
	}
}

// Load a byte value using the requested addressing mode and the operand
// to determine where to load it from.
func (cpu *CPU) load(inst *Instruction, operand []byte) byte {
	if inst.Mode == IMM {
		return operand[0]
	}
	return cpu.Mem.LoadByte(cpu.address(inst.Mode, operand))
}

// Load a 16-bit value using the requested addressing mode.
func (cpu *CPU) loadWord(inst *Instruction, operand []byte) uint16 {
	if inst.Mode == IMM {
		return operandToWord(operand)
	}
	return LoadWord(cpu.Mem, cpu.address(inst.Mode, operand))
}

// Store a byte value using the instruction's addressing mode.
func (cpu *CPU) store(inst *Instruction, operand []byte, v byte) {
	cpu.storeByte(cpu, cpu.address(inst.Mode, operand), v)
}

// Store a 16-bit value, high byte first.
func (cpu *CPU) storeWord(inst *Instruction, operand []byte, v uint16) {
	addr := cpu.address(inst.Mode, operand)
	cpu.storeByte(cpu, addr, byte(v>>8))
	cpu.storeByte(cpu, addr+1, byte(v))
}

// Load a memory byte, transform it, and write it back.
func (cpu *CPU) modify(inst *Instruction, operand []byte, fn func(cpu *CPU, v byte) byte) {
	addr := cpu.address(inst.Mode, operand)
	cpu.storeByte(cpu, addr, fn(cpu, cpu.Mem.LoadByte(addr)))
}

// Execute a branch if 'cond' holds.
func (cpu *CPU) branch(operand []byte, cond bool) {
	if cond {
		cpu.Reg.PC += uint16(int8(operand[0]))
	}
}

// Store the byte value 'v' at the address 'addr'.
func (cpu *CPU) storeByteNormal(addr uint16, v byte) {
	cpu.Mem.StoreByte(addr, v)
}

// Store the byte value 'v' at the address 'addr'.
func (cpu *CPU) storeByteDebugger(addr uint16, v byte) {
	cpu.debugger.onDataStore(cpu, addr, v)
	cpu.Mem.StoreByte(addr, v)
}

// Push a value 'v' onto the stack.
func (cpu *CPU) push(v byte) {
	cpu.storeByte(cpu, cpu.Reg.SP, v)
	cpu.Reg.SP--
}

// Push a 16-bit value so that it reads big-endian from the stack.
func (cpu *CPU) pushWord(v uint16) {
	cpu.push(byte(v))
	cpu.push(byte(v >> 8))
}

// Pull a value from the stack and return it.
func (cpu *CPU) pull() byte {
	cpu.Reg.SP++
	return cpu.Mem.LoadByte(cpu.Reg.SP)
}

// Pull a 16-bit value from the stack.
func (cpu *CPU) pullWord() uint16 {
	hi := cpu.pull()
	lo := cpu.pull()
	return uint16(hi)<<8 | uint16(lo)
}

// Stack the full machine state, as done on interrupt entry.
func (cpu *CPU) pushState() {
	cpu.pushWord(cpu.Reg.PC)
	cpu.pushWord(cpu.Reg.X)
	cpu.push(cpu.Reg.A)
	cpu.push(cpu.Reg.B)
	cpu.push(cpu.Reg.SaveCC())
}

// Restore the machine state stacked by pushState.
func (cpu *CPU) pullState() {
	cpu.Reg.RestoreCC(cpu.pull())
	cpu.Reg.B = cpu.pull()
	cpu.Reg.A = cpu.pull()
	cpu.Reg.X = cpu.pullWord()
	cpu.Reg.PC = cpu.pullWord()
}

// Update the Zero and Negative flags based on the value of 'v'.
func (cpu *CPU) updateNZ(v byte) {
	cpu.Reg.Zero = (v == 0)
	cpu.Reg.Negative = ((v & 0x80) != 0)
}

// Update the Zero and Negative flags based on the 16-bit value of 'v'.
func (cpu *CPU) updateNZ16(v uint16) {
	cpu.Reg.Zero = (v == 0)
	cpu.Reg.Negative = ((v & 0x8000) != 0)
}

// Update N and Z, clear V, and return the value.
func (cpu *CPU) logic(v byte) byte {
	cpu.updateNZ(v)
	cpu.Reg.Overflow = false
	return v
}

// 8-bit addition with carry in, setting H, N, Z, V and C.
func (cpu *CPU) add(a, b byte, carry bool) byte {
	c := boolToByte(carry)
	r := uint16(a) + uint16(b) + uint16(c)
	v := byte(r)
	cpu.Reg.HalfCarry = (a&0x0f)+(b&0x0f)+c > 0x0f
	cpu.Reg.Carry = r > 0xff
	cpu.Reg.Overflow = (^(a ^ b) & (a ^ v) & 0x80) != 0
	cpu.updateNZ(v)
	return v
}

// 8-bit subtraction with borrow in, setting N, Z, V and C.
func (cpu *CPU) sub(a, b byte, borrow bool) byte {
	c := boolToByte(borrow)
	v := a - b - c
	cpu.Reg.Carry = uint16(a) < uint16(b)+uint16(c)
	cpu.Reg.Overflow = ((a ^ b) & (a ^ v) & 0x80) != 0
	cpu.updateNZ(v)
	return v
}

// 16-bit addition, setting N, Z, V and C.
func (cpu *CPU) add16(a, b uint16) uint16 {
	r := uint32(a) + uint32(b)
	v := uint16(r)
	cpu.Reg.Carry = r > 0xffff
	cpu.Reg.Overflow = (^(a ^ b) & (a ^ v) & 0x8000) != 0
	cpu.updateNZ16(v)
	return v
}

// 16-bit subtraction, setting N, Z, V and C.
func (cpu *CPU) sub16(a, b uint16) uint16 {
	v := a - b
	cpu.Reg.Carry = a < b
	cpu.Reg.Overflow = ((a ^ b) & (a ^ v) & 0x8000) != 0
	cpu.updateNZ16(v)
	return v
}

// Load a 16-bit register value, setting N and Z and clearing V.
func (cpu *CPU) logic16(v uint16) uint16 {
	cpu.updateNZ16(v)
	cpu.Reg.Overflow = false
	return v
}

// Shift and rotate helpers shared by the accumulator and memory forms.
// V is always N xor C after the operation.

func (cpu *CPU) doASL(v byte) byte {
	cpu.Reg.Carry = (v & 0x80) != 0
	v <<= 1
	cpu.updateNZ(v)
	cpu.Reg.Overflow = cpu.Reg.Negative != cpu.Reg.Carry
	return v
}

func (cpu *CPU) doASR(v byte) byte {
	cpu.Reg.Carry = (v & 0x01) != 0
	v = (v >> 1) | (v & 0x80)
	cpu.updateNZ(v)
	cpu.Reg.Overflow = cpu.Reg.Negative != cpu.Reg.Carry
	return v
}

func (cpu *CPU) doLSR(v byte) byte {
	cpu.Reg.Carry = (v & 0x01) != 0
	v >>= 1
	cpu.updateNZ(v)
	cpu.Reg.Overflow = cpu.Reg.Carry
	return v
}

func (cpu *CPU) doROL(v byte) byte {
	c := boolToByte(cpu.Reg.Carry)
	cpu.Reg.Carry = (v & 0x80) != 0
	v = (v << 1) | c
	cpu.updateNZ(v)
	cpu.Reg.Overflow = cpu.Reg.Negative != cpu.Reg.Carry
	return v
}

func (cpu *CPU) doROR(v byte) byte {
	c := boolToByte(cpu.Reg.Carry)
	cpu.Reg.Carry = (v & 0x01) != 0
	v = (v >> 1) | (c << 7)
	cpu.updateNZ(v)
	cpu.Reg.Overflow = cpu.Reg.Negative != cpu.Reg.Carry
	return v
}

func (cpu *CPU) doNEG(v byte) byte {
	return cpu.sub(0, v, false)
}

func (cpu *CPU) doCOM(v byte) byte {
	v = ^v
	cpu.updateNZ(v)
	cpu.Reg.Overflow = false
	cpu.Reg.Carry = true
	return v
}

func (cpu *CPU) doINC(v byte) byte {
	cpu.Reg.Overflow = (v == 0x7f)
	v++
	cpu.updateNZ(v)
	return v
}

func (cpu *CPU) doDEC(v byte) byte {
	cpu.Reg.Overflow = (v == 0x80)
	v--
	cpu.updateNZ(v)
	return v
}

func (cpu *CPU) doCLR(v byte) byte {
	cpu.Reg.Negative = false
	cpu.Reg.Zero = true
	cpu.Reg.Overflow = false
	cpu.Reg.Carry = false
	return 0
}

func (cpu *CPU) doTST(v byte) byte {
	cpu.updateNZ(v)
	cpu.Reg.Overflow = false
	cpu.Reg.Carry = false
	return v
}

// Add B to A
func (cpu *CPU) aba(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.add(cpu.Reg.A, cpu.Reg.B, false)
}

// Add B to X (unsigned, no flags)
func (cpu *CPU) abx(inst *Instruction, operand []byte) {
	cpu.Reg.X += uint16(cpu.Reg.B)
}

// Add with Carry to A
func (cpu *CPU) adca(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.add(cpu.Reg.A, cpu.load(inst, operand), cpu.Reg.Carry)
}

// Add with Carry to B
func (cpu *CPU) adcb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.add(cpu.Reg.B, cpu.load(inst, operand), cpu.Reg.Carry)
}

// Add to A
func (cpu *CPU) adda(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.add(cpu.Reg.A, cpu.load(inst, operand), false)
}

// Add to B
func (cpu *CPU) addb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.add(cpu.Reg.B, cpu.load(inst, operand), false)
}

// Add to D
func (cpu *CPU) addd(inst *Instruction, operand []byte) {
	cpu.Reg.SetD(cpu.add16(cpu.Reg.D(), cpu.loadWord(inst, operand)))
}

// AND Immediate with Memory
func (cpu *CPU) aim(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, func(cpu *CPU, v byte) byte {
		return cpu.logic(v & operand[0])
	})
}

// AND with A
func (cpu *CPU) anda(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.logic(cpu.Reg.A & cpu.load(inst, operand))
}

// AND with B
func (cpu *CPU) andb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.logic(cpu.Reg.B & cpu.load(inst, operand))
}

// Arithmetic Shift Left memory
func (cpu *CPU) asl(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doASL)
}

// Arithmetic Shift Left A
func (cpu *CPU) asla(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doASL(cpu.Reg.A)
}

// Arithmetic Shift Left B
func (cpu *CPU) aslb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doASL(cpu.Reg.B)
}

// Arithmetic Shift Left D
func (cpu *CPU) asld(inst *Instruction, operand []byte) {
	d := cpu.Reg.D()
	cpu.Reg.Carry = (d & 0x8000) != 0
	d <<= 1
	cpu.Reg.SetD(d)
	cpu.updateNZ16(d)
	cpu.Reg.Overflow = cpu.Reg.Negative != cpu.Reg.Carry
}

// Arithmetic Shift Right memory
func (cpu *CPU) asr(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doASR)
}

// Arithmetic Shift Right A
func (cpu *CPU) asra(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doASR(cpu.Reg.A)
}

// Arithmetic Shift Right B
func (cpu *CPU) asrb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doASR(cpu.Reg.B)
}

// Branch if Carry Clear
func (cpu *CPU) bcc(inst *Instruction, operand []byte) {
	cpu.branch(operand, !cpu.Reg.Carry)
}

// Branch if Carry Set
func (cpu *CPU) bcs(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Carry)
}

// Branch if EQual (to zero)
func (cpu *CPU) beq(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Zero)
}

// Branch if Greater or Equal (signed)
func (cpu *CPU) bge(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Negative == cpu.Reg.Overflow)
}

// Branch if Greater Than (signed)
func (cpu *CPU) bgt(inst *Instruction, operand []byte) {
	cpu.branch(operand, !cpu.Reg.Zero && cpu.Reg.Negative == cpu.Reg.Overflow)
}

// Branch if HIgher (unsigned)
func (cpu *CPU) bhi(inst *Instruction, operand []byte) {
	cpu.branch(operand, !cpu.Reg.Carry && !cpu.Reg.Zero)
}

// Bit test A
func (cpu *CPU) bita(inst *Instruction, operand []byte) {
	cpu.logic(cpu.Reg.A & cpu.load(inst, operand))
}

// Bit test B
func (cpu *CPU) bitb(inst *Instruction, operand []byte) {
	cpu.logic(cpu.Reg.B & cpu.load(inst, operand))
}

// Branch if Less or Equal (signed)
func (cpu *CPU) ble(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Zero || cpu.Reg.Negative != cpu.Reg.Overflow)
}

// Branch if Lower or Same (unsigned)
func (cpu *CPU) bls(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Carry || cpu.Reg.Zero)
}

// Branch if Less Than (signed)
func (cpu *CPU) blt(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Negative != cpu.Reg.Overflow)
}

// Branch if MInus
func (cpu *CPU) bmi(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Negative)
}

// Branch if Not Equal (not zero)
func (cpu *CPU) bne(inst *Instruction, operand []byte) {
	cpu.branch(operand, !cpu.Reg.Zero)
}

// Branch if PLus (positive)
func (cpu *CPU) bpl(inst *Instruction, operand []byte) {
	cpu.branch(operand, !cpu.Reg.Negative)
}

// Branch Always
func (cpu *CPU) bra(inst *Instruction, operand []byte) {
	cpu.branch(operand, true)
}

// Branch Never
func (cpu *CPU) brn(inst *Instruction, operand []byte) {
}

// Branch to SubRoutine
func (cpu *CPU) bsr(inst *Instruction, operand []byte) {
	cpu.pushWord(cpu.Reg.PC)
	cpu.branch(operand, true)
}

// Branch if oVerflow Clear
func (cpu *CPU) bvc(inst *Instruction, operand []byte) {
	cpu.branch(operand, !cpu.Reg.Overflow)
}

// Branch if oVerflow Set
func (cpu *CPU) bvs(inst *Instruction, operand []byte) {
	cpu.branch(operand, cpu.Reg.Overflow)
}

// Compare B to A
func (cpu *CPU) cba(inst *Instruction, operand []byte) {
	cpu.sub(cpu.Reg.A, cpu.Reg.B, false)
}

// Clear Carry flag
func (cpu *CPU) clc(inst *Instruction, operand []byte) {
	cpu.Reg.Carry = false
}

// Clear Interrupt mask
func (cpu *CPU) cli(inst *Instruction, operand []byte) {
	cpu.Reg.InterruptMask = false
}

// Clear memory
func (cpu *CPU) clr(inst *Instruction, operand []byte) {
	cpu.store(inst, operand, cpu.doCLR(0))
}

// Clear A
func (cpu *CPU) clra(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doCLR(cpu.Reg.A)
}

// Clear B
func (cpu *CPU) clrb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doCLR(cpu.Reg.B)
}

// Clear oVerflow flag
func (cpu *CPU) clv(inst *Instruction, operand []byte) {
	cpu.Reg.Overflow = false
}

// Compare with A
func (cpu *CPU) cmpa(inst *Instruction, operand []byte) {
	cpu.sub(cpu.Reg.A, cpu.load(inst, operand), false)
}

// Compare with B
func (cpu *CPU) cmpb(inst *Instruction, operand []byte) {
	cpu.sub(cpu.Reg.B, cpu.load(inst, operand), false)
}

// Complement memory
func (cpu *CPU) com(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doCOM)
}

// Complement A
func (cpu *CPU) coma(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doCOM(cpu.Reg.A)
}

// Complement B
func (cpu *CPU) comb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doCOM(cpu.Reg.B)
}

// Compare with X
func (cpu *CPU) cpx(inst *Instruction, operand []byte) {
	cpu.sub16(cpu.Reg.X, cpu.loadWord(inst, operand))
}

// Decimal Adjust A
func (cpu *CPU) daa(inst *Instruction, operand []byte) {
	a := cpu.Reg.A
	lo, hi := a&0x0f, a>>4
	carry := cpu.Reg.Carry

	var adjust byte
	if cpu.Reg.HalfCarry || lo > 9 {
		adjust |= 0x06
	}
	if carry || hi > 9 || (hi > 8 && lo > 9) {
		adjust |= 0x60
		carry = true
	}

	cpu.Reg.A = a + adjust
	cpu.Reg.Carry = carry
	cpu.updateNZ(cpu.Reg.A)
}

// Decrement memory
func (cpu *CPU) dec(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doDEC)
}

// Decrement A
func (cpu *CPU) deca(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doDEC(cpu.Reg.A)
}

// Decrement B
func (cpu *CPU) decb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doDEC(cpu.Reg.B)
}

// Decrement Stack pointer
func (cpu *CPU) des(inst *Instruction, operand []byte) {
	cpu.Reg.SP--
}

// Decrement X
func (cpu *CPU) dex(inst *Instruction, operand []byte) {
	cpu.Reg.X--
	cpu.Reg.Zero = (cpu.Reg.X == 0)
}

// Exclusive OR Immediate with Memory
func (cpu *CPU) eim(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, func(cpu *CPU, v byte) byte {
		return cpu.logic(v ^ operand[0])
	})
}

// Exclusive OR with A
func (cpu *CPU) eora(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.logic(cpu.Reg.A ^ cpu.load(inst, operand))
}

// Exclusive OR with B
func (cpu *CPU) eorb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.logic(cpu.Reg.B ^ cpu.load(inst, operand))
}

// Increment memory
func (cpu *CPU) inc(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doINC)
}

// Increment A
func (cpu *CPU) inca(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doINC(cpu.Reg.A)
}

// Increment B
func (cpu *CPU) incb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doINC(cpu.Reg.B)
}

// Increment Stack pointer
func (cpu *CPU) ins(inst *Instruction, operand []byte) {
	cpu.Reg.SP++
}

// Increment X
func (cpu *CPU) inx(inst *Instruction, operand []byte) {
	cpu.Reg.X++
	cpu.Reg.Zero = (cpu.Reg.X == 0)
}

// Jump
func (cpu *CPU) jmp(inst *Instruction, operand []byte) {
	cpu.Reg.PC = cpu.address(inst.Mode, operand)
}

// Jump to SubRoutine
func (cpu *CPU) jsr(inst *Instruction, operand []byte) {
	addr := cpu.address(inst.Mode, operand)
	cpu.pushWord(cpu.Reg.PC)
	cpu.Reg.PC = addr
}

// Load A
func (cpu *CPU) ldaa(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.logic(cpu.load(inst, operand))
}

// Load B
func (cpu *CPU) ldab(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.logic(cpu.load(inst, operand))
}

// Load D
func (cpu *CPU) ldd(inst *Instruction, operand []byte) {
	cpu.Reg.SetD(cpu.logic16(cpu.loadWord(inst, operand)))
}

// Load Stack pointer
func (cpu *CPU) lds(inst *Instruction, operand []byte) {
	cpu.Reg.SP = cpu.logic16(cpu.loadWord(inst, operand))
}

// Load X
func (cpu *CPU) ldx(inst *Instruction, operand []byte) {
	cpu.Reg.X = cpu.logic16(cpu.loadWord(inst, operand))
}

// Logical Shift Right memory
func (cpu *CPU) lsr(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doLSR)
}

// Logical Shift Right A
func (cpu *CPU) lsra(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doLSR(cpu.Reg.A)
}

// Logical Shift Right B
func (cpu *CPU) lsrb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doLSR(cpu.Reg.B)
}

// Logical Shift Right D
func (cpu *CPU) lsrd(inst *Instruction, operand []byte) {
	d := cpu.Reg.D()
	cpu.Reg.Carry = (d & 0x0001) != 0
	d >>= 1
	cpu.Reg.SetD(d)
	cpu.updateNZ16(d)
	cpu.Reg.Overflow = cpu.Reg.Carry
}

// Multiply A by B into D
func (cpu *CPU) mul(inst *Instruction, operand []byte) {
	cpu.Reg.SetD(uint16(cpu.Reg.A) * uint16(cpu.Reg.B))
	cpu.Reg.Carry = (cpu.Reg.B & 0x80) != 0
}

// Negate memory
func (cpu *CPU) neg(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doNEG)
}

// Negate A
func (cpu *CPU) nega(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doNEG(cpu.Reg.A)
}

// Negate B
func (cpu *CPU) negb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doNEG(cpu.Reg.B)
}

// No-operation
func (cpu *CPU) nop(inst *Instruction, operand []byte) {
	// Do nothing
}

// OR Immediate with Memory
func (cpu *CPU) oim(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, func(cpu *CPU, v byte) byte {
		return cpu.logic(v | operand[0])
	})
}

// OR with A
func (cpu *CPU) oraa(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.logic(cpu.Reg.A | cpu.load(inst, operand))
}

// OR with B
func (cpu *CPU) orab(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.logic(cpu.Reg.B | cpu.load(inst, operand))
}

// Push A
func (cpu *CPU) psha(inst *Instruction, operand []byte) {
	cpu.push(cpu.Reg.A)
}

// Push B
func (cpu *CPU) pshb(inst *Instruction, operand []byte) {
	cpu.push(cpu.Reg.B)
}

// Push X
func (cpu *CPU) pshx(inst *Instruction, operand []byte) {
	cpu.pushWord(cpu.Reg.X)
}

// Pull A
func (cpu *CPU) pula(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.pull()
}

// Pull B
func (cpu *CPU) pulb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.pull()
}

// Pull X
func (cpu *CPU) pulx(inst *Instruction, operand []byte) {
	cpu.Reg.X = cpu.pullWord()
}

// Rotate Left memory
func (cpu *CPU) rol(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doROL)
}

// Rotate Left A
func (cpu *CPU) rola(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doROL(cpu.Reg.A)
}

// Rotate Left B
func (cpu *CPU) rolb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doROL(cpu.Reg.B)
}

// Rotate Right memory
func (cpu *CPU) ror(inst *Instruction, operand []byte) {
	cpu.modify(inst, operand, (*CPU).doROR)
}

// Rotate Right A
func (cpu *CPU) rora(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.doROR(cpu.Reg.A)
}

// Rotate Right B
func (cpu *CPU) rorb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.doROR(cpu.Reg.B)
}

// Return from Interrupt
func (cpu *CPU) rti(inst *Instruction, operand []byte) {
	cpu.pullState()
}

// Return from Subroutine
func (cpu *CPU) rts(inst *Instruction, operand []byte) {
	cpu.Reg.PC = cpu.pullWord()
}

// Subtract B from A
func (cpu *CPU) sba(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.sub(cpu.Reg.A, cpu.Reg.B, false)
}

// Subtract with Carry from A
func (cpu *CPU) sbca(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.sub(cpu.Reg.A, cpu.load(inst, operand), cpu.Reg.Carry)
}

// Subtract with Carry from B
func (cpu *CPU) sbcb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.sub(cpu.Reg.B, cpu.load(inst, operand), cpu.Reg.Carry)
}

// Set Carry flag
func (cpu *CPU) sec(inst *Instruction, operand []byte) {
	cpu.Reg.Carry = true
}

// Set Interrupt mask
func (cpu *CPU) sei(inst *Instruction, operand []byte) {
	cpu.Reg.InterruptMask = true
}

// Set oVerflow flag
func (cpu *CPU) sev(inst *Instruction, operand []byte) {
	cpu.Reg.Overflow = true
}

// Sleep until an interrupt request arrives
func (cpu *CPU) slp(inst *Instruction, operand []byte) {
	cpu.wait = sleeping
}

// Store A
func (cpu *CPU) staa(inst *Instruction, operand []byte) {
	cpu.store(inst, operand, cpu.logic(cpu.Reg.A))
}

// Store B
func (cpu *CPU) stab(inst *Instruction, operand []byte) {
	cpu.store(inst, operand, cpu.logic(cpu.Reg.B))
}

// Store D
func (cpu *CPU) std(inst *Instruction, operand []byte) {
	cpu.storeWord(inst, operand, cpu.logic16(cpu.Reg.D()))
}

// Store Stack pointer
func (cpu *CPU) sts(inst *Instruction, operand []byte) {
	cpu.storeWord(inst, operand, cpu.logic16(cpu.Reg.SP))
}

// Store X
func (cpu *CPU) stx(inst *Instruction, operand []byte) {
	cpu.storeWord(inst, operand, cpu.logic16(cpu.Reg.X))
}

// Subtract from A
func (cpu *CPU) suba(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.sub(cpu.Reg.A, cpu.load(inst, operand), false)
}

// Subtract from B
func (cpu *CPU) subb(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.sub(cpu.Reg.B, cpu.load(inst, operand), false)
}

// Subtract from D
func (cpu *CPU) subd(inst *Instruction, operand []byte) {
	cpu.Reg.SetD(cpu.sub16(cpu.Reg.D(), cpu.loadWord(inst, operand)))
}

// Software Interrupt
func (cpu *CPU) swi(inst *Instruction, operand []byte) {
	cpu.pushState()
	cpu.Reg.InterruptMask = true
	cpu.Reg.PC = LoadWord(cpu.Mem, VectorSWI)
}

// Transfer A to B
func (cpu *CPU) tab(inst *Instruction, operand []byte) {
	cpu.Reg.B = cpu.logic(cpu.Reg.A)
}

// Transfer A to condition codes
func (cpu *CPU) tap(inst *Instruction, operand []byte) {
	cpu.Reg.RestoreCC(cpu.Reg.A)
}

// Transfer B to A
func (cpu *CPU) tba(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.logic(cpu.Reg.B)
}

// Test Immediate with Memory
func (cpu *CPU) tim(inst *Instruction, operand []byte) {
	addr := cpu.address(inst.Mode, operand)
	cpu.logic(cpu.Mem.LoadByte(addr) & operand[0])
}

// Transfer condition codes to A
func (cpu *CPU) tpa(inst *Instruction, operand []byte) {
	cpu.Reg.A = cpu.Reg.SaveCC()
}

// Test memory
func (cpu *CPU) tst(inst *Instruction, operand []byte) {
	cpu.doTST(cpu.load(inst, operand))
}

// Test A
func (cpu *CPU) tsta(inst *Instruction, operand []byte) {
	cpu.doTST(cpu.Reg.A)
}

// Test B
func (cpu *CPU) tstb(inst *Instruction, operand []byte) {
	cpu.doTST(cpu.Reg.B)
}

// Transfer Stack pointer to X
func (cpu *CPU) tsx(inst *Instruction, operand []byte) {
	cpu.Reg.X = cpu.Reg.SP + 1
}

// Transfer X to Stack pointer
func (cpu *CPU) txs(inst *Instruction, operand []byte) {
	cpu.Reg.SP = cpu.Reg.X - 1
}

// Wait for Interrupt
func (cpu *CPU) wai(inst *Instruction, operand []byte) {
	cpu.pushState()
	cpu.wait = waitInterrupt
}

// Exchange D and X
func (cpu *CPU) xgdx(inst *Instruction, operand []byte) {
	d := cpu.Reg.D()
	cpu.Reg.SetD(cpu.Reg.X)
	cpu.Reg.X = d
}
