// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/beevik/go6301/asm"
	"github.com/beevik/go6301/cpu"
)

func loadCPU(t *testing.T, asmString string) (*cpu.CPU, *cpu.FlatMemory) {
	t.Helper()
	b := strings.NewReader(asmString)
	r, sm, err := asm.Assemble(b, "test.asm", 0x1000, io.Discard, 0)
	if err != nil {
		t.Fatal(err, r.Errors)
	}

	mem := cpu.NewFlatMemory()
	c := cpu.NewCPU(mem)
	mem.StoreBytes(sm.Origin, r.Code)
	c.SetPC(sm.Origin)
	return c, mem
}

func stepCPU(c *cpu.CPU, steps int) {
	for i := 0; i < steps; i++ {
		c.Step()
	}
}

func runCPU(t *testing.T, asmString string, steps int) *cpu.CPU {
	c, _ := loadCPU(t, asmString)
	stepCPU(c, steps)
	return c
}

func expectPC(t *testing.T, c *cpu.CPU, pc uint16) {
	t.Helper()
	if c.Reg.PC != pc {
		t.Errorf("PC incorrect. exp: $%04X, got: $%04X", pc, c.Reg.PC)
	}
}

func expectCycles(t *testing.T, c *cpu.CPU, cycles uint64) {
	t.Helper()
	if c.Cycles != cycles {
		t.Errorf("Cycles incorrect. exp: %d, got: %d", cycles, c.Cycles)
	}
}

func expectA(t *testing.T, c *cpu.CPU, v byte) {
	t.Helper()
	if c.Reg.A != v {
		t.Errorf("A incorrect. exp: $%02X, got: $%02X", v, c.Reg.A)
	}
}

func expectD(t *testing.T, c *cpu.CPU, v uint16) {
	t.Helper()
	if c.Reg.D() != v {
		t.Errorf("D incorrect. exp: $%04X, got: $%04X", v, c.Reg.D())
	}
}

func expectX(t *testing.T, c *cpu.CPU, v uint16) {
	t.Helper()
	if c.Reg.X != v {
		t.Errorf("X incorrect. exp: $%04X, got: $%04X", v, c.Reg.X)
	}
}

func expectSP(t *testing.T, c *cpu.CPU, sp uint16) {
	t.Helper()
	if c.Reg.SP != sp {
		t.Errorf("stack pointer incorrect. exp: $%04X, got $%04X", sp, c.Reg.SP)
	}
}

func expectMem(t *testing.T, c *cpu.CPU, addr uint16, v byte) {
	t.Helper()
	got := c.Mem.LoadByte(addr)
	if got != v {
		t.Errorf("Memory at $%04X incorrect. exp: $%02X, got: $%02X", addr, v, got)
	}
}

func expectFlags(t *testing.T, c *cpu.CPU, mask, want byte) {
	t.Helper()
	got := c.Reg.SaveCC() & mask
	if got != want {
		t.Errorf("CCR incorrect. exp: %06b, got: %06b", want, got)
	}
}

func TestAccumulator(t *testing.T) {
	asm := `
	.ORG $1000
	LDAA #$5E
	STAA $15
	STAA $1500`

	c := runCPU(t, asm, 3)
	expectPC(t, c, 0x1007)
	expectCycles(t, c, 9)
	expectA(t, c, 0x5e)
	expectMem(t, c, 0x15, 0x5e)
	expectMem(t, c, 0x1500, 0x5e)
}

func TestStack(t *testing.T) {
	asm := `
	LDS #$FF
	LDAA #$11
	PSHA
	LDAA #$12
	PSHA
	LDAA #$13
	PSHA

	PULA
	STAA $2000
	PULA
	STAA $2001
	PULA
	STAA $2002`

	c, _ := loadCPU(t, asm)
	stepCPU(c, 7)

	expectSP(t, c, 0xfc)
	expectA(t, c, 0x13)
	expectMem(t, c, 0xff, 0x11)
	expectMem(t, c, 0xfe, 0x12)
	expectMem(t, c, 0xfd, 0x13)

	stepCPU(c, 6)
	expectA(t, c, 0x11)
	expectSP(t, c, 0xff)
	expectMem(t, c, 0x2000, 0x13)
	expectMem(t, c, 0x2001, 0x12)
	expectMem(t, c, 0x2002, 0x11)
}

func TestArithmeticFlags(t *testing.T) {
	c := runCPU(t, "\tLDAA #$7F\n\tADDA #$01", 2)
	expectA(t, c, 0x80)
	expectFlags(t, c, 0x2f, cpu.HalfCarryBit|cpu.NegativeBit|cpu.OverflowBit)

	c = runCPU(t, "\tLDAA #$00\n\tSUBA #$01", 2)
	expectA(t, c, 0xff)
	expectFlags(t, c, 0x0f, cpu.NegativeBit|cpu.CarryBit)

	c = runCPU(t, "\tLDAA #$80\n\tADDA #$80", 2)
	expectA(t, c, 0x00)
	expectFlags(t, c, 0x0f, cpu.ZeroBit|cpu.OverflowBit|cpu.CarryBit)
}

func TestDecimalAdjust(t *testing.T) {
	c := runCPU(t, "\tLDAA #$19\n\tADDA #$28\n\tDAA", 3)
	expectA(t, c, 0x47)
	expectFlags(t, c, cpu.CarryBit, 0)

	c = runCPU(t, "\tLDAA #$99\n\tADDA #$01\n\tDAA", 3)
	expectA(t, c, 0x00)
	expectFlags(t, c, cpu.CarryBit|cpu.ZeroBit, cpu.CarryBit|cpu.ZeroBit)
}

func TestSixteenBit(t *testing.T) {
	asm := `
	LDD #$1234
	LDX #$5678
	XGDX
	ADDD #$0002
	STD $40
	LSRD
	ASLD`

	c, _ := loadCPU(t, asm)
	stepCPU(c, 3)
	expectD(t, c, 0x5678)
	expectX(t, c, 0x1234)

	stepCPU(c, 2)
	expectD(t, c, 0x567a)
	expectMem(t, c, 0x40, 0x56)
	expectMem(t, c, 0x41, 0x7a)

	stepCPU(c, 1)
	expectD(t, c, 0x2b3d)
	stepCPU(c, 1)
	expectD(t, c, 0x567a)
}

func TestMultiply(t *testing.T) {
	c := runCPU(t, "\tLDAA #$10\n\tLDAB #$20\n\tMUL", 3)
	expectD(t, c, 0x0200)
	expectFlags(t, c, cpu.CarryBit, 0)
	expectCycles(t, c, 2+2+7)

	c = runCPU(t, "\tLDAA #$FF\n\tLDAB #$FF\n\tMUL", 3)
	expectD(t, c, 0xfe01)
	expectFlags(t, c, cpu.CarryBit, 0)

	c = runCPU(t, "\tLDAA #$0F\n\tLDAB #$0F\n\tMUL", 3)
	expectD(t, c, 0x00e1)
	expectFlags(t, c, cpu.CarryBit, cpu.CarryBit)
}

func TestIndexed(t *testing.T) {
	asm := `
	LDX #$2000
	LDAA #$EE
	STAA 5,X
	LDAB #$10
	ABX
	LDAA ,X`

	c, mem := loadCPU(t, asm)
	mem.StoreByte(0x2010, 0x77)
	stepCPU(c, 6)

	expectMem(t, c, 0x2005, 0xee)
	expectX(t, c, 0x2010)
	expectA(t, c, 0x77)
}

func TestBitManipulation(t *testing.T) {
	asm := `
	LDAA #$FF
	STAA $40
	AIM #$0F,$40
	OIM #$80,$40
	EIM #$01,$40
	TIM #$80,$40`

	c, _ := loadCPU(t, asm)
	stepCPU(c, 3)
	expectMem(t, c, 0x40, 0x0f)
	stepCPU(c, 1)
	expectMem(t, c, 0x40, 0x8f)
	stepCPU(c, 1)
	expectMem(t, c, 0x40, 0x8e)
	stepCPU(c, 1)
	expectMem(t, c, 0x40, 0x8e)
	expectFlags(t, c, cpu.NegativeBit|cpu.ZeroBit, cpu.NegativeBit)
}

func TestSubroutine(t *testing.T) {
	asm := `
	LDS #$FF
	JSR sub
	NOP
sub:
	LDAA #$42
	RTS`

	c, _ := loadCPU(t, asm)
	stepCPU(c, 2)
	expectPC(t, c, 0x1007)
	expectSP(t, c, 0xfd)
	expectMem(t, c, 0xfe, 0x10)
	expectMem(t, c, 0xff, 0x06)

	stepCPU(c, 2)
	expectPC(t, c, 0x1006)
	expectSP(t, c, 0xff)
	expectA(t, c, 0x42)
}

func TestBranchTaken(t *testing.T) {
	asm := `
	LDAB #3
loop:
	DECB
	BNE loop
	NOP`

	c := runCPU(t, asm, 1+3*2)
	expectPC(t, c, 0x1005)
	expectCycles(t, c, 2+3*(1+3))
}

func TestIllegalOpcode(t *testing.T) {
	c := runCPU(t, "\tNOP\n\t.byte $00\n\tNOP", 2)
	if !c.Crashed() {
		t.Fatal("expected CPU to crash on illegal opcode")
	}
	f := c.Fault()
	if f.PC != 0x1001 || f.Opcode != 0x00 {
		t.Errorf("fault = %v", f)
	}
	if !errors.Is(f, cpu.ErrCrashed) {
		t.Error("fault does not wrap ErrCrashed")
	}

	// A crashed CPU burns cycles without moving.
	n := c.Step()
	if n != 1 {
		t.Errorf("crashed step consumed %d cycles", n)
	}
	expectPC(t, c, 0x1001)

	cpu.StoreWord(c.Mem, cpu.VectorReset, 0x1000)
	c.Reset()
	if c.Crashed() {
		t.Error("reset did not clear the fault")
	}
	expectPC(t, c, 0x1000)
}

// A fake peripheral set that asserts a single interrupt request.
type fakePeripherals struct {
	vector   uint16
	pending  bool
	advanced int
}

func (p *fakePeripherals) Pending() (uint16, bool) {
	return p.vector, p.pending
}

func (p *fakePeripherals) Advance(cycles int) {
	p.advanced += cycles
}

func TestInterruptDispatch(t *testing.T) {
	asm := `
	LDS #$FF
	LDX #$1234
	LDAA #$AA
	LDAB #$BB
	CLI
	NOP`

	c, mem := loadCPU(t, asm)
	p := &fakePeripherals{vector: cpu.VectorSCI}
	c.AttachPeripherals(p)
	cpu.StoreWord(mem, cpu.VectorSCI, 0x2000)

	stepCPU(c, 5)
	p.pending = true
	before := c.Cycles
	n := c.Step()

	if n != cpu.InterruptCycles {
		t.Errorf("dispatch took %d cycles", n)
	}
	expectPC(t, c, 0x2000)
	expectSP(t, c, 0xf8)
	expectMem(t, c, 0xff, 0x0b) // PCL
	expectMem(t, c, 0xfe, 0x10) // PCH
	expectMem(t, c, 0xfd, 0x34) // XL
	expectMem(t, c, 0xfc, 0x12) // XH
	expectMem(t, c, 0xfb, 0xaa) // A
	expectMem(t, c, 0xfa, 0xbb) // B
	if c.Mem.LoadByte(0xf9)&cpu.InterruptMaskBit != 0 {
		t.Error("stacked CCR has I set")
	}
	if !c.Reg.InterruptMask {
		t.Error("I not set on interrupt entry")
	}
	if uint64(p.advanced) != c.Cycles || c.Cycles-before != cpu.InterruptCycles {
		t.Errorf("peripherals advanced %d cycles, cpu ran %d", p.advanced, c.Cycles)
	}
}

func TestInterruptMasked(t *testing.T) {
	c, mem := loadCPU(t, "\tSEI\n\tNOP\n\tNOP")
	p := &fakePeripherals{vector: cpu.VectorTOF, pending: true}
	c.AttachPeripherals(p)
	cpu.StoreWord(mem, cpu.VectorTOF, 0x2000)

	stepCPU(c, 3)
	expectPC(t, c, 0x1003)
}

func TestWaitForInterrupt(t *testing.T) {
	asm := `
	LDS #$FF
	CLI
	WAI
	NOP`

	c, mem := loadCPU(t, asm)
	p := &fakePeripherals{vector: cpu.VectorOCF}
	c.AttachPeripherals(p)
	cpu.StoreWord(mem, cpu.VectorOCF, 0x2000)

	stepCPU(c, 3)
	if !c.Waiting() {
		t.Fatal("expected CPU to wait")
	}
	expectSP(t, c, 0xf8)

	// Idle while nothing is pending.
	if n := c.Step(); n != 1 {
		t.Errorf("idle step took %d cycles", n)
	}
	expectPC(t, c, 0x1005)

	p.pending = true
	if n := c.Step(); n != 4 {
		t.Errorf("wake took %d cycles", n)
	}
	expectPC(t, c, 0x2000)
	expectSP(t, c, 0xf8)
	if c.Waiting() {
		t.Error("CPU still waiting after interrupt")
	}
}

func TestSleepReleasedWhileMasked(t *testing.T) {
	c, mem := loadCPU(t, "\tSEI\n\tSLP\n\tLDAA #$01")
	p := &fakePeripherals{vector: cpu.VectorSCI}
	c.AttachPeripherals(p)
	cpu.StoreWord(mem, cpu.VectorSCI, 0x2000)

	stepCPU(c, 3)
	expectPC(t, c, 0x1002)

	p.pending = true
	c.Step()
	expectPC(t, c, 0x1004)
	expectA(t, c, 0x01)
}

func TestSoftwareInterrupt(t *testing.T) {
	asm := `
	LDS #$FF
	CLI
	LDAA #$55
	SWI
	NOP`

	c, mem := loadCPU(t, asm)
	cpu.StoreWord(mem, cpu.VectorSWI, 0x2000)
	mem.StoreBytes(0x2000, []byte{0x4f, 0x3b}) // CLRA; RTI

	stepCPU(c, 4)
	expectPC(t, c, 0x2000)
	if !c.Reg.InterruptMask {
		t.Error("SWI did not set I")
	}

	stepCPU(c, 2)
	expectPC(t, c, 0x1007)
	expectA(t, c, 0x55)
	expectSP(t, c, 0xff)
	if c.Reg.InterruptMask {
		t.Error("RTI did not restore I")
	}
}

func TestRunBudget(t *testing.T) {
	c, _ := loadCPU(t, "loop:\n\tLDX #$1234\n\tBRA loop")
	n := c.Run(100)
	if n < 100 || n > 100+3 {
		t.Errorf("Run(100) consumed %d cycles", n)
	}
	expectCycles(t, c, uint64(n))
}

type breakpointRecorder struct {
	hits  []uint16
	store []uint16
}

func (r *breakpointRecorder) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	r.hits = append(r.hits, b.Address)
}

func (r *breakpointRecorder) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	r.store = append(r.store, b.Address)
}

func TestDebugger(t *testing.T) {
	asm := `
	LDAA #$01
	STAA $40
	LDAA #$02
	STAA $40`

	c, _ := loadCPU(t, asm)
	rec := &breakpointRecorder{}
	d := cpu.NewDebugger(rec)
	c.AttachDebugger(d)

	b := d.AddBreakpoint(0x1004)
	d.AddConditionalDataBreakpoint(0x40, 0x02)
	stepCPU(c, 4)

	if len(rec.hits) != 1 || rec.hits[0] != 0x1004 || b.Hits != 1 {
		t.Errorf("breakpoint hits = %v", rec.hits)
	}
	if len(rec.store) != 1 || rec.store[0] != 0x40 {
		t.Errorf("data breakpoint hits = %v", rec.store)
	}
}

type breaker struct{}

func (breaker) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint)         { c.Break() }
func (breaker) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) { c.Break() }

func TestRunBreak(t *testing.T) {
	c, _ := loadCPU(t, "loop:\n\tLDX #$1234\n\tNOP\n\tBRA loop")
	d := cpu.NewDebugger(breaker{})
	c.AttachDebugger(d)
	d.AddBreakpoint(0x1003)

	n := c.Run(1000)
	expectPC(t, c, 0x1003)
	expectCycles(t, c, uint64(n))
	if n != 3 {
		t.Errorf("Run stopped late. exp: 3, got: %d", n)
	}

	// The breakpoint is still armed, so the loop stops there again.
	n = c.Run(10)
	expectPC(t, c, 0x1003)
	if n != 7 {
		t.Errorf("Run stopped at the wrong place. exp: 7, got: %d", n)
	}

	// Without it, the next run uses its whole budget.
	d.RemoveBreakpoint(0x1003)
	n = c.Run(10)
	if n < 10 {
		t.Errorf("Run after break consumed %d cycles", n)
	}
}
