// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm_test

import (
	"io"
	"strings"
	"testing"

	"github.com/beevik/go6301/asm"
	"github.com/beevik/go6301/cpu"
	"github.com/beevik/go6301/disasm"
)

func TestDisassemble(t *testing.T) {
	src := `
	LDAA #$12
	STAB $80
	LDX $F000
	ADDD #$1234
	ORAA 4,X
loop:
	BNE loop
	AIM #$FE,$06
	TIM #$80,2,X
	XGDX
	.byte $00
`
	want := []string{
		"LDAA #$12",
		"STAB $80",
		"LDX $F000",
		"ADDD #$1234",
		"ORAA $04,X",
		"BNE $100C",
		"AIM #$FE,$06",
		"TIM #$80,$02,X",
		"XGDX",
		".byte $00",
	}

	a, _, err := asm.Assemble(strings.NewReader(src), "test.asm", 0x1000, io.Discard, 0)
	if err != nil {
		t.Fatalf("assembly failed: %v %v", err, a.Errors)
	}
	mem := cpu.NewFlatMemory()
	mem.StoreBytes(0x1000, a.Code)

	addr := uint16(0x1000)
	for i, w := range want {
		var line string
		line, addr = disasm.Disassemble(mem, addr)
		if line != w {
			t.Errorf("line %d: exp: %q, got: %q", i, w, line)
		}
	}
	if end := 0x1000 + uint16(len(a.Code)); addr != end {
		t.Errorf("end address incorrect. exp: $%04X, got: $%04X", end, addr)
	}
}

func TestRegisterString(t *testing.T) {
	var r cpu.Registers
	r.Init()
	r.A, r.B, r.X, r.SP = 0x12, 0x34, 0xf000, 0x00ff
	r.Zero, r.Carry = true, true

	exp := "A=12 B=34 X=F000 SP=00FF CC=-I-Z-C"
	if got := disasm.GetRegisterString(&r); got != exp {
		t.Errorf("register string incorrect. exp: %s, got: %s", exp, got)
	}
}
