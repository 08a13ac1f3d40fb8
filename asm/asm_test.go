// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func assemble(code string) (*Assembly, *SourceMap, error) {
	r := bytes.NewReader([]byte(code))
	return Assemble(r, "test", 0x1000, io.Discard, 0)
}

func checkASM(t *testing.T, asm string, expected string) {
	t.Helper()
	assembly, _, err := assemble(asm)
	if err != nil {
		t.Error(err)
		for _, e := range assembly.Errors {
			t.Error(e)
		}
		return
	}

	code := assembly.Code
	b := make([]byte, len(code)*2)
	for i, j := 0, 0; i < len(code); i, j = i+1, j+2 {
		v := code[i]
		b[j+0] = hex[v>>4]
		b[j+1] = hex[v&0x0f]
	}
	s := string(b)

	if s != expected {
		t.Error("code doesn't match expected")
		t.Errorf("got: %s\n", s)
		t.Errorf("exp: %s\n", expected)
	}
}

func checkASMError(t *testing.T, asm string, errString string) {
	t.Helper()
	assembly, _, err := assemble(asm)
	if err == nil {
		t.Errorf("Expected error on %s, didn't get one\n", asm)
		return
	}
	msgs := strings.Join(assembly.Errors, "\n")
	if !strings.Contains(msgs, errString) {
		t.Errorf("Expected '%s', got '%s'\n", errString, msgs)
	}
}

func TestAddressingIMM(t *testing.T) {
	asm := `
	LDAA #$20
	LDAB #$20
	LDD #$1234
	LDX #$1234
	CMPA #'A'`

	checkASM(t, asm, "8620C620CC1234CE12348141")
}

func TestAddressingDIRAndEXT(t *testing.T) {
	asm := `
	LDAA $20
	LDAA $2000
	LDAA >$20
	STAA <$20
	STD $80`

	checkASM(t, asm, "9620B62000B600209720DD80")
}

func TestAddressingIDX(t *testing.T) {
	asm := `
	LDAA 5,X
	LDAA ,X
	STX 0,X
	JMP $10,X`

	checkASM(t, asm, "A605A600EF006E10")
}

func TestAddressingBitManipulation(t *testing.T) {
	asm := `
	AIM #$FE,$11
	OIM #$01,$03
	EIM #$80,2,X
	TIM #$20,$11`

	checkASM(t, asm, "71FE117201036580027B2011")
}

func TestBranches(t *testing.T) {
	asm := `
start:
	NOP
	BRA start
	BNE next
next:
	RTS`

	checkASM(t, asm, "0120FD260039")
}

func TestForwardReference(t *testing.T) {
	asm := `
	JSR sub
	RTS
sub:
	NOP`

	checkASM(t, asm, "BD10043901")
}

func TestData(t *testing.T) {
	asm := `
	.byte $01, 2, 'A'
	.word $1234, lbl
	fcc "HI"
lbl:`

	checkASM(t, asm, "010241123410094849")
}

func TestHexString(t *testing.T) {
	asm := `
	.hex F10080
	NOP`

	checkASM(t, asm, "F1008001")
}

func TestEquates(t *testing.T) {
	asm := `
BOOT = $F1
TRCSR equ $11
	LDAA #BOOT
	LDAB #<$1234
	LDAB #>$1234
	LDAA TRCSR
	LDD #(2+3)*4`

	checkASM(t, asm, "86F1C634C6129611CC0014")
}

func TestOrigin(t *testing.T) {
	asm := `
	.org $F000
	NOP
	.org $F004
	RTS`

	checkASM(t, asm, "01FFFFFF39")

	assembly, sourceMap, err := assemble(asm)
	if err != nil {
		t.Fatal(err)
	}
	if assembly.Origin != 0xf000 || sourceMap.Origin != 0xf000 {
		t.Errorf("origin = $%04X, want $F000", assembly.Origin)
	}
}

func TestOriginBackwards(t *testing.T) {
	asm := `
	.org $F000
	NOP
	.org $E000
	RTS`

	checkASMError(t, asm, "behind the current address")
}

func TestPaddingAndAlign(t *testing.T) {
	asm := `
	NOP
	.align 4
	.pad $AA, 2
	.ds 1
	RTS`

	checkASM(t, asm, "01FFFFFFAAAA0039")
}

func TestLocalLabels(t *testing.T) {
	asm := `
first:
.loop	DECA
	BNE .loop
second:
.loop	DECB
	BNE .loop`

	checkASM(t, asm, "4A26FD5A26FD")
}

func TestAliases(t *testing.T) {
	asm := `
	LSLA
	BHS *
	LSLD`

	checkASM(t, asm, "4824FE05")
}

func TestComments(t *testing.T) {
	asm := `
* full-line comment
	LDAA #';'	; load a semicolon
	NOP ; trailing`

	checkASM(t, asm, "863B01")
}

func TestErrors(t *testing.T) {
	checkASMError(t, "\tLDAA #$100", "immediate value $100 out of range")
	checkASMError(t, "\tFOO", "invalid opcode 'FOO'")
	checkASMError(t, "\tSTAA #$10", "invalid addressing mode for opcode 'STAA'")
	checkASMError(t, "\tLDAA $100,X", "index offset $100 out of range")
	checkASMError(t, "x:\n\tNOP\nx:\n\tNOP", "label 'x' used more than once")
	checkASMError(t, "\tJMP missing", "unresolved expression")
	checkASMError(t, "\tBRA far\n\t.ds 200\nfar:\n\tRTS", "branch offset out of bounds")
}

func TestSourceMap(t *testing.T) {
	asm := `
	NOP
	LDAA #1`

	_, sourceMap, err := assemble(asm)
	if err != nil {
		t.Fatal(err)
	}

	file, line := sourceMap.Search(0x1001)
	if file != "test" || line != 3 {
		t.Errorf("Search($1001) = %s:%d, want test:3", file, line)
	}
	if _, line := sourceMap.Search(0x1002); line != -1 {
		t.Errorf("Search($1002) found line %d, want none", line)
	}

	var buf bytes.Buffer
	if _, err := sourceMap.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	var loaded SourceMap
	if _, err := loaded.ReadFrom(&buf); err != nil {
		t.Fatal(err)
	}
	if loaded.CRC != sourceMap.CRC || len(loaded.Lines) != 2 {
		t.Errorf("reloaded source map differs: %+v", loaded)
	}
}

func TestEval(t *testing.T) {
	lookup := func(name string) (int, error) {
		if name == "PC" {
			return 0xf000, nil
		}
		return 0, errUnresolved
	}

	tests := []struct {
		expr string
		exp  int
	}{
		{"$10+2", 0x12},
		{"%1010", 10},
		{"PC+3", 0xf003},
		{">PC", 0xf0},
		{"*", 0x80},
		{"(1+2)*3", 9},
		{"'A'", 0x41},
	}
	for _, tt := range tests {
		v, err := Eval(tt.expr, 0x80, lookup)
		if err != nil {
			t.Errorf("Eval(%q) failed: %v", tt.expr, err)
			continue
		}
		if v != tt.exp {
			t.Errorf("Eval(%q) incorrect. exp: $%X, got: $%X", tt.expr, tt.exp, v)
		}
	}

	for _, s := range []string{"", "1+", "nope", "4/0"} {
		if _, err := Eval(s, 0, lookup); err == nil {
			t.Errorf("Eval(%q) should fail", s)
		}
	}
}
