// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcutest provides firmware images for testing code built on the
// mcu package.
package mcutest

import (
	"io"
	"strings"
	"testing"

	"github.com/beevik/go6301/asm"
	"github.com/beevik/go6301/mcu"
)

// Registers shared by the test ROMs.
const registers = `
P1    = $02
P3    = $06
P4    = $07
TCSR  = $08
FRCH  = $09
OCRH  = $0B
RMCR  = $10
TRCSR = $11
RDR   = $12
TDR   = $13
`

// Firmware assembles a ROM image. The source is assembled at $F000 and
// must end with a vector table that fills the image up to $FFFF.
func Firmware(tb testing.TB, src string) *mcu.Firmware {
	tb.Helper()
	r := strings.NewReader(registers + "\t.org $F000\n" + src)
	a, _, err := asm.Assemble(r, "rom.asm", mcu.ROMBase, io.Discard, 0)
	if err != nil {
		tb.Fatalf("assembling test ROM: %v %v", err, a.Errors)
	}
	f, err := mcu.NewFirmware(a.Code)
	if err != nil {
		tb.Fatalf("test ROM: %v", err)
	}
	return f
}

// Subroutines shared by the test ROMs. Serial setup selects E/128 and
// enables the transmitter and receiver.
const lib = `
serial:
	LDAA #$01
	STAA RMCR
	LDAA #$0A
	STAA TRCSR
	RTS
getc:
	LDAB TRCSR
	BPL getc
	LDAA RDR
	RTS
putc:
	LDAB TRCSR
	BITB #$20
	BEQ putc
	STAA TDR
	RTS
`

// BootROM sends the boot acknowledgment $F1 after reset and then idles.
const BootROM = `
start:
	LDS #$FF
	BSR serial
	LDAA #$F1
	BSR putc
idle:
	BRA idle
` + lib + `
	.org $FFF0
	.word start, start, start, start, start, start, start, start
`

// CommandROM polls for command bytes. After $14 it waits for one
// parameter byte with a timeout of about 2000 cycles. If the parameter
// arrives in time it echoes the command and parameter, otherwise it sends
// $EE. Every other byte is echoed unchanged.
const CommandROM = `
start:
	LDS #$FF
	BSR serial
main:
	BSR getc
	CMPA #$14
	BEQ command
	BSR putc
	BRA main
command:
	LDX #200
param:
	LDAB TRCSR
	BMI got
	DEX
	BNE param
	LDAA #$EE
	BSR putc
	BRA main
got:
	LDAB RDR
	PSHB
	BSR putc
	PULA
	BSR putc
	BRA main
` + lib + `
	.org $FFF0
	.word start, start, start, start, start, start, start, start
`

// CounterRAM is the RAM location TimerROM counts compare interrupts in.
const CounterRAM = 0x80

// TimerROM arms the output compare 1000 cycles ahead and counts compare
// interrupts at CounterRAM. The handler clears OCF by rewriting OCR with
// the same value, so the next match is a full counter period later.
const TimerROM = `
count = $80
start:
	LDS #$FF
	CLR count
	LDD FRCH
	ADDD #1000
	STD OCRH
	LDAA #$08
	STAA TCSR
	CLI
idle:
	BRA idle
ocf:
	INC count
	LDAA TCSR
	LDD OCRH
	STD OCRH
	RTI
	.org $FFF0
	.word start, start, ocf, start, start, start, start, start
`

// ScanROM scans a 15 column key matrix. Columns 0-6 are selected by
// pulling P3 bits 1-7 low and columns 7-14 by pulling P4 bits 0-7 low.
// For every column with a key down it sends the column number followed by
// the complemented P1 row bits, then it sends $FF to end the scan and
// starts over.
const ScanROM = `
col = $80
start:
	LDS #$FF
	BSR serial
	LDAA #$FF
	STAA P3
	STAA P4
	LDAA #$FE
	STAA $04
	LDAA #$FF
	STAA $05
scan:
	CLR col
	LDAA #$FD
.p3:
	STAA P3
	BSR sample
	INC col
	SEC
	ROLA
	BCS .p3
	LDAA #$FF
	STAA P3
	LDAA #$FE
.p4:
	STAA P4
	BSR sample
	INC col
	SEC
	ROLA
	BCS .p4
	LDAA #$FF
	STAA P4
	LDAA #$FF
	BSR putc
	BRA scan
sample:
	PSHA
	LDAA P1
	COMA
	BEQ .none
	PSHA
	LDAA col
	BSR putc
	PULA
	BSR putc
.none:
	PULA
	RTS
` + lib + `
	.org $FFF0
	.word start, start, start, start, start, start, start, start
`
