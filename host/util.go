// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strings"

	"github.com/beevik/go6301/mcu"
)

// Peripheral register names usable in expressions.
var registerNames = map[string]uint16{
	"P1DDR": mcu.RegP1DDR,
	"P2DDR": mcu.RegP2DDR,
	"P1":    mcu.RegP1,
	"P2":    mcu.RegP2,
	"P3DDR": mcu.RegP3DDR,
	"P4DDR": mcu.RegP4DDR,
	"P3":    mcu.RegP3,
	"P4":    mcu.RegP4,
	"TCSR":  mcu.RegTCSR,
	"FRCH":  mcu.RegFRCH,
	"FRCL":  mcu.RegFRCL,
	"OCRH":  mcu.RegOCRH,
	"OCRL":  mcu.RegOCRL,
	"ICRH":  mcu.RegICRH,
	"ICRL":  mcu.RegICRL,
	"P3CSR": mcu.RegP3CSR,
	"RMCR":  mcu.RegRMCR,
	"TRCSR": mcu.RegTRCSR,
	"RDR":   mcu.RegRDR,
	"TDR":   mcu.RegTDR,
	"RAMCR": mcu.RegRAMControl,
}

func codeString(b []byte) string {
	return strings.TrimSpace(fmt.Sprintf("% X", b))
}

func stringToBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

var hexString = "0123456789ABCDEF"

func addrToBuf(addr uint16, b []byte) {
	b[0] = hexString[(addr>>12)&0xf]
	b[1] = hexString[(addr>>8)&0xf]
	b[2] = hexString[(addr>>4)&0xf]
	b[3] = hexString[addr&0xf]
}

func byteToBuf(v byte, b []byte) {
	b[0] = hexString[(v>>4)&0xf]
	b[1] = hexString[v&0xf]
}

func toPrintableChar(v byte) byte {
	if v >= 32 && v < 127 {
		return v
	}
	return '.'
}

// Word-wrap text to 80 columns, indenting every line.
func indentWrap(indent int, s string) string {
	pad := strings.Repeat(" ", indent)
	var b strings.Builder
	col := 0
	for _, w := range strings.Fields(s) {
		if col > 0 && col+1+len(w) > 80 {
			b.WriteByte('\n')
			col = 0
		}
		if col == 0 {
			b.WriteString(pad)
			col = indent
		} else {
			b.WriteByte(' ')
			col++
		}
		b.WriteString(w)
		col += len(w)
	}
	return b.String()
}
