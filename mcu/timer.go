// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcu

// Timer registers.
const (
	RegTCSR = 0x08 // timer control and status
	RegFRCH = 0x09 // free-running counter, high byte
	RegFRCL = 0x0a // free-running counter, low byte
	RegOCRH = 0x0b // output compare, high byte
	RegOCRL = 0x0c // output compare, low byte
	RegICRH = 0x0d // input capture, high byte
	RegICRL = 0x0e // input capture, low byte
)

// TCSR bits.
const (
	ICF  = 0x80 // input capture flag
	OCF  = 0x40 // output compare flag
	TOF  = 0x20 // timer overflow flag
	EICI = 0x10 // enable input capture interrupt
	EOCI = 0x08 // enable output compare interrupt
	ETOI = 0x04 // enable timer overflow interrupt
	IEDG = 0x02 // input edge
	OLVL = 0x01 // output level
)

const tcsrControl = EICI | EOCI | ETOI | IEDG | OLVL

// Value the counter is preset to by a write to its high byte.
const frcPreset = 0xfff8

// Timer emulates the HD6301 16-bit free-running counter with its output
// compare and input capture registers. The counter advances once per
// cycle. The capture input pin is not connected on the IKBD, so ICF is
// never raised.
//
// The status flags are sticky. OCF is cleared by reading TCSR while it is
// set and then writing either OCR byte. TOF is cleared by reading TCSR
// while it is set and then reading the counter's high byte. ICF is
// cleared by reading TCSR while it is set and then reading ICR's high
// byte.
type Timer struct {
	frc     uint16
	ocr     uint16
	icr     uint16
	control byte

	icf, ocf, tof                bool
	icfArmed, ocfArmed, tofArmed bool

	latch      byte // low counter byte latched by a high byte read
	latchValid bool
}

func newTimer() *Timer {
	t := &Timer{}
	t.reset()
	return t
}

func (t *Timer) reset() {
	*t = Timer{ocr: 0xffff}
}

// Counter returns the free-running counter.
func (t *Timer) Counter() uint16 {
	return t.frc
}

// Compare returns the output compare register.
func (t *Timer) Compare() uint16 {
	return t.ocr
}

func (t *Timer) status() byte {
	v := t.control
	if t.icf {
		v |= ICF
	}
	if t.ocf {
		v |= OCF
	}
	if t.tof {
		v |= TOF
	}
	return v
}

// Advance the counter by n cycles, raising OCF if it passes through the
// compare value and TOF if it wraps.
func (t *Timer) advance(n int) {
	if n <= 0 {
		return
	}
	d := int(t.ocr - t.frc)
	if d != 0 && d <= n {
		t.ocf = true
	}
	if int(t.frc)+n > 0xffff {
		t.tof = true
	}
	t.frc += uint16(n)
}

// Report which timer interrupt requests are asserted.
func (t *Timer) pending() (icf, ocf, tof bool) {
	icf = t.icf && t.control&EICI != 0
	ocf = t.ocf && t.control&EOCI != 0
	tof = t.tof && t.control&ETOI != 0
	return
}

func (t *Timer) read(addr uint16) byte {
	switch addr {
	case RegTCSR:
		t.icfArmed = t.icf
		t.ocfArmed = t.ocf
		t.tofArmed = t.tof
		return t.status()
	case RegFRCH:
		if t.tofArmed {
			t.tof, t.tofArmed = false, false
		}
		t.latch, t.latchValid = byte(t.frc), true
		return byte(t.frc >> 8)
	case RegFRCL:
		if t.latchValid {
			t.latchValid = false
			return t.latch
		}
		return byte(t.frc)
	case RegICRH:
		if t.icfArmed {
			t.icf, t.icfArmed = false, false
		}
	}
	return t.peek(addr)
}

func (t *Timer) peek(addr uint16) byte {
	switch addr {
	case RegTCSR:
		return t.status()
	case RegFRCH:
		return byte(t.frc >> 8)
	case RegFRCL:
		if t.latchValid {
			return t.latch
		}
		return byte(t.frc)
	case RegOCRH:
		return byte(t.ocr >> 8)
	case RegOCRL:
		return byte(t.ocr)
	case RegICRH:
		return byte(t.icr >> 8)
	case RegICRL:
		return byte(t.icr)
	}
	return openBus
}

func (t *Timer) write(addr uint16, v byte) {
	switch addr {
	case RegTCSR:
		t.control = v & tcsrControl
	case RegFRCH:
		t.frc = frcPreset
	case RegOCRH:
		t.ocr = uint16(v)<<8 | t.ocr&0x00ff
		t.clearOCF()
	case RegOCRL:
		t.ocr = t.ocr&0xff00 | uint16(v)
		t.clearOCF()
	}
}

func (t *Timer) clearOCF() {
	if t.ocfArmed {
		t.ocf, t.ocfArmed = false, false
	}
}
