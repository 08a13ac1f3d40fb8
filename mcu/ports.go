// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcu

// I/O port registers.
const (
	RegP1DDR  = 0x00
	RegP2DDR  = 0x01
	RegP1     = 0x02
	RegP2     = 0x03
	RegP3DDR  = 0x04
	RegP4DDR  = 0x05
	RegP3     = 0x06
	RegP4     = 0x07
	RegP3CSR  = 0x0f
	portCount = 4
)

// Port identifies one of the four I/O ports.
type Port int

// The I/O ports.
const (
	P1 Port = iota
	P2
	P3
	P4
)

// Port 2 has five pins. Bits 5-7 read back the operating mode latched at
// reset; the IKBD runs in mode 7.
const (
	p2Pins     = 0x1f
	p2ModeBits = 0xe0
)

// PortLevels holds the level driven onto each port's pins by the MCU.
// Pins configured as inputs float high.
type PortLevels [portCount]byte

// A PinSource supplies the levels external hardware drives onto port
// pins configured as inputs. Sources such as key matrices respond to the
// levels the MCU drives on its output pins.
//
// InputPins is called from the emulation context on every port read and
// must not block.
type PinSource interface {
	InputPins(port Port, outputs PortLevels) byte
}

type pullUps struct{}

func (pullUps) InputPins(Port, PortLevels) byte {
	return 0xff
}

// Ports emulates the four HD6301V1 I/O ports.
type Ports struct {
	ddr    [portCount]byte
	data   [portCount]byte
	p3csr  byte
	source PinSource
}

func newPorts() *Ports {
	return &Ports{source: pullUps{}}
}

func (p *Ports) reset() {
	p.ddr = [portCount]byte{}
	p.data = [portCount]byte{}
	p.p3csr = 0
}

// Outputs returns the levels currently driven on every port.
func (p *Ports) Outputs() PortLevels {
	var l PortLevels
	for i := range l {
		l[i] = p.data[i]&p.ddr[i] | ^p.ddr[i]
	}
	return l
}

func (p *Ports) value(port Port) byte {
	in := p.source.InputPins(port, p.Outputs())
	v := p.data[port]&p.ddr[port] | in&^p.ddr[port]
	if port == P2 {
		v = v&p2Pins | p2ModeBits
	}
	return v
}

func portOf(addr uint16) (port Port, ddr bool) {
	switch addr {
	case RegP1DDR:
		return P1, true
	case RegP2DDR:
		return P2, true
	case RegP1:
		return P1, false
	case RegP2:
		return P2, false
	case RegP3DDR:
		return P3, true
	case RegP4DDR:
		return P4, true
	case RegP3:
		return P3, false
	default:
		return P4, false
	}
}

func (p *Ports) read(addr uint16) byte {
	if addr == RegP3CSR {
		return p.p3csr | 0x07
	}
	port, ddr := portOf(addr)
	if ddr {
		return openBus // write-only
	}
	return p.value(port)
}

func (p *Ports) write(addr uint16, v byte) {
	if addr == RegP3CSR {
		p.p3csr = v & 0xf8
		return
	}
	port, ddr := portOf(addr)
	if ddr {
		p.ddr[port] = v
	} else {
		p.data[port] = v
	}
}
