// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcu

// Serial communications interface registers.
const (
	RegRMCR  = 0x10 // rate and mode control
	RegTRCSR = 0x11 // transmit/receive control and status
	RegRDR   = 0x12 // receive data
	RegTDR   = 0x13 // transmit data
)

// TRCSR bits.
const (
	RDRF = 0x80 // receive data register full
	ORFE = 0x40 // overrun or framing error
	TDRE = 0x20 // transmit data register empty
	RIE  = 0x10 // receive interrupt enable
	RE   = 0x08 // receive enable
	TIE  = 0x04 // transmit interrupt enable
	TE   = 0x02 // transmit enable
	WU   = 0x01 // wake-up
)

const trcsrControl = RIE | RE | TIE | TE | WU

// Bits per frame: start, eight data bits, stop.
const frameBits = 10

// Cycles per bit for each RMCR speed select value.
var bitCycles = [4]int{16, 128, 1024, 4096}

// FeedResult reports the outcome of delivering an inbound byte.
type FeedResult int

// Possible FeedInbound results.
const (
	Accepted FeedResult = iota // the byte was latched into RDR
	Overrun                    // RDR still held an unread byte
)

func (r FeedResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Overrun:
		return "overrun"
	default:
		return "unknown"
	}
}

// SCI emulates the HD6301 serial communications interface.
//
// Receive: an overrun keeps the unread byte in RDR and discards the new
// one, setting ORFE. Reading RDR clears RDRF. ORFE is cleared by reading
// TRCSR while it is set and then reading RDR.
//
// Transmit: writing TDR clears TDRE. On the next bit clock edge with TE
// set and the transmitter idle, the byte moves to the shift register and
// takes a frame of ten bit times to shift out, after which it waits in
// the outbound latch for DrainOutbound. TDRE reads set only while TDR is
// empty and the outbound transport reports capacity.
type SCI struct {
	rmcr    byte
	control byte // RIE, RE, TIE, TE and WU
	rdrf    bool
	orfe    bool
	armed   bool // TRCSR was read with ORFE set
	rdr     byte

	tdr      byte
	tdrFull  bool
	capacity bool

	prescale  int  // cycles until the next bit clock edge
	bits      int  // bit times left in the current frame
	carrying  bool // the current frame carries data
	shiftReg  byte
	shiftDone bool // a shifted byte is waiting for the latch
	out       byte
	outFull   bool
}

func newSCI() *SCI {
	s := &SCI{capacity: true}
	s.reset()
	return s
}

// Reset the control registers and the transmit path. Capacity is
// external state and survives.
func (s *SCI) reset() {
	s.rmcr = 0
	s.control = 0
	s.rdrf, s.orfe, s.armed = false, false, false
	s.rdr = 0
	s.tdr, s.tdrFull = 0, false
	s.bits, s.carrying = 0, false
	s.shiftDone, s.outFull = false, false
	if s.prescale <= 0 || s.prescale > s.bitTime() {
		s.prescale = s.bitTime()
	}
}

// Seed both sub-counters from the phase value. The bit clock prescaler
// starts part way through a bit, and the transmitter starts part way
// through an idle frame.
func (s *SCI) seed(phase uint32) {
	n := uint32(s.bitTime())
	s.prescale = 1 + int(phase%n)
	s.bits = int((phase / n) % frameBits)
	s.carrying = false
}

func (s *SCI) bitTime() int {
	return bitCycles[s.rmcr&0x03]
}

func (s *SCI) status() byte {
	v := s.control
	if s.rdrf {
		v |= RDRF
	}
	if s.orfe {
		v |= ORFE
	}
	if s.tdre() {
		v |= TDRE
	}
	return v
}

func (s *SCI) tdre() bool {
	return s.capacity && !s.tdrFull
}

// Feed delivers a byte from the serial line into RDR.
func (s *SCI) feed(b byte) FeedResult {
	if s.rdrf {
		s.orfe = true
		return Overrun
	}
	s.rdr = b
	s.rdrf = true
	return Accepted
}

// Drain takes the next transmitted byte from the outbound latch.
func (s *SCI) drain() (byte, bool) {
	if !s.outFull {
		return 0, false
	}
	b := s.out
	s.outFull = false
	if s.shiftDone {
		s.out, s.outFull = s.shiftReg, true
		s.shiftDone = false
	}
	return b, true
}

// Pending reports whether the SCI is requesting an interrupt.
func (s *SCI) pending() bool {
	rx := (s.rdrf || s.orfe) && s.control&RIE != 0
	tx := s.tdre() && s.control&TIE != 0
	return rx || tx
}

// Advance the bit clock by n cycles.
func (s *SCI) advance(n int) {
	for n >= s.prescale {
		n -= s.prescale
		s.prescale = s.bitTime()
		s.tick()
	}
	s.prescale -= n
}

// One bit clock edge.
func (s *SCI) tick() {
	if s.bits > 0 {
		s.bits--
		if s.bits == 0 && s.carrying {
			s.carrying = false
			s.shiftDone = true
		}
	}

	if s.shiftDone && !s.outFull {
		s.out, s.outFull = s.shiftReg, true
		s.shiftDone = false
	}

	if s.bits == 0 && !s.shiftDone && s.tdrFull && s.control&TE != 0 {
		s.shiftReg = s.tdr
		s.tdrFull = false
		s.bits = frameBits
		s.carrying = true
	}
}

func (s *SCI) read(addr uint16) byte {
	switch addr {
	case RegTRCSR:
		if s.orfe {
			s.armed = true
		}
		return s.status()
	case RegRDR:
		s.rdrf = false
		if s.armed {
			s.orfe = false
			s.armed = false
		}
		return s.rdr
	}
	return s.peek(addr)
}

func (s *SCI) peek(addr uint16) byte {
	switch addr {
	case RegRMCR:
		return s.rmcr | 0xf0
	case RegTRCSR:
		return s.status()
	case RegRDR:
		return s.rdr
	default:
		return openBus // TDR is write-only
	}
}

func (s *SCI) write(addr uint16, v byte) {
	switch addr {
	case RegRMCR:
		s.rmcr = v & 0x0f
	case RegTRCSR:
		s.control = v & trcsrControl
	case RegTDR:
		s.tdr = v
		s.tdrFull = true
	}
}
