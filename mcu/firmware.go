// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcu

import (
	"hash/crc32"
	"os"

	"github.com/juju/errors"
)

// Firmware is an immutable mask ROM image mapped at ROMBase.
type Firmware struct {
	data [ROMSize]byte
	crc  uint32
}

// NewFirmware validates a ROM image and wraps it. The image must be
// exactly ROMSize bytes and its reset vector must point into the ROM.
func NewFirmware(b []byte) (*Firmware, error) {
	if len(b) != ROMSize {
		return nil, errors.NotValidf("firmware image of %d bytes (want %d)", len(b), ROMSize)
	}

	f := &Firmware{crc: crc32.ChecksumIEEE(b)}
	copy(f.data[:], b)

	if v := f.ResetVector(); v < ROMBase {
		return nil, errors.NotValidf("firmware reset vector $%04X", v)
	}
	return f, nil
}

// LoadFirmware reads a ROM image from disk.
func LoadFirmware(path string) (*Firmware, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("firmware %q", path)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "reading firmware %q", path)
	}

	f, err := NewFirmware(b)
	if err != nil {
		return nil, errors.Annotatef(err, "loading %q", path)
	}
	return f, nil
}

// ResetVector returns the address stored in the image's reset vector.
func (f *Firmware) ResetVector() uint16 {
	return f.Vector(0xfffe)
}

// Vector returns the big-endian word stored at a vector address. It
// returns 0 for addresses outside the image.
func (f *Firmware) Vector(addr uint16) uint16 {
	if addr < ROMBase || addr == 0xffff {
		return 0
	}
	i := int(addr - ROMBase)
	return uint16(f.data[i])<<8 | uint16(f.data[i+1])
}

// CRC returns the CRC-32 (IEEE) of the image.
func (f *Firmware) CRC() uint32 {
	return f.crc
}

// Bytes returns a copy of the image.
func (f *Firmware) Bytes() []byte {
	b := make([]byte, ROMSize)
	copy(b, f.data[:])
	return b
}
