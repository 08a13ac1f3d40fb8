// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ikbd

import (
	"sync/atomic"

	"github.com/beevik/go6301/mcu"
	"github.com/juju/errors"
)

// Key matrix geometry. Columns 0-6 are driven by port 3 bits 1-7 and
// columns 7-14 by port 4 bits 0-7. A driven column is pulled low; keys
// that are down pull their row low on port 1.
const (
	Columns = 15
	Rows    = 8
	MaxKey  = Columns*Rows - 1
)

// A Matrix is the keyboard switch matrix. Keys are numbered by their
// position, column*Rows + row.
//
// Input sources press and release keys from their own goroutines while
// the emulated firmware scans the matrix, exactly as a real key can
// change at any time during a scan. Every column is one atomic word.
type Matrix struct {
	cols [Columns]atomic.Uint32
}

// NewMatrix returns a matrix with every key up.
func NewMatrix() *Matrix {
	return &Matrix{}
}

func position(key int) (col, row int, err error) {
	if key < 0 || key > MaxKey {
		return 0, 0, errors.NotValidf("key %d", key)
	}
	return key / Rows, key % Rows, nil
}

// Press puts a key down.
func (m *Matrix) Press(key int) error {
	col, row, err := position(key)
	if err != nil {
		return err
	}
	m.cols[col].Or(1 << row)
	return nil
}

// Release lets a key up.
func (m *Matrix) Release(key int) error {
	col, row, err := position(key)
	if err != nil {
		return err
	}
	m.cols[col].And(^uint32(1 << row))
	return nil
}

// ReleaseAll lets every key up.
func (m *Matrix) ReleaseAll() {
	for i := range m.cols {
		m.cols[i].Store(0)
	}
}

// IsDown returns true if the key is down.
func (m *Matrix) IsDown(key int) bool {
	col, row, err := position(key)
	if err != nil {
		return false
	}
	return m.cols[col].Load()&(1<<row) != 0
}

// InputPins implements mcu.PinSource. Only port 1 senses the matrix.
func (m *Matrix) InputPins(port mcu.Port, out mcu.PortLevels) byte {
	if port != mcu.P1 {
		return 0xff
	}

	selected := uint32(^out[mcu.P3]>>1) | uint32(^out[mcu.P4])<<7
	var rows uint32
	for col := range m.cols {
		if selected&(1<<col) != 0 {
			rows |= m.cols[col].Load()
		}
	}
	return ^byte(rows)
}
