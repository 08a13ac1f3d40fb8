// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ikbd_test

import (
	"testing"

	"github.com/beevik/go6301/ikbd"
	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/mcu/mcutest"
	"github.com/beevik/go6301/sched"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levels(p3, p4 byte) mcu.PortLevels {
	var l mcu.PortLevels
	l[mcu.P1] = 0xff
	l[mcu.P2] = 0xff
	l[mcu.P3] = p3
	l[mcu.P4] = p4
	return l
}

func TestMatrixPins(t *testing.T) {
	m := ikbd.NewMatrix()
	require.NoError(t, m.Press(0))  // column 0, row 0
	require.NoError(t, m.Press(58)) // column 7, row 2
	assert.True(t, m.IsDown(58))

	assert.Equal(t, byte(0xfe), m.InputPins(mcu.P1, levels(0xfd, 0xff)))
	assert.Equal(t, byte(0xfb), m.InputPins(mcu.P1, levels(0xff, 0xfe)))
	assert.Equal(t, byte(0xfa), m.InputPins(mcu.P1, levels(0xfd, 0xfe)))
	assert.Equal(t, byte(0xff), m.InputPins(mcu.P1, levels(0xff, 0xff)))
	assert.Equal(t, byte(0xff), m.InputPins(mcu.P2, levels(0x00, 0x00)))

	require.NoError(t, m.Release(0))
	assert.Equal(t, byte(0xff), m.InputPins(mcu.P1, levels(0xfd, 0xff)))

	m.ReleaseAll()
	assert.False(t, m.IsDown(58))
}

func TestMatrixRange(t *testing.T) {
	m := ikbd.NewMatrix()
	assert.True(t, errors.IsNotValid(m.Press(ikbd.MaxKey+1)))
	assert.True(t, errors.IsNotValid(m.Release(-1)))
	assert.NoError(t, m.Press(ikbd.MaxKey))
}

func TestFirmwareScansMatrix(t *testing.T) {
	d := ikbd.New(mcutest.Firmware(t, mcutest.ScanROM), sched.Config{},
		mcu.WithPhase(func() uint32 { return 0 }))
	require.NoError(t, d.Matrix.Press(9))  // column 1, row 1
	require.NoError(t, d.Matrix.Press(56)) // column 7, row 0

	var out []byte
	for i := 0; i < 200 && (len(out) == 0 || out[len(out)-1] != 0xff); i++ {
		d.Scheduler.RunBatch()
		for b, ok := d.Scheduler.Drain(); ok; b, ok = d.Scheduler.Drain() {
			out = append(out, b)
		}
	}
	assert.Equal(t, []byte{0x01, 0x02, 0x07, 0x01, 0xff}, out)
}
