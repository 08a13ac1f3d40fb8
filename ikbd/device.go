// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ikbd connects an emulated HD6301 running the Atari ST keyboard
// controller firmware to its key matrix and to the serial line of the
// host computer.
package ikbd

import (
	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/sched"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("go6301.ikbd")

// A Device is a keyboard controller: the microcontroller, the scheduler
// that runs it and the switch matrix it scans.
type Device struct {
	Scheduler *sched.Scheduler
	Matrix    *Matrix
}

// New creates a device running the firmware.
func New(f *mcu.Firmware, cfg sched.Config, options ...mcu.Option) *Device {
	m := mcu.New(f, options...)
	matrix := NewMatrix()
	m.SetPinSource(matrix)
	return &Device{
		Scheduler: sched.New(m, cfg),
		Matrix:    matrix,
	}
}
