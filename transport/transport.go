// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport opens the serial line to the host computer.
package transport

import (
	"io"

	"github.com/beevik/go6301/config"
	"github.com/jacobsa/go-serial/serial"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/pkg/term"
)

var logger = loggo.GetLogger("go6301.transport")

// Rates the term driver can select.
var standardBauds = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// Open opens the serial line described by the configuration.
func Open(cfg config.Serial) (io.ReadWriteCloser, error) {
	switch cfg.Driver {
	case config.DriverTerm:
		return openTerm(cfg)
	case config.DriverGoSerial:
		return openGoSerial(cfg)
	case config.DriverPipe:
		dev, host := Pipe()
		go monitor(host)
		return dev, nil
	}
	return nil, errors.NotSupportedf("serial driver %q", cfg.Driver)
}

func openTerm(cfg config.Serial) (io.ReadWriteCloser, error) {
	baud := nearestBaud(cfg.Baud)
	if baud != cfg.Baud {
		logger.Warningf("%s: %d baud not available, using %d", cfg.Port, cfg.Baud, baud)
	}
	t, err := term.Open(cfg.Port, term.Speed(baud), term.RawMode, term.ReadTimeout(cfg.ReadTimeout))
	if err != nil {
		return nil, errors.Annotatef(err, "opening %s", cfg.Port)
	}
	logger.Infof("opened %s at %d baud", cfg.Port, baud)
	return t, nil
}

func openGoSerial(cfg config.Serial) (io.ReadWriteCloser, error) {
	timeout := uint(cfg.ReadTimeout.Milliseconds())
	if timeout < 100 {
		// The driver works in tenths of a second.
		timeout = 100
	}
	opts := serial.OpenOptions{
		PortName:              cfg.Port,
		BaudRate:              uint(cfg.Baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: timeout,
		MinimumReadSize:       0,
	}
	p, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Annotatef(err, "opening %s", cfg.Port)
	}
	logger.Infof("opened %s at %d baud", cfg.Port, cfg.Baud)
	return p, nil
}

// nearestBaud returns the standard rate closest to baud.
func nearestBaud(baud int) int {
	best := standardBauds[0]
	for _, b := range standardBauds[1:] {
		if abs(b-baud) < abs(best-baud) {
			best = b
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
