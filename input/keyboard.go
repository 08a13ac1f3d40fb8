// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"golang.org/x/term"
)

// ErrInterrupt is returned by Keyboard.Run when the user types Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

const ctrlC = 0x03

// A Keyboard types characters read from a terminal on the key matrix.
// Terminals report characters rather than key transitions, so every
// character becomes a tap of its key, with shift or control held when
// needed.
type Keyboard struct {
	keys  Keys
	in    io.Reader
	clock clock.Clock
	Hold  time.Duration
}

// NewKeyboard creates a keyboard reading from in. If in is a terminal,
// Run switches it to raw mode.
func NewKeyboard(keys Keys, in io.Reader, c clock.Clock) *Keyboard {
	if c == nil {
		c = clock.WallClock
	}
	return &Keyboard{keys: keys, in: in, clock: c, Hold: DefaultHold}
}

// Run types characters until the input ends, the context is canceled or
// the user types Ctrl-C.
func (k *Keyboard) Run(ctx context.Context) error {
	if f, ok := k.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		old, err := term.MakeRaw(fd)
		if err != nil {
			return errors.Annotate(err, "setting raw mode")
		}
		defer term.Restore(fd, old)
		logger.Infof("keyboard input active, Ctrl-C to quit")
	}

	chars := make(chan byte)
	errc := make(chan error, 1)
	go func() {
		buf := make([]byte, 16)
		for {
			n, err := k.in.Read(buf)
			for _, c := range buf[:n] {
				select {
				case chars <- c:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if err == io.EOF {
				return nil
			}
			return errors.Annotate(err, "reading keyboard")
		case c := <-chars:
			if c == ctrlC {
				return ErrInterrupt
			}
			if err := k.typeChar(ctx, c); err != nil {
				return err
			}
		}
	}
}

func (k *Keyboard) typeChar(ctx context.Context, c byte) error {
	ks, ok := lookupKey(c)
	if !ok {
		logger.Debugf("no key for character $%02X", c)
		return nil
	}

	var codes []int
	if ks.ctrl {
		codes = append(codes, KeyControl)
	}
	if ks.shift {
		codes = append(codes, KeyLeftShift)
	}
	codes = append(codes, ks.code)
	logger.Tracef("typing $%02X as %v", c, codes)
	return tap(ctx, k.keys, k.clock, k.Hold, codes...)
}
