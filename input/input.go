// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package input turns terminal keystrokes and Lua macro scripts into key
// matrix changes and raw bytes for the keyboard controller.
package input

import (
	"context"
	"time"

	"github.com/beevik/go6301/mcu"
	"github.com/juju/clock"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("go6301.input")

// DefaultHold is how long a tapped key stays down.
const DefaultHold = 50 * time.Millisecond

// Keys is a key matrix.
type Keys interface {
	Press(key int) error
	Release(key int) error
}

// A Sender delivers raw bytes to the keyboard controller as though the
// host computer had sent them.
type Sender interface {
	Send(ctx context.Context, data ...byte) error
}

// A Resetter resets the keyboard controller.
type Resetter interface {
	RequestReset(kind mcu.ResetKind)
}

// tap presses the keys in order, holds them and releases them in reverse
// order.
func tap(ctx context.Context, keys Keys, c clock.Clock, hold time.Duration, codes ...int) error {
	for i, code := range codes {
		if err := keys.Press(code); err != nil {
			for _, k := range codes[:i] {
				keys.Release(k)
			}
			return err
		}
	}

	var err error
	select {
	case <-c.After(hold):
	case <-ctx.Done():
		err = ctx.Err()
	}

	for i := len(codes) - 1; i >= 0; i-- {
		keys.Release(codes[i])
	}
	return err
}
