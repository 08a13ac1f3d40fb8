// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"context"
	"time"

	"github.com/beevik/go6301/mcu"
	"github.com/juju/clock"
	"github.com/juju/errors"
	lua "github.com/yuin/gopher-lua"
)

// A Script runs Lua macros against the keyboard controller. Scripts see
// these functions:
//
//	press(key)          put a key down
//	release(key)        let a key up
//	tap(key [, ms])     press a key and release it after ms milliseconds
//	type(text)          tap the keys that type text
//	send(byte, ...)     send raw bytes as the host computer
//	sleep(ms)           wait
//	reset()             warm reset the controller
//
// Keys are matrix positions, which equal Atari ST scan codes.
type Script struct {
	keys   Keys
	sender Sender
	reset  Resetter
	clock  clock.Clock
}

// NewScript creates a script runner. The sender and resetter may be nil,
// in which case send and reset raise errors.
func NewScript(keys Keys, sender Sender, reset Resetter, c clock.Clock) *Script {
	if c == nil {
		c = clock.WallClock
	}
	return &Script{keys: keys, sender: sender, reset: reset, clock: c}
}

// RunFile runs a script file.
func (s *Script) RunFile(ctx context.Context, path string) error {
	L := s.newState(ctx)
	defer L.Close()
	logger.Infof("running script %s", path)
	return errors.Annotatef(L.DoFile(path), "script %s", path)
}

// RunString runs a script held in a string.
func (s *Script) RunString(ctx context.Context, src string) error {
	L := s.newState(ctx)
	defer L.Close()
	return errors.Annotate(L.DoString(src), "script")
}

func (s *Script) newState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)

	funcs := map[string]lua.LGFunction{
		"press":   s.press,
		"release": s.release,
		"tap":     s.tap,
		"type":    s.typeText,
		"send":    s.send,
		"sleep":   s.sleep,
		"reset":   s.resetController,
	}
	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

func (s *Script) press(L *lua.LState) int {
	if err := s.keys.Press(L.CheckInt(1)); err != nil {
		L.ArgError(1, err.Error())
	}
	return 0
}

func (s *Script) release(L *lua.LState) int {
	if err := s.keys.Release(L.CheckInt(1)); err != nil {
		L.ArgError(1, err.Error())
	}
	return 0
}

func (s *Script) tap(L *lua.LState) int {
	key := L.CheckInt(1)
	hold := time.Duration(L.OptInt(2, int(DefaultHold/time.Millisecond))) * time.Millisecond
	if err := tap(L.Context(), s.keys, s.clock, hold, key); err != nil {
		L.RaiseError("tap %d: %v", key, err)
	}
	return 0
}

func (s *Script) typeText(L *lua.LState) int {
	text := L.CheckString(1)
	kb := &Keyboard{keys: s.keys, clock: s.clock, Hold: DefaultHold}
	for i := 0; i < len(text); i++ {
		if err := kb.typeChar(L.Context(), text[i]); err != nil {
			L.RaiseError("type: %v", err)
		}
		if err := s.wait(L.Context(), DefaultHold); err != nil {
			L.RaiseError("type: %v", err)
		}
	}
	return 0
}

func (s *Script) send(L *lua.LState) int {
	if s.sender == nil {
		L.RaiseError("send: no serial link")
	}
	n := L.GetTop()
	data := make([]byte, n)
	for i := range n {
		v := L.CheckInt(i + 1)
		if v < 0 || v > 0xff {
			L.ArgError(i+1, "byte out of range")
		}
		data[i] = byte(v)
	}
	if err := s.sender.Send(L.Context(), data...); err != nil {
		L.RaiseError("send: %v", err)
	}
	return 0
}

func (s *Script) sleep(L *lua.LState) int {
	d := time.Duration(L.CheckInt(1)) * time.Millisecond
	if err := s.wait(L.Context(), d); err != nil {
		L.RaiseError("sleep: %v", err)
	}
	return 0
}

func (s *Script) resetController(L *lua.LState) int {
	if s.reset == nil {
		L.RaiseError("reset: no controller")
	}
	s.reset.RequestReset(mcu.Warm)
	return 0
}

func (s *Script) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-s.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
