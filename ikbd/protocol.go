// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ikbd

import "fmt"

// BootAck is the byte the IKBD firmware sends after a reset once its self
// test passes.
const BootAck = 0xf1

// Command bytes with special handling.
const (
	CmdReset      = 0x80 // followed by ResetArgument
	CmdMemoryLoad = 0x20 // address, count and count data bytes
	ResetArgument = 0x01
)

// A Command describes a host-to-IKBD command. Length counts the command
// byte and its parameters.
type Command struct {
	Code   byte
	Name   string
	Length int
}

func (c Command) String() string {
	return fmt.Sprintf("$%02X %s", c.Code, c.Name)
}

var commands = map[byte]Command{}

func init() {
	for _, c := range []Command{
		{0x07, "set mouse button action", 2},
		{0x08, "set relative mouse position reporting", 1},
		{0x09, "set absolute mouse positioning", 5},
		{0x0a, "set mouse keycode mode", 3},
		{0x0b, "set mouse threshold", 3},
		{0x0c, "set mouse scale", 3},
		{0x0d, "interrogate mouse position", 1},
		{0x0e, "load mouse position", 6},
		{0x0f, "set Y=0 at bottom", 1},
		{0x10, "set Y=0 at top", 1},
		{0x11, "resume", 1},
		{0x12, "disable mouse", 1},
		{0x13, "pause output", 1},
		{0x14, "set joystick event reporting", 2},
		{0x15, "set joystick interrogation mode", 2},
		{0x16, "joystick interrogate", 1},
		{0x17, "set joystick monitoring", 2},
		{0x18, "set fire button monitoring", 1},
		{0x19, "set joystick keycode mode", 7},
		{0x1a, "disable joysticks", 2},
		{0x1b, "time-of-day clock set", 7},
		{0x1c, "interrogate time-of-day clock", 1},
		{CmdMemoryLoad, "memory load", 4},
		{0x21, "memory read", 3},
		{0x22, "controller execute", 3},
		{CmdReset, "reset", 2},
	} {
		commands[c.Code] = c
	}

	// Status inquiries mirror the set commands with bit 7 set.
	for code := byte(0x87); code <= 0x9a; code++ {
		if c, ok := commands[code&0x7f]; ok {
			commands[code] = Command{code, "inquire " + c.Name, 1}
		}
	}
}

// LookupCommand returns the command introduced by a command byte.
func LookupCommand(code byte) (Command, bool) {
	c, ok := commands[code]
	return c, ok
}

// A framer splits the inbound byte stream into commands.
type framer struct {
	cmd   Command
	frame []byte
	want  int
}

// push adds a byte to the current frame. It returns the frame once it is
// complete. Unknown command bytes are returned as frames of their own with
// ok set to false.
func (f *framer) push(b byte) (frame []byte, ok, done bool) {
	if f.want == 0 {
		c, known := LookupCommand(b)
		if !known {
			return []byte{b}, false, true
		}
		f.cmd, f.frame, f.want = c, f.frame[:0], c.Length
	}

	f.frame = append(f.frame, b)
	if f.cmd.Code == CmdMemoryLoad && len(f.frame) == 4 {
		f.want += int(f.frame[3])
	}
	if len(f.frame) < f.want {
		return nil, true, false
	}
	f.want = 0
	return f.frame, true, true
}

// inCommand returns true while a frame introduced by code is incomplete.
func (f *framer) inCommand(code byte) bool {
	return f.want != 0 && f.cmd.Code == code
}

func isReset(frame []byte) bool {
	return len(frame) == 2 && frame[0] == CmdReset && frame[1] == ResetArgument
}
