// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/go6301/host"
	"github.com/beevik/go6301/ikbd"
	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/mcu/mcutest"
	"github.com/beevik/go6301/sched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T) *ikbd.Device {
	t.Helper()
	f := mcutest.Firmware(t, mcutest.BootROM)
	return ikbd.New(f, sched.Config{}, mcu.WithPhase(func() uint32 { return 0 }))
}

func runCommands(t *testing.T, dev *ikbd.Device, script string) string {
	t.Helper()
	h := host.New(dev)
	var out bytes.Buffer
	err := h.RunCommands(strings.NewReader(script), &out, false)
	require.NoError(t, err)
	return out.String()
}

func TestEvaluate(t *testing.T) {
	out := runCommands(t, newDevice(t), "evaluate $10+2\nevaluate TRCSR\n")
	assert.Contains(t, out, "$0012 18")
	assert.Contains(t, out, "$0011 17")
}

func TestQuit(t *testing.T) {
	h := host.New(newDevice(t))
	var out bytes.Buffer
	err := h.RunCommands(strings.NewReader("quit\nevaluate 1\n"), &out, false)
	assert.Equal(t, host.ErrQuit, err)
	assert.Empty(t, out.String())
}

func TestStepAndRegisters(t *testing.T) {
	out := runCommands(t, newDevice(t), "step in\nregisters\n")
	assert.Contains(t, out, "SP=00FF")
}

func TestRunShowsSerialOutput(t *testing.T) {
	out := runCommands(t, newDevice(t), "run 20000\n")
	assert.Contains(t, out, "Serial: F1")
	assert.Contains(t, out, "Ran ")
}

func TestDataBreakpointStopsRun(t *testing.T) {
	dev := newDevice(t)
	out := runCommands(t, dev, "databreakpoint add TDR $F1\nrun\n")
	assert.Contains(t, out, "Data breakpoint hit on address $0013.")
	assert.NotContains(t, out, "Serial:")
	assert.Less(t, dev.Scheduler.MCU().Cycles(), uint64(10000))
}

func TestMemory(t *testing.T) {
	dev := newDevice(t)
	out := runCommands(t, dev, "memory set $80 $41 $42\nmemory dump $80 2\n")
	assert.Contains(t, out, "Stored 2 bytes at $0080.")
	assert.Contains(t, out, "0080- 41 42")
	assert.Equal(t, byte(0x42), dev.Scheduler.MCU().Bank.Peek(0x81))
}

func TestKeys(t *testing.T) {
	dev := newDevice(t)
	out := runCommands(t, dev, "key press $39\n")
	assert.Contains(t, out, "Key $39 down.")
	assert.True(t, dev.Matrix.IsDown(0x39))

	runCommands(t, dev, "key release\n")
	assert.False(t, dev.Matrix.IsDown(0x39))
}

func TestSerialSend(t *testing.T) {
	dev := newDevice(t)
	out := runCommands(t, dev, "serial send $14 $01\n")
	assert.Contains(t, out, "set joystick event reporting")
	assert.Equal(t, 2, dev.Scheduler.Diagnostics().Inbound)
}

func TestSettings(t *testing.T) {
	out := runCommands(t, newDevice(t), "set maxstep 5\nset\n")
	assert.Contains(t, out, "Setting updated.")
	assert.Regexp(t, `MaxStepLines\s+5`, out)
}

func TestSetRegister(t *testing.T) {
	dev := newDevice(t)
	out := runCommands(t, dev, "set x $1234\nset d $BEEF\n")
	assert.Contains(t, out, "Register X set to $1234.")
	reg := dev.Scheduler.MCU().CPU.Reg
	assert.Equal(t, uint16(0x1234), reg.X)
	assert.Equal(t, uint16(0xbeef), reg.D())
}

func TestHelp(t *testing.T) {
	out := runCommands(t, newDevice(t), "help\n")
	assert.Contains(t, out, "breakpoint add")
	assert.Contains(t, out, "step over")
}
