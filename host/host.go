// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host implements an interactive debug console for an emulated
// keyboard controller.
//
// Within the console it is possible to load and assemble firmware, step
// through it, run it in scheduler batches, set address and data
// breakpoints, dump and modify memory and peripheral registers, press
// keys on the matrix, and exchange bytes with the controller's serial
// line.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"
	"github.com/beevik/go6301/asm"
	"github.com/beevik/go6301/cpu"
	"github.com/beevik/go6301/disasm"
	"github.com/beevik/go6301/ikbd"
	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/sched"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("go6301.host")

// ErrQuit is returned by RunCommands when the user quits.
var ErrQuit = errors.New("quit")

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles
	displayAnnotations

	displayAll = displayRegisters | displayCycles | displayAnnotations
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
	stateStepOverBreakpoint
)

// A Host is a debug console attached to a keyboard controller. The host
// runs the controller's scheduler on its own goroutine, so the scheduler
// must not be running elsewhere.
type Host struct {
	input        *bufio.Scanner
	output       *bufio.Writer
	interactive  bool
	dev          *ikbd.Device
	sched        *sched.Scheduler
	mcu          *mcu.MCU
	debugger     *cpu.Debugger
	lastCmd      *cmd.Selection
	state        state
	brk          atomic.Bool
	stepOverAddr int
	settings     *settings
	annotations  map[uint16]string
	sourceMap    *asm.SourceMap
}

// New creates a debug console for a device.
func New(dev *ikbd.Device) *Host {
	h := &Host{
		state:        stateProcessingCommands,
		stepOverAddr: -1,
		settings:     newSettings(),
		annotations:  make(map[uint16]string),
	}
	h.debugger = cpu.NewDebugger(newDebugHandler(h))
	h.attach(dev)
	return h
}

func (h *Host) attach(dev *ikbd.Device) {
	if h.mcu != nil {
		h.mcu.CPU.DetachDebugger()
	}
	h.dev = dev
	h.sched = dev.Scheduler
	h.mcu = dev.Scheduler.MCU()
	h.mcu.CPU.AttachDebugger(h.debugger)
	h.settings.BatchCycles = h.sched.Config().BatchCycles
}

// RunCommands accepts console commands from a reader and outputs the
// results to a writer. If the commands are interactive, a prompt is
// displayed while the host waits for the next command to be entered. It
// returns ErrQuit if the user quit, or nil at the end of the input.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) error {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}
	h.displayPC()

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			return nil
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		var cm *command
		if c.Command != nil {
			cm, _ = c.Command.Data.(*command)
		}
		if cm == nil {
			// A subtree was selected without one of its commands.
			if line != "" {
				h.displayCommands(strings.TrimSpace(line))
			}
			continue
		}
		h.lastCmd = &c

		if err := cm.fn(h, c); err != nil {
			h.flush()
			return err
		}
	}
}

// Break interrupts a running controller. It may be called from any
// goroutine.
func (h *Host) Break() {
	h.brk.Store(true)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.mcu.CPU.Reg.PC, displayAll)
		h.println(d)
	}
}

// A view reads memory without peripheral side effects.
func (h *Host) view() mcu.View {
	return mcu.View{Bank: h.mcu.Bank}
}

func (h *Host) cmdAnnotate(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	annotation := strings.Join(c.Args[1:], " ")
	if annotation == "" {
		delete(h.annotations, addr)
		h.printf("Annotation removed at $%04X.\n", addr)
	} else {
		h.annotations[addr] = annotation
		h.printf("Annotation added at $%04X.\n", addr)
	}
	return nil
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}

	err := asm.AssembleFile(filename, mcu.ROMBase, 0, h.output)
	if err != nil {
		h.printf("Failed to assemble: %v\n", err)
	}
	h.flush()
	return nil
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled  Hits")
	h.println("----- -------  ----")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %-7v  %d\n", b.Address, !b.Disabled, b.Hits)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	return h.withBreakpoint(c, func(addr uint16, b *cpu.Breakpoint) {
		h.debugger.RemoveBreakpoint(addr)
		h.printf("Breakpoint at $%04X removed.\n", addr)
	})
}

func (h *Host) cmdBreakpointEnable(c cmd.Selection) error {
	return h.withBreakpoint(c, func(addr uint16, b *cpu.Breakpoint) {
		b.Disabled = false
		h.printf("Breakpoint at $%04X enabled.\n", addr)
	})
}

func (h *Host) cmdBreakpointDisable(c cmd.Selection) error {
	return h.withBreakpoint(c, func(addr uint16, b *cpu.Breakpoint) {
		b.Disabled = true
		h.printf("Breakpoint at $%04X disabled.\n", addr)
	})
}

func (h *Host) withBreakpoint(c cmd.Selection, fn func(addr uint16, b *cpu.Breakpoint)) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}
	fn(addr, b)
	return nil
}

func (h *Host) cmdDataBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled  Value")
	h.println("----- -------  -----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-7v  $%02X\n", b.Address, !b.Disabled, b.Value)
		} else {
			h.printf("$%04X %-7v  <none>\n", b.Address, !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if len(c.Args) > 1 {
		value, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, byte(value))
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, byte(value))
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}
	return nil
}

func (h *Host) cmdDataBreakpointRemove(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}
	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	addr, ok := h.addressArg(c.Args, h.settings.NextDisasmAddr)
	if !ok {
		return nil
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr, displayAnnotations)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEval(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	v, err := h.parseExpr(strings.Join(c.Args, " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X %d\n", v, v)
	return nil
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.displayCommands("")
		return nil
	}

	name := strings.Join(c.Args, " ")
	s, err := cmds.Lookup(name)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	var cm *command
	if s.Command != nil {
		cm, _ = s.Command.Data.(*command)
	}
	if cm == nil {
		h.displayCommands(name)
		return nil
	}

	h.printf("Syntax: %s\n\n", cm.usage)
	switch {
	case cm.description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, cm.description))
	case cm.brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, cm.brief))
	}
	return nil
}

func (h *Host) cmdKeyPress(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	key, err := h.parseExpr(c.Args[0])
	if err == nil {
		err = h.dev.Matrix.Press(int(key))
	}
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Key $%02X down.\n", key)
	return nil
}

func (h *Host) cmdKeyRelease(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.dev.Matrix.ReleaseAll()
		h.println("All keys up.")
		return nil
	}

	key, err := h.parseExpr(c.Args[0])
	if err == nil {
		err = h.dev.Matrix.Release(int(key))
	}
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Key $%02X up.\n", key)
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}
	h.load(filename)
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, ok := h.addressArg(c.Args, h.settings.NextMemDumpAddr)
	if !ok {
		return nil
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) >= 2 {
		var err error
		bytes, err = h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	var data []byte
	for _, arg := range c.Args[1:] {
		v, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if v > 0xff {
			h.printf("Value $%X is not a byte.\n", v)
			return nil
		}
		data = append(data, byte(v))
	}

	for i, b := range data {
		h.mcu.Bank.StoreByte(addr+uint16(i), b)
	}
	h.printf("Stored %d bytes at $%04X.\n", len(data), addr)
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return ErrQuit
}

func (h *Host) cmdRegisters(c cmd.Selection) error {
	d, _ := h.disassemble(h.mcu.CPU.Reg.PC, displayAll)
	h.println(d)
	if f := h.mcu.CPU.Fault(); f != nil {
		h.printf("CPU crashed: %v.\n", f)
	}
	return nil
}

func (h *Host) cmdReset(c cmd.Selection) error {
	kind := mcu.Cold
	if len(c.Args) > 0 {
		switch strings.ToLower(c.Args[0]) {
		case "cold":
		case "warm":
			kind = mcu.Warm
		default:
			h.displayUsage(c)
			return nil
		}
	}

	h.sched.RequestReset(kind)
	h.sched.Service()
	h.printf("Controller %s reset.\n", kind)
	h.settings.NextDisasmAddr = h.mcu.CPU.Reg.PC
	h.displayPC()
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	var limit uint64
	if len(c.Args) > 0 {
		n, err := h.parseInt(strings.Join(c.Args, " "))
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		limit = uint64(max(n, 0))
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.mcu.CPU.Reg.PC)

	start := h.mcu.Cycles()
	h.brk.Store(false)
	h.state = stateRunning
	for h.state == stateRunning {
		h.sched.RunBatch()
		h.displayOutbound()
		switch {
		case h.brk.Load():
			h.println()
			h.displayPC()
			h.state = stateProcessingCommands
		case limit > 0 && h.mcu.Cycles()-start >= limit:
			h.displayPC()
			h.state = stateProcessingCommands
		}
	}
	h.state = stateProcessingCommands

	h.printf("Ran %d cycles.\n", h.mcu.Cycles()-start)
	h.settings.NextDisasmAddr = h.mcu.CPU.Reg.PC
	return nil
}

func (h *Host) cmdSerialSend(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	var data []byte
	for _, arg := range c.Args {
		v, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if v > 0xff {
			h.printf("Value $%X is not a byte.\n", v)
			return nil
		}
		data = append(data, byte(v))
	}

	for i, b := range data {
		if err := h.sched.Feed(b); err != nil {
			h.printf("Queued %d of %d bytes: %v.\n", i, len(data), err)
			return nil
		}
	}
	if cm, ok := ikbd.LookupCommand(data[0]); ok {
		h.printf("Queued %d bytes (%s).\n", len(data), cm.Name)
	} else {
		h.printf("Queued %d bytes.\n", len(data))
	}
	return nil
}

func (h *Host) cmdSerialStatus(c cmd.Selection) error {
	d := h.sched.Diagnostics()
	v := h.view()
	h.printf("Batches      %d\n", d.Batches)
	h.printf("Cycles       %d\n", d.Cycles)
	h.printf("Inbound      %d queued, %d rejected\n", d.Inbound, d.InboundFull)
	h.printf("Outbound     %d queued, %d held\n", d.Outbound, d.OutboundFull)
	h.printf("RMCR         $%02X\n", v.LoadByte(mcu.RegRMCR))
	h.printf("TRCSR        $%02X\n", v.LoadByte(mcu.RegTRCSR))
	h.printf("Crashed      %v\n", d.Crashed)
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")
		v, errV := h.parseExpr(value)

		// Setting a register?
		if errV == nil && h.setRegister(key, v) {
			return nil
		}

		// Setting a console setting?
		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var b bool
			b, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			err = errV
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}

		h.onSettingsUpdate()
	}
	return nil
}

func (h *Host) setRegister(key string, v uint16) bool {
	reg := &h.mcu.CPU.Reg
	sz := -1
	switch key {
	case "a":
		reg.A, sz = byte(v), 1
	case "b":
		reg.B, sz = byte(v), 1
	case "d":
		reg.SetD(v)
		sz = 2
	case "x":
		reg.X, sz = v, 2
	case "sp":
		reg.SP, sz = v, 2
	case ".":
		key = "pc"
		fallthrough
	case "pc":
		reg.PC, sz = v, 2
	case "cc", "ccr":
		reg.RestoreCC(byte(v))
		sz = 1
	case "carry":
		reg.Carry, sz = v != 0, 0
	case "overflow":
		reg.Overflow, sz = v != 0, 0
	case "zero":
		reg.Zero, sz = v != 0, 0
	case "negative":
		reg.Negative, sz = v != 0, 0
	case "interrupt":
		reg.InterruptMask, sz = v != 0, 0
	case "halfcarry":
		reg.HalfCarry, sz = v != 0, 0
	}

	switch sz {
	case 0:
		h.printf("Register %s set to %v.\n", strings.ToUpper(key), v != 0)
	case 1:
		h.printf("Register %s set to $%02X.\n", strings.ToUpper(key), byte(v))
	case 2:
		h.printf("Register %s set to $%04X.\n", strings.ToUpper(key), v)
	}
	return sz >= 0
}

func (h *Host) cmdStepIn(c cmd.Selection) error {
	return h.stepCommand(c, h.step)
}

func (h *Host) cmdStepOver(c cmd.Selection) error {
	return h.stepCommand(c, h.stepOver)
}

func (h *Host) stepCommand(c cmd.Selection, step func()) error {
	// Parse the number of steps.
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseInt(c.Args[0])
		if err == nil {
			count = n
		}
	}

	h.brk.Store(false)
	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning && !h.brk.Load(); i-- {
		step()
		h.displayOutbound()
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.mcu.CPU.Reg.PC
	return nil
}

func (h *Host) cmdStepOut(c cmd.Selection) error {
	reg := &h.mcu.CPU.Reg
	sp := reg.SP

	h.brk.Store(false)
	h.state = stateRunning
	for h.state == stateRunning && !h.brk.Load() {
		inst := h.instruction(reg.PC)
		h.step()
		h.displayOutbound()

		// Interrupt handlers return to the stack level they started at,
		// so only a return that pops above it ends the subroutine.
		if (inst.Name == "RTS" || inst.Name == "RTI") && reg.SP > sp {
			break
		}
	}
	h.state = stateProcessingCommands

	h.displayPC()
	h.settings.NextDisasmAddr = reg.PC
	return nil
}

func (h *Host) instruction(addr uint16) *cpu.Instruction {
	return h.mcu.CPU.InstSet.Lookup(h.view().LoadByte(addr))
}

// Load a firmware image and replace the device with one running it.
func (h *Host) load(filename string) {
	f, err := mcu.LoadFirmware(filename)
	if err != nil {
		h.printf("Failed to load '%s': %v\n", filepath.Base(filename), err)
		return
	}

	h.attach(ikbd.New(f, h.sched.Config()))
	h.printf("Loaded '%s' to $%04X..$%04X, CRC $%08X\n",
		filepath.Base(filename), mcu.ROMBase, 0xffff, f.CRC())

	h.sourceMap = nil
	ext := filepath.Ext(filename)
	mapname := filename[:len(filename)-len(ext)] + ".map"
	file, err := os.Open(mapname)
	if err == nil {
		defer file.Close()
		sm := &asm.SourceMap{}
		if _, err := sm.ReadFrom(file); err != nil {
			h.printf("Failed to read '%s': %v\n", filepath.Base(mapname), err)
		} else {
			h.sourceMap = sm
			h.printf("Loaded '%s' source map\n", filepath.Base(mapname))
		}
	}

	h.settings.NextDisasmAddr = h.mcu.CPU.Reg.PC
	h.displayPC()
}

func (h *Host) step() {
	h.sched.Step()
}

func (h *Host) stepOver() {
	// Subroutine calls need to be handled specially.
	pc := h.mcu.CPU.Reg.PC
	inst := h.instruction(pc)
	if inst.Name != "JSR" && inst.Name != "BSR" {
		h.step()
		return
	}

	// Place a step-over breakpoint on the instruction following the call.
	// Either reuse an already existing breakpoint on that instruction, or
	// create a temporary one.
	next := pc + uint16(inst.Length)
	tmpBreakpointCreated := false
	if h.debugger.GetBreakpoint(next) == nil {
		h.debugger.AddBreakpoint(next)
		tmpBreakpointCreated = true
	}
	h.stepOverAddr = int(next)

	// Run until interrupted.
	for h.state == stateRunning && !h.brk.Load() {
		h.sched.RunBatch()
		h.displayOutbound()
	}
	h.stepOverAddr = -1

	// If we were interrupted by the step-over breakpoint, then continue
	// as normal.
	if h.state == stateStepOverBreakpoint {
		h.state = stateRunning
	}

	if tmpBreakpointCreated {
		h.debugger.RemoveBreakpoint(next)
	}
}

func (h *Host) onSettingsUpdate() {
	h.sched.SetBatchCycles(h.settings.BatchCycles)
	h.settings.BatchCycles = h.sched.Config().BatchCycles
}

// Parse an address argument. '$' continues from next, and '.' is the
// program counter. No argument means '$'.
func (h *Host) addressArg(args []string, next uint16) (uint16, bool) {
	arg := "$"
	if len(args) > 0 {
		arg = args[0]
	}

	switch arg {
	case "$":
		if next == 0 {
			return h.mcu.CPU.Reg.PC, true
		}
		return next, true
	case ".":
		return h.mcu.CPU.Reg.PC, true
	}

	addr, err := h.parseExpr(arg)
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return addr, true
}

func (h *Host) parseExpr(expr string) (uint16, error) {
	v, err := h.parseInt(expr)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func (h *Host) parseInt(expr string) (int, error) {
	return asm.Eval(expr, int(h.mcu.CPU.Reg.PC), h.resolveIdentifier)
}

func (h *Host) resolveIdentifier(s string) (int, error) {
	reg := &h.mcu.CPU.Reg
	switch strings.ToLower(s) {
	case "a":
		return int(reg.A), nil
	case "b":
		return int(reg.B), nil
	case "d":
		return int(reg.D()), nil
	case "x":
		return int(reg.X), nil
	case "sp":
		return int(reg.SP), nil
	case "pc":
		return int(reg.PC), nil
	case "cc", "ccr":
		return int(reg.SaveCC()), nil
	}
	if r, ok := registerNames[strings.ToUpper(s)]; ok {
		return int(r), nil
	}
	return 0, fmt.Errorf("identifier '%s' not found", s)
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	v := h.view()

	var line string
	line, next = disasm.Disassemble(v, addr)

	b := make([]byte, next-addr)
	for i := range b {
		b[i] = v.LoadByte(addr + uint16(i))
	}

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.GetRegisterString(&h.mcu.CPU.Reg)
	}

	if (flags & displayCycles) != 0 {
		str += fmt.Sprintf(" C=%-12d", h.mcu.Cycles())
	}

	if (flags & displayAnnotations) != 0 {
		if anno, ok := h.annotations[addr]; ok {
			str += " ; " + anno
		} else if h.sourceMap != nil {
			if file, line := h.sourceMap.Search(int(addr)); line >= 0 {
				str += fmt.Sprintf(" ; %s:%d", filepath.Base(file), line)
			}
		}
	}

	return str, next
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	v := h.view()
	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := addr0, 6, 32; a <= addr1 && a >= addr0; a, c1, c2 = a+1, c1+3, c2+1 {
			m := v.LoadByte(a)
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(string(buf))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := min((uint32(addr1)+8)&0xffff8, 0x10000)

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := v.LoadByte(a)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(string(buf))
	}
}

// Print everything the firmware has transmitted since the last call.
func (h *Host) displayOutbound() {
	var out []byte
	for b, ok := h.sched.Drain(); ok; b, ok = h.sched.Drain() {
		out = append(out, b)
	}
	if len(out) > 0 {
		h.printf("Serial: % X\n", out)
	}
}

func (h *Host) displayUsage(c cmd.Selection) {
	if cm, ok := c.Command.Data.(*command); ok && cm.usage != "" {
		h.printf("Syntax: %s\n", cm.usage)
	} else {
		h.println("<no help text>")
	}
}

// Display the commands whose names start with prefix.
func (h *Host) displayCommands(prefix string) {
	if prefix == "" {
		h.println("Commands:")
	} else {
		h.printf("%s commands:\n", prefix)
	}
	for _, c := range commands {
		if c.brief != "" && strings.HasPrefix(c.name, prefix) {
			h.printf("    %-22s  %s\n", c.name, c.brief)
		}
	}
}

func (h *Host) onBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	c.Break()
	if int(b.Address) == h.stepOverAddr {
		h.state = stateStepOverBreakpoint
		return
	}

	logger.Debugf("breakpoint $%04X, hit %d", b.Address, b.Hits)
	h.state = stateBreakpoint
	h.printf("Breakpoint hit at $%04X.\n", b.Address)
	h.displayPC()
}

func (h *Host) onDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	c.Break()
	h.printf("Data breakpoint hit on address $%04X.\n", b.Address)

	h.state = stateBreakpoint

	if c.LastPC != c.Reg.PC {
		d, _ := h.disassemble(c.LastPC, displayAll)
		h.println(d)
	}

	h.displayPC()
}
