// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"cmp"
	"slices"
)

// A Debugger watches the emulated CPU for breakpoints and data
// breakpoints, and reports them to its handler.
type Debugger struct {
	handler         BreakpointHandler
	breakpoints     map[uint16]*Breakpoint
	dataBreakpoints map[uint16]*DataBreakpoint
}

// The BreakpointHandler interface should be implemented by any object that
// wishes to receive debugger breakpoint notifications.
type BreakpointHandler interface {
	OnBreakpoint(cpu *CPU, b *Breakpoint)
	OnDataBreakpoint(cpu *CPU, b *DataBreakpoint)
}

// A Breakpoint represents an address that will cause the debugger to stop
// code execution when the program counter reaches it. Interrupt dispatch
// to the address counts as reaching it.
type Breakpoint struct {
	Address  uint16 // address of execution breakpoint
	Disabled bool   // this breakpoint is currently disabled
	Hits     int    // number of times the breakpoint triggered
}

// A DataBreakpoint represents an address that will cause the debugger to
// stop executing code when a byte is stored to it. Peripheral registers
// may be watched like any other address.
type DataBreakpoint struct {
	Address     uint16 // breakpoint triggered by stores to this address
	Disabled    bool   // this breakpoint is currently disabled
	Conditional bool   // this breakpoint is conditional on a certain Value being stored
	Value       byte   // the value that must be stored if the breakpoint is conditional
}

// NewDebugger creates a new CPU debugger.
func NewDebugger(handler BreakpointHandler) *Debugger {
	return &Debugger{
		handler:         handler,
		breakpoints:     make(map[uint16]*Breakpoint),
		dataBreakpoints: make(map[uint16]*DataBreakpoint),
	}
}

// GetBreakpoint looks up a breakpoint by address and returns it if found.
// Otherwise it returns nil.
func (d *Debugger) GetBreakpoint(addr uint16) *Breakpoint {
	return d.breakpoints[addr]
}

// GetBreakpoints returns all breakpoints, ordered by address.
func (d *Debugger) GetBreakpoints() []*Breakpoint {
	breakpoints := make([]*Breakpoint, 0, len(d.breakpoints))
	for _, b := range d.breakpoints {
		breakpoints = append(breakpoints, b)
	}
	slices.SortFunc(breakpoints, func(a, b *Breakpoint) int {
		return cmp.Compare(a.Address, b.Address)
	})
	return breakpoints
}

// AddBreakpoint adds a new breakpoint address to the debugger. An existing
// breakpoint at the address is replaced.
func (d *Debugger) AddBreakpoint(addr uint16) *Breakpoint {
	b := &Breakpoint{Address: addr}
	d.breakpoints[addr] = b
	return b
}

// RemoveBreakpoint removes a breakpoint from the debugger.
func (d *Debugger) RemoveBreakpoint(addr uint16) {
	delete(d.breakpoints, addr)
}

// GetDataBreakpoint looks up a data breakpoint on the provided address
// and returns it if found. Otherwise it returns nil.
func (d *Debugger) GetDataBreakpoint(addr uint16) *DataBreakpoint {
	return d.dataBreakpoints[addr]
}

// GetDataBreakpoints returns all data breakpoints, ordered by address.
func (d *Debugger) GetDataBreakpoints() []*DataBreakpoint {
	breakpoints := make([]*DataBreakpoint, 0, len(d.dataBreakpoints))
	for _, b := range d.dataBreakpoints {
		breakpoints = append(breakpoints, b)
	}
	slices.SortFunc(breakpoints, func(a, b *DataBreakpoint) int {
		return cmp.Compare(a.Address, b.Address)
	})
	return breakpoints
}

// AddDataBreakpoint adds an unconditional data breakpoint on the requested
// address.
func (d *Debugger) AddDataBreakpoint(addr uint16) *DataBreakpoint {
	b := &DataBreakpoint{Address: addr}
	d.dataBreakpoints[addr] = b
	return b
}

// AddConditionalDataBreakpoint adds a conditional data breakpoint on the
// requested address.
func (d *Debugger) AddConditionalDataBreakpoint(addr uint16, value byte) *DataBreakpoint {
	b := &DataBreakpoint{Address: addr, Conditional: true, Value: value}
	d.dataBreakpoints[addr] = b
	return b
}

// RemoveDataBreakpoint removes a (conditional or unconditional) data
// breakpoint at the requested address.
func (d *Debugger) RemoveDataBreakpoint(addr uint16) {
	delete(d.dataBreakpoints, addr)
}

func (d *Debugger) onUpdatePC(cpu *CPU, addr uint16) {
	if b, ok := d.breakpoints[addr]; ok && !b.Disabled {
		b.Hits++
		if d.handler != nil {
			d.handler.OnBreakpoint(cpu, b)
		}
	}
}

func (d *Debugger) onDataStore(cpu *CPU, addr uint16, v byte) {
	if b, ok := d.dataBreakpoints[addr]; ok && !b.Disabled {
		if (!b.Conditional || b.Value == v) && d.handler != nil {
			d.handler.OnDataBreakpoint(cpu, b)
		}
	}
}
