// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"strings"

	"github.com/beevik/cmd"
)

// A command is the data attached to every entry in the command tree.
type command struct {
	name        string // full name, including the subtree
	brief       string
	description string
	usage       string
	fn          func(h *Host, c cmd.Selection) error
}

var (
	cmds     *cmd.Tree
	commands []*command
)

func addCommand(t *cmd.Tree, c *command) {
	commands = append(commands, c)
	t.AddCommand(cmd.CommandDescriptor{
		Name:        c.name[strings.LastIndexByte(c.name, ' ')+1:],
		Brief:       c.brief,
		Description: c.description,
		Usage:       c.usage,
		Data:        c,
	})
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "go6301"})
	addCommand(root, &command{
		name:        "help",
		description: "Display help for a command.",
		usage:       "help [<command>]",
		fn:          (*Host).cmdHelp,
	})
	addCommand(root, &command{
		name:  "annotate",
		brief: "Annotate an address",
		description: "Provide a code annotation at a memory address." +
			" When disassembling code at this address, the annotation will" +
			" be displayed.",
		usage: "annotate <address> <string>",
		fn:    (*Host).cmdAnnotate,
	})
	addCommand(root, &command{
		name:  "assemble",
		brief: "Assemble a firmware source file",
		description: "Run the cross-assembler on the specified file," +
			" producing a binary file and source map file if successful." +
			" Code is placed in ROM at $F000 unless the source sets its own" +
			" origin.",
		usage: "assemble <filename>",
		fn:    (*Host).cmdAssemble,
	})

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	addCommand(bp, &command{
		name:        "breakpoint list",
		brief:       "List breakpoints",
		description: "List all current breakpoints.",
		usage:       "breakpoint list",
		fn:          (*Host).cmdBreakpointList,
	})
	addCommand(bp, &command{
		name:  "breakpoint add",
		brief: "Add a breakpoint",
		description: "Add a breakpoint at the specified address. The" +
			" breakpoint also triggers when an interrupt vectors to it.",
		usage: "breakpoint add <address>",
		fn:    (*Host).cmdBreakpointAdd,
	})
	addCommand(bp, &command{
		name:        "breakpoint remove",
		brief:       "Remove a breakpoint",
		description: "Remove a breakpoint at the specified address.",
		usage:       "breakpoint remove <address>",
		fn:          (*Host).cmdBreakpointRemove,
	})
	addCommand(bp, &command{
		name:        "breakpoint enable",
		brief:       "Enable a breakpoint",
		description: "Enable a previously added breakpoint.",
		usage:       "breakpoint enable <address>",
		fn:          (*Host).cmdBreakpointEnable,
	})
	addCommand(bp, &command{
		name:        "breakpoint disable",
		brief:       "Disable a breakpoint",
		description: "Disable a previously added breakpoint.",
		usage:       "breakpoint disable <address>",
		fn:          (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	db := root.AddSubtree(cmd.TreeDescriptor{Name: "databreakpoint", Brief: "Data breakpoint commands"})
	addCommand(db, &command{
		name:        "databreakpoint list",
		brief:       "List data breakpoints",
		description: "List all current data breakpoints.",
		usage:       "databreakpoint list",
		fn:          (*Host).cmdDataBreakpointList,
	})
	addCommand(db, &command{
		name:  "databreakpoint add",
		brief: "Add a data breakpoint",
		description: "Add a new data breakpoint at the specified memory" +
			" address. When the CPU stores data at this address, the" +
			" breakpoint will stop the CPU. Optionally, a byte value may be" +
			" specified, and the CPU will stop only when this value is" +
			" stored. Peripheral registers may be watched too.",
		usage: "databreakpoint add <address> [<value>]",
		fn:    (*Host).cmdDataBreakpointAdd,
	})
	addCommand(db, &command{
		name:        "databreakpoint remove",
		brief:       "Remove a data breakpoint",
		description: "Remove a data breakpoint at the specified address.",
		usage:       "databreakpoint remove <address>",
		fn:          (*Host).cmdDataBreakpointRemove,
	})

	addCommand(root, &command{
		name:  "disassemble",
		brief: "Disassemble code",
		description: "Disassemble machine code starting at the requested" +
			" address. The number of instructions to disassemble may be" +
			" specified as an option. Use '.' for the program counter and" +
			" '$' to continue the last disassembly.",
		usage: "disassemble [<address>] [<count>]",
		fn:    (*Host).cmdDisassemble,
	})
	addCommand(root, &command{
		name:        "evaluate",
		brief:       "Evaluate an expression",
		description: "Evaluate a mathematical expression. Register names may be used as values.",
		usage:       "evaluate <expression>",
		fn:          (*Host).cmdEval,
	})

	// Key matrix commands
	key := root.AddSubtree(cmd.TreeDescriptor{Name: "key", Brief: "Key matrix commands"})
	addCommand(key, &command{
		name:        "key press",
		brief:       "Press a key",
		description: "Hold down the key at a matrix position. Positions equal Atari ST scan codes.",
		usage:       "key press <code>",
		fn:          (*Host).cmdKeyPress,
	})
	addCommand(key, &command{
		name:        "key release",
		brief:       "Release a key",
		description: "Let up the key at a matrix position, or every key if none is given.",
		usage:       "key release [<code>]",
		fn:          (*Host).cmdKeyRelease,
	})

	addCommand(root, &command{
		name:  "load",
		brief: "Load a firmware image",
		description: "Load a 4096 byte ROM image and cold reset the" +
			" controller with it. Breakpoints are kept. If the image has an" +
			" associated source map, it is loaded too.",
		usage: "load <filename>",
		fn:    (*Host).cmdLoad,
	})

	// Memory commands
	mem := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	addCommand(mem, &command{
		name:  "memory dump",
		brief: "Dump memory at address",
		description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. Reading this way does not disturb" +
			" peripheral status flags.",
		usage: "memory dump <address> [<bytes>]",
		fn:    (*Host).cmdMemoryDump,
	})
	addCommand(mem, &command{
		name:  "memory set",
		brief: "Store bytes in memory",
		description: "Store one or more bytes starting at an address." +
			" Stores to peripheral registers have their usual effects.",
		usage: "memory set <address> <byte> [<byte> ...]",
		fn:    (*Host).cmdMemorySet,
	})

	addCommand(root, &command{
		name:        "quit",
		brief:       "Quit the program",
		description: "Quit the program.",
		usage:       "quit",
		fn:          (*Host).cmdQuit,
	})
	addCommand(root, &command{
		name:  "registers",
		brief: "Display register contents",
		description: "Display the current contents of all CPU registers, and" +
			" disassemble the instruction at the current program counter address.",
		usage: "registers",
		fn:    (*Host).cmdRegisters,
	})
	addCommand(root, &command{
		name:  "reset",
		brief: "Reset the controller",
		description: "Reset the controller. A cold reset clears RAM; a warm" +
			" reset keeps it. The default is cold.",
		usage: "reset [cold|warm]",
		fn:    (*Host).cmdReset,
	})
	addCommand(root, &command{
		name:  "run",
		brief: "Run the controller",
		description: "Run the controller in batches until a breakpoint is" +
			" hit, the user types Ctrl-C, or the optional number of cycles" +
			" has elapsed. Serial output is displayed as it arrives.",
		usage: "run [<cycles>]",
		fn:    (*Host).cmdRun,
	})

	// Serial commands
	ser := root.AddSubtree(cmd.TreeDescriptor{Name: "serial", Brief: "Serial line commands"})
	addCommand(ser, &command{
		name:  "serial send",
		brief: "Send bytes to the controller",
		description: "Queue bytes for the SCI receiver as though the host" +
			" computer had sent them. They are delivered at batch boundaries.",
		usage: "serial send <byte> [<byte> ...]",
		fn:    (*Host).cmdSerialSend,
	})
	addCommand(ser, &command{
		name:        "serial status",
		brief:       "Display scheduler and SCI status",
		description: "Display queue depths, saturation counters and the SCI registers.",
		usage:       "serial status",
		fn:          (*Host).cmdSerialStatus,
	})

	addCommand(root, &command{
		name:  "set",
		brief: "Set a configuration variable",
		description: "Set the value of a configuration variable or a CPU" +
			" register. Type the set command without a variable name or" +
			" value to display the current values of all configuration" +
			" variables.",
		usage: "set <var> <value>",
		fn:    (*Host).cmdSet,
	})

	// Step commands
	step := root.AddSubtree(cmd.TreeDescriptor{Name: "step", Brief: "Step the debugger"})
	addCommand(step, &command{
		name:  "step in",
		brief: "Step into next instruction",
		description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step into the subroutine." +
			" The number of steps may be specified as an option.",
		usage: "step in [<count>]",
		fn:    (*Host).cmdStepIn,
	})
	addCommand(step, &command{
		name:  "step over",
		brief: "Step over next instruction",
		description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step over the subroutine." +
			" The number of steps may be specified as an option.",
		usage: "step over [<count>]",
		fn:    (*Host).cmdStepOver,
	})
	addCommand(step, &command{
		name:  "step out",
		brief: "Step out of the current subroutine",
		description: "Step the CPU until it executes an RTS or RTI" +
			" instruction. This has the effect of stepping until the" +
			" currently running subroutine or interrupt handler has returned.",
		usage: "step out",
		fn:    (*Host).cmdStepOut,
	})

	// Shortcuts
	root.AddShortcut("a", "assemble")
	root.AddShortcut("b", "breakpoint")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("db", "databreakpoint")
	root.AddShortcut("dbl", "databreakpoint list")
	root.AddShortcut("dba", "databreakpoint add")
	root.AddShortcut("dbr", "databreakpoint remove")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("e", "evaluate")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "registers")
	root.AddShortcut("s", "step over")
	root.AddShortcut("si", "step in")
	root.AddShortcut("so", "step out")
	root.AddShortcut("?", "help")

	cmds = root
}
