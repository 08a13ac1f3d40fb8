// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements an HD6301 cross-assembler.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/go6301/cpu"
)

var (
	errParse = errors.New("parse error")
)

var modeName = []string{
	"INH",
	"IMM",
	"DIR",
	"IDX",
	"EXT",
	"REL",
	"BDR",
	"BIX",
}

type pseudoOpData struct {
	fn    func(a *assembler, line, label fstring, param int) error
	param int
}

var pseudoOps = map[string]pseudoOpData{
	".org":   {fn: (*assembler).parseOrigin},
	"org":    {fn: (*assembler).parseOrigin},
	".equ":   {fn: (*assembler).parseEquate},
	"equ":    {fn: (*assembler).parseEquate},
	"=":      {fn: (*assembler).parseEquate},
	".byte":  {fn: (*assembler).parseData, param: 1},
	".db":    {fn: (*assembler).parseData, param: 1},
	"fcb":    {fn: (*assembler).parseData, param: 1},
	"fcc":    {fn: (*assembler).parseData, param: 1},
	".word":  {fn: (*assembler).parseData, param: 2},
	".dw":    {fn: (*assembler).parseData, param: 2},
	"fdb":    {fn: (*assembler).parseData, param: 2},
	".hex":   {fn: (*assembler).parseHexString},
	".align": {fn: (*assembler).parseAlign},
	".pad":   {fn: (*assembler).parsePadding},
	".ds":    {fn: (*assembler).parseReserve},
	"rmb":    {fn: (*assembler).parseReserve},
}

// Alternate mnemonics accepted by the assembler.
var aliases = map[string]string{
	"LSL":  "ASL",
	"LSLA": "ASLA",
	"LSLB": "ASLB",
	"LSLD": "ASLD",
	"BHS":  "BCC",
	"BLO":  "BCS",
}

// Byte used to fill gaps left by a forward .org.
const fillByte = 0xff

// A segment is a small chunk of machine code that may represent a single
// instruction or a group of byte data.
type segment interface {
	address() int
}

// An operand form is the syntactic shape of an instruction operand,
// before an addressing mode is chosen.
type operandForm byte

const (
	formNone    operandForm = iota // no operand
	formImm                        // #expr
	formAddr                       // expr, <expr, >expr
	formIndexed                    // expr,X or ,X
	formBitAddr                    // #mask,expr
	formBitIdx                     // #mask,expr,X
)

// An operand represents the parameter(s) of an assembly instruction.
type operand struct {
	form  operandForm
	force byte  // '<' forces direct, '>' forces extended
	expr  *expr // value, address or offset
	mask  *expr // immediate mask of a bit-manipulation instruction
}

// An instruction segment contains a single instruction, including its
// opcode and operand data.
type instruction struct {
	addr    int              // address assigned to the segment
	line    fstring          // the source line
	opcode  fstring          // opcode string
	inst    *cpu.Instruction // selected instruction data for the opcode
	operand operand          // parameter data for the instruction
}

func (i *instruction) address() int {
	return i.addr
}

// A data segment contains 1 or more expressions that are evaluated to
// produce binary data.
type data struct {
	addr  int     // address assigned to the segment
	unit  int     // unit size (1 or 2 bytes)
	exprs []*expr // all expressions in the data segment
}

func (d *data) address() int {
	return d.addr
}

func (d *data) bytes() int {
	n := 0
	for _, e := range d.exprs {
		if e.isString() && len(e.str) != 1 {
			n += len(e.str)
		} else {
			n += d.unit
		}
	}
	return n
}

// A bytes segment contains raw binary data.
type bytedata struct {
	addr int
	b    []byte
}

func (b *bytedata) address() int {
	return b.addr
}

// A space segment covers alignment, padding, reservation and forward
// origin changes: a run of identical bytes whose length is known only
// once the segment's address is known.
type space struct {
	addr    int
	line    fstring
	kind    string
	align   int   // alignment (".align" only)
	target  *expr // target address (".org" only)
	lenExpr *expr // length (".pad", ".ds")
	valExpr *expr // fill value (".pad")
	length  int
	value   byte
}

func (s *space) address() int {
	return s.addr
}

// An asmerror is used to keep track of errors encountered
// during assembly.
type asmerror struct {
	line fstring // line causing the error
	msg  string  // error message
}

// A constant defined with an equate.
type constant struct {
	expr      *expr
	resolving bool
}

// The assembler is a state object used during the assembly of
// machine code from assembly code.
type assembler struct {
	instSet     *cpu.InstructionSet // HD6301 instructions
	origin      int                 // requested origin
	originSet   bool                // origin has been set explicitly
	pc          int                 // the program counter during layout
	code        []byte              // generated machine code
	r           io.Reader           // the reader passed to Assemble
	scopeLabel  string              // label currently in scope
	constants   map[string]*constant
	labels      map[string]int // label -> segment index
	addrs       map[string]int // label -> resolved address
	sourceLines []SourceLine   // source code line mappings
	files       []string       // processed files
	segments    []segment      // segments of machine code
	out         io.Writer      // output used for verbose output
	verbose     bool           // verbose output
	errors      []asmerror     // errors encountered during assembly
}

// Assembly contains the assembled machine code and other data associated with
// the machine code.
type Assembly struct {
	Code   []byte   // Assembled machine code
	Origin uint16   // Address of the first byte of Code
	Errors []string // Errors encountered during assembly
}

// ReadFrom reads machine code from a binary input source.
func (a *Assembly) ReadFrom(r io.Reader) (n int64, err error) {
	a.Errors = []string{}
	a.Code, err = io.ReadAll(r)
	n = int64(len(a.Code))
	if n > 0x10000 {
		return n, fmt.Errorf("code exceeded 64K size")
	}
	return n, err
}

// WriteTo saves machine code as binary data into an output writer.
func (a *Assembly) WriteTo(w io.Writer) (n int64, err error) {
	nn, err := w.Write(a.Code)
	return int64(nn), err
}

// Option type used by the Assembly function.
type Option uint

// Options for the Assemble function.
const (
	Verbose Option = 1 << iota // verbose output during assembly
)

// AssembleFile reads a file containing HD6301 assembly code, assembles it,
// and produces a binary output file and a source map file.
func AssembleFile(path string, origin uint16, options Option, out io.Writer) error {
	inFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer inFile.Close()

	assembly, sourceMap, err := Assemble(inFile, path, origin, out, options)
	if err != nil {
		for _, e := range assembly.Errors {
			fmt.Fprintln(out, e)
		}
		return err
	}

	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]
	binPath := prefix + ".bin"
	if err := writeFile(binPath, assembly); err != nil {
		return err
	}

	mapPath := prefix + ".map"
	if err := writeFile(mapPath, sourceMap); err != nil {
		return err
	}

	fmt.Fprintf(out, "Assembled '%s' to produce '%s' and '%s'.\n",
		filepath.Base(path),
		filepath.Base(binPath),
		filepath.Base(mapPath))
	return nil
}

func writeFile(path string, w io.WriterTo) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = w.WriteTo(file)
	return err
}

// Assemble reads data from the provided stream and attempts to assemble it
// into HD6301 machine code. The origin is used unless the source sets its
// own with ".org".
func Assemble(r io.Reader, filename string, origin uint16, out io.Writer, options Option) (*Assembly, *SourceMap, error) {
	if out == nil {
		out = os.Stdout
	}

	a := &assembler{
		instSet:   cpu.GetInstructionSet(),
		origin:    int(origin),
		r:         r,
		constants: make(map[string]*constant),
		labels:    make(map[string]int),
		addrs:     make(map[string]int),
		files:     []string{filename},
		segments:  make([]segment, 0, 32),
		out:       out,
		verbose:   (options & Verbose) != 0,
	}

	// Assembly consists of the following steps
	steps := []func(a *assembler) error{
		(*assembler).parse,          // Parse the assembly code into segments
		(*assembler).assignAddresses, // Choose instructions and assign addresses
		(*assembler).generateCode,   // Evaluate expressions and emit machine code
	}

	// Execute assembler steps, breaking if an error is encountered
	// in any one of them.
	var err error
	for _, step := range steps {
		err = step(a)
		if err == nil && len(a.errors) > 0 {
			err = errParse
		}
		if err != nil {
			break
		}
	}

	errors := make([]string, 0, len(a.errors))
	for _, e := range a.errors {
		filename := a.files[e.line.fileIndex]
		s := fmt.Sprintf("Syntax error in '%s' line %d, col %d: %s", filename, e.line.row, e.line.column+1, e.msg)
		errors = append(errors, s)
	}

	assembly := &Assembly{
		Code:   a.code,
		Origin: uint16(a.origin),
		Errors: errors,
	}

	sourceMap := &SourceMap{
		Origin: uint16(a.origin),
		Size:   uint32(len(a.code)),
		CRC:    crc32.ChecksumIEEE(a.code),
		Files:  a.files,
		Lines:  a.sourceLines,
	}

	return assembly, sourceMap, err
}

// Read the assembly code and build up segments, the constants table and
// the label table.
func (a *assembler) parse() error {
	a.logSection("Parsing assembly code")

	scanner := bufio.NewScanner(a.r)
	for row := 1; scanner.Scan(); row++ {
		line := newFstring(0, row, scanner.Text())
		if err := a.parseLine(line.stripTrailingComment()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// Add an empty segment to the end of the file, so that labels attached
	// to the end of the file get an address.
	a.segments = append(a.segments, &bytedata{addr: -1})
	return nil
}

// Parse a single line of assembly code.
func (a *assembler) parseLine(line fstring) error {
	// Skip empty (or comment-only) lines
	if line.isEmpty() || line.startsWithChar('*') {
		return nil
	}

	var label fstring
	if !line.startsWith(whitespace) {
		var err error
		label, line, err = a.parseLabel(line)
		if err != nil {
			return err
		}
	}
	line = line.consumeWhitespace()

	// Is the next word a pseudo-op, rather than an opcode?
	word, remain := line.consumeWhile(wordChar)
	if op, ok := pseudoOps[strings.ToLower(word.str)]; ok {
		return op.fn(a, remain.consumeWhitespace(), label, op.param)
	}

	if !label.isEmpty() {
		if err := a.storeLabel(label); err != nil {
			return err
		}
	}
	if word.isEmpty() {
		return nil
	}
	return a.parseInstruction(word, remain.consumeWhitespace())
}

// Parse a label string at the beginning of a line of assembly code.
func (a *assembler) parseLabel(line fstring) (label fstring, remain fstring, err error) {
	if !line.startsWith(labelStartChar) {
		s, _ := line.consumeUntil(whitespace)
		a.addError(line, "invalid label '%s'", s.str)
		return fstring{}, line, errParse
	}

	label, line = line.consumeWhile(labelChar)

	// Skip colon after label.
	if line.startsWithChar(':') {
		line = line.consume(1)
	}

	if !line.isEmpty() && !line.startsWith(whitespace) {
		s, _ := line.consumeUntil(whitespace)
		a.addError(line, "invalid label '%s%s'", label.str, s.str)
		return fstring{}, line, errParse
	}
	return label, line, nil
}

// Qualify local labels (starting with '.' or '@') with the current scope.
// A global label opens a new scope.
func (a *assembler) qualify(label fstring) string {
	if label.startsWithChar('.') || label.startsWithChar('@') {
		return "~" + a.scopeLabel + label.str
	}
	a.scopeLabel = label.str
	return label.str
}

// Store a label into the assembler's label list.
func (a *assembler) storeLabel(label fstring) error {
	name := a.qualify(label)
	if a.defined(name) {
		a.addError(label, "label '%s' used more than once", label.str)
		return errParse
	}

	// Associate the label with its segment number.
	a.labels[name] = len(a.segments)
	a.logLine(label, "label=%s seg=%d", name, len(a.segments))
	return nil
}

func (a *assembler) defined(name string) bool {
	_, isLabel := a.labels[name]
	_, isConst := a.constants[name]
	return isLabel || isConst
}

// Parse an equate constant definition.
func (a *assembler) parseEquate(line, label fstring, param int) error {
	if label.isEmpty() {
		a.addError(line, "equate declaration must begin with a label")
		return errParse
	}

	name := a.qualify(label)
	if a.defined(name) {
		a.addError(label, "label '%s' used more than once", label.str)
		return errParse
	}

	e, err := a.parseExpr(line, 0)
	if err != nil {
		return err
	}

	a.logLine(line, "equate=%s expr=%s", name, e)
	a.constants[name] = &constant{expr: e}
	return nil
}

// Parse an origin directive. Before any code it sets the origin. After
// code it advances the program counter, filling the gap.
func (a *assembler) parseOrigin(line, label fstring, param int) error {
	e, err := a.parseExpr(line, 0)
	if err != nil {
		return err
	}

	if !a.hasCode() && !a.originSet {
		v, everr := e.eval(a.lookup, -1)
		if everr != nil {
			a.addError(line, "unable to evaluate origin")
			return errParse
		}
		a.origin, a.originSet = v, true
		a.logLine(line, "origin=$%04X", v)
	} else {
		a.segments = append(a.segments, &space{addr: -1, line: line, kind: ".org", target: e, value: fillByte})
	}

	if !label.isEmpty() {
		return a.storeLabel(label)
	}
	return nil
}

func (a *assembler) hasCode() bool {
	return len(a.segments) > 0
}

// Parse a data pseudo-op.
func (a *assembler) parseData(line, label fstring, unit int) error {
	if !label.isEmpty() {
		if err := a.storeLabel(label); err != nil {
			return err
		}
	}

	seg := &data{addr: -1, unit: unit}
	for remain := line; !remain.isEmpty(); {
		var item fstring
		item, remain = remain.consumeUntilUnquotedChar(',')
		if !remain.isEmpty() {
			remain = remain.consume(1).consumeWhitespace()
		}

		e, err := a.parseExpr(item, allowStrings)
		if err != nil {
			return err
		}
		seg.exprs = append(seg.exprs, e)
	}

	if len(seg.exprs) == 0 {
		a.addError(line, "missing data")
		return errParse
	}

	a.segments = append(a.segments, seg)
	return nil
}

// Parse a hex-string pseudo-op.
func (a *assembler) parseHexString(line, label fstring, param int) error {
	s, remain := line.consumeWhile(hexadecimal)
	if !remain.isEmpty() {
		a.addError(remain, "invalid hex string")
		return errParse
	}
	if len(s.str)%2 != 0 {
		a.addError(s, "hex-string has odd number of characters")
		return errParse
	}

	if !label.isEmpty() {
		if err := a.storeLabel(label); err != nil {
			return err
		}
	}

	seg := &bytedata{addr: -1}
	for i := 0; i < len(s.str); i += 2 {
		seg.b = append(seg.b, hexToByte(s.str[i:]))
	}
	a.segments = append(a.segments, seg)
	return nil
}

// Parse an align pseudo-op.
func (a *assembler) parseAlign(line, label fstring, param int) error {
	e, err := a.parseExpr(line, 0)
	if err != nil {
		return err
	}
	v, everr := e.eval(a.lookup, -1)
	if everr != nil || v <= 0 || (v&(v-1)) != 0 || v > 0x100 {
		a.addError(line, "alignment must be a power of 2")
		return errParse
	}

	a.segments = append(a.segments, &space{addr: -1, line: line, kind: ".align", align: v, value: fillByte})
	if !label.isEmpty() {
		return a.storeLabel(label)
	}
	return nil
}

// Parse a padding pseudo-op: ".pad value, length".
func (a *assembler) parsePadding(line, label fstring, param int) error {
	valStr, remain := line.consumeUntilUnquotedChar(',')
	if remain.isEmpty() {
		a.addError(line, "invalid padding")
		return errParse
	}

	valExpr, err := a.parseExpr(valStr, 0)
	if err != nil {
		return err
	}
	lenExpr, err := a.parseExpr(remain.consume(1), 0)
	if err != nil {
		return err
	}

	if !label.isEmpty() {
		if err := a.storeLabel(label); err != nil {
			return err
		}
	}
	a.segments = append(a.segments, &space{addr: -1, line: line, kind: ".pad", valExpr: valExpr, lenExpr: lenExpr})
	return nil
}

// Parse a reserve pseudo-op: ".ds length". Reserved bytes are zero.
func (a *assembler) parseReserve(line, label fstring, param int) error {
	lenExpr, err := a.parseExpr(line, 0)
	if err != nil {
		return err
	}

	if !label.isEmpty() {
		if err := a.storeLabel(label); err != nil {
			return err
		}
	}
	a.segments = append(a.segments, &space{addr: -1, line: line, kind: ".ds", lenExpr: lenExpr})
	return nil
}

// Parse an HD6301 assembly opcode + operand.
func (a *assembler) parseInstruction(opcode, remain fstring) error {
	name := strings.ToUpper(opcode.str)
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	// Validate the opcode
	if a.instSet.GetInstructions(name) == nil {
		a.addError(opcode, "invalid opcode '%s'", opcode.str)
		return errParse
	}
	opcode.str = name

	operand, err := a.parseOperand(remain)
	if err != nil {
		return err
	}

	a.logLine(remain, "op=%s form=%d", name, operand.form)
	a.segments = append(a.segments, &instruction{
		addr:    -1,
		line:    opcode,
		opcode:  opcode,
		operand: operand,
	})
	return nil
}

// Parse the operand following an opcode and determine its syntactic form.
func (a *assembler) parseOperand(line fstring) (o operand, err error) {
	if line.isEmpty() {
		return operand{form: formNone}, nil
	}

	// Split on top-level commas.
	var parts []fstring
	for remain := line; ; {
		var part fstring
		part, remain = remain.consumeUntilUnquotedChar(',')
		parts = append(parts, trimRight(part))
		if remain.isEmpty() {
			break
		}
		remain = remain.consume(1).consumeWhitespace()
	}

	isX := func(f fstring) bool { return strings.EqualFold(f.str, "X") }

	switch {
	case len(parts) == 1 && parts[0].startsWithChar('#'):
		o.form = formImm
		o.expr, err = a.parseExpr(parts[0].consume(1), 0)

	case len(parts) == 1:
		o.form = formAddr
		o.expr, o.force, err = a.parseAddress(parts[0])

	case len(parts) == 2 && isX(parts[1]):
		o.form = formIndexed
		o.expr, err = a.parseOffset(parts[0])

	case len(parts) == 2 && parts[0].startsWithChar('#'):
		o.form = formBitAddr
		if o.mask, err = a.parseExpr(parts[0].consume(1), 0); err == nil {
			o.expr, o.force, err = a.parseAddress(parts[1])
		}

	case len(parts) == 3 && parts[0].startsWithChar('#') && isX(parts[2]):
		o.form = formBitIdx
		if o.mask, err = a.parseExpr(parts[0].consume(1), 0); err == nil {
			o.expr, err = a.parseOffset(parts[1])
		}

	default:
		a.addError(line, "unknown addressing mode format")
		err = errParse
	}
	return o, err
}

// Parse an address operand with an optional '<' (direct) or '>'
// (extended) prefix.
func (a *assembler) parseAddress(f fstring) (e *expr, force byte, err error) {
	if f.startsWithChar('<') || f.startsWithChar('>') {
		force = f.str[0]
		f = f.consume(1)
	}
	e, err = a.parseExpr(f, 0)
	return e, force, err
}

// Parse an index offset. An empty offset (",X") means zero.
func (a *assembler) parseOffset(f fstring) (*expr, error) {
	if f.isEmpty() {
		return &expr{op: opNumber, line: f}, nil
	}
	return a.parseExpr(f, 0)
}

func (a *assembler) parseExpr(f fstring, flags parseFlags) (*expr, error) {
	e, aerr := parseExpr(f, a.scopeLabel, flags)
	if aerr != nil {
		a.addError(aerr.line, "%s", aerr.msg)
		return nil, errParse
	}
	return e, nil
}

func trimRight(f fstring) fstring {
	n := len(f.str)
	for n > 0 && whitespace(f.str[n-1]) {
		n--
	}
	return f.trunc(n)
}

// Resolve a symbol to a value. Labels resolve once their segment has an
// address; constants resolve when their expressions do.
func (a *assembler) lookup(name string) (int, error) {
	if v, ok := a.addrs[name]; ok {
		return v, nil
	}
	c, ok := a.constants[name]
	if !ok || c.resolving {
		return 0, errUnresolved
	}
	c.resolving = true
	v, err := c.expr.eval(a.lookup, -1)
	c.resolving = false
	return v, err
}

// Assign addresses to labels at segment index 'segno'.
func (a *assembler) bindLabels(segno, addr int) {
	for label, n := range a.labels {
		if n == segno {
			a.addrs[label] = addr
			a.log("%-15s Seg:%-3d Addr:$%04X", label, segno, addr)
		}
	}
}

// Choose an instruction for every instruction segment and determine the
// address of every segment.
func (a *assembler) assignAddresses() error {
	a.logSection("Assigning addresses")
	a.pc = a.origin
	for segno, s := range a.segments {
		a.bindLabels(segno, a.pc)

		switch ss := s.(type) {
		case *instruction:
			ss.addr = a.pc
			ss.inst = a.findMatchingInstruction(ss)
			if ss.inst == nil {
				a.addError(ss.opcode, "invalid addressing mode for opcode '%s'", ss.opcode.str)
				return errParse
			}

			a.sourceLines = append(a.sourceLines, SourceLine{
				Address:   ss.addr,
				FileIndex: ss.line.fileIndex,
				Line:      ss.line.row,
			})

			a.log("%04X  %s Len:%d Mode:%s Opcode:%02X",
				ss.addr, ss.opcode.str, ss.inst.Length,
				modeName[ss.inst.Mode], ss.inst.Opcode)
			a.pc += int(ss.inst.Length)

		case *data:
			ss.addr = a.pc
			a.log("%04X  .DB Len:%d", ss.addr, ss.bytes())
			a.pc += ss.bytes()

		case *bytedata:
			ss.addr = a.pc
			a.pc += len(ss.b)

		case *space:
			ss.addr = a.pc
			if err := a.sizeSpace(ss); err != nil {
				return err
			}
			a.log("%04X  %s Len:%d", ss.addr, strings.ToUpper(ss.kind), ss.length)
			a.pc += ss.length
		}

		if a.pc > 0x10000 {
			a.addError(segmentLine(s), "code exceeds the 64K address space")
			return errParse
		}
	}
	return nil
}

func segmentLine(s segment) fstring {
	switch ss := s.(type) {
	case *instruction:
		return ss.line
	case *space:
		return ss.line
	}
	return fstring{}
}

// Compute the length of a space segment now that its address is known.
func (a *assembler) sizeSpace(s *space) error {
	switch s.kind {
	case ".align":
		s.length = s.align*((a.pc+s.align-1)/s.align) - a.pc

	case ".org":
		target, err := s.target.eval(a.lookup, a.pc)
		if err != nil {
			a.addError(s.line, "unable to evaluate origin")
			return errParse
		}
		if target < a.pc {
			a.addError(s.line, "origin $%04X is behind the current address $%04X", target, a.pc)
			return errParse
		}
		s.length = target - a.pc

	default:
		n, err := s.lenExpr.eval(a.lookup, a.pc)
		if err != nil {
			a.addError(s.line, "%s length could not be evaluated", s.kind)
			return errParse
		}
		s.length = max(0, n)
		if s.valExpr != nil {
			v, err := s.valExpr.eval(a.lookup, a.pc)
			if err != nil {
				a.addError(s.line, "%s value could not be evaluated", s.kind)
				return errParse
			}
			s.value = byte(v)
		}
	}
	return nil
}

// Given an instruction segment, select the HD6301 instruction that matches
// its operand form. Address operands use direct addressing when the value
// is already known to fit in the direct page, extended otherwise.
func (a *assembler) findMatchingInstruction(ins *instruction) *cpu.Instruction {
	variants := a.instSet.GetInstructions(ins.opcode.str)
	find := func(mode cpu.Mode) *cpu.Instruction {
		for _, inst := range variants {
			if inst.Mode == mode {
				return inst
			}
		}
		return nil
	}

	o := ins.operand
	switch o.form {
	case formNone:
		return find(cpu.INH)
	case formImm:
		return find(cpu.IMM)
	case formIndexed:
		return find(cpu.IDX)
	case formBitAddr:
		return find(cpu.BDR)
	case formBitIdx:
		return find(cpu.BIX)
	}

	if inst := find(cpu.REL); inst != nil {
		return inst
	}

	direct := find(cpu.DIR)
	extended := find(cpu.EXT)
	switch o.force {
	case '<':
		return direct
	case '>':
		return extended
	}

	if direct != nil {
		v, err := o.expr.eval(a.lookup, ins.addr)
		if (err == nil && v >= 0 && v <= 0xff) || extended == nil {
			return direct
		}
	}
	return extended
}

// Generate machine code.
func (a *assembler) generateCode() error {
	a.logSection("Generating code")
	for _, s := range a.segments {
		start := len(a.code)

		switch ss := s.(type) {
		case *instruction:
			a.code = append(a.code, a.encode(ss)...)
			a.log("%04X-   %-11s %-5s %s", ss.addr, byteString(a.code[start:]), ss.opcode.str, ss.operand.source())

		case *data:
			for _, e := range ss.exprs {
				if e.isString() && len(e.str) != 1 {
					a.code = append(a.code, e.str...)
					continue
				}
				v := a.value(e, ss.addr)
				if ss.unit == 1 && (v < -128 || v > 0xff) {
					a.addError(e.line, "byte value $%X out of range", v)
				}
				a.code = append(a.code, toBytes(ss.unit, v)...)
			}
			a.logBytes(ss.addr, a.code[start:])

		case *bytedata:
			a.code = append(a.code, ss.b...)
			a.logBytes(ss.addr, ss.b)

		case *space:
			for i := 0; i < ss.length; i++ {
				a.code = append(a.code, ss.value)
			}
		}
	}
	return nil
}

// Evaluate an expression during code generation, reporting failures.
func (a *assembler) value(e *expr, here int) int {
	v, err := e.eval(a.lookup, here)
	switch {
	case err == errUnresolved:
		a.addError(e.line, "unresolved expression '%s'", e)
	case err != nil:
		a.addError(e.line, "%v", err)
	}
	return v
}

// Encode an instruction segment into machine code.
func (a *assembler) encode(ins *instruction) []byte {
	inst, o := ins.inst, ins.operand
	code := []byte{inst.Opcode}

	switch inst.Mode {
	case cpu.INH:
		return code

	case cpu.IMM:
		v := a.value(o.expr, ins.addr)
		if inst.Length == 3 {
			return append(code, toBytes(2, v)...)
		}
		if v < -128 || v > 0xff {
			a.addError(o.expr.line, "immediate value $%X out of range", v)
		}
		return append(code, byte(v))

	case cpu.REL:
		target := a.value(o.expr, ins.addr)
		offset, err := relOffset(target, ins.addr+int(inst.Length))
		if err != nil {
			a.addError(o.expr.line, "branch offset out of bounds")
		}
		return append(code, offset)

	case cpu.EXT:
		return append(code, toBytes(2, a.value(o.expr, ins.addr))...)

	case cpu.DIR, cpu.IDX:
		return append(code, a.byteOperand(o.expr, ins.addr, inst.Mode))

	case cpu.BDR, cpu.BIX:
		mask := a.value(o.mask, ins.addr)
		if mask < -128 || mask > 0xff {
			a.addError(o.mask.line, "immediate value $%X out of range", mask)
		}
		return append(code, byte(mask), a.byteOperand(o.expr, ins.addr, inst.Mode))
	}
	panic("invalid addressing mode")
}

// Encode a direct-page address or index offset.
func (a *assembler) byteOperand(e *expr, here int, mode cpu.Mode) byte {
	v := a.value(e, here)
	if v < 0 || v > 0xff {
		switch mode {
		case cpu.IDX, cpu.BIX:
			a.addError(e.line, "index offset $%X out of range", v)
		default:
			a.addError(e.line, "direct address $%X out of range", v)
		}
	}
	return byte(v)
}

// Return the operand as it would appear in source form.
func (o *operand) source() string {
	switch o.form {
	case formImm:
		return "#" + o.expr.line.str
	case formAddr:
		return o.expr.line.str
	case formIndexed:
		return o.expr.line.str + ",X"
	case formBitAddr:
		return "#" + o.mask.line.str + "," + o.expr.line.str
	case formBitIdx:
		return "#" + o.mask.line.str + "," + o.expr.line.str + ",X"
	}
	return ""
}

// Append an error message to the assembler's error state.
func (a *assembler) addError(l fstring, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.errors = append(a.errors, asmerror{l, msg})
	if a.verbose {
		filename := a.files[l.fileIndex]
		fmt.Fprintf(a.out, "Syntax error in '%s' line %d, col %d: %s\n", filename, l.row, l.column+1, msg)
		fmt.Fprintln(a.out, l.full)
		fmt.Fprintln(a.out, strings.Repeat("-", l.column)+"^")
	}
}

// In verbose mode, log a string to the output.
func (a *assembler) log(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(a.out, format+"\n", args...)
	}
}

// In verbose mode, log a string and its associated line
// of assembly code.
func (a *assembler) logLine(line fstring, format string, args ...any) {
	if a.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(a.out, "%-3d %-3d | %-28s | %s\n", line.row, line.column+1, detail, line.full)
	}
}

// In verbose mode, log a series of bytes with starting address.
func (a *assembler) logBytes(addr int, b []byte) {
	for i := 0; i < len(b); i += 4 {
		a.log("%04X-*  %s", addr+i, byteString(b[i:min(i+4, len(b))]))
	}
}

// In verbose mode, log a section header to the output.
func (a *assembler) logSection(name string) {
	if a.verbose {
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.out, "-- %s --\n", name)
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
	}
}

// Compute the relative offset of two addresses as a
// two's-complement byte value. If the offset can't
// fit into a byte, return an error.
func relOffset(target, next int) (byte, error) {
	diff := target - next
	if diff < -128 || diff > 127 {
		return 0, errParse
	}
	return byte(diff), nil
}
