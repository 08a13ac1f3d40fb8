// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	errUnresolved   = errors.New("unresolved symbol")
	errDivideByZero = errors.New("division by zero")
)

type exprOp byte

const (
	// values
	opNumber exprOp = iota
	opString
	opIdentifier
	opHere

	// unary operations
	opNegate
	opComplement
	opLowByte
	opHighByte

	// binary operations
	opMultiply
	opDivide
	opModulo
	opAdd
	opSubtract
	opShiftLeft
	opShiftRight
	opBitwiseAND
	opBitwiseXOR
	opBitwiseOR
)

type binaryOp struct {
	symbol     string
	op         exprOp
	precedence int
}

// Two-character symbols must precede their one-character prefixes.
var binaryOps = []binaryOp{
	{"<<", opShiftLeft, 4},
	{">>", opShiftRight, 4},
	{"*", opMultiply, 6},
	{"/", opDivide, 6},
	{"%", opModulo, 6},
	{"+", opAdd, 5},
	{"-", opSubtract, 5},
	{"&", opBitwiseAND, 3},
	{"^", opBitwiseXOR, 2},
	{"|", opBitwiseOR, 1},
}

var unarySymbols = map[byte]exprOp{
	'-': opNegate,
	'~': opComplement,
	'<': opLowByte,
	'>': opHighByte,
}

var opSymbols = map[exprOp]string{
	opNegate:     "neg",
	opComplement: "~",
	opLowByte:    "<",
	opHighByte:   ">",
	opMultiply:   "*",
	opDivide:     "/",
	opModulo:     "%",
	opAdd:        "+",
	opSubtract:   "-",
	opShiftLeft:  "<<",
	opShiftRight: ">>",
	opBitwiseAND: "&",
	opBitwiseXOR: "^",
	opBitwiseOR:  "|",
}

// An expr represents a single node in an expression tree. The root node
// represents an entire expression.
type expr struct {
	op     exprOp
	value  int     // number value
	str    string  // identifier name or string literal
	line   fstring // source position, for error reporting
	child0 *expr
	child1 *expr
}

// Return the expression in postfix notation.
func (e *expr) String() string {
	switch e.op {
	case opNumber:
		return fmt.Sprintf("$%X", e.value)
	case opString:
		return strconv.Quote(e.str)
	case opIdentifier:
		return e.str
	case opHere:
		return "*"
	case opNegate, opComplement, opLowByte, opHighByte:
		return fmt.Sprintf("%s %s", e.child0, opSymbols[e.op])
	default:
		return fmt.Sprintf("%s %s %s", e.child0, e.child1, opSymbols[e.op])
	}
}

// isString returns true if the expression is a string literal.
func (e *expr) isString() bool {
	return e.op == opString
}

// A symbolLookup resolves an identifier to a value. It returns
// errUnresolved if the identifier is not (yet) known.
type symbolLookup func(name string) (int, error)

// Evaluate the expression tree. The 'here' address is the address of the
// segment containing the expression, or -1 if it is not yet known.
func (e *expr) eval(lookup symbolLookup, here int) (int, error) {
	switch e.op {
	case opNumber:
		return e.value, nil
	case opString:
		if len(e.str) == 1 {
			return int(e.str[0]), nil
		}
		return 0, fmt.Errorf("string used as a number")
	case opIdentifier:
		return lookup(e.str)
	case opHere:
		if here < 0 {
			return 0, errUnresolved
		}
		return here, nil
	}

	a, err := e.child0.eval(lookup, here)
	if err != nil {
		return 0, err
	}

	switch e.op {
	case opNegate:
		return -a, nil
	case opComplement:
		return ^a & 0xffff, nil
	case opLowByte:
		return a & 0xff, nil
	case opHighByte:
		return (a >> 8) & 0xff, nil
	}

	b, err := e.child1.eval(lookup, here)
	if err != nil {
		return 0, err
	}

	switch e.op {
	case opMultiply:
		return a * b, nil
	case opDivide:
		if b == 0 {
			return 0, errDivideByZero
		}
		return a / b, nil
	case opModulo:
		if b == 0 {
			return 0, errDivideByZero
		}
		return a % b, nil
	case opAdd:
		return a + b, nil
	case opSubtract:
		return a - b, nil
	case opShiftLeft:
		return a << uint(b&31), nil
	case opShiftRight:
		return a >> uint(b&31), nil
	case opBitwiseAND:
		return a & b, nil
	case opBitwiseXOR:
		return a ^ b, nil
	case opBitwiseOR:
		return a | b, nil
	}
	panic("invalid expression operator")
}

type parseFlags byte

const (
	allowStrings parseFlags = 1 << iota
)

// An exprParser builds expression trees using precedence climbing.
type exprParser struct {
	line  fstring
	scope string
	flags parseFlags
	err   *asmerror
}

// Parse an entire string as an expression. Local labels (those starting
// with '.' or '@') are qualified with the scope label.
func parseExpr(line fstring, scope string, flags parseFlags) (*expr, *asmerror) {
	p := &exprParser{line: line, scope: scope, flags: flags}
	p.skipWhitespace()
	if p.line.isEmpty() {
		return nil, &asmerror{line, "missing expression"}
	}

	e := p.parseBinary(1)
	if p.err != nil {
		return nil, p.err
	}

	p.skipWhitespace()
	if !p.line.isEmpty() {
		return nil, &asmerror{p.line, fmt.Sprintf("unexpected '%s' in expression", p.line.str)}
	}
	if e.isString() && len(e.str) != 1 && (flags&allowStrings) == 0 {
		return nil, &asmerror{line, "string not allowed here"}
	}
	return e, nil
}

func (p *exprParser) fail(msg string) *expr {
	if p.err == nil {
		p.err = &asmerror{p.line, msg}
	}
	return &expr{op: opNumber}
}

func (p *exprParser) skipWhitespace() {
	p.line = p.line.consumeWhitespace()
}

func (p *exprParser) parseBinary(minPrecedence int) *expr {
	lhs := p.parseUnary()
	for p.err == nil {
		p.skipWhitespace()
		bop := p.peekBinary()
		if bop == nil || bop.precedence < minPrecedence {
			break
		}
		at := p.line
		p.line = p.line.consume(len(bop.symbol))
		rhs := p.parseBinary(bop.precedence + 1)
		lhs = &expr{op: bop.op, line: at, child0: lhs, child1: rhs}
	}
	return lhs
}

func (p *exprParser) peekBinary() *binaryOp {
	for i := range binaryOps {
		if p.line.startsWithString(binaryOps[i].symbol) {
			return &binaryOps[i]
		}
	}
	return nil
}

func (p *exprParser) parseUnary() *expr {
	p.skipWhitespace()
	if p.line.isEmpty() {
		return p.fail("incomplete expression")
	}

	c := p.line.str[0]
	if c == '+' {
		p.line = p.line.consume(1)
		return p.parseUnary()
	}
	if op, ok := unarySymbols[c]; ok {
		at := p.line
		p.line = p.line.consume(1)
		return &expr{op: op, line: at, child0: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() *expr {
	at := p.line
	c := p.line.str[0]

	switch {
	case c == '(':
		p.line = p.line.consume(1)
		e := p.parseBinary(1)
		p.skipWhitespace()
		if !p.line.startsWithChar(')') {
			return p.fail("missing ')'")
		}
		p.line = p.line.consume(1)
		return e

	case c == '*':
		p.line = p.line.consume(1)
		return &expr{op: opHere, line: at}

	case stringQuote(c):
		return p.parseString()

	case c == '$' || c == '%' || decimal(c):
		return p.parseNumber()

	case labelStartChar(c):
		var id fstring
		id, p.line = p.line.consumeWhile(labelChar)
		name := id.str
		if name[0] == '.' || name[0] == '@' {
			name = "~" + p.scope + name
		}
		return &expr{op: opIdentifier, str: name, line: at}
	}

	return p.fail(fmt.Sprintf("unexpected '%c' in expression", c))
}

func (p *exprParser) parseString() *expr {
	at := p.line
	q := p.line.str[0]
	s, remain := p.line.consume(1).consumeUntil(func(c byte) bool { return c == q })
	if remain.isEmpty() {
		return p.fail("unterminated string")
	}
	p.line = remain.consume(1)
	return &expr{op: opString, str: s.str, line: at}
}

func (p *exprParser) parseNumber() *expr {
	at := p.line
	base, digits := 10, decimal

	switch {
	case p.line.startsWithChar('$'):
		base, digits = 16, hexadecimal
		p.line = p.line.consume(1)
	case p.line.startsWithChar('%'):
		base, digits = 2, binarynum
		p.line = p.line.consume(1)
	case p.line.startsWithString("0x"):
		base, digits = 16, hexadecimal
		p.line = p.line.consume(2)
	case p.line.startsWithString("0b") && len(p.line.str) > 2 && binarynum(p.line.str[2]):
		base, digits = 2, binarynum
		p.line = p.line.consume(2)
	}

	var num fstring
	num, p.line = p.line.consumeWhile(digits)
	if num.isEmpty() {
		return p.fail("invalid number")
	}
	if p.line.startsWith(labelChar) {
		return p.fail(fmt.Sprintf("invalid digit '%c' in number", p.line.str[0]))
	}

	v, err := strconv.ParseInt(num.str, base, 32)
	if err != nil {
		return p.fail("number out of range")
	}
	return &expr{op: opNumber, value: int(v), line: at}
}

// Eval evaluates a single expression outside of an assembly, such as one
// typed at a debugger prompt. Identifiers are resolved by lookup, which
// may be nil. The '*' symbol evaluates to here.
func Eval(s string, here int, lookup func(name string) (int, error)) (int, error) {
	e, aerr := parseExpr(newFstring(0, 0, s), "", 0)
	if aerr != nil {
		return 0, errors.New(aerr.msg)
	}
	if lookup == nil {
		lookup = func(string) (int, error) { return 0, errUnresolved }
	}
	v, err := e.eval(lookup, here)
	if err == errUnresolved {
		return 0, fmt.Errorf("unresolved symbol in '%s'", s)
	}
	return v, err
}
