// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

// An fstring is a string that keeps track of its position within the
// file from which it was read.
type fstring struct {
	fileIndex int    // index of file in the assembly
	row       int    // 1-based line number of substring
	column    int    // 0-based column of start of substring
	str       string // the actual substring of interest
	full      string // the full line as originally read from the file
}

func newFstring(fileIndex, row int, str string) fstring {
	return fstring{fileIndex, row, 0, str, str}
}

func (l fstring) String() string {
	return l.str
}

func (l fstring) consume(n int) fstring {
	l.column += n
	l.str = l.str[n:]
	return l
}

func (l fstring) trunc(n int) fstring {
	l.str = l.str[:n]
	return l
}

func (l fstring) isEmpty() bool {
	return len(l.str) == 0
}

func (l fstring) startsWith(fn func(c byte) bool) bool {
	return len(l.str) > 0 && fn(l.str[0])
}

func (l fstring) startsWithChar(c byte) bool {
	return len(l.str) > 0 && l.str[0] == c
}

// Case-insensitive prefix test.
func (l fstring) startsWithString(s string) bool {
	return len(l.str) >= len(s) && strings.EqualFold(l.str[:len(s)], s)
}

func (l fstring) scanWhile(fn func(c byte) bool) int {
	i := 0
	for i < len(l.str) && fn(l.str[i]) {
		i++
	}
	return i
}

func (l fstring) consumeWhitespace() fstring {
	return l.consume(l.scanWhile(whitespace))
}

func (l fstring) consumeWhile(fn func(c byte) bool) (consumed, remain fstring) {
	i := l.scanWhile(fn)
	return l.trunc(i), l.consume(i)
}

func (l fstring) consumeUntil(fn func(c byte) bool) (consumed, remain fstring) {
	i := l.scanWhile(func(c byte) bool { return !fn(c) })
	return l.trunc(i), l.consume(i)
}

// Split the string at the first occurrence of 'c' that is not inside
// quotes or parentheses.
func (l fstring) consumeUntilUnquotedChar(c byte) (consumed, remain fstring) {
	var quote byte
	depth := 0
	i := 0
loop:
	for ; i < len(l.str); i++ {
		ch := l.str[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case stringQuote(ch):
			quote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == c && depth == 0:
			break loop
		}
	}
	return l.trunc(i), l.consume(i)
}

// Remove a trailing ';' comment and any trailing whitespace. Semicolons
// inside quoted strings are kept.
func (l fstring) stripTrailingComment() fstring {
	end := 0
	var quote byte
	for i := 0; i < len(l.str); i++ {
		ch := l.str[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			end = i + 1
			continue
		case comment(ch):
			return l.trunc(end)
		case stringQuote(ch):
			quote = ch
		}
		if !whitespace(ch) {
			end = i + 1
		}
	}
	return l.trunc(end)
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func wordChar(c byte) bool {
	return c != ' ' && c != '\t'
}

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func comment(c byte) bool {
	return c == ';'
}

func hexadecimal(c byte) bool {
	return decimal(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binarynum(c byte) bool {
	return c == '0' || c == '1'
}

func labelStartChar(c byte) bool {
	return alpha(c) || c == '_' || c == '.' || c == '@'
}

func labelChar(c byte) bool {
	return alpha(c) || decimal(c) || c == '_' || c == '.' || c == '@'
}

func stringQuote(c byte) bool {
	return c == '"' || c == '\''
}
