// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

// Atari ST scan codes of the modifier keys.
const (
	KeyEscape    = 0x01
	KeyBackspace = 0x0e
	KeyTab       = 0x0f
	KeyReturn    = 0x1c
	KeyControl   = 0x1d
	KeyLeftShift = 0x2a
	KeyAlternate = 0x38
	KeySpace     = 0x39
)

// Rows of the main keyboard block. Each string lists the unshifted and
// then the shifted character of consecutive scan codes.
var keyRows = []struct {
	first     int
	unshifted string
	shifted   string
}{
	{0x02, "1234567890-=", "!@#$%^&*()_+"},
	{0x10, "qwertyuiop[]", "QWERTYUIOP{}"},
	{0x1e, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
	{0x2b, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
}

type keyStroke struct {
	code  int
	shift bool
	ctrl  bool
}

var keymap = map[byte]keyStroke{
	0x1b: {code: KeyEscape},
	0x7f: {code: KeyBackspace},
	0x08: {code: KeyBackspace},
	'\t': {code: KeyTab},
	'\r': {code: KeyReturn},
	'\n': {code: KeyReturn},
	' ':  {code: KeySpace},
}

func init() {
	for _, r := range keyRows {
		for i := range len(r.unshifted) {
			keymap[r.unshifted[i]] = keyStroke{code: r.first + i}
			keymap[r.shifted[i]] = keyStroke{code: r.first + i, shift: true}
		}
	}

	// Control characters not claimed above are control+letter.
	for c := byte(1); c <= 26; c++ {
		if _, ok := keymap[c]; !ok {
			k := keymap['a'+c-1]
			keymap[c] = keyStroke{code: k.code, ctrl: true}
		}
	}
}

// lookupKey returns the keystroke that types the character c.
func lookupKey(c byte) (keyStroke, bool) {
	k, ok := keymap[c]
	return k, ok
}
