// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ikbd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCommand(t *testing.T) {
	c, ok := LookupCommand(0x19)
	require.True(t, ok)
	assert.Equal(t, 7, c.Length)
	assert.Equal(t, "$19 set joystick keycode mode", c.String())

	c, ok = LookupCommand(0x8b)
	require.True(t, ok)
	assert.Equal(t, "inquire set mouse threshold", c.Name)
	assert.Equal(t, 1, c.Length)

	_, ok = LookupCommand(0x42)
	assert.False(t, ok)
}

func TestFramer(t *testing.T) {
	type result struct {
		frame []byte
		known bool
	}

	var f framer
	var got []result
	in := []byte{
		0x08,
		0x14, 0x01,
		0x42,
		0x80, 0x01,
		0x20, 0xf0, 0x00, 0x02, 0xaa, 0xbb,
		0x16,
	}
	for _, b := range in {
		frame, known, done := f.push(b)
		if done {
			got = append(got, result{append([]byte(nil), frame...), known})
		}
	}

	assert.Equal(t, []result{
		{[]byte{0x08}, true},
		{[]byte{0x14, 0x01}, true},
		{[]byte{0x42}, false},
		{[]byte{0x80, 0x01}, true},
		{[]byte{0x20, 0xf0, 0x00, 0x02, 0xaa, 0xbb}, true},
		{[]byte{0x16}, true},
	}, got)
}

func TestIsReset(t *testing.T) {
	assert.True(t, isReset([]byte{0x80, 0x01}))
	assert.False(t, isReset([]byte{0x80, 0x02}))
	assert.False(t, isReset([]byte{0x01}))
}
