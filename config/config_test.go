// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beevik/go6301/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 320, c.BatchCycles)
	assert.Equal(t, 1000000, c.ClockHz)

	s := c.Scheduler()
	assert.Equal(t, 320, s.BatchCycles)
	assert.Equal(t, 64, s.QueueSize)
}

func TestParse(t *testing.T) {
	c, err := config.Parse([]byte(`
firmware: /opt/ikbd/hd6301v1st.img
batch_cycles: 160
serial:
  driver: goserial
  port: /dev/ttyAMA0
  read_timeout: 25ms
input:
  keyboard: false
  script: macros.lua
logging:
  level: "<root>=WARNING;go6301.ikbd=DEBUG"
`))
	require.NoError(t, err)
	assert.Equal(t, "/opt/ikbd/hd6301v1st.img", c.Firmware)
	assert.Equal(t, 160, c.BatchCycles)
	assert.Equal(t, 1000000, c.ClockHz, "default kept")
	assert.Equal(t, config.DriverGoSerial, c.Serial.Driver)
	assert.Equal(t, "/dev/ttyAMA0", c.Serial.Port)
	assert.Equal(t, 7812, c.Serial.Baud, "default kept")
	assert.Equal(t, 25*time.Millisecond, c.Serial.ReadTimeout)
	assert.False(t, c.Input.Keyboard)
	assert.Equal(t, "macros.lua", c.Input.Script)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		check func(error) bool
	}{
		{"unknown field", "clock: 5", errors.IsNotValid},
		{"bad batch", "batch_cycles: -1", errors.IsNotValid},
		{"batch above clock", "clock_hz: 1000\nbatch_cycles: 2000", errors.IsNotValid},
		{"bad queue", "queue_size: 0", errors.IsNotValid},
		{"bad driver", "serial:\n  driver: usb", errors.IsNotSupported},
		{"missing port", "serial:\n  port: \"\"", errors.IsNotValid},
		{"bad level", "logging:\n  level: \"<root>=LOUD\"", errors.IsNotValid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, tt.check(errors.Cause(err)), "unexpected error %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.IsNotFound(err))

	path := filepath.Join(dir, "go6301.yaml")
	data, err := config.Default().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}
