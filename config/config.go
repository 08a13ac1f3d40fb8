// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the emulator's YAML configuration file.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/beevik/go6301/sched"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/yaml.v2"
)

// Serial transport drivers.
const (
	DriverTerm     = "term"
	DriverGoSerial = "goserial"
	DriverPipe     = "pipe"
)

// Config is the complete emulator configuration.
type Config struct {
	Firmware    string  `yaml:"firmware"`
	ClockHz     int     `yaml:"clock_hz"`
	BatchCycles int     `yaml:"batch_cycles"`
	QueueSize   int     `yaml:"queue_size"`
	Serial      Serial  `yaml:"serial"`
	Input       Input   `yaml:"input"`
	Logging     Logging `yaml:"logging"`
}

// Serial configures the line to the host computer.
type Serial struct {
	Driver      string        `yaml:"driver"`
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Input configures the sources of key presses.
type Input struct {
	Keyboard bool   `yaml:"keyboard"`
	Script   string `yaml:"script"`
}

// Logging configures loggo. Level is a loggo configuration string such
// as "<root>=INFO;go6301.sched=DEBUG".
type Logging struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Firmware:    "ikbd.rom",
		ClockHz:     sched.DefaultClockHz,
		BatchCycles: sched.DefaultBatchCycles,
		QueueSize:   sched.DefaultQueueSize,
		Serial: Serial{
			Driver:      DriverTerm,
			Port:        "/dev/ttyS0",
			Baud:        7812,
			ReadTimeout: 10 * time.Millisecond,
		},
		Input: Input{
			Keyboard: true,
		},
		Logging: Logging{
			Level: "<root>=INFO",
		},
	}
}

// Load reads a configuration file. Settings missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("config file %q", path)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "reading config file %q", path)
	}
	c, err := Parse(data)
	return c, errors.Annotatef(err, "config file %q", path)
}

// Parse decodes and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(bytes.TrimSpace(data), c); err != nil {
		return nil, errors.NewNotValid(err, "parsing yaml")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every setting.
func (c *Config) Validate() error {
	switch {
	case c.Firmware == "":
		return errors.NotValidf("empty firmware path")
	case c.ClockHz <= 0:
		return errors.NotValidf("clock_hz %d", c.ClockHz)
	case c.BatchCycles <= 0 || c.BatchCycles > c.ClockHz:
		return errors.NotValidf("batch_cycles %d", c.BatchCycles)
	case c.QueueSize <= 0 || c.QueueSize > 1<<16:
		return errors.NotValidf("queue_size %d", c.QueueSize)
	case c.Serial.Baud <= 0:
		return errors.NotValidf("serial baud %d", c.Serial.Baud)
	case c.Serial.ReadTimeout < 0:
		return errors.NotValidf("serial read_timeout %v", c.Serial.ReadTimeout)
	}

	switch c.Serial.Driver {
	case DriverTerm, DriverGoSerial:
		if c.Serial.Port == "" {
			return errors.NotValidf("empty serial port")
		}
	case DriverPipe:
	default:
		return errors.NotSupportedf("serial driver %q", c.Serial.Driver)
	}

	if _, err := loggo.ParseConfigString(c.Logging.Level); err != nil {
		return errors.NewNotValid(err, "logging level")
	}
	return nil
}

// Scheduler returns the scheduler settings.
func (c *Config) Scheduler() sched.Config {
	return sched.Config{
		ClockHz:     c.ClockHz,
		BatchCycles: c.BatchCycles,
		QueueSize:   c.QueueSize,
	}
}
