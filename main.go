// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command go6301 emulates the Atari ST intelligent keyboard controller,
// an HD6301V1 running the IKBD firmware, and connects it to a host
// computer's serial line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/beevik/go6301/asm"
	"github.com/beevik/go6301/config"
	"github.com/beevik/go6301/host"
	"github.com/beevik/go6301/ikbd"
	"github.com/beevik/go6301/input"
	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/sched"
	"github.com/beevik/go6301/transport"
	"github.com/beevik/term"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"
)

var logger = loggo.GetLogger("go6301")

// How often scheduler diagnostics are logged.
const diagnosticsInterval = 10 * time.Second

var (
	configPath string
	assemble   string
	console    bool
	firmware   string
	driver     string
	port       string
	script     string
	noKeyboard bool
	logLevel   string
)

func init() {
	flag.StringVar(&configPath, "config", "", "configuration file")
	flag.StringVar(&assemble, "a", "", "assemble firmware source file and exit")
	flag.BoolVar(&console, "console", false, "start the debug console instead of the emulator")
	flag.StringVar(&firmware, "firmware", "", "firmware ROM image")
	flag.StringVar(&driver, "driver", "", "serial driver: term, goserial or pipe")
	flag.StringVar(&port, "port", "", "serial port device")
	flag.StringVar(&script, "script", "", "Lua input script")
	flag.BoolVar(&noKeyboard, "nokeyboard", false, "do not read key presses from the terminal")
	flag.StringVar(&logLevel, "log", "", "logging configuration, such as '<root>=DEBUG'")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: go6301 [options] [console scripts] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	// Do command-line assemble if requested.
	if assemble != "" {
		err := asm.AssembleFile(assemble, mcu.ROMBase, 0, os.Stdout)
		if err != nil {
			exitOnError(errors.Annotatef(err, "assembling %s", assemble))
		}
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		exitOnError(err)
	}
	if err := configureLogging(cfg.Logging); err != nil {
		exitOnError(err)
	}

	f, err := mcu.LoadFirmware(cfg.Firmware)
	if err != nil {
		exitOnError(err)
	}
	logger.Infof("firmware %s, CRC $%08X", cfg.Firmware, f.CRC())
	dev := ikbd.New(f, cfg.Scheduler())

	if console {
		runConsole(dev)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = run(ctx, cfg, dev)
	if err != nil && errors.Cause(err) != input.ErrInterrupt && errors.Cause(err) != context.Canceled {
		exitOnError(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}

	if firmware != "" {
		cfg.Firmware = firmware
	}
	if driver != "" {
		cfg.Serial.Driver = driver
	}
	if port != "" {
		cfg.Serial.Port = port
	}
	if script != "" {
		cfg.Input.Script = script
	}
	if noKeyboard {
		cfg.Input.Keyboard = false
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, cfg.Validate()
}

func configureLogging(cfg config.Logging) error {
	_, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(os.Stderr, loggo.DefaultFormatter))
	if err != nil {
		return errors.Annotate(err, "configuring log writer")
	}
	return errors.Annotate(loggo.ConfigureLoggers(cfg.Level), "configuring loggers")
}

// Run the emulator until the context is canceled or a component fails.
func run(ctx context.Context, cfg *config.Config, dev *ikbd.Device) error {
	serial, err := transport.Open(cfg.Serial)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	link := ikbd.NewLink(dev.Scheduler, serial, nil)

	g.Go(func() error {
		return dev.Scheduler.Run(ctx)
	})
	g.Go(func() error {
		return link.Run(ctx)
	})
	g.Go(func() error {
		return reportDiagnostics(ctx, dev.Scheduler)
	})
	if cfg.Input.Keyboard {
		kb := input.NewKeyboard(dev.Matrix, os.Stdin, nil)
		g.Go(func() error {
			return kb.Run(ctx)
		})
	}
	if cfg.Input.Script != "" {
		s := input.NewScript(dev.Matrix, link, dev.Scheduler, nil)
		g.Go(func() error {
			return s.RunFile(ctx, cfg.Input.Script)
		})
	}

	return g.Wait()
}

func reportDiagnostics(ctx context.Context, s *sched.Scheduler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.WallClock.After(diagnosticsInterval):
		}
		d := s.Diagnostics()
		logger.Debugf("batches %d, cycles %d, inbound %d (%d rejected), outbound %d (%d held), paused %v, crashed %v",
			d.Batches, d.Cycles, d.Inbound, d.InboundFull, d.Outbound, d.OutboundFull, d.Paused, d.Crashed)
	}
}

// Run the debug console, first over any script files named on the
// command line and then interactively.
func runConsole(dev *ikbd.Device) {
	h := host.New(dev)

	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		err = h.RunCommands(file, os.Stdout, false)
		file.Close()
		if err == host.ErrQuit {
			return
		}
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
