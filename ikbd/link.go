// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ikbd

import (
	"context"
	"io"
	"time"

	"github.com/beevik/go6301/mcu"
	"github.com/beevik/go6301/sched"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"
)

// How often the link retries bytes the scheduler could not accept.
const retryInterval = time.Millisecond

// A Link carries bytes between the host computer's serial line and a
// scheduler. It is the only producer of the scheduler's inbound queue and
// the only consumer of its outbound queue.
//
// The link watches inbound traffic for the reset command and turns it
// into a warm reset request instead of passing it to the firmware.
type Link struct {
	sched  *sched.Scheduler
	port   io.ReadWriteCloser
	clock  clock.Clock
	inject chan []byte
	framer framer
	booted bool
}

// NewLink creates a link. The link closes the port when Run returns.
func NewLink(s *sched.Scheduler, port io.ReadWriteCloser, c clock.Clock) *Link {
	if c == nil {
		c = clock.WallClock
	}
	return &Link{
		sched:  s,
		port:   port,
		clock:  c,
		inject: make(chan []byte),
	}
}

// Send queues bytes for the firmware as though the host had sent them.
// It blocks until the running link has taken them.
func (l *Link) Send(ctx context.Context, data ...byte) error {
	select {
	case l.inject <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run pumps bytes until the context is canceled or the port fails.
func (l *Link) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	rx := make(chan []byte)

	g.Go(func() error {
		<-ctx.Done()
		return l.port.Close()
	})
	g.Go(func() error {
		return l.read(ctx, rx)
	})
	g.Go(func() error {
		return l.pump(ctx, rx)
	})

	err := g.Wait()
	if errors.Cause(err) == context.Canceled {
		return nil
	}
	return err
}

func (l *Link) read(ctx context.Context, rx chan<- []byte) error {
	for {
		buf := make([]byte, 64)
		n, err := l.port.Read(buf)
		if n > 0 {
			select {
			case rx <- buf[:n]:
			case <-ctx.Done():
				return nil
			}
		}
		switch {
		case ctx.Err() != nil:
			return nil
		case err == io.EOF:
			// Read timeout, or a pipe whose writer has gone.
			select {
			case <-l.clock.After(retryInterval):
			case <-ctx.Done():
				return nil
			}
		case err != nil:
			return errors.Annotate(err, "reading serial port")
		}
	}
}

func (l *Link) pump(ctx context.Context, rx <-chan []byte) error {
	var backlog []byte
	for {
		if err := l.transmit(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		backlog = l.deliver(backlog)

		var retry <-chan time.Time
		if len(backlog) > 0 {
			retry = l.clock.After(retryInterval)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-rx:
			backlog = append(backlog, l.filter(data)...)
		case data := <-l.inject:
			backlog = append(backlog, l.filter(data)...)
		case <-l.sched.Outbound():
		case <-retry:
		}
	}
}

// Feed backlogged bytes to the scheduler in order, and return the ones it
// could not take yet.
func (l *Link) deliver(backlog []byte) []byte {
	for i, b := range backlog {
		if err := l.sched.Feed(b); err != nil {
			return backlog[i:]
		}
		logger.Tracef("rx $%02X", b)
	}
	return backlog[:0]
}

// Write everything the firmware has transmitted to the port.
func (l *Link) transmit() error {
	var out []byte
	for b, ok := l.sched.Drain(); ok; b, ok = l.sched.Drain() {
		if b == BootAck && !l.booted {
			logger.Infof("keyboard controller booted")
			l.booted = true
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil
	}
	logger.Tracef("tx % X", out)
	_, err := l.port.Write(out)
	return errors.Annotate(err, "writing serial port")
}

// Frame inbound bytes for logging, and strip reset commands out of the
// stream. The bytes of a reset command are held until it is complete.
func (l *Link) filter(data []byte) []byte {
	var out []byte
	for _, b := range data {
		frame, known, done := l.framer.push(b)
		switch {
		case !known:
			logger.Warningf("unknown command byte $%02X", b)
			out = append(out, b)
		case !done:
			if !l.framer.inCommand(CmdReset) {
				out = append(out, b)
			}
		case isReset(frame):
			logger.Infof("reset command received")
			l.booted = false
			l.sched.RequestReset(mcu.Warm)
		case frame[0] == CmdReset:
			out = append(out, frame...)
		default:
			out = append(out, b)
			logger.Debugf("command %s: % X", l.framer.cmd.Name, frame)
		}
	}
	return out
}
