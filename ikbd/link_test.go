// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ikbd_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/beevik/go6301/ikbd"
	"github.com/beevik/go6301/mcu/mcutest"
	"github.com/beevik/go6301/sched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Start a device and its link on the wall clock, and return the host end
// of the serial line.
func startLink(t *testing.T, rom string) (net.Conn, *ikbd.Link) {
	t.Helper()
	d := ikbd.New(mcutest.Firmware(t, rom), sched.Config{})
	host, port := net.Pipe()
	link := ikbd.NewLink(d.Scheduler, port, nil)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Scheduler.Run(ctx) })
	g.Go(func() error { return link.Run(ctx) })

	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, g.Wait(), context.Canceled)
		host.Close()
	})
	return host, link
}

func expectBytes(t *testing.T, host net.Conn, want ...byte) {
	t.Helper()
	require.NoError(t, host.SetReadDeadline(time.Now().Add(5*time.Second)))
	got := make([]byte, len(want))
	_, err := io.ReadFull(host, got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLinkEcho(t *testing.T) {
	host, _ := startLink(t, mcutest.CommandROM)
	_, err := host.Write([]byte{0x14, 0x01, 0x08})
	require.NoError(t, err)
	expectBytes(t, host, 0x14, 0x01, 0x08)
}

func TestLinkSend(t *testing.T) {
	host, link := startLink(t, mcutest.CommandROM)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, link.Send(ctx, 0x16))
	expectBytes(t, host, 0x16)
}

func TestLinkResetCommand(t *testing.T) {
	host, _ := startLink(t, mcutest.BootROM)
	expectBytes(t, host, ikbd.BootAck)

	_, err := host.Write([]byte{ikbd.CmdReset, ikbd.ResetArgument})
	require.NoError(t, err)
	expectBytes(t, host, ikbd.BootAck)
}
