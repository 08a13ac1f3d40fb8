// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"io"
	"net"
)

// Pipe returns the two ends of an in-memory serial line. Writes to one
// end block until the other end reads them.
func Pipe() (device, host io.ReadWriteCloser) {
	return net.Pipe()
}

// monitor logs everything the device sends to a host end nobody else
// reads, until the line is closed.
func monitor(host io.ReadCloser) {
	defer host.Close()
	buf := make([]byte, 64)
	for {
		n, err := host.Read(buf)
		if n > 0 {
			logger.Infof("host <- % X", buf[:n])
		}
		if err != nil {
			return
		}
	}
}
