// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sched

import "sync/atomic"

// A Queue is a bounded, ordered byte queue shared by exactly one producer
// goroutine and one consumer goroutine. Neither side ever blocks or takes
// a lock. The producer owns tail and the consumer owns head; each side
// publishes its index with an atomic store after touching the buffer.
type Queue struct {
	buf  []byte
	mask uint64
	head atomic.Uint64 // next index to pop
	tail atomic.Uint64 // next index to push
}

// NewQueue creates a queue holding at least size bytes. The capacity is
// rounded up to a power of two.
func NewQueue(size int) *Queue {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Queue{
		buf:  make([]byte, n),
		mask: uint64(n - 1),
	}
}

// Push appends a byte. It returns false if the queue is full. Only the
// producer may call Push.
func (q *Queue) Push(b byte) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = b
	q.tail.Store(tail + 1)
	return true
}

// Pop removes the oldest byte. Only the consumer may call Pop.
func (q *Queue) Pop() (byte, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return 0, false
	}
	b := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return b, true
}

// Peek returns the oldest byte without removing it. Only the consumer may
// call Peek.
func (q *Queue) Peek() (byte, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return 0, false
	}
	return q.buf[head&q.mask], true
}

// Len returns the number of queued bytes. The value may be stale by the
// time it is used if the other side is active.
func (q *Queue) Len() int {
	head := q.head.Load()
	return int(q.tail.Load() - head)
}

// Cap returns the queue's capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Free returns the number of bytes that can be pushed.
func (q *Queue) Free() int {
	return q.Cap() - q.Len()
}
