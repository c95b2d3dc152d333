// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package spsc provides single-producer/single-consumer transports between
// two goroutines.
//
// Every constructor returns two ends. The producing end and the consuming
// end are distinct types, and each end must be used by exactly one
// goroutine. Within that discipline all operations are lock-free: each side
// owns its own index or flag and only reads the other side's.
//
// # Transports
//
//   - [Queue]: bounded FIFO ring. Every message is delivered, in push order.
//     When full, Push either waits ([Block]) or fails with [ErrFull]
//     ([Reject]); the policy is chosen per queue.
//   - [Slot]: holds at most one unread value. Publishing overwrites an
//     unread value, so readers see the newest sample and may skip
//     intermediate ones.
//   - [Signal]: a pending flag. Any number of notifications before the
//     listener looks collapse into one.
//
// # Empty versus closed
//
// Non-blocking receives distinguish "nothing yet" ([ErrEmpty], or false for
// Signal) from "nothing ever again" ([ErrClosed]). Either end may Close.
// When the producing end closes, values already sent are still delivered
// before the consumer sees ErrClosed. When the consuming end closes, the
// producer's next send fails with ErrClosed instead of blocking.
//
// # Blocking
//
// Blocking operations take a context.Context and return ctx.Err() when it
// is done. Wake-ups use one-element buffered channels as edge-triggered
// doorbells; the data itself never travels through a Go channel.
package spsc

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Transport errors.
var (
	// ErrEmpty reports that nothing is available yet.
	ErrEmpty = errors.New("spsc: empty")

	// ErrFull reports that a queue has no free space.
	ErrFull = errors.New("spsc: full")

	// ErrClosed reports that the peer (or this end) closed the transport.
	ErrClosed = errors.New("spsc: closed")
)

// cacheLinePad keeps producer-owned and consumer-owned words on separate
// cache lines.
type cacheLinePad [64]byte

// doorbell is a one-element channel used as an edge-triggered wake-up.
type doorbell chan struct{}

func newDoorbell() doorbell { return make(doorbell, 1) }

// ring wakes a waiter, if any. Rings coalesce: a second ring before the
// waiter runs is dropped.
func (d doorbell) ring() {
	select {
	case d <- struct{}{}:
	default:
	}
}

// closer is the shared teardown state of one transport. It must not be
// copied after first use.
type closer struct {
	done chan struct{}
	once sync.Once

	// sendDone and recvDone record which end closed.
	sendDone atomic.Bool
	recvDone atomic.Bool
}

func (c *closer) init() { c.done = make(chan struct{}) }

func (c *closer) closeSend() {
	c.sendDone.Store(true)
	c.once.Do(func() { close(c.done) })
}

func (c *closer) closeRecv() {
	c.recvDone.Store(true)
	c.once.Do(func() { close(c.done) })
}
