// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package spsc

import (
	"context"
	"fmt"
	"math/bits"
	"strings"
	"sync/atomic"
)

// Overflow selects what Push does when a queue is full.
type Overflow uint8

const (
	// Block makes Push wait until the consumer frees a slot.
	Block Overflow = iota

	// Reject makes Push fail with ErrFull. The message is not enqueued and
	// is counted in Producer.Dropped.
	Reject
)

// String returns the policy name.
func (o Overflow) String() string {
	switch o {
	case Block:
		return "block"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("Overflow(%d)", uint8(o))
	}
}

// ParseOverflow parses "block" or "reject", case-insensitively.
func ParseOverflow(s string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block":
		return Block, nil
	case "reject":
		return Reject, nil
	default:
		return 0, fmt.Errorf("spsc: unknown overflow policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Overflow) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Overflow) UnmarshalText(text []byte) error {
	v, err := ParseOverflow(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// queue is the ring shared by a Producer and a Consumer.
//
// head is written only by the consumer and tail only by the producer; each
// side reads the other's index to detect empty and full. Indices grow
// without wrapping in practice and are masked into buf.
type queue[M any] struct {
	buf    []M
	mask   uint64
	policy Overflow

	_    cacheLinePad
	head atomic.Uint64 // next slot to read
	_    cacheLinePad
	tail atomic.Uint64 // next slot to write
	_    cacheLinePad

	dropped atomic.Uint64

	notEmpty doorbell
	notFull  doorbell
	closer
}

// Producer is the sending end of a Queue.
type Producer[M any] struct {
	q *queue[M]
}

// Consumer is the receiving end of a Queue.
type Consumer[M any] struct {
	q *queue[M]
}

// NewQueue creates a bounded FIFO queue. Capacity is rounded up to a power
// of two, with a minimum of 2. It panics if capacity is not positive.
func NewQueue[M any](capacity int, overflow Overflow) (*Producer[M], *Consumer[M]) {
	if capacity <= 0 {
		panic(fmt.Sprintf("spsc: queue capacity must be positive, got %d", capacity))
	}
	size := roundPow2(capacity)
	q := &queue[M]{
		buf:      make([]M, size),
		mask:     uint64(size - 1),
		policy:   overflow,
		notEmpty: newDoorbell(),
		notFull:  newDoorbell(),
	}
	q.closer.init()
	return &Producer[M]{q: q}, &Consumer[M]{q: q}
}

func roundPow2(n int) int {
	if n <= 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}

// Cap returns the number of messages the queue can hold.
func (p *Producer[M]) Cap() int { return len(p.q.buf) }

// Len returns the number of queued messages.
func (p *Producer[M]) Len() int { return p.q.len() }

// Overflow returns the queue's overflow policy.
func (p *Producer[M]) Overflow() Overflow { return p.q.policy }

// Dropped returns how many messages Push and TryPush rejected because the
// queue was full.
func (p *Producer[M]) Dropped() uint64 { return p.q.dropped.Load() }

// TryPush enqueues m without blocking. It returns ErrFull if there is no
// room, whatever the overflow policy, and ErrClosed if either end closed.
func (p *Producer[M]) TryPush(m M) error {
	err := p.q.push(m)
	if err == ErrFull {
		p.q.dropped.Add(1)
	}
	return err
}

// Push enqueues m. When the queue is full, a Block queue waits for space
// until ctx is done, and a Reject queue returns ErrFull.
func (p *Producer[M]) Push(ctx context.Context, m M) error {
	q := p.q
	for {
		err := q.push(m)
		if err != ErrFull {
			return err
		}
		if q.policy == Reject {
			q.dropped.Add(1)
			return ErrFull
		}
		select {
		case <-q.notFull:
		case <-q.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close marks the producing side finished. The consumer receives every
// message queued before Close, then ErrClosed. Close is idempotent.
func (p *Producer[M]) Close() { p.q.closeSend() }

func (q *queue[M]) push(m M) error {
	if q.sendDone.Load() || q.recvDone.Load() {
		return ErrClosed
	}
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.buf)) {
		return ErrFull
	}
	q.buf[tail&q.mask] = m
	q.tail.Store(tail + 1)
	q.notEmpty.ring()
	return nil
}

func (q *queue[M]) len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the number of messages the queue can hold.
func (c *Consumer[M]) Cap() int { return len(c.q.buf) }

// Len returns the number of queued messages.
func (c *Consumer[M]) Len() int { return c.q.len() }

// TryPop dequeues the oldest message without blocking. It returns ErrEmpty
// if nothing is queued yet, and ErrClosed once the queue is closed and
// every message sent before Close has been received.
func (c *Consumer[M]) TryPop() (M, error) {
	q := c.q
	var zero M
	if q.recvDone.Load() {
		return zero, ErrClosed
	}
	head := q.head.Load()
	if head == q.tail.Load() {
		if !q.sendDone.Load() {
			return zero, ErrEmpty
		}
		// The producer may have pushed between the first tail load and
		// closing; tail is stable now.
		if head == q.tail.Load() {
			return zero, ErrClosed
		}
	}
	i := head & q.mask
	m := q.buf[i]
	q.buf[i] = zero
	q.head.Store(head + 1)
	q.notFull.ring()
	return m, nil
}

// Pop dequeues the oldest message, waiting until one is available, the
// queue is closed, or ctx is done.
func (c *Consumer[M]) Pop(ctx context.Context) (M, error) {
	q := c.q
	for {
		m, err := c.TryPop()
		if err != ErrEmpty {
			return m, err
		}
		select {
		case <-q.notEmpty:
		case <-q.done:
		case <-ctx.Done():
			var zero M
			return zero, ctx.Err()
		}
	}
}

// Drain appends every available message to dst in FIFO order and returns
// the extended slice. The error is nil when the queue is merely empty and
// ErrClosed once it is closed and exhausted. Like io.Reader, Drain may
// return messages together with ErrClosed; callers should process dst
// before acting on the error.
func (c *Consumer[M]) Drain(dst []M) ([]M, error) {
	for {
		m, err := c.TryPop()
		switch err {
		case nil:
			dst = append(dst, m)
		case ErrEmpty:
			return dst, nil
		default:
			return dst, err
		}
	}
}

// Close marks the consuming side finished. Subsequent and blocked pushes
// return ErrClosed. Close is idempotent.
func (c *Consumer[M]) Close() { c.q.closeRecv() }
