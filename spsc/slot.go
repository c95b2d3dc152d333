// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package spsc

import (
	"context"
	"sync/atomic"
)

// slot holds the newest unread value, or nil once it has been read.
type slot[V any] struct {
	value  atomic.Pointer[V]
	notify doorbell
	closer
}

// Publisher is the sending end of a Slot.
type Publisher[V any] struct {
	s *slot[V]
}

// Reader is the receiving end of a Slot. It remembers the last value it
// received.
type Reader[V any] struct {
	s    *slot[V]
	last V
}

// NewSlot creates a latest-value slot. The slot starts with no unread
// value; initial is what Reader.Last returns until the first receive.
func NewSlot[V any](initial V) (*Publisher[V], *Reader[V]) {
	s := &slot[V]{notify: newDoorbell()}
	s.closer.init()
	return &Publisher[V]{s: s}, &Reader[V]{s: s, last: initial}
}

// Publish stores v, replacing any value the reader has not taken yet. It
// never blocks and returns ErrClosed if either end closed.
func (p *Publisher[V]) Publish(v V) error {
	s := p.s
	if s.sendDone.Load() || s.recvDone.Load() {
		return ErrClosed
	}
	s.value.Store(&v)
	s.notify.ring()
	return nil
}

// Close marks the publishing side finished. An unread value is still
// delivered before the reader sees ErrClosed.
func (p *Publisher[V]) Close() { p.s.closeSend() }

// TryRecv takes the newest unread value. It returns ErrEmpty if nothing
// was published since the last receive, and ErrClosed once the publisher
// closed and the final value was taken.
func (r *Reader[V]) TryRecv() (V, error) {
	s := r.s
	var zero V
	if s.recvDone.Load() {
		return zero, ErrClosed
	}
	if v := s.value.Swap(nil); v != nil {
		r.last = *v
		return *v, nil
	}
	if !s.sendDone.Load() {
		return zero, ErrEmpty
	}
	if v := s.value.Swap(nil); v != nil {
		r.last = *v
		return *v, nil
	}
	return zero, ErrClosed
}

// Recv waits for an unread value, the publisher closing, or ctx.
func (r *Reader[V]) Recv(ctx context.Context) (V, error) {
	s := r.s
	for {
		v, err := r.TryRecv()
		if err != ErrEmpty {
			return v, err
		}
		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
}

// Last returns the most recently received value, or the initial value if
// nothing was received yet.
func (r *Reader[V]) Last() V { return r.last }

// Close marks the reading side finished; later publishes fail with
// ErrClosed.
func (r *Reader[V]) Close() { r.s.closeRecv() }
