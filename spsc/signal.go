// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package spsc

import (
	"context"
	"sync/atomic"
)

type signal struct {
	pending atomic.Bool
	notify  doorbell
	closer
}

// Notifier is the sending end of a Signal.
type Notifier struct {
	s *signal
}

// Listener is the receiving end of a Signal.
type Listener struct {
	s *signal
}

// NewSignal creates an edge-trigger signal with nothing pending.
func NewSignal() (*Notifier, *Listener) {
	s := &signal{notify: newDoorbell()}
	s.closer.init()
	return &Notifier{s: s}, &Listener{s: s}
}

// Notify sets the pending flag. Notifications that arrive before the
// listener takes the flag collapse into one.
func (n *Notifier) Notify() error {
	s := n.s
	if s.sendDone.Load() || s.recvDone.Load() {
		return ErrClosed
	}
	if !s.pending.Swap(true) {
		s.notify.ring()
	}
	return nil
}

// Close marks the notifying side finished. A pending notification is
// still delivered before the listener sees ErrClosed.
func (n *Notifier) Close() { n.s.closeSend() }

// TryTake reports and clears the pending flag. It returns (false, nil) when
// nothing is pending and ErrClosed once the notifier closed and no
// notification is left.
func (l *Listener) TryTake() (bool, error) {
	s := l.s
	if s.recvDone.Load() {
		return false, ErrClosed
	}
	if s.pending.Swap(false) {
		return true, nil
	}
	if !s.sendDone.Load() {
		return false, nil
	}
	if s.pending.Swap(false) {
		return true, nil
	}
	return false, ErrClosed
}

// Wait blocks until a notification is pending and takes it.
func (l *Listener) Wait(ctx context.Context) error {
	s := l.s
	for {
		ok, err := l.TryTake()
		if ok || err != nil {
			return err
		}
		select {
		case <-s.notify:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close marks the listening side finished; later notifications fail with
// ErrClosed.
func (l *Listener) Close() { l.s.closeRecv() }
