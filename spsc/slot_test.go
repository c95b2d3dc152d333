// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package spsc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Slot
// =============================================================================

func TestSlot_LatestWins(t *testing.T) {
	p, r := NewSlot(0)

	if _, err := r.TryRecv(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("TryRecv() on fresh slot error = %v, want ErrEmpty", err)
	}
	if r.Last() != 0 {
		t.Errorf("Last() = %d, want initial 0", r.Last())
	}

	for _, v := range []int{1, 2, 3} {
		if err := p.Publish(v); err != nil {
			t.Fatal(err)
		}
	}
	got, err := r.TryRecv()
	if err != nil || got != 3 {
		t.Fatalf("TryRecv() = %d, %v; want 3", got, err)
	}
	if _, err := r.TryRecv(); !errors.Is(err, ErrEmpty) {
		t.Errorf("second TryRecv() error = %v, want ErrEmpty", err)
	}
	if r.Last() != 3 {
		t.Errorf("Last() = %d, want 3", r.Last())
	}
}

func TestSlot_CloseDeliversPending(t *testing.T) {
	p, r := NewSlot("")
	_ = p.Publish("final")
	p.Close()

	if err := p.Publish("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrClosed", err)
	}
	if v, err := r.TryRecv(); err != nil || v != "final" {
		t.Errorf("TryRecv() = %q, %v; want final", v, err)
	}
	if _, err := r.TryRecv(); !errors.Is(err, ErrClosed) {
		t.Errorf("TryRecv() after final error = %v, want ErrClosed", err)
	}
}

func TestSlot_ReaderClose(t *testing.T) {
	p, r := NewSlot(0)
	r.Close()
	if err := p.Publish(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after reader Close error = %v, want ErrClosed", err)
	}
}

func TestSlot_RecvWaits(t *testing.T) {
	p, r := NewSlot(0)
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = p.Publish(7)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := r.Recv(ctx)
	if err != nil || v != 7 {
		t.Errorf("Recv() = %d, %v; want 7", v, err)
	}

	short, cancel2 := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel2()
	if _, err := r.Recv(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Recv() with nothing published error = %v, want DeadlineExceeded", err)
	}
}

func TestSlot_ConcurrentMonotonic(t *testing.T) {
	const n = 50_000
	p, r := NewSlot(-1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer p.Close()
		for i := range n {
			_ = p.Publish(i)
		}
	}()

	prev := -1
	for {
		v, err := r.Recv(context.Background())
		if errors.Is(err, ErrClosed) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if v <= prev {
			t.Fatalf("Recv() = %d after %d, values must only move forward", v, prev)
		}
		prev = v
	}
	wg.Wait()
	if prev != n-1 {
		t.Errorf("final value = %d, want %d", prev, n-1)
	}
}

// =============================================================================
// Signal
// =============================================================================

func TestSignal_Coalesces(t *testing.T) {
	n, l := NewSignal()

	if ok, err := l.TryTake(); ok || err != nil {
		t.Fatalf("TryTake() on fresh signal = %v, %v; want false, nil", ok, err)
	}
	for range 3 {
		if err := n.Notify(); err != nil {
			t.Fatal(err)
		}
	}
	if ok, err := l.TryTake(); !ok || err != nil {
		t.Errorf("TryTake() after 3 notifies = %v, %v; want true, nil", ok, err)
	}
	if ok, err := l.TryTake(); ok || err != nil {
		t.Errorf("second TryTake() = %v, %v; want false, nil", ok, err)
	}
}

func TestSignal_Close(t *testing.T) {
	n, l := NewSignal()
	_ = n.Notify()
	n.Close()

	if err := n.Notify(); !errors.Is(err, ErrClosed) {
		t.Errorf("Notify() after Close error = %v, want ErrClosed", err)
	}
	if ok, err := l.TryTake(); !ok || err != nil {
		t.Errorf("TryTake() = %v, %v; want pending notification", ok, err)
	}
	if _, err := l.TryTake(); !errors.Is(err, ErrClosed) {
		t.Errorf("TryTake() after pending taken error = %v, want ErrClosed", err)
	}
	if err := l.Wait(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Wait() error = %v, want ErrClosed", err)
	}
}

func TestSignal_Wait(t *testing.T) {
	n, l := NewSignal()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = n.Notify()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
	if ok, _ := l.TryTake(); ok {
		t.Error("TryTake() after Wait reported a second notification")
	}
}
