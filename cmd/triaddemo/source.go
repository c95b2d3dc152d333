// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/gogpu/triad/input"
)

// script moves the cursor on a circle around the window center and clicks
// every tenth pass.
func script(width, height float32, passes int) [][]input.Event {
	out := make([][]input.Event, 0, passes+1)
	out = append(out, []input.Event{
		input.ResizedEvent{Width: width, Height: height},
		input.CursorEnteredEvent{},
	})
	for i := range passes {
		angle := 2 * math.Pi * float64(i) / 60
		x := width/2 + float32(math.Cos(angle))*width/3
		y := height/2 + float32(math.Sin(angle))*height/3
		pass := []input.Event{input.CursorMovedEvent{X: x, Y: y}}
		if i%10 == 0 {
			pass = append(pass,
				input.MouseButtonEvent{Button: input.ButtonLeft, Pressed: true},
				input.MouseButtonEvent{Button: input.ButtonLeft, Pressed: false},
			)
		}
		if i == passes/2 {
			// Halfway through, the window grows.
			width, height = width*1.25, height*1.25
			pass = append(pass, input.ResizedEvent{Width: width, Height: height})
		}
		out = append(out, pass)
	}
	return append(out, []input.Event{input.CursorLeftEvent{}, input.CloseRequestedEvent{}})
}

// pacedSource waits pace between passes so the script spans several
// simulation ticks.
type pacedSource struct {
	src  input.Source
	pace time.Duration
	next time.Time
}

func (s *pacedSource) Next(ctx context.Context) ([]input.Event, error) {
	if wait := time.Until(s.next); wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	s.next = time.Now().Add(s.pace)
	return s.src.Next(ctx)
}

// windowSize is the virtual window size. The input thread writes it and
// the render thread reads it when reconfiguring.
type windowSize struct {
	packed atomic.Uint64
}

func (w *windowSize) set(width, height float32) {
	w.packed.Store(uint64(uint32(width))<<32 | uint64(uint32(height)))
}

// get implements render.SizeFunc.
func (w *windowSize) get() (width, height uint32) {
	v := w.packed.Load()
	return uint32(v >> 32), uint32(v) //nolint:gosec // unpacking
}

// track returns a source recording every resize passing through.
func (w *windowSize) track(src input.Source) input.Source {
	return sizeTracker{src: src, size: w}
}

type sizeTracker struct {
	src  input.Source
	size *windowSize
}

func (t sizeTracker) Next(ctx context.Context) ([]input.Event, error) {
	events, err := t.src.Next(ctx)
	for _, ev := range events {
		if r, ok := ev.(input.ResizedEvent); ok {
			t.size.set(r.Width, r.Height)
		}
	}
	return events, err
}
