// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package input

import (
	"context"
	"io"
)

// Event is a raw window event, as delivered by the windowing system.
type Event interface {
	isEvent()
}

// CursorMovedEvent reports the cursor position in window pixels, with the
// origin at the top-left corner and y growing downwards.
type CursorMovedEvent struct {
	X, Y float32
}

// MouseButtonEvent reports a button changing state.
type MouseButtonEvent struct {
	Button  Button
	Pressed bool
}

// CursorEnteredEvent reports the cursor entering the window.
type CursorEnteredEvent struct{}

// CursorLeftEvent reports the cursor leaving the window.
type CursorLeftEvent struct{}

// ResizedEvent reports the new window size in pixels.
type ResizedEvent struct {
	Width, Height float32
}

// CloseRequestedEvent reports that the user asked to close the window.
// It ends the input stage.
type CloseRequestedEvent struct{}

func (CursorMovedEvent) isEvent()    {}
func (MouseButtonEvent) isEvent()    {}
func (CursorEnteredEvent) isEvent()  {}
func (CursorLeftEvent) isEvent()     {}
func (ResizedEvent) isEvent()        {}
func (CloseRequestedEvent) isEvent() {}

// Source produces raw events.
//
// Next blocks until at least one event is available and returns every
// event of one pass of the windowing system's event loop. It returns
// io.EOF when no more events will arrive.
type Source interface {
	Next(ctx context.Context) ([]Event, error)
}

// Script is a Source replaying fixed passes, for headless runs and tests.
type Script struct {
	passes [][]Event
}

// NewScript creates a source that returns each pass in turn, then io.EOF.
func NewScript(passes ...[]Event) *Script {
	return &Script{passes: passes}
}

// Next implements Source.
func (s *Script) Next(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.passes) == 0 {
		return nil, io.EOF
	}
	pass := s.passes[0]
	s.passes = s.passes[1:]
	return pass, nil
}

// Remaining returns the number of passes not yet returned.
func (s *Script) Remaining() int { return len(s.passes) }
