// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package input

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/triad/internal/logging"
	"github.com/gogpu/triad/spsc"
)

// Server converts raw events into messages on the input thread.
type Server struct {
	messages *spsc.Producer[Message]
	cursor   *spsc.Publisher[f32.Vec2]

	// raw is the last cursor position in window pixels.
	raw  f32.Vec2
	pos  f32.Vec2
	size f32.Vec2

	lastPos  f32.Vec2
	lastSize f32.Vec2
}

// NewServer creates a server sending messages to the simulation through
// messages. When cursor is non-nil, every change of the cursor position,
// including the shift caused by a resize, is also published there.
func NewServer(messages *spsc.Producer[Message], cursor *spsc.Publisher[f32.Vec2]) *Server {
	return &Server{messages: messages, cursor: cursor}
}

// Cursor returns the current cursor position in centered, y-up coordinates.
func (s *Server) Cursor() f32.Vec2 { return s.pos }

// Size returns the current window size.
func (s *Server) Size() f32.Vec2 { return s.size }

// Push handles one raw event. Button and enter/leave events are sent
// right away; movement and resizes only update state until Finalize.
// A full Reject queue drops the message and Push returns nil.
func (s *Server) Push(ctx context.Context, ev Event) error {
	switch ev := ev.(type) {
	case MouseButtonEvent:
		if ev.Pressed {
			return s.send(ctx, CursorPressed{Button: ev.Button, Pos: s.pos})
		}
		return s.send(ctx, CursorReleased{Button: ev.Button, Pos: s.pos})
	case CursorEnteredEvent:
		return s.send(ctx, CursorEntered{})
	case CursorLeftEvent:
		return s.send(ctx, CursorLeft{})
	case CursorMovedEvent:
		s.raw = f32.Vec2{ev.X, ev.Y}
		return s.recenter()
	case ResizedEvent:
		s.size = f32.Vec2{ev.Width, ev.Height}
		return s.recenter()
	}
	return nil
}

// Finalize ends an input pass. It sends one CursorMoved if the cursor
// moved since the previous report and one WindowResized if the size
// changed.
func (s *Server) Finalize(ctx context.Context) error {
	if s.pos != s.lastPos {
		delta := f32.Vec2{s.pos[0] - s.lastPos[0], s.pos[1] - s.lastPos[1]}
		if err := s.send(ctx, CursorMoved{Pos: s.pos, Delta: delta}); err != nil {
			return err
		}
		s.lastPos = s.pos
	}
	if s.size != s.lastSize {
		if err := s.send(ctx, WindowResized{Size: s.size}); err != nil {
			return err
		}
		s.lastSize = s.size
	}
	return nil
}

// Run reads passes from src until it returns io.EOF, a CloseRequestedEvent
// arrives, the simulation stops listening, or ctx is done. Both producer
// ends are closed on return so the peers observe the shutdown.
//
// Run returns nil for an orderly end and ctx.Err() on cancellation.
func (s *Server) Run(ctx context.Context, src Source) error {
	defer s.Close()
	log := logging.Logger()
	log.Info("input: started")
	defer log.Info("input: stopped")

	for {
		events, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("input: read events: %w", err)
		}
		for _, ev := range events {
			if _, ok := ev.(CloseRequestedEvent); ok {
				log.Debug("input: close requested")
				return ignoreClosed(s.Finalize(ctx))
			}
			if err := s.Push(ctx, ev); err != nil {
				return ignoreClosed(err)
			}
		}
		if err := s.Finalize(ctx); err != nil {
			return ignoreClosed(err)
		}
	}
}

// Close closes the message queue and the cursor slot.
func (s *Server) Close() {
	s.messages.Close()
	if s.cursor != nil {
		s.cursor.Close()
	}
}

func (s *Server) send(ctx context.Context, m Message) error {
	err := s.messages.Push(ctx, m)
	if errors.Is(err, spsc.ErrFull) {
		logging.Logger().Warn("input: queue full, message dropped",
			"message", fmt.Sprintf("%T", m), "dropped", s.messages.Dropped())
		return nil
	}
	if err != nil {
		return fmt.Errorf("input: send %T: %w", m, err)
	}
	return nil
}

// recenter converts the raw cursor position to centered, y-up coordinates
// for the current window size and publishes the result.
func (s *Server) recenter() error {
	s.pos = f32.Vec2{
		s.raw[0] - s.size[0]/2,
		s.size[1]/2 - s.raw[1],
	}
	if s.cursor == nil {
		return nil
	}
	if err := s.cursor.Publish(s.pos); err != nil {
		return fmt.Errorf("input: publish cursor: %w", err)
	}
	return nil
}

// ignoreClosed maps a closed peer to an orderly stop.
func ignoreClosed(err error) error {
	if errors.Is(err, spsc.ErrClosed) {
		return nil
	}
	return err
}
