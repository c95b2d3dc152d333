// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/triad/gpubuf"
	"github.com/gogpu/triad/internal/logging"
	"github.com/gogpu/triad/slotmap"
	"github.com/gogpu/triad/spsc"
)

// Server errors.
var (
	// ErrNoCommands is returned by NewServer without a command queue.
	ErrNoCommands = errors.New("render: command queue is required")

	// ErrOutOfSync is returned when a create command carries a key other
	// than the one the server would issue. The client and the server no
	// longer mirror each other and every later token would be wrong.
	ErrOutOfSync = errors.New("render: client and server keys diverged")
)

// Channels are the render thread's inbound ends.
type Channels struct {
	// Commands carries render commands from the simulation. Required.
	Commands *spsc.Consumer[Message]
	// Resized is notified when the window size changed. Optional.
	Resized *spsc.Listener
	// Cursor carries the newest cursor position from the input thread.
	// Optional.
	Cursor *spsc.Reader[f32.Vec2]
}

// batchState is the render-side state of one batch. The sprite tracker
// and the instance buffer share dense indices: both swap-remove together.
type batchState struct {
	settings BatchSettings
	sprites  *slotmap.Tracker[Sprite]
	buf      *gpubuf.Buffer[Sprite]
}

// Server owns everything drawn: batches with their instance buffers, and
// texts. It runs on the render thread and applies the commands of a
// Client.
type Server struct {
	ch        Channels
	alloc     Allocator
	presenter Presenter
	opts      serverOptions

	batches *slotmap.Tracker[batch]
	states  []batchState // by dense batch index
	texts   *slotmap.Map[Text]

	pending []Message
	frame   Frame
	frames  uint64
	stale   uint64
}

// NewServer creates a render server. A nil alloc uses MemoryAllocator; a
// nil presenter builds frames without presenting them.
func NewServer(ch Channels, alloc Allocator, presenter Presenter, opts ...ServerOption) (*Server, error) {
	if ch.Commands == nil {
		return nil, ErrNoCommands
	}
	if alloc == nil {
		alloc = MemoryAllocator{}
	}
	o := defaultServerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		ch:        ch,
		alloc:     alloc,
		presenter: presenter,
		opts:      o,
		batches:   slotmap.NewTracker[batch](),
		texts:     slotmap.New[Text](),
	}, nil
}

// Apply executes one command.
//
// Commands that reference a removed batch, sprite or text return an error
// wrapping slotmap.ErrStaleKey and change nothing. Tick logs and skips
// them: a late reference is not fatal.
func (s *Server) Apply(m Message) error {
	switch m := m.(type) {
	case CreateBatch:
		return s.createBatch(m)
	case UpdateBatch:
		st, err := s.batch(m.Batch)
		if err != nil {
			return err
		}
		st.settings = m.Settings
	case RemoveBatch:
		i, err := s.batches.Remove(m.Batch.key)
		if err != nil {
			return err
		}
		s.states[i].buf.Release()
		last := len(s.states) - 1
		s.states[i] = s.states[last]
		s.states[last] = batchState{}
		s.states = s.states[:last]
	case ClearBatch:
		st, err := s.batch(m.Batch)
		if err != nil {
			return err
		}
		st.sprites.Clear()
		st.buf.Clear()
	case AddSprite:
		st, err := s.batch(m.Sprite.batch)
		if err != nil {
			return err
		}
		if next := st.sprites.Next(); next != m.Sprite.key {
			return fmt.Errorf("%w: add %s, expected key %s", ErrOutOfSync, m.Sprite, next)
		}
		st.sprites.Add()
		st.buf.Append(m.Value)
	case UpdateSprite:
		st, err := s.batch(m.Sprite.batch)
		if err != nil {
			return err
		}
		i, err := st.sprites.Index(m.Sprite.key)
		if err != nil {
			return err
		}
		return st.buf.Set(i, m.Value)
	case RemoveSprite:
		st, err := s.batch(m.Sprite.batch)
		if err != nil {
			return err
		}
		i, err := st.sprites.Remove(m.Sprite.key)
		if err != nil {
			return err
		}
		_, err = st.buf.SwapRemove(i)
		return err
	case AddText:
		if next := s.texts.Next(); next != m.Text.key {
			return fmt.Errorf("%w: add %s, expected key %s", ErrOutOfSync, m.Text, next)
		}
		s.texts.Add(m.Value)
	case UpdateText:
		_, t, err := s.texts.Ptr(m.Text.key)
		if err != nil {
			return err
		}
		*t = m.Value
	case RemoveText:
		if _, _, err := s.texts.Remove(m.Text.key); err != nil {
			return err
		}
	default:
		return fmt.Errorf("render: unknown message %T", m)
	}
	return nil
}

func (s *Server) createBatch(m CreateBatch) error {
	if next := s.batches.Next(); next != m.Batch.key {
		return fmt.Errorf("%w: create %s, expected key %s", ErrOutOfSync, m.Batch, next)
	}
	sink, err := s.alloc.NewInstanceSink("triad_" + m.Batch.key.String())
	if err != nil {
		return fmt.Errorf("render: allocate %s: %w", m.Batch, err)
	}
	buf, err := gpubuf.New[Sprite](sink, s.opts.batchCapacity)
	if err != nil {
		sink.Release()
		return fmt.Errorf("render: create %s: %w", m.Batch, err)
	}
	s.batches.Add()
	s.states = append(s.states, batchState{
		settings: m.Settings,
		sprites:  slotmap.NewTracker[Sprite](),
		buf:      buf,
	})
	return nil
}

func (s *Server) batch(tok BatchToken) (*batchState, error) {
	i, err := s.batches.Index(tok.key)
	if err != nil {
		return nil, err
	}
	return &s.states[i], nil
}

// Tick runs one frame without blocking: it applies every queued command,
// reconfigures the presenter after a resize notification, reads the
// newest cursor, uploads changed sprites and presents the frame.
//
// Tick reports done once the simulation closed the command queue and the
// last commands were presented.
func (s *Server) Tick() (done bool, err error) {
	log := logging.Logger()

	msgs, qerr := s.ch.Commands.Drain(s.pending[:0])
	for _, m := range msgs {
		if err := s.Apply(m); err != nil {
			if !errors.Is(err, slotmap.ErrStaleKey) {
				return false, err
			}
			s.stale++
			log.Warn("render: ignoring command with stale key", "message", fmt.Sprintf("%T", m), "err", err)
		}
	}
	clear(msgs)
	s.pending = msgs[:0]
	done = errors.Is(qerr, spsc.ErrClosed)

	if s.ch.Resized != nil {
		// ErrClosed only means no more resizes will come.
		if resized, _ := s.ch.Resized.TryTake(); resized && s.presenter != nil {
			if err := s.presenter.Reconfigure(); err != nil {
				return false, fmt.Errorf("render: reconfigure: %w", err)
			}
		}
	}

	s.frame.reset(s.frames)
	if s.ch.Cursor != nil {
		_, _ = s.ch.Cursor.TryRecv()
		s.frame.Cursor = s.ch.Cursor.Last()
	}

	for i := range s.states {
		st := &s.states[i]
		if err := st.buf.Sync(); err != nil {
			return false, fmt.Errorf("render: sync batch %s: %w", s.batches.KeyAt(i), err)
		}
		if !st.settings.Visible {
			continue
		}
		s.frame.Draws = append(s.frame.Draws, Draw{
			Batch:     BatchToken{key: s.batches.KeyAt(i)},
			Transform: st.settings.Transform(),
			Instances: uint32(st.buf.Len()), //nolint:gosec // sprite counts fit uint32
			Sink:      st.buf.Sink(),
		})
	}
	s.frame.Texts = s.texts.Values()

	if s.presenter != nil {
		if err := s.presenter.Present(&s.frame); err != nil {
			return false, fmt.Errorf("render: present frame %d: %w", s.frames, err)
		}
	}
	s.frames++
	return done, nil
}

// Run calls Tick once per frame interval until the simulation closes the
// command queue or ctx is done. It returns nil for an orderly end.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()
	log := logging.Logger()
	log.Info("render: started", "interval", s.opts.frameInterval)
	defer func() { log.Info("render: stopped", "frames", s.frames, "stale", s.stale) }()

	ticker := time.NewTicker(s.opts.frameInterval)
	defer ticker.Stop()
	for {
		done, err := s.Tick()
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases every instance buffer and closes the inbound ends so
// peers fail with spsc.ErrClosed instead of blocking.
func (s *Server) Close() {
	for i := range s.states {
		s.states[i].buf.Release()
	}
	s.ch.Commands.Close()
	if s.ch.Resized != nil {
		s.ch.Resized.Close()
	}
	if s.ch.Cursor != nil {
		s.ch.Cursor.Close()
	}
}

// Frames returns the number of frames completed.
func (s *Server) Frames() uint64 { return s.frames }

// StaleCommands returns the number of commands skipped for stale keys.
func (s *Server) StaleCommands() uint64 { return s.stale }

// Batches returns the number of live batches.
func (s *Server) Batches() int { return s.batches.Len() }

// Settings returns the settings of a batch.
func (s *Server) Settings(tok BatchToken) (BatchSettings, error) {
	st, err := s.batch(tok)
	if err != nil {
		return BatchSettings{}, err
	}
	return st.settings, nil
}

// Sprites returns the sprites of a batch in instance order. The slice is
// valid until the next command.
func (s *Server) Sprites(tok BatchToken) ([]Sprite, error) {
	st, err := s.batch(tok)
	if err != nil {
		return nil, err
	}
	return st.buf.Items(), nil
}

// Sprite returns one sprite.
func (s *Server) Sprite(tok SpriteToken) (Sprite, error) {
	st, err := s.batch(tok.batch)
	if err != nil {
		return Sprite{}, err
	}
	i, err := st.sprites.Index(tok.key)
	if err != nil {
		return Sprite{}, err
	}
	return st.buf.At(i), nil
}

// Text returns one text.
func (s *Server) Text(tok TextToken) (Text, error) {
	_, t, err := s.texts.Get(tok.key)
	return t, err
}

// Texts returns the number of live texts.
func (s *Server) Texts() int { return s.texts.Len() }
