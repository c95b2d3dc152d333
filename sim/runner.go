// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/triad/input"
	"github.com/gogpu/triad/internal/logging"
	"github.com/gogpu/triad/render"
	"github.com/gogpu/triad/spsc"
)

// ErrNoChannels is returned by NewRunner when a required end is missing.
var ErrNoChannels = errors.New("sim: input queue and render queue are required")

// Channels are the simulation thread's ends.
type Channels struct {
	// Input carries messages from the input thread. Required.
	Input *spsc.Consumer[input.Message]
	// Commands carries render commands to the render thread. Required.
	Commands *spsc.Producer[render.Message]
	// Resized tells the render thread to recheck its surface. Optional.
	Resized *spsc.Notifier
}

// Runner drives a Game on the simulation thread.
type Runner[E any] struct {
	ch    Channels
	game  Game[E]
	world *World[E]
	opts  options

	pending []input.Message
	inited  bool
}

// NewRunner creates a runner for game.
func NewRunner[E any](ch Channels, game Game[E], opts ...Option) (*Runner[E], error) {
	if ch.Input == nil || ch.Commands == nil {
		return nil, ErrNoChannels
	}
	if game == nil {
		return nil, errors.New("sim: game is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Runner[E]{
		ch:    ch,
		game:  game,
		world: newWorld[E](render.NewClient(ch.Commands)),
		opts:  o,
	}, nil
}

// World returns the game state. It must only be used on the simulation
// thread.
func (r *Runner[E]) World() *World[E] { return r.world }

// Interval returns the time between updates.
func (r *Runner[E]) Interval() time.Duration { return r.opts.interval }

// Tick runs one update: it delivers every queued input message to the
// game, forwarding resizes to the render thread, and then calls Update.
// Init runs before the first tick.
//
// Tick reports done once the input thread closed its queue; the pending
// messages and a final Update were still processed.
func (r *Runner[E]) Tick(ctx context.Context) (done bool, err error) {
	if !r.inited {
		if err := r.game.Init(ctx, r.world); err != nil {
			return false, fmt.Errorf("sim: init: %w", err)
		}
		r.inited = true
	}

	msgs, qerr := r.ch.Input.Drain(r.pending[:0])
	for _, m := range msgs {
		if r.world.observe(m) && r.ch.Resized != nil {
			if err := r.ch.Resized.Notify(); err != nil {
				return false, fmt.Errorf("sim: notify resize: %w", err)
			}
		}
		if err := r.game.Input(ctx, r.world, m); err != nil {
			return false, err
		}
	}
	clear(msgs)
	r.pending = msgs[:0]

	dt := r.opts.interval
	if err := r.game.Update(ctx, r.world, dt); err != nil {
		return false, err
	}
	r.world.Tick++
	r.world.Elapsed += dt
	return errors.Is(qerr, spsc.ErrClosed), nil
}

// Run ticks at the configured rate until the input queue closes, the game
// returns ErrQuit, the render thread stops listening, or ctx is done. The
// render queue and the resize signal are closed on return so the render
// thread observes the shutdown.
//
// Run returns nil for an orderly end and ctx.Err() on cancellation.
func (r *Runner[E]) Run(ctx context.Context) error {
	defer r.Close()
	log := logging.Logger()
	log.Info("sim: started", "interval", r.opts.interval)
	defer func() { log.Info("sim: stopped", "ticks", r.world.Tick) }()

	ticker := time.NewTicker(r.opts.interval)
	defer ticker.Stop()
	for {
		done, err := r.Tick(ctx)
		switch {
		case errors.Is(err, ErrQuit):
			log.Debug("sim: game quit")
			return nil
		case errors.Is(err, spsc.ErrClosed):
			log.Debug("sim: render thread closed", "err", err)
			return nil
		case err != nil:
			return err
		case done:
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the render queue and the resize signal, and stops
// listening for input.
func (r *Runner[E]) Close() {
	r.world.Render.Close()
	if r.ch.Resized != nil {
		r.ch.Resized.Close()
	}
	r.ch.Input.Close()
}
