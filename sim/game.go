// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sim runs the simulation thread.
//
// A Runner drives a Game at a fixed tick rate. Each tick it hands the
// game every input message that arrived since the previous tick, then
// calls Update. The game draws by sending commands through the
// render.Client in its World and keeps its entities in World.Entities.
package sim

import (
	"context"
	"errors"
	"time"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/triad/input"
	"github.com/gogpu/triad/render"
	"github.com/gogpu/triad/slotmap"
)

// ErrQuit is returned by a Game to end the simulation. Run then returns
// nil.
var ErrQuit = errors.New("sim: quit")

// Game is the application logic. All methods run on the simulation thread.
type Game[E any] interface {
	// Init is called once before the first tick.
	Init(ctx context.Context, w *World[E]) error
	// Input handles one input message. The World already reflects it.
	Input(ctx context.Context, w *World[E], m input.Message) error
	// Update advances the simulation by dt.
	Update(ctx context.Context, w *World[E], dt time.Duration) error
}

// World is the state a Game works on.
type World[E any] struct {
	// Render sends commands to the render thread.
	Render *render.Client
	// Entities stores the game's entities.
	Entities *slotmap.Map[E]

	// Cursor is the last cursor position in centered, y-up pixels.
	Cursor f32.Vec2
	// Size is the last window size in pixels.
	Size f32.Vec2
	// Hovered reports whether the cursor is inside the window.
	Hovered bool
	// Pressed holds the buttons currently held down.
	Pressed map[input.Button]bool

	// Tick counts completed updates.
	Tick uint64
	// Elapsed is the simulated time.
	Elapsed time.Duration
}

func newWorld[E any](client *render.Client) *World[E] {
	return &World[E]{
		Render:   client,
		Entities: slotmap.New[E](),
		Pressed:  make(map[input.Button]bool),
	}
}

// observe updates the window state from m. It reports whether the window
// was resized.
func (w *World[E]) observe(m input.Message) (resized bool) {
	switch m := m.(type) {
	case input.CursorMoved:
		w.Cursor = m.Pos
	case input.CursorPressed:
		w.Cursor = m.Pos
		w.Pressed[m.Button] = true
	case input.CursorReleased:
		w.Cursor = m.Pos
		delete(w.Pressed, m.Button)
	case input.CursorEntered:
		w.Hovered = true
	case input.CursorLeft:
		w.Hovered = false
	case input.WindowResized:
		w.Size = m.Size
		return true
	}
	return false
}

// GameFuncs adapts plain functions to Game. Nil functions do nothing.
type GameFuncs[E any] struct {
	InitFunc   func(ctx context.Context, w *World[E]) error
	InputFunc  func(ctx context.Context, w *World[E], m input.Message) error
	UpdateFunc func(ctx context.Context, w *World[E], dt time.Duration) error
}

// Init implements Game.
func (g GameFuncs[E]) Init(ctx context.Context, w *World[E]) error {
	if g.InitFunc == nil {
		return nil
	}
	return g.InitFunc(ctx, w)
}

// Input implements Game.
func (g GameFuncs[E]) Input(ctx context.Context, w *World[E], m input.Message) error {
	if g.InputFunc == nil {
		return nil
	}
	return g.InputFunc(ctx, w, m)
}

// Update implements Game.
func (g GameFuncs[E]) Update(ctx context.Context, w *World[E], dt time.Duration) error {
	if g.UpdateFunc == nil {
		return nil
	}
	return g.UpdateFunc(ctx, w, dt)
}
