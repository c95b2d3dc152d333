// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/triad/input"
	"github.com/gogpu/triad/render"
	"github.com/gogpu/triad/sim"
	"github.com/gogpu/triad/slotmap"
)

const (
	ballSize  = 24
	ballSpeed = 240 // pixels per second
)

// ball is a bouncing sprite.
type ball struct {
	sprite render.SpriteToken
	pos    f32.Vec2
	vel    f32.Vec2
	hue    uint8
}

// game spawns a ball at every click and bounces the balls off the window
// edges. A text line shows the ball count.
type game struct {
	batch render.BatchToken
	label render.TextToken
	shown int

	// Read by main after the topology has stopped.
	spawned int
	ticks   uint64
}

func (g *game) Init(ctx context.Context, w *sim.World[ball]) error {
	var err error
	if g.batch, err = w.Render.CreateBatch(ctx, render.DefaultBatchSettings()); err != nil {
		return err
	}
	g.label, err = w.Render.AddText(ctx, g.text(0))
	return err
}

func (g *game) Input(ctx context.Context, w *sim.World[ball], m input.Message) error {
	p, ok := m.(input.CursorPressed)
	if !ok || p.Button != input.ButtonLeft {
		return nil
	}
	angle := 2 * math.Pi * float64(g.spawned%16) / 16
	b := ball{
		pos: p.Pos,
		hue: uint8(g.spawned * 37), //nolint:gosec // wraps
		vel: f32.Vec2{ballSpeed * float32(math.Cos(angle)), ballSpeed * float32(math.Sin(angle))},
	}
	tok, err := w.Render.AddSprite(ctx, g.batch, b.instance())
	if err != nil {
		return err
	}
	b.sprite = tok
	w.Entities.Add(b)
	g.spawned++
	return nil
}

func (g *game) Update(ctx context.Context, w *sim.World[ball], dt time.Duration) error {
	sec := float32(dt.Seconds())
	half := f32.Vec2{w.Size[0] / 2, w.Size[1] / 2}

	var err error
	w.Entities.Each(func(_ slotmap.Key[ball], b *ball) bool {
		for axis := range 2 {
			b.pos[axis] += b.vel[axis] * sec
			if lim := half[axis] - ballSize/2; lim > 0 && (b.pos[axis] > lim || b.pos[axis] < -lim) {
				b.pos[axis] = max(-lim, min(lim, b.pos[axis]))
				b.vel[axis] = -b.vel[axis]
			}
		}
		err = w.Render.UpdateSprite(ctx, b.sprite, b.instance())
		return err == nil
	})
	if err != nil {
		return err
	}

	if n := w.Entities.Len(); n != g.shown {
		if err := w.Render.UpdateText(ctx, g.label, g.text(n)); err != nil {
			return err
		}
		g.shown = n
	}
	g.ticks = w.Tick + 1
	return nil
}

func (g *game) text(n int) render.Text {
	t := render.NewText(fmt.Sprintf("balls: %d", n))
	t.Pos = f32.Vec3{8, 8, 0}
	return t
}

// instance returns the sprite drawn for b.
func (b *ball) instance() render.Sprite {
	c := render.RGBA8{R: 255 - b.hue, G: b.hue, B: 128, A: 255}
	return render.NewSprite(
		f32.Vec3{b.pos[0], b.pos[1], 0},
		f32.Vec2{ballSize, ballSize},
		render.DefaultTexture(),
		c,
		0,
	)
}
