// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/triad/gpubuf"
)

// Draw is one visible batch of a frame.
type Draw struct {
	Batch     BatchToken
	Transform f32.Mat4
	// Instances is the number of sprites in the batch's sink.
	Instances uint32
	// Sink holds the synchronized sprite data.
	Sink gpubuf.Sink
}

// Frame is what the render thread hands to the Presenter once per tick.
// A Frame and its slices are only valid during Present.
type Frame struct {
	// Index counts presented frames, starting at 0.
	Index uint64
	// Cursor is the newest cursor position in centered, y-up pixels.
	Cursor f32.Vec2
	Draws  []Draw
	Texts  []Text
}

// Instances returns the total number of sprites drawn by the frame.
func (f *Frame) Instances() int {
	n := 0
	for i := range f.Draws {
		n += int(f.Draws[i].Instances)
	}
	return n
}

// Record binds the instance buffer of every HAL-backed draw at vertex slot
// 0 and issues an instanced draw of one quad per sprite. The caller sets
// the pipeline and its bind groups.
func (f *Frame) Record(rp hal.RenderPassEncoder) {
	_ = f.eachDrawable(func(d *Draw, sink *gpubuf.HALSink) error {
		recordDraw(rp, d, sink)
		return nil
	})
}

// eachDrawable calls fn for every draw with sprites in a device buffer. It
// stops at the first error.
func (f *Frame) eachDrawable(fn func(d *Draw, sink *gpubuf.HALSink) error) error {
	for i := range f.Draws {
		d := &f.Draws[i]
		sink, ok := d.Sink.(*gpubuf.HALSink)
		if !ok || d.Instances == 0 || sink.Buffer() == nil {
			continue
		}
		if err := fn(d, sink); err != nil {
			return err
		}
	}
	return nil
}

func recordDraw(rp hal.RenderPassEncoder, d *Draw, sink *gpubuf.HALSink) {
	sink.Bind(rp, 0)
	rp.Draw(spriteVertices, d.Instances, 0, 0)
}

func (f *Frame) reset(index uint64) {
	f.Index = index
	clear(f.Draws)
	f.Draws = f.Draws[:0]
	f.Texts = nil
}
