// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"math"

	"golang.org/x/image/math/f32"
)

// BatchSettings configures how a whole batch of sprites is drawn.
type BatchSettings struct {
	// Translation moves the batch, in pixels.
	Translation f32.Vec2
	// Scale zooms the batch; 1 draws one sprite pixel per screen pixel.
	Scale float32
	// Rotation in turns. Values outside [0, 1) wrap.
	Rotation float32
	// Visible reports whether the batch is drawn.
	Visible bool
}

// DefaultBatchSettings returns visible, untransformed settings.
func DefaultBatchSettings() BatchSettings {
	return BatchSettings{Scale: 1, Visible: true}
}

// Transform returns the batch matrix Scale * Translation * RotationZ in
// row-major order.
func (s BatchSettings) Transform() f32.Mat4 {
	angle := 2 * math.Pi * float64(s.Rotation)
	sin, cos := float32(math.Sin(angle)), float32(math.Cos(angle))
	k := s.Scale
	return f32.Mat4{
		k * cos, -k * sin, 0, k * s.Translation[0],
		k * sin, k * cos, 0, k * s.Translation[1],
		0, 0, k, 0,
		0, 0, 0, 1,
	}
}
