// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// PixelSize is the number of texture units per pixel.
const PixelSize = 8

// Texture errors.
var (
	// ErrZeroSize is returned for sub-texture requests with zero width or
	// height.
	ErrZeroSize = errors.New("render: sub-texture size must be positive")

	// ErrOutOfBounds is returned for sub-texture requests that extend past
	// the source texture.
	ErrOutOfBounds = errors.New("render: sub-texture outside source bounds")
)

// Texture references a rectangle of the texture atlas in texture units
// (PixelSize units per pixel). Swapped bounds mirror the image.
type Texture struct {
	XMin, XMax, YMin, YMax uint16
}

// DefaultTexture references a one-pixel white square.
func DefaultTexture() Texture {
	return Texture{XMin: 0, XMax: PixelSize, YMin: 0, YMax: PixelSize}
}

// MirrorY flips the texture horizontally, across the Y axis.
func (t Texture) MirrorY() Texture {
	t.XMin, t.XMax = t.XMax, t.XMin
	return t
}

// MirrorX flips the texture vertically, across the X axis.
func (t Texture) MirrorX() Texture {
	t.YMin, t.YMax = t.YMax, t.YMin
	return t
}

// SubTexture returns the region of t that starts minX, minY pixels from
// its top-left corner and spans width by height pixels. The result is not
// mirrored even if t is.
func (t Texture) SubTexture(minX, minY, width, height uint16) (Texture, error) {
	if width == 0 || height == 0 {
		return Texture{}, fmt.Errorf("%w: %dx%d", ErrZeroSize, width, height)
	}

	left, right := uint32(min(t.XMin, t.XMax)), uint32(max(t.XMin, t.XMax))
	top, bottom := uint32(min(t.YMin, t.YMax)), uint32(max(t.YMin, t.YMax))

	// 32-bit arithmetic: a request past 0xFFFF units is reported, not wrapped.
	x0 := left + uint32(minX)*PixelSize
	x1 := left + (uint32(minX)+uint32(width))*PixelSize
	y0 := top + uint32(minY)*PixelSize
	y1 := top + (uint32(minY)+uint32(height))*PixelSize

	if x1 > right || y1 > bottom {
		return Texture{}, fmt.Errorf("%w: [%d,%d]x[%d,%d] in [%d,%d]x[%d,%d]",
			ErrOutOfBounds, x0, x1, y0, y1, left, right, top, bottom)
	}
	return Texture{
		XMin: uint16(x0), //nolint:gosec // bounded by right above
		XMax: uint16(x1), //nolint:gosec // bounded by right above
		YMin: uint16(y0), //nolint:gosec // bounded by bottom above
		YMax: uint16(y1), //nolint:gosec // bounded by bottom above
	}, nil
}

// Width returns the width in pixels.
func (t Texture) Width() int {
	return absDiff(t.XMin, t.XMax) / PixelSize
}

// Height returns the height in pixels.
func (t Texture) Height() int {
	return absDiff(t.YMin, t.YMax) / PixelSize
}

func absDiff(a, b uint16) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
