// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "image/color"

// RGBA8 is a non-premultiplied 8-bit-per-channel color, laid out as four
// consecutive bytes R, G, B, A.
type RGBA8 struct {
	R, G, B, A uint8
}

// Common colors.
var (
	White       = RGBA8{255, 255, 255, 255}
	Black       = RGBA8{0, 0, 0, 255}
	Transparent = RGBA8{}
)

// RGBA8FromColor converts any color.Color to RGBA8.
func RGBA8FromColor(c color.Color) RGBA8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA8{n.R, n.G, n.B, n.A}
}

// RGBA implements color.Color.
func (c RGBA8) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}
