// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"unsafe"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// Sprite is one instance of a batch, uploaded byte for byte as GPU
// instance data. The field order is the vertex layout; do not reorder.
type Sprite struct {
	// Pos is the position in pixels. Z orders sprites within a batch.
	Pos f32.Vec3
	// Size is the width and height in pixels.
	Size [2]uint16
	// Texture is the atlas region drawn on the sprite.
	Texture Texture
	// Color multiplies the texture.
	Color RGBA8
	// Rotation is in 1/65536ths of a turn; see EncodeRotation.
	Rotation uint16
}

// SpriteStride is the byte distance between consecutive sprites: 30 bytes
// of fields padded to 4-byte alignment.
const SpriteStride = unsafe.Sizeof(Sprite{})

// Byte offsets of the sprite fields.
const (
	spriteOffsetPos      = unsafe.Offsetof(Sprite{}.Pos)
	spriteOffsetSize     = unsafe.Offsetof(Sprite{}.Size)
	spriteOffsetTexture  = unsafe.Offsetof(Sprite{}.Texture)
	spriteOffsetColor    = unsafe.Offsetof(Sprite{}.Color)
	spriteOffsetRotation = unsafe.Offsetof(Sprite{}.Rotation)
)

// DefaultSprite returns a 100x100 white sprite at the origin.
func DefaultSprite() Sprite {
	return Sprite{
		Size:    [2]uint16{100, 100},
		Texture: DefaultTexture(),
		Color:   White,
	}
}

// NewSprite creates a sprite from float sizes and a rotation in turns.
// Sizes are truncated to whole pixels and wrap at 65536.
func NewSprite(pos f32.Vec3, size f32.Vec2, tex Texture, c RGBA8, rotation float32) Sprite {
	return Sprite{
		Pos: pos,
		Size: [2]uint16{
			uint16(uint32(size[0]) & 0xFFFF), //nolint:gosec // masked
			uint16(uint32(size[1]) & 0xFFFF), //nolint:gosec // masked
		},
		Texture:  tex,
		Color:    c,
		Rotation: EncodeRotation(rotation),
	}
}

// SpriteAttributes returns the per-instance vertex attributes of Sprite,
// starting at shader location 0. Rotation is read as uint16x2 together
// with the trailing padding.
func SpriteAttributes() []gputypes.VertexAttribute {
	return []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: uint64(spriteOffsetPos), ShaderLocation: 0},     // position
		{Format: gputypes.VertexFormatUint16x2, Offset: uint64(spriteOffsetSize), ShaderLocation: 1},     // size
		{Format: gputypes.VertexFormatUint16x4, Offset: uint64(spriteOffsetTexture), ShaderLocation: 2},  // texture
		{Format: gputypes.VertexFormatUnorm8x4, Offset: uint64(spriteOffsetColor), ShaderLocation: 3},    // color
		{Format: gputypes.VertexFormatUint16x2, Offset: uint64(spriteOffsetRotation), ShaderLocation: 4}, // rotation
	}
}

// spriteVertexLayout returns the instance-rate buffer layout for slot 0.
func spriteVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: uint64(SpriteStride),
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes:  SpriteAttributes(),
		},
	}
}
