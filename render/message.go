// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/triad/slotmap"
)

// batch is the key type of batches. Its render-side state lives in
// batchState; the simulation side only tracks keys.
type batch struct{}

// BatchToken references a batch.
type BatchToken struct {
	key slotmap.Key[batch]
}

// IsZero reports whether the token was never issued.
func (t BatchToken) IsZero() bool { return t.key.IsZero() }

func (t BatchToken) String() string { return "batch " + t.key.String() }

// SpriteToken references a sprite within its batch.
type SpriteToken struct {
	batch BatchToken
	key   slotmap.Key[Sprite]
}

// Batch returns the batch the sprite belongs to.
func (t SpriteToken) Batch() BatchToken { return t.batch }

// IsZero reports whether the token was never issued.
func (t SpriteToken) IsZero() bool { return t.key.IsZero() }

func (t SpriteToken) String() string {
	return fmt.Sprintf("sprite %s in %s", t.key, t.batch)
}

// TextToken references a text.
type TextToken struct {
	key slotmap.Key[Text]
}

// IsZero reports whether the token was never issued.
func (t TextToken) IsZero() bool { return t.key.IsZero() }

func (t TextToken) String() string { return "text " + t.key.String() }

// Message is a render command sent from the simulation thread to the
// render thread. The set of implementations is closed.
type Message interface {
	isMessage()
}

// CreateBatch creates an empty batch.
type CreateBatch struct {
	Batch    BatchToken
	Settings BatchSettings
}

// UpdateBatch replaces the settings of a batch.
type UpdateBatch struct {
	Batch    BatchToken
	Settings BatchSettings
}

// RemoveBatch removes a batch and all its sprites.
type RemoveBatch struct {
	Batch BatchToken
}

// ClearBatch removes all sprites of a batch.
type ClearBatch struct {
	Batch BatchToken
}

// AddSprite appends a sprite to its batch.
type AddSprite struct {
	Sprite SpriteToken
	Value  Sprite
}

// UpdateSprite overwrites a sprite in place.
type UpdateSprite struct {
	Sprite SpriteToken
	Value  Sprite
}

// RemoveSprite removes a sprite from its batch.
type RemoveSprite struct {
	Sprite SpriteToken
}

// AddText adds a text.
type AddText struct {
	Text  TextToken
	Value Text
}

// UpdateText replaces a text.
type UpdateText struct {
	Text  TextToken
	Value Text
}

// RemoveText removes a text.
type RemoveText struct {
	Text TextToken
}

func (CreateBatch) isMessage()  {}
func (UpdateBatch) isMessage()  {}
func (RemoveBatch) isMessage()  {}
func (ClearBatch) isMessage()   {}
func (AddSprite) isMessage()    {}
func (UpdateSprite) isMessage() {}
func (RemoveSprite) isMessage() {}
func (AddText) isMessage()      {}
func (UpdateText) isMessage()   {}
func (RemoveText) isMessage()   {}
