// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"

	"github.com/gogpu/triad/slotmap"
	"github.com/gogpu/triad/spsc"
)

// Client is the simulation thread's handle on the renderer.
//
// Every call sends one command to the render Server. Tokens are issued
// immediately: the Client keeps key-only trackers that mirror the
// Server's storage, so both sides issue identical keys for the same
// command sequence. A call that returns an error sent nothing and changed
// nothing, which keeps the two sides in lockstep.
//
// Client is not safe for concurrent use.
type Client struct {
	queue *spsc.Producer[Message]

	batches *slotmap.Tracker[batch]
	sprites []*slotmap.Tracker[Sprite] // per batch, by dense batch index
	texts   *slotmap.Tracker[Text]
}

// NewClient creates a client sending commands through queue.
func NewClient(queue *spsc.Producer[Message]) *Client {
	return &Client{
		queue:   queue,
		batches: slotmap.NewTracker[batch](),
		texts:   slotmap.NewTracker[Text](),
	}
}

// CreateBatch creates an empty batch.
func (c *Client) CreateBatch(ctx context.Context, settings BatchSettings) (BatchToken, error) {
	tok := BatchToken{key: c.batches.Next()}
	if err := c.send(ctx, CreateBatch{Batch: tok, Settings: settings}); err != nil {
		return BatchToken{}, err
	}
	c.batches.Add()
	c.sprites = append(c.sprites, slotmap.NewTracker[Sprite]())
	return tok, nil
}

// UpdateBatch replaces the settings of a batch.
func (c *Client) UpdateBatch(ctx context.Context, tok BatchToken, settings BatchSettings) error {
	if _, err := c.batches.Index(tok.key); err != nil {
		return err
	}
	return c.send(ctx, UpdateBatch{Batch: tok, Settings: settings})
}

// RemoveBatch removes a batch. Its sprite tokens become stale.
func (c *Client) RemoveBatch(ctx context.Context, tok BatchToken) error {
	if _, err := c.batches.Index(tok.key); err != nil {
		return err
	}
	if err := c.send(ctx, RemoveBatch{Batch: tok}); err != nil {
		return err
	}
	i, _ := c.batches.Remove(tok.key)
	last := len(c.sprites) - 1
	c.sprites[i] = c.sprites[last]
	c.sprites[last] = nil
	c.sprites = c.sprites[:last]
	return nil
}

// ClearBatch removes every sprite of a batch.
func (c *Client) ClearBatch(ctx context.Context, tok BatchToken) error {
	i, err := c.batches.Index(tok.key)
	if err != nil {
		return err
	}
	if err := c.send(ctx, ClearBatch{Batch: tok}); err != nil {
		return err
	}
	c.sprites[i].Clear()
	return nil
}

// AddSprite appends a sprite to a batch.
func (c *Client) AddSprite(ctx context.Context, b BatchToken, s Sprite) (SpriteToken, error) {
	i, err := c.batches.Index(b.key)
	if err != nil {
		return SpriteToken{}, err
	}
	tr := c.sprites[i]
	tok := SpriteToken{batch: b, key: tr.Next()}
	if err := c.send(ctx, AddSprite{Sprite: tok, Value: s}); err != nil {
		return SpriteToken{}, err
	}
	tr.Add()
	return tok, nil
}

// UpdateSprite overwrites a sprite.
func (c *Client) UpdateSprite(ctx context.Context, tok SpriteToken, s Sprite) error {
	if _, err := c.spriteTracker(tok); err != nil {
		return err
	}
	return c.send(ctx, UpdateSprite{Sprite: tok, Value: s})
}

// RemoveSprite removes a sprite from its batch.
func (c *Client) RemoveSprite(ctx context.Context, tok SpriteToken) error {
	tr, err := c.spriteTracker(tok)
	if err != nil {
		return err
	}
	if err := c.send(ctx, RemoveSprite{Sprite: tok}); err != nil {
		return err
	}
	_, _ = tr.Remove(tok.key)
	return nil
}

// AddText adds a text.
func (c *Client) AddText(ctx context.Context, t Text) (TextToken, error) {
	tok := TextToken{key: c.texts.Next()}
	if err := c.send(ctx, AddText{Text: tok, Value: t}); err != nil {
		return TextToken{}, err
	}
	c.texts.Add()
	return tok, nil
}

// UpdateText replaces a text.
func (c *Client) UpdateText(ctx context.Context, tok TextToken, t Text) error {
	if _, err := c.texts.Index(tok.key); err != nil {
		return err
	}
	return c.send(ctx, UpdateText{Text: tok, Value: t})
}

// RemoveText removes a text.
func (c *Client) RemoveText(ctx context.Context, tok TextToken) error {
	if _, err := c.texts.Index(tok.key); err != nil {
		return err
	}
	if err := c.send(ctx, RemoveText{Text: tok}); err != nil {
		return err
	}
	_, _ = c.texts.Remove(tok.key)
	return nil
}

// Batches returns the number of live batches.
func (c *Client) Batches() int { return c.batches.Len() }

// Sprites returns the number of live sprites in a batch.
func (c *Client) Sprites(b BatchToken) (int, error) {
	i, err := c.batches.Index(b.key)
	if err != nil {
		return 0, err
	}
	return c.sprites[i].Len(), nil
}

// Texts returns the number of live texts.
func (c *Client) Texts() int { return c.texts.Len() }

// Close tells the render thread no more commands will follow.
func (c *Client) Close() { c.queue.Close() }

func (c *Client) spriteTracker(tok SpriteToken) (*slotmap.Tracker[Sprite], error) {
	i, err := c.batches.Index(tok.batch.key)
	if err != nil {
		return nil, err
	}
	tr := c.sprites[i]
	if _, err := tr.Index(tok.key); err != nil {
		return nil, err
	}
	return tr, nil
}

func (c *Client) send(ctx context.Context, m Message) error {
	if err := c.queue.Push(ctx, m); err != nil {
		return fmt.Errorf("render: send %T: %w", m, err)
	}
	return nil
}
