// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package triad

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/triad/gpubuf"
	"github.com/gogpu/triad/render"
	"github.com/gogpu/triad/sim"
	"github.com/gogpu/triad/spsc"
)

// Default channel capacities.
const (
	DefaultInputQueue  = 256
	DefaultRenderQueue = 4
)

// ErrInvalidConfig is wrapped by every Config validation error.
var ErrInvalidConfig = errors.New("triad: invalid config")

// QueueConfig sizes one bounded queue.
type QueueConfig struct {
	// Capacity is rounded up to a power of two, at least 2.
	Capacity int
	// Overflow decides what a send into a full queue does.
	Overflow spsc.Overflow
}

// Config sizes the channels and sets the rates of a Topology.
type Config struct {
	// InputQueue carries input messages to the simulation.
	InputQueue QueueConfig
	// RenderQueue carries render commands to the render thread.
	RenderQueue QueueConfig
	// TickRate is the number of simulation updates per second.
	TickRate int
	// FrameInterval is the time between rendered frames.
	FrameInterval time.Duration
	// BatchCapacity is the initial sprite capacity of a new batch.
	BatchCapacity int
}

// DefaultConfig returns the default configuration: blocking queues of 256
// input messages and 4 render commands, 60 ticks and 60 frames per
// second.
func DefaultConfig() Config {
	return Config{
		InputQueue:    QueueConfig{Capacity: DefaultInputQueue, Overflow: spsc.Block},
		RenderQueue:   QueueConfig{Capacity: DefaultRenderQueue, Overflow: spsc.Block},
		TickRate:      sim.DefaultTickRate,
		FrameInterval: render.DefaultFrameInterval,
		BatchCapacity: gpubuf.DefaultCapacity,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.InputQueue.validate("input queue"); err != nil {
		return err
	}
	if err := c.RenderQueue.validate("render queue"); err != nil {
		return err
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("%w: tick rate %d must be positive", ErrInvalidConfig, c.TickRate)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame interval %v must be positive", ErrInvalidConfig, c.FrameInterval)
	}
	if c.BatchCapacity <= 0 {
		return fmt.Errorf("%w: batch capacity %d must be positive", ErrInvalidConfig, c.BatchCapacity)
	}
	return nil
}

func (q QueueConfig) validate(name string) error {
	if q.Capacity <= 0 {
		return fmt.Errorf("%w: %s capacity %d must be positive", ErrInvalidConfig, name, q.Capacity)
	}
	switch q.Overflow {
	case spsc.Block, spsc.Reject:
		return nil
	default:
		return fmt.Errorf("%w: %s overflow policy %v is unknown", ErrInvalidConfig, name, q.Overflow)
	}
}
