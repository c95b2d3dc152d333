// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package slotmap provides generational handles over densely packed storage.
//
// A [Key] names one logical slot from the moment it is added until it is
// removed. Removal compacts storage by moving the last element into the
// freed position, so dense indices change while keys stay valid.
//
// Identifiers are recycled, but every reuse bumps the identifier's
// generation. A key that outlived its slot fails validation with
// [ErrStaleKey] instead of aliasing whatever now occupies the identifier.
//
// Two structures are provided:
//
//   - [Tracker] keeps only the key bookkeeping and reports dense indices.
//     Callers that keep their own dense storage (for example a GPU mirror
//     buffer) drive it in lockstep with the tracker.
//   - [Map] pairs a Tracker with a dense slice of values.
//
// Trackers are deterministic: two trackers fed the same sequence of Add,
// Remove and Clear calls issue identical keys. This lets one thread allocate
// keys locally for objects that another thread stores.
//
// Neither type is safe for concurrent use. Each instance is owned by a single
// goroutine; only Key values cross goroutine boundaries.
package slotmap

import (
	"errors"
	"fmt"
)

// ErrStaleKey is returned when a key no longer refers to a live slot.
// Use errors.Is to detect it; the concrete error is a *StaleKeyError.
var ErrStaleKey = errors.New("slotmap: stale key")

// Key is a generational handle. The zero Key never validates.
//
// The type parameter tags what the key refers to so keys of different maps
// cannot be mixed up at compile time.
type Key[T any] struct {
	id  uint32
	gen uint32
}

// ID returns the slot identifier.
func (k Key[T]) ID() uint32 { return k.id }

// Generation returns the generation the key was issued at.
func (k Key[T]) Generation() uint32 { return k.gen }

// IsZero reports whether k is the zero Key.
func (k Key[T]) IsZero() bool { return k.gen == 0 }

// String returns a debug representation "id@gen".
func (k Key[T]) String() string {
	return fmt.Sprintf("%d@%d", k.id, k.gen)
}

// StaleKeyError describes a failed key lookup.
type StaleKeyError struct {
	ID         uint32
	Generation uint32
	// Live is the generation currently live for ID, or 0 if the identifier
	// was never issued or is free.
	Live uint32
}

func (e *StaleKeyError) Error() string {
	if e.Live == 0 {
		return fmt.Sprintf("slotmap: stale key %d@%d (slot not live)", e.ID, e.Generation)
	}
	return fmt.Sprintf("slotmap: stale key %d@%d (live generation %d)", e.ID, e.Generation, e.Live)
}

// Unwrap makes errors.Is(err, ErrStaleKey) succeed.
func (e *StaleKeyError) Unwrap() error { return ErrStaleKey }
