// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package slotmap

import "math"

const defaultCapacity = 64

// slot is the per-identifier bookkeeping record.
type slot struct {
	gen   uint32 // last generation issued for this identifier
	index uint32 // dense index while live
	live  bool
}

// Tracker allocates generational keys and maps them to dense indices.
//
// An identifier whose generation reached math.MaxUint32 is never reissued,
// so keys do not alias after the generation space is exhausted.
//
// The dense index space is [0, Len()). Removing a key moves the element at
// the last dense index into the removed position; Remove reports the index
// that was freed so callers mirror the same swap in their own storage.
type Tracker[T any] struct {
	slots []slot   // indexed by identifier
	dense []uint32 // dense index -> identifier
	free  []uint32 // recycled identifiers, LIFO
}

// NewTracker creates an empty tracker.
func NewTracker[T any]() *Tracker[T] {
	return &Tracker[T]{
		slots: make([]slot, 0, defaultCapacity),
		dense: make([]uint32, 0, defaultCapacity),
	}
}

// Len returns the number of live keys.
func (t *Tracker[T]) Len() int {
	return len(t.dense)
}

// Add issues a new key. Its dense index is Len()-1 after the call.
func (t *Tracker[T]) Add() Key[T] {
	var id uint32
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		id = uint32(len(t.slots))
		t.slots = append(t.slots, slot{})
	}

	s := &t.slots[id]
	s.gen++
	s.index = uint32(len(t.dense))
	s.live = true
	t.dense = append(t.dense, id)

	return Key[T]{id: id, gen: s.gen}
}

// Next returns the key the next Add will issue, without issuing it.
func (t *Tracker[T]) Next() Key[T] {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		return Key[T]{id: id, gen: t.slots[id].gen + 1}
	}
	return Key[T]{id: uint32(len(t.slots)), gen: 1}
}

// retire frees id for reuse unless its generations are used up.
func (t *Tracker[T]) retire(id uint32) {
	if t.slots[id].gen == math.MaxUint32 {
		return
	}
	t.free = append(t.free, id)
}

// Index resolves a live key to its current dense index.
func (t *Tracker[T]) Index(k Key[T]) (int, error) {
	s, err := t.lookup(k)
	if err != nil {
		return 0, err
	}
	return int(s.index), nil
}

// Contains reports whether k is live.
func (t *Tracker[T]) Contains(k Key[T]) bool {
	_, err := t.lookup(k)
	return err == nil
}

// Remove retires k and returns the dense index it occupied. The element
// that was at the last dense index now lives at the returned index (unless
// k itself was last). On error the tracker is unchanged.
func (t *Tracker[T]) Remove(k Key[T]) (int, error) {
	s, err := t.lookup(k)
	if err != nil {
		return 0, err
	}

	index := s.index
	last := uint32(len(t.dense) - 1)
	if index != last {
		moved := t.dense[last]
		t.dense[index] = moved
		t.slots[moved].index = index
	}
	t.dense = t.dense[:last]

	s.live = false
	s.index = 0
	t.retire(k.id)

	return int(index), nil
}

// KeyAt returns the key stored at dense index i. It panics if i is out of
// range, like a slice index.
func (t *Tracker[T]) KeyAt(i int) Key[T] {
	id := t.dense[i]
	return Key[T]{id: id, gen: t.slots[id].gen}
}

// Clear retires every live key. Identifiers are recycled in ascending dense
// order so trackers cleared at the same point stay in lockstep.
func (t *Tracker[T]) Clear() {
	for i := len(t.dense) - 1; i >= 0; i-- {
		id := t.dense[i]
		s := &t.slots[id]
		s.live = false
		s.index = 0
		t.retire(id)
	}
	t.dense = t.dense[:0]
}

func (t *Tracker[T]) lookup(k Key[T]) (*slot, error) {
	if int(k.id) >= len(t.slots) {
		return nil, &StaleKeyError{ID: k.id, Generation: k.gen}
	}
	s := &t.slots[k.id]
	if !s.live {
		return nil, &StaleKeyError{ID: k.id, Generation: k.gen}
	}
	if s.gen != k.gen {
		return nil, &StaleKeyError{ID: k.id, Generation: k.gen, Live: s.gen}
	}
	return s, nil
}
