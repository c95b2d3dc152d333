// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package slotmap

// Map stores values under generational keys in a dense slice.
//
// Add, Get, Remove and Len are O(1). Iteration order follows the dense
// slice and changes whenever an element is removed.
type Map[T any] struct {
	keys   *Tracker[T]
	values []T
}

// New creates an empty map.
func New[T any]() *Map[T] {
	return &Map[T]{
		keys:   NewTracker[T](),
		values: make([]T, 0, defaultCapacity),
	}
}

// Len returns the number of live values.
func (m *Map[T]) Len() int {
	return len(m.values)
}

// Add appends value and returns its key.
func (m *Map[T]) Add(value T) Key[T] {
	m.values = append(m.values, value)
	return m.keys.Add()
}

// Next returns the key the next Add will issue.
func (m *Map[T]) Next() Key[T] {
	return m.keys.Next()
}

// Get returns the dense index and a copy of the value stored under k.
func (m *Map[T]) Get(k Key[T]) (int, T, error) {
	index, err := m.keys.Index(k)
	if err != nil {
		var zero T
		return 0, zero, err
	}
	return index, m.values[index], nil
}

// Ptr returns the dense index and a pointer to the value stored under k.
// The pointer is invalidated by the next Add, Remove or Clear.
func (m *Map[T]) Ptr(k Key[T]) (int, *T, error) {
	index, err := m.keys.Index(k)
	if err != nil {
		return 0, nil, err
	}
	return index, &m.values[index], nil
}

// Contains reports whether k is live.
func (m *Map[T]) Contains(k Key[T]) bool {
	return m.keys.Contains(k)
}

// Remove deletes the value under k by swapping the last value into its
// place. It returns the freed dense index and the removed value. On error
// the map is unchanged.
func (m *Map[T]) Remove(k Key[T]) (int, T, error) {
	index, err := m.keys.Remove(k)
	if err != nil {
		var zero T
		return 0, zero, err
	}

	value := m.values[index]
	last := len(m.values) - 1
	m.values[index] = m.values[last]
	var zero T
	m.values[last] = zero
	m.values = m.values[:last]

	return index, value, nil
}

// Clear removes every value and invalidates all outstanding keys.
func (m *Map[T]) Clear() {
	m.keys.Clear()
	clear(m.values)
	m.values = m.values[:0]
}

// Values returns the dense value slice. It is valid until the next mutation.
func (m *Map[T]) Values() []T {
	return m.values
}

// KeyAt returns the key of the value at dense index i.
func (m *Map[T]) KeyAt(i int) Key[T] {
	return m.keys.KeyAt(i)
}

// Each calls fn for every live value in dense order. fn must not mutate the
// map. Iteration stops early when fn returns false.
func (m *Map[T]) Each(fn func(Key[T], *T) bool) {
	for i := range m.values {
		if !fn(m.keys.KeyAt(i), &m.values[i]) {
			return
		}
	}
}
