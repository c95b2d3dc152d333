// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpubuf mirrors a CPU-side slice into a GPU buffer, uploading only
// what changed.
//
// A [Buffer] tracks a single half-open index range [min, max) that covers
// every element touched since the last [Buffer.Sync]. Tracking one
// contiguous range instead of a set of indices keeps every mutation O(1) at
// the cost of sometimes uploading untouched elements between two edits.
//
// When the slice outgrows the allocated GPU capacity, Sync reallocates the
// device buffer at the new capacity and uploads the whole mirror; the full
// upload supersedes any pending partial range.
//
// The device side is abstracted by [Sink] so the range algorithm can run
// against [MemorySink] in tests and headless builds, and against [HALSink]
// on a real wgpu device.
package gpubuf

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/triad/internal/logging"
)

// DefaultCapacity is the element capacity used when New is given zero.
const DefaultCapacity = 16

// Buffer errors.
var (
	// ErrNilSink is returned when creating a buffer without a sink.
	ErrNilSink = errors.New("gpubuf: sink is nil")

	// ErrInvalidSize is returned for zero-sized element types.
	ErrInvalidSize = errors.New("gpubuf: element size must be positive")

	// ErrIndexOutOfRange is returned when Set or SwapRemove is given an
	// index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("gpubuf: index out of range")

	// ErrWriteOutOfRange is returned by sinks when a write does not fit the
	// allocated storage.
	ErrWriteOutOfRange = errors.New("gpubuf: write out of range")
)

// Buffer is a growable slice of T mirrored into a Sink.
//
// T must be plain data (no pointers, slices, maps or strings): its in-memory
// representation is uploaded byte for byte, including padding.
//
// Buffer is not safe for concurrent use. It belongs to the goroutine that
// owns the sink.
type Buffer[T any] struct {
	sink     Sink
	items    []T
	elemSize uintptr

	// gpuCap is the element capacity of the current device allocation.
	gpuCap int

	dirty    bool
	min, max int
}

// New creates a buffer with room for capacity elements and allocates the
// matching device storage. A capacity of zero or less uses DefaultCapacity.
func New[T any](sink Sink, capacity int) (*Buffer[T], error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	var zero T
	elemSize := unsafe.Sizeof(zero)
	if elemSize == 0 {
		return nil, ErrInvalidSize
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	items := make([]T, 0, capacity)
	size := uint64(cap(items)) * uint64(elemSize)
	if err := sink.Allocate(size); err != nil {
		return nil, fmt.Errorf("gpubuf: allocate %d bytes: %w", size, err)
	}

	return &Buffer[T]{
		sink:     sink,
		items:    items,
		elemSize: elemSize,
		gpuCap:   cap(items),
	}, nil
}

// Len returns the number of elements.
func (b *Buffer[T]) Len() int { return len(b.items) }

// Cap returns the CPU-side element capacity.
func (b *Buffer[T]) Cap() int { return cap(b.items) }

// DeviceCap returns the element capacity of the device allocation.
func (b *Buffer[T]) DeviceCap() int { return b.gpuCap }

// ElemSize returns the byte stride of one element.
func (b *Buffer[T]) ElemSize() uintptr { return b.elemSize }

// Sink returns the sink the buffer mirrors into.
func (b *Buffer[T]) Sink() Sink { return b.sink }

// Dirty reports whether there are changes not yet synchronized.
func (b *Buffer[T]) Dirty() bool { return b.dirty }

// Range returns the pending dirty range [min, max). It is (0, 0) when the
// buffer is clean.
func (b *Buffer[T]) Range() (lo, hi int) { return b.min, b.max }

// Items returns the CPU-side elements. The slice must not be modified and
// is valid until the next mutation.
func (b *Buffer[T]) Items() []T { return b.items }

// At returns the element at index i. It panics if i is out of range.
func (b *Buffer[T]) At(i int) T { return b.items[i] }

// Append adds v at index Len().
func (b *Buffer[T]) Append(v T) {
	start := len(b.items)
	b.items = append(b.items, v)
	b.mark(start)
}

// Set overwrites the element at index i.
func (b *Buffer[T]) Set(i int, v T) error {
	if i < 0 || i >= len(b.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(b.items))
	}
	b.items[i] = v
	b.mark(i)
	return nil
}

// SwapRemove removes the element at index i by moving the last element into
// its place, and returns the removed element.
func (b *Buffer[T]) SwapRemove(i int) (T, error) {
	if i < 0 || i >= len(b.items) {
		var zero T
		return zero, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(b.items))
	}

	last := len(b.items) - 1
	v := b.items[i]
	b.items[i] = b.items[last]
	var zero T
	b.items[last] = zero
	b.items = b.items[:last]

	if i < last {
		b.mark(i)
	}
	if b.dirty && b.max > last {
		b.max = last
		if b.min >= b.max {
			b.clean()
		}
	}
	return v, nil
}

// Clear removes every element. The allocations are kept.
func (b *Buffer[T]) Clear() {
	clear(b.items)
	b.items = b.items[:0]
	b.clean()
}

// Sync uploads pending changes to the sink.
//
// If the CPU capacity grew past the device allocation, the device buffer is
// reallocated at the new capacity and the whole mirror is written.
// Otherwise only the bytes of the dirty range are written, at their own
// offset. Sync is a no-op for a clean buffer. On error the buffer stays
// dirty and the next Sync retries.
func (b *Buffer[T]) Sync() error {
	if !b.dirty {
		return nil
	}

	if cap(b.items) > b.gpuCap {
		size := uint64(cap(b.items)) * uint64(b.elemSize)
		if err := b.sink.Allocate(size); err != nil {
			return fmt.Errorf("gpubuf: reallocate %d bytes: %w", size, err)
		}
		if len(b.items) > 0 {
			if err := b.sink.Write(0, b.bytes(0, len(b.items))); err != nil {
				return fmt.Errorf("gpubuf: full upload: %w", err)
			}
		}
		logging.Logger().Debug("gpubuf: reallocated",
			"elements", len(b.items), "capacity", cap(b.items), "bytes", size)
		b.gpuCap = cap(b.items)
		b.clean()
		return nil
	}

	offset := uint64(b.min) * uint64(b.elemSize)
	if err := b.sink.Write(offset, b.bytes(b.min, b.max)); err != nil {
		return fmt.Errorf("gpubuf: upload [%d, %d): %w", b.min, b.max, err)
	}
	b.clean()
	return nil
}

// Release frees the device storage.
func (b *Buffer[T]) Release() {
	b.sink.Release()
	b.gpuCap = 0
	if len(b.items) > 0 {
		b.dirty = true
		b.min, b.max = 0, len(b.items)
	}
}

// mark widens the dirty range to include index i.
func (b *Buffer[T]) mark(i int) {
	if !b.dirty {
		b.dirty = true
		b.min, b.max = i, i+1
		return
	}
	b.min = min(b.min, i)
	b.max = max(b.max, i+1)
}

func (b *Buffer[T]) clean() {
	b.dirty = false
	b.min, b.max = 0, 0
}

// bytes returns the in-memory bytes of items[lo:hi].
func (b *Buffer[T]) bytes(lo, hi int) []byte {
	if hi <= lo {
		return nil
	}
	ptr := unsafe.Pointer(&b.items[lo])
	return unsafe.Slice((*byte)(ptr), uintptr(hi-lo)*b.elemSize) //nolint:gosec // plain-data element reinterpretation
}
