// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpubuf

import (
	"fmt"
)

// Sink is the GPU-side storage a Buffer mirrors into.
//
// Implementations wrap a single device buffer. Allocate replaces the
// current storage with size bytes of undefined content; Write copies data
// into the storage at a byte offset. Sinks are used from one goroutine only
// (the render thread).
type Sink interface {
	// Allocate (re)creates the device buffer with size bytes.
	// The previous storage, if any, is released.
	Allocate(size uint64) error

	// Write copies data to the device buffer at offset.
	Write(offset uint64, data []byte) error

	// Release frees the device buffer. The sink may be reused by calling
	// Allocate again.
	Release()
}

// WriteOp records one Write call on a MemorySink.
type WriteOp struct {
	Offset uint64
	Size   uint64
}

// MemorySink is a Sink backed by host memory.
//
// It keeps a byte copy of everything written and logs every Allocate and
// Write call, which makes it suitable for headless runs and for verifying
// upload behavior without a device.
type MemorySink struct {
	data   []byte
	allocs []uint64
	writes []WriteOp
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Allocate implements Sink.
func (s *MemorySink) Allocate(size uint64) error {
	s.data = make([]byte, size)
	s.allocs = append(s.allocs, size)
	return nil
}

// Write implements Sink.
func (s *MemorySink) Write(offset uint64, data []byte) error {
	end := offset + uint64(len(data))
	if end > uint64(len(s.data)) {
		return fmt.Errorf("%w: write [%d, %d) exceeds allocation of %d bytes",
			ErrWriteOutOfRange, offset, end, len(s.data))
	}
	copy(s.data[offset:end], data)
	s.writes = append(s.writes, WriteOp{Offset: offset, Size: uint64(len(data))})
	return nil
}

// Release implements Sink.
func (s *MemorySink) Release() {
	s.data = nil
}

// Bytes returns the current device-side contents.
func (s *MemorySink) Bytes() []byte { return s.data }

// Allocations returns the sizes passed to Allocate, oldest first.
func (s *MemorySink) Allocations() []uint64 { return s.allocs }

// Writes returns the Write calls made since creation or the last Reset.
func (s *MemorySink) Writes() []WriteOp { return s.writes }

// Reset forgets the recorded calls. The contents are kept.
func (s *MemorySink) Reset() {
	s.allocs = s.allocs[:0]
	s.writes = s.writes[:0]
}
