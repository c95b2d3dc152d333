// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpubuf

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoDevice is returned when a HALSink is created without a device or queue.
var ErrNoDevice = errors.New("gpubuf: device and queue are required")

// InstanceUsage is the usage of buffers holding per-instance vertex data
// that is updated from the CPU.
const InstanceUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst

// HALSink is a Sink backed by a wgpu hal.Buffer.
//
// Writes go through hal.Queue.WriteBuffer, which stages the data for the
// next submission. HALSink must only be used from the goroutine that owns
// the device (the render thread).
type HALSink struct {
	device hal.Device
	queue  hal.Queue
	label  string
	usage  gputypes.BufferUsage

	buffer hal.Buffer
	size   uint64
}

// NewHALSink creates a sink that allocates buffers on device and uploads
// through queue. Usage defaults to InstanceUsage when zero; CopyDst is
// always added so the queue can write to the buffer.
func NewHALSink(device hal.Device, queue hal.Queue, label string, usage gputypes.BufferUsage) (*HALSink, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	if usage == 0 {
		usage = InstanceUsage
	}
	return &HALSink{
		device: device,
		queue:  queue,
		label:  label,
		usage:  usage | gputypes.BufferUsageCopyDst,
	}, nil
}

// Allocate implements Sink. The previous buffer is destroyed only after the
// new one was created, so a failed allocation keeps the old storage.
func (s *HALSink) Allocate(size uint64) error {
	if size == 0 {
		return fmt.Errorf("%w: zero-byte allocation", ErrInvalidSize)
	}
	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: s.label,
		Size:  size,
		Usage: s.usage,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", s.label, err)
	}
	if s.buffer != nil {
		s.device.DestroyBuffer(s.buffer)
	}
	s.buffer = buf
	s.size = size
	return nil
}

// Write implements Sink.
func (s *HALSink) Write(offset uint64, data []byte) error {
	if s.buffer == nil {
		return fmt.Errorf("%w: %s has no storage", ErrWriteOutOfRange, s.label)
	}
	if end := offset + uint64(len(data)); end > s.size {
		return fmt.Errorf("%w: write [%d, %d) exceeds %d bytes", ErrWriteOutOfRange, offset, end, s.size)
	}
	if len(data) == 0 {
		return nil
	}
	if err := s.queue.WriteBuffer(s.buffer, offset, data); err != nil {
		return fmt.Errorf("gpubuf: write %s: %w", s.label, err)
	}
	return nil
}

// Release implements Sink.
func (s *HALSink) Release() {
	if s.buffer != nil {
		s.device.DestroyBuffer(s.buffer)
		s.buffer = nil
		s.size = 0
	}
}

// Bind sets the buffer as the vertex buffer at slot of rp.
func (s *HALSink) Bind(rp hal.RenderPassEncoder, slot uint32) {
	if s.buffer == nil {
		return
	}
	rp.SetVertexBuffer(slot, s.buffer, 0)
}

// Buffer returns the current device buffer, or nil before Allocate.
func (s *HALSink) Buffer() hal.Buffer { return s.buffer }

// Size returns the allocated size in bytes.
func (s *HALSink) Size() uint64 { return s.size }
