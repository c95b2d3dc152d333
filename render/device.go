// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/triad/gpubuf"
	"github.com/gogpu/triad/internal/logging"
)

// Allocator creates the device storage of new batches. It is only called
// from the render thread.
type Allocator interface {
	// NewInstanceSink returns an empty sink for per-instance sprite data.
	NewInstanceSink(label string) (gpubuf.Sink, error)
}

// MemoryAllocator allocates host memory sinks, for headless runs and
// tests.
type MemoryAllocator struct{}

// NewInstanceSink implements Allocator.
func (MemoryAllocator) NewInstanceSink(string) (gpubuf.Sink, error) {
	return gpubuf.NewMemorySink(), nil
}

// DeviceProvider provides GPU device access from the host application.
//
// The renderer RECEIVES the device from the host, it does not create one.
// Providers that also implement HalDevice() any and HalQueue() any (such
// as gogpu) can be used with NewDeviceFromProvider.
type DeviceProvider = gpucontext.DeviceProvider

// ErrNoHAL is returned when a provider does not expose wgpu HAL types.
var ErrNoHAL = errors.New("render: provider does not expose HAL device and queue")

// Device is the render thread's view of a wgpu HAL device.
//
// Device implements Allocator with HAL buffers and owns the sprite
// pipeline. All methods must be called from the render thread.
type Device struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	pipeline *Pipeline
}

// NewDevice wraps a HAL device and queue. Format is the color format of
// the render targets; TextureFormatUndefined selects BGRA8Unorm.
func NewDevice(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*Device, error) {
	if device == nil || queue == nil {
		return nil, gpubuf.ErrNoDevice
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	return &Device{device: device, queue: queue, format: format}, nil
}

// NewDeviceFromProvider wraps the HAL device shared by a host provider.
func NewDeviceFromProvider(provider DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrNoHAL
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	info := provider.AdapterInfo()
	logging.Logger().Info("render: using host device", "adapter", info.Name, "type", info.Type.String())
	return NewDevice(device, queue, provider.SurfaceFormat())
}

// NewInstanceSink implements Allocator.
func (d *Device) NewInstanceSink(label string) (gpubuf.Sink, error) {
	sink, err := gpubuf.NewHALSink(d.device, d.queue, label, gpubuf.InstanceUsage)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// HAL returns the wrapped device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Format returns the render target color format.
func (d *Device) Format() gputypes.TextureFormat { return d.format }

// Pipeline returns the sprite pipeline, creating it on first use.
func (d *Device) Pipeline() (*Pipeline, error) {
	if d.pipeline != nil {
		return d.pipeline, nil
	}
	p, err := newPipeline(d.device, d.queue, d.format)
	if err != nil {
		return nil, err
	}
	d.pipeline = p
	return p, nil
}

// Destroy releases the pipeline. The HAL device belongs to the caller.
func (d *Device) Destroy() {
	if d.pipeline != nil {
		d.pipeline.destroy()
		d.pipeline = nil
	}
}

var (
	_ Allocator = MemoryAllocator{}
	_ Allocator = (*Device)(nil)
)
