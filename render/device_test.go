// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/triad/gpubuf"
	"github.com/gogpu/triad/spsc"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// countingPass records the draw calls of Frame.Record. Methods Record does
// not use are left to the embedded nil interface.
type countingPass struct {
	hal.RenderPassEncoder
	bound     []uint32
	instances []uint32
}

func (p *countingPass) SetVertexBuffer(slot uint32, _ hal.Buffer, _ uint64) {
	p.bound = append(p.bound, slot)
}

func (p *countingPass) SetPipeline(hal.RenderPipeline) {}

func (p *countingPass) SetBindGroup(uint32, hal.BindGroup, []uint32) {}

func (p *countingPass) Draw(vertexCount, instanceCount, _, _ uint32) {
	if vertexCount != spriteVertices {
		panic("unexpected vertex count")
	}
	p.instances = append(p.instances, instanceCount)
}

// =============================================================================
// Device Tests
// =============================================================================

func TestNewDevice(t *testing.T) {
	if _, err := NewDevice(nil, nil, 0); !errors.Is(err, gpubuf.ErrNoDevice) {
		t.Errorf("NewDevice(nil) error = %v, want ErrNoDevice", err)
	}

	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, err := NewDevice(device, queue, gputypes.TextureFormatUndefined)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	if d.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format() = %v, want BGRA8Unorm", d.Format())
	}
	gotDev, gotQueue := d.HAL()
	if gotDev != device || gotQueue != queue {
		t.Error("HAL() does not return the wrapped device")
	}
}

type noHALProvider struct{}

func (noHALProvider) Device() gpucontext.Device             { return nil }
func (noHALProvider) Queue() gpucontext.Queue               { return nil }
func (noHALProvider) Adapter() gpucontext.Adapter           { return nil }
func (noHALProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (noHALProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop", Type: gpucontext.AdapterTypeSoftware}
}

var _ DeviceProvider = noHALProvider{}

type halProvider struct {
	noHALProvider
	device hal.Device
	queue  hal.Queue
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewDeviceFromProvider(t *testing.T) {
	if _, err := NewDeviceFromProvider(nil); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewDeviceFromProvider(nil) error = %v, want ErrNoHAL", err)
	}
	if _, err := NewDeviceFromProvider(noHALProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewDeviceFromProvider(no HAL) error = %v, want ErrNoHAL", err)
	}

	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, err := NewDeviceFromProvider(halProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("NewDeviceFromProvider() error = %v", err)
	}
	if d.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format() = %v, want the provider's surface format", d.Format())
	}
}

func TestDevice_InstanceSink(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, err := NewDevice(device, queue, 0)
	if err != nil {
		t.Fatal(err)
	}
	sink, err := d.NewInstanceSink("test_instances")
	if err != nil {
		t.Fatalf("NewInstanceSink() error = %v", err)
	}
	buf, err := gpubuf.New[Sprite](sink, 4)
	if err != nil {
		t.Fatalf("gpubuf.New() error = %v", err)
	}
	defer buf.Release()

	buf.Append(DefaultSprite())
	if err := buf.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	hs := sink.(*gpubuf.HALSink)
	if hs.Size() != 4*uint64(SpriteStride) {
		t.Errorf("device buffer size = %d, want %d", hs.Size(), 4*SpriteStride)
	}
}

// =============================================================================
// Frame Tests
// =============================================================================

func TestFrame_Record(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, _ := NewDevice(device, queue, 0)
	newSink := func(n int) gpubuf.Sink {
		sink, err := d.NewInstanceSink("frame_test")
		if err != nil {
			t.Fatal(err)
		}
		if err := sink.Allocate(uint64(n) * uint64(SpriteStride)); err != nil {
			t.Fatal(err)
		}
		return sink
	}

	f := Frame{Draws: []Draw{
		{Instances: 3, Sink: newSink(3)},
		{Instances: 0, Sink: newSink(1)},             // empty batch
		{Instances: 2, Sink: gpubuf.NewMemorySink()}, // host memory is not drawn
		{Instances: 5, Sink: newSink(5)},
	}}
	defer func() {
		for _, dr := range f.Draws {
			dr.Sink.Release()
		}
	}()

	pass := &countingPass{}
	f.Record(pass)

	if len(pass.instances) != 2 || pass.instances[0] != 3 || pass.instances[1] != 5 {
		t.Errorf("instanced draws = %v, want [3 5]", pass.instances)
	}
	if len(pass.bound) != 2 || pass.bound[0] != 0 {
		t.Errorf("bound slots = %v, want [0 0]", pass.bound)
	}
	if got := f.Instances(); got != 10 {
		t.Errorf("Instances() = %d, want 10", got)
	}
}

// failingQueue rejects every buffer write.
type failingQueue struct {
	hal.Queue
}

var errQueueWrite = errors.New("device lost")

func (failingQueue) WriteBuffer(hal.Buffer, uint64, []byte) error { return errQueueWrite }

func TestPipeline_Record(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, _ := NewDevice(device, queue, 0)
	sink, err := d.NewInstanceSink("pipeline_test")
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Release()
	if err := sink.Allocate(4 * uint64(SpriteStride)); err != nil {
		t.Fatal(err)
	}
	f := &Frame{Draws: []Draw{
		{Instances: 4, Sink: sink, Transform: DefaultBatchSettings().Transform()},
		{Instances: 2, Sink: gpubuf.NewMemorySink()},
	}}

	tests := []struct {
		name      string
		queue     hal.Queue
		wantErr   error
		wantDraws int
	}{
		{"draws device batches", queue, nil, 1},
		{"uniform write fails", failingQueue{Queue: queue}, errQueueWrite, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newPipeline(device, tt.queue, gputypes.TextureFormatBGRA8Unorm)
			if err != nil {
				t.Skipf("sprite pipeline unavailable on noop backend: %v", err)
			}
			defer p.destroy()

			var res frameResources
			defer res.destroy(device)
			pass := &countingPass{}
			err = p.record(pass, f, 64, 64, &res)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("record() error = %v, want %v", err, tt.wantErr)
			}
			if len(pass.instances) != tt.wantDraws {
				t.Errorf("draws = %v, want %d", pass.instances, tt.wantDraws)
			}
		})
	}
}

// =============================================================================
// Presenter Tests
// =============================================================================

func TestOffscreenPresenter_Reconfigure(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, _ := NewDevice(device, queue, 0)
	w, h := uint32(0), uint32(0)
	size := func() (uint32, uint32) { return w, h }

	if _, err := NewOffscreenPresenter(d, size); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("NewOffscreenPresenter(0x0) error = %v, want ErrInvalidTarget", err)
	}

	w, h = 320, 200
	p, err := NewOffscreenPresenter(d, size)
	if err != nil {
		t.Fatalf("NewOffscreenPresenter() error = %v", err)
	}
	defer p.Destroy()

	tex := p.tex
	if err := p.Reconfigure(); err != nil {
		t.Fatal(err)
	}
	if p.tex != tex {
		t.Error("Reconfigure recreated the target without a size change")
	}

	w, h = 640, 480
	if err := p.Reconfigure(); err != nil {
		t.Fatal(err)
	}
	if gw, gh := p.Size(); gw != 640 || gh != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", gw, gh)
	}
}

func TestOffscreenPresenter_PresentServerFrames(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, _ := NewDevice(device, queue, 0)
	defer d.Destroy()
	if _, err := d.Pipeline(); err != nil {
		t.Skipf("sprite pipeline unavailable on noop backend: %v", err)
	}
	p, err := NewOffscreenPresenter(d, func() (uint32, uint32) { return 64, 64 })
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	pipe := newPipe(t, 16, spsc.Block)
	srv, err := NewServer(pipe.server.ch, d, p)
	if err != nil {
		t.Fatal(err)
	}
	pipe.server = srv

	ctx := t.Context()
	b, _ := pipe.client.CreateBatch(ctx, DefaultBatchSettings())
	_, _ = pipe.client.AddSprite(ctx, b, DefaultSprite())
	_, _ = pipe.client.AddSprite(ctx, b, DefaultSprite())
	if _, err := srv.Tick(); err != nil {
		t.Skipf("noop backend cannot present: %v", err)
	}
	if p.Presented() != 1 {
		t.Errorf("Presented() = %d, want 1", p.Presented())
	}
	if len(p.res.bindGroups) != 0 {
		t.Error("per-frame resources not released after present")
	}
	srv.Close()
}

// rejectingQueue fails every submission.
type rejectingQueue struct {
	hal.Queue
}

func (rejectingQueue) Submit([]hal.CommandBuffer) (uint64, error) { return 0, errQueueWrite }

func TestOffscreenPresenter_SubmitError(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, _ := NewDevice(device, rejectingQueue{Queue: queue}, 0)
	defer d.Destroy()
	if _, err := d.Pipeline(); err != nil {
		t.Skipf("sprite pipeline unavailable on noop backend: %v", err)
	}
	p, err := NewOffscreenPresenter(d, func() (uint32, uint32) { return 32, 32 })
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	if err := p.Present(&Frame{}); !errors.Is(err, errQueueWrite) {
		t.Errorf("Present() error = %v, want the submit error", err)
	}
	if p.Presented() != 0 {
		t.Errorf("Presented() = %d after a failed submit, want 0", p.Presented())
	}
	if len(p.res.uniformBufs) != 0 {
		t.Error("per-frame resources not released after a failed submit")
	}
}
