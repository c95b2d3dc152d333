// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/triad/internal/logging"
)

// Presenter draws finished frames. Its methods are called from the render
// thread only.
type Presenter interface {
	// Reconfigure is called after the window was resized, before the next
	// Present, so the presenter can recheck its surface.
	Reconfigure() error
	// Present draws f.
	Present(f *Frame) error
}

// ErrInvalidTarget is returned for render targets without area.
var ErrInvalidTarget = errors.New("render: render target size must be positive")

// SizeFunc reports the current size of the presented surface in pixels.
type SizeFunc func() (width, height uint32)

// OffscreenPresenter renders frames into a texture on a HAL device and
// waits for each frame to complete.
type OffscreenPresenter struct {
	device *Device
	size   SizeFunc

	// ClearColor fills the target before the sprites are drawn.
	ClearColor gputypes.Color

	width, height uint32
	tex           hal.Texture
	view          hal.TextureView
	res           frameResources
	presented     uint64
}

// NewOffscreenPresenter creates a presenter drawing into a texture sized
// by size. The texture is recreated by Reconfigure when the size changes.
func NewOffscreenPresenter(device *Device, size SizeFunc) (*OffscreenPresenter, error) {
	p := &OffscreenPresenter{device: device, size: size}
	if err := p.Reconfigure(); err != nil {
		return nil, err
	}
	return p, nil
}

// Size returns the current target size.
func (p *OffscreenPresenter) Size() (width, height uint32) { return p.width, p.height }

// Presented returns the number of frames submitted.
func (p *OffscreenPresenter) Presented() uint64 { return p.presented }

// Reconfigure implements Presenter.
func (p *OffscreenPresenter) Reconfigure() error {
	w, h := p.size()
	if w == 0 || h == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTarget, w, h)
	}
	if w == p.width && h == p.height && p.tex != nil {
		return nil
	}
	p.destroyTarget()

	dev, _ := p.device.HAL()
	tex, err := dev.CreateTexture(&hal.TextureDescriptor{
		Label:         "triad_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        p.device.Format(),
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("render: create target texture: %w", err)
	}
	view, err := dev.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "triad_target_view",
	})
	if err != nil {
		dev.DestroyTexture(tex)
		return fmt.Errorf("render: create target view: %w", err)
	}
	p.tex, p.view = tex, view
	p.width, p.height = w, h
	logging.Logger().Info("render: target configured", "width", w, "height", h)
	return nil
}

// Present implements Presenter.
func (p *OffscreenPresenter) Present(f *Frame) error {
	pipeline, err := p.device.Pipeline()
	if err != nil {
		return err
	}
	dev, queue := p.device.HAL()

	encoder, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "triad_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("render: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("triad_frame"); err != nil {
		return fmt.Errorf("render: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "triad_sprite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       p.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: p.ClearColor,
		}},
	})
	recordErr := pipeline.record(rp, f, p.width, p.height, &p.res)
	rp.End()
	if recordErr != nil {
		encoder.DiscardEncoding()
		p.res.destroy(dev)
		return recordErr
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		p.res.destroy(dev)
		return fmt.Errorf("render: end encoding: %w", err)
	}
	defer dev.FreeCommandBuffer(cmdBuf)
	defer p.res.destroy(dev)

	index, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("render: submit: %w", err)
	}
	if queue.PollCompleted() < index {
		if err := dev.WaitIdle(); err != nil {
			return fmt.Errorf("render: wait for GPU: %w", err)
		}
	}
	p.presented++
	return nil
}

// Destroy releases the target texture.
func (p *OffscreenPresenter) Destroy() {
	p.destroyTarget()
}

func (p *OffscreenPresenter) destroyTarget() {
	dev, _ := p.device.HAL()
	if p.view != nil {
		dev.DestroyTextureView(p.view)
		p.view = nil
	}
	if p.tex != nil {
		dev.DestroyTexture(p.tex)
		p.tex = nil
	}
	p.width, p.height = 0, 0
}

var _ Presenter = (*OffscreenPresenter)(nil)
