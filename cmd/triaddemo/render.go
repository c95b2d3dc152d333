// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/triad"
	"github.com/gogpu/triad/render"
)

// noopRenderStage renders offscreen on the wgpu noop backend. The device is
// opened on the render thread. If the backend cannot present a test
// frame, instance buffers stay on the device and presenting is skipped.
func noopRenderStage(size *windowSize) func(triad.Config, render.Channels) (triad.Stage, error) {
	return func(cfg triad.Config, ch render.Channels) (triad.Stage, error) {
		api := noop.API{}
		instance, err := api.CreateInstance(nil)
		if err != nil {
			return nil, fmt.Errorf("create instance: %w", err)
		}
		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			instance.Destroy()
			return nil, errors.New("no adapter")
		}
		open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
		if err != nil {
			instance.Destroy()
			return nil, fmt.Errorf("open adapter: %w", err)
		}

		var (
			dev       *render.Device
			presenter *render.OffscreenPresenter
		)
		release := func() {
			if presenter != nil {
				presenter.Destroy()
			}
			if dev != nil {
				dev.Destroy()
			}
			open.Device.Destroy()
			instance.Destroy()
		}

		dev, err = render.NewDevice(open.Device, open.Queue, gputypes.TextureFormatUndefined)
		if err != nil {
			release()
			return nil, err
		}
		presenter, err = render.NewOffscreenPresenter(dev, size.get)
		if err != nil {
			release()
			return nil, err
		}

		var target render.Presenter = presenter
		if err := presenter.Present(&render.Frame{}); err != nil {
			triad.Logger().Warn("triaddemo: presenting disabled", "err", err)
			target = nil
		}

		server, err := triad.RenderStage(dev, target)(cfg, ch)
		if err != nil {
			release()
			return nil, err
		}
		return triad.StageFunc(func(ctx context.Context) error {
			defer release()
			return server.Run(ctx)
		}), nil
	}
}
