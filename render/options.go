// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"time"

	"github.com/gogpu/triad/gpubuf"
)

// DefaultFrameInterval paces the render loop at 60 frames per second.
const DefaultFrameInterval = time.Second / 60

// ServerOption configures a Server during creation.
//
// Example:
//
//	srv, err := render.NewServer(ch, device, presenter,
//	    render.WithFrameInterval(time.Second/144),
//	    render.WithBatchCapacity(1024))
type ServerOption func(*serverOptions)

type serverOptions struct {
	frameInterval time.Duration
	batchCapacity int
}

func defaultServerOptions() serverOptions {
	return serverOptions{
		frameInterval: DefaultFrameInterval,
		batchCapacity: gpubuf.DefaultCapacity,
	}
}

// WithFrameInterval sets the time between frames. Zero or less keeps the
// default.
func WithFrameInterval(d time.Duration) ServerOption {
	return func(o *serverOptions) {
		if d > 0 {
			o.frameInterval = d
		}
	}
}

// WithBatchCapacity sets the initial sprite capacity of new batches. Zero
// or less keeps the default.
func WithBatchCapacity(n int) ServerOption {
	return func(o *serverOptions) {
		if n > 0 {
			o.batchCapacity = n
		}
	}
}
