// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package triad runs an interactive application on three threads.
//
// # Overview
//
// Input capture, simulation and rendering each run at their own rate on
// their own OS thread and never block each other. They exchange state
// through single-producer/single-consumer transports from package spsc:
//
//	input ──Queue[input.Message]──▶ sim ──Queue[render.Message]──▶ render
//	  │                              └───────Signal (resized)─────▶   ▲
//	  └──────────────Slot[f32.Vec2] (cursor)──────────────────────────┘
//
// Discrete events travel through bounded FIFO queues, the cursor position
// through a latest-value slot, and the window-resized notification
// through an edge-triggered signal.
//
// # Quick Start
//
//	cfg := triad.DefaultConfig()
//	err := triad.Run(ctx, cfg, triad.Stages{
//	    Source: mySource,
//	    Sim:    triad.SimStage[myEntity](myGame),
//	    Render: triad.RenderStage(nil, myPresenter),
//	})
//
// # Shutdown
//
// Every stage closes its sending ends when it returns, so shutdown
// cascades: when the input source ends, the simulation sees its queue
// close and stops, which closes the render queue and stops the renderer.
// Stop cancels all three at once.
//
// # Packages
//
//   - slotmap: generational keys over dense storage
//   - gpubuf: CPU arrays mirrored to GPU buffers by dirty range
//   - spsc: Queue, Slot and Signal transports
//   - input, sim, render: the three stages
package triad
