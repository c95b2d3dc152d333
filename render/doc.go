// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render draws sprite batches and texts on the render thread.
//
// The simulation thread owns a Client. Every Client call sends one
// command through a bounded spsc queue and returns a token at once,
// without waiting for the render thread. The render thread owns a Server
// that applies those commands, keeps one instance buffer per batch in
// sync with the GPU and presents one Frame per tick.
//
// # Tokens
//
// Client and Server both keep generational key trackers and apply the
// same operations in the same order, so both sides issue the same keys.
// A token whose element was removed is stale: the Client rejects it with
// an error wrapping slotmap.ErrStaleKey, the Server logs and skips it.
//
// # Instance data
//
// A Sprite is uploaded byte for byte; SpriteStride and SpriteAttributes
// describe its vertex layout. One batch is drawn with a single instanced
// draw of a four-vertex quad, transformed by BatchSettings.Transform.
//
// # Devices
//
// Device wraps a wgpu HAL device and queue shared by the host. Without a
// device, MemoryAllocator keeps instance data in host memory, which is
// what headless runs and tests use.
package render
