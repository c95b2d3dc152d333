// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command triaddemo runs the three-thread topology headless.
//
// Scripted input clicks around a virtual window; every click spawns a
// bouncing sprite. Frames are rendered offscreen on the wgpu noop backend,
// or kept in host memory with -backend memory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/profile"

	"github.com/gogpu/triad"
	"github.com/gogpu/triad/input"
	"github.com/gogpu/triad/internal/config"
	"github.com/gogpu/triad/render"
)

func main() {
	if err := demo(); err != nil {
		log.Fatalf("triaddemo: %v", err)
	}
}

func demo() error {
	var (
		configPath = flag.String("config", "", "TOML or YAML config file")
		width      = flag.Int("width", 800, "virtual window width")
		height     = flag.Int("height", 600, "virtual window height")
		passes     = flag.Int("passes", 300, "scripted input passes")
		pace       = flag.Duration("pace", 5*time.Millisecond, "time between input passes")
		backend    = flag.String("backend", "noop", "render backend: noop or memory")
		profMode   = flag.String("profile", "", "write a cpu or mem profile to the working directory")
	)
	flag.Parse()

	switch *profMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q", *profMode)
	}

	return run(*configPath, *backend, *width, *height, *passes, *pace)
}

func run(configPath, backend string, width, height, passes int, pace time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Logging.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	triad.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	size := &windowSize{}
	size.set(float32(width), float32(height))
	src := &pacedSource{
		src:  size.track(input.NewScript(script(float32(width), float32(height), passes)...)),
		pace: pace,
	}

	var renderStage func(triad.Config, render.Channels) (triad.Stage, error)
	switch backend {
	case "noop":
		renderStage = noopRenderStage(size)
	case "memory":
		renderStage = triad.RenderStage(nil, nil)
	default:
		return fmt.Errorf("unknown backend %q", backend)
	}

	g := &game{}
	start := time.Now()
	err = triad.Run(ctx, cfg.Topology(), triad.Stages{
		Source: src,
		Sim:    triad.SimStage[ball](g),
		Render: renderStage,
	})
	if err != nil {
		return err
	}
	log.Printf("triaddemo: %d sprites after %d ticks in %v", g.spawned, g.ticks, time.Since(start).Round(time.Millisecond))
	return nil
}
