// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package triad

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/triad/input"
	"github.com/gogpu/triad/internal/logging"
	"github.com/gogpu/triad/render"
	"github.com/gogpu/triad/sim"
	"github.com/gogpu/triad/spsc"
)

// Topology errors.
var (
	// ErrNoSource is returned by Start without an input source.
	ErrNoSource = errors.New("triad: input source is required")

	// ErrNoSim is returned by Start without a simulation stage.
	ErrNoSim = errors.New("triad: simulation stage is required")

	// errStopped is the cancel cause of Topology.Stop.
	errStopped = errors.New("triad: stopped")

	// errDownstreamDone is the cancel cause of the input stage once the
	// simulation returned.
	errDownstreamDone = errors.New("triad: simulation stopped")
)

// Stage is a long-running worker. Run returns nil for an orderly end.
type Stage interface {
	Run(ctx context.Context) error
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context) error

// Run implements Stage.
func (f StageFunc) Run(ctx context.Context) error { return f(ctx) }

// Stages supplies the application parts of a Topology.
//
// The Sim and Render constructors run on their stage's thread, so GPU
// objects created by Render stay on the render thread.
type Stages struct {
	// Source yields raw input events. Required.
	Source input.Source
	// Sim builds the simulation stage from its channel ends. Required;
	// see SimStage.
	Sim func(cfg Config, ch sim.Channels) (Stage, error)
	// Render builds the render stage from its channel ends. Nil runs a
	// headless render.Server without a presenter; see RenderStage.
	Render func(cfg Config, ch render.Channels) (Stage, error)
}

// SimStage returns a Sim constructor running game with a sim.Runner at
// the configured tick rate.
func SimStage[E any](game sim.Game[E], opts ...sim.Option) func(Config, sim.Channels) (Stage, error) {
	return func(cfg Config, ch sim.Channels) (Stage, error) {
		opts := append([]sim.Option{sim.WithTickRate(cfg.TickRate)}, opts...)
		return sim.NewRunner(ch, game, opts...)
	}
}

// RenderStage returns a Render constructor running a render.Server with
// the configured frame interval and batch capacity. A nil alloc keeps
// instance data in host memory.
func RenderStage(alloc render.Allocator, presenter render.Presenter, opts ...render.ServerOption) func(Config, render.Channels) (Stage, error) {
	return func(cfg Config, ch render.Channels) (Stage, error) {
		opts := append([]render.ServerOption{
			render.WithFrameInterval(cfg.FrameInterval),
			render.WithBatchCapacity(cfg.BatchCapacity),
		}, opts...)
		return render.NewServer(ch, alloc, presenter, opts...)
	}
}

// Topology is a running set of the three stages.
type Topology struct {
	cancel context.CancelCauseFunc

	// Input, Sim and Render are the stage threads.
	Input  *Handle
	Sim    *Handle
	Render *Handle
}

// Start validates cfg, wires the channels between the stages and starts
// one locked OS thread per stage.
//
// Cancelling ctx or calling Stop ends all stages. Otherwise shutdown
// cascades downstream: the end of the input source stops the simulation,
// which stops the renderer. When the simulation stops first, the input
// stage is cancelled as nobody listens anymore.
func Start(ctx context.Context, cfg Config, stages Stages) (*Topology, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stages.Source == nil {
		return nil, ErrNoSource
	}
	if stages.Sim == nil {
		return nil, ErrNoSim
	}
	if stages.Render == nil {
		stages.Render = RenderStage(nil, nil)
	}

	inProd, inCons := spsc.NewQueue[input.Message](cfg.InputQueue.Capacity, cfg.InputQueue.Overflow)
	cmdProd, cmdCons := spsc.NewQueue[render.Message](cfg.RenderQueue.Capacity, cfg.RenderQueue.Overflow)
	cursorPub, cursorReader := spsc.NewSlot(f32.Vec2{})
	notifier, listener := spsc.NewSignal()

	ctx, cancel := context.WithCancelCause(ctx)
	t := &Topology{cancel: cancel}

	// Every stage closes its own channel ends on any exit, panics included,
	// so its peers see ErrClosed instead of blocking.
	renderCh := render.Channels{Commands: cmdCons, Resized: listener, Cursor: cursorReader}
	t.Render = spawn(ctx, "render", func(ctx context.Context) error {
		defer cursorReader.Close()
		defer listener.Close()
		defer cmdCons.Close()
		stage, err := stages.Render(cfg, renderCh)
		if err != nil {
			return err
		}
		return stage.Run(ctx)
	})

	inputCtx, cancelInput := context.WithCancelCause(ctx)
	simCh := sim.Channels{Input: inCons, Commands: cmdProd, Resized: notifier}
	t.Sim = spawn(ctx, "sim", func(ctx context.Context) error {
		defer cancelInput(errDownstreamDone)
		defer notifier.Close()
		defer cmdProd.Close()
		defer inCons.Close()
		stage, err := stages.Sim(cfg, simCh)
		if err != nil {
			return err
		}
		return stage.Run(ctx)
	})

	server := input.NewServer(inProd, cursorPub)
	t.Input = spawn(inputCtx, "input", func(ctx context.Context) error {
		defer cursorPub.Close()
		defer inProd.Close()
		err := server.Run(ctx, stages.Source)
		if errors.Is(context.Cause(ctx), errDownstreamDone) && errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	logging.Logger().Info("triad: started",
		"input_queue", inProd.Cap(), "render_queue", cmdProd.Cap(),
		"tick_rate", cfg.TickRate, "frame_interval", cfg.FrameInterval)
	return t, nil
}

// Handles returns the stage threads in pipeline order.
func (t *Topology) Handles() []*Handle {
	return []*Handle{t.Input, t.Sim, t.Render}
}

// Stop cancels every stage. It does not wait; call Join.
func (t *Topology) Stop() {
	t.cancel(errStopped)
}

// Join waits for all stages and returns their errors joined. Stages
// ended by Stop do not report an error.
func (t *Topology) Join() error {
	var errs []error
	for _, h := range t.Handles() {
		if err := h.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	t.cancel(nil)
	logging.Logger().Info("triad: stopped")
	return errors.Join(errs...)
}

// Run starts a topology and waits for it to end.
func Run(ctx context.Context, cfg Config, stages Stages) error {
	t, err := Start(ctx, cfg, stages)
	if err != nil {
		return err
	}
	return t.Join()
}

// Handle owns one stage thread.
type Handle struct {
	name string
	done chan struct{}
	err  error
}

// spawn runs fn on a new goroutine locked to its own OS thread.
func spawn(ctx context.Context, name string, fn func(ctx context.Context) error) *Handle {
	h := &Handle{name: name, done: make(chan struct{})}
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("triad: %s stage panicked: %v", name, r)
				logging.Logger().Error("triad: stage panicked", "stage", name, "panic", r)
			}
		}()

		err := fn(ctx)
		if errors.Is(err, context.Canceled) && errors.Is(context.Cause(ctx), errStopped) {
			err = nil
		}
		if err != nil {
			h.err = fmt.Errorf("triad: %s stage: %w", name, err)
			logging.Logger().Warn("triad: stage failed", "stage", name, "err", err)
		}
	}()
	return h
}

// Name returns the stage name: "input", "sim" or "render".
func (h *Handle) Name() string { return h.name }

// Done is closed when the stage thread has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the stage thread returns and reports its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}
