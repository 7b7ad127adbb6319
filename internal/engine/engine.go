package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/talgya/eig/internal/fabric"
)

// ErrRunning reports a second concurrent Run on the same engine.
var ErrRunning = errors.New("engine already running")

// Engine runs the frame loop of one fabric. Each frame calls the integrator
// IterationsPerFrame times and then charges those iterations to the
// lifecycle countdown.
type Engine struct {
	Lifecycle *Lifecycle
	Features  *fabric.Features
	Interval  time.Duration // Minimum wall time per frame; 0 runs flat out
	Frame     uint64        // Frames completed (monotonic)

	running atomic.Bool

	// Callbacks, populated during setup.
	OnIterate func(stage fabric.Stage)               // One integrator iteration
	OnFrame   func(frame uint64, stage fabric.Stage) // After every frame
}

// NewEngine creates an engine around a fresh lifecycle.
func NewEngine(features *fabric.Features, lifecycle *Lifecycle) *Engine {
	if features == nil {
		features = fabric.NewFeatures()
	}
	if lifecycle == nil {
		lifecycle = NewLifecycle(features, nil)
	}
	return &Engine{
		Lifecycle: lifecycle,
		Features:  features,
		Interval:  0,
	}
}

// Run steps frames until the fabric is realized, ctx is done, or Stop is
// called. It returns ctx.Err() when cancelled and nil otherwise. Stop only
// affects a Run already in progress; a Run started afterwards runs normally.
// Calling Run while another Run is active returns ErrRunning.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)
	slog.Info("fabric engine started", "frame", e.Frame, "stage", e.Lifecycle.Stage())

	for e.running.Load() {
		if err := ctx.Err(); err != nil {
			slog.Info("fabric engine cancelled", "frame", e.Frame, "stage", e.Lifecycle.Stage())
			return err
		}
		if e.Lifecycle.Stage() == fabric.StageRealized {
			break
		}

		start := time.Now()
		e.Step()

		if elapsed := time.Since(start); elapsed < e.Interval {
			select {
			case <-ctx.Done():
			case <-time.After(e.Interval - elapsed):
			}
		}
	}

	slog.Info("fabric engine stopped", "frame", e.Frame, "stage", e.Lifecycle.Stage())
	return nil
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Stop halts Run after the current frame.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances the fabric by one frame.
func (e *Engine) Step() {
	iterations := count(e.Features.Get(fabric.FeatureIterationsPerFrame))
	if iterations == 0 {
		iterations = 1
	}

	if e.OnIterate != nil {
		for i := uint32(0); i < iterations; i++ {
			e.OnIterate(e.Lifecycle.Stage())
		}
	}
	e.Lifecycle.Tick(iterations)
	e.Frame++

	if e.OnFrame != nil {
		e.OnFrame(e.Frame, e.Lifecycle.Stage())
	}
}

// Frames returns how many frames a countdown of the given feature spans at
// the current iterations per frame, rounding up.
func Frames(features *fabric.Features, countdown fabric.FabricFeature) uint64 {
	per := uint64(count(features.Get(fabric.FeatureIterationsPerFrame)))
	if per == 0 {
		per = 1
	}
	total := uint64(count(features.Get(countdown)))
	return (total + per - 1) / per
}
