// Package engine drives a fabric through its stage lifecycle. The force
// integrator itself lives with the host; this package owns stage progression,
// the countdown budgets that bound each stage, and the frame loop that calls
// into the integrator.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/talgya/eig/internal/fabric"
	"github.com/talgya/eig/internal/hostlog"
)

// ErrBackward reports an attempt to move a fabric to an earlier or equal stage.
var ErrBackward = errors.New("stage does not move forward")

// Lifecycle tracks the single active stage of one fabric. Stages only move
// forward; Reset is the one way back to StageBusy.
type Lifecycle struct {
	mu        sync.Mutex
	stage     fabric.Stage
	countdown uint32
	features  *fabric.Features
	log       hostlog.Logger

	// OnStage is called after every transition, outside the lock.
	OnStage func(from, to fabric.Stage)
}

// NewLifecycle returns a lifecycle at StageBusy. A nil logger discards
// diagnostics.
func NewLifecycle(features *fabric.Features, log hostlog.Logger) *Lifecycle {
	if features == nil {
		features = fabric.NewFeatures()
	}
	if log == nil {
		log = hostlog.Nop
	}
	return &Lifecycle{stage: fabric.StageBusy, features: features, log: log}
}

// Stage returns the active stage.
func (l *Lifecycle) Stage() fabric.Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stage
}

// Countdown returns the iterations left before the active stage's budget expires.
func (l *Lifecycle) Countdown() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countdown
}

// Advance moves to a later stage, skipping intermediate stages if asked.
// Entering Realizing with a zero RealizingCountdown completes the lifecycle
// at once.
func (l *Lifecycle) Advance(to fabric.Stage) error {
	if !to.Valid() {
		return fmt.Errorf("advance to %s: %w", to, fabric.ErrInvalidTag)
	}
	l.mu.Lock()
	from := l.stage
	if to <= from {
		l.mu.Unlock()
		return fmt.Errorf("%s -> %s: %w", from, to, ErrBackward)
	}
	final := l.enter(to)
	l.mu.Unlock()

	l.notify(from, to)
	if final != to {
		l.log.Log(fmt.Sprintf("%s countdown expired", to))
		l.notify(to, final)
	}
	return nil
}

// Reset returns the fabric to StageBusy regardless of where it is.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	from := l.stage
	l.enter(fabric.StageBusy)
	l.mu.Unlock()

	if from != fabric.StageBusy {
		l.notify(from, fabric.StageBusy)
	}
}

// Tick consumes iterations from the active countdown and reports whether it
// ran out on this call. An expired Realizing countdown completes the
// lifecycle by moving to StageRealized.
func (l *Lifecycle) Tick(iterations uint32) bool {
	l.mu.Lock()
	if l.countdown == 0 {
		l.mu.Unlock()
		return false
	}
	if iterations < l.countdown {
		l.countdown -= iterations
		l.mu.Unlock()
		return false
	}
	l.countdown = 0
	from := l.stage
	realized := from == fabric.StageRealizing
	if realized {
		l.enter(fabric.StageRealized)
	}
	l.mu.Unlock()

	l.log.Log(fmt.Sprintf("%s countdown expired", from))
	if realized {
		l.notify(from, fabric.StageRealized)
	}
	return true
}

// enter switches stage and loads its countdown, returning the stage the
// lifecycle ends up in. Callers hold mu.
func (l *Lifecycle) enter(stage fabric.Stage) fabric.Stage {
	l.stage = stage
	l.countdown = countdownFor(l.features, stage)
	if stage == fabric.StageRealizing && l.countdown == 0 {
		l.stage = fabric.StageRealized
	}
	return l.stage
}

func (l *Lifecycle) notify(from, to fabric.Stage) {
	l.log.LogU32(fmt.Sprintf("stage %s -> %s", from, to), uint32(to.Tag()))
	if l.OnStage != nil {
		l.OnStage(from, to)
	}
}

// countdownFor returns the iteration budget a stage starts with. Stages
// without a budget return zero.
func countdownFor(features *fabric.Features, stage fabric.Stage) uint32 {
	switch stage {
	case fabric.StageGrowing, fabric.StageShaping:
		return count(features.Get(fabric.FeatureIntervalCountdown))
	case fabric.StageRealizing:
		return count(features.Get(fabric.FeatureRealizingCountdown))
	default:
		return 0
	}
}

// count converts a counter feature to an iteration count, clamping to the
// uint32 range.
func count(v float32) uint32 {
	switch {
	case !(v > 0):
		return 0
	case float64(v) >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}
