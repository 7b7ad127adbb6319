package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/eig/internal/fabric"
	"github.com/talgya/eig/internal/hostlog"
)

func TestLifecycleStartsBusy(t *testing.T) {
	l := NewLifecycle(nil, nil)
	assert.Equal(t, fabric.StageBusy, l.Stage())
	assert.Zero(t, l.Countdown())
	assert.False(t, l.Tick(100), "busy stage has no budget")
}

func TestLifecycleAdvanceForwardOnly(t *testing.T) {
	var transitions []string
	l := NewLifecycle(fabric.NewFeatures(), nil)
	l.OnStage = func(from, to fabric.Stage) {
		transitions = append(transitions, fmt.Sprintf("%s->%s", from, to))
	}

	require.NoError(t, l.Advance(fabric.StageGrowing))
	assert.Equal(t, uint32(1000), l.Countdown())

	require.NoError(t, l.Advance(fabric.StageSlack), "skipping forward is allowed")
	assert.Zero(t, l.Countdown())

	err := l.Advance(fabric.StageShaping)
	assert.ErrorIs(t, err, ErrBackward)
	err = l.Advance(fabric.StageSlack)
	assert.ErrorIs(t, err, ErrBackward)
	err = l.Advance(fabric.Stage(9))
	assert.ErrorIs(t, err, fabric.ErrInvalidTag)
	assert.Equal(t, fabric.StageSlack, l.Stage())

	l.Reset()
	assert.Equal(t, fabric.StageBusy, l.Stage())
	l.Reset()

	assert.Equal(t, []string{"Busy->Growing", "Growing->Slack", "Slack->Busy"}, transitions)
}

func TestLifecycleRealizingCountdownCompletes(t *testing.T) {
	features := fabric.NewFeatures()
	require.NoError(t, features.Set(fabric.FeatureRealizingCountdown, 250))

	var logged []string
	l := NewLifecycle(features, hostlog.Func(func(msg string, _ any) {
		logged = append(logged, msg)
	}))

	require.NoError(t, l.Advance(fabric.StageRealizing))
	assert.Equal(t, uint32(250), l.Countdown())

	assert.False(t, l.Tick(100))
	assert.False(t, l.Tick(100))
	assert.Equal(t, uint32(50), l.Countdown())
	assert.True(t, l.Tick(100))
	assert.Equal(t, fabric.StageRealized, l.Stage())
	assert.False(t, l.Tick(100))

	assert.Equal(t, []string{
		"stage Busy -> Realizing",
		"Realizing countdown expired",
		"stage Realizing -> Realized",
	}, logged)
}

func TestLifecycleShapingCountdownDoesNotAdvance(t *testing.T) {
	l := NewLifecycle(nil, nil)
	require.NoError(t, l.Advance(fabric.StageShaping))
	assert.True(t, l.Tick(1000))
	assert.Equal(t, fabric.StageShaping, l.Stage(), "leaving shaping is the integrator's call")
}

func TestLifecycleZeroRealizingCountdownCompletesOnEntry(t *testing.T) {
	features := fabric.NewFeatures()
	require.NoError(t, features.Set(fabric.FeatureRealizingCountdown, 0))

	var transitions []string
	l := NewLifecycle(features, nil)
	l.OnStage = func(from, to fabric.Stage) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}

	require.NoError(t, l.Advance(fabric.StageRealizing))
	assert.Equal(t, fabric.StageRealized, l.Stage())
	assert.Zero(t, l.Countdown())
	assert.Equal(t, []string{"Busy->Realizing", "Realizing->Realized"}, transitions)
}

func TestCountClampsToUint32(t *testing.T) {
	assert.Equal(t, uint32(0), count(0))
	assert.Equal(t, uint32(0), count(-3))
	assert.Equal(t, uint32(0), count(float32(math.NaN())))
	assert.Equal(t, uint32(2), count(2.9))
	assert.Equal(t, uint32(4294967040), count(4294967040))
	assert.Equal(t, uint32(math.MaxUint32), count(5e9))
	assert.Equal(t, uint32(math.MaxUint32), count(1e12))
	assert.Equal(t, uint32(math.MaxUint32), count(float32(math.Inf(1))))
}
