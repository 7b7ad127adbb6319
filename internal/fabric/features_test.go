package fabric

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeaturesHoldsDefaults(t *testing.T) {
	fs := NewFeatures()
	for _, f := range AllFeatures() {
		assert.Equal(t, f.Default(), fs.Get(f), f.String())
		assert.False(t, fs.Overridden(f))
	}
	assert.Empty(t, fs.Overrides())
}

func TestFeaturesSetAndReset(t *testing.T) {
	fs := NewFeatures()

	require.NoError(t, fs.Set(FeatureGravity, 2e-7))
	assert.Equal(t, float32(2e-7), fs.Get(FeatureGravity))
	assert.True(t, fs.Overridden(FeatureGravity))
	assert.Equal(t, map[FabricFeature]float32{FeatureGravity: 2e-7}, fs.Overrides())

	// setting a value equal to the default still counts as an override
	require.NoError(t, fs.Set(FeatureDrag, FeatureDrag.Default()))
	assert.True(t, fs.Overridden(FeatureDrag))

	fs.Reset(FeatureGravity)
	assert.Equal(t, FeatureGravity.Default(), fs.Get(FeatureGravity))
	assert.False(t, fs.Overridden(FeatureGravity))

	fs.ResetAll()
	assert.Empty(t, fs.Overrides())
}

func TestFeaturesSetRejectsBadValues(t *testing.T) {
	fs := NewFeatures()
	bad := []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)), -0.5}
	for _, v := range bad {
		err := fs.Set(FeatureDrag, v)
		assert.ErrorIs(t, err, ErrInvalidValue, "value %v", v)
	}
	assert.False(t, fs.Overridden(FeatureDrag))

	err := fs.Set(FabricFeature(FeatureCount), 1)
	assert.ErrorIs(t, err, ErrInvalidTag)
	assert.Zero(t, fs.Get(FabricFeature(FeatureCount)))
}

func TestFeaturesApplyIsAllOrNothing(t *testing.T) {
	fs := NewFeatures()
	err := fs.Apply(map[FabricFeature]float32{
		FeatureGravity: 3e-7,
		FeatureDrag:    float32(math.NaN()),
	})
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Empty(t, fs.Overrides())

	require.NoError(t, fs.Apply(map[FabricFeature]float32{FeatureGravity: 3e-7, FeatureMaxStrain: 0.2}))
	assert.Len(t, fs.Overrides(), 2)
	values, overridden := fs.Snapshot()
	assert.Equal(t, float32(0.2), values[FeatureMaxStrain])
	assert.True(t, overridden[FeatureMaxStrain])
	assert.False(t, overridden[FeatureDrag])
}

func TestFeaturesRejectFractionalAndHugeCounters(t *testing.T) {
	fs := NewFeatures()
	for _, v := range []float32{5e9, 1e12, 2.5} {
		err := fs.Set(FeatureIntervalCountdown, v)
		assert.ErrorIs(t, err, ErrInvalidValue, "value %v", v)
	}
	assert.False(t, fs.Overridden(FeatureIntervalCountdown))

	// largest float32 below 2^32
	require.NoError(t, fs.Set(FeatureRealizingCountdown, 4294967040))
	require.NoError(t, fs.Set(FeatureIterationsPerFrame, 0))

	// non-counters may be fractional or large
	require.NoError(t, fs.Set(FeatureMaxStrain, 5e9))
	require.NoError(t, fs.Set(FeatureDrag, 2.5))
}

func TestFeaturesReplace(t *testing.T) {
	fs := NewFeatures()
	require.NoError(t, fs.Set(FeatureGravity, 3e-7))
	require.NoError(t, fs.Set(FeatureDrag, 0.5))

	err := fs.Replace(map[FabricFeature]float32{FeatureMaxStrain: -1})
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, map[FabricFeature]float32{FeatureGravity: 3e-7, FeatureDrag: 0.5}, fs.Overrides(),
		"a rejected replace keeps the existing overrides")

	require.NoError(t, fs.Replace(map[FabricFeature]float32{FeatureMaxStrain: 0.2}))
	assert.Equal(t, map[FabricFeature]float32{FeatureMaxStrain: 0.2}, fs.Overrides())
	assert.Equal(t, FeatureGravity.Default(), fs.Get(FeatureGravity))
}

func TestFeaturesReplaceIsAtomicForReaders(t *testing.T) {
	fs := NewFeatures()
	profile := map[FabricFeature]float32{FeatureGravity: 3e-7, FeatureDrag: 0.5}
	require.NoError(t, fs.Replace(profile))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				assert.NoError(t, fs.Replace(profile))
			}
		}
	}()
	for i := 0; i < 1000; i++ {
		values, overridden := fs.Snapshot()
		assert.True(t, overridden[FeatureGravity])
		assert.Equal(t, float32(3e-7), values[FeatureGravity])
	}
	close(done)
	wg.Wait()
}

func TestFeaturesRestLength(t *testing.T) {
	fs := NewFeatures()
	ring, ok := fs.RestLength(RoleRing)
	require.True(t, ok)
	def, _ := DefaultRestLength(RoleRing)
	assert.Equal(t, def, ring)

	require.NoError(t, fs.Set(FeatureRingLength, 0.7))
	ring, _ = fs.RestLength(RoleRing)
	assert.Equal(t, float32(0.7), ring)

	_, ok = fs.RestLength(RoleFacePull)
	assert.False(t, ok)

	assert.Equal(t, float32(4), fs.RadiusFactor(RoleColumnPush))
	assert.Equal(t, float32(2), fs.RadiusFactor(RoleBowMid))
}

func TestFeaturesConcurrentAccess(t *testing.T) {
	fs := NewFeatures()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v float32) {
			defer wg.Done()
			_ = fs.Set(FeatureShapingDrag, v)
		}(float32(i) / 10)
		go func() {
			defer wg.Done()
			_ = fs.Get(FeatureShapingDrag)
			_ = fs.Overrides()
		}()
	}
	wg.Wait()
	assert.True(t, fs.Overridden(FeatureShapingDrag))
}
