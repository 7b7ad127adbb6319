package fabric

import (
	"fmt"
	"math"
	"sync"
)

// Features layers per-fabric overrides on top of the factory defaults.
// The zero value is not usable; call NewFeatures.
type Features struct {
	mu         sync.RWMutex
	values     [FeatureCount]float32
	overridden [FeatureCount]bool
}

// NewFeatures returns a feature set holding every factory default.
func NewFeatures() *Features {
	return &Features{values: featureDefaults}
}

// Get returns the current value of feature.
func (fs *Features) Get(feature FabricFeature) float32 {
	if !feature.Valid() {
		return 0
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.values[feature]
}

// Set overrides feature. Values must be finite and non-negative; counters
// must also be whole numbers that fit in a uint32.
func (fs *Features) Set(feature FabricFeature, value float32) error {
	if err := validate(feature, value); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[feature] = value
	fs.overridden[feature] = true
	return nil
}

// Reset restores feature to its factory default.
func (fs *Features) Reset(feature FabricFeature) {
	if !feature.Valid() {
		return
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[feature] = featureDefaults[feature]
	fs.overridden[feature] = false
}

// ResetAll restores every factory default.
func (fs *Features) ResetAll() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values = featureDefaults
	fs.overridden = [FeatureCount]bool{}
}

// Overridden reports whether feature has been set away from its default.
func (fs *Features) Overridden(feature FabricFeature) bool {
	if !feature.Valid() {
		return false
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.overridden[feature]
}

// Overrides returns a copy of every overridden feature and its value.
func (fs *Features) Overrides() map[FabricFeature]float32 {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make(map[FabricFeature]float32)
	for i, set := range fs.overridden {
		if set {
			out[FabricFeature(i)] = fs.values[i]
		}
	}
	return out
}

// Apply sets every entry of overrides. It validates all entries first and
// changes nothing if any is rejected.
func (fs *Features) Apply(overrides map[FabricFeature]float32) error {
	for f, v := range overrides {
		if err := validate(f, v); err != nil {
			return err
		}
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for f, v := range overrides {
		fs.values[f] = v
		fs.overridden[f] = true
	}
	return nil
}

// Replace discards every override and applies overrides in their place
// under one lock. Nothing changes if any entry is rejected.
func (fs *Features) Replace(overrides map[FabricFeature]float32) error {
	for f, v := range overrides {
		if err := validate(f, v); err != nil {
			return err
		}
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values = featureDefaults
	fs.overridden = [FeatureCount]bool{}
	for f, v := range overrides {
		fs.values[f] = v
		fs.overridden[f] = true
	}
	return nil
}

// Snapshot returns the current value and override flag of every feature,
// indexed by tag, read under one lock.
func (fs *Features) Snapshot() (values [FeatureCount]float32, overridden [FeatureCount]bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.values, fs.overridden
}

// RestLength resolves role's rest length through its length feature, so
// overrides of e.g. RingLength take effect. FacePull reports false.
func (fs *Features) RestLength(role IntervalRole) (float32, bool) {
	f, ok := role.LengthFeature()
	if !ok {
		return 0, false
	}
	return fs.Get(f), true
}

// RadiusFactor returns the radius multiplier for drawing role.
func (fs *Features) RadiusFactor(role IntervalRole) float32 {
	if role.Push() {
		return fs.Get(FeaturePushRadiusFactor)
	}
	return fs.Get(FeaturePullRadiusFactor)
}

func validate(feature FabricFeature, value float32) error {
	if !feature.Valid() {
		return fmt.Errorf("fabric feature %d: %w", uint8(feature), ErrInvalidTag)
	}
	v := float64(value)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s = %v: %w", feature, value, ErrInvalidValue)
	}
	if feature.Counter() && (v != math.Trunc(v) || v > math.MaxUint32) {
		return fmt.Errorf("%s = %v is not a uint32 count: %w", feature, value, ErrInvalidValue)
	}
	return nil
}
