package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/eig/internal/fabric"
)

const tallTower = `name: tall-tower
description: heavier gravity, slower realizing
surface: sticky
features:
  Gravity: 2e-7
  realizingCountdown: 60000
  PretenstFactor: 0.05
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(tallTower))
	require.NoError(t, err)

	assert.Equal(t, "tall-tower", p.Name)
	assert.Equal(t, "heavier gravity, slower realizing", p.Description)
	require.NotNil(t, p.Surface)
	assert.Equal(t, fabric.SurfaceSticky, *p.Surface)
	assert.Equal(t, map[fabric.FabricFeature]float32{
		fabric.FeatureGravity:            2e-7,
		fabric.FeatureRealizingCountdown: 60000,
		fabric.FeaturePretenstFactor:     0.05,
	}, p.Overrides)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "features:\n  Drag: 0.1\n", "missing name"},
		{"unknown feature", "name: x\nfeatures:\n  Wind: 1\n", "line 3"},
		{"not a number", "name: x\nfeatures:\n  Drag: lots\n", "Drag"},
		{"negative", "name: x\nfeatures:\n  Drag: -1\n", "invalid value"},
		{"duplicate", "name: x\nfeatures:\n  Drag: 1\n  drag: 2\n", "set twice"},
		{"features list", "name: x\nfeatures:\n  - Drag\n", "must be a mapping"},
		{"bad surface", "name: x\nsurface: Greasy\n", "unknown name"},
		{"broken yaml", "name: [x\n", "invalid profile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProfileApply(t *testing.T) {
	p, err := Parse([]byte(tallTower))
	require.NoError(t, err)

	fs := fabric.NewFeatures()
	require.NoError(t, p.Apply(fs))
	assert.Equal(t, float32(60000), fs.Get(fabric.FeatureRealizingCountdown))
	assert.Equal(t, fabric.FeatureDrag.Default(), fs.Get(fabric.FeatureDrag))

	captured := Capture("copy", fs)
	assert.Equal(t, p.Overrides, captured.Overrides)
}

func TestProfileReplace(t *testing.T) {
	p, err := Parse([]byte(tallTower))
	require.NoError(t, err)

	fs := fabric.NewFeatures()
	require.NoError(t, fs.Set(fabric.FeatureDrag, 0.5))
	require.NoError(t, p.Replace(fs))
	assert.Equal(t, p.Overrides, fs.Overrides())
	assert.Equal(t, fabric.FeatureDrag.Default(), fs.Get(fabric.FeatureDrag))

	bad := &Profile{Name: "bad", Overrides: map[fabric.FabricFeature]float32{fabric.FeatureIntervalCountdown: 0.5}}
	assert.ErrorIs(t, bad.Replace(fs), fabric.ErrInvalidValue)
	assert.Equal(t, p.Overrides, fs.Overrides())
}

func TestSaveAndLoad(t *testing.T) {
	surface := fabric.SurfaceBouncy
	p := &Profile{
		Name:    "springy",
		Surface: &surface,
		Overrides: map[fabric.FabricFeature]float32{
			fabric.FeatureMaxStiffness: 0.00075,
			fabric.FeatureGravity:      1.5e-7,
			fabric.FeatureRingLength:   0.61,
		},
	}
	path := filepath.Join(t.TempDir(), "springy.yml")
	require.NoError(t, p.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `name: springy
surface: Bouncy
features:
  Gravity: 1.5e-07
  RingLength: 0.61
  MaxStiffness: 0.00075
`, string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0.1", FormatValue(0.1))
	assert.Equal(t, "30000", FormatValue(30000))
	assert.Equal(t, "1e-07", FormatValue(1e-7))
	assert.Equal(t, "1.618034", FormatValue(fabric.FeatureNexusPushLength.Default()))
}
