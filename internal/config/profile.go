// Package config loads and saves fabric profiles: named sets of feature
// overrides kept in YAML files.
//
// A profile file looks like:
//
//	name: tall-tower
//	description: heavier gravity, slower realizing
//	surface: Sticky
//	features:
//	  Gravity: 2e-7
//	  RealizingCountdown: 60000
//
// Feature names are matched case-insensitively. Values are parsed directly
// as float32 so they round exactly as the integrator sees them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/talgya/eig/internal/fabric"
)

// ErrInvalidProfile reports a profile file that cannot be applied.
var ErrInvalidProfile = errors.New("invalid profile")

// Profile is a named set of overrides layered on the factory defaults.
type Profile struct {
	Name        string
	Description string
	Surface     *fabric.SurfaceCharacter // nil leaves the host's surface alone
	Overrides   map[fabric.FabricFeature]float32
}

type profileFile struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description,omitempty"`
	Surface     *fabric.SurfaceCharacter `yaml:"surface,omitempty"`
	Features    yaml.Node                `yaml:"features,omitempty"`
}

// Capture builds a profile from the current overrides of fs.
func Capture(name string, fs *fabric.Features) *Profile {
	return &Profile{Name: name, Overrides: fs.Overrides()}
}

// Apply layers the profile's overrides onto fs.
func (p *Profile) Apply(fs *fabric.Features) error {
	if err := fs.Apply(p.Overrides); err != nil {
		return fmt.Errorf("apply profile %q: %w", p.Name, err)
	}
	return nil
}

// Replace swaps every override of fs for the profile's in one step.
func (p *Profile) Replace(fs *fabric.Features) error {
	if err := fs.Replace(p.Overrides); err != nil {
		return fmt.Errorf("apply profile %q: %w", p.Name, err)
	}
	return nil
}

// Validate checks the profile has a name and usable overrides.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	if p.Surface != nil && !p.Surface.Valid() {
		return fmt.Errorf("%w: surface %d", ErrInvalidProfile, uint8(*p.Surface))
	}
	if err := fabric.NewFeatures().Apply(p.Overrides); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a profile from YAML.
func Parse(data []byte) (*Profile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	p := &Profile{
		Name:        f.Name,
		Description: f.Description,
		Surface:     f.Surface,
		Overrides:   make(map[fabric.FabricFeature]float32),
	}

	if f.Features.Kind != 0 {
		if f.Features.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: line %d: features must be a mapping", ErrInvalidProfile, f.Features.Line)
		}
		content := f.Features.Content
		for i := 0; i+1 < len(content); i += 2 {
			key, val := content[i], content[i+1]
			feature, err := fabric.ParseFeature(key.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidProfile, key.Line, err)
			}
			if _, dup := p.Overrides[feature]; dup {
				return nil, fmt.Errorf("%w: line %d: %s set twice", ErrInvalidProfile, key.Line, feature)
			}
			v, err := strconv.ParseFloat(val.Value, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %v", ErrInvalidProfile, val.Line, feature, err)
			}
			p.Overrides[feature] = float32(v)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Marshal encodes the profile as YAML with features in tag order.
func (p *Profile) Marshal() ([]byte, error) {
	f := profileFile{Name: p.Name, Description: p.Description, Surface: p.Surface}

	if len(p.Overrides) > 0 {
		features := make([]fabric.FabricFeature, 0, len(p.Overrides))
		for feature := range p.Overrides {
			features = append(features, feature)
		}
		sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })

		f.Features = yaml.Node{Kind: yaml.MappingNode}
		for _, feature := range features {
			f.Features.Content = append(f.Features.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: feature.String()},
				&yaml.Node{Kind: yaml.ScalarNode, Value: FormatValue(p.Overrides[feature])},
			)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the profile to path.
func (p *Profile) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// FormatValue renders v with the fewest digits that parse back to the same
// float32.
func FormatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
