package fabric

// FabricFeature names a tunable parameter of the force integrator.
type FabricFeature uint8

const (
	FeatureGravity FabricFeature = iota
	FeatureDrag
	FeaturePretenstFactor
	FeatureIterationsPerFrame
	FeatureIntervalCountdown
	FeatureRealizingCountdown
	FeatureSlackThreshold
	FeatureShapingPretenstFactor
	FeatureShapingStiffnessFactor
	FeatureShapingDrag
	FeatureMaxStrain
	FeatureVisualStrain
	FeatureNexusPushLength
	FeatureColumnPushLength
	FeatureTriangleLength
	FeatureRingLength
	FeatureNexusCrossLength
	FeatureColumnCrossLength
	FeatureBowMidLength
	FeatureBowEndLength
	FeaturePushOverPull
	FeaturePushRadiusFactor
	FeaturePullRadiusFactor
	FeatureMaxStiffness
)

// FeatureCount is the number of fabric features.
const FeatureCount = 24

var featureNames = []string{
	"Gravity", "Drag", "PretenstFactor", "IterationsPerFrame",
	"IntervalCountdown", "RealizingCountdown", "SlackThreshold",
	"ShapingPretenstFactor", "ShapingStiffnessFactor", "ShapingDrag",
	"MaxStrain", "VisualStrain", "NexusPushLength", "ColumnPushLength",
	"TriangleLength", "RingLength", "NexusCrossLength", "ColumnCrossLength",
	"BowMidLength", "BowEndLength", "PushOverPull", "PushRadiusFactor",
	"PullRadiusFactor", "MaxStiffness",
}

// featureDefaults is the factory default of every feature, indexed by tag.
var featureDefaults = [FeatureCount]float32{
	FeatureGravity:                0.0000001,
	FeatureDrag:                   0.0001,
	FeaturePretenstFactor:         0.03,
	FeatureIterationsPerFrame:     100,
	FeatureIntervalCountdown:      1000,
	FeatureRealizingCountdown:     30000,
	FeatureSlackThreshold:         0.0001,
	FeatureShapingPretenstFactor:  0.1,
	FeatureShapingStiffnessFactor: 10,
	FeatureShapingDrag:            0.1,
	FeatureMaxStrain:              0.1,
	FeatureVisualStrain:           1,
	FeatureNexusPushLength:        restLengths[RoleNexusPush],
	FeatureColumnPushLength:       restLengths[RoleColumnPush],
	FeatureTriangleLength:         restLengths[RoleTriangle],
	FeatureRingLength:             restLengths[RoleRing],
	FeatureNexusCrossLength:       restLengths[RoleNexusCross],
	FeatureColumnCrossLength:      restLengths[RoleColumnCross],
	FeatureBowMidLength:           restLengths[RoleBowMid],
	FeatureBowEndLength:           restLengths[RoleBowEnd],
	FeaturePushOverPull:           1,
	FeaturePushRadiusFactor:       4,
	FeaturePullRadiusFactor:       2,
	FeatureMaxStiffness:           0.0005,
}

// DefaultFabricFeature returns the factory default of feature, or zero for an
// undeclared feature.
func DefaultFabricFeature(feature FabricFeature) float32 {
	if !feature.Valid() {
		return 0
	}
	return featureDefaults[feature]
}

// Default is shorthand for DefaultFabricFeature(f).
func (f FabricFeature) Default() float32 { return DefaultFabricFeature(f) }

// FeatureFromTag converts a raw tag into a FabricFeature.
func FeatureFromTag(tag uint8) (FabricFeature, error) {
	return fromTag[FabricFeature]("fabric feature", tag, featureNames)
}

// ParseFeature parses a feature name such as "PretenstFactor".
func ParseFeature(s string) (FabricFeature, error) {
	return parseName[FabricFeature]("fabric feature", s, featureNames)
}

// AllFeatures returns every feature in tag order.
func AllFeatures() []FabricFeature {
	out := make([]FabricFeature, FeatureCount)
	for i := range out {
		out[i] = FabricFeature(i)
	}
	return out
}

func (f FabricFeature) String() string { return nameOf("FabricFeature", f, featureNames) }

// Tag returns the raw tag exchanged with hosts.
func (f FabricFeature) Tag() uint8 { return uint8(f) }

// Valid reports whether f is a declared feature.
func (f FabricFeature) Valid() bool { return f < FeatureCount }

// Counter reports whether the feature is an iteration count rather than a
// physical quantity.
func (f FabricFeature) Counter() bool {
	switch f {
	case FeatureIterationsPerFrame, FeatureIntervalCountdown, FeatureRealizingCountdown:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f FabricFeature) MarshalText() ([]byte, error) {
	return marshalName("fabric feature", f, featureNames)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FabricFeature) UnmarshalText(b []byte) error {
	v, err := ParseFeature(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
