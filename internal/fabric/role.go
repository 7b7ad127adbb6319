package fabric

import "github.com/talgya/eig/internal/phi"

// IntervalRole classifies a structural member. Each role except FacePull has
// a nominal rest length fixed by the unit-cell geometry.
type IntervalRole uint8

const (
	RoleNexusPush   IntervalRole = iota // Push strut of a nexus
	RoleColumnPush                      // Push strut of a column
	RoleTriangle                        // Pull around a triangular face
	RoleRing                            // Pull ring joining adjacent struts
	RoleNexusCross                      // Pull crossing a nexus
	RoleColumnCross                     // Pull crossing a column
	RoleBowMid                          // Pull at the middle of a bow
	RoleBowEnd                          // Pull at the end of a bow
	RoleFacePull                        // Pull between faces, length supplied by caller
)

// RoleCount is the number of interval roles.
const RoleCount = 9

var roleNames = []string{
	"NexusPush", "ColumnPush", "Triangle", "Ring", "NexusCross",
	"ColumnCross", "BowMid", "BowEnd", "FacePull",
}

// restLengths holds the derived rest length of every role flagged in
// hasRestLength. Package initialization computes it once; it is never written
// again.
var restLengths, hasRestLength = deriveRestLengths()

// roleFeatures maps each role to the feature carrying its tunable length.
var roleFeatures = [RoleCount]FabricFeature{
	RoleNexusPush:   FeatureNexusPushLength,
	RoleColumnPush:  FeatureColumnPushLength,
	RoleTriangle:    FeatureTriangleLength,
	RoleRing:        FeatureRingLength,
	RoleNexusCross:  FeatureNexusCrossLength,
	RoleColumnCross: FeatureColumnCrossLength,
	RoleBowMid:      FeatureBowMidLength,
	RoleBowEnd:      FeatureBowEndLength,
}

func deriveRestLengths() (lengths [RoleCount]float32, ok [RoleCount]bool) {
	set := func(r IntervalRole, v float32) {
		lengths[r] = v
		ok[r] = true
	}
	set(RoleNexusPush, phi.Phi)
	set(RoleColumnPush, phi.Root2)
	set(RoleTriangle, 1)
	set(RoleRing, phi.Sqrt(2-float32(2*phi.Sqrt(2.0/3))))
	set(RoleNexusCross, phi.Sqrt(phi.SumSquares(phi.Cross1, phi.Cross2, phi.Cross3)))
	set(RoleColumnCross, 1)
	set(RoleBowMid, 0.4)
	set(RoleBowEnd, 0.6)
	return lengths, ok
}

// DefaultRestLength returns the geometric rest length of role. The second
// result is false for FacePull, whose length is always supplied externally,
// and for undeclared roles.
func DefaultRestLength(role IntervalRole) (float32, bool) {
	if !role.Valid() || !hasRestLength[role] {
		return 0, false
	}
	return restLengths[role], true
}

// RoleFromTag converts a raw tag into an IntervalRole.
func RoleFromTag(tag uint8) (IntervalRole, error) {
	return fromTag[IntervalRole]("interval role", tag, roleNames)
}

// ParseRole parses a role name such as "NexusCross".
func ParseRole(s string) (IntervalRole, error) {
	return parseName[IntervalRole]("interval role", s, roleNames)
}

// Roles returns every interval role in tag order.
func Roles() []IntervalRole {
	out := make([]IntervalRole, RoleCount)
	for i := range out {
		out[i] = IntervalRole(i)
	}
	return out
}

func (r IntervalRole) String() string { return nameOf("IntervalRole", r, roleNames) }

// Tag returns the raw tag exchanged with hosts.
func (r IntervalRole) Tag() uint8 { return uint8(r) }

// Valid reports whether r is a declared role.
func (r IntervalRole) Valid() bool { return r < RoleCount }

// Push reports whether the role is a compression strut.
func (r IntervalRole) Push() bool {
	return r == RoleNexusPush || r == RoleColumnPush
}

// LengthFeature returns the feature that tunes this role's rest length.
func (r IntervalRole) LengthFeature() (FabricFeature, bool) {
	if !r.Valid() || !hasRestLength[r] {
		return 0, false
	}
	return roleFeatures[r], true
}

// MarshalText implements encoding.TextMarshaler.
func (r IntervalRole) MarshalText() ([]byte, error) {
	return marshalName("interval role", r, roleNames)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *IntervalRole) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
