package fabric

// SurfaceCharacter tags how the ground surface treats joints that touch it.
// It carries no numbers here; collision logic interprets it.
type SurfaceCharacter uint8

const (
	SurfaceFrozen SurfaceCharacter = iota
	SurfaceSticky
	SurfaceSlippery
	SurfaceBouncy
)

// SurfaceCount is the number of surface characters.
const SurfaceCount = 4

var surfaceNames = []string{"Frozen", "Sticky", "Slippery", "Bouncy"}

// SurfaceFromTag converts a raw tag into a SurfaceCharacter.
func SurfaceFromTag(tag uint8) (SurfaceCharacter, error) {
	return fromTag[SurfaceCharacter]("surface", tag, surfaceNames)
}

// ParseSurface parses a surface character name.
func ParseSurface(s string) (SurfaceCharacter, error) {
	return parseName[SurfaceCharacter]("surface", s, surfaceNames)
}

// Surfaces returns every surface character in tag order.
func Surfaces() []SurfaceCharacter {
	out := make([]SurfaceCharacter, SurfaceCount)
	for i := range out {
		out[i] = SurfaceCharacter(i)
	}
	return out
}

func (c SurfaceCharacter) String() string { return nameOf("SurfaceCharacter", c, surfaceNames) }

// Tag returns the raw tag exchanged with hosts.
func (c SurfaceCharacter) Tag() uint8 { return uint8(c) }

// Valid reports whether c is a declared surface character.
func (c SurfaceCharacter) Valid() bool { return c < SurfaceCount }

// MarshalText implements encoding.TextMarshaler.
func (c SurfaceCharacter) MarshalText() ([]byte, error) {
	return marshalName("surface", c, surfaceNames)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *SurfaceCharacter) UnmarshalText(b []byte) error {
	v, err := ParseSurface(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Shapes index the alternative rest-length sets an interval can hold.
const (
	ShapeCount       = 16
	RestShape  uint8 = 0
)

// ValidShape reports whether shape indexes one of the ShapeCount slots.
func ValidShape(shape uint8) bool {
	return int(shape) < ShapeCount
}
