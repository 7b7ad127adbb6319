package fabric

// Stage is the lifecycle phase of a fabric. Later stages are more settled,
// so stages compare with the ordinary integer operators.
type Stage uint8

const (
	StageBusy      Stage = iota // Assembling joints and intervals
	StageGrowing                // Intervals lengthening toward rest length
	StageShaping                // Pretension and stiffness raised to pull into shape
	StageSlack                  // Tension released, nothing pulling
	StageRealizing              // Pretension applied, converging
	StageRealized               // Settled equilibrium
)

// StageCount is the number of stages.
const StageCount = 6

var stageNames = []string{"Busy", "Growing", "Shaping", "Slack", "Realizing", "Realized"}

// StageFromTag converts a raw tag into a Stage.
func StageFromTag(tag uint8) (Stage, error) {
	return fromTag[Stage]("stage", tag, stageNames)
}

// ParseStage parses a stage name such as "Realizing".
func ParseStage(s string) (Stage, error) {
	return parseName[Stage]("stage", s, stageNames)
}

// Stages returns every stage in lifecycle order.
func Stages() []Stage {
	out := make([]Stage, StageCount)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}

func (s Stage) String() string { return nameOf("Stage", s, stageNames) }

// Tag returns the raw tag exchanged with hosts.
func (s Stage) Tag() uint8 { return uint8(s) }

// Valid reports whether s is a declared stage.
func (s Stage) Valid() bool { return s < StageCount }

// Before reports whether s comes strictly earlier in the lifecycle than other.
func (s Stage) Before(other Stage) bool { return s < other }

// Settled reports whether the fabric has reached pretensioned realization.
func (s Stage) Settled() bool { return s >= StageRealizing && s.Valid() }

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) { return marshalName("stage", s, stageNames) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(b []byte) error {
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
