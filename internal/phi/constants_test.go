package phi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Declared as constants so the build fails if any becomes assignable.
const (
	_ = Phi
	_ = Cross1
	_ = Cross2
	_ = Cross3
)

func TestDerivedConstantBits(t *testing.T) {
	assert.Equal(t, uint32(0x3fcf1bbd), math.Float32bits(Phi))
	assert.Equal(t, uint32(0x3f253f4e), math.Float32bits(Cross2))
	assert.Equal(t, uint32(0x3f402bd7), math.Float32bits(Cross3))
	assert.Equal(t, uint32(0x3f8df7fd), math.Float32bits(Sqrt(SumSquares(Cross1, Cross2, Cross3))))
}
