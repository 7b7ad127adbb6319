// Package phi provides the geometric constants every tensegrity rest length
// is derived from. Values are single precision; the integrator's tolerances
// are tuned to float32, so these must never be widened to float64.
package phi

import "math"

// Irrational roots, rounded once from their decimal expansions.
const (
	Root2 float32 = 1.414213562373095
	Root3 float32 = 1.732050807568877
	Root5 float32 = 2.23606797749979
)

// Derived constants. Every intermediate is converted to float32 so each step
// rounds exactly as single-precision arithmetic does.
const (
	// Phi is the golden ratio (1+√5)/2.
	Phi = float32(1+Root5) / 2

	// Cross1..Cross3 are the components of the nexus cross interval.
	Cross1 float32 = 0.5
	Cross2         = float32(float32(float32(Phi/3)-float32(1.0/6)) * Root3)
	Cross3         = float32(float32(float32(float32(Phi/3)*Root3)-1) + float32(Root2/Root3))
)

// Sqrt returns the correctly rounded single-precision square root.
// Rounding the float64 result once is exact for float32 inputs.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// SumSquares returns a² + b² + c² with every product rounded before the sum.
func SumSquares(a, b, c float32) float32 {
	return float32(a*a) + float32(b*b) + float32(c*c)
}
