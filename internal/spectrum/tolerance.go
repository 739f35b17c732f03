package spectrum

import "math"

// Tolerance decides whether an observed value matches a theoretical one.
type Tolerance interface {
	Within(experimental, theoretical float64) bool
	Width(mass float64) float64
}

// PpmTolerance is a relative tolerance in parts per million.
type PpmTolerance float64

// Within compares relative to the theoretical value.
func (t PpmTolerance) Within(experimental, theoretical float64) bool {
	if theoretical == 0 {
		return experimental == 0
	}
	return math.Abs((experimental-theoretical)/theoretical*1e6) <= float64(t)
}

// Width is the full window size around mass.
func (t PpmTolerance) Width(mass float64) float64 {
	return 2 * mass * float64(t) * 1e-6
}
