package followup

import (
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// ResolveSize reduces the measurements of a descriptor to one size in
// millimeters: a single value as is, the mean of two values, or the mean of the
// two largest of three.
func ResolveSize(measurements []float64, unit nodule.Unit) float64 {
	var size float64
	switch len(measurements) {
	case 0:
		return 0
	case 1:
		size = measurements[0]
	case 2:
		size = mean(measurements[0], measurements[1])
	default:
		a, b := largestPair(measurements[0], measurements[1], measurements[2])
		size = mean(a, b)
	}
	return unit.ToMillimeters(size)
}

// largestPair keeps the two largest of three values.  The third value replaces
// the smaller of the first two when it exceeds it; on a tie between the first
// two, the first is the one replaced.
func largestPair(a, b, c float64) (float64, float64) {
	if a <= b {
		if c > a {
			a = c
		}
		return a, b
	}
	if c > b {
		b = c
	}
	return a, b
}

func mean(a, b float64) float64 {
	return (a + b) / 2
}

//Personal.AI order the ending
