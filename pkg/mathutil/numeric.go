// Package mathutil provides common numeric helpers for the cost model and
// the simulator.
package mathutil

import (
	"math"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"gonum.org/v1/gonum/floats"
)

// WithinTolerance checks if two values are within an absolute tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// WithinRelative checks if got is within rel (e.g. 0.01 for 1%) of want.
// A zero want falls back to an absolute comparison against rel.
func WithinRelative(got, want, rel float64) bool {
	if want == 0 {
		return math.Abs(got) <= rel
	}
	return math.Abs(got-want) <= math.Abs(want)*rel
}

// Clamp limits val to [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Percentage calculates what percentage value is of total
func Percentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// Accumulator sums float64 values with Neumaier compensation so that small
// net amounts survive next to multi-billion gross figures.
type Accumulator struct {
	sum          float64
	compensation float64
	n            int
}

// Add folds v into the running sum.
func (a *Accumulator) Add(v float64) {
	t := a.sum + v
	if math.Abs(a.sum) >= math.Abs(v) {
		a.compensation += (a.sum - t) + v
	} else {
		a.compensation += (v - t) + a.sum
	}
	a.sum = t
	a.n++
}

// Sum returns the compensated total.
func (a *Accumulator) Sum() float64 {
	return a.sum + a.compensation
}

// Count returns the number of values added.
func (a *Accumulator) Count() int {
	return a.n
}

// Sum returns the compensated sum of values.
func Sum(values ...float64) float64 {
	return floats.SumCompensated(values)
}
