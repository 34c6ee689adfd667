// Package stats summarizes simulation outcomes: moments, percentiles, tail
// risk and rank correlation.
package stats

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Tail selects which side of a distribution counts as loss.
type Tail int

const (
	// UpperTail treats large values as adverse, e.g. capital tied up.
	UpperTail Tail = iota
	// LowerTail treats small values as adverse, e.g. savings. VaR and CVaR
	// are then reported as positive loss magnitudes.
	LowerTail
)

// Summary describes one outcome vector.
type Summary struct {
	Count            int
	Mean             float64
	StdDev           float64 // population
	Min              float64
	Max              float64
	P5               float64
	P25              float64
	Median           float64
	P75              float64
	P95              float64
	P99              float64
	Confidence       float64
	VaR              float64
	CVaR             float64
	FractionPositive float64
}

// Mean uses compensated summation.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return floats.SumCompensated(values) / float64(len(values))
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.PopStdDev(values, nil)
}

// Percentile linearly interpolates between closest ranks of sorted values,
// p in [0, 100]. This is the (n-1)p rule of spreadsheet PERCENTILE; gonum's
// stat.LinInterp interpolates the empirical CDF and lands elsewhere on small
// samples.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Sorted returns a sorted copy.
func Sorted(values []float64) []float64 {
	s := slices.Clone(values)
	sort.Float64s(s)
	return s
}

// TailRisk computes VaR and CVaR at confidence for the given tail.
func TailRisk(sorted []float64, confidence float64, tail Tail) (valueAtRisk, conditional float64) {
	if len(sorted) == 0 {
		return math.NaN(), math.NaN()
	}
	if tail == UpperTail {
		valueAtRisk = Percentile(sorted, confidence*100)
		i := sort.SearchFloat64s(sorted, valueAtRisk)
		return valueAtRisk, Mean(sorted[i:])
	}
	cut := Percentile(sorted, (1-confidence)*100)
	// Count the values at or below the cut, including ties.
	i := sort.Search(len(sorted), func(k int) bool { return sorted[k] > cut })
	return -cut, -Mean(sorted[:i])
}

// ValidateConfidence accepts a confidence level strictly inside (0, 1).
func ValidateConfidence(confidence float64) error {
	if math.IsNaN(confidence) || confidence <= 0 || confidence >= 1 {
		return validation.InvalidParameter("confidence", confidence, "in (0, 1)")
	}
	return nil
}

// Describe summarizes values. A single value yields a valid degenerate
// summary with zero spread.
func Describe(values []float64, confidence float64, tail Tail) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("%w: no values to summarize", validation.ErrInvalidParameter)
	}
	if err := ValidateConfidence(confidence); err != nil {
		return Summary{}, err
	}
	sorted := Sorted(values)
	s := Summary{
		Count:      len(values),
		Mean:       Mean(values),
		StdDev:     StdDev(values),
		Min:        sorted[0],
		Max:        sorted[len(sorted)-1],
		P5:         Percentile(sorted, 5),
		P25:        Percentile(sorted, 25),
		Median:     Percentile(sorted, 50),
		P75:        Percentile(sorted, 75),
		P95:        Percentile(sorted, 95),
		P99:        Percentile(sorted, 99),
		Confidence: confidence,
	}
	s.VaR, s.CVaR = TailRisk(sorted, confidence, tail)
	s.FractionPositive = FractionAbove(values, 0)
	if !mathutil.IsFinite(s.Mean) || !mathutil.IsFinite(s.StdDev) || !mathutil.IsFinite(s.CVaR) {
		return Summary{}, validation.Overflow("summary", s.Mean)
	}
	return s, nil
}

// FractionAbove is the share of values strictly greater than threshold.
func FractionAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v > threshold {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// Ranks assigns 1-based ranks, averaging ties.
func Ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// Pearson correlation. Returns 0 when either side has no variance.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: correlation over %d and %d values", validation.ErrInvalidParameter, len(x), len(y))
	}
	if len(x) < 2 || stat.PopVariance(x, nil) == 0 || stat.PopVariance(y, nil) == 0 {
		return 0, nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, nil
	}
	return mathutil.Clamp(r, -1, 1), nil
}

// Spearman rank correlation.
func Spearman(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: correlation over %d and %d values", validation.ErrInvalidParameter, len(x), len(y))
	}
	return Pearson(Ranks(x), Ranks(y))
}
