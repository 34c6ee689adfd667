package sensitivity

import (
	"fmt"

	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// SpiderParameters are the default spider variables: the payment cycle and
// rate inputs.
func SpiderParameters() []Parameter {
	return []Parameter{DSO, DPO, CostOfCapital, FactoringRate, FraudLossRate}
}

// SpiderLine is net savings change, in percent of base, at each step.
type SpiderLine struct {
	Parameter Parameter
	Changes   []float64
}

// Spider holds evenly spaced fractional input changes and one line per
// parameter.
type Spider struct {
	Steps      []float64
	BaseOutput float64
	Lines      []SpiderLine
}

// SpiderData evaluates net savings at points evenly spaced input changes in
// [-rangePct, +rangePct]. Inputs are clamped to their domain. A zero base
// output yields flat lines.
func SpiderData(base Point, rangePct float64, points int, params ...Parameter) (Spider, error) {
	if err := validateRange("spiderRangePct", rangePct); err != nil {
		return Spider{}, err
	}
	if points < 2 {
		return Spider{}, validation.InvalidParameter("spiderPoints", float64(points), ">= 2")
	}
	if len(params) == 0 {
		params = SpiderParameters()
	}
	baseOut, err := base.Evaluate(NetSavings)
	if err != nil {
		return Spider{}, fmt.Errorf("spider base point: %w", err)
	}

	steps := make([]float64, points)
	for i := range steps {
		steps[i] = -rangePct + 2*rangePct*float64(i)/float64(points-1)
	}

	sp := Spider{Steps: steps, BaseOutput: baseOut, Lines: make([]SpiderLine, 0, len(params))}
	for _, p := range params {
		baseVal, err := base.Value(p)
		if err != nil {
			return Spider{}, err
		}
		line := SpiderLine{Parameter: p, Changes: make([]float64, points)}
		for i, step := range steps {
			out, err := evaluateAt(base, p, Clamp(p, baseVal*(1+step)), NetSavings)
			if err != nil {
				return Spider{}, fmt.Errorf("spider %s at %+.0f%%: %w", p, step*100, err)
			}
			if baseOut != 0 {
				line.Changes[i] = mathutil.Percentage(out-baseOut, baseOut)
			}
		}
		sp.Lines = append(sp.Lines, line)
	}
	return sp, nil
}
