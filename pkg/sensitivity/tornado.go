// Package sensitivity measures how the cost model's outputs respond to its
// inputs: one-at-a-time tornado and spider sweeps around a base point, rank
// correlation over simulated trials, value drivers and breakeven odds.
package sensitivity

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// Parameter names a perturbable model input.
type Parameter string

const (
	Revenue          Parameter = "revenue"
	DSO              Parameter = "dso"
	DPO              Parameter = "dpo"
	CostOfCapital    Parameter = "costOfCapital"
	FactoringRate    Parameter = "factoringRate"
	FraudLossRate    Parameter = "fraudLossRate"
	AdminCostPerLoad Parameter = "adminCostPerLoad"
	TxCostPerLoad    Parameter = "txCost"
	AdoptionRate     Parameter = "adoptionRate"
)

// Parameters lists every tornado parameter.
func Parameters() []Parameter {
	return []Parameter{Revenue, DSO, DPO, CostOfCapital, FactoringRate, FraudLossRate, AdminCostPerLoad, TxCostPerLoad, AdoptionRate}
}

// Metric names a model output.
type Metric string

const (
	NetSavings          Metric = "netSavings"
	FinancingSavings    Metric = "financingSavings"
	FactoringSavings    Metric = "factoringSavings"
	FraudSavings        Metric = "fraudSavings"
	BlockchainTotalCost Metric = "blockchainTotalCost"
)

// Point is a fully specified model evaluation.
type Point struct {
	Flow        costmodel.PaymentFlow
	Assumptions costmodel.CostAssumptions
	Constants   costmodel.ModelConstants
	Adoption    float64 // effective
}

// Value reads parameter p at this point.
func (pt Point) Value(p Parameter) (float64, error) {
	switch p {
	case Revenue:
		return pt.Flow.AnnualRevenue, nil
	case DSO:
		return pt.Flow.DSODays, nil
	case DPO:
		return pt.Flow.DPODays, nil
	case CostOfCapital:
		return pt.Assumptions.CostOfCapital, nil
	case FactoringRate:
		return pt.Assumptions.FactoringRate, nil
	case FraudLossRate:
		return pt.Assumptions.FraudLossRate, nil
	case AdminCostPerLoad:
		return pt.Assumptions.AdminCostPerLoad, nil
	case TxCostPerLoad:
		return pt.Assumptions.BlockchainTxCost, nil
	case AdoptionRate:
		return pt.Adoption, nil
	}
	return 0, fmt.Errorf("%w: unknown sensitivity parameter %q", validation.ErrInvalidParameter, p)
}

// With returns a copy of the point with parameter p set to v.
func (pt Point) With(p Parameter, v float64) (Point, error) {
	switch p {
	case Revenue:
		pt.Flow.AnnualRevenue = v
	case DSO:
		pt.Flow.DSODays = v
	case DPO:
		pt.Flow.DPODays = v
	case CostOfCapital:
		pt.Assumptions.CostOfCapital = v
	case FactoringRate:
		pt.Assumptions.FactoringRate = v
	case FraudLossRate:
		pt.Assumptions.FraudLossRate = v
	case AdminCostPerLoad:
		pt.Assumptions.AdminCostPerLoad = v
	case TxCostPerLoad:
		pt.Assumptions.BlockchainTxCost = v
	case AdoptionRate:
		pt.Adoption = v
	default:
		return Point{}, fmt.Errorf("%w: unknown sensitivity parameter %q", validation.ErrInvalidParameter, p)
	}
	return pt, nil
}

// Domain returns the closed interval parameter p may take. Rates stay below
// one and adoption is a fraction; the remaining inputs are non-negative.
func Domain(p Parameter) (lo, hi float64) {
	switch p {
	case CostOfCapital, FactoringRate, FraudLossRate:
		return 0, math.Nextafter(1, 0)
	case AdoptionRate:
		return 0, 1
	}
	return 0, math.Inf(1)
}

// Clamp limits v to the domain of p.
func Clamp(p Parameter, v float64) float64 {
	lo, hi := Domain(p)
	return math.Min(math.Max(v, lo), hi)
}

// Evaluate computes metric at this point.
func (pt Point) Evaluate(metric Metric) (float64, error) {
	trad, err := costmodel.NewTraditional(pt.Flow, pt.Assumptions, pt.Constants)
	if err != nil {
		return 0, err
	}
	bc, err := costmodel.NewBlockchain(trad, pt.Adoption)
	if err != nil {
		return 0, err
	}
	var v float64
	switch metric {
	case NetSavings:
		v = bc.NetSavings()
	case FinancingSavings:
		v = bc.FinancingSavings()
	case FactoringSavings:
		v = bc.FactoringSavings()
	case FraudSavings:
		v = bc.FraudSavings()
	case BlockchainTotalCost:
		v = bc.TotalCost()
	default:
		return 0, fmt.Errorf("%w: unknown output metric %q", validation.ErrInvalidParameter, metric)
	}
	if err := validation.Finite(validation.ErrComputationOverflow, string(metric), v); err != nil {
		return 0, err
	}
	return v, nil
}

// TornadoBar is one parameter's low/high response.
type TornadoBar struct {
	Parameter  Parameter
	BaseValue  float64
	LowValue   float64
	HighValue  float64
	BaseOutput float64
	LowOutput  float64
	HighOutput float64
	Swing      float64 // |high - low| output
	Elasticity float64 // % output change per % input change, 0 when undefined
}

func validateRange(field string, pct float64) error {
	if math.IsNaN(pct) || pct <= 0 || pct >= 1 {
		return validation.InvalidParameter(field, pct, "in (0, 1)")
	}
	return nil
}

// Tornado perturbs each parameter by ±rangePct holding the rest at base and
// returns the bars sorted by swing, largest first. Perturbed values are
// clamped to the parameter's domain and LowValue/HighValue record the
// values actually evaluated.
func Tornado(base Point, metric Metric, rangePct float64, params ...Parameter) ([]TornadoBar, error) {
	if err := validateRange("rangePct", rangePct); err != nil {
		return nil, err
	}
	if len(params) == 0 {
		params = Parameters()
	}
	baseOut, err := base.Evaluate(metric)
	if err != nil {
		return nil, fmt.Errorf("tornado base point: %w", err)
	}

	bars := make([]TornadoBar, 0, len(params))
	for _, p := range params {
		baseVal, err := base.Value(p)
		if err != nil {
			return nil, err
		}
		bar := TornadoBar{
			Parameter:  p,
			BaseValue:  baseVal,
			LowValue:   Clamp(p, baseVal*(1-rangePct)),
			HighValue:  Clamp(p, baseVal*(1+rangePct)),
			BaseOutput: baseOut,
		}
		if bar.LowOutput, err = evaluateAt(base, p, bar.LowValue, metric); err != nil {
			return nil, fmt.Errorf("tornado %s low: %w", p, err)
		}
		if bar.HighOutput, err = evaluateAt(base, p, bar.HighValue, metric); err != nil {
			return nil, fmt.Errorf("tornado %s high: %w", p, err)
		}
		bar.Swing = math.Abs(bar.HighOutput - bar.LowOutput)
		if baseVal != 0 && baseOut != 0 && bar.HighValue != bar.LowValue {
			inChange := (bar.HighValue - bar.LowValue) / baseVal
			outChange := (bar.HighOutput - bar.LowOutput) / baseOut
			bar.Elasticity = outChange / inChange
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Swing > bars[j].Swing })
	return bars, nil
}

func evaluateAt(base Point, p Parameter, v float64, metric Metric) (float64, error) {
	pt, err := base.With(p, v)
	if err != nil {
		return 0, err
	}
	return pt.Evaluate(metric)
}

// KeyUncertainties returns the parameters whose swing is at least
// thresholdPct of the absolute base output, in bar order.
func KeyUncertainties(bars []TornadoBar, thresholdPct float64) []Parameter {
	if len(bars) == 0 {
		return nil
	}
	threshold := math.Abs(bars[0].BaseOutput) * thresholdPct
	var keys []Parameter
	for _, b := range bars {
		if b.Swing >= threshold {
			keys = append(keys, b.Parameter)
		}
	}
	return keys
}
