package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/format"
	"github.com/iwvelando/settlement-feasibility/pkg/optimization"
	"github.com/iwvelando/settlement-feasibility/pkg/scenarios"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"go.uber.org/zap"
)

// Searchable scenario fields.
const (
	FieldAdoptionRate = "adoptionRate"
	FieldTxCost       = "txCost"
)

// Config bounds the bisection searches.
type Config struct {
	MaxIterations      int
	Tolerance          float64 // on adoption; tx cost uses Tolerance * MaxTxCost
	TargetPaybackYears float64
	MaxTxCost          float64
}

// DefaultConfig searches to 0.01% adoption within 100 steps.
func DefaultConfig() Config {
	return Config{
		MaxIterations:      100,
		Tolerance:          1e-4,
		TargetPaybackYears: constants.DefaultTargetPaybackYears,
		MaxTxCost:          100,
	}
}

func (c Config) Validate() error {
	if c.MaxIterations <= 0 {
		return validation.InvalidParameter("maxIterations", float64(c.MaxIterations), "> 0")
	}
	return validation.First(
		validation.Positive(validation.ErrInvalidParameter, "tolerance", c.Tolerance),
		validation.Positive(validation.ErrInvalidParameter, "targetPaybackYears", c.TargetPaybackYears),
		validation.Positive(validation.ErrInvalidParameter, "maxTxCost", c.MaxTxCost),
	)
}

// Runner solves breakeven thresholds for scenarios.
type Runner struct {
	logger    *zap.Logger
	evaluator *scenarios.Evaluator
	cfg       Config
}

type evaluation struct {
	value    float64
	achieved float64
	target   float64
}

func (e evaluation) feasible() bool {
	return e.achieved >= e.target
}

func (e evaluation) headroom() float64 {
	return e.achieved - e.target
}

// Result summarizes breakeven searches keyed by scenario key.
type Result struct {
	Summaries map[string][]optimization.Summary
	Order     []string
}

// Empty indicates whether any searches were run.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// NewRunner constructs a Runner over the provided evaluator.
func NewRunner(logger *zap.Logger, evaluator *scenarios.Evaluator, cfg Config) (*Runner, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, evaluator: evaluator, cfg: cfg}, nil
}

// Run solves, for every scenario, the breakeven adoption, the adoption that
// meets the payback target and the highest tolerable transaction cost.
func (r *Runner) Run(table []scenarios.AdoptionScenario) (*Result, error) {
	result := &Result{Summaries: make(map[string][]optimization.Summary)}
	for _, s := range table {
		searches := []func(scenarios.AdoptionScenario) (optimization.Summary, error){
			r.BreakevenAdoption,
			r.PaybackAdoption,
			r.BreakevenTxCost,
		}
		for _, search := range searches {
			summary, err := search(s)
			if err != nil {
				return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			result.Summaries[s.Key] = append(result.Summaries[s.Key], summary)

			r.logger.Info("optimizer solved breakeven field",
				zap.String("op", "optimizer.Run"),
				zap.String("scenario", s.Key),
				zap.String("field", summary.Field),
				zap.String("scope", summary.Scope),
				zap.Float64("originalNumeric", summary.Original),
				zap.Float64("solvedNumeric", summary.Value),
				zap.String("solvedDisplay", summary.ValueDisplay),
				zap.Float64("target", summary.Target),
				zap.Float64("headroom", summary.Headroom),
				zap.Int("iterations", summary.Iterations),
				zap.Bool("converged", summary.Converged),
			)
		}
		result.Order = append(result.Order, s.Key)
	}
	return result, nil
}

// BreakevenAdoption finds the lowest effective adoption at which annual
// savings net of maintenance reach zero.
func (r *Runner) BreakevenAdoption(s scenarios.AdoptionScenario) (optimization.Summary, error) {
	return r.solveAdoption(s, 0, "breakeven")
}

// PaybackAdoption finds the lowest effective adoption whose simple payback
// meets the configured target.
func (r *Runner) PaybackAdoption(s scenarios.AdoptionScenario) (optimization.Summary, error) {
	target := s.ImplementationCost / r.cfg.TargetPaybackYears
	return r.solveAdoption(s, target, fmt.Sprintf("payback %.1f yrs", r.cfg.TargetPaybackYears))
}

func (r *Runner) solveAdoption(s scenarios.AdoptionScenario, target float64, scope string) (optimization.Summary, error) {
	eval := func(v float64) (evaluation, error) {
		trial := s
		trial.AdoptionRate = v
		trial.ShipperEscrowRate = 1
		trial.CarrierReadiness = 1
		res, err := r.evaluator.Evaluate(trial)
		if err != nil {
			return evaluation{}, err
		}
		return evaluation{value: v, achieved: res.NetAnnualSavings, target: target}, nil
	}
	final, iterations, converged, err := r.bisect(0, 1, r.cfg.Tolerance, eval, true)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := r.summarize(s, scope, FieldAdoptionRate, s.EffectiveAdoption(), final, iterations, converged)
	if !final.feasible() {
		summary.Notes = append(summary.Notes, fmt.Sprintf("annual savings of %s unreachable even at full adoption", format.Compact(target)))
	} else if gate := math.Min(s.ShipperEscrowRate, s.CarrierReadiness); final.value > gate {
		summary.Notes = append(summary.Notes, fmt.Sprintf("required adoption %s exceeds the %s allowed by escrow and carrier readiness",
			format.Percent(final.value), format.Percent(gate)))
	}
	return summary, nil
}

// BreakevenTxCost finds the highest per-load transaction cost at which the
// scenario still breaks even annually.
func (r *Runner) BreakevenTxCost(s scenarios.AdoptionScenario) (optimization.Summary, error) {
	eval := func(v float64) (evaluation, error) {
		trial := s
		trial.TxCost = v
		res, err := r.evaluator.Evaluate(trial)
		if err != nil {
			return evaluation{}, err
		}
		return evaluation{value: v, achieved: res.NetAnnualSavings, target: 0}, nil
	}
	final, iterations, converged, err := r.bisect(0, r.cfg.MaxTxCost, r.cfg.Tolerance*r.cfg.MaxTxCost, eval, false)
	if err != nil {
		return optimization.Summary{}, err
	}
	summary := r.summarize(s, "breakeven", FieldTxCost, s.TxCost, final, iterations, converged)
	if !final.feasible() {
		summary.Notes = append(summary.Notes, "scenario loses money even with free transactions")
	}
	return summary, nil
}

// bisect narrows [lower, upper] to the feasibility boundary. With
// feasibleAbove the smallest feasible value is sought, otherwise the largest.
// Feasibility must be monotone in the searched value.
func (r *Runner) bisect(lower, upper, tolerance float64, eval func(float64) (evaluation, error), feasibleAbove bool) (evaluation, int, bool, error) {
	lowerEval, err := eval(lower)
	if err != nil {
		return evaluation{}, 0, false, err
	}
	upperEval, err := eval(upper)
	if err != nil {
		return evaluation{}, 0, false, err
	}

	// The boundary lies outside the bounds: either every value is feasible or none is.
	if feasibleAbove {
		if lowerEval.feasible() {
			return lowerEval, 0, true, nil
		}
		if !upperEval.feasible() {
			return upperEval, 0, false, nil
		}
	} else {
		if upperEval.feasible() {
			return upperEval, 0, true, nil
		}
		if !lowerEval.feasible() {
			return lowerEval, 0, false, nil
		}
	}

	finalEval := upperEval
	if !feasibleAbove {
		finalEval = lowerEval
	}
	iterations := 0
	for iterations < r.cfg.MaxIterations && math.Abs(upper-lower) > tolerance {
		mid := lower + (upper-lower)/2
		evalMid, err := eval(mid)
		if err != nil {
			return evaluation{}, iterations, false, err
		}
		iterations++
		switch {
		case evalMid.feasible() && feasibleAbove:
			finalEval = evalMid
			upper = mid
		case evalMid.feasible():
			finalEval = evalMid
			lower = mid
		case feasibleAbove:
			lower = mid
		default:
			upper = mid
		}
	}
	return finalEval, iterations, math.Abs(upper-lower) <= tolerance, nil
}

func (r *Runner) summarize(s scenarios.AdoptionScenario, scope, field string, original float64, final evaluation, iterations int, converged bool) optimization.Summary {
	return optimization.Summary{
		Scope:           scope,
		TargetName:      s.Name,
		Field:           field,
		Original:        original,
		OriginalDisplay: formatFieldDisplay(field, original),
		Value:           final.value,
		ValueDisplay:    formatFieldDisplay(field, final.value),
		Target:          final.target,
		Achieved:        final.achieved,
		Headroom:        final.headroom(),
		Iterations:      iterations,
		Converged:       converged && final.feasible(),
	}
}

func formatFieldDisplay(field string, value float64) string {
	switch field {
	case FieldAdoptionRate:
		return format.Percent(value)
	case FieldTxCost:
		return format.Currency(value)
	default:
		return fmt.Sprintf("%.2f", value)
	}
}
