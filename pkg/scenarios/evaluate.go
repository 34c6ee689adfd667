package scenarios

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// Options controls the investment horizon of an evaluation.
type Options struct {
	HorizonYears int
	// DiscountRate discounts annual savings; nil means the cost of capital.
	DiscountRate *float64
}

// DefaultOptions evaluates over five years at the cost of capital.
func DefaultOptions() Options {
	return Options{HorizonYears: constants.DefaultHorizonYears}
}

// Result is one row of the scenario comparison table.
type Result struct {
	Scenario          AdoptionScenario
	EffectiveAdoption float64
	TraditionalCost   float64
	BlockchainCost    float64 // traditional cost less net savings plus maintenance
	GrossSavings      float64
	TransactionCosts  float64
	NetSavings        float64 // before maintenance
	NetAnnualSavings  float64 // after maintenance
	ROI               float64
	SimplePayback     float64 // years, +Inf when savings never cover the investment
	NPV               float64
	PaybackYear       int // first year cumulative discounted savings cover the investment
	Recovered         bool
	Savings           costmodel.SavingsBreakdown
}

// PaybackLabel renders the discounted payback for reports.
func (r Result) PaybackLabel() string {
	if !r.Recovered {
		return "not recovered within horizon"
	}
	if r.PaybackYear == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", r.PaybackYear)
}

// Evaluator applies the cost model to scenarios against a fixed baseline.
type Evaluator struct {
	flow         costmodel.PaymentFlow
	assumptions  costmodel.CostAssumptions
	constants    costmodel.ModelConstants
	horizonYears int
	discountRate float64
}

// NewEvaluator validates the baseline and options.
func NewEvaluator(flow costmodel.PaymentFlow, assumptions costmodel.CostAssumptions, mc costmodel.ModelConstants, opts Options) (*Evaluator, error) {
	if _, err := costmodel.NewTraditional(flow, assumptions, mc); err != nil {
		return nil, err
	}
	if opts.HorizonYears <= 0 {
		return nil, validation.InvalidParameter("horizonYears", float64(opts.HorizonYears), "> 0")
	}
	rate := assumptions.CostOfCapital
	if opts.DiscountRate != nil {
		rate = *opts.DiscountRate
	}
	if err := validation.Rate(validation.ErrInvalidParameter, "discountRate", rate); err != nil {
		return nil, err
	}
	return &Evaluator{
		flow:         flow,
		assumptions:  assumptions,
		constants:    mc,
		horizonYears: opts.HorizonYears,
		discountRate: rate,
	}, nil
}

func (e *Evaluator) DiscountRate() float64 {
	return e.discountRate
}

func (e *Evaluator) HorizonYears() int {
	return e.horizonYears
}

// Models builds the traditional and blockchain models for a scenario: the
// scenario's transaction cost and fraud reduction replace the baseline's.
func (e *Evaluator) Models(s AdoptionScenario) (*costmodel.Traditional, *costmodel.Blockchain, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	assumptions := e.assumptions
	assumptions.BlockchainTxCost = s.TxCost
	mc := e.constants
	mc.FraudReduction = s.FraudReduction

	trad, err := costmodel.NewTraditional(e.flow, assumptions, mc)
	if err != nil {
		return nil, nil, err
	}
	bc, err := costmodel.NewBlockchain(trad, s.EffectiveAdoption())
	if err != nil {
		return nil, nil, err
	}
	return trad, bc, nil
}

// Evaluate produces the comparison row for one scenario.
func (e *Evaluator) Evaluate(s AdoptionScenario) (Result, error) {
	trad, bc, err := e.Models(s)
	if err != nil {
		return Result{}, err
	}
	costs, err := trad.Breakdown()
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", s.label(), err)
	}
	savings, err := bc.Breakdown()
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", s.label(), err)
	}

	r := Result{
		Scenario:          s,
		EffectiveAdoption: s.EffectiveAdoption(),
		TraditionalCost:   costs.TotalCost,
		GrossSavings:      savings.GrossSavings,
		TransactionCosts:  savings.BlockchainCosts,
		NetSavings:        savings.NetSavings,
		NetAnnualSavings:  savings.NetSavings - s.AnnualMaintenanceCost,
		Savings:           savings,
	}
	r.BlockchainCost = mathutil.Sum(costs.TotalCost, -savings.NetSavings, s.AnnualMaintenanceCost)

	switch {
	case s.ImplementationCost > 0:
		r.ROI = r.NetAnnualSavings / s.ImplementationCost
		if r.NetAnnualSavings > 0 {
			r.SimplePayback = s.ImplementationCost / r.NetAnnualSavings
		} else {
			r.SimplePayback = math.Inf(1)
		}
	case r.NetAnnualSavings > 0:
		r.ROI = math.Inf(1)
	}

	r.NPV, r.PaybackYear, r.Recovered = discount(r.NetAnnualSavings, s.ImplementationCost, e.discountRate, e.horizonYears)
	if err := validation.First(
		validation.Finite(validation.ErrComputationOverflow, "npv", r.NPV),
		validation.Finite(validation.ErrComputationOverflow, "blockchainCost", r.BlockchainCost),
	); err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", s.label(), err)
	}
	return r, nil
}

// discount returns the NPV of a level annual saving against an up-front
// investment, and the first year the cumulative discounted saving covers it.
func discount(annual, investment, rate float64, years int) (npv float64, paybackYear int, recovered bool) {
	var acc mathutil.Accumulator
	acc.Add(-investment)
	cumulative := 0.0
	if investment <= 0 {
		recovered = true
	}
	for year := 1; year <= years; year++ {
		pv := annual / math.Pow(1+rate, float64(year))
		acc.Add(pv)
		cumulative += pv
		if !recovered && cumulative >= investment {
			recovered = true
			paybackYear = year
		}
	}
	return acc.Sum(), paybackYear, recovered
}

// EvaluateAll evaluates each scenario in order.
func (e *Evaluator) EvaluateAll(table []AdoptionScenario) ([]Result, error) {
	results := make([]Result, 0, len(table))
	for _, s := range table {
		r, err := e.Evaluate(s)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Summary aggregates a scenario table.
type Summary struct {
	AvgAnnualSavings float64
	MinAnnualSavings float64
	MaxAnnualSavings float64
	AvgNPV           float64
	AvgPaybackYears  float64 // mean simple payback over scenarios that pay back, +Inf if none
	BestScenario     string
	WorstScenario    string
	AllPositiveNPV   bool
}

// Summarize aggregates results. It fails on an empty table.
func Summarize(results []Result) (Summary, error) {
	if len(results) == 0 {
		return Summary{}, fmt.Errorf("no scenario results to summarize")
	}
	var savings, npvs, paybacks mathutil.Accumulator
	s := Summary{
		MinAnnualSavings: math.Inf(1),
		MaxAnnualSavings: math.Inf(-1),
		AllPositiveNPV:   true,
	}
	best, worst := results[0], results[0]
	for _, r := range results {
		savings.Add(r.NetAnnualSavings)
		npvs.Add(r.NPV)
		if !math.IsInf(r.SimplePayback, 1) {
			paybacks.Add(r.SimplePayback)
		}
		s.MinAnnualSavings = math.Min(s.MinAnnualSavings, r.NetAnnualSavings)
		s.MaxAnnualSavings = math.Max(s.MaxAnnualSavings, r.NetAnnualSavings)
		if r.NPV <= 0 {
			s.AllPositiveNPV = false
		}
		if r.NPV > best.NPV {
			best = r
		}
		if r.NPV < worst.NPV {
			worst = r
		}
	}
	n := float64(len(results))
	s.AvgAnnualSavings = savings.Sum() / n
	s.AvgNPV = npvs.Sum() / n
	if paybacks.Count() > 0 {
		s.AvgPaybackYears = paybacks.Sum() / float64(paybacks.Count())
	} else {
		s.AvgPaybackYears = math.Inf(1)
	}
	s.BestScenario = best.Scenario.Name
	s.WorstScenario = worst.Scenario.Name
	return s, nil
}

var scenarioFields = map[string]func(*AdoptionScenario, float64){
	"adoptionRate":          func(s *AdoptionScenario, v float64) { s.AdoptionRate = v },
	"shipperEscrowRate":     func(s *AdoptionScenario, v float64) { s.ShipperEscrowRate = v },
	"carrierReadiness":      func(s *AdoptionScenario, v float64) { s.CarrierReadiness = v },
	"txCost":                func(s *AdoptionScenario, v float64) { s.TxCost = v },
	"fraudReduction":        func(s *AdoptionScenario, v float64) { s.FraudReduction = v },
	"implementationCost":    func(s *AdoptionScenario, v float64) { s.ImplementationCost = v },
	"annualMaintenanceCost": func(s *AdoptionScenario, v float64) { s.AnnualMaintenanceCost = v },
}

// SweepFields lists the scenario fields accepted by Sweep.
func SweepFields() []string {
	fields := make([]string, 0, len(scenarioFields))
	for f := range scenarioFields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Sweep re-evaluates base with one field set to each value in turn.
func (e *Evaluator) Sweep(base AdoptionScenario, field string, values []float64) ([]Result, error) {
	set, ok := scenarioFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scenario field %q, expected one of %v", validation.ErrInvalidParameter, field, SweepFields())
	}
	results := make([]Result, 0, len(values))
	for _, v := range values {
		s := base
		s.Name = fmt.Sprintf("%s (%s=%g)", base.label(), field, v)
		set(&s, v)
		r, err := e.Evaluate(s)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}
