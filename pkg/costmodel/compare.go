package costmodel

import (
	"fmt"
	"math"

	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
)

// Comparison puts the traditional and blockchain totals side by side.
type Comparison struct {
	Traditional       CostBreakdown
	Blockchain        SavingsBreakdown
	TraditionalTotal  float64
	BlockchainTotal   float64
	NetSavings        float64
	SavingsPct        float64
	ROI               float64 // net savings per dollar of transaction cost, +Inf when free
	EffectiveAdoption float64
}

// Compare evaluates both models.
func Compare(bc *Blockchain) (Comparison, error) {
	trad, err := bc.base.Breakdown()
	if err != nil {
		return Comparison{}, err
	}
	savings, err := bc.Breakdown()
	if err != nil {
		return Comparison{}, err
	}
	c := Comparison{
		Traditional:       trad,
		Blockchain:        savings,
		TraditionalTotal:  trad.TotalCost,
		BlockchainTotal:   bc.TotalCost(),
		EffectiveAdoption: bc.adoption,
	}
	c.NetSavings = c.TraditionalTotal - c.BlockchainTotal
	c.SavingsPct = mathutil.Percentage(c.NetSavings, c.TraditionalTotal)
	if savings.BlockchainCosts > 0 {
		c.ROI = c.NetSavings / savings.BlockchainCosts
	} else {
		c.ROI = math.Inf(1)
	}
	return c, nil
}

// Assess builds both models and returns their breakdowns in one call.
func Assess(flow PaymentFlow, assumptions CostAssumptions, constants ModelConstants, effectiveAdoption float64) (CostBreakdown, SavingsBreakdown, error) {
	trad, err := NewTraditional(flow, assumptions, constants)
	if err != nil {
		return CostBreakdown{}, SavingsBreakdown{}, err
	}
	bc, err := NewBlockchain(trad, effectiveAdoption)
	if err != nil {
		return CostBreakdown{}, SavingsBreakdown{}, err
	}
	costs, err := trad.Breakdown()
	if err != nil {
		return CostBreakdown{}, SavingsBreakdown{}, err
	}
	savings, err := bc.Breakdown()
	if err != nil {
		return CostBreakdown{}, SavingsBreakdown{}, err
	}
	return costs, savings, nil
}

// DefaultSweepRates are the adoption levels 10% through 100%.
func DefaultSweepRates() []float64 {
	rates := make([]float64, 10)
	for i := range rates {
		rates[i] = float64(i+1) / 10
	}
	return rates
}

// SweepAdoption evaluates the savings breakdown at each adoption rate.
func SweepAdoption(trad *Traditional, rates []float64) ([]SavingsBreakdown, error) {
	if len(rates) == 0 {
		rates = DefaultSweepRates()
	}
	out := make([]SavingsBreakdown, 0, len(rates))
	for _, rate := range rates {
		bc, err := NewBlockchain(trad, rate)
		if err != nil {
			return nil, fmt.Errorf("adoption sweep at %v: %w", rate, err)
		}
		s, err := bc.Breakdown()
		if err != nil {
			return nil, fmt.Errorf("adoption sweep at %v: %w", rate, err)
		}
		out = append(out, s)
	}
	return out, nil
}
