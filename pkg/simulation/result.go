package simulation

import (
	"fmt"

	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/stats"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// Output column names accepted by Result.Column alongside the sampled
// parameter names.
const (
	ColumnEffectiveAdoption = "effectiveAdoption"
	ColumnNetSavings        = "netSavings"
	ColumnTraditionalPeak   = "traditionalPeak"
	ColumnBlockchainPeak    = "blockchainPeak"
	ColumnMaxDrawdown       = "maxDrawdown"
)

// CapitalRisk summarizes the peak capital required along one trajectory type.
type CapitalRisk struct {
	Summary    stats.Summary // VaR/CVaR at the run confidence, upper tail
	VaR99      float64
	PeakP95    float64
	Volatility float64 // mean daily position std across trials
}

// RiskReduction compares traditional against blended capital risk.
type RiskReduction struct {
	VaR                 float64
	VaRPct              float64
	CVaR                float64
	CVaRPct             float64
	PeakCapital         float64
	PeakCapitalPct      float64
	Volatility          float64
	VolatilityPct       float64
	MeanCapitalReleased float64
}

// Result is the immutable outcome of one run.
type Result struct {
	Seed           uint64
	Confidence     float64
	Trials         []Trial
	NetSavings     stats.Summary // lower tail: VaR/CVaR are loss magnitudes
	Traditional    CapitalRisk
	Blockchain     CapitalRisk
	MaxDrawdownP95 float64
	RiskReduction  RiskReduction
}

func summarize(seed uint64, confidence float64, trials []Trial) (*Result, error) {
	r := &Result{Seed: seed, Confidence: confidence, Trials: trials}
	var err error
	if r.NetSavings, err = stats.Describe(r.column(func(t Trial) float64 { return t.NetSavings }), confidence, stats.LowerTail); err != nil {
		return nil, fmt.Errorf("net savings summary: %w", err)
	}
	if r.Traditional, err = capitalRisk(trials, confidence,
		func(t Trial) float64 { return t.TraditionalPeak },
		func(t Trial) float64 { return t.TraditionalVolatility }); err != nil {
		return nil, fmt.Errorf("traditional capital summary: %w", err)
	}
	if r.Blockchain, err = capitalRisk(trials, confidence,
		func(t Trial) float64 { return t.BlockchainPeak },
		func(t Trial) float64 { return t.BlockchainVolatility }); err != nil {
		return nil, fmt.Errorf("blockchain capital summary: %w", err)
	}
	drawdowns := stats.Sorted(r.column(func(t Trial) float64 { return t.MaxDrawdown }))
	r.MaxDrawdownP95 = stats.Percentile(drawdowns, 95)
	r.RiskReduction = Reduction(r.Traditional, r.Blockchain)
	return r, nil
}

func capitalRisk(trials []Trial, confidence float64, peak, vol func(Trial) float64) (CapitalRisk, error) {
	peaks := make([]float64, len(trials))
	var v mathutil.Accumulator
	for i, t := range trials {
		peaks[i] = peak(t)
		v.Add(vol(t))
	}
	summary, err := stats.Describe(peaks, confidence, stats.UpperTail)
	if err != nil {
		return CapitalRisk{}, err
	}
	sorted := stats.Sorted(peaks)
	var99, _ := stats.TailRisk(sorted, 0.99, stats.UpperTail)
	return CapitalRisk{
		Summary:    summary,
		VaR99:      var99,
		PeakP95:    summary.P95,
		Volatility: v.Sum() / float64(len(trials)),
	}, nil
}

// Reduction is traditional minus blended risk; percentages are of the
// traditional figure and zero when it is zero.
func Reduction(traditional, blockchain CapitalRisk) RiskReduction {
	r := RiskReduction{
		VaR:                 traditional.Summary.VaR - blockchain.Summary.VaR,
		CVaR:                traditional.Summary.CVaR - blockchain.Summary.CVaR,
		PeakCapital:         traditional.PeakP95 - blockchain.PeakP95,
		Volatility:          traditional.Volatility - blockchain.Volatility,
		MeanCapitalReleased: traditional.Summary.Mean - blockchain.Summary.Mean,
	}
	r.VaRPct = percentOf(r.VaR, traditional.Summary.VaR)
	r.CVaRPct = percentOf(r.CVaR, traditional.Summary.CVaR)
	r.PeakCapitalPct = percentOf(r.PeakCapital, traditional.PeakP95)
	r.VolatilityPct = percentOf(r.Volatility, traditional.Volatility)
	return r
}

func percentOf(delta, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return mathutil.Percentage(delta, base)
}

func (r *Result) column(get func(Trial) float64) []float64 {
	out := make([]float64, len(r.Trials))
	for i, t := range r.Trials {
		out[i] = get(t)
	}
	return out
}

var columns = map[string]func(Trial) float64{
	ParamDSO:                func(t Trial) float64 { return t.DSO },
	ParamDPO:                func(t Trial) float64 { return t.DPO },
	ParamCostOfCapital:      func(t Trial) float64 { return t.CostOfCapital },
	ParamFactoringRate:      func(t Trial) float64 { return t.FactoringRate },
	ParamFraudLossRate:      func(t Trial) float64 { return t.FraudLossRate },
	ParamAdoptionRate:       func(t Trial) float64 { return t.AdoptionRate },
	ColumnEffectiveAdoption: func(t Trial) float64 { return t.EffectiveAdoption },
	ColumnNetSavings:        func(t Trial) float64 { return t.NetSavings },
	ColumnTraditionalPeak:   func(t Trial) float64 { return t.TraditionalPeak },
	ColumnBlockchainPeak:    func(t Trial) float64 { return t.BlockchainPeak },
	ColumnMaxDrawdown:       func(t Trial) float64 { return t.MaxDrawdown },
}

// Column returns one field across all trials in trial order.
func (r *Result) Column(name string) ([]float64, error) {
	get, ok := columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown simulation column %q", validation.ErrInvalidParameter, name)
	}
	return r.column(get), nil
}

// NetSavingsValues is shorthand for Column(ColumnNetSavings).
func (r *Result) NetSavingsValues() []float64 {
	return r.column(columns[ColumnNetSavings])
}
