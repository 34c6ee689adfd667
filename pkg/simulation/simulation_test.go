package simulation

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/iwvelando/settlement-feasibility/pkg/sampling"
	"github.com/iwvelando/settlement-feasibility/pkg/scenarios"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"go.uber.org/zap"
)

func baseScenario(t *testing.T) scenarios.AdoptionScenario {
	t.Helper()
	s, ok := scenarios.Find(scenarios.DefaultTable(), scenarios.BaseCase)
	if !ok {
		t.Fatalf("base scenario missing")
	}
	return s
}

func smallConfig(trials int) Config {
	cfg := DefaultConfig().WithSeed(42)
	cfg.Trials = trials
	cfg.HorizonDays = 90
	return cfg
}

func newSimulator(t *testing.T, cfg Config, opts ...Option) *Simulator {
	t.Helper()
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	sim, err := New(DefaultBaseline(), baseScenario(t), DefaultDistributions(), cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sim
}

func run(t *testing.T, sim *Simulator) *Result {
	t.Helper()
	r, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return r
}

type stubSource struct {
	u, z float64
}

func (s stubSource) Float64() float64     { return s.u }
func (s stubSource) NormFloat64() float64 { return s.z }

func stubFactory(u, z float64) sampling.SourceFactory {
	return func(uint64, uint64) sampling.Source { return stubSource{u: u, z: z} }
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func(*Config)
		dists func(*Distributions)
	}{
		{name: "Zero trials", cfg: func(c *Config) { c.Trials = 0 }},
		{name: "Negative trials", cfg: func(c *Config) { c.Trials = -5 }},
		{name: "Zero horizon", cfg: func(c *Config) { c.HorizonDays = 0 }},
		{name: "Zero workers", cfg: func(c *Config) { c.Workers = 0 }},
		{name: "Zero chunk size", cfg: func(c *Config) { c.ChunkSize = 0 }},
		{name: "Confidence of one", cfg: func(c *Config) { c.Confidence = 1 }},
		{name: "Decay above one", cfg: func(c *Config) { c.Decay = 1.5 }},
		{name: "Negative revenue std", cfg: func(c *Config) { c.RevenuePerLoadStd = -1 }},
		{name: "Negative DSO std", dists: func(d *Distributions) { d.DSO = sampling.NewNormal(49, -1) }},
		{name: "NaN DPO mean", dists: func(d *Distributions) { d.DPO = sampling.NewNormal(math.NaN(), 2.7) }},
		{name: "Inverted uniform", dists: func(d *Distributions) { d.CostOfCapital = sampling.NewUniform(0.09, 0.05) }},
		{name: "Mode outside range", dists: func(d *Distributions) { d.FraudLossRate = sampling.NewTriangular(0.003, 0.01, 0.008) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig(100)
			dists := DefaultDistributions()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			if tt.dists != nil {
				tt.dists(&dists)
			}
			_, err := New(DefaultBaseline(), baseScenario(t), dists, cfg)
			if !errors.Is(err, validation.ErrInvalidParameter) {
				t.Errorf("New() error = %v, expected ErrInvalidParameter", err)
			}
		})
	}
}

func TestNewRejectsInvalidBaseline(t *testing.T) {
	base := DefaultBaseline()
	base.Flow.AnnualRevenue = -1
	_, err := New(base, baseScenario(t), DefaultDistributions(), smallConfig(10))
	if !errors.Is(err, validation.ErrInvalidInput) {
		t.Errorf("New() error = %v, expected ErrInvalidInput", err)
	}
}

func TestRunDeterministic(t *testing.T) {
	first := run(t, newSimulator(t, smallConfig(600)))
	second := run(t, newSimulator(t, smallConfig(600)))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs with seed 42 differ")
	}
	if first.Seed != 42 {
		t.Errorf("Seed = %d, expected 42", first.Seed)
	}

	other := smallConfig(600).WithSeed(43)
	third := run(t, newSimulator(t, other))
	if third.NetSavings.Mean == first.NetSavings.Mean {
		t.Errorf("seeds 42 and 43 produced the same mean net savings")
	}
}

func TestRunIndependentOfWorkers(t *testing.T) {
	cfg := smallConfig(1_000)
	cfg.ChunkSize = 100
	single := run(t, newSimulator(t, cfg))

	cfg.Workers = 4
	pooled := run(t, newSimulator(t, cfg))

	if !reflect.DeepEqual(single, pooled) {
		t.Errorf("results differ between 1 and 4 workers")
	}
}

func TestRunSingleTrial(t *testing.T) {
	r := run(t, newSimulator(t, smallConfig(1)))
	if len(r.Trials) != 1 {
		t.Fatalf("len(Trials) = %d, expected 1", len(r.Trials))
	}
	s := r.NetSavings
	if s.Count != 1 || s.StdDev != 0 || s.Mean != r.Trials[0].NetSavings || s.P5 != s.P95 {
		t.Errorf("degenerate summary = %+v", s)
	}
}

func TestRunTrialInvariants(t *testing.T) {
	scenario := baseScenario(t)
	r := run(t, newSimulator(t, smallConfig(500)))
	for i, tr := range r.Trials {
		if tr.EffectiveAdoption > tr.AdoptionRate || tr.EffectiveAdoption > scenario.ShipperEscrowRate || tr.EffectiveAdoption > scenario.CarrierReadiness {
			t.Fatalf("trial %d: effective adoption %v exceeds a gate", i, tr.EffectiveAdoption)
		}
		if tr.AdoptionRate < 0.15 || tr.AdoptionRate > 0.45 {
			t.Fatalf("trial %d: adoption %v outside the sampled range", i, tr.AdoptionRate)
		}
		if tr.DSO < 0 || tr.DPO < 0 {
			t.Fatalf("trial %d: negative days", i)
		}
		if tr.BlockchainPeak > tr.TraditionalPeak {
			t.Fatalf("trial %d: blockchain peak %v above traditional %v", i, tr.BlockchainPeak, tr.TraditionalPeak)
		}
		if tr.TraditionalPeak < 0 || tr.MaxDrawdown < 0 {
			t.Fatalf("trial %d: negative peak or drawdown", i)
		}
	}
}

func TestCapitalRiskDominance(t *testing.T) {
	r := run(t, newSimulator(t, smallConfig(2_000)))
	trad, bc := r.Traditional.Summary, r.Blockchain.Summary
	if trad.VaR <= bc.VaR {
		t.Errorf("traditional VaR %v not above blockchain VaR %v", trad.VaR, bc.VaR)
	}
	if trad.CVaR <= bc.CVaR {
		t.Errorf("traditional CVaR %v not above blockchain CVaR %v", trad.CVaR, bc.CVaR)
	}
	if r.Traditional.VaR99 < trad.VaR {
		t.Errorf("VaR99 %v below VaR95 %v", r.Traditional.VaR99, trad.VaR)
	}
	rr := r.RiskReduction
	if rr.VaR <= 0 || rr.VaRPct <= 0 || rr.VaRPct >= 100 || rr.PeakCapital <= 0 {
		t.Errorf("RiskReduction = %+v, expected positive reductions", rr)
	}
}

func TestSampleClamping(t *testing.T) {
	sim := newSimulator(t, smallConfig(3), WithSourceFactory(stubFactory(0.5, -100)))
	r := run(t, sim)
	for _, tr := range r.Trials {
		if tr.DSO != 0 || tr.DPO != 0 {
			t.Errorf("days = (%v, %v), expected clamped to 0", tr.DSO, tr.DPO)
		}
		if tr.TraditionalPeak != 0 || tr.BlockchainPeak != 0 {
			t.Errorf("peaks = (%v, %v), expected 0 with no gap", tr.TraditionalPeak, tr.BlockchainPeak)
		}
		if math.Abs(tr.AdoptionRate-0.3) > 1e-12 || tr.EffectiveAdoption != tr.AdoptionRate {
			t.Errorf("adoption = (%v, %v), expected 0.3", tr.AdoptionRate, tr.EffectiveAdoption)
		}
	}
}

func TestRunOverflow(t *testing.T) {
	sim := newSimulator(t, smallConfig(10), WithSourceFactory(stubFactory(0.5, math.Inf(1))))
	r, err := sim.Run(context.Background())
	if !errors.Is(err, validation.ErrComputationOverflow) {
		t.Errorf("Run() error = %v, expected ErrComputationOverflow", err)
	}
	if r != nil {
		t.Errorf("Run() returned a partial result")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSimulator(t, smallConfig(1_000)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, expected context.Canceled", err)
	}
}

func TestComparative(t *testing.T) {
	sim := newSimulator(t, smallConfig(300))
	rows, err := sim.Comparative(context.Background(), nil)
	if err != nil {
		t.Fatalf("Comparative() error = %v", err)
	}
	if len(rows) != len(DefaultComparativeRates()) {
		t.Fatalf("len(rows) = %d, expected %d", len(rows), len(DefaultComparativeRates()))
	}

	zero := rows[0].Result
	if zero.Blockchain.Summary.Mean != zero.Traditional.Summary.Mean {
		t.Errorf("at 0%% adoption blockchain capital %v differs from traditional %v",
			zero.Blockchain.Summary.Mean, zero.Traditional.Summary.Mean)
	}
	if zero.NetSavings.Mean != 0 {
		t.Errorf("at 0%% adoption net savings = %v, expected 0", zero.NetSavings.Mean)
	}
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1].Result.Blockchain.Summary.Mean, rows[i].Result.Blockchain.Summary.Mean
		if cur >= prev {
			t.Errorf("capital at %v%% (%v) not below %v%% (%v)", rows[i].AdoptionRate*100, cur, rows[i-1].AdoptionRate*100, prev)
		}
		for _, tr := range rows[i].Result.Trials {
			if tr.EffectiveAdoption != rows[i].AdoptionRate {
				t.Fatalf("effective adoption %v, expected forced %v", tr.EffectiveAdoption, rows[i].AdoptionRate)
			}
		}
	}

	if _, err := sim.Comparative(context.Background(), []float64{1.5}); !errors.Is(err, validation.ErrInvalidParameter) {
		t.Errorf("Comparative(1.5) error = %v, expected ErrInvalidParameter", err)
	}
}

func TestColumn(t *testing.T) {
	r := run(t, newSimulator(t, smallConfig(50)))
	for _, name := range append(SampledParameters(), ColumnNetSavings, ColumnEffectiveAdoption) {
		col, err := r.Column(name)
		if err != nil {
			t.Fatalf("Column(%q) error = %v", name, err)
		}
		if len(col) != 50 {
			t.Errorf("Column(%q) has %d values, expected 50", name, len(col))
		}
	}
	net := r.NetSavingsValues()
	if net[7] != r.Trials[7].NetSavings {
		t.Errorf("NetSavingsValues()[7] = %v, expected %v", net[7], r.Trials[7].NetSavings)
	}
	if _, err := r.Column("bogus"); !errors.Is(err, validation.ErrInvalidParameter) {
		t.Errorf("Column(bogus) error = %v", err)
	}
}
