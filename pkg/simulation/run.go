package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/sampling"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Trial is one sampled outcome.
type Trial struct {
	DSO               float64
	DPO               float64
	CostOfCapital     float64
	FactoringRate     float64
	FraudLossRate     float64
	AdoptionRate      float64
	EffectiveAdoption float64

	FinancingSavings float64
	FactoringSavings float64
	FraudSavings     float64
	AdminSavings     float64
	TransactionCosts float64
	NetSavings       float64

	TraditionalPeak       float64
	BlockchainPeak        float64
	MaxDrawdown           float64 // traditional trajectory
	TraditionalVolatility float64 // std of the daily traditional position
	BlockchainVolatility  float64
}

// Run executes all trials and summarizes them. For a fixed seed the result is
// identical regardless of Workers: trials are grouped into chunks of
// ChunkSize and each chunk draws from its own stream. Any non-finite outcome
// fails the whole run with ErrComputationOverflow.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	seed := sampling.EntropySeed()
	if s.cfg.Seed != nil {
		seed = *s.cfg.Seed
	}
	start := time.Now()

	trials, err := s.runTrials(ctx, seed)
	if err != nil {
		return nil, err
	}
	result, err := summarize(seed, s.cfg.Confidence, trials)
	if err != nil {
		return nil, err
	}

	s.logger.Info("monte carlo run complete",
		zap.String("op", "simulation.Run"),
		zap.String("scenario", s.scenario.Key),
		zap.Int("trials", len(trials)),
		zap.Uint64("seed", seed),
		zap.Int("workers", s.cfg.Workers),
		zap.Float64("meanNetSavings", result.NetSavings.Mean),
		zap.Float64("fractionPositive", result.NetSavings.FractionPositive),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (s *Simulator) runTrials(ctx context.Context, seed uint64) ([]Trial, error) {
	n := s.cfg.Trials
	chunkSize := s.cfg.ChunkSize
	chunks := (n + chunkSize - 1) / chunkSize
	trials := make([]Trial, n)

	workers := min(s.cfg.Workers, chunks)
	g, gCtx := errgroup.WithContext(ctx)
	work := make(chan int)

	g.Go(func() error {
		defer close(work)
		for c := 0; c < chunks; c++ {
			select {
			case work <- c:
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			revenue := make([]float64, s.cfg.HorizonDays)
			for c := range work {
				if err := gCtx.Err(); err != nil {
					return err
				}
				lo := c * chunkSize
				hi := min(lo+chunkSize, n)
				src := s.factory(seed, uint64(c))
				for i := lo; i < hi; i++ {
					t, err := s.trial(src, revenue)
					if err != nil {
						return fmt.Errorf("trial %d: %w", i, err)
					}
					trials[i] = t
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("monte carlo run failed",
			zap.String("op", "simulation.Run"),
			zap.Error(err),
		)
		return nil, err
	}
	return trials, nil
}

// below1 is the largest value a [0, 1) rate may take.
var below1 = math.Nextafter(1, 0)

func (s *Simulator) sample(src sampling.Source) Trial {
	d := s.dists
	return Trial{
		DSO:           math.Max(d.DSO.Sample(src), 0),
		DPO:           math.Max(d.DPO.Sample(src), 0),
		CostOfCapital: mathutil.Clamp(d.CostOfCapital.Sample(src), 0, below1),
		FactoringRate: mathutil.Clamp(d.FactoringRate.Sample(src), 0, below1),
		FraudLossRate: mathutil.Clamp(d.FraudLossRate.Sample(src), 0, below1),
		AdoptionRate:  mathutil.Clamp(d.AdoptionRate.Sample(src), 0, 1),
	}
}

// trial samples inputs, evaluates the cost model, then walks the daily
// capital position. Both trajectories share the same revenue draws so the
// blended position never exceeds the traditional one on a given path.
func (s *Simulator) trial(src sampling.Source, revenue []float64) (Trial, error) {
	t := s.sample(src)
	if err := validation.First(
		validation.Finite(validation.ErrComputationOverflow, ParamDSO, t.DSO),
		validation.Finite(validation.ErrComputationOverflow, ParamDPO, t.DPO),
		validation.Finite(validation.ErrComputationOverflow, ParamCostOfCapital, t.CostOfCapital),
		validation.Finite(validation.ErrComputationOverflow, ParamFactoringRate, t.FactoringRate),
		validation.Finite(validation.ErrComputationOverflow, ParamFraudLossRate, t.FraudLossRate),
		validation.Finite(validation.ErrComputationOverflow, ParamAdoptionRate, t.AdoptionRate),
	); err != nil {
		return Trial{}, err
	}
	gate := s.scenario
	gate.AdoptionRate = t.AdoptionRate
	t.EffectiveAdoption = gate.EffectiveAdoption()

	flow := s.base.Flow
	flow.DSODays = t.DSO
	flow.DPODays = t.DPO
	assumptions := s.base.Assumptions
	assumptions.CostOfCapital = t.CostOfCapital
	assumptions.FactoringRate = t.FactoringRate
	assumptions.FraudLossRate = t.FraudLossRate
	assumptions.BlockchainTxCost = gate.TxCost
	mc := s.base.Constants
	mc.FraudReduction = gate.FraudReduction

	_, savings, err := costmodel.Assess(flow, assumptions, mc, t.EffectiveAdoption)
	if err != nil {
		return Trial{}, err
	}
	t.FinancingSavings = savings.FinancingSavings
	t.FactoringSavings = savings.FactoringSavings
	t.FraudSavings = savings.FraudSavings
	t.AdminSavings = savings.AdminSavings
	t.TransactionCosts = savings.BlockchainCosts
	t.NetSavings = savings.NetSavings

	gap := flow.GapDays()
	blended := (1-t.EffectiveAdoption)*gap + t.EffectiveAdoption*(mc.SettlementDSODays-mc.SettlementDPODays)
	s.walk(&t, src, revenue, flow, gap, blended)

	if err := validation.First(
		validation.Finite(validation.ErrComputationOverflow, "netSavings", t.NetSavings),
		validation.Finite(validation.ErrComputationOverflow, "traditionalPeak", t.TraditionalPeak),
		validation.Finite(validation.ErrComputationOverflow, "blockchainPeak", t.BlockchainPeak),
		validation.Finite(validation.ErrComputationOverflow, "maxDrawdown", t.MaxDrawdown),
	); err != nil {
		return Trial{}, err
	}
	return t, nil
}

// walk evolves p_d = decay*p_{d-1} + rev_d*gap/horizon for both gaps.
func (s *Simulator) walk(t *Trial, src sampling.Source, revenue []float64, flow costmodel.PaymentFlow, gap, blended float64) {
	horizon := float64(s.cfg.HorizonDays)
	daily := flow.DailyRevenue()
	floor := daily * constants.MinimumRevenueFactor
	loadsPerDay := flow.Shipments / float64(flow.DaysInYear)
	cv := s.cfg.RevenuePerLoadStd / (flow.RevenuePerLoad() * math.Sqrt(loadsPerDay))

	for d := range revenue {
		revenue[d] = math.Max(daily*(1+cv*src.NormFloat64()), floor)
	}

	var trad, bc, peakT, peakB, runMax, drawdown float64
	var volT, volB welford
	for d, rev := range revenue {
		trad = s.cfg.Decay*trad + rev*gap/horizon
		bc = s.cfg.Decay*bc + rev*blended/horizon
		peakT = math.Max(peakT, trad)
		peakB = math.Max(peakB, bc)
		if d == 0 || trad > runMax {
			runMax = trad
		}
		drawdown = math.Max(drawdown, runMax-trad)
		volT.add(trad)
		volB.add(bc)
	}
	t.TraditionalPeak = peakT
	t.BlockchainPeak = peakB
	t.MaxDrawdown = drawdown
	t.TraditionalVolatility = volT.std()
	t.BlockchainVolatility = volB.std()
}

// welford tracks a running population variance.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) std() float64 {
	if w.n == 0 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.n))
}
