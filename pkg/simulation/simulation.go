// Package simulation runs the Monte Carlo working-capital study: each trial
// samples the uncertain inputs, evaluates the cost model and walks a daily
// capital trajectory under traditional and blended settlement.
package simulation

import (
	"fmt"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/sampling"
	"github.com/iwvelando/settlement-feasibility/pkg/scenarios"
	"github.com/iwvelando/settlement-feasibility/pkg/stats"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"go.uber.org/zap"
)

// Sampled parameter names, also used as column keys for sensitivity.
const (
	ParamDSO           = "dso"
	ParamDPO           = "dpo"
	ParamCostOfCapital = "costOfCapital"
	ParamFactoringRate = "factoringRate"
	ParamFraudLossRate = "fraudLossRate"
	ParamAdoptionRate  = "adoptionRate"
)

// SampledParameters lists the sampled inputs in draw order.
func SampledParameters() []string {
	return []string{ParamDSO, ParamDPO, ParamCostOfCapital, ParamFactoringRate, ParamFraudLossRate, ParamAdoptionRate}
}

// Distributions holds one distribution per sampled input.
type Distributions struct {
	DSO           sampling.Distribution
	DPO           sampling.Distribution
	CostOfCapital sampling.Distribution
	FactoringRate sampling.Distribution
	FraudLossRate sampling.Distribution
	AdoptionRate  sampling.Distribution
}

// DefaultDistributions returns the study's input uncertainty.
func DefaultDistributions() Distributions {
	return Distributions{
		DSO:           sampling.NewNormal(49, 7.4),
		DPO:           sampling.NewNormal(27, 2.7),
		CostOfCapital: sampling.NewUniform(0.05, 0.09),
		FactoringRate: sampling.NewUniform(0.02, 0.04),
		FraudLossRate: sampling.NewTriangular(0.003, 0.005, 0.008),
		AdoptionRate:  sampling.NewUniform(0.15, 0.45),
	}
}

func (d Distributions) byName() []namedDistribution {
	return []namedDistribution{
		{ParamDSO, d.DSO},
		{ParamDPO, d.DPO},
		{ParamCostOfCapital, d.CostOfCapital},
		{ParamFactoringRate, d.FactoringRate},
		{ParamFraudLossRate, d.FraudLossRate},
		{ParamAdoptionRate, d.AdoptionRate},
	}
}

type namedDistribution struct {
	name string
	dist sampling.Distribution
}

// Validate checks every distribution.
func (d Distributions) Validate() error {
	for _, nd := range d.byName() {
		if err := nd.dist.Validate(nd.name); err != nil {
			return err
		}
	}
	return nil
}

// Config holds the run settings.
type Config struct {
	Trials            int
	HorizonDays       int
	Seed              *uint64 // nil draws a seed from entropy
	Workers           int
	ChunkSize         int
	Decay             float64 // daily carry-over of the capital position
	Confidence        float64
	RevenuePerLoadStd float64
}

// DefaultConfig returns 10,000 single-worker trials over a year.
func DefaultConfig() Config {
	return Config{
		Trials:            constants.DefaultTrials,
		HorizonDays:       constants.DefaultHorizonDays,
		Workers:           1,
		ChunkSize:         constants.DefaultChunkSize,
		Decay:             constants.DefaultPositionDecay,
		Confidence:        constants.DefaultConfidence,
		RevenuePerLoadStd: constants.DefaultRevenuePerLoadStd,
	}
}

// WithSeed returns a copy of c with a fixed seed.
func (c Config) WithSeed(seed uint64) Config {
	c.Seed = &seed
	return c
}

// Validate checks the run settings.
func (c Config) Validate() error {
	switch {
	case c.Trials <= 0:
		return validation.InvalidParameter("trials", float64(c.Trials), "> 0")
	case c.HorizonDays <= 0:
		return validation.InvalidParameter("horizonDays", float64(c.HorizonDays), "> 0")
	case c.Workers <= 0:
		return validation.InvalidParameter("workers", float64(c.Workers), "> 0")
	case c.ChunkSize <= 0:
		return validation.InvalidParameter("chunkSize", float64(c.ChunkSize), "> 0")
	}
	if err := stats.ValidateConfidence(c.Confidence); err != nil {
		return err
	}
	return validation.First(
		validation.Fraction(validation.ErrInvalidParameter, "decay", c.Decay),
		validation.NonNegative(validation.ErrInvalidParameter, "revenuePerLoadStd", c.RevenuePerLoadStd),
	)
}

// Baseline is the deterministic cost-model input the trials perturb.
type Baseline struct {
	Flow        costmodel.PaymentFlow
	Assumptions costmodel.CostAssumptions
	Constants   costmodel.ModelConstants
}

// DefaultBaseline is the 2024 brokerage profile with study assumptions.
func DefaultBaseline() Baseline {
	return Baseline{
		Flow:        costmodel.DefaultPaymentFlow(),
		Assumptions: costmodel.DefaultCostAssumptions(),
		Constants:   costmodel.DefaultModelConstants(),
	}
}

func (b Baseline) Validate() error {
	_, err := costmodel.NewTraditional(b.Flow, b.Assumptions, b.Constants)
	return err
}

// Simulator runs trials for one gating scenario. Safe for sequential reuse;
// each Run is independent.
type Simulator struct {
	cfg      Config
	dists    Distributions
	base     Baseline
	scenario scenarios.AdoptionScenario
	factory  sampling.SourceFactory
	logger   *zap.Logger
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithSourceFactory replaces the PCG source, mainly for tests.
func WithSourceFactory(f sampling.SourceFactory) Option {
	return func(s *Simulator) {
		if f != nil {
			s.factory = f
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New validates everything up front so Run never fails on a bad input.
// The scenario supplies shipper escrow, carrier readiness, transaction cost
// and fraud reduction; its adoption rate is replaced by the sampled one.
func New(base Baseline, scenario scenarios.AdoptionScenario, dists Distributions, cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulation config: %w", err)
	}
	if err := dists.Validate(); err != nil {
		return nil, fmt.Errorf("simulation distributions: %w", err)
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("simulation baseline: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("simulation gating: %w", err)
	}
	s := &Simulator{
		cfg:      cfg,
		dists:    dists,
		base:     base,
		scenario: scenario,
		factory:  sampling.NewSource,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) Config() Config {
	return s.cfg
}

func (s *Simulator) Distributions() Distributions {
	return s.dists
}

func (s *Simulator) Baseline() Baseline {
	return s.base
}

func (s *Simulator) Scenario() scenarios.AdoptionScenario {
	return s.scenario
}
