package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/financials"
	"github.com/iwvelando/settlement-feasibility/pkg/sampling"
	"github.com/iwvelando/settlement-feasibility/pkg/scenarios"
	"github.com/iwvelando/settlement-feasibility/pkg/sensitivity"
	"github.com/iwvelando/settlement-feasibility/pkg/simulation"
)

// CostAssumptions converts the assumptions section.
func (c *Configuration) CostAssumptions() costmodel.CostAssumptions {
	a := c.Assumptions
	return costmodel.CostAssumptions{
		CostOfCapital:    a.CostOfCapital,
		FactoringRate:    a.FactoringRate,
		FraudLossRate:    a.FraudLossRate,
		AdminCostPerLoad: a.AdminCostPerLoad,
		BlockchainTxCost: a.BlockchainTxCost,
	}
}

// ModelConstants converts the model section.
func (c *Configuration) ModelConstants() costmodel.ModelConstants {
	m := c.Model
	return costmodel.ModelConstants{
		FractionFactored:  m.FractionFactored,
		FraudReduction:    m.FraudReduction,
		AdminEfficiency:   m.AdminEfficiency,
		SettlementDSODays: m.SettlementDSODays,
		SettlementDPODays: m.SettlementDPODays,
	}
}

// Dataset returns the filings the configured source refers to, or nil for
// the study profile.
func (c *Configuration) Dataset() (financials.Dataset, error) {
	switch CanonicalSource(c.Financials.Source) {
	case SourceStudy:
		return nil, nil
	case SourceBuiltin:
		return financials.BuiltinFilings(), nil
	case SourceFile:
		if strings.TrimSpace(c.Financials.File) == "" {
			return nil, fmt.Errorf("financials source %q requires a file", SourceFile)
		}
		return financials.LoadFilings(c.Financials.File)
	default:
		return nil, fmt.Errorf("financials source %q is not supported", c.Financials.Source)
	}
}

// PaymentFlow derives the flow from the configured source and applies any
// overrides.
func (c *Configuration) PaymentFlow() (costmodel.PaymentFlow, error) {
	dataset, err := c.Dataset()
	if err != nil {
		return costmodel.PaymentFlow{}, err
	}

	flow := costmodel.DefaultPaymentFlow()
	if dataset != nil {
		filing, err := c.SelectFiling(dataset)
		if err != nil {
			return costmodel.PaymentFlow{}, err
		}
		flow, err = flowFromFiling(filing, CanonicalDPOBasis(c.Financials.DPOBasis))
		if err != nil {
			return costmodel.PaymentFlow{}, err
		}
	}

	o := c.Financials.Overrides
	if o.Revenue != nil {
		flow.AnnualRevenue = *o.Revenue
	}
	if o.Shipments != nil {
		flow.Shipments = *o.Shipments
	}
	if o.DSODays != nil {
		flow.DSODays = *o.DSODays
	}
	if o.DPODays != nil {
		flow.DPODays = *o.DPODays
	}
	if err := flow.Validate(); err != nil {
		return costmodel.PaymentFlow{}, fmt.Errorf("payment flow: %w", err)
	}
	return flow, nil
}

// SelectFiling picks the configured year from dataset, or its latest filing.
func (c *Configuration) SelectFiling(dataset financials.Dataset) (financials.Filing, error) {
	if c.Financials.Year == 0 {
		return dataset.Latest()
	}
	return dataset.Filing(c.Financials.Year)
}

func flowFromFiling(filing financials.Filing, basis string) (costmodel.PaymentFlow, error) {
	metrics := filing.Metrics()
	flow, err := costmodel.FlowFromMetrics(metrics)
	if err != nil {
		return costmodel.PaymentFlow{}, fmt.Errorf("filing %d: %w", filing.Year, err)
	}
	switch basis {
	case DPOBasisRevenue:
	case DPOBasisCOGS:
		if metrics.CostOfGoodsSold <= 0 {
			return costmodel.PaymentFlow{}, fmt.Errorf("filing %d has no cost of goods sold for dpoBasis %q", filing.Year, DPOBasisCOGS)
		}
		dpo, err := metrics.DPOFromCOGS()
		if err != nil {
			return costmodel.PaymentFlow{}, fmt.Errorf("filing %d: %w", filing.Year, err)
		}
		flow.DPODays = dpo
	default:
		return costmodel.PaymentFlow{}, fmt.Errorf("dpoBasis %q is not supported", basis)
	}
	return flow, nil
}

// Baseline assembles the deterministic model input.
func (c *Configuration) Baseline() (simulation.Baseline, error) {
	flow, err := c.PaymentFlow()
	if err != nil {
		return simulation.Baseline{}, err
	}
	base := simulation.Baseline{
		Flow:        flow,
		Assumptions: c.CostAssumptions(),
		Constants:   c.ModelConstants(),
	}
	if err := base.Validate(); err != nil {
		return simulation.Baseline{}, err
	}
	return base, nil
}

// ToAdoptionScenario converts a configured scenario.
func (s Scenario) ToAdoptionScenario() scenarios.AdoptionScenario {
	key := s.Key
	if key == "" {
		key = strings.ToLower(strings.Join(strings.Fields(s.Name), "-"))
	}
	return scenarios.AdoptionScenario{
		Key:                   key,
		Name:                  s.Name,
		AdoptionRate:          s.AdoptionRate,
		ShipperEscrowRate:     s.ShipperEscrowRate,
		CarrierReadiness:      s.CarrierReadiness,
		TxCost:                s.TxCost,
		FraudReduction:        s.FraudReduction,
		RegulatoryApproval:    s.RegulatoryApproval,
		ImplementationCost:    s.ImplementationCost,
		AnnualMaintenanceCost: s.AnnualMaintenanceCost,
	}
}

// ScenarioTable returns the active scenarios, or the built-in table when
// none are configured.
func (c *Configuration) ScenarioTable() []scenarios.AdoptionScenario {
	if len(c.Scenarios) == 0 {
		return scenarios.DefaultTable()
	}
	table := make([]scenarios.AdoptionScenario, 0, len(c.Scenarios))
	for _, s := range c.Scenarios {
		if s.Active {
			table = append(table, s.ToAdoptionScenario())
		}
	}
	return table
}

// SimulatedScenario returns the scenario the Monte Carlo run gates on.
func (c *Configuration) SimulatedScenario() (scenarios.AdoptionScenario, error) {
	s, ok := scenarios.Find(c.ScenarioTable(), c.Simulation.Scenario)
	if !ok {
		return scenarios.AdoptionScenario{}, fmt.Errorf("simulation scenario %q is not an active scenario", c.Simulation.Scenario)
	}
	return s, nil
}

// EvaluatorOptions converts the evaluation section.
func (c *Configuration) EvaluatorOptions() scenarios.Options {
	return scenarios.Options{
		HorizonYears: c.Evaluation.HorizonYears,
		DiscountRate: c.Evaluation.DiscountRate,
	}
}

// SimulationConfig converts the simulation run settings.
func (c *Configuration) SimulationConfig() simulation.Config {
	s := c.Simulation
	workers := s.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	cfg := simulation.Config{
		Trials:            s.Trials,
		HorizonDays:       s.HorizonDays,
		Workers:           workers,
		ChunkSize:         s.ChunkSize,
		Decay:             s.Decay,
		Confidence:        s.Confidence,
		RevenuePerLoadStd: s.RevenuePerLoadStd,
	}
	if s.Seed != nil {
		cfg = cfg.WithSeed(*s.Seed)
	}
	return cfg
}

// ToDistribution converts a configured distribution.
func (d DistributionConfig) ToDistribution() sampling.Distribution {
	return sampling.Distribution{
		Kind:   sampling.Kind(strings.ToLower(strings.TrimSpace(d.Kind))),
		Mean:   d.Mean,
		StdDev: d.StdDev,
		Low:    d.Low,
		Mode:   d.Mode,
		High:   d.High,
		Value:  d.Value,
	}
}

// Distributions converts the sampled-input distributions.
func (c *Configuration) Distributions() simulation.Distributions {
	d := c.Simulation.Distributions
	return simulation.Distributions{
		DSO:           d.DSO.ToDistribution(),
		DPO:           d.DPO.ToDistribution(),
		CostOfCapital: d.CostOfCapital.ToDistribution(),
		FactoringRate: d.FactoringRate.ToDistribution(),
		FraudLossRate: d.FraudLossRate.ToDistribution(),
		AdoptionRate:  d.AdoptionRate.ToDistribution(),
	}
}

// SensitivityMetric returns the configured tornado output metric.
func (c *Configuration) SensitivityMetric() sensitivity.Metric {
	return sensitivity.Metric(CanonicalMetric(c.Sensitivity.Metric))
}
