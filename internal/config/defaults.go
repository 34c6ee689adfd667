package config

import (
	"github.com/iwvelando/settlement-feasibility/internal/optimizer"
	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/sampling"
	"github.com/iwvelando/settlement-feasibility/pkg/scenarios"
	"github.com/iwvelando/settlement-feasibility/pkg/sensitivity"
	"github.com/iwvelando/settlement-feasibility/pkg/simulation"
	"github.com/spf13/viper"
)

// setDefaults registers every key so that environment overrides apply even
// when the file omits a section.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputFile", "")

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.workbook", "")

	v.SetDefault("financials.source", SourceStudy)
	v.SetDefault("financials.year", 0)
	v.SetDefault("financials.file", "")
	v.SetDefault("financials.priceSeries", "")
	v.SetDefault("financials.dpoBasis", DPOBasisRevenue)
	// Overrides, the discount rate and the seed have no default; nil means unset.
	for _, key := range []string{
		"financials.overrides.revenue",
		"financials.overrides.shipments",
		"financials.overrides.dsoDays",
		"financials.overrides.dpoDays",
		"evaluation.discountRate",
		"simulation.seed",
	} {
		_ = v.BindEnv(key)
	}

	a := costmodel.DefaultCostAssumptions()
	v.SetDefault("assumptions.costOfCapital", a.CostOfCapital)
	v.SetDefault("assumptions.factoringRate", a.FactoringRate)
	v.SetDefault("assumptions.fraudLossRate", a.FraudLossRate)
	v.SetDefault("assumptions.adminCostPerLoad", a.AdminCostPerLoad)
	v.SetDefault("assumptions.blockchainTxCost", a.BlockchainTxCost)

	mc := costmodel.DefaultModelConstants()
	v.SetDefault("model.fractionFactored", mc.FractionFactored)
	v.SetDefault("model.fraudReduction", mc.FraudReduction)
	v.SetDefault("model.adminEfficiency", mc.AdminEfficiency)
	v.SetDefault("model.settlementDsoDays", mc.SettlementDSODays)
	v.SetDefault("model.settlementDpoDays", mc.SettlementDPODays)

	v.SetDefault("evaluation.horizonYears", constants.DefaultHorizonYears)

	sim := simulation.DefaultConfig()
	v.SetDefault("simulation.trials", sim.Trials)
	v.SetDefault("simulation.horizonDays", sim.HorizonDays)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.chunkSize", sim.ChunkSize)
	v.SetDefault("simulation.decay", sim.Decay)
	v.SetDefault("simulation.confidence", sim.Confidence)
	v.SetDefault("simulation.revenuePerLoadStd", sim.RevenuePerLoadStd)
	v.SetDefault("simulation.scenario", scenarios.BaseCase)
	v.SetDefault("simulation.comparativeRates", simulation.DefaultComparativeRates())

	d := simulation.DefaultDistributions()
	setDistributionDefault(v, "simulation.distributions.dso", d.DSO)
	setDistributionDefault(v, "simulation.distributions.dpo", d.DPO)
	setDistributionDefault(v, "simulation.distributions.costOfCapital", d.CostOfCapital)
	setDistributionDefault(v, "simulation.distributions.factoringRate", d.FactoringRate)
	setDistributionDefault(v, "simulation.distributions.fraudLossRate", d.FraudLossRate)
	setDistributionDefault(v, "simulation.distributions.adoptionRate", d.AdoptionRate)

	v.SetDefault("sensitivity.metric", string(sensitivity.NetSavings))
	v.SetDefault("sensitivity.rangePct", constants.DefaultTornadoRange)
	v.SetDefault("sensitivity.spiderRangePct", constants.DefaultSpiderRange)
	v.SetDefault("sensitivity.spiderPoints", constants.DefaultSpiderPoints)
	v.SetDefault("sensitivity.keyThreshold", constants.DefaultKeyUncertaintyThreshold)
	v.SetDefault("sensitivity.breakevenYears", constants.DefaultHorizonYears)

	opt := optimizer.DefaultConfig()
	v.SetDefault("breakeven.targetPaybackYears", opt.TargetPaybackYears)
	v.SetDefault("breakeven.maxTxCost", opt.MaxTxCost)
	v.SetDefault("breakeven.tolerance", opt.Tolerance)
	v.SetDefault("breakeven.maxIterations", opt.MaxIterations)
}

func setDistributionDefault(v *viper.Viper, prefix string, d sampling.Distribution) {
	v.SetDefault(prefix+".kind", string(d.Kind))
	v.SetDefault(prefix+".mean", d.Mean)
	v.SetDefault(prefix+".stdDev", d.StdDev)
	v.SetDefault(prefix+".low", d.Low)
	v.SetDefault(prefix+".mode", d.Mode)
	v.SetDefault(prefix+".high", d.High)
	v.SetDefault(prefix+".value", d.Value)
}
