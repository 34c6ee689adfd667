// Package feasibility runs every model of a configuration and collects the
// results into one report.
package feasibility

import (
	"context"
	"fmt"

	"github.com/iwvelando/settlement-feasibility/internal/config"
	"github.com/iwvelando/settlement-feasibility/internal/optimizer"
	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/financials"
	"github.com/iwvelando/settlement-feasibility/pkg/scenarios"
	"github.com/iwvelando/settlement-feasibility/pkg/sensitivity"
	"github.com/iwvelando/settlement-feasibility/pkg/simulation"
	"go.uber.org/zap"
)

// FilingSummary is the filing a flow was derived from.
type FilingSummary struct {
	Filing  financials.Filing
	Derived financials.Derived
}

// Report holds every result of one run.
type Report struct {
	Baseline simulation.Baseline
	Filing   *FilingSummary
	Prices   *financials.PriceSummary

	Traditional   costmodel.CostBreakdown
	Scenarios     []scenarios.Result
	Summary       scenarios.Summary
	DiscountRate  float64
	HorizonYears  int
	AdoptionSweep []costmodel.SavingsBreakdown

	SimulatedScenario scenarios.AdoptionScenario
	Simulation        *simulation.Result
	Comparative       []simulation.ComparativeRow

	Metric           sensitivity.Metric
	SensitivityRange float64
	Tornado          []sensitivity.TornadoBar
	KeyUncertainties []sensitivity.Parameter
	Spider           sensitivity.Spider
	Correlations     []sensitivity.Correlation
	Drivers          []sensitivity.Driver
	Breakeven        sensitivity.Breakeven

	Optimizer *optimizer.Result
	Warnings  []string
}

// Run evaluates the configuration: deterministic scenarios first, then the
// Monte Carlo run, sensitivity analyses and breakeven searches.
func Run(ctx context.Context, logger *zap.Logger, conf *config.Configuration) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	report := &Report{Warnings: conf.ValidateConfiguration()}
	for _, w := range report.Warnings {
		logger.Warn(w, zap.String("op", "feasibility.Run"))
	}

	if err := loadFinancials(logger, conf, report); err != nil {
		return nil, err
	}
	evaluator, err := evaluateScenarios(logger, conf, report)
	if err != nil {
		return nil, err
	}
	if err := simulate(ctx, logger, conf, report); err != nil {
		return nil, err
	}
	if err := analyzeSensitivity(logger, conf, evaluator, report); err != nil {
		return nil, err
	}

	runner, err := optimizer.NewRunner(logger, evaluator, conf.OptimizerConfig())
	if err != nil {
		return nil, err
	}
	report.Optimizer, err = runner.Run(conf.ScenarioTable())
	if err != nil {
		return nil, fmt.Errorf("breakeven search: %w", err)
	}
	return report, nil
}

func loadFinancials(logger *zap.Logger, conf *config.Configuration, report *Report) error {
	base, err := conf.Baseline()
	if err != nil {
		return fmt.Errorf("financials: %w", err)
	}
	report.Baseline = base

	dataset, err := conf.Dataset()
	if err != nil {
		return fmt.Errorf("financials: %w", err)
	}
	if dataset != nil {
		filing, err := conf.SelectFiling(dataset)
		if err != nil {
			return fmt.Errorf("financials: %w", err)
		}
		derived, err := filing.Derive()
		if err != nil {
			return fmt.Errorf("financials: %w", err)
		}
		report.Filing = &FilingSummary{Filing: filing, Derived: derived}
		logger.Debug("derived cycle metrics from filing",
			zap.String("op", "feasibility.loadFinancials"),
			zap.Int("year", filing.Year),
			zap.Float64("dso", derived.DSO),
			zap.Float64("dpo", derived.DPO),
			zap.Float64("ccc", derived.CCC),
		)
	}

	if path := conf.Financials.PriceSeries; path != "" {
		bars, err := financials.LoadPriceSeries(path)
		if err != nil {
			return fmt.Errorf("price series: %w", err)
		}
		summary, err := financials.SummarizePrices(bars)
		if err != nil {
			return fmt.Errorf("price series: %w", err)
		}
		report.Prices = &summary
		logger.Info("loaded price series",
			zap.String("op", "feasibility.loadFinancials"),
			zap.Int("days", summary.Days),
			zap.Float64("totalReturn", summary.TotalReturn),
			zap.Float64("annualizedVolatility", summary.AnnualizedVolatility),
		)
	}
	return nil
}

// evaluateScenarios fills the deterministic sections and returns the
// evaluator shared by the later stages.
func evaluateScenarios(logger *zap.Logger, conf *config.Configuration, report *Report) (*scenarios.Evaluator, error) {
	base := report.Baseline
	trad, err := costmodel.NewTraditional(base.Flow, base.Assumptions, base.Constants)
	if err != nil {
		return nil, err
	}
	report.Traditional, err = trad.Breakdown()
	if err != nil {
		return nil, err
	}
	report.AdoptionSweep, err = costmodel.SweepAdoption(trad, costmodel.DefaultSweepRates())
	if err != nil {
		return nil, fmt.Errorf("adoption sweep: %w", err)
	}

	evaluator, err := scenarios.NewEvaluator(base.Flow, base.Assumptions, base.Constants, conf.EvaluatorOptions())
	if err != nil {
		return nil, err
	}
	report.DiscountRate = evaluator.DiscountRate()
	report.HorizonYears = evaluator.HorizonYears()

	report.Scenarios, err = evaluator.EvaluateAll(conf.ScenarioTable())
	if err != nil {
		return nil, err
	}
	report.Summary, err = scenarios.Summarize(report.Scenarios)
	if err != nil {
		return nil, err
	}
	for _, r := range report.Scenarios {
		logger.Debug("evaluated scenario",
			zap.String("op", "feasibility.evaluateScenarios"),
			zap.String("scenario", r.Scenario.Key),
			zap.Float64("effectiveAdoption", r.EffectiveAdoption),
			zap.Float64("netAnnualSavings", r.NetAnnualSavings),
			zap.Float64("npv", r.NPV),
			zap.String("payback", r.PaybackLabel()),
		)
	}
	return evaluator, nil
}

func simulate(ctx context.Context, logger *zap.Logger, conf *config.Configuration, report *Report) error {
	scenario, err := conf.SimulatedScenario()
	if err != nil {
		return err
	}
	report.SimulatedScenario = scenario

	sim, err := simulation.New(report.Baseline, scenario, conf.Distributions(), conf.SimulationConfig(),
		simulation.WithLogger(logger))
	if err != nil {
		return err
	}
	report.Simulation, err = sim.Run(ctx)
	if err != nil {
		return err
	}

	// Comparative levels share the main run's seed so that paths match.
	comparative := sim
	if conf.Simulation.Seed == nil {
		comparative, err = simulation.New(report.Baseline, scenario, conf.Distributions(),
			conf.SimulationConfig().WithSeed(report.Simulation.Seed), simulation.WithLogger(logger))
		if err != nil {
			return err
		}
	}
	report.Comparative, err = comparative.Comparative(ctx, conf.Simulation.ComparativeRates)
	if err != nil {
		return err
	}
	return nil
}

// analyzeSensitivity perturbs around the simulated scenario's own models so
// its transaction cost and fraud reduction carry into every analysis.
func analyzeSensitivity(logger *zap.Logger, conf *config.Configuration, evaluator *scenarios.Evaluator, report *Report) error {
	s := conf.Sensitivity
	trad, bc, err := evaluator.Models(report.SimulatedScenario)
	if err != nil {
		return fmt.Errorf("sensitivity base point: %w", err)
	}
	point := sensitivity.Point{
		Flow:        trad.Flow(),
		Assumptions: trad.Assumptions(),
		Constants:   trad.Constants(),
		Adoption:    bc.Adoption(),
	}
	report.Metric = conf.SensitivityMetric()
	report.SensitivityRange = s.RangePct

	report.Tornado, err = sensitivity.Tornado(point, report.Metric, s.RangePct)
	if err != nil {
		return fmt.Errorf("tornado: %w", err)
	}
	report.KeyUncertainties = sensitivity.KeyUncertainties(report.Tornado, s.KeyThreshold)
	report.Spider, err = sensitivity.SpiderData(point, s.SpiderRangePct, s.SpiderPoints)
	if err != nil {
		return fmt.Errorf("spider: %w", err)
	}
	report.Correlations, err = sensitivity.RankCorrelations(report.Simulation)
	if err != nil {
		return err
	}

	_, savings, err := costmodel.Assess(point.Flow, point.Assumptions, point.Constants, point.Adoption)
	if err != nil {
		return err
	}
	report.Drivers = sensitivity.ValueDrivers(savings)

	annual := report.Simulation.NetSavingsValues()
	maintenance := report.SimulatedScenario.AnnualMaintenanceCost
	for i := range annual {
		annual[i] -= maintenance
	}
	report.Breakeven, err = sensitivity.BreakevenProbability(annual, report.SimulatedScenario.ImplementationCost, s.BreakevenYears)
	if err != nil {
		return err
	}

	keys := make([]string, len(report.KeyUncertainties))
	for i, p := range report.KeyUncertainties {
		keys[i] = string(p)
	}
	logger.Info("sensitivity analysis complete",
		zap.String("op", "feasibility.analyzeSensitivity"),
		zap.String("metric", string(report.Metric)),
		zap.Strings("keyUncertainties", keys),
		zap.Float64("probBreakeven", report.Breakeven.ProbBreakeven),
	)
	return nil
}
