package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/sensitivity"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"go.uber.org/multierr"
)

// Validate returns every hard configuration error combined with multierr.
// Filing files are not read here; Baseline reports load failures.
func (c *Configuration) Validate() error {
	var errs error

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.level %q is not supported", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format %q is not supported", c.Logging.Format))
	}
	switch c.Output.Format {
	case "", constants.OutputFormatPretty, constants.OutputFormatCSV:
	default:
		errs = multierr.Append(errs, fmt.Errorf("output.format %q is not supported", c.Output.Format))
	}
	if err := validation.ValidateWorkbookPath(c.Output.Workbook); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("output.workbook: %w", err))
	}

	switch CanonicalSource(c.Financials.Source) {
	case SourceStudy, SourceBuiltin:
	case SourceFile:
		if strings.TrimSpace(c.Financials.File) == "" {
			errs = multierr.Append(errs, fmt.Errorf("financials.file is required for source %q", SourceFile))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("financials.source %q is not supported", c.Financials.Source))
	}
	switch CanonicalDPOBasis(c.Financials.DPOBasis) {
	case DPOBasisRevenue, DPOBasisCOGS:
	default:
		errs = multierr.Append(errs, fmt.Errorf("financials.dpoBasis %q is not supported", c.Financials.DPOBasis))
	}

	if err := c.CostAssumptions().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("assumptions: %w", err))
	}
	if err := c.ModelConstants().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("model: %w", err))
	}

	errs = multierr.Append(errs, c.validateScenarios())

	if c.Evaluation.HorizonYears <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("evaluation: %w",
			validation.InvalidParameter("horizonYears", float64(c.Evaluation.HorizonYears), "> 0")))
	}
	if rate := c.Evaluation.DiscountRate; rate != nil {
		if err := validation.Rate(validation.ErrInvalidParameter, "discountRate", *rate); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("evaluation: %w", err))
		}
	}

	if c.Simulation.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation: %w",
			validation.InvalidParameter("workers", float64(c.Simulation.Workers), ">= 0")))
	}
	if err := c.SimulationConfig().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("simulation: %w", err))
	}
	if err := c.Distributions().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("simulation.distributions: %w", err))
	}
	for _, rate := range c.Simulation.ComparativeRates {
		if err := validation.Fraction(validation.ErrInvalidParameter, "comparativeRates", rate); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("simulation: %w", err))
		}
	}

	errs = multierr.Append(errs, c.validateSensitivity())

	if err := c.OptimizerConfig().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("breakeven: %w", err))
	}
	return errs
}

func (c *Configuration) validateScenarios() error {
	var errs error
	seen := make(map[string]bool)
	for _, s := range c.Scenarios {
		converted := s.ToAdoptionScenario()
		if converted.Key == "" {
			errs = multierr.Append(errs, fmt.Errorf("scenario without key or name"))
			continue
		}
		if seen[converted.Key] {
			errs = multierr.Append(errs, fmt.Errorf("scenario key %q is duplicated", converted.Key))
		}
		seen[converted.Key] = true
		if err := converted.Validate(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	table := c.ScenarioTable()
	if len(table) == 0 {
		return multierr.Append(errs, fmt.Errorf("no active scenarios"))
	}
	if _, err := c.SimulatedScenario(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (c *Configuration) validateSensitivity() error {
	var errs error
	s := c.Sensitivity
	if m := c.SensitivityMetric(); !knownMetric(m) {
		errs = multierr.Append(errs, fmt.Errorf("sensitivity.metric %q is not supported", s.Metric))
	}
	for field, pct := range map[string]float64{"rangePct": s.RangePct, "spiderRangePct": s.SpiderRangePct} {
		if !(pct > 0 && pct < 1) {
			errs = multierr.Append(errs, fmt.Errorf("sensitivity: %w", validation.InvalidParameter(field, pct, "in (0, 1)")))
		}
	}
	if s.SpiderPoints < 2 {
		errs = multierr.Append(errs, fmt.Errorf("sensitivity: %w",
			validation.InvalidParameter("spiderPoints", float64(s.SpiderPoints), ">= 2")))
	}
	if err := validation.NonNegative(validation.ErrInvalidParameter, "keyThreshold", s.KeyThreshold); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("sensitivity: %w", err))
	}
	if s.BreakevenYears <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("sensitivity: %w",
			validation.InvalidParameter("breakevenYears", float64(s.BreakevenYears), "> 0")))
	}
	return errs
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	for _, s := range c.Scenarios {
		if !s.Active {
			warnings = append(warnings, fmt.Sprintf("scenario %q is inactive and will be skipped", s.Name))
		}
	}
	for _, s := range c.ScenarioTable() {
		if !s.RegulatoryApproval {
			warnings = append(warnings, fmt.Sprintf("scenario %q assumes no regulatory approval; its savings may not be realizable", s.Name))
		}
		if s.AdoptionRate > s.EffectiveAdoption() {
			warnings = append(warnings, fmt.Sprintf("scenario %q adoption target %.0f%% is capped at %.0f%% by %s",
				s.Name, s.AdoptionRate*100, s.EffectiveAdoption()*100, s.BindingConstraint()))
		}
	}

	if c.Simulation.Trials > 0 && c.Simulation.Trials < constants.LowTrialCountWarning {
		warnings = append(warnings, fmt.Sprintf("simulation.trials %d is below %d; tail percentiles will be noisy",
			c.Simulation.Trials, constants.LowTrialCountWarning))
	}
	if c.Simulation.Seed == nil {
		warnings = append(warnings, "simulation.seed is unset; results will not be reproducible")
	}
	if c.Simulation.ChunkSize > 0 && c.Simulation.Workers > 0 {
		chunks := int(math.Ceil(float64(c.Simulation.Trials) / float64(c.Simulation.ChunkSize)))
		if c.Simulation.Workers > chunks {
			warnings = append(warnings, fmt.Sprintf("simulation.workers %d exceeds the %d trial chunks", c.Simulation.Workers, chunks))
		}
	}

	if rate := c.Evaluation.DiscountRate; rate != nil && *rate != c.Assumptions.CostOfCapital {
		warnings = append(warnings, fmt.Sprintf("evaluation.discountRate %.4f overrides the cost of capital %.4f for NPV",
			*rate, c.Assumptions.CostOfCapital))
	}
	if c.SensitivityMetric() != sensitivity.NetSavings {
		warnings = append(warnings, fmt.Sprintf("tornado ranks %s rather than net savings", c.SensitivityMetric()))
	}
	if CanonicalSource(c.Financials.Source) == SourceStudy && c.Financials.Year != 0 {
		warnings = append(warnings, fmt.Sprintf("financials.year %d is ignored for source %q", c.Financials.Year, SourceStudy))
	}
	return warnings
}
