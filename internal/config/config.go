// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating the config.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/spf13/viper"
)

// Financials sources.
const (
	SourceStudy   = "study"
	SourceBuiltin = "builtin"
	SourceFile    = "file"

	DPOBasisRevenue = "revenue"
	DPOBasisCOGS    = "cogs"
)

// Configuration holds all configuration for settlement-feasibility.
type Configuration struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output      OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
	Financials  FinancialsConfig  `yaml:"financials,omitempty" mapstructure:"financials"`
	Assumptions AssumptionsConfig `yaml:"assumptions,omitempty" mapstructure:"assumptions"`
	Model       ModelConfig       `yaml:"model,omitempty" mapstructure:"model"`
	Scenarios   []Scenario        `yaml:"scenarios,omitempty" mapstructure:"scenarios"`
	Evaluation  EvaluationConfig  `yaml:"evaluation,omitempty" mapstructure:"evaluation"`
	Simulation  SimulationConfig  `yaml:"simulation,omitempty" mapstructure:"simulation"`
	Sensitivity SensitivityConfig `yaml:"sensitivity,omitempty" mapstructure:"sensitivity"`
	Breakeven   BreakevenConfig   `yaml:"breakeven,omitempty" mapstructure:"breakeven"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format   string `yaml:"format,omitempty" mapstructure:"format"`     // pretty, csv
	Workbook string `yaml:"workbook,omitempty" mapstructure:"workbook"` // optional xlsx path
}

// FinancialsConfig selects the payment flow the models run on.
type FinancialsConfig struct {
	Source      string             `yaml:"source,omitempty" mapstructure:"source"`
	Year        int                `yaml:"year,omitempty" mapstructure:"year"` // 0 selects the latest filing
	File        string             `yaml:"file,omitempty" mapstructure:"file"`
	PriceSeries string             `yaml:"priceSeries,omitempty" mapstructure:"priceSeries"`
	DPOBasis    string             `yaml:"dpoBasis,omitempty" mapstructure:"dpoBasis"`
	Overrides   FinancialOverrides `yaml:"overrides,omitempty" mapstructure:"overrides"`
}

// FinancialOverrides replace individual flow figures after derivation.
type FinancialOverrides struct {
	Revenue   *float64 `yaml:"revenue,omitempty" mapstructure:"revenue"`
	Shipments *float64 `yaml:"shipments,omitempty" mapstructure:"shipments"`
	DSODays   *float64 `yaml:"dsoDays,omitempty" mapstructure:"dsoDays"`
	DPODays   *float64 `yaml:"dpoDays,omitempty" mapstructure:"dpoDays"`
}

// AssumptionsConfig mirrors costmodel.CostAssumptions.
type AssumptionsConfig struct {
	CostOfCapital    float64 `yaml:"costOfCapital" mapstructure:"costOfCapital"`
	FactoringRate    float64 `yaml:"factoringRate" mapstructure:"factoringRate"`
	FraudLossRate    float64 `yaml:"fraudLossRate" mapstructure:"fraudLossRate"`
	AdminCostPerLoad float64 `yaml:"adminCostPerLoad" mapstructure:"adminCostPerLoad"`
	BlockchainTxCost float64 `yaml:"blockchainTxCost" mapstructure:"blockchainTxCost"`
}

// ModelConfig mirrors costmodel.ModelConstants.
type ModelConfig struct {
	FractionFactored  float64 `yaml:"fractionFactored" mapstructure:"fractionFactored"`
	FraudReduction    float64 `yaml:"fraudReduction" mapstructure:"fraudReduction"`
	AdminEfficiency   float64 `yaml:"adminEfficiency" mapstructure:"adminEfficiency"`
	SettlementDSODays float64 `yaml:"settlementDsoDays" mapstructure:"settlementDsoDays"`
	SettlementDPODays float64 `yaml:"settlementDpoDays" mapstructure:"settlementDpoDays"`
}

// Scenario is one configured adoption scenario. An empty scenario list
// selects the built-in table.
type Scenario struct {
	Key                   string  `yaml:"key" mapstructure:"key"`
	Name                  string  `yaml:"name" mapstructure:"name"`
	Active                bool    `yaml:"active" mapstructure:"active"`
	AdoptionRate          float64 `yaml:"adoptionRate" mapstructure:"adoptionRate"`
	ShipperEscrowRate     float64 `yaml:"shipperEscrowRate" mapstructure:"shipperEscrowRate"`
	CarrierReadiness      float64 `yaml:"carrierReadiness" mapstructure:"carrierReadiness"`
	TxCost                float64 `yaml:"txCost" mapstructure:"txCost"`
	FraudReduction        float64 `yaml:"fraudReduction" mapstructure:"fraudReduction"`
	RegulatoryApproval    bool    `yaml:"regulatoryApproval" mapstructure:"regulatoryApproval"`
	ImplementationCost    float64 `yaml:"implementationCost" mapstructure:"implementationCost"`
	AnnualMaintenanceCost float64 `yaml:"annualMaintenanceCost" mapstructure:"annualMaintenanceCost"`
}

// EvaluationConfig controls NPV and payback.
type EvaluationConfig struct {
	HorizonYears int     `yaml:"horizonYears" mapstructure:"horizonYears"`
	DiscountRate *float64 `yaml:"discountRate,omitempty" mapstructure:"discountRate"` // nil discounts at the cost of capital
}

// DistributionConfig is a tagged distribution; only the fields of Kind apply.
type DistributionConfig struct {
	Kind   string  `yaml:"kind" mapstructure:"kind"`
	Mean   float64 `yaml:"mean,omitempty" mapstructure:"mean"`
	StdDev float64 `yaml:"stdDev,omitempty" mapstructure:"stdDev"`
	Low    float64 `yaml:"low,omitempty" mapstructure:"low"`
	Mode   float64 `yaml:"mode,omitempty" mapstructure:"mode"`
	High   float64 `yaml:"high,omitempty" mapstructure:"high"`
	Value  float64 `yaml:"value,omitempty" mapstructure:"value"`
}

// DistributionsConfig holds one distribution per sampled input.
type DistributionsConfig struct {
	DSO           DistributionConfig `yaml:"dso" mapstructure:"dso"`
	DPO           DistributionConfig `yaml:"dpo" mapstructure:"dpo"`
	CostOfCapital DistributionConfig `yaml:"costOfCapital" mapstructure:"costOfCapital"`
	FactoringRate DistributionConfig `yaml:"factoringRate" mapstructure:"factoringRate"`
	FraudLossRate DistributionConfig `yaml:"fraudLossRate" mapstructure:"fraudLossRate"`
	AdoptionRate  DistributionConfig `yaml:"adoptionRate" mapstructure:"adoptionRate"`
}

// SimulationConfig controls the Monte Carlo run.
type SimulationConfig struct {
	Trials            int                 `yaml:"trials" mapstructure:"trials"`
	HorizonDays       int                 `yaml:"horizonDays" mapstructure:"horizonDays"`
	Seed              *uint64             `yaml:"seed,omitempty" mapstructure:"seed"`
	Workers           int                 `yaml:"workers,omitempty" mapstructure:"workers"` // 0 uses every CPU
	ChunkSize         int                 `yaml:"chunkSize" mapstructure:"chunkSize"`
	Decay             float64             `yaml:"decay" mapstructure:"decay"`
	Confidence        float64             `yaml:"confidence" mapstructure:"confidence"`
	RevenuePerLoadStd float64             `yaml:"revenuePerLoadStd" mapstructure:"revenuePerLoadStd"`
	Scenario          string              `yaml:"scenario" mapstructure:"scenario"`
	ComparativeRates  []float64           `yaml:"comparativeRates" mapstructure:"comparativeRates"`
	Distributions     DistributionsConfig `yaml:"distributions" mapstructure:"distributions"`
}

// SensitivityConfig controls the tornado, spider and breakeven analyses.
type SensitivityConfig struct {
	Metric         string  `yaml:"metric" mapstructure:"metric"`
	RangePct       float64 `yaml:"rangePct" mapstructure:"rangePct"`
	SpiderRangePct float64 `yaml:"spiderRangePct" mapstructure:"spiderRangePct"`
	SpiderPoints   int     `yaml:"spiderPoints" mapstructure:"spiderPoints"`
	KeyThreshold   float64 `yaml:"keyThreshold" mapstructure:"keyThreshold"`
	BreakevenYears int     `yaml:"breakevenYears" mapstructure:"breakevenYears"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Keys absent from the file take their defaults and
// every key may be overridden by a FEASIBILITY_ environment variable, e.g.
// FEASIBILITY_SIMULATION_TRIALS.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// DefaultConfiguration returns the configuration used when no file exists,
// still honoring environment overrides.
func DefaultConfiguration() (*Configuration, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}
