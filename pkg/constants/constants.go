// Package constants provides shared constants for the settlement-feasibility application.
package constants

// Calendar constants
const (
	// DaysInYear is the day count used to convert annual figures to daily ones
	DaysInYear = 365

	// DefaultHorizonYears is the NPV and payback horizon for scenario evaluation
	DefaultHorizonYears = 5

	// MillionsMultiplier converts filing figures reported in millions to dollars
	MillionsMultiplier = 1_000_000.0
)

// Cost model defaults
const (
	// DefaultFractionFactored is the share of receivables sold to factors
	DefaultFractionFactored = 0.30

	// DefaultFraudReduction is the share of fraud losses eliminated on settled loads
	DefaultFraudReduction = 0.50

	// DefaultAdminEfficiency is the share of per-load admin cost removed on settled loads
	DefaultAdminEfficiency = 0.70

	// DefaultSettlementDays is the on-chain settlement time for both DSO and DPO
	DefaultSettlementDays = 0.5
)

// Simulation defaults
const (
	// DefaultTrials is the default Monte Carlo trial count
	DefaultTrials = 10_000

	// DefaultHorizonDays is the window over which daily cash positions are modeled
	DefaultHorizonDays = 365

	// DefaultChunkSize is the number of trials sharing one random stream
	DefaultChunkSize = 250

	// DefaultPositionDecay is the daily carry factor of the working-capital position
	DefaultPositionDecay = 0.98

	// DefaultConfidence is the VaR/CVaR confidence level
	DefaultConfidence = 0.95

	// DefaultRevenuePerLoadStd is the per-load revenue standard deviation in dollars
	DefaultRevenuePerLoadStd = 500.0

	// MinimumRevenueFactor floors a sampled daily revenue at this share of the mean
	MinimumRevenueFactor = 0.5

	// LowTrialCountWarning is the trial count below which percentiles are noisy
	LowTrialCountWarning = 1_000
)

// Sensitivity defaults
const (
	// DefaultTornadoRange is the one-at-a-time perturbation (±20%)
	DefaultTornadoRange = 0.20

	// DefaultSpiderRange is the spider plot perturbation (±30%)
	DefaultSpiderRange = 0.30

	// DefaultSpiderPoints is the number of points across the spider range
	DefaultSpiderPoints = 11

	// DefaultKeyUncertaintyThreshold is the swing share of |base| marking a key driver
	DefaultKeyUncertaintyThreshold = 0.10

	// DefaultTargetPaybackYears is the payback target for the breakeven scenario search
	DefaultTargetPaybackYears = 3.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "FEASIBILITY"
)

// Conversion constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
