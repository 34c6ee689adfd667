package config

import (
	"strings"

	"github.com/iwvelando/settlement-feasibility/internal/optimizer"
	"github.com/iwvelando/settlement-feasibility/pkg/sensitivity"
)

// BreakevenConfig bounds the breakeven searches.
type BreakevenConfig struct {
	TargetPaybackYears float64 `yaml:"targetPaybackYears" mapstructure:"targetPaybackYears"`
	MaxTxCost          float64 `yaml:"maxTxCost" mapstructure:"maxTxCost"`
	Tolerance          float64 `yaml:"tolerance" mapstructure:"tolerance"`
	MaxIterations      int     `yaml:"maxIterations" mapstructure:"maxIterations"`
}

// OptimizerConfig converts the breakeven section.
func (c *Configuration) OptimizerConfig() optimizer.Config {
	b := c.Breakeven
	return optimizer.Config{
		MaxIterations:      b.MaxIterations,
		Tolerance:          b.Tolerance,
		TargetPaybackYears: b.TargetPaybackYears,
		MaxTxCost:          b.MaxTxCost,
	}
}

// CanonicalMetric returns the canonical identifier for a sensitivity metric.
func CanonicalMetric(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return string(sensitivity.NetSavings)
	}
	switch normalizeKey(trimmed) {
	case "netsavings", "net":
		return string(sensitivity.NetSavings)
	case "financingsavings", "financing":
		return string(sensitivity.FinancingSavings)
	case "factoringsavings", "factoring":
		return string(sensitivity.FactoringSavings)
	case "fraudsavings", "fraud":
		return string(sensitivity.FraudSavings)
	case "blockchaintotalcost", "blockchaincost":
		return string(sensitivity.BlockchainTotalCost)
	default:
		return trimmed
	}
}

// CanonicalSource returns the canonical financials source.
func CanonicalSource(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch trimmed {
	case "", "default", SourceStudy:
		return SourceStudy
	case SourceBuiltin, "filings", "chrw":
		return SourceBuiltin
	default:
		return trimmed
	}
}

// CanonicalDPOBasis returns the canonical DPO cost base.
func CanonicalDPOBasis(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	switch trimmed {
	case "":
		return DPOBasisRevenue
	case "cost_of_goods_sold", "cost-of-goods-sold":
		return DPOBasisCOGS
	default:
		return trimmed
	}
}

func normalizeKey(value string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(value))
}

func knownMetric(m sensitivity.Metric) bool {
	switch m {
	case sensitivity.NetSavings, sensitivity.FinancingSavings, sensitivity.FactoringSavings,
		sensitivity.FraudSavings, sensitivity.BlockchainTotalCost:
		return true
	}
	return false
}
