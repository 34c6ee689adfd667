// Package costmodel computes the annual payment-infrastructure cost of a
// freight brokerage under traditional terms and the savings available when a
// share of loads settles on-chain.
package costmodel

import (
	"fmt"
	"math"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/financials"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// PaymentFlow describes revenue, volume and the collection/payment cycle.
type PaymentFlow struct {
	AnnualRevenue float64
	Shipments     float64
	DSODays       float64
	DPODays       float64
	DaysInYear    int
}

// DefaultPaymentFlow is the 2024 brokerage profile used throughout the study.
func DefaultPaymentFlow() PaymentFlow {
	return PaymentFlow{
		AnnualRevenue: 17_700_000_000,
		Shipments:     15_700_000,
		DSODays:       49.0,
		DPODays:       27.0,
		DaysInYear:    constants.DaysInYear,
	}
}

// FlowFromMetrics derives a PaymentFlow from filing metrics on the revenue
// basis for both DSO and DPO.
func FlowFromMetrics(m financials.FinancialMetrics) (PaymentFlow, error) {
	if err := m.Validate(); err != nil {
		return PaymentFlow{}, err
	}
	dso, err := m.DSO()
	if err != nil {
		return PaymentFlow{}, err
	}
	dpo, err := m.DPO()
	if err != nil {
		return PaymentFlow{}, err
	}
	return PaymentFlow{
		AnnualRevenue: m.Revenue,
		Shipments:     m.Shipments,
		DSODays:       dso,
		DPODays:       dpo,
		DaysInYear:    constants.DaysInYear,
	}, nil
}

// Validate checks the flow domain.
func (p PaymentFlow) Validate() error {
	if p.DaysInYear <= 0 {
		return validation.InvalidInput("daysInYear", float64(p.DaysInYear), "> 0")
	}
	return validation.First(
		validation.Positive(validation.ErrInvalidInput, "annualRevenue", p.AnnualRevenue),
		validation.Positive(validation.ErrInvalidInput, "shipments", p.Shipments),
		validation.NonNegative(validation.ErrInvalidInput, "dsoDays", p.DSODays),
		validation.NonNegative(validation.ErrInvalidInput, "dpoDays", p.DPODays),
	)
}

func (p PaymentFlow) DailyRevenue() float64 {
	return p.AnnualRevenue / float64(p.DaysInYear)
}

func (p PaymentFlow) RevenuePerLoad() float64 {
	return p.AnnualRevenue / p.Shipments
}

// GapDays is DSO - DPO; it may be negative when carriers wait longer than
// shippers.
func (p PaymentFlow) GapDays() float64 {
	return p.DSODays - p.DPODays
}

// CostAssumptions are the rate and unit-cost inputs.
type CostAssumptions struct {
	CostOfCapital    float64
	FactoringRate    float64
	FraudLossRate    float64
	AdminCostPerLoad float64
	BlockchainTxCost float64
}

// DefaultCostAssumptions returns the study's base-case rates.
func DefaultCostAssumptions() CostAssumptions {
	return CostAssumptions{
		CostOfCapital:    0.07,
		FactoringRate:    0.03,
		FraudLossRate:    0.005,
		AdminCostPerLoad: 15.0,
		BlockchainTxCost: 5.0,
	}
}

// Validate checks that rates are in [0, 1) and costs are non-negative.
func (a CostAssumptions) Validate() error {
	return validation.First(
		validation.Rate(validation.ErrInvalidInput, "costOfCapital", a.CostOfCapital),
		validation.Rate(validation.ErrInvalidInput, "factoringRate", a.FactoringRate),
		validation.Rate(validation.ErrInvalidInput, "fraudLossRate", a.FraudLossRate),
		validation.NonNegative(validation.ErrInvalidInput, "adminCostPerLoad", a.AdminCostPerLoad),
		validation.NonNegative(validation.ErrInvalidInput, "blockchainTxCost", a.BlockchainTxCost),
	)
}

// ModelConstants are the structural assumptions of the savings formulas.
// They are configuration, not derived quantities.
type ModelConstants struct {
	FractionFactored  float64 // share of revenue sold to factors
	FraudReduction    float64 // share of fraud losses removed on settled loads
	AdminEfficiency   float64 // share of admin cost removed on settled loads
	SettlementDSODays float64 // collection time of a settled load
	SettlementDPODays float64 // payment time of a settled load
}

// DefaultModelConstants returns the study's structural assumptions.
func DefaultModelConstants() ModelConstants {
	return ModelConstants{
		FractionFactored:  constants.DefaultFractionFactored,
		FraudReduction:    constants.DefaultFraudReduction,
		AdminEfficiency:   constants.DefaultAdminEfficiency,
		SettlementDSODays: constants.DefaultSettlementDays,
		SettlementDPODays: constants.DefaultSettlementDays,
	}
}

// Validate checks that fractions are in [0, 1] and settlement days >= 0.
func (c ModelConstants) Validate() error {
	return validation.First(
		validation.Fraction(validation.ErrInvalidInput, "fractionFactored", c.FractionFactored),
		validation.Fraction(validation.ErrInvalidInput, "fraudReduction", c.FraudReduction),
		validation.Fraction(validation.ErrInvalidInput, "adminEfficiency", c.AdminEfficiency),
		validation.NonNegative(validation.ErrInvalidInput, "settlementDsoDays", c.SettlementDSODays),
		validation.NonNegative(validation.ErrInvalidInput, "settlementDpoDays", c.SettlementDPODays),
	)
}

// FraudReductionFromDetection converts fraud detection rates before and
// after settlement into the share of losses removed: losses scale with the
// undetected share, so moving detection from 0.30 to 0.80 removes
// 1 - 0.20/0.70 of losses.
func FraudReductionFromDetection(baseline, improved float64) (float64, error) {
	if err := validation.First(
		validation.Rate(validation.ErrInvalidInput, "baselineDetection", baseline),
		validation.Fraction(validation.ErrInvalidInput, "improvedDetection", improved),
	); err != nil {
		return 0, err
	}
	if improved < baseline {
		return 0, fmt.Errorf("%w: improved detection %v below baseline %v", validation.ErrInvalidInput, improved, baseline)
	}
	return 1 - (1-improved)/(1-baseline), nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return validation.Overflow(field, v)
	}
	return nil
}
