// Package scenarios defines the adoption scenario table and evaluates each
// scenario's savings, NPV and payback.
package scenarios

import (
	"fmt"
	"math"

	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// AdoptionScenario is one labeled set of adoption assumptions.
type AdoptionScenario struct {
	Key                   string
	Name                  string
	AdoptionRate          float64
	ShipperEscrowRate     float64
	CarrierReadiness      float64
	TxCost                float64
	FraudReduction        float64
	RegulatoryApproval    bool
	ImplementationCost    float64
	AnnualMaintenanceCost float64
}

// EffectiveAdoption is gated by the weakest link: target adoption, shipper
// escrow willingness and carrier readiness.
func (s AdoptionScenario) EffectiveAdoption() float64 {
	return math.Min(s.AdoptionRate, math.Min(s.ShipperEscrowRate, s.CarrierReadiness))
}

// BindingConstraint names the input that sets the effective adoption.
func (s AdoptionScenario) BindingConstraint() string {
	switch s.EffectiveAdoption() {
	case s.AdoptionRate:
		return "adoption target"
	case s.ShipperEscrowRate:
		return "shipper escrow"
	default:
		return "carrier readiness"
	}
}

// Validate checks the scenario domain.
func (s AdoptionScenario) Validate() error {
	if err := validation.First(
		validation.Fraction(validation.ErrInvalidInput, "adoptionRate", s.AdoptionRate),
		validation.Fraction(validation.ErrInvalidInput, "shipperEscrowRate", s.ShipperEscrowRate),
		validation.Fraction(validation.ErrInvalidInput, "carrierReadiness", s.CarrierReadiness),
		validation.NonNegative(validation.ErrInvalidInput, "txCost", s.TxCost),
		validation.Fraction(validation.ErrInvalidInput, "fraudReduction", s.FraudReduction),
		validation.NonNegative(validation.ErrInvalidInput, "implementationCost", s.ImplementationCost),
		validation.NonNegative(validation.ErrInvalidInput, "annualMaintenanceCost", s.AnnualMaintenanceCost),
	); err != nil {
		return fmt.Errorf("scenario %s: %w", s.label(), err)
	}
	return nil
}

func (s AdoptionScenario) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Key
}

// Built-in scenario keys in table order.
const (
	Conservative = "conservative"
	BaseCase     = "base"
	Optimistic   = "optimistic"
	Aggressive   = "aggressive"
)

// DefaultTable returns the four built-in scenarios in order of ambition.
func DefaultTable() []AdoptionScenario {
	return []AdoptionScenario{
		{
			Key:                   Conservative,
			Name:                  "Conservative",
			AdoptionRate:          0.10,
			ShipperEscrowRate:     0.20,
			CarrierReadiness:      0.50,
			TxCost:                10.0,
			FraudReduction:        0.05,
			RegulatoryApproval:    false,
			ImplementationCost:    75_000_000,
			AnnualMaintenanceCost: 15_000_000,
		},
		{
			Key:                   BaseCase,
			Name:                  "Base Case",
			AdoptionRate:          0.30,
			ShipperEscrowRate:     0.40,
			CarrierReadiness:      0.70,
			TxCost:                5.0,
			FraudReduction:        0.15,
			RegulatoryApproval:    true,
			ImplementationCost:    50_000_000,
			AnnualMaintenanceCost: 10_000_000,
		},
		{
			Key:                   Optimistic,
			Name:                  "Optimistic",
			AdoptionRate:          0.50,
			ShipperEscrowRate:     0.60,
			CarrierReadiness:      0.85,
			TxCost:                3.0,
			FraudReduction:        0.25,
			RegulatoryApproval:    true,
			ImplementationCost:    40_000_000,
			AnnualMaintenanceCost: 8_000_000,
		},
		{
			Key:                   Aggressive,
			Name:                  "Aggressive",
			AdoptionRate:          0.75,
			ShipperEscrowRate:     0.80,
			CarrierReadiness:      0.95,
			TxCost:                2.0,
			FraudReduction:        0.40,
			RegulatoryApproval:    true,
			ImplementationCost:    35_000_000,
			AnnualMaintenanceCost: 7_000_000,
		},
	}
}

// Find returns the scenario with the given key.
func Find(table []AdoptionScenario, key string) (AdoptionScenario, bool) {
	for _, s := range table {
		if s.Key == key {
			return s, true
		}
	}
	return AdoptionScenario{}, false
}
