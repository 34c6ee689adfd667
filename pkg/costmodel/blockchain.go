package costmodel

import (
	"math"

	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// SavingsBreakdown itemizes the blockchain scenario against the traditional
// baseline. NetSavings is not clamped: a negative value means settlement
// costs more than it saves.
type SavingsBreakdown struct {
	EffectiveAdoption       float64
	WorkingCapitalReduction float64
	FinancingSavings        float64
	FactoringSavings        float64
	FraudSavings            float64
	AdminSavings            float64
	GrossSavings            float64
	BlockchainCosts         float64
	NetSavings              float64
}

// Loses reports whether blockchain settlement costs more than it saves.
func (s SavingsBreakdown) Loses() bool {
	return s.NetSavings < 0
}

// Blockchain applies an effective adoption rate to a traditional baseline.
type Blockchain struct {
	base     *Traditional
	adoption float64
}

// NewBlockchain returns the model for the given effective adoption in [0, 1].
// Scenario gating (the minimum of target adoption, shipper escrow willingness
// and carrier readiness) is the caller's job; see scenarios.AdoptionScenario.
func NewBlockchain(base *Traditional, effectiveAdoption float64) (*Blockchain, error) {
	if base == nil {
		return nil, validation.InvalidInput("traditionalModel", 0, "non-nil")
	}
	if err := validation.Fraction(validation.ErrInvalidInput, "effectiveAdoption", effectiveAdoption); err != nil {
		return nil, err
	}
	return &Blockchain{base: base, adoption: effectiveAdoption}, nil
}

func (m *Blockchain) Adoption() float64 {
	return m.adoption
}

func (m *Blockchain) Traditional() *Traditional {
	return m.base
}

// BlendedGapDays mixes the traditional gap with the settlement gap by adoption.
func (m *Blockchain) BlendedGapDays() float64 {
	c := m.base.constants
	settled := c.SettlementDSODays - c.SettlementDPODays
	return (1-m.adoption)*m.base.flow.GapDays() + m.adoption*settled
}

// ReducedWorkingCapital is the capital tied up under the blended gap.
func (m *Blockchain) ReducedWorkingCapital() float64 {
	return m.base.flow.DailyRevenue() * math.Max(m.BlendedGapDays(), 0)
}

func (m *Blockchain) WorkingCapitalSavings() float64 {
	return m.base.WorkingCapitalTiedUp() - m.ReducedWorkingCapital()
}

func (m *Blockchain) FinancingSavings() float64 {
	return m.WorkingCapitalSavings() * m.base.assumptions.CostOfCapital
}

// FactoringSavings assumes settled loads no longer need factoring.
func (m *Blockchain) FactoringSavings() float64 {
	return m.base.FactoringCost() * m.adoption
}

func (m *Blockchain) FraudSavings() float64 {
	return m.base.FraudLosses() * m.adoption * m.base.constants.FraudReduction
}

func (m *Blockchain) AdminSavings() float64 {
	return m.base.AdminCosts() * m.adoption * m.base.constants.AdminEfficiency
}

// TransactionCosts is the on-chain fee for every settled load.
func (m *Blockchain) TransactionCosts() float64 {
	return m.adoption * m.base.flow.Shipments * m.base.assumptions.BlockchainTxCost
}

func (m *Blockchain) GrossSavings() float64 {
	return mathutil.Sum(m.FinancingSavings(), m.FactoringSavings(), m.FraudSavings(), m.AdminSavings())
}

func (m *Blockchain) NetSavings() float64 {
	return mathutil.Sum(m.GrossSavings(), -m.TransactionCosts())
}

// TotalCost is the annual cost of the blended operation.
func (m *Blockchain) TotalCost() float64 {
	return mathutil.Sum(m.base.TotalCost(true), -m.GrossSavings(), m.TransactionCosts())
}

// Breakdown itemizes the model, failing with ErrComputationOverflow on a
// non-finite result.
func (m *Blockchain) Breakdown() (SavingsBreakdown, error) {
	s := SavingsBreakdown{
		EffectiveAdoption:       m.adoption,
		WorkingCapitalReduction: m.WorkingCapitalSavings(),
		FinancingSavings:        m.FinancingSavings(),
		FactoringSavings:        m.FactoringSavings(),
		FraudSavings:            m.FraudSavings(),
		AdminSavings:            m.AdminSavings(),
		BlockchainCosts:         m.TransactionCosts(),
	}
	s.GrossSavings = mathutil.Sum(s.FinancingSavings, s.FactoringSavings, s.FraudSavings, s.AdminSavings)
	s.NetSavings = mathutil.Sum(s.GrossSavings, -s.BlockchainCosts)
	if err := validation.First(
		checkFinite("grossSavings", s.GrossSavings),
		checkFinite("netSavings", s.NetSavings),
	); err != nil {
		return SavingsBreakdown{}, err
	}
	return s, nil
}
