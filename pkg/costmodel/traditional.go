package costmodel

import (
	"math"

	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// CostBreakdown itemizes the traditional annual cost.
type CostBreakdown struct {
	WorkingCapitalTiedUp float64
	FinancingCost        float64
	FactoringCost        float64
	FraudLosses          float64
	AdminCosts           float64
	TotalCost            float64
}

// Traditional is the cost model for conventional net-terms settlement.
type Traditional struct {
	flow        PaymentFlow
	assumptions CostAssumptions
	constants   ModelConstants
}

// NewTraditional validates its inputs and returns the model. Validation
// happens here so that every method can assume a well-formed domain.
func NewTraditional(flow PaymentFlow, assumptions CostAssumptions, constants ModelConstants) (*Traditional, error) {
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	if err := assumptions.Validate(); err != nil {
		return nil, err
	}
	if err := constants.Validate(); err != nil {
		return nil, err
	}
	return &Traditional{flow: flow, assumptions: assumptions, constants: constants}, nil
}

func (m *Traditional) Flow() PaymentFlow {
	return m.flow
}

func (m *Traditional) Assumptions() CostAssumptions {
	return m.assumptions
}

func (m *Traditional) Constants() ModelConstants {
	return m.constants
}

// WorkingCapitalTiedUp is daily revenue times the positive part of the gap;
// a negative gap ties up no capital.
func (m *Traditional) WorkingCapitalTiedUp() float64 {
	return m.flow.DailyRevenue() * math.Max(m.flow.GapDays(), 0)
}

func (m *Traditional) FinancingCost() float64 {
	return m.WorkingCapitalTiedUp() * m.assumptions.CostOfCapital
}

func (m *Traditional) FactoringCost() float64 {
	return m.flow.AnnualRevenue * m.constants.FractionFactored * m.assumptions.FactoringRate
}

func (m *Traditional) FraudLosses() float64 {
	return m.flow.AnnualRevenue * m.assumptions.FraudLossRate
}

func (m *Traditional) AdminCosts() float64 {
	return m.flow.Shipments * m.assumptions.AdminCostPerLoad
}

// TotalCost sums the components, optionally leaving out admin cost.
func (m *Traditional) TotalCost(includeAdmin bool) float64 {
	total := mathutil.Sum(m.FinancingCost(), m.FactoringCost(), m.FraudLosses())
	if includeAdmin {
		total = mathutil.Sum(total, m.AdminCosts())
	}
	return total
}

// Breakdown itemizes the model. It fails with ErrComputationOverflow if any
// component is not finite.
func (m *Traditional) Breakdown() (CostBreakdown, error) {
	b := CostBreakdown{
		WorkingCapitalTiedUp: m.WorkingCapitalTiedUp(),
		FinancingCost:        m.FinancingCost(),
		FactoringCost:        m.FactoringCost(),
		FraudLosses:          m.FraudLosses(),
		AdminCosts:           m.AdminCosts(),
		TotalCost:            m.TotalCost(true),
	}
	if err := validation.First(
		checkFinite("workingCapitalTiedUp", b.WorkingCapitalTiedUp),
		checkFinite("totalCost", b.TotalCost),
	); err != nil {
		return CostBreakdown{}, err
	}
	return b, nil
}
