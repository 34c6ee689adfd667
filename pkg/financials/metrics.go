// Package financials loads balance-sheet figures extracted from annual
// filings and derives the collection and payment cycle metrics used by the
// cost model.
package financials

import (
	"github.com/iwvelando/settlement-feasibility/pkg/constants"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// FinancialMetrics is the dollar-denominated view of one fiscal year.
type FinancialMetrics struct {
	Year            int
	Revenue         float64 // dollars per year
	Receivables     float64 // dollars
	Payables        float64 // dollars
	Shipments       float64 // loads per year
	CostOfGoodsSold float64 // dollars per year, zero when not reported
}

// Validate checks the metric domain.
func (m FinancialMetrics) Validate() error {
	return validation.First(
		validation.Positive(validation.ErrInvalidInput, "revenue", m.Revenue),
		validation.NonNegative(validation.ErrInvalidInput, "receivables", m.Receivables),
		validation.NonNegative(validation.ErrInvalidInput, "payables", m.Payables),
		validation.Positive(validation.ErrInvalidInput, "shipments", m.Shipments),
		validation.NonNegative(validation.ErrInvalidInput, "costOfGoodsSold", m.CostOfGoodsSold),
	)
}

// DailyRevenue is revenue spread over a 365-day year.
func (m FinancialMetrics) DailyRevenue() float64 {
	return m.Revenue / constants.DaysInYear
}

// DSO returns days sales outstanding: receivables over daily revenue.
func (m FinancialMetrics) DSO() (float64, error) {
	return CalculateDSO(m.Receivables, m.Revenue, constants.DaysInYear)
}

// DPO returns days payable outstanding using revenue as the cost base. This
// is a proxy; DPOFromCOGS gives the filing-accurate figure when COGS is known.
func (m FinancialMetrics) DPO() (float64, error) {
	return CalculateDPO(m.Payables, m.Revenue, constants.DaysInYear)
}

// DPOFromCOGS returns days payable outstanding against cost of goods sold.
func (m FinancialMetrics) DPOFromCOGS() (float64, error) {
	return CalculateDPO(m.Payables, m.CostOfGoodsSold, constants.DaysInYear)
}

// GapDays returns DSO - DPO on the revenue basis.
func (m FinancialMetrics) GapDays() (float64, error) {
	dso, err := m.DSO()
	if err != nil {
		return 0, err
	}
	dpo, err := m.DPO()
	if err != nil {
		return 0, err
	}
	return dso - dpo, nil
}

// CalculateDSO computes (receivables / revenue) * days.
func CalculateDSO(receivables, revenue float64, days int) (float64, error) {
	if err := validation.Positive(validation.ErrInvalidInput, "revenue", revenue); err != nil {
		return 0, err
	}
	if err := validation.NonNegative(validation.ErrInvalidInput, "receivables", receivables); err != nil {
		return 0, err
	}
	return receivables / revenue * float64(days), nil
}

// CalculateDPO computes (payables / costBase) * days.
func CalculateDPO(payables, costBase float64, days int) (float64, error) {
	if err := validation.Positive(validation.ErrInvalidInput, "costBase", costBase); err != nil {
		return 0, err
	}
	if err := validation.NonNegative(validation.ErrInvalidInput, "payables", payables); err != nil {
		return 0, err
	}
	return payables / costBase * float64(days), nil
}

// CashConversionCycle is DSO + DIO - DPO. Brokers carry no inventory so DIO
// is normally zero.
func CashConversionCycle(dso, dpo, dio float64) float64 {
	return dso + dio - dpo
}
