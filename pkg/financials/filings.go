package financials

import (
	"fmt"
	"sort"

	"github.com/iwvelando/settlement-feasibility/pkg/constants"
)

// Filing holds figures extracted from one annual report. Currency amounts
// are in millions of dollars, as reported.
type Filing struct {
	Year                  int     `json:"year" yaml:"year"`
	TotalRevenue          float64 `json:"total_revenue" yaml:"total_revenue"`
	NetRevenue            float64 `json:"net_revenue" yaml:"net_revenue"`
	OperatingIncome       float64 `json:"operating_income" yaml:"operating_income"`
	NetIncome             float64 `json:"net_income" yaml:"net_income"`
	CostOfGoodsSold       float64 `json:"cost_of_goods_sold" yaml:"cost_of_goods_sold"`
	AccountsReceivable    float64 `json:"accounts_receivable" yaml:"accounts_receivable"`
	AccountsPayable       float64 `json:"accounts_payable" yaml:"accounts_payable"`
	TotalAssets           float64 `json:"total_assets" yaml:"total_assets"`
	TotalDebt             float64 `json:"total_debt" yaml:"total_debt"`
	CashAndEquivalents    float64 `json:"cash_and_equivalents" yaml:"cash_and_equivalents"`
	ShipmentsHandled      float64 `json:"shipments_handled" yaml:"shipments_handled"`
	Employees             int     `json:"employees" yaml:"employees"`
	EffectiveInterestRate float64 `json:"effective_interest_rate" yaml:"effective_interest_rate"`
}

// Metrics converts the filing to dollars.
func (f Filing) Metrics() FinancialMetrics {
	return FinancialMetrics{
		Year:            f.Year,
		Revenue:         f.TotalRevenue * constants.MillionsMultiplier,
		Receivables:     f.AccountsReceivable * constants.MillionsMultiplier,
		Payables:        f.AccountsPayable * constants.MillionsMultiplier,
		Shipments:       f.ShipmentsHandled,
		CostOfGoodsSold: f.CostOfGoodsSold * constants.MillionsMultiplier,
	}
}

// Derived summarizes the cycle metrics of a filing.
type Derived struct {
	DSO            float64
	DPO            float64 // against COGS when reported, otherwise revenue
	CCC            float64
	RevenuePerLoad float64
	DailyRevenue   float64
}

// Derive computes the cycle metrics for the filing.
func (f Filing) Derive() (Derived, error) {
	m := f.Metrics()
	if err := m.Validate(); err != nil {
		return Derived{}, fmt.Errorf("filing %d: %w", f.Year, err)
	}
	dso, err := m.DSO()
	if err != nil {
		return Derived{}, fmt.Errorf("filing %d: %w", f.Year, err)
	}
	var dpo float64
	if m.CostOfGoodsSold > 0 {
		dpo, err = m.DPOFromCOGS()
	} else {
		dpo, err = m.DPO()
	}
	if err != nil {
		return Derived{}, fmt.Errorf("filing %d: %w", f.Year, err)
	}
	return Derived{
		DSO:            dso,
		DPO:            dpo,
		CCC:            CashConversionCycle(dso, dpo, 0),
		RevenuePerLoad: m.Revenue / m.Shipments,
		DailyRevenue:   m.DailyRevenue(),
	}, nil
}

// Dataset indexes filings by fiscal year.
type Dataset map[int]Filing

// Years returns the available fiscal years in ascending order.
func (d Dataset) Years() []int {
	years := make([]int, 0, len(d))
	for year := range d {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Filing returns the filing for year.
func (d Dataset) Filing(year int) (Filing, error) {
	f, ok := d[year]
	if !ok {
		return Filing{}, fmt.Errorf("year %d not available, available years: %v", year, d.Years())
	}
	return f, nil
}

// Latest returns the most recent filing.
func (d Dataset) Latest() (Filing, error) {
	years := d.Years()
	if len(years) == 0 {
		return Filing{}, fmt.Errorf("dataset has no filings")
	}
	return d[years[len(years)-1]], nil
}

// BuiltinFilings returns C.H. Robinson Worldwide 10-K figures for fiscal
// 2023 and 2024.
func BuiltinFilings() Dataset {
	return Dataset{
		2023: {
			Year:                  2023,
			TotalRevenue:          17_632.0,
			NetRevenue:            2_615.0,
			OperatingIncome:       675.0,
			NetIncome:             461.0,
			CostOfGoodsSold:       15_017.0,
			AccountsReceivable:    2_412.0,
			AccountsPayable:       1_113.0,
			TotalAssets:           5_234.0,
			TotalDebt:             1_475.0,
			CashAndEquivalents:    175.0,
			ShipmentsHandled:      19_000_000,
			Employees:             14_839,
			EffectiveInterestRate: 0.065,
		},
		2024: {
			Year:                  2024,
			TotalRevenue:          17_700.0,
			NetRevenue:            2_770.0,
			OperatingIncome:       710.0,
			NetIncome:             487.0,
			CostOfGoodsSold:       14_930.0,
			AccountsReceivable:    2_380.0,
			AccountsPayable:       1_089.0,
			TotalAssets:           5_312.0,
			TotalDebt:             1_425.0,
			CashAndEquivalents:    198.0,
			ShipmentsHandled:      15_700_000,
			Employees:             14_200,
			EffectiveInterestRate: 0.070,
		},
	}
}
