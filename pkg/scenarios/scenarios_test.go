package scenarios

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(costmodel.DefaultPaymentFlow(), costmodel.DefaultCostAssumptions(), costmodel.DefaultModelConstants(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	return e
}

func mustFind(t *testing.T, key string) AdoptionScenario {
	t.Helper()
	s, ok := Find(DefaultTable(), key)
	if !ok {
		t.Fatalf("scenario %q not found in default table", key)
	}
	return s
}

func TestEffectiveAdoption(t *testing.T) {
	tests := []struct {
		name      string
		scenario  AdoptionScenario
		expected  float64
		constrain string
	}{
		{
			name:      "Adoption target binds",
			scenario:  AdoptionScenario{AdoptionRate: 0.3, ShipperEscrowRate: 0.4, CarrierReadiness: 0.7},
			expected:  0.3,
			constrain: "adoption target",
		},
		{
			name:      "Escrow binds",
			scenario:  AdoptionScenario{AdoptionRate: 0.6, ShipperEscrowRate: 0.2, CarrierReadiness: 0.7},
			expected:  0.2,
			constrain: "shipper escrow",
		},
		{
			name:      "Carrier readiness binds",
			scenario:  AdoptionScenario{AdoptionRate: 0.6, ShipperEscrowRate: 0.8, CarrierReadiness: 0.25},
			expected:  0.25,
			constrain: "carrier readiness",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scenario.EffectiveAdoption(); got != tt.expected {
				t.Errorf("EffectiveAdoption() = %v, expected %v", got, tt.expected)
			}
			if got := tt.scenario.BindingConstraint(); got != tt.constrain {
				t.Errorf("BindingConstraint() = %q, expected %q", got, tt.constrain)
			}
		})
	}
}

func TestDefaultTableEffectiveAdoptionNeverExceedsInputs(t *testing.T) {
	for _, s := range DefaultTable() {
		eff := s.EffectiveAdoption()
		if eff > s.AdoptionRate || eff > s.ShipperEscrowRate || eff > s.CarrierReadiness {
			t.Errorf("%s: effective adoption %v exceeds an input", s.Name, eff)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("%s: Validate() error = %v", s.Name, err)
		}
	}
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AdoptionScenario)
	}{
		{name: "Adoption above one", mutate: func(s *AdoptionScenario) { s.AdoptionRate = 1.2 }},
		{name: "Negative escrow", mutate: func(s *AdoptionScenario) { s.ShipperEscrowRate = -0.1 }},
		{name: "Negative tx cost", mutate: func(s *AdoptionScenario) { s.TxCost = -1 }},
		{name: "NaN fraud reduction", mutate: func(s *AdoptionScenario) { s.FraudReduction = math.NaN() }},
		{name: "Negative implementation cost", mutate: func(s *AdoptionScenario) { s.ImplementationCost = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustFind(t, BaseCase)
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, validation.ErrInvalidInput) {
				t.Errorf("Validate() error = %v, expected ErrInvalidInput", err)
			}
		})
	}
}

func TestEvaluateBaseCase(t *testing.T) {
	e := newEvaluator(t)
	r, err := e.Evaluate(mustFind(t, BaseCase))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if r.EffectiveAdoption != 0.3 {
		t.Errorf("EffectiveAdoption = %v, expected 0.3", r.EffectiveAdoption)
	}
	// Scenario fraud reduction of 15% replaces the model default.
	if !mathutil.WithinTolerance(r.Savings.FraudSavings, 3_982_500, 1) {
		t.Errorf("FraudSavings = %.2f, expected 3,982,500", r.Savings.FraudSavings)
	}
	if !mathutil.WithinTolerance(r.TransactionCosts, 23_550_000, 1) {
		t.Errorf("TransactionCosts = %.2f, expected 23,550,000", r.TransactionCosts)
	}
	if !mathutil.WithinTolerance(r.NetSavings, 100_081_335.62, 1) {
		t.Errorf("NetSavings = %.2f, expected 100,081,335.62", r.NetSavings)
	}
	if !mathutil.WithinTolerance(r.NetAnnualSavings, 90_081_335.62, 1) {
		t.Errorf("NetAnnualSavings = %.2f, expected 90,081,335.62", r.NetAnnualSavings)
	}
	if !mathutil.WithinRelative(r.ROI, 90_081_335.62/50_000_000, 1e-9) {
		t.Errorf("ROI = %v, expected %v", r.ROI, 90_081_335.62/50_000_000)
	}
	if !mathutil.WithinRelative(r.SimplePayback, 50_000_000/90_081_335.62, 1e-9) {
		t.Errorf("SimplePayback = %v", r.SimplePayback)
	}
	if !mathutil.WithinTolerance(r.NPV, 319_351_258, 10_000) {
		t.Errorf("NPV = %.2f, expected about 319,351,258", r.NPV)
	}
	if !r.Recovered || r.PaybackYear != 1 {
		t.Errorf("payback = (%d, %v), expected year 1 recovered", r.PaybackYear, r.Recovered)
	}
	if r.PaybackLabel() != "1 year" {
		t.Errorf("PaybackLabel() = %q", r.PaybackLabel())
	}
	expectedCost := r.TraditionalCost - r.NetSavings + 10_000_000
	if !mathutil.WithinTolerance(r.BlockchainCost, expectedCost, 1) {
		t.Errorf("BlockchainCost = %.2f, expected %.2f", r.BlockchainCost, expectedCost)
	}
}

func TestEvaluateConservativeNotRecovered(t *testing.T) {
	e := newEvaluator(t)
	r, err := e.Evaluate(mustFind(t, Conservative))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if r.EffectiveAdoption != 0.1 {
		t.Errorf("EffectiveAdoption = %v, expected 0.1", r.EffectiveAdoption)
	}
	if !mathutil.WithinTolerance(r.NetAnnualSavings, 9_625_445.21, 1) {
		t.Errorf("NetAnnualSavings = %.2f, expected 9,625,445.21", r.NetAnnualSavings)
	}
	if r.NPV >= 0 {
		t.Errorf("NPV = %.2f, expected negative", r.NPV)
	}
	if r.Recovered {
		t.Errorf("Recovered = true, expected not recovered within five years")
	}
	if r.PaybackLabel() != "not recovered within horizon" {
		t.Errorf("PaybackLabel() = %q", r.PaybackLabel())
	}
}

func TestEvaluateLosingScenario(t *testing.T) {
	e := newEvaluator(t)
	s := mustFind(t, BaseCase)
	s.TxCost = 50
	r, err := e.Evaluate(s)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if r.NetSavings >= 0 || !r.Savings.Loses() {
		t.Errorf("NetSavings = %.2f, expected a reported loss", r.NetSavings)
	}
	if !math.IsInf(r.SimplePayback, 1) {
		t.Errorf("SimplePayback = %v, expected +Inf", r.SimplePayback)
	}
	if r.ROI >= 0 {
		t.Errorf("ROI = %v, expected negative", r.ROI)
	}
}

func TestEvaluateZeroImplementationCost(t *testing.T) {
	e := newEvaluator(t)
	s := mustFind(t, BaseCase)
	s.ImplementationCost = 0
	r, err := e.Evaluate(s)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !r.Recovered || r.PaybackYear != 0 {
		t.Errorf("payback = (%d, %v), expected immediate recovery", r.PaybackYear, r.Recovered)
	}
	if !math.IsInf(r.ROI, 1) {
		t.Errorf("ROI = %v, expected +Inf", r.ROI)
	}
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name       string
		annual     float64
		investment float64
		rate       float64
		years      int
		npv        float64
		year       int
		recovered  bool
	}{
		{name: "Undiscounted", annual: 10, investment: 25, rate: 0, years: 5, npv: 25, year: 3, recovered: true},
		{name: "Single year at a quarter", annual: 125, investment: 100, rate: 0.25, years: 1, npv: 0, year: 1, recovered: true},
		{name: "Never recovered", annual: 1, investment: 100, rate: 0.05, years: 5, npv: -95.6705, recovered: false},
		{name: "Negative savings", annual: -10, investment: 10, rate: 0, years: 2, npv: -30, recovered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			npv, year, recovered := discount(tt.annual, tt.investment, tt.rate, tt.years)
			if !mathutil.WithinTolerance(npv, tt.npv, 1e-3) {
				t.Errorf("npv = %v, expected %v", npv, tt.npv)
			}
			if year != tt.year || recovered != tt.recovered {
				t.Errorf("payback = (%d, %v), expected (%d, %v)", year, recovered, tt.year, tt.recovered)
			}
		})
	}
}

func TestEvaluatorDiscountRate(t *testing.T) {
	e := newEvaluator(t)
	if e.DiscountRate() != 0.07 {
		t.Errorf("DiscountRate() = %v, expected cost of capital 0.07", e.DiscountRate())
	}

	tests := []struct {
		name string
		rate float64
	}{
		{"custom", 0.1},
		{"undiscounted", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := tt.rate
			custom, err := NewEvaluator(costmodel.DefaultPaymentFlow(), costmodel.DefaultCostAssumptions(), costmodel.DefaultModelConstants(),
				Options{HorizonYears: 3, DiscountRate: &rate})
			if err != nil {
				t.Fatalf("NewEvaluator() error = %v", err)
			}
			if custom.DiscountRate() != tt.rate || custom.HorizonYears() != 3 {
				t.Errorf("options = (%v, %d), expected (%v, 3)", custom.DiscountRate(), custom.HorizonYears(), tt.rate)
			}
		})
	}

	zero := 0.0
	flat, err := NewEvaluator(costmodel.DefaultPaymentFlow(), costmodel.DefaultCostAssumptions(), costmodel.DefaultModelConstants(),
		Options{HorizonYears: 5, DiscountRate: &zero})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	base, _ := Find(DefaultTable(), BaseCase)
	r, err := flat.Evaluate(base)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if want := 5*r.NetAnnualSavings - base.ImplementationCost; !mathutil.WithinTolerance(r.NPV, want, 1e-3) {
		t.Errorf("undiscounted NPV = %v, expected %v", r.NPV, want)
	}

	if _, err := NewEvaluator(costmodel.DefaultPaymentFlow(), costmodel.DefaultCostAssumptions(), costmodel.DefaultModelConstants(), Options{}); !errors.Is(err, validation.ErrInvalidParameter) {
		t.Errorf("zero horizon error = %v, expected ErrInvalidParameter", err)
	}
}

func TestEvaluateAllAndSummarize(t *testing.T) {
	e := newEvaluator(t)
	results, err := e.EvaluateAll(DefaultTable())
	if err != nil {
		t.Fatalf("EvaluateAll() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, expected 4", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].NetAnnualSavings <= results[i-1].NetAnnualSavings {
			t.Errorf("%s saves %.0f, not more than %s at %.0f", results[i].Scenario.Name, results[i].NetAnnualSavings,
				results[i-1].Scenario.Name, results[i-1].NetAnnualSavings)
		}
	}

	summary, err := Summarize(results)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.BestScenario != "Aggressive" || summary.WorstScenario != "Conservative" {
		t.Errorf("best/worst = %q/%q, expected Aggressive/Conservative", summary.BestScenario, summary.WorstScenario)
	}
	if summary.AllPositiveNPV {
		t.Errorf("AllPositiveNPV = true, expected false with the conservative scenario")
	}
	if summary.MinAnnualSavings != results[0].NetAnnualSavings || summary.MaxAnnualSavings != results[3].NetAnnualSavings {
		t.Errorf("min/max = %.0f/%.0f", summary.MinAnnualSavings, summary.MaxAnnualSavings)
	}
	if summary.AvgAnnualSavings <= summary.MinAnnualSavings || summary.AvgAnnualSavings >= summary.MaxAnnualSavings {
		t.Errorf("AvgAnnualSavings = %.0f outside (min, max)", summary.AvgAnnualSavings)
	}

	if _, err := Summarize(nil); err == nil {
		t.Errorf("Summarize(nil) expected an error")
	}
}

func TestSweep(t *testing.T) {
	e := newEvaluator(t)
	base := mustFind(t, BaseCase)
	results, err := e.Sweep(base, "txCost", []float64{1, 5, 10})
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, expected 3", len(results))
	}
	if results[1].NetSavings != mustEvaluate(t, e, base).NetSavings {
		t.Errorf("sweep at the base tx cost differs from the base evaluation")
	}
	if !(results[0].NetSavings > results[1].NetSavings && results[1].NetSavings > results[2].NetSavings) {
		t.Errorf("net savings should fall as tx cost rises: %v, %v, %v",
			results[0].NetSavings, results[1].NetSavings, results[2].NetSavings)
	}

	if _, err := e.Sweep(base, "bogus", []float64{1}); !errors.Is(err, validation.ErrInvalidParameter) {
		t.Errorf("Sweep(bogus) error = %v, expected ErrInvalidParameter", err)
	}
	if _, err := e.Sweep(base, "adoptionRate", []float64{1.5}); !errors.Is(err, validation.ErrInvalidInput) {
		t.Errorf("Sweep(adoptionRate=1.5) error = %v, expected ErrInvalidInput", err)
	}
}

func mustEvaluate(t *testing.T, e *Evaluator, s AdoptionScenario) Result {
	t.Helper()
	r, err := e.Evaluate(s)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	return r
}
