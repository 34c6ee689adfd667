package sensitivity

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/settlement-feasibility/pkg/costmodel"
	"github.com/iwvelando/settlement-feasibility/pkg/mathutil"
	"github.com/iwvelando/settlement-feasibility/pkg/simulation"
	"github.com/iwvelando/settlement-feasibility/pkg/stats"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
)

// Correlation ranks a sampled input against simulated net savings.
type Correlation struct {
	Parameter     string
	Spearman      float64
	VarianceShare float64 // rho^2 normalized over all sampled inputs
}

// RankCorrelations correlates every sampled input of a finished run with its
// net savings, sorted by |rho| largest first. Inputs held constant get 0.
func RankCorrelations(result *simulation.Result) ([]Correlation, error) {
	if result == nil || len(result.Trials) == 0 {
		return nil, fmt.Errorf("%w: no simulated trials", validation.ErrInvalidParameter)
	}
	net := result.NetSavingsValues()
	params := simulation.SampledParameters()
	out := make([]Correlation, 0, len(params))
	var total mathutil.Accumulator
	for _, name := range params {
		col, err := result.Column(name)
		if err != nil {
			return nil, err
		}
		rho, err := stats.Spearman(col, net)
		if err != nil {
			return nil, fmt.Errorf("rank correlation of %s: %w", name, err)
		}
		total.Add(rho * rho)
		out = append(out, Correlation{Parameter: name, Spearman: rho})
	}
	if sum := total.Sum(); sum > 0 {
		for i := range out {
			out[i].VarianceShare = out[i].Spearman * out[i].Spearman / sum
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].Spearman) > math.Abs(out[j].Spearman) })
	return out, nil
}

// Driver is one signed contribution to net savings.
type Driver struct {
	Name         string
	Value        float64
	ShareOfTotal float64 // percent of net savings, 0 when net is 0
}

// ValueDrivers splits net savings into its components, with transaction
// costs as a negative driver.
func ValueDrivers(s costmodel.SavingsBreakdown) []Driver {
	drivers := []Driver{
		{Name: "Financing Savings", Value: s.FinancingSavings},
		{Name: "Factoring Savings", Value: s.FactoringSavings},
		{Name: "Fraud Reduction", Value: s.FraudSavings},
		{Name: "Admin Savings", Value: s.AdminSavings},
		{Name: "Blockchain Costs", Value: -s.BlockchainCosts},
	}
	var total mathutil.Accumulator
	for _, d := range drivers {
		total.Add(d.Value)
	}
	for i := range drivers {
		drivers[i].ShareOfTotal = mathutil.Percentage(drivers[i].Value, total.Sum())
	}
	return drivers
}

// Breakeven gives the odds that cumulative simulated savings repay an
// investment. Savings are undiscounted annual net savings times Years.
type Breakeven struct {
	ImplementationCost float64
	Years              int
	ProbBreakeven      float64
	ProbDoubleReturn   float64
	ExpectedNPV        float64
	MedianSavings      float64
	SavingsP5          float64
	SavingsP95         float64
}

// BreakevenProbability evaluates breakeven odds from per-trial annual savings.
func BreakevenProbability(annualSavings []float64, implementationCost float64, years int) (Breakeven, error) {
	if len(annualSavings) == 0 {
		return Breakeven{}, fmt.Errorf("%w: no simulated savings", validation.ErrInvalidParameter)
	}
	if years <= 0 {
		return Breakeven{}, validation.InvalidParameter("breakevenYears", float64(years), "> 0")
	}
	if err := validation.NonNegative(validation.ErrInvalidParameter, "implementationCost", implementationCost); err != nil {
		return Breakeven{}, err
	}
	period := make([]float64, len(annualSavings))
	for i, v := range annualSavings {
		period[i] = v * float64(years)
	}
	sorted := stats.Sorted(period)
	return Breakeven{
		ImplementationCost: implementationCost,
		Years:              years,
		ProbBreakeven:      stats.FractionAbove(period, implementationCost),
		ProbDoubleReturn:   stats.FractionAbove(period, 2*implementationCost),
		ExpectedNPV:        stats.Mean(period) - implementationCost,
		MedianSavings:      stats.Percentile(sorted, 50),
		SavingsP5:          stats.Percentile(sorted, 5),
		SavingsP95:         stats.Percentile(sorted, 95),
	}, nil
}
