package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/iwvelando/settlement-feasibility/internal/feasibility"
	"github.com/iwvelando/settlement-feasibility/pkg/datetime"
	"github.com/iwvelando/settlement-feasibility/pkg/simulation"
	"github.com/shopspring/decimal"
)

// CsvHeader is the column layout of CsvFormat: one value per row.
var CsvHeader = []string{"section", "item", "field", "value"}

// CsvFormat writes the report in comma-separated value format, one value per
// row. Currency values are rounded to cents.
func CsvFormat(w io.Writer, report *feasibility.Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CsvHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(csvRows(report)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func csvRows(report *feasibility.Report) [][]string {
	var rows [][]string
	add := func(section, item, field, value string) {
		rows = append(rows, []string{section, item, field, value})
	}

	flow := report.Baseline.Flow
	add("flow", "baseline", "annualRevenue", money(flow.AnnualRevenue))
	add("flow", "baseline", "shipments", number(flow.Shipments))
	add("flow", "baseline", "dsoDays", number(flow.DSODays))
	add("flow", "baseline", "dpoDays", number(flow.DPODays))
	if f := report.Filing; f != nil {
		add("filing", strconv.Itoa(f.Filing.Year), "dso", number(f.Derived.DSO))
		add("filing", strconv.Itoa(f.Filing.Year), "dpo", number(f.Derived.DPO))
		add("filing", strconv.Itoa(f.Filing.Year), "ccc", number(f.Derived.CCC))
	}
	if pr := report.Prices; pr != nil {
		item := pr.Start.Format(datetime.DateLayout) + "/" + pr.End.Format(datetime.DateLayout)
		add("prices", item, "totalReturn", number(pr.TotalReturn))
		add("prices", item, "annualizedReturn", number(pr.AnnualizedReturn))
		add("prices", item, "annualizedVolatility", number(pr.AnnualizedVolatility))
		add("prices", item, "maxDrawdown", number(pr.MaxDrawdown))
	}

	t := report.Traditional
	add("traditional", "cost", "workingCapitalTiedUp", money(t.WorkingCapitalTiedUp))
	add("traditional", "cost", "financing", money(t.FinancingCost))
	add("traditional", "cost", "factoring", money(t.FactoringCost))
	add("traditional", "cost", "fraudLosses", money(t.FraudLosses))
	add("traditional", "cost", "admin", money(t.AdminCosts))
	add("traditional", "cost", "total", money(t.TotalCost))

	for _, r := range report.Scenarios {
		key := r.Scenario.Key
		add("scenario", key, "effectiveAdoption", number(r.EffectiveAdoption))
		add("scenario", key, "grossSavings", money(r.GrossSavings))
		add("scenario", key, "transactionCosts", money(r.TransactionCosts))
		add("scenario", key, "netSavings", money(r.NetSavings))
		add("scenario", key, "netAnnualSavings", money(r.NetAnnualSavings))
		add("scenario", key, "roi", number(r.ROI))
		add("scenario", key, "simplePaybackYears", number(r.SimplePayback))
		add("scenario", key, "npv", money(r.NPV))
		add("scenario", key, "payback", r.PaybackLabel())
	}

	for _, row := range report.AdoptionSweep {
		item := number(row.EffectiveAdoption)
		add("sweep", item, "grossSavings", money(row.GrossSavings))
		add("sweep", item, "netSavings", money(row.NetSavings))
	}

	if sim := report.Simulation; sim != nil {
		n := sim.NetSavings
		add("simulation", "run", "seed", strconv.FormatUint(sim.Seed, 10))
		add("simulation", "run", "trials", strconv.Itoa(len(sim.Trials)))
		add("simulation", "netSavings", "mean", money(n.Mean))
		add("simulation", "netSavings", "stdDev", money(n.StdDev))
		add("simulation", "netSavings", "p5", money(n.P5))
		add("simulation", "netSavings", "median", money(n.Median))
		add("simulation", "netSavings", "p95", money(n.P95))
		add("simulation", "netSavings", "var", money(n.VaR))
		add("simulation", "netSavings", "cvar", money(n.CVaR))
		add("simulation", "netSavings", "fractionPositive", number(n.FractionPositive))
		rows = append(rows, capitalRows(sim.Traditional, true)...)
		rows = append(rows, capitalRows(sim.Blockchain, false)...)
		add("capital", "reduction", "varPct", number(sim.RiskReduction.VaRPct))
		add("capital", "reduction", "cvarPct", number(sim.RiskReduction.CVaRPct))
		add("capital", "reduction", "meanReleased", money(sim.RiskReduction.MeanCapitalReleased))
	}
	for _, row := range report.Comparative {
		item := number(row.AdoptionRate)
		add("comparative", item, "meanNetSavings", money(row.Result.NetSavings.Mean))
		add("comparative", item, "blockchainVar", money(row.Result.Blockchain.Summary.VaR))
	}

	for _, bar := range report.Tornado {
		item := string(bar.Parameter)
		add("tornado", item, "lowOutput", money(bar.LowOutput))
		add("tornado", item, "highOutput", money(bar.HighOutput))
		add("tornado", item, "swing", money(bar.Swing))
		add("tornado", item, "elasticity", number(bar.Elasticity))
	}
	for _, p := range report.KeyUncertainties {
		add("keyUncertainty", string(p), "metric", string(report.Metric))
	}
	for _, line := range report.Spider.Lines {
		for i, change := range line.Changes {
			add("spider", string(line.Parameter), number(report.Spider.Steps[i]), number(change))
		}
	}
	for _, c := range report.Correlations {
		add("correlation", c.Parameter, "spearman", number(c.Spearman))
	}
	for _, d := range report.Drivers {
		add("driver", d.Name, "value", money(d.Value))
	}

	b := report.Breakeven
	add("breakeven", "probability", "probBreakeven", number(b.ProbBreakeven))
	add("breakeven", "probability", "probDoubleReturn", number(b.ProbDoubleReturn))
	add("breakeven", "probability", "expectedNpv", money(b.ExpectedNPV))

	if report.Optimizer != nil {
		for _, key := range report.Optimizer.Order {
			for _, s := range report.Optimizer.Summaries[key] {
				add("search", key, s.Field+" "+s.Scope, number(s.Value))
			}
		}
	}
	return rows
}

func capitalRows(risk simulation.CapitalRisk, traditional bool) [][]string {
	label := "blockchain"
	if traditional {
		label = "traditional"
	}
	return [][]string{
		{"capital", label, "var", money(risk.Summary.VaR)},
		{"capital", label, "cvar", money(risk.Summary.CVaR)},
		{"capital", label, "var99", money(risk.VaR99)},
		{"capital", label, "peakP95", money(risk.PeakP95)},
		{"capital", label, "volatility", money(risk.Volatility)},
	}
}

// money renders an amount rounded half away from zero to cents.
func money(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
