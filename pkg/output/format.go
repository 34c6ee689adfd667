// Package output provides utilities for formatting and displaying feasibility results.
package output

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/settlement-feasibility/internal/feasibility"
	"github.com/iwvelando/settlement-feasibility/pkg/datetime"
	"github.com/iwvelando/settlement-feasibility/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report *feasibility.Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}
	pw := &prettyWriter{w: w, p: message.NewPrinter(language.English)}

	flow := report.Baseline.Flow
	pw.header("Payment flow")
	if report.Filing != nil {
		pw.printf("Source: fiscal %s filing\n", strconv.Itoa(report.Filing.Filing.Year))
	} else {
		pw.printf("Source: study profile\n")
	}
	pw.printf("Revenue: $%.2f | Shipments: %.0f | DSO: %.1f days | DPO: %.1f days | Gap: %.1f days\n",
		flow.AnnualRevenue, flow.Shipments, flow.DSODays, flow.DPODays, flow.GapDays())
	if report.Prices != nil {
		pr := report.Prices
		pw.printf("Share price %s to %s: %s total return (%s annualized), %s volatility, %s max drawdown\n",
			pr.Start.Format(datetime.DateLayout), pr.End.Format(datetime.DateLayout), format.Percent(pr.TotalReturn),
			format.Percent(pr.AnnualizedReturn), format.Percent(pr.AnnualizedVolatility), format.Percent(pr.MaxDrawdown))
	}

	t := report.Traditional
	pw.header("Traditional payment cost")
	pw.printf("Component             | Annual cost\n")
	pw.printf("_________             | ___________\n")
	pw.printf("Working capital tied  | $%.2f\n", t.WorkingCapitalTiedUp)
	pw.printf("Financing             | $%.2f\n", t.FinancingCost)
	pw.printf("Factoring             | $%.2f\n", t.FactoringCost)
	pw.printf("Fraud losses          | $%.2f\n", t.FraudLosses)
	pw.printf("Administration        | $%.2f\n", t.AdminCosts)
	pw.printf("Total                 | $%.2f\n", t.TotalCost)

	pw.header(fmt.Sprintf("Scenarios (%d-year horizon, %s discount rate)", report.HorizonYears, format.Percent(report.DiscountRate)))
	pw.printf("Scenario | Effective adoption | Net annual savings | NPV | ROI | Simple payback | Discounted payback\n")
	pw.printf("________ | __________________ | __________________ | ___ | ___ | ______________ | __________________\n")
	for _, r := range report.Scenarios {
		pw.printf("%s | %s | $%.2f | $%.2f | %s | %s | %s\n", r.Scenario.Name, format.Percent(r.EffectiveAdoption),
			r.NetAnnualSavings, r.NPV, ratio(r.ROI), format.Years(r.SimplePayback), r.PaybackLabel())
	}
	s := report.Summary
	pw.printf("Average annual savings: %s (range %s to %s), average NPV: %s\n",
		format.Compact(s.AvgAnnualSavings), format.Compact(s.MinAnnualSavings), format.Compact(s.MaxAnnualSavings), format.Compact(s.AvgNPV))
	pw.printf("Best: %s, worst: %s, all NPV positive: %t\n", s.BestScenario, s.WorstScenario, s.AllPositiveNPV)

	pw.header("Adoption sweep")
	pw.printf("Adoption | Gross savings | Blockchain costs | Net savings\n")
	pw.printf("________ | _____________ | ________________ | ___________\n")
	for _, row := range report.AdoptionSweep {
		pw.printf("%s | $%.2f | $%.2f | $%.2f\n", format.Percent(row.EffectiveAdoption), row.GrossSavings, row.BlockchainCosts, row.NetSavings)
	}

	if sim := report.Simulation; sim != nil {
		pw.header("Monte Carlo: " + report.SimulatedScenario.Name + ", " + strconv.Itoa(len(sim.Trials)) +
			" trials, seed " + strconv.FormatUint(sim.Seed, 10))
		n := sim.NetSavings
		pw.printf("Net savings mean $%.2f, std $%.2f, P5 $%.2f, median $%.2f, P95 $%.2f\n", n.Mean, n.StdDev, n.P5, n.Median, n.P95)
		pw.printf("Net savings VaR %s $%.2f, CVaR $%.2f, probability positive %s\n",
			format.Percent(n.Confidence), n.VaR, n.CVaR, format.Percent(n.FractionPositive))
		pw.printf("Capital at risk | Traditional | Blockchain | Reduction\n")
		pw.printf("_______________ | ___________ | __________ | _________\n")
		rr := sim.RiskReduction
		pw.printf("VaR             | $%.2f | $%.2f | %s\n", sim.Traditional.Summary.VaR, sim.Blockchain.Summary.VaR, format.Percent(rr.VaRPct/100))
		pw.printf("CVaR            | $%.2f | $%.2f | %s\n", sim.Traditional.Summary.CVaR, sim.Blockchain.Summary.CVaR, format.Percent(rr.CVaRPct/100))
		pw.printf("Peak P95        | $%.2f | $%.2f | %s\n", sim.Traditional.PeakP95, sim.Blockchain.PeakP95, format.Percent(rr.PeakCapitalPct/100))
		pw.printf("Volatility      | $%.2f | $%.2f | %s\n", sim.Traditional.Volatility, sim.Blockchain.Volatility, format.Percent(rr.VolatilityPct/100))
		pw.printf("Mean capital released: $%.2f, max drawdown P95: $%.2f\n", rr.MeanCapitalReleased, sim.MaxDrawdownP95)
	}

	if len(report.Comparative) > 0 {
		pw.header("Comparative adoption")
		pw.printf("Adoption | Mean net savings | Blockchain VaR | VaR reduction\n")
		pw.printf("________ | ________________ | ______________ | _____________\n")
		for _, row := range report.Comparative {
			pw.printf("%s | $%.2f | $%.2f | %s\n", format.Percent(row.AdoptionRate), row.Result.NetSavings.Mean,
				row.Result.Blockchain.Summary.VaR, format.Percent(row.Result.RiskReduction.VaRPct/100))
		}
	}

	pw.header(fmt.Sprintf("Tornado: %s at ±%s", report.Metric, format.Percent(report.SensitivityRange)))
	pw.printf("Parameter | Low output | High output | Swing | Elasticity\n")
	pw.printf("_________ | __________ | ___________ | _____ | __________\n")
	for _, bar := range report.Tornado {
		pw.printf("%s | $%.2f | $%.2f | $%.2f | %.2f\n", bar.Parameter, bar.LowOutput, bar.HighOutput, bar.Swing, bar.Elasticity)
	}
	keys := make([]string, len(report.KeyUncertainties))
	for i, p := range report.KeyUncertainties {
		keys[i] = string(p)
	}
	pw.printf("Key uncertainties: %s\n", strings.Join(keys, ", "))

	if len(report.Spider.Lines) > 0 {
		pw.header("Spider: % change in net savings")
		steps := make([]string, len(report.Spider.Steps))
		for i, step := range report.Spider.Steps {
			steps[i] = fmt.Sprintf("%+.0f%%", step*100)
		}
		pw.printf("Parameter | %s\n", strings.Join(steps, " | "))
		for _, line := range report.Spider.Lines {
			changes := make([]string, len(line.Changes))
			for i, c := range line.Changes {
				changes[i] = fmt.Sprintf("%+.1f%%", c)
			}
			pw.printf("%s | %s\n", line.Parameter, strings.Join(changes, " | "))
		}
	}

	if len(report.Correlations) > 0 {
		pw.header("Rank correlation with net savings")
		pw.printf("Input | Spearman | Variance share\n")
		pw.printf("_____ | ________ | ______________\n")
		for _, c := range report.Correlations {
			pw.printf("%s | %.3f | %s\n", c.Parameter, c.Spearman, format.Percent(c.VarianceShare))
		}
	}

	pw.header("Value drivers")
	for _, d := range report.Drivers {
		pw.printf("%s | $%.2f | %.1f%%\n", d.Name, d.Value, d.ShareOfTotal)
	}

	b := report.Breakeven
	pw.header(fmt.Sprintf("Breakeven probability over %d years", b.Years))
	pw.printf("Implementation cost: $%.2f\n", b.ImplementationCost)
	pw.printf("P(breakeven): %s, P(2x return): %s, expected NPV: $%.2f\n",
		format.Percent(b.ProbBreakeven), format.Percent(b.ProbDoubleReturn), b.ExpectedNPV)
	pw.printf("Cumulative savings P5 $%.2f, median $%.2f, P95 $%.2f\n", b.SavingsP5, b.MedianSavings, b.SavingsP95)

	if report.Optimizer != nil && !report.Optimizer.Empty() {
		pw.header("Breakeven search")
		for _, key := range report.Optimizer.Order {
			for _, summary := range report.Optimizer.Summaries[key] {
				status := "converged"
				if !summary.Converged {
					status = "not converged"
				}
				pw.printf("- %s %s (%s): %s -> %s, %s after %s iterations\n", summary.TargetName, summary.Field, summary.Scope,
					summary.OriginalDisplay, summary.ValueDisplay, status, strconv.Itoa(summary.Iterations))
				for _, note := range summary.Notes {
					pw.printf("    note: %s\n", note)
				}
			}
		}
	}

	if len(report.Warnings) > 0 {
		pw.header("Warnings")
		for _, warning := range report.Warnings {
			pw.printf("- %s\n", warning)
		}
	}
	return pw.err
}

type prettyWriter struct {
	w     io.Writer
	p     *message.Printer
	err   error
	first bool
}

// printf groups digits for %d and %f verbs. Years, seeds and counts are
// passed as strings so they print verbatim.
func (pw *prettyWriter) printf(layout string, args ...interface{}) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.p.Fprintf(pw.w, layout, args...)
}

func (pw *prettyWriter) header(title string) {
	if pw.first {
		pw.printf("\n")
	}
	pw.first = true
	pw.printf("--- %s ---\n", title)
}

func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "unbounded"
	}
	return fmt.Sprintf("%.2fx", v)
}
