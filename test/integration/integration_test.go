package integration

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/iwvelando/settlement-feasibility/internal/config"
	"github.com/iwvelando/settlement-feasibility/internal/feasibility"
	"github.com/iwvelando/settlement-feasibility/pkg/output"
	"github.com/iwvelando/settlement-feasibility/pkg/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const fixture = "../test_config.yaml"

func runFixture(t *testing.T, modify func(*config.Configuration)) *feasibility.Report {
	t.Helper()
	conf, err := config.LoadConfiguration(fixture)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if modify != nil {
		modify(conf)
	}
	report, err := feasibility.Run(context.Background(), zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

// TestMainIntegrationBaseline runs the fixture exactly as main() does.
func TestMainIntegrationBaseline(t *testing.T) {
	report := runFixture(t, nil)

	expectedScenarios := []string{"Pilot", "Base Case"}
	if len(report.Scenarios) != len(expectedScenarios) {
		t.Fatalf("Expected %d scenarios, got %d", len(expectedScenarios), len(report.Scenarios))
	}
	for i, expected := range expectedScenarios {
		if report.Scenarios[i].Scenario.Name != expected {
			t.Errorf("Expected scenario %s, got %s", expected, report.Scenarios[i].Scenario.Name)
		}
	}

	if report.Filing == nil || report.Filing.Filing.Year != 2024 {
		t.Fatalf("Expected the 2024 filing, got %+v", report.Filing)
	}
	flow := report.Baseline.Flow
	if math.Abs(flow.DSODays-2380.0/17700*365) > 1e-9 {
		t.Errorf("DSO = %v", flow.DSODays)
	}

	validateBaselineValues(t, report)
}

func validateBaselineValues(t *testing.T, report *feasibility.Report) {
	checks := []struct {
		scenario    string
		adoption    float64
		maintenance float64
	}{
		{"pilot", 0.05, 4_000_000},
		{"base", 0.30, 10_000_000},
	}
	for _, check := range checks {
		r := testutil.FindScenario(report.Scenarios, check.scenario)
		if r == nil {
			t.Errorf("Missing scenario: %s", check.scenario)
			continue
		}
		if math.Abs(r.EffectiveAdoption-check.adoption) > 1e-12 {
			t.Errorf("%s effective adoption = %v, expected %v", check.scenario, r.EffectiveAdoption, check.adoption)
		}
		if math.Abs(r.NetSavings-check.maintenance-r.NetAnnualSavings) > 1e-6 {
			t.Errorf("%s net annual savings %v is not net savings %v less maintenance", check.scenario, r.NetAnnualSavings, r.NetSavings)
		}
		if math.Abs(r.GrossSavings-r.TransactionCosts-r.NetSavings) > 1e-6 {
			t.Errorf("%s net savings %v is not gross less transaction costs", check.scenario, r.NetSavings)
		}
	}

	sim := report.Simulation
	if sim == nil || len(sim.Trials) != 500 || sim.Seed != 42 {
		t.Fatalf("simulation = %+v", sim)
	}
	if len(report.Comparative) != 3 {
		t.Errorf("comparative rows = %d, expected 3", len(report.Comparative))
	}
	if report.Breakeven.ProbBreakeven < report.Breakeven.ProbDoubleReturn {
		t.Errorf("P(breakeven) %v below P(2x) %v", report.Breakeven.ProbBreakeven, report.Breakeven.ProbDoubleReturn)
	}
	if len(report.Spider.Steps) != 5 {
		t.Errorf("spider steps = %v", report.Spider.Steps)
	}
}

func TestCSVOutputFormat(t *testing.T) {
	report := runFixture(t, nil)
	var buf bytes.Buffer
	if err := output.CsvFormat(&buf, report); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}
	if len(records) < 50 {
		t.Fatalf("CSV output has only %d records", len(records))
	}

	seen := make(map[string]bool)
	for _, rec := range records[1:] {
		seen[rec[0]+"/"+rec[1]] = true
	}
	for _, want := range []string{"scenario/pilot", "scenario/base", "simulation/netSavings", "capital/traditional", "capital/blockchain", "search/base"} {
		if !seen[want] {
			t.Errorf("CSV output missing %s rows", want)
		}
	}
	if seen["scenario/moonshot"] {
		t.Errorf("inactive scenario appeared in CSV output")
	}
}

func TestPrettyOutputFormat(t *testing.T) {
	report := runFixture(t, nil)
	var buf bytes.Buffer
	if err := output.PrettyFormat(&buf, report); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Source: fiscal 2024 filing",
		"Pilot | ",
		"Base Case | ",
		"--- Monte Carlo: Base Case, 500 trials, seed 42 ---",
		"assumes no regulatory approval",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Pretty output missing %q", want)
		}
	}
}

func TestWorkbookOutput(t *testing.T) {
	report := runFixture(t, nil)
	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := output.WriteWorkbook(path, report); err != nil {
		t.Fatalf("WriteWorkbook() error = %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(output.SheetScenarios)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "Pilot" || rows[2][0] != "Base Case" {
		t.Errorf("scenario sheet rows = %v", rows)
	}
}

func TestConfigurationValidation(t *testing.T) {
	conf, err := config.LoadConfiguration(fixture)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	warnings := strings.Join(conf.ValidateConfiguration(), "\n")
	for _, want := range []string{"Moonshot", "no regulatory approval", "below 1000"} {
		if !strings.Contains(warnings, want) {
			t.Errorf("warnings missing %q:\n%s", want, warnings)
		}
	}

	conf.Simulation.Scenario = "moonshot"
	if _, err := feasibility.Run(context.Background(), nil, conf); err == nil {
		t.Errorf("Run() should reject simulating an inactive scenario")
	}
}

func TestDataConsistency(t *testing.T) {
	first := runFixture(t, nil)
	second := runFixture(t, func(c *config.Configuration) { c.Simulation.Workers = 5 })

	if !reflect.DeepEqual(first.Scenarios, second.Scenarios) {
		t.Errorf("scenario results differ between runs")
	}
	if !reflect.DeepEqual(first.Simulation.NetSavings, second.Simulation.NetSavings) {
		t.Errorf("net savings differ between worker counts")
	}
	if !reflect.DeepEqual(first.Correlations, second.Correlations) {
		t.Errorf("correlations differ between worker counts")
	}
}

func TestConfigurationVariations(t *testing.T) {
	t.Setenv("FEASIBILITY_SIMULATION_TRIALS", "300")
	t.Setenv("FEASIBILITY_SENSITIVITY_SPIDERPOINTS", "3")

	report := runFixture(t, nil)
	if got := len(report.Simulation.Trials); got != 300 {
		t.Errorf("trials = %d, expected the environment override", got)
	}
	if got := len(report.Spider.Steps); got != 3 {
		t.Errorf("spider steps = %d, expected 3", got)
	}

	study := runFixture(t, func(c *config.Configuration) { c.Financials.Source = config.SourceStudy })
	if study.Filing != nil || study.Baseline.Flow.DPODays != 27 {
		t.Errorf("study flow = %+v", study.Baseline.Flow)
	}
}
