package output

import (
	"fmt"
	"io"
	"math"

	"github.com/iwvelando/settlement-feasibility/internal/feasibility"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetScenarios   = "Scenarios"
	SheetTraditional = "Traditional"
	SheetSimulation  = "Simulation"
	SheetTornado     = "Tornado"
	SheetBreakeven   = "Breakeven"
)

type cellFormat int

const (
	formatText cellFormat = iota
	formatCurrency
	formatPercent
	formatNumber
)

const (
	currencyNumFmt = "$#,##0.00"
	percentNumFmt  = "0.0%"
	numberNumFmt   = "#,##0.00"
)

type column struct {
	title  string
	format cellFormat
	width  float64
}

// workbook wraps an excelize file with the report's shared styles.
type workbook struct {
	file   *excelize.File
	header int
	styles map[cellFormat]int
}

func newWorkbook() (*workbook, error) {
	wb := &workbook{file: excelize.NewFile(), styles: make(map[cellFormat]int)}
	var err error
	wb.header, err = wb.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	for f, layout := range map[cellFormat]string{
		formatCurrency: currencyNumFmt,
		formatPercent:  percentNumFmt,
		formatNumber:   numberNumFmt,
	} {
		custom := layout
		id, err := wb.file.NewStyle(&excelize.Style{CustomNumFmt: &custom})
		if err != nil {
			return nil, fmt.Errorf("failed to create cell style: %w", err)
		}
		wb.styles[f] = id
	}
	return wb, nil
}

// sheet writes a header row, frozen, followed by rows whose cells are styled
// by their column format.
func (wb *workbook) sheet(name string, columns []column, rows [][]interface{}) error {
	if name == SheetScenarios {
		if err := wb.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := wb.file.NewSheet(name); err != nil {
		return err
	}

	titles := make([]interface{}, len(columns))
	for i, c := range columns {
		titles[i] = c.title
	}
	if err := wb.file.SetSheetRow(name, "A1", &titles); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}
	if err := wb.file.SetCellStyle(name, "A1", last, wb.header); err != nil {
		return err
	}
	if err := wb.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for r, row := range rows {
		for c, value := range row {
			if c >= len(columns) {
				return fmt.Errorf("sheet %s row %d has %d cells for %d columns", name, r+1, len(row), len(columns))
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("sheet %s: %w", name, err)
			}
			if err := wb.file.SetCellValue(name, cell, cellValue(value, columns[c].format)); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if style, ok := wb.styles[columns[c].format]; ok {
				if err := wb.file.SetCellStyle(name, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}

	for i, c := range columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		width := c.width
		if width == 0 {
			width = math.Max(12, float64(len(c.title))+2)
		}
		if err := wb.file.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// cellValue rounds currency to cents and leaves non-finite values as text.
func cellValue(value interface{}, f cellFormat) interface{} {
	v, ok := value.(float64)
	if !ok {
		return value
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprintf("%v", v)
	}
	if f == formatCurrency {
		return decimal.NewFromFloat(v).Round(2).InexactFloat64()
	}
	return v
}

// BuildWorkbook renders the report into an XLSX workbook. The caller owns
// the returned file and must Close it.
func BuildWorkbook(report *feasibility.Report) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report cannot be nil")
	}
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	if err := wb.fill(report); err != nil {
		_ = wb.file.Close()
		return nil, err
	}
	return wb.file, nil
}

func (wb *workbook) fill(report *feasibility.Report) error {
	scenarioRows := make([][]interface{}, 0, len(report.Scenarios))
	for _, r := range report.Scenarios {
		scenarioRows = append(scenarioRows, []interface{}{
			r.Scenario.Name, r.EffectiveAdoption, r.GrossSavings, r.TransactionCosts, r.NetAnnualSavings,
			r.NPV, r.ROI, r.SimplePayback, r.PaybackLabel(),
		})
	}
	if err := wb.sheet(SheetScenarios, []column{
		{title: "Scenario", width: 18},
		{title: "Effective adoption", format: formatPercent},
		{title: "Gross savings", format: formatCurrency, width: 18},
		{title: "Transaction costs", format: formatCurrency, width: 18},
		{title: "Net annual savings", format: formatCurrency, width: 20},
		{title: "NPV", format: formatCurrency, width: 18},
		{title: "ROI", format: formatNumber},
		{title: "Simple payback (yrs)", format: formatNumber},
		{title: "Payback", width: 28},
	}, scenarioRows); err != nil {
		return err
	}

	t := report.Traditional
	if err := wb.sheet(SheetTraditional, []column{
		{title: "Component", width: 26},
		{title: "Annual cost", format: formatCurrency, width: 20},
	}, [][]interface{}{
		{"Working capital tied up", t.WorkingCapitalTiedUp},
		{"Financing", t.FinancingCost},
		{"Factoring", t.FactoringCost},
		{"Fraud losses", t.FraudLosses},
		{"Administration", t.AdminCosts},
		{"Total", t.TotalCost},
	}); err != nil {
		return err
	}

	if sim := report.Simulation; sim != nil {
		rows := make([][]interface{}, 0, len(report.Comparative)+1)
		rows = append(rows, []interface{}{
			report.SimulatedScenario.Name, sim.NetSavings.Mean, sim.NetSavings.P5, sim.NetSavings.P95,
			sim.Traditional.Summary.VaR, sim.Blockchain.Summary.VaR, sim.RiskReduction.VaRPct / 100, sim.NetSavings.FractionPositive,
		})
		for _, row := range report.Comparative {
			res := row.Result
			rows = append(rows, []interface{}{
				fmt.Sprintf("Forced %.0f%%", row.AdoptionRate*100), res.NetSavings.Mean, res.NetSavings.P5, res.NetSavings.P95,
				res.Traditional.Summary.VaR, res.Blockchain.Summary.VaR, res.RiskReduction.VaRPct / 100, res.NetSavings.FractionPositive,
			})
		}
		if err := wb.sheet(SheetSimulation, []column{
			{title: "Run", width: 18},
			{title: "Mean net savings", format: formatCurrency, width: 18},
			{title: "P5", format: formatCurrency, width: 18},
			{title: "P95", format: formatCurrency, width: 18},
			{title: "Traditional VaR", format: formatCurrency, width: 18},
			{title: "Blockchain VaR", format: formatCurrency, width: 18},
			{title: "VaR reduction", format: formatPercent},
			{title: "P(positive)", format: formatPercent},
		}, rows); err != nil {
			return err
		}
	}

	tornado := make([][]interface{}, 0, len(report.Tornado))
	for _, bar := range report.Tornado {
		tornado = append(tornado, []interface{}{
			string(bar.Parameter), bar.BaseValue, bar.LowOutput, bar.HighOutput, bar.Swing, bar.Elasticity,
		})
	}
	if err := wb.sheet(SheetTornado, []column{
		{title: "Parameter", width: 18},
		{title: "Base value", format: formatNumber, width: 18},
		{title: "Low output", format: formatCurrency, width: 18},
		{title: "High output", format: formatCurrency, width: 18},
		{title: "Swing", format: formatCurrency, width: 18},
		{title: "Elasticity", format: formatNumber},
	}, tornado); err != nil {
		return err
	}

	var searches [][]interface{}
	if report.Optimizer != nil {
		for _, key := range report.Optimizer.Order {
			for _, s := range report.Optimizer.Summaries[key] {
				searches = append(searches, []interface{}{s.TargetName, s.Field, s.Scope, s.OriginalDisplay, s.ValueDisplay, s.Converged})
			}
		}
	}
	return wb.sheet(SheetBreakeven, []column{
		{title: "Scenario", width: 18},
		{title: "Field"},
		{title: "Scope", width: 18},
		{title: "Original"},
		{title: "Solved"},
		{title: "Converged"},
	}, searches)
}

// WriteWorkbook saves the report as an XLSX workbook at path.
func WriteWorkbook(path string, report *feasibility.Report) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.SaveAs(path)
}

// WriteWorkbookTo streams the XLSX workbook to w.
func WriteWorkbookTo(w io.Writer, report *feasibility.Report) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}
