package financials

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFilings reads a filings dataset from path. The format follows the file
// extension: .json and .yaml/.yml hold a mapping of fiscal year to filing
// fields, .csv holds one filing per row under a header of field names.
func LoadFilings(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open filings %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeFilingsJSON(f)
	case ".yaml", ".yml":
		return decodeFilingsYAML(f)
	case ".csv":
		return decodeFilingsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported filings format %q", filepath.Ext(path))
	}
}

func decodeFilingsJSON(r io.Reader) (Dataset, error) {
	var raw map[string]Filing
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse filings JSON: %w", err)
	}
	return keyedDataset(raw)
}

func decodeFilingsYAML(r io.Reader) (Dataset, error) {
	var raw map[string]Filing
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse filings YAML: %w", err)
	}
	return keyedDataset(raw)
}

// keyedDataset applies the mapping key as the fiscal year when the filing
// body omits it.
func keyedDataset(raw map[string]Filing) (Dataset, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("filings file contains no entries")
	}
	ds := make(Dataset, len(raw))
	for key, filing := range raw {
		year, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("filing key %q is not a fiscal year: %w", key, err)
		}
		if filing.Year == 0 {
			filing.Year = year
		} else if filing.Year != year {
			return nil, fmt.Errorf("filing key %d disagrees with body year %d", year, filing.Year)
		}
		ds[year] = filing
	}
	return ds, nil
}

var filingColumns = map[string]func(*Filing, string) error{
	"year":                    intField(func(f *Filing) *int { return &f.Year }),
	"total_revenue":           floatField(func(f *Filing) *float64 { return &f.TotalRevenue }),
	"net_revenue":             floatField(func(f *Filing) *float64 { return &f.NetRevenue }),
	"operating_income":        floatField(func(f *Filing) *float64 { return &f.OperatingIncome }),
	"net_income":              floatField(func(f *Filing) *float64 { return &f.NetIncome }),
	"cost_of_goods_sold":      floatField(func(f *Filing) *float64 { return &f.CostOfGoodsSold }),
	"accounts_receivable":     floatField(func(f *Filing) *float64 { return &f.AccountsReceivable }),
	"accounts_payable":        floatField(func(f *Filing) *float64 { return &f.AccountsPayable }),
	"total_assets":            floatField(func(f *Filing) *float64 { return &f.TotalAssets }),
	"total_debt":              floatField(func(f *Filing) *float64 { return &f.TotalDebt }),
	"cash_and_equivalents":    floatField(func(f *Filing) *float64 { return &f.CashAndEquivalents }),
	"shipments_handled":       floatField(func(f *Filing) *float64 { return &f.ShipmentsHandled }),
	"employees":               intField(func(f *Filing) *int { return &f.Employees }),
	"effective_interest_rate": floatField(func(f *Filing) *float64 { return &f.EffectiveInterestRate }),
}

func floatField(target func(*Filing) *float64) func(*Filing, string) error {
	return func(f *Filing, raw string) error {
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64)
		if err != nil {
			return err
		}
		*target(f) = v
		return nil
	}
}

func intField(target func(*Filing) *int) func(*Filing, string) error {
	return func(f *Filing, raw string) error {
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(strings.ReplaceAll(raw, "_", ""))
		if err != nil {
			return err
		}
		*target(f) = v
		return nil
	}
}

func decodeFilingsCSV(r io.Reader) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse filings CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("filings CSV needs a header and at least one row")
	}

	header := records[0]
	hasYear := false
	for i, col := range header {
		header[i] = strings.ToLower(strings.TrimSpace(col))
		if _, ok := filingColumns[header[i]]; !ok {
			return nil, fmt.Errorf("unknown filings column %q", col)
		}
		if header[i] == "year" {
			hasYear = true
		}
	}
	if !hasYear {
		return nil, fmt.Errorf("filings CSV is missing the year column")
	}

	ds := make(Dataset, len(records)-1)
	for line, record := range records[1:] {
		var filing Filing
		for i, raw := range record {
			if err := filingColumns[header[i]](&filing, strings.TrimSpace(raw)); err != nil {
				return nil, fmt.Errorf("filings CSV line %d column %s: %w", line+2, header[i], err)
			}
		}
		if _, dup := ds[filing.Year]; dup {
			return nil, fmt.Errorf("filings CSV repeats year %d", filing.Year)
		}
		ds[filing.Year] = filing
	}
	return ds, nil
}
