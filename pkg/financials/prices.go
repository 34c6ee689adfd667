package financials

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/settlement-feasibility/pkg/datetime"
)

const tradingDaysPerYear = 252

var requiredPriceColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// PriceBar is one trading day of the historical share price. The series is
// informational only; no cost or simulation figure depends on it.
type PriceBar struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// PriceSummary condenses a price series for reporting.
type PriceSummary struct {
	Start                time.Time
	End                  time.Time
	Days                 int
	FirstClose           float64
	LastClose            float64
	TotalReturn          float64
	AnnualizedReturn     float64 // zero when the series spans less than a day
	AnnualizedVolatility float64
	MaxDrawdown          float64
}

// LoadPriceSeries reads a Date/Open/High/Low/Close/[Adj Close]/Volume CSV
// and returns the bars sorted by date. Dates may use any datetime.Layouts.
func LoadPriceSeries(path string) ([]PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stock data file not found: %w", err)
	}
	defer f.Close()
	return ParsePriceSeries(f)
}

// ParsePriceSeries decodes a price CSV from r. Unparseable numeric cells are
// recorded as NaN rather than failing the load.
func ParsePriceSeries(r io.Reader) ([]PriceBar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse price CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("price CSV is empty")
	}

	index := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		index[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range requiredPriceColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %v", missing)
	}

	number := func(record []string, col string) float64 {
		i, ok := index[col]
		if !ok {
			return math.NaN()
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return math.NaN()
		}
		return v
	}

	bars := make([]PriceBar, 0, len(records)-1)
	for line, record := range records[1:] {
		date, err := datetime.ParseDate(record[index["Date"]])
		if err != nil {
			return nil, fmt.Errorf("price CSV line %d: %w", line+2, err)
		}
		bars = append(bars, PriceBar{
			Date:     date,
			Open:     number(record, "Open"),
			High:     number(record, "High"),
			Low:      number(record, "Low"),
			Close:    number(record, "Close"),
			AdjClose: number(record, "Adj Close"),
			Volume:   number(record, "Volume"),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// SummarizePrices computes return, volatility and drawdown over the closes,
// skipping NaN closes.
func SummarizePrices(bars []PriceBar) (PriceSummary, error) {
	closes := make([]float64, 0, len(bars))
	var first, last time.Time
	for _, bar := range bars {
		if math.IsNaN(bar.Close) || bar.Close <= 0 {
			continue
		}
		if len(closes) == 0 {
			first = bar.Date
		}
		last = bar.Date
		closes = append(closes, bar.Close)
	}
	if len(closes) == 0 {
		return PriceSummary{}, fmt.Errorf("price series has no valid closes")
	}

	summary := PriceSummary{
		Start:      first,
		End:        last,
		Days:       len(closes),
		FirstClose: closes[0],
		LastClose:  closes[len(closes)-1],
	}
	summary.TotalReturn = summary.LastClose/summary.FirstClose - 1
	if years := datetime.YearsBetween(first, last); years > 0 {
		summary.AnnualizedReturn = math.Pow(1+summary.TotalReturn, 1/years) - 1
	}

	if len(closes) > 1 {
		returns := make([]float64, len(closes)-1)
		mean := 0.0
		for i := 1; i < len(closes); i++ {
			returns[i-1] = math.Log(closes[i] / closes[i-1])
			mean += returns[i-1]
		}
		mean /= float64(len(returns))
		variance := 0.0
		for _, r := range returns {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(returns))
		summary.AnnualizedVolatility = math.Sqrt(variance * tradingDaysPerYear)
	}

	peak := closes[0]
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if dd := (peak - c) / peak; dd > summary.MaxDrawdown {
			summary.MaxDrawdown = dd
		}
	}
	return summary, nil
}
