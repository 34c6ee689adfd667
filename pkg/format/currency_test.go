package format

import (
	"math"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{amount: 0, expected: "$0.00"},
		{amount: 999.999, expected: "$1,000.00"},
		{amount: 557_979_452.05, expected: "$557,979,452.05"},
		{amount: -1234.5, expected: "-$1,234.50"},
	}
	for _, tt := range tests {
		if got := Currency(tt.amount); got != tt.expected {
			t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
		}
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{amount: 109_373_835.62, expected: "$109.4M"},
		{amount: 17_700_000_000, expected: "$17.7B"},
		{amount: -35_530_000, expected: "-$35.5M"},
		{amount: 950_000, expected: "$950K"},
		{amount: 12.5, expected: "$12.50"},
		{amount: math.Inf(1), expected: "+Inf"},
	}
	for _, tt := range tests {
		if got := Compact(tt.amount); got != tt.expected {
			t.Errorf("Compact(%v) = %q, expected %q", tt.amount, got, tt.expected)
		}
	}
}

func TestPercentAndYears(t *testing.T) {
	if got := Percent(0.3); got != "30.0%" {
		t.Errorf("Percent(0.3) = %q", got)
	}
	if got := Percent(-0.05); got != "-5.0%" {
		t.Errorf("Percent(-0.05) = %q", got)
	}
	if got := Years(0.5551); got != "0.56 yrs" {
		t.Errorf("Years(0.5551) = %q", got)
	}
	if got := Years(math.Inf(1)); got != "never" {
		t.Errorf("Years(+Inf) = %q", got)
	}
}
