package datetime

import (
	"math"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "ISO date", input: "2024-01-02", expected: "2024-01-02"},
		{name: "Surrounding space", input: "  2024-03-15 ", expected: "2024-03-15"},
		{name: "Timestamp", input: "2024-01-02 16:00:00", expected: "2024-01-02"},
		{name: "RFC3339", input: "2024-01-02T16:00:00Z", expected: "2024-01-02"},
		{name: "US date", input: "01/02/2024", expected: "2024-01-02"},
		{name: "US date without padding", input: "1/2/2024", expected: "2024-01-02"},
		{name: "Compact", input: "20240102", expected: "2024-01-02"},
		{name: "Empty", input: "", wantErr: true},
		{name: "Garbage", input: "yesterday", wantErr: true},
		{name: "Invalid day", input: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error, got %v", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.input, err)
			}
			if got := result.Format(DateLayout); got != tt.expected {
				t.Errorf("ParseDate(%q) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMustParseTime(t *testing.T) {
	result := MustParseTime(DateLayout, "2030-12-31")
	if result.Format(DateLayout) != "2030-12-31" {
		t.Errorf("MustParseTime() = %s", result.Format(DateLayout))
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateLayout, "invalid-date")
}

func TestYearsBetween(t *testing.T) {
	start := MustParseTime(DateLayout, "2020-01-01")
	tests := []struct {
		name     string
		end      string
		expected float64
	}{
		{name: "Same day", end: "2020-01-01", expected: 0},
		{name: "Leap year", end: "2021-01-01", expected: 366 / 365.2425},
		{name: "Four years", end: "2024-01-01", expected: 1461 / 365.2425},
		{name: "Backwards", end: "2019-01-01", expected: -365 / 365.2425},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearsBetween(start, MustParseTime(DateLayout, tt.end))
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("YearsBetween() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
