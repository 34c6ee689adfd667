// Package format renders report values for display.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Compact abbreviates large amounts: "$109.4M", "-$1.2B", "$950K".
// Amounts under a thousand fall back to Currency.
func Compact(amount float64) string {
	abs := math.Abs(amount)
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	switch {
	case math.IsInf(amount, 0) || math.IsNaN(amount):
		return fmt.Sprintf("%v", amount)
	case abs >= 1e9:
		return fmt.Sprintf("%s$%.1fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s$%.0fK", sign, abs/1e3)
	default:
		return Currency(amount)
	}
}

// Percent renders a fraction as a percentage with one decimal ("30.0%").
func Percent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// Years renders a duration in years, or "never" when infinite.
func Years(years float64) string {
	if math.IsInf(years, 1) || math.IsNaN(years) {
		return "never"
	}
	return fmt.Sprintf("%.2f yrs", years)
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
