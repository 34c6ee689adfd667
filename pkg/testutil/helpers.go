// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/settlement-feasibility/pkg/optimization"
	"github.com/iwvelando/settlement-feasibility/pkg/scenarios"
)

// FindScenario finds a scenario result by key or, failing that, by display
// name. Returns nil when neither matches.
func FindScenario(results []scenarios.Result, name string) *scenarios.Result {
	for i := range results {
		if results[i].Scenario.Key == name {
			return &results[i]
		}
	}
	for i := range results {
		if results[i].Scenario.Name == name {
			return &results[i]
		}
	}
	return nil
}

// FindSummary finds the breakeven search for field within scope.
func FindSummary(summaries []optimization.Summary, field, scope string) *optimization.Summary {
	for i := range summaries {
		if summaries[i].Field == field && summaries[i].Scope == scope {
			return &summaries[i]
		}
	}
	return nil
}
