// Package optimization provides shared data structures for breakeven search results.
package optimization

// Summary captures the result of a single breakeven search.
type Summary struct {
	Scope           string   `json:"scope"`
	TargetName      string   `json:"targetName"`
	Field           string   `json:"field"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Target          float64  `json:"target"`   // annual savings the search must reach
	Achieved        float64  `json:"achieved"` // annual savings at Value
	Headroom        float64  `json:"headroom"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}

// Feasible reports whether the solved value reaches the target.
func (s Summary) Feasible() bool {
	return s.Achieved >= s.Target
}
