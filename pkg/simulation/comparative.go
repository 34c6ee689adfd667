package simulation

import (
	"context"
	"fmt"

	"github.com/iwvelando/settlement-feasibility/pkg/sampling"
	"github.com/iwvelando/settlement-feasibility/pkg/validation"
	"go.uber.org/zap"
)

// DefaultComparativeRates are the fixed adoption levels of the comparative run.
func DefaultComparativeRates() []float64 {
	return []float64{0, 0.10, 0.30, 0.50, 0.75, 1.0}
}

// ComparativeRow is the run at one forced adoption level.
type ComparativeRow struct {
	AdoptionRate float64
	Result       *Result
}

// Comparative reruns the simulator with adoption fixed at each rate and
// gating lifted, so the effective adoption equals the rate. Every level
// reuses the same seed and hence the same revenue paths.
func (s *Simulator) Comparative(ctx context.Context, rates []float64) ([]ComparativeRow, error) {
	if len(rates) == 0 {
		rates = DefaultComparativeRates()
	}
	cfg := s.cfg
	if cfg.Seed == nil {
		cfg = cfg.WithSeed(sampling.EntropySeed())
	}

	rows := make([]ComparativeRow, 0, len(rates))
	for _, rate := range rates {
		if err := validation.Fraction(validation.ErrInvalidParameter, "comparativeRate", rate); err != nil {
			return nil, err
		}
		dists := s.dists
		dists.AdoptionRate = sampling.NewConstant(rate)
		gate := s.scenario
		gate.ShipperEscrowRate = 1
		gate.CarrierReadiness = 1

		level := &Simulator{
			cfg:      cfg,
			dists:    dists,
			base:     s.base,
			scenario: gate,
			factory:  s.factory,
			logger:   s.logger.With(zap.Float64("forcedAdoption", rate)),
		}
		result, err := level.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("comparative run at adoption %v: %w", rate, err)
		}
		rows = append(rows, ComparativeRow{AdoptionRate: rate, Result: result})
	}
	return rows, nil
}
