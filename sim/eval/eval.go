// Package eval evaluates one or many loadouts by delegating to the turn
// simulator, with cooperative cancellation over batches.
package eval

import (
	"context"
	"fmt"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/metrics"
	"github.com/farkle-sim/farkle-sim/sim/policy"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
	"github.com/farkle-sim/farkle-sim/sim/settings"
	"github.com/farkle-sim/farkle-sim/sim/simulate"
)

// EvaluateSingle runs one loadout to a SimulationResult under the given
// settings, optionally seeded deterministically from seedBase.
func EvaluateSingle(
	table *scoring.Table,
	est *policy.Estimator,
	catalog *sim.Catalog,
	counts sim.CountVector,
	s settings.OptimizationSettings,
	seedBase *int64,
) (*sim.SimulationResult, error) {
	rp, err := policy.LookupProfile(s.RiskProfile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sim.ErrInvalidInput, err)
	}
	probTurns := s.ProbTurns
	if probTurns == nil {
		probTurns = settings.DefaultProbTurns()
	}
	dpMaxTurns := s.TurnCap
	if dpMaxTurns <= 0 {
		dpMaxTurns = metrics.DefaultMaxTurns
	}
	return simulate.SimulateLoadout(table, est, catalog, counts, rp, s.Target, s.NumTurns, dpMaxTurns, probTurns, seedBase)
}

// EvaluateBatch evaluates each loadout in list, in order, checking ctx for
// cancellation before each element. On cancellation it returns the results
// gathered so far (if any) and sim.ErrCanceled; a pre-canceled context causes
// an immediate return of ErrCanceled with no evaluations performed.
func EvaluateBatch(
	ctx context.Context,
	table *scoring.Table,
	est *policy.Estimator,
	catalog *sim.Catalog,
	list []sim.CountVector,
	s settings.OptimizationSettings,
	seedBase *int64,
) ([]*sim.SimulationResult, error) {
	results := make([]*sim.SimulationResult, 0, len(list))
	for _, counts := range list {
		select {
		case <-ctx.Done():
			return results, sim.ErrCanceled
		default:
		}
		res, err := EvaluateSingle(table, est, catalog, counts, s, seedBase)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
