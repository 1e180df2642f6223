package policy

import (
	"fmt"
	"sync"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
)

// Estimator computes the exact bust probability and expected single-decision
// points for k remaining dice given a loadout's arithmetic-mean face
// distribution, memoized per (avg, k) pair.
type Estimator struct {
	table *scoring.Table

	mu    sync.Mutex
	cache map[string]estimate
}

type estimate struct {
	bust float64
	ev   float64
}

// NewEstimator builds an Estimator backed by the given scoring table.
func NewEstimator(table *scoring.Table) *Estimator {
	return &Estimator{table: table, cache: make(map[string]estimate)}
}

// EstimateBustAndEV returns (bust probability, expected points) for rolling k
// dice (1..6) drawn i.i.d. from avg, the loadout's arithmetic-mean face
// distribution. Exact: sums over all 6^k face patterns.
func (e *Estimator) EstimateBustAndEV(avg [6]float64, k int) (bust, ev float64, err error) {
	sum := 0.0
	for _, p := range avg {
		sum += p
	}
	if sum <= 0 {
		return 0, 0, fmt.Errorf("%w: average face distribution sums to zero", sim.ErrInvalidLoadout)
	}
	if k < 1 || k > 6 {
		return 0, 0, fmt.Errorf("%w: k=%d out of range [1,6]", sim.ErrInvalidInput, k)
	}

	key := cacheKey(avg, k)
	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return cached.bust, cached.ev, nil
	}
	e.mu.Unlock()

	var bustMass, evMass float64
	enumeratePatterns(k, avg, func(fc sim.FaceCount, prob float64) {
		sels := e.table.ScorePacked(fc.Pack())
		if len(sels) == 0 {
			bustMass += prob
			return
		}
		best := sels[0].Points
		for _, s := range sels[1:] {
			if s.Points > best {
				best = s.Points
			}
		}
		evMass += prob * float64(best)
	})

	e.mu.Lock()
	e.cache[key] = estimate{bust: bustMass, ev: evMass}
	e.mu.Unlock()
	return bustMass, evMass, nil
}

// enumeratePatterns visits every one of the 6^k face patterns for k dice
// drawn i.i.d. from avg, calling visit with the resulting FaceCount and the
// pattern's probability mass. Faces with zero probability are skipped.
func enumeratePatterns(k int, avg [6]float64, visit func(fc sim.FaceCount, prob float64)) {
	var rec func(remaining int, fc sim.FaceCount, prob float64)
	rec = func(remaining int, fc sim.FaceCount, prob float64) {
		if remaining == 0 {
			visit(fc, prob)
			return
		}
		for face := 0; face < 6; face++ {
			p := avg[face]
			if p <= 0 {
				continue
			}
			next := fc
			next[face]++
			rec(remaining-1, next, prob*p)
		}
	}
	rec(k, sim.FaceCount{}, 1.0)
}

func cacheKey(avg [6]float64, k int) string {
	return fmt.Sprintf("%d|%.15g|%.15g|%.15g|%.15g|%.15g|%.15g", k, avg[0], avg[1], avg[2], avg[3], avg[4], avg[5])
}
