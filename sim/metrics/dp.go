// Package metrics folds a single turn's score distribution into
// turn-level game metrics via dynamic programming over repeated independent
// draws.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxTurns bounds the DP iteration when the caller does not override it.
const DefaultMaxTurns = 60

// reachedByTolerance is the early-stop threshold: once reached_by[t] crosses
// it we treat the tail as converged.
const reachedByTolerance = 0.995

// Distribution is a discrete per-turn score distribution: Scores[i] occurs
// with probability Probs[i]. Entries need not be sorted; Scores must be
// unique. Probabilities should sum to ~1.
type Distribution struct {
	Scores []int
	Probs  []float64
}

// TurnMetrics is the DP fold's output.
type TurnMetrics struct {
	EVTurns     float64
	PWithin     map[int]float64
	EVPoints    float64
	P50Turns    float64 // +Inf if never reached
	P90Turns    float64 // +Inf if never reached
	EVPointsSE  float64
}

// Compute folds dist into TurnMetrics for the given banking target,
// iterating at most maxTurns rounds (DefaultMaxTurns if <= 0) and reporting
// p_within at each requested checkpoint in probTurns.
func Compute(dist Distribution, target int, maxTurns int, probTurns []int) TurnMetrics {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	scoresF := make([]float64, len(dist.Scores))
	for i, s := range dist.Scores {
		scoresF[i] = float64(s)
	}
	evPoints := floats.Dot(scoresF, dist.Probs)

	if target <= 0 {
		pw := make(map[int]float64, len(probTurns))
		for _, t := range probTurns {
			pw[t] = 1
		}
		return TurnMetrics{EVTurns: 0, PWithin: pw, EVPoints: evPoints, P50Turns: 1, P90Turns: 1}
	}

	// Degenerate distribution (support <= 1): metrics are infinite.
	if len(dist.Scores) <= 1 {
		pw := make(map[int]float64, len(probTurns))
		for _, t := range probTurns {
			pw[t] = 0
		}
		return TurnMetrics{
			EVTurns: math.Inf(1), PWithin: pw, EVPoints: evPoints,
			P50Turns: math.Inf(1), P90Turns: math.Inf(1),
		}
	}

	// below[x] = probability mass of "total accumulated points so far == x",
	// restricted to x < target (the "still playing" state space).
	below := make(map[int]float64, target)
	below[0] = 1.0

	reachedByTurn := make([]float64, 0, maxTurns+1)
	reachedByTurn = append(reachedByTurn, 0) // turn 0: nobody has reached yet

	for t := 1; t <= maxTurns; t++ {
		next := make(map[int]float64, len(below))
		for x, massX := range below {
			if massX == 0 {
				continue
			}
			for i, s := range dist.Scores {
				p := dist.Probs[i]
				if p == 0 {
					continue
				}
				if x+s < target {
					next[x+s] += massX * p
				}
				// s >= target - x: this draw banks the turn; mass leaves
				// the "below" state permanently (reached).
			}
		}
		below = next

		mass := make([]float64, 0, len(below))
		for _, v := range below {
			mass = append(mass, v)
		}
		reached := 1 - floats.Sum(mass)
		reachedByTurn = append(reachedByTurn, reached)

		if reached >= reachedByTolerance {
			// Fill remaining checkpoints with the converged value so
			// lookups beyond this point clamp correctly.
			for len(reachedByTurn) <= maxTurns {
				reachedByTurn = append(reachedByTurn, reached)
			}
			break
		}
	}

	evTurns := 0.0
	for t := 1; t < len(reachedByTurn); t++ {
		evTurns += 1 - reachedByTurn[t]
	}

	pWithin := make(map[int]float64, len(probTurns))
	for _, t := range probTurns {
		pWithin[t] = lookupReached(reachedByTurn, t)
	}

	p50 := percentileTurn(reachedByTurn, 0.5)
	p90 := percentileTurn(reachedByTurn, 0.9)

	return TurnMetrics{
		EVTurns:  evTurns,
		PWithin:  pWithin,
		EVPoints: evPoints,
		P50Turns: p50,
		P90Turns: p90,
	}
}

// lookupReached returns reached_by[t], clamping to the last computed value if
// t runs past the iterated range.
func lookupReached(reachedByTurn []float64, t int) float64 {
	if t < 0 {
		return 0
	}
	if t >= len(reachedByTurn) {
		return reachedByTurn[len(reachedByTurn)-1]
	}
	return reachedByTurn[t]
}

// percentileTurn returns the smallest t with reached_by[t] >= q, or +Inf if
// no iterated turn reaches it.
func percentileTurn(reachedByTurn []float64, q float64) float64 {
	for t, r := range reachedByTurn {
		if r >= q {
			return float64(t)
		}
	}
	return math.Inf(1)
}
