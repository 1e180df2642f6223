package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/metrics"
	"github.com/farkle-sim/farkle-sim/sim/policy"
	"github.com/farkle-sim/farkle-sim/sim/rngfab"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
)

// ScoreCap bounds the per-turn score histogram so a single unbounded
// "hot dice forever" run can't blow up memory.
const ScoreCap = 1000000

// buildLoadout turns a catalog + count vector into the dice the turn state
// machine rolls, and the loadout's arithmetic-mean face distribution used by
// the bust/EV estimator.
func buildLoadout(catalog *sim.Catalog, counts sim.CountVector) ([]die, [6]float64, error) {
	if len(counts) != catalog.Len() {
		return nil, [6]float64{}, sim.ErrInvalidLoadout
	}
	total := counts.Sum()
	if total != 6 {
		return nil, [6]float64{}, sim.ErrInvalidLoadout
	}

	dice := make([]die, 0, total)
	var avg [6]float64
	for i, n := range counts {
		if n < 0 {
			return nil, [6]float64{}, sim.ErrInvalidLoadout
		}
		dt := catalog.Dice[i]
		q := dt.Quality()
		for j := 0; j < n; j++ {
			dice = append(dice, die{probs: dt.Probabilities, quality: q, slot: len(dice)})
			for f := 0; f < 6; f++ {
				avg[f] += dt.Probabilities[f+1]
			}
		}
	}
	for f := 0; f < 6; f++ {
		avg[f] /= float64(total)
	}
	return dice, avg, nil
}

// SimulateLoadout runs numTurns independent turns of the given loadout under
// a risk policy and folds the resulting per-turn score distribution into
// turn-level metrics.
//
// dpMaxTurns bounds the DP fold's iteration horizon (metrics.DefaultMaxTurns
// if <= 0); it is unrelated to numTurns, the Monte Carlo sample size.
//
// seedBase, when non-nil, derives a deterministic RNG seed from (*seedBase,
// counts) via rngfab.Seed so identical inputs reproduce identical results;
// when nil, the RNG is seeded from the process clock.
func SimulateLoadout(
	table *scoring.Table,
	est *policy.Estimator,
	catalog *sim.Catalog,
	counts sim.CountVector,
	rp policy.RiskPolicy,
	target, numTurns, dpMaxTurns int,
	probTurns []int,
	seedBase *int64,
) (*sim.SimulationResult, error) {
	if numTurns <= 0 {
		return nil, sim.ErrInvalidInput
	}
	if target <= 0 {
		return nil, sim.ErrInvalidInput
	}
	loadout, avg, err := buildLoadout(catalog, counts)
	if err != nil {
		return nil, err
	}

	var seed int64
	if seedBase != nil {
		seed = rngfab.Seed(*seedBase, counts)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	memo := make(choiceMemo)
	histogram := make(map[int]int)
	tagCounts := make(map[string]int)
	totalGroups := 0
	scoringTurns := 0

	sum := 0.0
	sumSq := 0.0
	for t := 0; t < numTurns; t++ {
		outcome := runTurn(rng, loadout, avg, table, est, rp, target, memo)

		clamped := outcome.points
		if clamped > ScoreCap {
			clamped = ScoreCap
		}
		if clamped < 0 {
			clamped = 0
		}
		histogram[clamped]++

		sum += float64(outcome.points)
		sumSq += float64(outcome.points) * float64(outcome.points)

		if outcome.groups > 0 {
			scoringTurns++
			totalGroups += outcome.groups
			for tag, n := range outcome.tags {
				tagCounts[tag] += n
			}
		}
	}

	n := float64(numTurns)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	std := math.Sqrt(variance)

	dist := metrics.Distribution{
		Scores: make([]int, 0, len(histogram)),
		Probs:  make([]float64, 0, len(histogram)),
	}
	for score, count := range histogram {
		dist.Scores = append(dist.Scores, score)
		dist.Probs = append(dist.Probs, float64(count)/n)
	}

	tm := metrics.Compute(dist, target, dpMaxTurns, probTurns)
	tm.EVPointsSE = std / math.Sqrt(n)

	return &sim.SimulationResult{
		Counts:       counts.Clone(),
		Metrics:      tm,
		MeanPoints:   mean,
		Std:          std,
		TagCounts:    tagCounts,
		TotalGroups:  totalGroups,
		ScoringTurns: scoringTurns,
	}, nil
}
