// Package simulate runs the seeded per-turn Monte Carlo state machine: roll
// the remaining dice, pick the best scoring selection under a risk policy,
// spend dice preferring the lowest-quality ones, and decide whether to keep
// rolling or bank.
package simulate

import (
	"math/rand"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/policy"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
)

// die is one physical die in a loadout: its face distribution, its quality
// tie-breaker, and its original insertion-order slot for stable tie-breaking.
type die struct {
	probs   [7]float64
	quality float64
	slot    int
}

// choiceMemo caches the index (into table.ScorePacked's result slice) of the
// best selection for a packed FaceCount key. Valid across turns of the same
// loadout+policy because the continuation value depends only on the roll's
// total dice count (encoded in the key) and the loadout's average
// distribution, never on which physical dice are still in play.
type choiceMemo map[uint32]int

// turnOutcome is the result of simulating a single turn.
type turnOutcome struct {
	points int
	tags   map[string]int
	groups int // number of scoring selections banked this turn (hot-dice turns can bank more than one)
}

// runTurn plays one turn to completion (bust or bank) and returns its points,
// the scoring-group tags it accumulated, and how many selections it banked.
func runTurn(rng *rand.Rand, loadout []die, avg [6]float64, table *scoring.Table, est *policy.Estimator, rp policy.RiskPolicy, target int, memo choiceMemo) turnOutcome {
	remaining := make([]die, len(loadout))
	copy(remaining, loadout)

	accumulated := 0
	tags := make(map[string]int)
	groups := 0

	for {
		fc, rolledFace := rollFaces(rng, remaining)
		key := fc.Pack()
		sels := table.ScorePacked(key)
		if len(sels) == 0 {
			return turnOutcome{points: 0, tags: map[string]int{}, groups: 0}
		}

		chosenIdx, ok := memo[key]
		if !ok {
			chosenIdx = chooseBest(sels, len(remaining), avg, est, rp)
			memo[key] = chosenIdx
		}
		chosen := sels[chosenIdx]

		remaining = spend(remaining, rolledFace, chosen.UsedCounts)
		accumulated += chosen.Points
		for _, tc := range chosen.Tags {
			tags[tc.Tag] += tc.Count
		}
		groups++

		if accumulated >= target {
			return turnOutcome{points: accumulated, tags: tags, groups: groups}
		}
		if len(remaining) == 0 {
			remaining = make([]die, len(loadout))
			copy(remaining, loadout)
			continue
		}
		if float64(accumulated) >= rp.BankThreshold {
			return turnOutcome{points: accumulated, tags: tags, groups: groups}
		}
		bust, _, err := est.EstimateBustAndEV(avg, len(remaining))
		if err != nil {
			return turnOutcome{points: accumulated, tags: tags, groups: groups}
		}
		if bust <= rp.BustLimit {
			continue
		}
		return turnOutcome{points: accumulated, tags: tags, groups: groups}
	}
}

// chooseBest picks the selection maximizing
// points + alpha*ev(continuationK) - beta*bust(continuationK)*500, where
// continuationK is the number of dice that will be rolled next (hot-dice
// refill to the full loadout size if the selection empties the remaining set).
func chooseBest(sels []scoring.Selection, remainingBefore int, avg [6]float64, est *policy.Estimator, rp policy.RiskPolicy) int {
	best := 0
	bestValue := selectionValue(sels[0], remainingBefore, avg, est, rp)
	for i := 1; i < len(sels); i++ {
		v := selectionValue(sels[i], remainingBefore, avg, est, rp)
		if v > bestValue {
			bestValue = v
			best = i
		}
	}
	return best
}

func selectionValue(sel scoring.Selection, remainingBefore int, avg [6]float64, est *policy.Estimator, rp policy.RiskPolicy) float64 {
	continuationK := remainingBefore - sel.UsedDice
	if continuationK == 0 {
		continuationK = len(avg) // hot dice: next roll uses the full loadout
	}
	bust, ev, err := est.EstimateBustAndEV(avg, continuationK)
	if err != nil {
		return float64(sel.Points)
	}
	return float64(sel.Points) + rp.Alpha*ev - rp.Beta*bust*500
}

// rollFaces samples one face for every die still in play, aggregating the
// result into a FaceCount and recording, per remaining-slice position, which
// face (0-based) that specific die rolled.
func rollFaces(rng *rand.Rand, remaining []die) (sim.FaceCount, []int) {
	var fc sim.FaceCount
	rolledFace := make([]int, len(remaining))
	for i, d := range remaining {
		f := sampleFace(rng, d.probs)
		fc[f]++
		rolledFace[i] = f
	}
	return fc, rolledFace
}

// sampleFace draws one face (0-based) from a die's CDF via a single uniform draw.
func sampleFace(rng *rand.Rand, probs [7]float64) int {
	u := rng.Float64()
	cum := 0.0
	for f := 1; f <= 6; f++ {
		cum += probs[f]
		if u < cum {
			return f - 1
		}
	}
	return 5 // floating-point rounding guard: land on face 6
}

// spend removes exactly used's dice from remaining, preferring the
// lowest-quality die for each rolled face, with ties broken by original
// insertion (slot) order. rolledFace[i] is the 0-based face remaining[i]
// rolled this turn.
func spend(remaining []die, rolledFace []int, used sim.FaceCount) []die {
	toRemove := make(map[int]bool, used.Total())

	for f := 0; f < 6; f++ {
		n := used[f]
		if n == 0 {
			continue
		}
		candidates := make([]int, 0, len(remaining))
		for i, rf := range rolledFace {
			if rf == f {
				candidates = append(candidates, i)
			}
		}
		sortByQualityThenSlot(candidates, remaining)
		for i := 0; i < n && i < len(candidates); i++ {
			toRemove[candidates[i]] = true
		}
	}

	kept := make([]die, 0, len(remaining)-len(toRemove))
	for i, d := range remaining {
		if !toRemove[i] {
			kept = append(kept, d)
		}
	}
	return kept
}

// sortByQualityThenSlot stable-sorts candidate indices (into remaining) by
// ascending die quality, breaking ties by ascending original slot.
func sortByQualityThenSlot(candidates []int, remaining []die) {
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0; j-- {
			a, b := remaining[candidates[j-1]], remaining[candidates[j]]
			if a.quality < b.quality || (a.quality == b.quality && a.slot <= b.slot) {
				break
			}
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
		}
	}
}
