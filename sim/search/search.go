// Package search counts and enumerates bounded multisets of an inventory
// that sum to a fixed total, and applies the catalog's special inventory
// rule for uniform dice.
package search

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/farkle-sim/farkle-sim/sim"
)

// NormalizeInventory applies the special inventory rule: a die whose faces
// 1..6 are all equal is treated as inventory 0 at search time, except the
// canonical "Ordinary die" which is forced to inventory 6.
func NormalizeInventory(catalog *sim.Catalog, inventory []int) ([]int, error) {
	if len(inventory) != catalog.Len() {
		return nil, fmt.Errorf("%w: inventory length %d does not match catalog size %d", sim.ErrInvalidInput, len(inventory), catalog.Len())
	}
	out := make([]int, len(inventory))
	copy(out, inventory)
	for i, d := range catalog.Dice {
		if !d.IsUniform() {
			continue
		}
		if d.Name == "Ordinary die" {
			out[i] = 6
		} else {
			out[i] = 0
		}
	}
	return out, nil
}

// CountCombinations returns the number of length-N non-negative integer
// vectors v with v[i] <= inventory[i] summing to exactly total, via 1-D DP
// over positions (bounded stars-and-bars).
func CountCombinations(inventory []int, total int) int64 {
	if total < 0 {
		return 0
	}
	if len(inventory) == 0 {
		if total == 0 {
			return 1
		}
		return 0
	}
	if unbounded(inventory, total) {
		// Nobody's cap binds: this is the plain stars-and-bars count of
		// weak compositions of total into len(inventory) parts.
		return int64(combin.Binomial(total+len(inventory)-1, len(inventory)-1))
	}
	// ways[s] = number of ways to reach partial sum s using the dice
	// inventory processed so far.
	ways := make([]int64, total+1)
	ways[0] = 1
	for _, cap := range inventory {
		next := make([]int64, total+1)
		for s := 0; s <= total; s++ {
			if ways[s] == 0 {
				continue
			}
			maxTake := cap
			if total-s < maxTake {
				maxTake = total - s
			}
			for take := 0; take <= maxTake; take++ {
				next[s+take] += ways[s]
			}
		}
		ways = next
	}
	return ways[total]
}

// unbounded reports whether every inventory cap is already >= total, so the
// cap constraints never actually exclude a composition.
func unbounded(inventory []int, total int) bool {
	for _, cap := range inventory {
		if cap < total {
			return false
		}
	}
	return true
}

// EnumerateLoadouts produces the lexicographic sequence of CountVectors of
// length len(inventory) summing to total, each component bounded by the
// matching inventory entry. An empty inventory (or one with total==0 dice
// available) yields zero results. If limit > 0, enumeration stops after
// limit results.
func EnumerateLoadouts(inventory []int, total int, limit int) []sim.CountVector {
	if len(inventory) == 0 || total < 0 {
		return nil
	}
	var out []sim.CountVector
	counts := make(sim.CountVector, len(inventory))

	var rec func(idx, remaining int) bool // returns false to stop (limit reached)
	rec = func(idx, remaining int) bool {
		if idx == len(inventory) {
			if remaining == 0 {
				out = append(out, counts.Clone())
				if limit > 0 && len(out) >= limit {
					return false
				}
			}
			return true
		}
		maxTake := inventory[idx]
		if remaining < maxTake {
			maxTake = remaining
		}
		for take := 0; take <= maxTake; take++ {
			counts[idx] = take
			if !rec(idx+1, remaining-take) {
				counts[idx] = 0
				return false
			}
		}
		counts[idx] = 0
		return true
	}
	rec(0, total)
	return out
}

// RandomLoadouts draws up to limit unique CountVectors summing to total by
// weighted sampling without replacement: each draw assigns dice one at a
// time, picking a die index with probability proportional to its quality
// among dice still under their inventory cap. Uniqueness is enforced by
// string fingerprint; the search is capped at max(limit*50, 1) attempts to
// bound the cost of collisions against a small, near-saturated search space.
func RandomLoadouts(inventory []int, qualities []float64, total, limit int, seed int64) ([]sim.CountVector, error) {
	if len(inventory) != len(qualities) {
		return nil, fmt.Errorf("%w: inventory and qualities length mismatch", sim.ErrInvalidInput)
	}
	if limit <= 0 {
		return nil, nil
	}
	rng := rand.New(rand.NewSource(seed))

	maxAttempts := limit * 50
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	seen := make(map[string]struct{}, limit)
	out := make([]sim.CountVector, 0, limit)

	for attempt := 0; attempt < maxAttempts && len(out) < limit; attempt++ {
		counts, ok := drawOne(rng, inventory, qualities, total)
		if !ok {
			continue
		}
		fp := counts.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, counts)
	}
	return out, nil
}

// drawOne assigns total dice one at a time, each time picking an eligible
// index (one still under its inventory cap) with probability proportional
// to its quality. Returns ok=false if no eligible index remains before total
// dice are assigned (can only happen if the inventory cannot supply total
// dice, a caller error).
func drawOne(rng *rand.Rand, inventory []int, qualities []float64, total int) (sim.CountVector, bool) {
	counts := make(sim.CountVector, len(inventory))
	for assigned := 0; assigned < total; assigned++ {
		weightSum := 0.0
		for i := range inventory {
			if counts[i] < inventory[i] {
				weightSum += weight(qualities[i])
			}
		}
		if weightSum <= 0 {
			return nil, false
		}
		target := rng.Float64() * weightSum
		cum := 0.0
		chosen := -1
		for i := range inventory {
			if counts[i] >= inventory[i] {
				continue
			}
			cum += weight(qualities[i])
			if target < cum {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			// Floating-point rounding guard: land on the last eligible index.
			for i := len(inventory) - 1; i >= 0; i-- {
				if counts[i] < inventory[i] {
					chosen = i
					break
				}
			}
		}
		counts[chosen]++
	}
	return counts, true
}

// weight maps a quality scalar to a strictly positive sampling weight so
// even a zero-quality die remains eligible.
func weight(quality float64) float64 {
	return quality + 1.0
}
