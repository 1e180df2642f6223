package sim

import (
	"strconv"
	"strings"

	"github.com/farkle-sim/farkle-sim/sim/metrics"
)

// CountVector is a length-N vector of non-negative integers summing to
// exactly 6; component i must not exceed the catalog's inventory[i].
type CountVector []int

// Sum returns the total dice the CountVector represents.
func (c CountVector) Sum() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Clone returns an independent copy of the CountVector.
func (c CountVector) Clone() CountVector {
	out := make(CountVector, len(c))
	copy(out, c)
	return out
}

// Fingerprint returns a stable string identity for the CountVector, used for
// set-membership tests when intersecting result sets by count-vector
// identity, and for uniqueness checks during weighted sampling.
func (c CountVector) Fingerprint() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// SimulationResult is the output of evaluating one loadout.
type SimulationResult struct {
	Counts       CountVector
	Metrics      metrics.TurnMetrics
	MeanPoints   float64
	Std          float64
	TagCounts    map[string]int
	TotalGroups  int
	ScoringTurns int
}
