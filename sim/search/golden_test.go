package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/internal/testutil"
)

// TestCountCombinations_GoldenDataset cross-checks CountCombinations against
// a fixture of independently hand-derived counts, so a regression in either
// the DP path or the unbounded stars-and-bars fast path shows up against a
// fixed external expectation rather than only against inline literals.
func TestCountCombinations_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	for _, c := range dataset.Cases {
		if c.Inventory == nil {
			continue
		}
		t.Run(c.Name, func(t *testing.T) {
			got := CountCombinations(c.Inventory, c.Total)
			assert.Equal(t, c.WantCount, got)
		})
	}
}

func TestQualityFromProbabilities_GoldenDataset(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	for _, c := range dataset.Cases {
		if c.Inventory != nil {
			continue
		}
		t.Run(c.Name, func(t *testing.T) {
			got := sim.QualityFromProbabilities(c.Probabilities)
			testutil.AssertFloat64Equal(t, c.Name, c.WantQuality, got, 1e-9)
		})
	}
}
