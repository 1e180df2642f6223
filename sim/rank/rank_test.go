package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/metrics"
)

func TestGroupedHandPercentages_KnownDistribution(t *testing.T) {
	res := &sim.SimulationResult{
		TotalGroups: 27,
		TagCounts: map[string]int{
			"single_1":     10,
			"kind_1_3ok":   5,
			"kind_2_4ok":   3,
			"kind_3_5ok":   2,
			"kind_4_6ok":   1,
			"straight_1_5": 4,
			"straight_1_6": 2,
		},
	}
	got := GroupedHandPercentages(res)
	assert.Equal(t, map[string]int{
		"1_ok": 37,
		"3_ok": 19,
		"4_ok": 11,
		"5_ok": 7,
		"6_ok": 4,
		"5_s":  15,
		"6_s":  7,
	}, got)
}

func TestGroupedHandPercentages_ZeroGroups(t *testing.T) {
	res := &sim.SimulationResult{TotalGroups: 0, TagCounts: map[string]int{}}
	got := GroupedHandPercentages(res)
	for _, v := range got {
		assert.Equal(t, 0, v)
	}
}

func TestRank_MaxScoreLowerEVTurnsWins(t *testing.T) {
	better := &sim.SimulationResult{Metrics: metrics.TurnMetrics{EVTurns: 5, EVPoints: 1000}}
	worse := &sim.SimulationResult{Metrics: metrics.TurnMetrics{EVTurns: 7, EVPoints: 2000}}
	assert.True(t, Less(better, worse, sim.ObjectiveMaxScore))
	assert.False(t, Less(worse, better, sim.ObjectiveMaxScore))
}

func TestRank_MaxScoreTieBrokenByHigherEVPoints(t *testing.T) {
	a := &sim.SimulationResult{Metrics: metrics.TurnMetrics{EVTurns: 5, EVPoints: 2000}}
	b := &sim.SimulationResult{Metrics: metrics.TurnMetrics{EVTurns: 5, EVPoints: 1000}}
	assert.True(t, Less(a, b, sim.ObjectiveMaxScore))
}

func TestRank_NonMaxScoreHigherObjectiveWins(t *testing.T) {
	better := &sim.SimulationResult{
		TotalGroups: 10,
		TagCounts:   map[string]int{"single_1": 8},
		Metrics:     metrics.TurnMetrics{EVTurns: 10},
	}
	worse := &sim.SimulationResult{
		TotalGroups: 10,
		TagCounts:   map[string]int{"single_1": 2},
		Metrics:     metrics.TurnMetrics{EVTurns: 3},
	}
	assert.True(t, Less(better, worse, sim.ObjectiveSingleOne))
}

func TestRank_NonMaxScoreTieBrokenByLowerEVTurns(t *testing.T) {
	a := &sim.SimulationResult{
		TotalGroups: 10,
		TagCounts:   map[string]int{"single_1": 5},
		Metrics:     metrics.TurnMetrics{EVTurns: 4},
	}
	b := &sim.SimulationResult{
		TotalGroups: 10,
		TagCounts:   map[string]int{"single_1": 5},
		Metrics:     metrics.TurnMetrics{EVTurns: 9},
	}
	assert.True(t, Less(a, b, sim.ObjectiveSingleOne))
}

func TestObjectiveScore_Kind3Plus(t *testing.T) {
	res := &sim.SimulationResult{
		TotalGroups: 20,
		TagCounts:   map[string]int{"kind_2_3ok": 3, "kind_2_4ok": 1, "kind_3_3ok": 5},
	}
	got := ObjectiveScore(res, sim.ObjectiveKind3Plus(2))
	assert.InDelta(t, 4.0/20.0, got, 1e-12)
}

func TestObjectiveScore_Straight(t *testing.T) {
	res := &sim.SimulationResult{
		TotalGroups: 10,
		TagCounts:   map[string]int{"straight_1_5": 2, "straight_2_6": 1, "straight_1_6": 3},
	}
	got := ObjectiveScore(res, sim.ObjectiveStraight)
	assert.InDelta(t, 6.0/10.0, got, 1e-12)
}
