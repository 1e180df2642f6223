package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/policy"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
	"github.com/farkle-sim/farkle-sim/sim/settings"
)

func ordinaryCatalog(t *testing.T) *sim.Catalog {
	t.Helper()
	cat, err := sim.NewCatalog([]sim.DieType{
		{Name: "Ordinary die", Probabilities: [7]float64{0, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6}},
	})
	require.NoError(t, err)
	return cat
}

func baseSettings() settings.OptimizationSettings {
	return settings.OptimizationSettings{
		Target:      3000,
		NumTurns:    100,
		RiskProfile: policy.Balanced,
		Objective:   sim.ObjectiveMaxScore,
	}
}

func TestEvaluateSingle(t *testing.T) {
	cat := ordinaryCatalog(t)
	table := scoring.Global()
	est := policy.NewEstimator(table)
	seed := int64(5)

	res, err := EvaluateSingle(table, est, cat, sim.CountVector{6}, baseSettings(), &seed)
	require.NoError(t, err)
	assert.Equal(t, sim.CountVector{6}, res.Counts)
}

func TestEvaluateBatch_PreCanceledReturnsImmediately(t *testing.T) {
	cat := ordinaryCatalog(t)
	table := scoring.Global()
	est := policy.NewEstimator(table)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list := []sim.CountVector{{6}, {6}}
	results, err := EvaluateBatch(ctx, table, est, cat, list, baseSettings(), nil)
	assert.ErrorIs(t, err, sim.ErrCanceled)
	assert.Empty(t, results)
}

func TestEvaluateBatch_RunsInOrder(t *testing.T) {
	cat := ordinaryCatalog(t)
	table := scoring.Global()
	est := policy.NewEstimator(table)

	list := []sim.CountVector{{6}, {6}, {6}}
	seed := int64(11)
	results, err := EvaluateBatch(context.Background(), table, est, cat, list, baseSettings(), &seed)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, sim.CountVector{6}, r.Counts)
	}
}
