package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
)

// bruteForce recomputes bust/EV independently (iterative index counting
// instead of recursion) to cross-check the exact estimator.
func bruteForce(t *testing.T, table *scoring.Table, avg [6]float64, k int) (bust, ev float64) {
	t.Helper()
	indices := make([]int, k)
	for {
		var fc sim.FaceCount
		prob := 1.0
		for _, idx := range indices {
			fc[idx]++
			prob *= avg[idx]
		}
		sels := table.ScorePacked(fc.Pack())
		if len(sels) == 0 {
			bust += prob
		} else {
			best := sels[0].Points
			for _, s := range sels[1:] {
				if s.Points > best {
					best = s.Points
				}
			}
			ev += prob * float64(best)
		}

		// odometer increment
		i := k - 1
		for i >= 0 {
			indices[i]++
			if indices[i] < 6 {
				break
			}
			indices[i] = 0
			i--
		}
		if i < 0 {
			break
		}
	}
	return bust, ev
}

func TestEstimateBustAndEV_MatchesBruteForce(t *testing.T) {
	table := scoring.Global()
	est := NewEstimator(table)

	avg := [6]float64{0.30, 0.15, 0.05, 0.10, 0.20, 0.20}
	for k := 1; k <= 4; k++ {
		bust, ev, err := est.EstimateBustAndEV(avg, k)
		require.NoError(t, err)
		wantBust, wantEV := bruteForce(t, table, avg, k)
		assert.InDelta(t, wantBust, bust, 1e-12)
		assert.InDelta(t, wantEV, ev, 1e-12)
	}
}

func TestEstimateBustAndEV_MemoizesResult(t *testing.T) {
	table := scoring.Global()
	est := NewEstimator(table)
	avg := [6]float64{1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6}

	b1, e1, err := est.EstimateBustAndEV(avg, 3)
	require.NoError(t, err)
	assert.Len(t, est.cache, 1)

	b2, e2, err := est.EstimateBustAndEV(avg, 3)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, e1, e2)
	assert.Len(t, est.cache, 1)
}

func TestEstimateBustAndEV_RejectsZeroSumDistribution(t *testing.T) {
	table := scoring.Global()
	est := NewEstimator(table)
	_, _, err := est.EstimateBustAndEV([6]float64{}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrInvalidLoadout))
}

func TestLookupProfile(t *testing.T) {
	rp, err := LookupProfile(Balanced)
	require.NoError(t, err)
	assert.Equal(t, 0.8, rp.Alpha)
	assert.Equal(t, 200.0, rp.BankThreshold)

	_, err = LookupProfile("nonexistent")
	require.Error(t, err)
}
