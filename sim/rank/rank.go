// Package rank scores and orders SimulationResults by an objective, and
// buckets scoring tags into the UI's grouped hand percentages.
package rank

import (
	"math"
	"strconv"
	"strings"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/scoring"
)

// RankKey is the comparable sort key; ascending order yields best first.
type RankKey struct {
	Primary   float64
	Secondary float64
}

// Less reports whether k sorts strictly before other (k is better).
func (k RankKey) Less(other RankKey) bool {
	if k.Primary != other.Primary {
		return k.Primary < other.Primary
	}
	return k.Secondary < other.Secondary
}

// ObjectiveScore computes the objective-specific rate used to rank non-MaxScore
// objectives: the relevant tag count(s) as a fraction of total scoring groups.
func ObjectiveScore(res *sim.SimulationResult, objective sim.Objective) float64 {
	if res.TotalGroups == 0 {
		return 0
	}
	total := float64(res.TotalGroups)

	switch objective {
	case sim.ObjectiveMaxScore:
		return 0
	case sim.ObjectiveSingleOne:
		return float64(res.TagCounts[scoring.TagSingle1]) / total
	case sim.ObjectiveSingleFive:
		return float64(res.TagCounts[scoring.TagSingle5]) / total
	case sim.ObjectiveStraight15:
		return float64(res.TagCounts[scoring.TagStraight15]) / total
	case sim.ObjectiveStraight26:
		return float64(res.TagCounts[scoring.TagStraight26]) / total
	case sim.ObjectiveStraight16:
		return float64(res.TagCounts[scoring.TagStraight16]) / total
	case sim.ObjectiveStraight:
		sum := res.TagCounts[scoring.TagStraight15] + res.TagCounts[scoring.TagStraight26] + res.TagCounts[scoring.TagStraight16]
		return float64(sum) / total
	}
	if face, ok := objective.KindFace(); ok {
		prefix := "kind_" + strconv.Itoa(face) + "_"
		sum := 0
		for tag, n := range res.TagCounts {
			if strings.HasPrefix(tag, prefix) {
				sum += n
			}
		}
		return float64(sum) / total
	}
	return 0
}

// Key returns the ascending sort key for res under objective: for MaxScore,
// (ev_turns, -ev_points); otherwise (-objective_score, ev_turns).
func Key(res *sim.SimulationResult, objective sim.Objective) RankKey {
	if objective == sim.ObjectiveMaxScore {
		return RankKey{Primary: res.Metrics.EVTurns, Secondary: -res.Metrics.EVPoints}
	}
	return RankKey{Primary: -ObjectiveScore(res, objective), Secondary: res.Metrics.EVTurns}
}

// Less reports whether a ranks strictly better than b under objective.
func Less(a, b *sim.SimulationResult, objective sim.Objective) bool {
	return Key(a, objective).Less(Key(b, objective))
}

// kindSuffixes maps each "N-of-a-kind" bucket to the tag suffix identifying it.
var kindSuffixes = map[string]string{
	"3_ok": "_3ok",
	"4_ok": "_4ok",
	"5_ok": "_5ok",
	"6_ok": "_6ok",
}

// GroupedHandPercentages buckets res's scoring tags into the UI's
// presentation groups (1_ok, 3_ok..6_ok, 5_s, 6_s), each expressed as an
// integer percentage of total_groups, rounded half-to-even.
func GroupedHandPercentages(res *sim.SimulationResult) map[string]int {
	out := map[string]int{"1_ok": 0, "3_ok": 0, "4_ok": 0, "5_ok": 0, "6_ok": 0, "5_s": 0, "6_s": 0}
	if res.TotalGroups == 0 {
		return out
	}
	total := float64(res.TotalGroups)

	counts := map[string]int{
		"1_ok": res.TagCounts[scoring.TagSingle1],
		"5_s":  res.TagCounts[scoring.TagStraight15] + res.TagCounts[scoring.TagStraight26],
		"6_s":  res.TagCounts[scoring.TagStraight16],
	}
	for bucket, suffix := range kindSuffixes {
		sum := 0
		for tag, n := range res.TagCounts {
			if strings.HasPrefix(tag, "kind_") && strings.HasSuffix(tag, suffix) {
				sum += n
			}
		}
		counts[bucket] = sum
	}

	for bucket, n := range counts {
		out[bucket] = int(math.RoundToEven(float64(n) * 100 / total))
	}
	return out
}
