// Package scoring implements the scoring-group enumerator: given a roll's
// FaceCount, it returns every undominated way to bank some subset of the
// dice for points. It is implemented as a fully precomputed table indexed
// by the 18-bit packed FaceCount key so the simulator's hot path is a single
// array lookup.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/farkle-sim/farkle-sim/sim"
)

// Tag names for the primitive groups, following the "kind_<face>_<n>ok"
// convention used by the grouped-hand percentage breakdown.
const (
	TagSingle1    = "single_1"
	TagSingle5    = "single_5"
	TagStraight15 = "straight_1_5"
	TagStraight26 = "straight_2_6"
	TagStraight16 = "straight_1_6"
)

// TagKind returns the kind-group tag name for a face (1..6) and group size
// (3..6), e.g. TagKind(2, 4) == "kind_2_4ok".
func TagKind(face, n int) string {
	return fmt.Sprintf("kind_%d_%dok", face, n)
}

// TagCount is one (tag, multiplicity) pair within a Selection.
type TagCount struct {
	Tag   string
	Count int
}

// Selection is one undominated way to bank a subset of a roll's dice.
// UsedCounts[i] is the number of face-(i+1) dice the selection consumes;
// UsedDice is their sum; Points is the selection's score; Tags enumerates
// the primitive scoring groups that compose it, each with its multiplicity.
type Selection struct {
	UsedCounts sim.FaceCount
	UsedDice   int
	Points     int
	Tags       []TagCount
}

// fingerprint is the dedup key: (used_counts, points, sorted tags).
func (s Selection) fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v|%d|", s.UsedCounts, s.Points)
	sorted := make([]TagCount, len(s.Tags))
	copy(sorted, s.Tags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Tag != sorted[j].Tag {
			return sorted[i].Tag < sorted[j].Tag
		}
		return sorted[i].Count < sorted[j].Count
	})
	for _, t := range sorted {
		fmt.Fprintf(&b, "%s:%d,", t.Tag, t.Count)
	}
	return b.String()
}

// TagTotal returns the summed multiplicity of every tag on the selection
// whose name is in names (e.g. all three straight variants folded into one
// count).
func (s Selection) TagTotal(names ...string) int {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	total := 0
	for _, t := range s.Tags {
		if _, ok := want[t.Tag]; ok {
			total += t.Count
		}
	}
	return total
}
