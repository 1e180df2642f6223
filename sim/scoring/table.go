package scoring

import (
	"sync"

	"github.com/farkle-sim/farkle-sim/sim"
)

// straightSpec describes one of the three straights: the tag, its score, and
// the zero-based face indices (face-1) it consumes one die from each.
type straightSpec struct {
	tag    string
	points int
	faces  []int
}

var straightSpecs = []straightSpec{
	{tag: TagStraight15, points: 500, faces: []int{0, 1, 2, 3, 4}},
	{tag: TagStraight26, points: 750, faces: []int{1, 2, 3, 4, 5}},
	{tag: TagStraight16, points: 1500, faces: []int{0, 1, 2, 3, 4, 5}},
}

func (s straightSpec) affordable(fc sim.FaceCount) bool {
	for _, f := range s.faces {
		if fc[f] < 1 {
			return false
		}
	}
	return true
}

func (s straightSpec) leftover(fc sim.FaceCount) sim.FaceCount {
	out := fc
	for _, f := range s.faces {
		out[f]--
	}
	return out
}

// Table is the precomputed scoring lattice: an array indexed by packed
// FaceCount key, built once and shared read-only across workers.
type Table struct {
	entries [][]Selection
}

var (
	globalTable     *Table
	globalTableOnce sync.Once
)

// Global returns the process-wide precomputed scoring table, building it on
// first use.
func Global() *Table {
	globalTableOnce.Do(func() {
		globalTable = buildTable()
	})
	return globalTable
}

func buildTable() *Table {
	t := &Table{entries: make([][]Selection, sim.PackedKeyCount)}
	for key := uint32(0); key < sim.PackedKeyCount; key++ {
		fc := sim.UnpackFaceCount(key)
		if fc.Validate() != nil {
			continue
		}
		t.entries[key] = computeSelections(fc)
	}
	return t
}

// Score returns every undominated ScoreSelection for a FaceCount. The
// returned slice is empty iff the roll busts. Callers must not mutate the
// returned slice or its elements; it is shared across all lookups.
func (t *Table) Score(fc sim.FaceCount) ([]Selection, error) {
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return t.entries[fc.Pack()], nil
}

// ScorePacked is the hot-path entry point: it skips FaceCount re-validation
// and indexes the table directly. Passing a key outside the valid range
// (sum > 6) returns an empty slice, same as a bust.
func (t *Table) ScorePacked(key uint32) []Selection {
	if key >= sim.PackedKeyCount {
		return nil
	}
	return t.entries[key]
}

// computeSelections builds every undominated selection for one FaceCount by
// trying each possible straight choice (including none), combining the
// chosen straight's contribution with an independent per-face partition of
// the leftover dice, and deduplicating by fingerprint.
func computeSelections(fc sim.FaceCount) []Selection {
	seen := make(map[string]bool)
	var out []Selection

	tryOption := func(straight *straightSpec) {
		leftover := fc
		basePoints := 0
		var baseTags map[string]int
		baseUsed := sim.FaceCount{}
		if straight != nil {
			leftover = straight.leftover(fc)
			basePoints = straight.points
			baseTags = map[string]int{straight.tag: 1}
			for _, f := range straight.faces {
				baseUsed[f] = 1
			}
		} else {
			baseTags = map[string]int{}
		}

		perFace := make([][]facePartition, 6)
		for f := 0; f < 6; f++ {
			perFace[f] = facePartitions(f+1, leftover[f])
		}

		combineFaces(0, sim.FaceCount{}, 0, map[string]int{}, perFace, func(used sim.FaceCount, points int, tags map[string]int) {
			totalUsed := sim.FaceCount{}
			for i := 0; i < 6; i++ {
				totalUsed[i] = baseUsed[i] + used[i]
			}
			totalPoints := basePoints + points
			totalTags := mergeTagMaps(baseTags, tags)
			if totalPoints == 0 {
				return
			}
			sel := Selection{UsedCounts: totalUsed, UsedDice: totalUsed.Total(), Points: totalPoints, Tags: toTagCounts(totalTags)}
			fp := sel.fingerprint()
			if !seen[fp] {
				seen[fp] = true
				out = append(out, sel)
			}
		})
	}

	tryOption(nil)
	for i := range straightSpecs {
		s := straightSpecs[i]
		if s.affordable(fc) {
			tryOption(&s)
		}
	}
	return out
}

// combineFaces recursively forms the cartesian product of per-face partition
// choices, invoking emit once per combination with the summed used-counts,
// points, and merged tag multiplicities.
func combineFaces(face int, used sim.FaceCount, points int, tags map[string]int, perFace [][]facePartition, emit func(sim.FaceCount, int, map[string]int)) {
	if face == 6 {
		emit(used, points, tags)
		return
	}
	for _, fp := range perFace[face] {
		nextUsed := used
		nextUsed[face] += fp.used
		combineFaces(face+1, nextUsed, points+fp.points, mergeTagMaps(tags, fp.tags), perFace, emit)
	}
}

func mergeTagMaps(a, b map[string]int) map[string]int {
	out := make(map[string]int, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

func toTagCounts(tags map[string]int) []TagCount {
	out := make([]TagCount, 0, len(tags))
	for k, v := range tags {
		if v == 0 {
			continue
		}
		out = append(out, TagCount{Tag: k, Count: v})
	}
	return out
}
