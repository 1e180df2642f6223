// Package testutil provides shared test infrastructure for the dice-loadout
// optimization engine. It consolidates golden dataset types and assertion
// helpers used across sim/ and its sub-packages' test files.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json: a
// set of independently hand-derivable combinatorics/quality facts checked
// against a fixed external fixture rather than inline test-source literals.
type GoldenDataset struct {
	Cases []GoldenCase `json:"cases"`
}

// GoldenCase is one fixture entry. Inventory/Total feed
// search.CountCombinations; Probabilities feeds sim.QualityFromProbabilities.
// Each case populates only the fields its Want checks.
type GoldenCase struct {
	Name          string     `json:"name"`
	Inventory     []int      `json:"inventory"`
	Total         int        `json:"total"`
	WantCount     int64      `json:"want_count"`
	Probabilities [7]float64 `json:"probabilities"`
	WantQuality   float64    `json:"want_quality"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
