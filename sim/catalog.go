package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// probTolerance bounds how far a probability vector's 1..6 components may sum
// from 1.0. probZeroTolerance bounds how far index 0 may sit from zero.
const (
	probTolerance     = 1e-9
	probZeroTolerance = 1e-12
	uniformTolerance  = 1e-12
)

// DieType is one entry in the probability catalog: a named die and its
// length-7 face distribution, index 0 unused (always ~0), indices 1..6 the
// probability of rolling that face.
type DieType struct {
	Name          string
	Probabilities [7]float64
}

// Quality is a scalar tie-breaker used when spending dice during a turn: ones
// and fives are weighted highest since they score standalone, the remaining
// faces lower since they only pay off as part of a kind or straight.
//
//	quality = 100*p1 + 50*p5 + 20*(p2+p3+p4+p6)
func (d DieType) Quality() float64 {
	return QualityFromProbabilities(d.Probabilities)
}

// QualityFromProbabilities computes the quality scalar for a raw probability
// vector without requiring a constructed DieType.
func QualityFromProbabilities(p [7]float64) float64 {
	return 100*p[1] + 50*p[5] + 20*(p[2]+p[3]+p[4]+p[6])
}

// IsUniform reports whether all six faces are equally likely, within
// uniformTolerance. A uniform die is subject to the special inventory rule
// applied by search.NormalizeInventory.
func (d DieType) IsUniform() bool {
	for f := 2; f <= 6; f++ {
		if math.Abs(d.Probabilities[f]-d.Probabilities[1]) > uniformTolerance {
			return false
		}
	}
	return true
}

func (d DieType) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: die has empty name", ErrInvalidInput)
	}
	if math.Abs(d.Probabilities[0]) > probZeroTolerance {
		return fmt.Errorf("%w: die %q: probabilities[0] must be ~0, got %v", ErrInvalidInput, d.Name, d.Probabilities[0])
	}
	sum := 0.0
	for f := 1; f <= 6; f++ {
		p := d.Probabilities[f]
		if p < 0 {
			return fmt.Errorf("%w: die %q: probabilities[%d] is negative (%v)", ErrInvalidInput, d.Name, f, p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > probTolerance {
		return fmt.Errorf("%w: die %q: probabilities[1..6] sum to %v, want 1", ErrInvalidInput, d.Name, sum)
	}
	return nil
}

// Catalog is the canonically-ordered (lexicographic by name) sequence of
// DieType loaded once at startup. All loadouts and inventories reference dice
// by their index into this slice.
type Catalog struct {
	Dice []DieType
}

// NewCatalog builds a Catalog from an unordered set of dice, sorting them into
// canonical order and validating each entry.
func NewCatalog(dice []DieType) (*Catalog, error) {
	if len(dice) == 0 {
		return nil, fmt.Errorf("%w: catalog has no dice", ErrInvalidInput)
	}
	sorted := make([]DieType, len(dice))
	copy(sorted, dice)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	seen := make(map[string]struct{}, len(sorted))
	for _, d := range sorted {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate die name %q", ErrInvalidInput, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return &Catalog{Dice: sorted}, nil
}

// IndexOf returns the canonical index of a die name, or -1 if absent.
func (c *Catalog) IndexOf(name string) int {
	for i, d := range c.Dice {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Len returns the number of dice in the catalog.
func (c *Catalog) Len() int { return len(c.Dice) }

// LoadCatalogJSON parses and validates a dice-probability catalog file: each
// property value is a length-7 number array [0, p1..p6] with p1..p6 >= 0
// summing to 1 (+-1e-9) and index 0 ~0 (+-1e-12).
func LoadCatalogJSON(data []byte) (*Catalog, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: catalog is not a JSON object: %v", ErrInvalidInput, err)
	}

	dice := make([]DieType, 0, len(raw))
	for name, msg := range raw {
		var vals []float64
		if err := json.Unmarshal(msg, &vals); err != nil {
			return nil, fmt.Errorf("%w: die %q: expected a length-7 number array: %v", ErrInvalidInput, name, err)
		}
		if len(vals) != 7 {
			return nil, fmt.Errorf("%w: die %q: expected a length-7 number array, got %d elements", ErrInvalidInput, name, len(vals))
		}
		var probs [7]float64
		copy(probs[:], vals)
		dice = append(dice, DieType{Name: name, Probabilities: probs})
	}
	return NewCatalog(dice)
}
