// Package keybuilder derives the deterministic SHA-256 fingerprints the
// cache store keys entries by: a catalog-wide dice signature, a per-run
// context built from that signature and the active settings, and a final
// per-loadout key folding the context with a count vector.
package keybuilder

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/farkle-sim/farkle-sim/sim"
)

// SchemaVersion and SchemaName are embedded in every context so a future
// format change invalidates old cache entries rather than silently
// misinterpreting them.
const (
	SchemaVersion = 1
	SchemaName    = "farkle-sim-cache"
)

type diceEntry struct {
	Name  string     `json:"name"`
	Probs [7]float64 `json:"probs"`
}

// DiceSignature hashes the catalog's dice, sorted by name, into a stable
// 64-char lowercase hex digest.
func DiceSignature(catalog *sim.Catalog) string {
	entries := make([]diceEntry, len(catalog.Dice))
	for i, d := range catalog.Dice {
		entries[i] = diceEntry{Name: d.Name, Probs: d.Probabilities}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return sha256Hex(mustMarshal(entries))
}

// ContextParams is the subset of OptimizationSettings that participates in
// cache key derivation.
type ContextParams struct {
	Target      int
	RiskProfile string
	NumTurns    int
	Cap         int
	SeedBase    *int64
}

// Context builds the JSON-serializable run context keyed on a dice
// signature and settings. Go's encoding/json marshals map[string]any with
// keys sorted lexicographically, which makes the resulting key invariant
// under the order these properties were assembled in.
func Context(signature string, p ContextParams) map[string]any {
	ctx := map[string]any{
		"v":            SchemaVersion,
		"schema":       SchemaName,
		"dice":         signature,
		"target":       p.Target,
		"risk_profile": p.RiskProfile,
		"num_turns":    p.NumTurns,
		"cap":          p.Cap,
	}
	if p.SeedBase != nil {
		ctx["seed_base"] = *p.SeedBase
	}
	return ctx
}

// Key folds a context with a loadout's count vector into the cache key: the
// SHA-256 hex digest of the canonical JSON of context ∪ {"counts": counts}.
func Key(ctx map[string]any, counts sim.CountVector) string {
	merged := make(map[string]any, len(ctx)+1)
	for k, v := range ctx {
		merged[k] = v
	}
	merged["counts"] = []int(counts)
	return sha256Hex(mustMarshal(merged))
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Inputs are always JSON-marshalable primitives, slices, and maps
		// built by this package; a failure here means a caller corrupted
		// ContextParams with an unmarshalable value.
		panic("keybuilder: unmarshalable context value: " + err.Error())
	}
	return b
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
