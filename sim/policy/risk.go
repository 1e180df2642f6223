// Package policy implements the risk-aware continuation policy: the exact
// bust probability and expected continuation value for k remaining dice,
// and the named risk-profile parameter table.
package policy

import "fmt"

// Profile names a risk posture.
type Profile string

const (
	Conservative Profile = "conservative"
	Balanced     Profile = "balanced"
	Aggressive   Profile = "aggressive"
)

// RiskPolicy parameterizes the continuation decision: Alpha weights expected
// continuation value, Beta weights bust risk, BankThreshold is an
// accumulated-points stop, BustLimit is a bust-probability stop.
type RiskPolicy struct {
	Alpha         float64
	Beta          float64
	BankThreshold float64
	BustLimit     float64
}

// profiles is the recommended default table.
var profiles = map[Profile]RiskPolicy{
	Conservative: {Alpha: 0.6, Beta: 1.4, BankThreshold: 300, BustLimit: 0.25},
	Balanced:     {Alpha: 0.8, Beta: 1.1, BankThreshold: 200, BustLimit: 0.35},
	Aggressive:   {Alpha: 1.0, Beta: 0.9, BankThreshold: 120, BustLimit: 0.45},
}

// LookupProfile returns the RiskPolicy for a named profile.
func LookupProfile(p Profile) (RiskPolicy, error) {
	rp, ok := profiles[p]
	if !ok {
		return RiskPolicy{}, fmt.Errorf("unknown risk profile %q", p)
	}
	return rp, nil
}

// Profiles returns the full profile table in a stable order.
func Profiles() []Profile {
	return []Profile{Conservative, Balanced, Aggressive}
}
