// Package settings defines OptimizationSettings and the efficiency-plan
// shape the workflow stages on, plus their validators and normalizers.
package settings

import (
	"fmt"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/policy"
)

// EfficiencyStage is one pruning stage of the staged-pruning workflow.
type EfficiencyStage struct {
	MinTotal     int
	PilotTurns   int
	KeepPercent  float64
	Epsilon      float64
	MinSurvivors int
}

// DefaultEfficiencyPlan is the recommended default 4-stage plan.
func DefaultEfficiencyPlan() []EfficiencyStage {
	return []EfficiencyStage{
		{MinTotal: 100000, PilotTurns: 100, KeepPercent: 30, Epsilon: 0.10, MinSurvivors: 100},
		{MinTotal: 10000, PilotTurns: 500, KeepPercent: 10, Epsilon: 0.05, MinSurvivors: 100},
		{MinTotal: 1000, PilotTurns: 1000, KeepPercent: 10, Epsilon: 0.00, MinSurvivors: 100},
		{MinTotal: 0, PilotTurns: 50000, KeepPercent: 100, Epsilon: 0.00, MinSurvivors: 100},
	}
}

// OptimizationSettings parameterizes one optimization run.
type OptimizationSettings struct {
	Target            int
	TurnCap           int // DP iteration bound (metrics.Compute's max_turns); <=0 uses metrics.DefaultMaxTurns
	NumTurns          int // Monte Carlo sample size per loadout
	RiskProfile       policy.Profile
	Objective         sim.Objective
	ProbTurns         []int
	EfficiencyEnabled bool
	EfficiencySeed    int64
	Stages            []EfficiencyStage
}

// DefaultProbTurns is the recommended prob-turn checkpoint set.
func DefaultProbTurns() []int { return []int{10, 15, 20} }

// Validate checks OptimizationSettings' own fields and, when efficiency
// pruning is enabled, the efficiency plan via ValidateEfficiencyPlan.
func (s OptimizationSettings) Validate() error {
	if s.NumTurns <= 0 {
		return fmt.Errorf("%w: num_turns must be > 0, got %d", sim.ErrInvalidInput, s.NumTurns)
	}
	if s.Target <= 0 {
		return fmt.Errorf("%w: target must be > 0, got %d", sim.ErrInvalidInput, s.Target)
	}
	if _, err := policy.LookupProfile(s.RiskProfile); err != nil {
		return fmt.Errorf("%w: %v", sim.ErrInvalidInput, err)
	}
	if !s.Objective.Valid() {
		return fmt.Errorf("%w: unknown objective %q", sim.ErrInvalidInput, s.Objective)
	}
	if s.EfficiencyEnabled {
		if err := ValidateEfficiencyPlan(s.Stages); err != nil {
			return err
		}
	}
	return nil
}
