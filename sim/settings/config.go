package settings

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/farkle-sim/farkle-sim/sim"
	"github.com/farkle-sim/farkle-sim/sim/policy"
)

// FileConfig is the on-disk shape of an optimization run: settings plus an
// optional efficiency plan override. Strict field checking (KnownFields)
// means a typo'd key fails to load instead of silently being ignored.
type FileConfig struct {
	Target            int               `yaml:"target"`
	TurnCap           int               `yaml:"turn_cap"`
	NumTurns          int               `yaml:"num_turns"`
	RiskProfile       string            `yaml:"risk_profile"`
	Objective         string            `yaml:"objective"`
	ProbTurns         []int             `yaml:"prob_turns"`
	EfficiencyEnabled bool              `yaml:"efficiency_enabled"`
	EfficiencySeed    int64             `yaml:"efficiency_seed"`
	Stages            []EfficiencyStage `yaml:"stages"`
}

// LoadFile reads and strictly decodes path into an OptimizationSettings,
// defaulting ProbTurns when the file omits it and Stages when efficiency is
// enabled and the file omits them, then validating
// the result (including the efficiency plan, if enabled).
func LoadFile(path string) (OptimizationSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OptimizationSettings{}, fmt.Errorf("%w: reading %s: %v", sim.ErrInvalidInput, path, err)
	}

	var fc FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil {
		return OptimizationSettings{}, fmt.Errorf("%w: parsing %s: %v", sim.ErrInvalidInput, path, err)
	}

	s := OptimizationSettings{
		Target:            fc.Target,
		TurnCap:           fc.TurnCap,
		NumTurns:          fc.NumTurns,
		RiskProfile:       policy.Profile(fc.RiskProfile),
		Objective:         sim.Objective(fc.Objective),
		ProbTurns:         fc.ProbTurns,
		EfficiencyEnabled: fc.EfficiencyEnabled,
		EfficiencySeed:    fc.EfficiencySeed,
		Stages:            fc.Stages,
	}
	if len(s.ProbTurns) == 0 {
		s.ProbTurns = DefaultProbTurns()
	}
	if s.EfficiencyEnabled && len(s.Stages) == 0 {
		s.Stages = DefaultEfficiencyPlan()
	}

	if err := s.Validate(); err != nil {
		return OptimizationSettings{}, err
	}
	return s, nil
}
