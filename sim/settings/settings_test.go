package settings

import (
	"errors"
	"testing"

	"github.com/farkle-sim/farkle-sim/sim"
)

func validSettings() OptimizationSettings {
	return OptimizationSettings{
		Target:      2000,
		NumTurns:    500,
		RiskProfile: "balanced",
		Objective:   sim.ObjectiveMaxScore,
	}
}

func TestOptimizationSettings_Validate_AcceptsValid(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestOptimizationSettings_Validate_RejectsUnknownObjective(t *testing.T) {
	s := validSettings()
	s.Objective = "straght_1_5"
	err := s.Validate()
	if !errors.Is(err, sim.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOptimizationSettings_Validate_RejectsEmptyObjective(t *testing.T) {
	s := validSettings()
	s.Objective = ""
	err := s.Validate()
	if !errors.Is(err, sim.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOptimizationSettings_Validate_AcceptsKind3PlusObjective(t *testing.T) {
	s := validSettings()
	s.Objective = sim.ObjectiveKind3Plus(4)
	if err := s.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
