package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farkle-sim/farkle-sim/sim"
)

func TestValidateEfficiencyPlan_AcceptsDefaultPlan(t *testing.T) {
	assert.NoError(t, ValidateEfficiencyPlan(DefaultEfficiencyPlan()))
}

func TestValidateEfficiencyPlan_RejectsBadRow(t *testing.T) {
	stages := []EfficiencyStage{
		{MinTotal: -1, PilotTurns: 0, KeepPercent: 0, Epsilon: -1, MinSurvivors: 0},
	}
	err := ValidateEfficiencyPlan(stages)
	assert.ErrorIs(t, err, sim.ErrInvalidPlan)
}

func TestValidateEfficiencyPlan_RejectsNonIncreasingPilotTurns(t *testing.T) {
	stages := []EfficiencyStage{
		{MinTotal: 100, PilotTurns: 20, KeepPercent: 50, Epsilon: 0, MinSurvivors: 1},
		{MinTotal: 50, PilotTurns: 20, KeepPercent: 100, Epsilon: 0, MinSurvivors: 1},
	}
	assert.Error(t, ValidateEfficiencyPlan(stages))
}

func TestValidateEfficiencyPlan_RejectsIncreasingMinTotal(t *testing.T) {
	stages := []EfficiencyStage{
		{MinTotal: 50, PilotTurns: 20, KeepPercent: 50, Epsilon: 0, MinSurvivors: 1},
		{MinTotal: 100, PilotTurns: 40, KeepPercent: 100, Epsilon: 0, MinSurvivors: 1},
	}
	assert.Error(t, ValidateEfficiencyPlan(stages))
}

func TestNormalize_CoercesHeterogeneousTypes(t *testing.T) {
	rows := []RawStage{
		{MinTotal: 100, PilotTurns: "20", KeepPercent: 50.0, Epsilon: 0, MinSurvivors: int64(5)},
	}
	out, errs := Normalize(rows)
	assert.Empty(t, errs)
	if assert.Len(t, out, 1) {
		assert.Equal(t, 100, out[0].MinTotal)
		assert.Equal(t, 20, out[0].PilotTurns)
		assert.Equal(t, 50.0, out[0].KeepPercent)
		assert.Equal(t, 5, out[0].MinSurvivors)
	}
}

func TestNormalize_ClampsOutOfRangeValues(t *testing.T) {
	rows := []RawStage{
		{MinTotal: -5, PilotTurns: 0, KeepPercent: 500.0, Epsilon: -3, MinSurvivors: 0},
	}
	out, errs := Normalize(rows)
	assert.Empty(t, errs)
	if assert.Len(t, out, 1) {
		assert.Equal(t, 0, out[0].MinTotal)
		assert.Equal(t, 1, out[0].PilotTurns)
		assert.Equal(t, 100.0, out[0].KeepPercent)
		assert.Equal(t, 0.0, out[0].Epsilon)
		assert.Equal(t, 1, out[0].MinSurvivors)
	}
}

func TestNormalize_DropsUncoercibleRowsAndCollectsErrors(t *testing.T) {
	rows := []RawStage{
		{MinTotal: 100, PilotTurns: 20, KeepPercent: 50.0, Epsilon: 0, MinSurvivors: 1},
		{MinTotal: "not-a-number", PilotTurns: 20, KeepPercent: 50.0, Epsilon: 0, MinSurvivors: 1},
	}
	out, errs := Normalize(rows)
	assert.Len(t, out, 1)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, 1, errs[0].Index)
		assert.Equal(t, "min_total", errs[0].Field)
	}
}
