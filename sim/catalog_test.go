package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordinaryDie() DieType {
	return DieType{Name: "Ordinary die", Probabilities: [7]float64{0, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6}}
}

func TestQualityFromProbabilities(t *testing.T) {
	// ones and fives dominate the weighting since they score standalone.
	got := QualityFromProbabilities([7]float64{0, 0.30, 0.10, 0.10, 0.10, 0.20, 0.20})
	assert.InDelta(t, 50.0, got, 1e-9)
}

func TestDieType_IsUniform(t *testing.T) {
	assert.True(t, ordinaryDie().IsUniform())

	loaded := DieType{Name: "Loaded", Probabilities: [7]float64{0, 0.5, 0.1, 0.1, 0.1, 0.1, 0.1}}
	assert.False(t, loaded.IsUniform())
}

func TestNewCatalog_CanonicalOrder(t *testing.T) {
	dice := []DieType{
		{Name: "Zebra die", Probabilities: [7]float64{0, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6, 1.0 / 6}},
		ordinaryDie(),
	}
	cat, err := NewCatalog(dice)
	require.NoError(t, err)
	require.Len(t, cat.Dice, 2)
	assert.Equal(t, "Ordinary die", cat.Dice[0].Name)
	assert.Equal(t, "Zebra die", cat.Dice[1].Name)
	assert.Equal(t, 0, cat.IndexOf("Ordinary die"))
	assert.Equal(t, -1, cat.IndexOf("Nonexistent"))
}

func TestNewCatalog_RejectsBadProbabilities(t *testing.T) {
	bad := DieType{Name: "Bad", Probabilities: [7]float64{0, 0.5, 0.5, 0.5, 0, 0, 0}}
	_, err := NewCatalog([]DieType{bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestNewCatalog_RejectsDuplicateNames(t *testing.T) {
	d := ordinaryDie()
	_, err := NewCatalog([]DieType{d, d})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestLoadCatalogJSON(t *testing.T) {
	data := []byte(`{"Ordinary die": [0, 0.16666666666666666, 0.16666666666666666, 0.16666666666666666, 0.16666666666666666, 0.16666666666666666, 0.16666666666666667]}`)
	cat, err := LoadCatalogJSON(data)
	require.NoError(t, err)
	require.Len(t, cat.Dice, 1)
	assert.Equal(t, "Ordinary die", cat.Dice[0].Name)
}

func TestLoadCatalogJSON_RejectsMalformed(t *testing.T) {
	_, err := LoadCatalogJSON([]byte(`not json`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
