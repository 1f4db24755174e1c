package bonus

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		comp        Composition
		nft, tn     bool
		wantPercent uint64
	}{
		{Exclusive, false, false, 0},
		{Exclusive, true, false, 10},
		{Exclusive, false, true, 1},
		{Exclusive, true, true, 10},
		{Additive, false, false, 0},
		{Additive, true, false, 10},
		{Additive, false, true, 1},
		{Additive, true, true, 11},
	}
	for _, tt := range tests {
		c := Calculator{Composition: tt.comp}
		assert.Equal(t, tt.wantPercent, c.Percent(tt.nft, tt.tn), "%s nft=%v testnet=%v", tt.comp, tt.nft, tt.tn)
	}
}

func TestZeroValueCalculatorIsExclusive(t *testing.T) {
	assert.Equal(t, uint64(10), Calculator{}.Percent(true, true))
}

func TestApply(t *testing.T) {
	eggs := uint256.NewInt(86_400)
	assert.Equal(t, uint64(95_040), Apply(eggs, 10).Uint64())
	assert.Equal(t, uint64(87_264), Apply(eggs, 1).Uint64())
	assert.Equal(t, uint64(86_400), Apply(eggs, 0).Uint64())
	// input untouched
	assert.Equal(t, uint64(86_400), eggs.Uint64())
}

func TestParseComposition(t *testing.T) {
	c, err := ParseComposition("")
	require.NoError(t, err)
	assert.Equal(t, Exclusive, c)

	c, err = ParseComposition("additive")
	require.NoError(t, err)
	assert.Equal(t, Additive, c)

	_, err = ParseComposition("multiplicative")
	assert.Error(t, err)
}
