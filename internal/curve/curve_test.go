package curve

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestTrade(t *testing.T) {
	tests := []struct {
		name       string
		rt, rs, bs *uint256.Int
		want       *uint256.Int
	}{
		{
			name: "buy against funded reserve",
			rt:   u(100_000_000), rs: u(1_000_000_000), bs: u(864_000_000_000),
			// den = 5000 + (1e13 + 5e11)/1e8 = 110000
			want: u(78_545_454_545),
		},
		{
			name: "empty reserve returns the whole side",
			rt:   u(42), rs: u(0), bs: MarketStart,
			want: MarketStart,
		},
		{
			name: "equal reserves",
			rt:   u(1000), rs: u(1000), bs: u(1000),
			// den = 5000 + (1e7 + 5e6)/1000 = 20000
			want: u(500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Trade(tt.rt, tt.rs, tt.bs)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Dec(), got.Dec())
		})
	}
}

func TestTradeRejectsZeroInput(t *testing.T) {
	_, err := Trade(u(0), u(1), u(1))
	assert.ErrorIs(t, err, ErrZeroInput)

	_, err = Trade(nil, u(1), u(1))
	assert.ErrorIs(t, err, ErrZeroInput)
}

func TestTradeAtEndgameScale(t *testing.T) {
	limit := uint256.MustFromDecimal("10000000000000000000000000000000000")
	out, err := Trade(limit, limit, limit)
	require.NoError(t, err)
	// (PSN*L + PSNH*L)/L = 15000, den = 20000
	assert.Equal(t, "5000000000000000000000000000000000", out.Dec())
}

func TestQuoteMatchesTwoArgumentForm(t *testing.T) {
	amountIn, reserve := u(100_000_000), u(1_000_000_000)

	got, err := Quote(amountIn, reserve)
	require.NoError(t, err)

	// PSN*r / (PSNH + (PSN*r + PSNH*a)/a) = 1e13 / 110000
	assert.Equal(t, uint64(90_909_090), got.Uint64())
}

func TestEggSellBoundedByBalance(t *testing.T) {
	for _, eggs := range []uint64{1, 86400, 1e12, 1e18} {
		out, err := EggSell(u(eggs), MarketStart, 5_000_000_000)
		require.NoError(t, err)
		assert.LessOrEqual(t, out, uint64(5_000_000_000))
	}
}

func TestPremarketShrimp(t *testing.T) {
	// 864e9 * 0.9 / 86400 = 9e6 for the sole depositor
	assert.Equal(t, uint64(9_000_000), PremarketShrimp(5e9, 5e9).Uint64())
	assert.Equal(t, uint64(4_500_000), PremarketShrimp(1e9, 2e9).Uint64())
	assert.True(t, PremarketShrimp(0, 2e9).IsZero())
	assert.True(t, PremarketShrimp(1, 0).IsZero())
}

func TestShrimpForAndProduction(t *testing.T) {
	assert.Equal(t, uint64(2), ShrimpFor(u(2*EggsPerShrimp+5)).Uint64())
	assert.Equal(t, uint64(300), Production(u(3), 100).Uint64())
	assert.True(t, Production(u(3), -1).IsZero())
}
