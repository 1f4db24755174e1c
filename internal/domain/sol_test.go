package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSOL(t *testing.T) {
	assert.Equal(t, "0.01", SOL(MinBuy).String())
	assert.Equal(t, "1", SOL(NftMinBuy).String())
	assert.Equal(t, "0.00203928", SOL(2_039_280).String())
	assert.Equal(t, "0", SOL(0).String())
}

func TestLamports(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		err  bool
	}{
		{in: "1", want: 1_000_000_000},
		{in: "0.01", want: MinBuy},
		{in: "0.0000000019", want: 1},
		{in: "-1", err: true},
		{in: "abc", err: true},
		{in: "100000000000", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Lamports(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
