package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/game"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/memory"
)

func newLedger(t *testing.T) *game.Ledger {
	t.Helper()
	bus := events.NewBus(zap.NewNop(), 16)
	t.Cleanup(func() { _ = bus.Shutdown(context.Background()) })
	return game.New(memory.New(), bus, game.Options{
		ProgramID:   solana.NewWallet().PublicKey(),
		Owner:       solana.NewWallet().PublicKey(),
		RentReserve: 2_039_280,
	}, zap.NewNop())
}

func TestReplayEndgame(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s, err := Load("testdata/endgame.yaml", logger)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.Premarket)

	res, err := NewRunner(newLedger(t), logger).Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, len(s.Steps))

	g := res.Game
	assert.True(t, g.GameOver)
	assert.Equal(t, domain.PhaseLive, g.Phase)
	require.NoError(t, g.CheckConservation())
	assert.Equal(t, uint64(4_000_000_000), g.TotalPremarketSnapshot)
	assert.Equal(t, g.RentReserve, g.DevBalance)

	for _, name := range []string{"alice", "carol"} {
		p := res.Players[name]
		require.NotNil(t, p, name)
		assert.True(t, p.PrizeClaimed, name)
		assert.Zero(t, p.Withdrawable, name)
	}
	assert.Equal(t, "bob", res.Players["bob"].Username)
	assert.Zero(t, res.Players["bob"].PendingSell())

	// alice is owed her carol referral on top of the prize
	var alicePaid, carolPaid uint64
	for _, o := range res.Outcomes {
		if o.Op != OpWithdraw || o.Err != nil {
			continue
		}
		switch o.Actor {
		case "alice":
			alicePaid = o.Paid
		case "carol":
			carolPaid = o.Paid
		}
	}
	assert.Greater(t, alicePaid, uint64(120_000_000))
	assert.Greater(t, carolPaid, alicePaid)
}

func TestRunFailsOnUnexpectedOutcome(t *testing.T) {
	s, err := Parse([]byte(`
name: bad
steps:
  - {op: buy, actor: bob, amount: "0.1"}
`))
	require.NoError(t, err)

	_, err = NewRunner(newLedger(t), zap.NewNop()).Run(context.Background(), s)
	assert.ErrorIs(t, err, domain.ErrPremarketInProgress)

	s, err = Parse([]byte(`
name: wrong-expectation
steps:
  - {op: end_premarket, expect: game_over}
`))
	require.NoError(t, err)
	_, err = NewRunner(newLedger(t), zap.NewNop()).Run(context.Background(), s)
	assert.ErrorContains(t, err, "expected game_over")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  string
	}{
		{name: "no steps", doc: "name: empty\n", err: "no steps"},
		{name: "unknown op", doc: "steps:\n  - {op: rug}\n", err: "unsupported op"},
		{name: "unknown error", doc: "steps:\n  - {op: hatch, expect: oops}\n", err: "unknown expected error"},
		{name: "wait without duration", doc: "steps:\n  - {op: wait}\n", err: "positive duration"},
		{name: "bad yaml", doc: "steps: [", err: "failed to parse YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.err)
		})
	}

	s, err := Parse([]byte("steps:\n  - {op: WAIT, wait: 90s}\n"))
	require.NoError(t, err)
	assert.Equal(t, OpWait, s.Steps[0].Op)
	assert.Equal(t, 90*time.Second, s.Steps[0].Wait)
	assert.Equal(t, int64(1_700_000_000), s.Start)
}

func TestKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, Key("alice"), Key("alice"))
	assert.NotEqual(t, Key("alice"), Key("bob"))
	assert.False(t, Key("alice").IsZero())
}
