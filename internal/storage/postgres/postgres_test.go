package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/shrimp-farm/internal/events"
)

func setupIndex(t *testing.T) *Index {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	idx, err := Open(sqlite.Open(dsn), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, idx.RunMigrations())
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func header(typ events.EventType, authority, actor solana.PublicKey, index uint64) events.BaseEvent {
	return events.BaseEvent{
		EventType:  typ,
		EventTime:  time.Unix(1_700_000_000+int64(index), 0),
		Version:    events.Version,
		EventIndex: index,
		GameIndex:  index,
		Authority:  authority,
		Actor:      actor,
	}
}

func TestIndexEvents(t *testing.T) {
	ctx := context.Background()
	idx := setupIndex(t)

	authority := solana.NewWallet().PublicKey()
	alice, bob := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	require.NoError(t, idx.Handle(ctx, &events.PremarketBuyEvent{BaseEvent: header(events.PremarketBuy, authority, alice, 0), Amount: 1_000_000_000}))
	require.NoError(t, idx.Handle(ctx, &events.PremarketBuyEvent{BaseEvent: header(events.PremarketBuy, authority, bob, 1), Amount: 50_000_000}))
	require.NoError(t, idx.Handle(ctx, &events.UserWithdrawnEvent{BaseEvent: header(events.UserWithdrawn, authority, alice, 2), Total: 40_000_000}))

	all, err := idx.Events(ctx, authority.String(), "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(2), all[0].EventIndex)
	assert.Equal(t, string(events.UserWithdrawn), all[0].Type)

	mine, err := idx.Events(ctx, authority.String(), alice.String(), 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(mine[0].Payload), &payload))
	assert.Equal(t, float64(40_000_000), payload["total"])

	stat, err := idx.Stat(ctx, authority.String(), alice.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stat.Events)
	assert.Equal(t, uint64(1_000_000_000), stat.Spent)
	assert.Equal(t, uint64(40_000_000), stat.Withdrawn)
}

func TestIndexIgnoresRedelivery(t *testing.T) {
	ctx := context.Background()
	idx := setupIndex(t)

	authority, actor := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	e := &events.BuyEvent{BaseEvent: header(events.Buy, authority, actor, 5), Amount: 100_000_000}

	require.NoError(t, idx.Handle(ctx, e))
	require.NoError(t, idx.Handle(ctx, e))

	got, err := idx.Events(ctx, authority.String(), "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	stat, err := idx.Stat(ctx, authority.String(), actor.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stat.Events)
	assert.Equal(t, uint64(100_000_000), stat.Spent)
}

func TestStatUnknownActor(t *testing.T) {
	idx := setupIndex(t)
	_, err := idx.Stat(context.Background(), "nobody", "nobody")
	assert.Error(t, err)
}
