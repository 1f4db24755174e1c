// internal/storage/storagetest/suite.go
package storagetest

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
)

// Run exercises a storage.Store implementation. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("EmptyStore", func(t *testing.T) { testEmpty(t, newStore(t)) })
	t.Run("ChangesetRoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("PlayersScopedByGame", func(t *testing.T) { testScoping(t, newStore(t)) })
	t.Run("CopiesAreIndependent", func(t *testing.T) { testCopies(t, newStore(t)) })
}

func sampleGame(authority solana.PublicKey) *domain.GameState {
	g := &domain.GameState{
		Authority:           authority,
		Devs:                [3]solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()},
		Treasury:            5_000_000_000,
		RentReserve:         2_000_000,
		DevBalance:          42_000_000,
		SellAndRefBalance:   7,
		PremarketBalance:    8,
		PremarketEarned:     9,
		TotalPremarketSpent: 1_000_000_000,
		PremarketEnd:        1_700_000_000,
		Phase:               domain.PhaseLive,
		CooldownSecs:        3600,
		TestMode:            true,
		Collection:          solana.NewWallet().PublicKey(),
		NftsMinted:          12,
		Guard: domain.ProgramGuard{
			MaxInstructions: 7,
			Allowed:         []solana.PublicKey{solana.NewWallet().PublicKey()},
		},
		EventIndex: 11,
		GameIndex:  4,
	}
	// beyond 2^64 to exercise the u128 encoding
	g.MarketEggs.Set(uint256.MustFromDecimal("123456789012345678901234567890"))
	return g
}

func samplePlayer(owner solana.PublicKey) *domain.PlayerState {
	p := domain.NewPlayer(owner)
	p.Shrimp.SetUint64(9_000_000)
	p.ExtraEggs.Mul(uint256.NewInt(1<<40), uint256.NewInt(1<<40))
	p.LastInteraction = 1_700_000_100
	p.CurrentReferrer = solana.NewWallet().PublicKey()
	p.ReferralTotal = 40
	p.PremarketSpent = 1_000_000_000
	p.HasMinted = true
	p.Username = "shrimpking"
	return p
}

func testEmpty(t *testing.T, s storage.Store) {
	ctx := context.Background()
	defer s.Close()

	lock, err := s.Lock(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.LockUnlocked, lock)

	_, err = s.Game(ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Player(ctx, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, ok, err := s.UsernameOwner(ctx, solana.PublicKey{}, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	defer s.Close()

	authority := solana.NewWallet().PublicKey()
	game := sampleGame(authority)
	player := samplePlayer(solana.NewWallet().PublicKey())
	locked := domain.LockLocked

	require.NoError(t, s.Commit(ctx, &storage.Changeset{
		Authority: authority,
		Game:      game,
		Players:   []*domain.PlayerState{player},
		Usernames: []storage.UsernameEntry{{Name: player.Username, Owner: player.Owner}},
		Lock:      &locked,
	}))

	lock, err := s.Lock(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.LockLocked, lock)

	gotGame, err := s.Game(ctx, authority)
	require.NoError(t, err)
	assert.Equal(t, game, gotGame)

	gotPlayer, err := s.Player(ctx, authority, player.Owner)
	require.NoError(t, err)
	assert.Equal(t, player, gotPlayer)

	owner, ok, err := s.UsernameOwner(ctx, authority, "shrimpking")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, player.Owner, owner)

	games, err := s.Games(ctx)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{authority}, games)
}

func testScoping(t *testing.T, s storage.Store) {
	ctx := context.Background()
	defer s.Close()

	a, b := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	pa := samplePlayer(owner)
	pb := samplePlayer(owner)
	pb.Username = ""
	require.NoError(t, s.Commit(ctx, &storage.Changeset{Authority: a, Players: []*domain.PlayerState{pa, samplePlayer(solana.NewWallet().PublicKey())}}))
	require.NoError(t, s.Commit(ctx, &storage.Changeset{Authority: b, Players: []*domain.PlayerState{pb}}))

	inA, err := s.Players(ctx, a)
	require.NoError(t, err)
	assert.Len(t, inA, 2)

	inB, err := s.Players(ctx, b)
	require.NoError(t, err)
	require.Len(t, inB, 1)
	assert.Empty(t, inB[0].Username)

	// a game-less changeset leaves no game record behind
	_, err = s.Game(ctx, a)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testCopies(t *testing.T, s storage.Store) {
	ctx := context.Background()
	defer s.Close()

	authority := solana.NewWallet().PublicKey()
	game := sampleGame(authority)
	require.NoError(t, s.Commit(ctx, &storage.Changeset{Authority: authority, Game: game}))

	game.Treasury = 0
	game.Guard.Allowed[0] = solana.PublicKey{}

	got, err := s.Game(ctx, authority)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000_000), got.Treasury)
	assert.False(t, got.Guard.Allowed[0].IsZero())

	got.DevBalance = 1
	again, err := s.Game(ctx, authority)
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000_000), again.DevBalance)
}
