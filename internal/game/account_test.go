package game

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/shrimp-farm/internal/dividend"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/endgame"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/guard"
)

func (h *harness) setMarket(v *uint256.Int) {
	h.t.Helper()
	require.NoError(h.t, h.ledger.SetMarket(ctx, SetMarketRequest{AdminRequest: h.admin(), MarketEggs: v}))
}

func (h *harness) devWithdraw(signer solana.PublicKey) ([3]uint64, error) {
	req := DevWithdrawRequest{AdminRequest: AdminRequest{Authority: h.authority, Signer: signer}, Payees: h.devs}
	return h.ledger.DevWithdraw(ctx, req)
}

func TestEndgamePayout(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice, carol, bob := newKey(), newKey(), newKey()
	const (
		spentA = 1_000_000_000
		spentC = 3_000_000_000
		total  = spentA + spentC
	)
	h.premarket(alice, spentA, solana.PublicKey{})
	h.premarket(carol, spentC, alice)
	h.openMarket()
	require.NoError(t, h.buy(bob, 100_000_000, solana.PublicKey{}))

	h.setMarket(endgame.Threshold)
	before := h.game()
	require.NoError(t, h.buy(bob, 100_000_000, solana.PublicKey{}))

	g := h.game()
	require.True(t, g.GameOver)
	assert.Equal(t, before.GameBalance(), g.FinalBalance)
	assert.Zero(t, g.GameBalance())
	// the settling buy is not executed
	assert.Equal(t, before.Treasury, g.Treasury)
	assert.Equal(t, h.player(bob).LiveSpendTotal, uint64(100_000_000))

	over, ok := h.rec.Last().(*events.GameOverEvent)
	require.True(t, ok)
	assert.Equal(t, g.FinalBalance, over.FinalBalance)
	assert.Len(t, h.rec.OfType(events.GameOver), 1)

	assert.ErrorIs(t, h.buy(bob, 100_000_000, solana.PublicKey{}), domain.ErrGameOver)
	assert.ErrorIs(t, h.hatch(alice), domain.ErrGameOver)
	assert.ErrorIs(t, h.sell(alice), domain.ErrGameOver)
	err := h.ledger.BuyPremarket(ctx, BuyRequest{PlayerRequest: h.as(alice), Amount: domain.MinBuy})
	assert.ErrorIs(t, err, domain.ErrGameOver)
	assert.Len(t, h.rec.OfType(events.GameOver), 1)

	final, pool := g.FinalBalance, g.PremarketEarned
	require.Equal(t, uint64(6_000_000), pool)

	claim, err := h.ledger.Claimable(ctx, h.authority, alice)
	require.NoError(t, err)

	wa, err := h.ledger.UserWithdraw(ctx, h.as(alice))
	require.NoError(t, err)
	assert.Equal(t, claim, wa)
	assert.Equal(t,
		endgame.PrizeShare(spentA, final, total)+dividend.Share(spentA, pool, total)+uint64(120_000_000),
		wa.Total())
	h.conserved()

	wc, err := h.ledger.UserWithdraw(ctx, h.as(carol))
	require.NoError(t, err)
	assert.Equal(t,
		endgame.PrizeShare(spentC, final, total)+dividend.Share(spentC, pool, total)+uint64(30_000_000),
		wc.Total())
	h.conserved()

	// the prize is paid once
	_, err = h.ledger.UserWithdraw(ctx, h.as(alice))
	assert.ErrorIs(t, err, domain.ErrNothingToWithdraw)
	_, err = h.ledger.UserWithdraw(ctx, h.as(bob))
	assert.ErrorIs(t, err, domain.ErrNothingToWithdraw)

	_, err = h.devWithdraw(h.devs[1])
	require.NoError(t, err)

	g = h.game()
	dust := final - wa.Prize - wc.Prize
	assert.Less(t, dust, uint64(2))
	assert.Equal(t, uint64(testRent)+dust+g.PremarketBalance, g.Treasury)
	assert.Zero(t, g.PremarketBalance)
	assert.Zero(t, g.SellAndRefBalance)
	assert.Equal(t, uint64(testRent), g.DevBalance)
}

func TestSellSettlesAtThreshold(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice := newKey()
	h.premarket(alice, 1_000_000_000, solana.PublicKey{})
	h.openMarket()
	h.advance(100 * time.Second)

	h.setMarket(new(uint256.Int).SubUint64(endgame.Threshold, 1))
	before := h.game()
	require.NoError(t, h.sell(alice))

	g := h.game()
	assert.True(t, g.GameOver)
	assert.Equal(t, before.GameBalance(), g.FinalBalance)
	assert.Equal(t, before.MarketEggs, g.MarketEggs)
	assert.Zero(t, h.player(alice).SellTotal)
	assert.Equal(t, events.GameOver, h.rec.Last().Type())
}

func TestSetMarketRequiresTestMode(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ledger.Initialize(ctx, h.initRequest(false)))

	err := h.ledger.SetMarket(ctx, SetMarketRequest{AdminRequest: h.admin(), MarketEggs: uint256.NewInt(1)})
	assert.ErrorIs(t, err, domain.ErrNotTestEnv)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice, bob, stranger := newKey(), newKey(), newKey()

	register := func(player solana.PublicKey, name string) error {
		return h.ledger.Register(ctx, RegisterRequest{PlayerRequest: h.as(player), Username: name})
	}

	assert.ErrorIs(t, register(stranger, "testuser"), domain.ErrMustBuyFirst)

	// a record without spend is not enough
	require.NoError(t, h.ledger.TestnetBonus(ctx, TestnetBonusRequest{AdminRequest: h.admin(), Player: stranger}))
	assert.ErrorIs(t, register(stranger, "testuser"), domain.ErrMustBuyFirst)

	h.premarket(alice, domain.MinBuy, solana.PublicKey{})
	h.premarket(bob, domain.MinBuy, solana.PublicKey{})

	for _, name := range []string{"", "TestUser", "test1", "test_user", "abcdefghijklm"} {
		assert.ErrorIs(t, register(alice, name), domain.ErrInvalidUsername, name)
	}

	require.NoError(t, register(alice, "testuser"))
	assert.ErrorIs(t, register(bob, "testuser"), domain.ErrUsernameTaken)
	assert.ErrorIs(t, register(alice, "another"), domain.ErrAlreadyRegistered)

	owner, err := h.ledger.LookupUsername(ctx, h.authority, "testuser")
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
	name, err := h.ledger.UsernameOf(ctx, h.authority, alice)
	require.NoError(t, err)
	assert.Equal(t, "testuser", name)

	_, err = h.ledger.LookupUsername(ctx, h.authority, "nobody")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	ev := h.rec.Last().(*events.UserRegisteredEvent)
	assert.Equal(t, "testuser", ev.Username)
	assert.Equal(t, alice, ev.Actor)
}

func TestDevWithdraw(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.premarket(newKey(), 1_000_000_001, solana.PublicKey{})

	_, err := h.devWithdraw(newKey())
	assert.ErrorIs(t, err, domain.ErrInvalidSigner)

	swapped := DevWithdrawRequest{
		AdminRequest: AdminRequest{Authority: h.authority, Signer: h.devs[0]},
		Payees:       [3]solana.PublicKey{h.devs[1], h.devs[0], h.devs[2]},
	}
	_, err = h.ledger.DevWithdraw(ctx, swapped)
	assert.ErrorIs(t, err, domain.ErrInvalidDevs)

	before := h.game()
	payable := before.DevBalance - testRent
	payouts, err := h.devWithdraw(h.devs[2])
	require.NoError(t, err)
	assert.Equal(t, payable, payouts[0]+payouts[1]+payouts[2])
	assert.Equal(t, payable/20*8, payouts[1])
	assert.Equal(t, payable/20*3, payouts[2])
	h.conserved()

	g := h.game()
	assert.Equal(t, uint64(testRent), g.DevBalance)
	assert.Equal(t, before.Treasury-payable, g.Treasury)
	assert.Equal(t, before.GameBalance(), g.GameBalance())

	_, err = h.devWithdraw(h.devs[0])
	assert.ErrorIs(t, err, domain.ErrNothingToWithdraw)
}

func TestInstructionGuard(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice := newKey()

	buy := func(env *guard.Envelope) error {
		req := BuyRequest{PlayerRequest: h.as(alice), Amount: domain.MinBuy}
		req.Envelope = env
		return h.ledger.BuyPremarket(ctx, req)
	}

	core := h.program
	fourAndBudget := []solana.PublicKey{core, core, core, core, guard.ComputeBudgetProgramID}
	require.NoError(t, buy(&guard.Envelope{Programs: fourAndBudget}))

	fiveAndBudget := append([]solana.PublicKey{core}, fourAndBudget...)
	before := h.game()
	err := buy(&guard.Envelope{Programs: fiveAndBudget})
	assert.ErrorIs(t, err, domain.ErrInstructionGuardViolation)
	assert.Equal(t, before, h.game())

	other := newKey()
	err = buy(&guard.Envelope{Programs: []solana.PublicKey{core, other}})
	assert.ErrorIs(t, err, domain.ErrInstructionGuardViolation)

	bad := SetProgramGuardsRequest{AdminRequest: h.admin(), MaxInstructions: 20}
	assert.ErrorIs(t, h.ledger.SetProgramGuards(ctx, bad), domain.ErrInvalidProgramGuards)

	widen := SetProgramGuardsRequest{AdminRequest: h.admin(), MaxInstructions: 8, Allowed: []solana.PublicKey{other}}
	require.NoError(t, h.ledger.SetProgramGuards(ctx, widen))
	require.NoError(t, buy(&guard.Envelope{Programs: []solana.PublicKey{core, other}}))
	require.NoError(t, buy(&guard.Envelope{Programs: fiveAndBudget}))

	ev := h.rec.OfType(events.ProgramGuardsSet)
	require.Len(t, ev, 1)
	assert.Equal(t, uint8(8), ev[0].(*events.ProgramGuardsSetEvent).MaxInstructions)
}

func TestMintNft(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.openMarket()
	alice, minter := newKey(), newKey()

	_, err := h.ledger.MintNft(ctx, h.as(alice))
	assert.ErrorIs(t, err, domain.ErrCollectionNotSet)

	collection := newKey()
	setCollection := SetCollectionRequest{AdminRequest: h.admin(), Collection: collection, CandyMachine: newKey()}
	require.NoError(t, h.ledger.SetCollection(ctx, setCollection))
	assert.ErrorIs(t, h.ledger.SetCollection(ctx, setCollection), domain.ErrCollectionAlreadySet)

	require.NoError(t, h.buy(alice, domain.NftMinBuy/2, solana.PublicKey{}))
	_, err = h.ledger.MintNft(ctx, h.as(alice))
	assert.ErrorIs(t, err, domain.ErrMintNotEligible)

	require.NoError(t, h.buy(alice, domain.NftMinBuy/2, solana.PublicKey{}))
	asset, err := h.ledger.MintNft(ctx, h.as(alice))
	require.NoError(t, err)
	assert.True(t, h.player(alice).HasMinted)

	held, err := h.assets.HoldsQualifying(ctx, alice, collection, nil)
	require.NoError(t, err)
	assert.False(t, held)
	assert.Equal(t, asset, h.rec.Last().(*events.NftMintedEvent).Asset)

	_, err = h.ledger.MintNft(ctx, h.as(alice))
	assert.ErrorIs(t, err, domain.ErrMintNotEligible)

	adminMint := AdminMintRequest{AdminRequest: AdminRequest{Authority: h.authority, Signer: minter}, Recipient: newKey()}
	_, err = h.ledger.AdminMint(ctx, adminMint)
	assert.ErrorIs(t, err, domain.ErrInvalidSigner)

	require.NoError(t, h.ledger.SetMinter(ctx, SetMinterRequest{AdminRequest: h.admin(), Minter: minter}))
	for h.game().NftsMinted < domain.MaxNfts {
		_, err = h.ledger.AdminMint(ctx, adminMint)
		require.NoError(t, err)
	}
	_, err = h.ledger.AdminMint(ctx, adminMint)
	assert.ErrorIs(t, err, domain.ErrMintedOut)
}

func TestPremarketReferralWithdraw(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice, ref := newKey(), newKey()
	h.premarket(alice, 1_000_000_000, ref)

	w, err := h.ledger.UserWithdraw(ctx, h.as(ref))
	require.NoError(t, err)
	assert.Equal(t, Withdrawal{Referral: 40_000_000}, w)

	w, err = h.ledger.UserWithdraw(ctx, h.as(alice))
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), w.Total())
	h.conserved()

	g := h.game()
	assert.Zero(t, g.SellAndRefBalance)
	assert.Equal(t, uint64(testRent+1_000_000_000-50_000_000), g.Treasury)
}
