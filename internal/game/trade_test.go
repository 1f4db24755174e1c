package game

import (
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/shrimp-farm/internal/assets"
	"github.com/rovshanmuradov/shrimp-farm/internal/bonus"
	"github.com/rovshanmuradov/shrimp-farm/internal/curve"
	"github.com/rovshanmuradov/shrimp-farm/internal/dividend"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
)

func TestBuyPremarketFees(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice, ref := newKey(), newKey()

	err := h.ledger.BuyPremarket(ctx, BuyRequest{PlayerRequest: h.as(alice), Amount: domain.MinBuy - 1})
	assert.ErrorIs(t, err, domain.ErrBelowMinimumBuy)

	h.premarket(alice, 1_000_000_000, ref)

	g := h.game()
	assert.Equal(t, uint64(testRent+40_000_000), g.DevBalance)
	assert.Equal(t, uint64(50_000_000), g.SellAndRefBalance)
	assert.Equal(t, uint64(1_000_000_000), g.TotalPremarketSpent)
	assert.Equal(t, uint64(testRent+1_000_000_000), g.Treasury)
	assert.Equal(t, uint64(910_000_000), g.GameBalance())

	a := h.player(alice)
	assert.Equal(t, ref, a.CurrentReferrer)
	assert.Equal(t, uint64(1_000_000_000), a.PremarketSpent)
	assert.Equal(t, uint64(10_000_000), a.ReferralTotal)
	assert.Equal(t, uint64(40_000_000), h.player(ref).ReferralTotal)

	ev, ok := h.rec.Last().(*events.PremarketBuyEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(40_000_000), ev.DevFee)
	assert.Equal(t, uint64(40_000_000), ev.ReferralFee)
	assert.Equal(t, uint64(10_000_000), ev.Cashback)
	assert.Equal(t, alice, ev.Actor)
}

func TestBuyPremarketReferrerRules(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice, first, second := newKey(), newKey(), newKey()

	// self-reference is ignored, no referral fees
	h.premarket(alice, domain.MinBuy, alice)
	assert.True(t, h.player(alice).CurrentReferrer.IsZero())
	assert.Zero(t, h.game().SellAndRefBalance)

	h.premarket(alice, domain.MinBuy, first)
	// a different referrer in premarket is ignored silently
	h.premarket(alice, domain.MinBuy, second)
	assert.Equal(t, first, h.player(alice).CurrentReferrer)
	assert.Equal(t, uint64(800_000), h.player(first).ReferralTotal)
	_, err := h.ledger.Player(ctx, h.authority, second)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestPhaseTransitions(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice := newKey()
	h.premarket(alice, domain.MinBuy, solana.PublicKey{})

	assert.ErrorIs(t, h.buy(alice, domain.MinBuy, solana.PublicKey{}), domain.ErrPremarketInProgress)
	assert.ErrorIs(t, h.hatch(alice), domain.ErrPremarketInProgress)
	assert.ErrorIs(t, h.sell(alice), domain.ErrPremarketInProgress)

	notAuthority := AdminRequest{Authority: h.authority, Signer: alice}
	assert.ErrorIs(t, h.ledger.EndPremarket(ctx, notAuthority), domain.ErrUnauthorized)

	h.advance(time.Minute)
	h.openMarket()
	g := h.game()
	assert.Equal(t, domain.PhaseLive, g.Phase)
	assert.Equal(t, h.clock.Unix(), g.PremarketEnd)
	assert.Equal(t, uint64(domain.MinBuy), g.TotalPremarketSnapshot)

	ev, ok := h.rec.Last().(*events.PremarketEndedEvent)
	require.True(t, ok)
	assert.False(t, ev.Lazy)

	assert.ErrorIs(t, h.ledger.EndPremarket(ctx, h.admin()), domain.ErrPremarketOver)
	err := h.ledger.BuyPremarket(ctx, BuyRequest{PlayerRequest: h.as(alice), Amount: domain.MinBuy})
	assert.ErrorIs(t, err, domain.ErrPremarketOver)
}

func TestTimestampGate(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Gate = GateTimestamp })
	h.init()
	alice := newKey()
	h.premarket(alice, 1_000_000_000, solana.PublicKey{})

	assert.ErrorIs(t, h.ledger.EndPremarket(ctx, h.admin()), domain.ErrPremarketInProgress)

	h.advance(time.Hour)
	require.NoError(t, h.buy(alice, domain.MinBuy, solana.PublicKey{}))

	ended := h.rec.OfType(events.PremarketEnded)
	require.Len(t, ended, 1)
	assert.True(t, ended[0].(*events.PremarketEndedEvent).Lazy)
	assert.Len(t, h.rec.OfType(events.Buy), 1)
	assert.Equal(t, domain.PhaseLive, h.game().Phase)

	assert.ErrorIs(t, h.ledger.EndPremarket(ctx, h.admin()), domain.ErrPremarketOver)
}

func TestTimestampGateRejectedInstructionKeepsPremarket(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Gate = GateTimestamp })
	h.init()
	h.advance(2 * time.Hour)

	err := h.ledger.BuyPremarket(ctx, BuyRequest{PlayerRequest: h.as(newKey()), Amount: domain.MinBuy})
	assert.ErrorIs(t, err, domain.ErrPremarketOver)
	// the lazy transition belonged to the rejected instruction
	assert.Equal(t, domain.PhasePremarket, h.game().Phase)
}

func TestLiveBuyBreakdown(t *testing.T) {
	h := newHarness(t)
	h.init()
	depositor, buyer, ref := newKey(), newKey(), newKey()
	h.premarket(depositor, 1_000_000_000, solana.PublicKey{})
	h.openMarket()

	before := h.game()
	expectedEggs, err := curve.EggBuy(85_000_000, before.GameBalance(), &before.MarketEggs)
	require.NoError(t, err)

	require.NoError(t, h.buy(buyer, 100_000_000, ref))

	ev, ok := h.rec.Last().(*events.BuyEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(4_000_000), ev.DevFee)
	assert.Equal(t, uint64(4_000_000), ev.ReferralFee)
	assert.Equal(t, uint64(1_000_000), ev.Cashback)
	assert.Equal(t, uint64(6_000_000), ev.Dividend)
	assert.Equal(t, expectedEggs, ev.EggsBought)
	assert.Equal(t, curve.ShrimpFor(expectedEggs), ev.ShrimpBought)

	g := h.game()
	assert.Equal(t, before.DevBalance+4_000_000, g.DevBalance)
	assert.Equal(t, before.SellAndRefBalance+5_000_000, g.SellAndRefBalance)
	assert.Equal(t, before.PremarketBalance+6_000_000, g.PremarketBalance)
	assert.Equal(t, before.GameBalance()+85_000_000, g.GameBalance())
	assert.Equal(t, new(uint256.Int).Add(&before.MarketEggs, expectedEggs), &g.MarketEggs)

	b := h.player(buyer)
	assert.Equal(t, ref, b.CurrentReferrer)
	assert.Equal(t, uint64(1_000_000), b.ReferralTotal)
	assert.Equal(t, uint64(100_000_000), b.LiveSpendTotal)
	assert.Equal(t, *curve.ShrimpFor(expectedEggs), b.Shrimp)
	assert.Equal(t, uint64(4_000_000), h.player(ref).ReferralTotal)
}

func TestLiveBuyWithoutPremarketKeepsDividendInReserve(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.openMarket()
	buyer := newKey()

	require.NoError(t, h.buy(buyer, 100_000_000, solana.PublicKey{}))
	g := h.game()
	assert.Zero(t, g.PremarketBalance)
	assert.Zero(t, g.SellAndRefBalance)
	assert.Equal(t, uint64(96_000_000), g.GameBalance())
}

func TestLiveReferrerIsImmutable(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.openMarket()
	buyer, ref, other := newKey(), newKey(), newKey()

	require.NoError(t, h.buy(buyer, domain.MinBuy, ref))
	before := h.game()

	assert.ErrorIs(t, h.buy(buyer, domain.MinBuy, other), domain.ErrInvalidReferrer)
	assert.Equal(t, before, h.game())

	require.NoError(t, h.buy(buyer, domain.MinBuy, solana.PublicKey{}))
	require.NoError(t, h.buy(buyer, domain.MinBuy, ref))
	require.NoError(t, h.buy(buyer, domain.MinBuy, buyer))
	assert.Equal(t, ref, h.player(buyer).CurrentReferrer)
	assert.Equal(t, uint64(4*400_000), h.player(ref).ReferralTotal)
}

func TestDividendAccrual(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice, carol, bob := newKey(), newKey(), newKey()
	h.premarket(alice, 1_000_000_000, solana.PublicKey{})
	h.premarket(carol, 3_000_000_000, solana.PublicKey{})
	h.openMarket()

	require.NoError(t, h.buy(bob, 100_000_000, solana.PublicKey{}))
	assert.Zero(t, h.player(bob).Withdrawable)

	// alice's first live buy credits her share of the pool, own dividend included
	require.NoError(t, h.buy(alice, 100_000_000, solana.PublicKey{}))
	g := h.game()
	assert.Equal(t, uint64(12_000_000), g.PremarketEarned)
	want := dividend.Share(1_000_000_000, 12_000_000, 4_000_000_000)
	assert.Equal(t, uint64(3_000_000), want)

	a := h.player(alice)
	assert.Equal(t, want, a.Withdrawable)
	assert.Equal(t, want, a.PremarketWithdrawn)
	assert.Equal(t, want, h.rec.Last().(*events.BuyEvent).DividendCredited)
	assert.Equal(t, uint64(12_000_000)-want, g.PremarketBalance)

	w, err := h.ledger.UserWithdraw(ctx, h.as(alice))
	require.NoError(t, err)
	assert.Equal(t, want, w.Dividend)
	h.conserved()

	// nothing new in the pool, nothing to credit
	_, err = h.ledger.UserWithdraw(ctx, h.as(alice))
	assert.ErrorIs(t, err, domain.ErrNothingToWithdraw)
	assert.Equal(t, want, h.player(alice).PremarketWithdrawn)

	w, err = h.ledger.UserWithdraw(ctx, h.as(carol))
	require.NoError(t, err)
	assert.Equal(t, uint64(9_000_000), w.Dividend)
	assert.Zero(t, h.game().PremarketBalance)
}

func TestHatchCooldown(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice := newKey()
	h.premarket(alice, 1_000_000_000, solana.PublicKey{})
	h.openMarket()

	premarketShrimp := curve.PremarketShrimp(1_000_000_000, 1_000_000_000)
	assert.Equal(t, "9000000", premarketShrimp.Dec())

	h.advance(100 * time.Second)
	eggs, err := h.ledger.EggsOf(ctx, h.authority, alice)
	require.NoError(t, err)
	assert.Equal(t, "900000000", eggs.Dec())

	require.NoError(t, h.hatch(alice))
	ev := h.rec.Last().(*events.HatchEvent)
	assert.Equal(t, "10416", ev.NewShrimp.Dec())
	assert.Zero(t, ev.BonusPercent)

	shrimp, err := h.ledger.ShrimpOf(ctx, h.authority, alice)
	require.NoError(t, err)
	assert.Equal(t, "9010416", shrimp.Dec())

	h.advance(3 * time.Second)
	err = h.hatch(alice)
	var cd *domain.OnCooldownError
	require.True(t, errors.As(err, &cd))
	assert.Equal(t, domain.CooldownHatch, cd.Kind)
	assert.Equal(t, int64(2), cd.Remaining)
	assert.ErrorIs(t, err, domain.ErrOnCooldown)

	// the sell timer is independent
	require.NoError(t, h.sell(alice))

	h.advance(2 * time.Second)
	require.NoError(t, h.hatch(alice))
}

func TestHatchRequiresAPlayerAndEggs(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.openMarket()
	buyer := newKey()

	assert.ErrorIs(t, h.hatch(buyer), domain.ErrPlayerNotFound)

	require.NoError(t, h.buy(buyer, domain.MinBuy, solana.PublicKey{}))
	assert.ErrorIs(t, h.hatch(buyer), domain.ErrNoEggs)
	assert.ErrorIs(t, h.sell(buyer), domain.ErrNoEggs)
}

func TestSellEggs(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice := newKey()
	h.premarket(alice, 1_000_000_000, solana.PublicKey{})
	h.openMarket()

	h.advance(1000 * time.Second)
	before := h.game()
	eggs, err := h.ledger.EggsOf(ctx, h.authority, alice)
	require.NoError(t, err)
	proceeds, err := curve.EggSell(eggs, &before.MarketEggs, before.GameBalance())
	require.NoError(t, err)
	require.NotZero(t, proceeds)

	require.NoError(t, h.sell(alice))

	ev := h.rec.Last().(*events.SellEvent)
	assert.Equal(t, eggs, ev.Eggs)
	assert.Equal(t, proceeds, ev.Proceeds)
	assert.Equal(t, proceeds, ev.DevFee+ev.Dividend+ev.Payout)

	g := h.game()
	assert.Equal(t, before.Treasury, g.Treasury)
	assert.Equal(t, before.GameBalance()-proceeds, g.GameBalance())
	assert.Equal(t, before.SellAndRefBalance+ev.Payout, g.SellAndRefBalance)
	assert.Equal(t, new(uint256.Int).Add(&before.MarketEggs, eggs), &g.MarketEggs)

	a := h.player(alice)
	assert.Equal(t, ev.Payout, a.SellTotal)
	assert.True(t, a.ExtraEggs.IsZero())

	w, err := h.ledger.UserWithdraw(ctx, h.as(alice))
	require.NoError(t, err)
	assert.Equal(t, ev.Payout, w.Sell)
	assert.Equal(t, ev.Dividend, w.Dividend)
	h.conserved()
}

func TestYieldBonus(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice := newKey()
	h.premarket(alice, 1_000_000_000, solana.PublicKey{})
	h.openMarket()

	collection := newKey()
	require.NoError(t, h.ledger.SetCollection(ctx, SetCollectionRequest{AdminRequest: h.admin(), Collection: collection}))
	asset, err := h.assets.Mint(ctx, alice, collection)
	require.NoError(t, err)

	h.advance(100 * time.Second)
	require.NoError(t, h.ledger.HatchEggs(ctx, YieldRequest{PlayerRequest: h.as(alice), Asset: &assets.Handle{Asset: asset}}))
	ev := h.rec.Last().(*events.HatchEvent)
	assert.Equal(t, uint64(bonus.NFTPercent), ev.BonusPercent)
	assert.Equal(t, "990000000", ev.Eggs.Dec())

	// an asset that does not exist aborts the instruction
	h.advance(10 * time.Second)
	err = h.ledger.SellEggs(ctx, YieldRequest{PlayerRequest: h.as(alice), Asset: &assets.Handle{Asset: newKey()}})
	assert.ErrorIs(t, err, domain.ErrInvalidAsset)

	// held by someone else: no bonus, no error
	require.NoError(t, h.assets.Transfer(asset, newKey()))
	require.NoError(t, h.ledger.TestnetBonus(ctx, TestnetBonusRequest{AdminRequest: h.admin(), Player: alice}))
	require.NoError(t, h.ledger.SellEggs(ctx, YieldRequest{PlayerRequest: h.as(alice), Asset: &assets.Handle{Asset: asset}}))
	assert.Equal(t, uint64(bonus.TestnetPercent), h.rec.Last().(*events.SellEvent).BonusPercent)
}

func TestAdditiveBonus(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Bonus = bonus.Calculator{Composition: bonus.Additive} })
	h.init()
	alice := newKey()
	h.premarket(alice, 1_000_000_000, solana.PublicKey{})
	h.openMarket()

	collection := newKey()
	require.NoError(t, h.ledger.SetCollection(ctx, SetCollectionRequest{AdminRequest: h.admin(), Collection: collection}))
	asset, err := h.assets.Mint(ctx, alice, collection)
	require.NoError(t, err)
	require.NoError(t, h.ledger.TestnetBonus(ctx, TestnetBonusRequest{AdminRequest: h.admin(), Player: alice}))

	h.advance(100 * time.Second)
	require.NoError(t, h.ledger.HatchEggs(ctx, YieldRequest{PlayerRequest: h.as(alice), Asset: &assets.Handle{Asset: asset}}))
	assert.Equal(t, uint64(11), h.rec.Last().(*events.HatchEvent).BonusPercent)
}

func TestTestnetBonusToggles(t *testing.T) {
	h := newHarness(t)
	h.init()
	alice := newKey()

	req := TestnetBonusRequest{AdminRequest: h.admin(), Player: alice}
	require.NoError(t, h.ledger.TestnetBonus(ctx, req))
	assert.True(t, h.player(alice).TestnetBonus)
	require.NoError(t, h.ledger.TestnetBonus(ctx, req))
	assert.False(t, h.player(alice).TestnetBonus)
	assert.False(t, h.rec.Last().(*events.TestnetBonusToggledEvent).Enabled)

	req.Signer = alice
	assert.ErrorIs(t, h.ledger.TestnetBonus(ctx, req), domain.ErrUnauthorized)
}
