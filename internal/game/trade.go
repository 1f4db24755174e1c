// internal/game/trade.go
package game

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/bonus"
	"github.com/rovshanmuradov/shrimp-farm/internal/cooldown"
	"github.com/rovshanmuradov/shrimp-farm/internal/curve"
	"github.com/rovshanmuradov/shrimp-farm/internal/dividend"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/endgame"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/fees"
	"github.com/rovshanmuradov/shrimp-farm/internal/referral"
	"github.com/rovshanmuradov/shrimp-farm/internal/utils/logger"
)

// BuyPremarket deposits into the premarket. The deposit earns a dividend and
// a prize share later; it does not touch the curve.
func (l *Ledger) BuyPremarket(ctx context.Context, req BuyRequest) error {
	return l.execute(ctx, opBuyPremarket, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		if g.GameOver {
			return domain.ErrGameOver
		}
		if g.Phase != domain.PhasePremarket {
			return domain.ErrPremarketOver
		}
		if req.Amount < domain.MinBuy {
			return domain.ErrBelowMinimumBuy
		}

		p, err := l.player(t, req.Player)
		if err != nil {
			return err
		}
		ref, _ := referral.Resolve(domain.PhasePremarket, req.Player, p.CurrentReferrer, req.Referrer)
		p.CurrentReferrer = ref

		b := fees.SplitPremarket(req.Amount, referral.Effective(ref))
		if err := l.payIn(t, p, ref, b); err != nil {
			return err
		}
		p.PremarketSpent += req.Amount
		g.TotalPremarketSpent += req.Amount

		t.emit(&events.PremarketBuyEvent{
			BaseEvent:   t.base(events.PremarketBuy, req.Player, true),
			Amount:      req.Amount,
			Referrer:    ref,
			DevFee:      b.Dev,
			ReferralFee: b.Referral,
			Cashback:    b.Cashback,
			PlayerSpent: p.PremarketSpent,
			TotalSpent:  g.TotalPremarketSpent,
		})
		logger.WithPlayer(t.log, g.Authority, req.Player).Debug("Premarket deposit",
			zap.Uint64("amount", req.Amount),
			zap.Uint64("player_spent", p.PremarketSpent))
		return nil
	})
}

// payIn books an inbound payment: the gross joins the treasury and every fee
// bucket is credited. What is left of the gross stays in the curve reserve.
func (l *Ledger) payIn(t *txn, p *domain.PlayerState, ref solana.PublicKey, b fees.Breakdown) error {
	g := t.game
	g.Treasury += b.Gross
	g.DevBalance += b.Dev
	g.PremarketBalance += b.Dividend
	g.PremarketEarned += b.Dividend

	if b.Referral == 0 && b.Cashback == 0 {
		return nil
	}
	referrer, err := l.player(t, ref)
	if err != nil {
		return err
	}
	referrer.ReferralTotal += b.Referral
	p.ReferralTotal += b.Cashback
	g.SellAndRefBalance += b.Referral + b.Cashback
	return nil
}

// accrue credits the dividend the player is owed and has not received yet.
func accrue(g *domain.GameState, p *domain.PlayerState) uint64 {
	if g.Phase != domain.PhaseLive {
		return 0
	}
	due := dividend.Due(p.PremarketSpent, g.PremarketEarned, g.TotalPremarketSnapshot, p.PremarketWithdrawn)
	if due > g.PremarketBalance {
		due = g.PremarketBalance
	}
	if due == 0 {
		return 0
	}
	g.PremarketBalance -= due
	g.TotalWithdrawable += due
	p.PremarketWithdrawn += due
	p.Withdrawable += due
	return due
}

// settle ends the game and emits GameOver.
func settle(t *txn, actor solana.PublicKey) {
	final := endgame.Settle(t.game)
	t.emit(&events.GameOverEvent{
		BaseEvent:    t.base(events.GameOver, actor, true),
		FinalBalance: final,
		MarketEggs:   t.game.MarketEggs.Clone(),
	})
	t.log.Info("Game over",
		zap.String("authority", t.game.Authority.String()),
		zap.Uint64("final_balance", final),
		zap.String("market_eggs", t.game.MarketEggs.Dec()))
}

func requireLive(g *domain.GameState) error {
	if g.GameOver {
		return domain.ErrGameOver
	}
	if g.Phase != domain.PhaseLive {
		return domain.ErrPremarketInProgress
	}
	return nil
}

// BuyShrimp buys shrimp on the curve. A buy arriving once the market-egg
// counter is at the threshold settles the game instead of trading.
func (l *Ledger) BuyShrimp(ctx context.Context, req BuyRequest) error {
	return l.execute(ctx, opBuyShrimp, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		if err := requireLive(g); err != nil {
			return err
		}
		if req.Amount < domain.MinBuy {
			return domain.ErrBelowMinimumBuy
		}
		if endgame.Reached(&g.MarketEggs, nil) {
			settle(t, req.Player)
			return nil
		}

		p, err := l.player(t, req.Player)
		if err != nil {
			return err
		}
		ref, err := referral.Resolve(domain.PhaseLive, req.Player, p.CurrentReferrer, req.Referrer)
		if err != nil {
			return err
		}
		p.CurrentReferrer = ref

		b := fees.SplitLive(req.Amount, referral.Effective(ref), g.TotalPremarketSnapshot > 0)
		eggs, err := curve.EggBuy(b.Net, g.GameBalance(), &g.MarketEggs)
		if err != nil {
			return fmt.Errorf("price buy: %w", err)
		}
		shrimp := curve.ShrimpFor(eggs)

		p.ExtraEggs.Set(eggsAt(g, p, t.now))
		p.LastInteraction = t.now

		if err := l.payIn(t, p, ref, b); err != nil {
			return err
		}
		p.Shrimp.Add(&p.Shrimp, shrimp)
		p.LiveSpendTotal += req.Amount
		g.MarketEggs.Add(&g.MarketEggs, eggs)

		credited := accrue(g, p)

		t.emit(&events.BuyEvent{
			BaseEvent:        t.base(events.Buy, req.Player, true),
			Amount:           req.Amount,
			Referrer:         ref,
			DevFee:           b.Dev,
			ReferralFee:      b.Referral,
			Cashback:         b.Cashback,
			Dividend:         b.Dividend,
			EggsBought:       eggs,
			ShrimpBought:     shrimp,
			MarketEggs:       g.MarketEggs.Clone(),
			DividendCredited: credited,
		})
		logger.WithPlayer(t.log, g.Authority, req.Player).Debug("Bought shrimp",
			zap.Uint64("amount", req.Amount),
			zap.String("eggs", eggs.Dec()),
			zap.Uint64("dividend_credited", credited))
		return nil
	})
}

// HatchEggs converts the player's eggs into shrimp.
func (l *Ledger) HatchEggs(ctx context.Context, req YieldRequest) error {
	return l.execute(ctx, opHatchEggs, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		if err := requireLive(g); err != nil {
			return err
		}
		p, err := l.existingPlayer(t, req.Player)
		if err != nil {
			return err
		}
		if err := cooldown.Check(domain.CooldownHatch, t.now, p.LastHatchAt, g.CooldownSecs); err != nil {
			return err
		}
		pct, err := l.yieldBonus(t, p, req)
		if err != nil {
			return err
		}

		eggs := bonus.Apply(eggsAt(g, p, t.now), pct)
		shrimp := curve.ShrimpFor(eggs)
		if shrimp.IsZero() {
			return domain.ErrNoEggs
		}

		p.Shrimp.Add(&p.Shrimp, shrimp)
		p.ExtraEggs.Clear()
		p.LastHatchAt = t.now
		p.LastInteraction = t.now

		t.emit(&events.HatchEvent{
			BaseEvent:    t.base(events.Hatch, req.Player, true),
			Eggs:         eggs,
			NewShrimp:    shrimp,
			BonusPercent: pct,
		})
		return nil
	})
}

// SellEggs sells the player's eggs on the curve. Proceeds are credited to
// the sell bucket and withdrawn with UserWithdraw. A sale that would push
// the market-egg counter over the threshold settles the game instead.
func (l *Ledger) SellEggs(ctx context.Context, req YieldRequest) error {
	return l.execute(ctx, opSellEggs, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		if err := requireLive(g); err != nil {
			return err
		}
		p, err := l.existingPlayer(t, req.Player)
		if err != nil {
			return err
		}
		if err := cooldown.Check(domain.CooldownSell, t.now, p.LastSellAt, g.CooldownSecs); err != nil {
			return err
		}
		pct, err := l.yieldBonus(t, p, req)
		if err != nil {
			return err
		}

		eggs := bonus.Apply(eggsAt(g, p, t.now), pct)
		if eggs.Lt(uint256.NewInt(curve.EggsPerShrimp)) {
			return domain.ErrNoEggs
		}
		if endgame.Reached(&g.MarketEggs, eggs) {
			settle(t, req.Player)
			return nil
		}

		proceeds, err := curve.EggSell(eggs, &g.MarketEggs, g.GameBalance())
		if err != nil {
			return fmt.Errorf("price sell: %w", err)
		}
		b := fees.SplitSell(proceeds, g.TotalPremarketSnapshot > 0)

		// Продажа только перекладывает лампорты из резерва в пулы
		g.DevBalance += b.Dev
		g.PremarketBalance += b.Dividend
		g.PremarketEarned += b.Dividend
		g.SellAndRefBalance += b.Net
		p.SellTotal += b.Net

		g.MarketEggs.Add(&g.MarketEggs, eggs)
		p.ExtraEggs.Clear()
		p.LastSellAt = t.now
		p.LastInteraction = t.now

		t.emit(&events.SellEvent{
			BaseEvent:    t.base(events.Sell, req.Player, true),
			Eggs:         eggs,
			Proceeds:     proceeds,
			DevFee:       b.Dev,
			Dividend:     b.Dividend,
			Payout:       b.Net,
			BonusPercent: pct,
		})
		logger.WithPlayer(t.log, g.Authority, req.Player).Debug("Sold eggs",
			zap.String("eggs", eggs.Dec()),
			zap.Uint64("payout", b.Net),
			zap.Uint64("bonus_percent", pct))
		return nil
	})
}

// yieldBonus resolves the bonus for a hatch or sell. The NFT is checked only
// when a collection is set and the request names an asset.
func (l *Ledger) yieldBonus(t *txn, p *domain.PlayerState, req YieldRequest) (uint64, error) {
	hasNFT := false
	if req.Asset != nil && l.opts.Verifier != nil && !t.game.Collection.IsZero() {
		held, err := l.opts.Verifier.HoldsQualifying(t.ctx, req.Player, t.game.Collection, req.Asset)
		if err != nil {
			return 0, fmt.Errorf("verify asset: %w", err)
		}
		hasNFT = held
	}
	return l.opts.Bonus.Percent(hasNFT, p.TestnetBonus), nil
}
