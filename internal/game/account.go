// internal/game/account.go
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/devpay"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/endgame"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
	"github.com/rovshanmuradov/shrimp-farm/internal/username"
	"github.com/rovshanmuradov/shrimp-farm/internal/utils/logger"
)

// errNoIssuer is returned by the mint paths when the ledger has no asset
// issuer configured.
var errNoIssuer = errors.New("asset issuer not configured")

// Register binds a username to the player. Both directions of the mapping
// are written in the same changeset.
func (l *Ledger) Register(ctx context.Context, req RegisterRequest) error {
	return l.execute(ctx, opRegister, req.Authority, req.Envelope, func(t *txn) error {
		p, err := l.findPlayer(t, req.Player)
		if err != nil {
			return err
		}
		if err := username.CheckRegister(t.ctx, l.store, t.game.Authority, p, req.Username); err != nil {
			return err
		}
		p.Username = req.Username
		t.usernames = append(t.usernames, storage.UsernameEntry{Name: req.Username, Owner: req.Player})

		t.emit(&events.UserRegisteredEvent{
			BaseEvent: t.base(events.UserRegistered, req.Player, false),
			Username:  req.Username,
		})
		return nil
	})
}

// MintNft mints one collection asset to a player whose live spend reached
// the threshold. Each player mints once.
func (l *Ledger) MintNft(ctx context.Context, req PlayerRequest) (solana.PublicKey, error) {
	var asset solana.PublicKey
	err := l.execute(ctx, opMintNft, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		if g.Collection.IsZero() {
			return domain.ErrCollectionNotSet
		}
		p, err := l.existingPlayer(t, req.Player)
		if err != nil {
			return err
		}
		if p.HasMinted || p.LiveSpendTotal < domain.NftMinBuy {
			return domain.ErrMintNotEligible
		}
		if asset, err = l.mint(t, req.Player); err != nil {
			return err
		}
		p.HasMinted = true

		t.emit(&events.NftMintedEvent{
			BaseEvent: t.base(events.NftMinted, req.Player, false),
			Asset:     asset,
			Minted:    g.NftsMinted,
		})
		return nil
	})
	return asset, err
}

// AdminMint mints one asset to any recipient. Only the minter may call it.
func (l *Ledger) AdminMint(ctx context.Context, req AdminMintRequest) (solana.PublicKey, error) {
	var asset solana.PublicKey
	err := l.execute(ctx, opAdminMint, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		if g.Minter.IsZero() || !req.Signer.Equals(g.Minter) {
			return domain.ErrInvalidSigner
		}
		if g.Collection.IsZero() {
			return domain.ErrCollectionNotSet
		}
		var err error
		if asset, err = l.mint(t, req.Recipient); err != nil {
			return err
		}

		t.emit(&events.AdminMintedEvent{
			BaseEvent: t.base(events.AdminMinted, req.Signer, false),
			Recipient: req.Recipient,
			Asset:     asset,
			Minted:    g.NftsMinted,
		})
		return nil
	})
	return asset, err
}

// mint calls the issuer. The issuer is external: an asset minted here stays
// minted even if the commit that follows fails.
func (l *Ledger) mint(t *txn, recipient solana.PublicKey) (solana.PublicKey, error) {
	if t.game.NftsMinted >= domain.MaxNfts {
		return solana.PublicKey{}, domain.ErrMintedOut
	}
	if l.opts.Issuer == nil {
		return solana.PublicKey{}, errNoIssuer
	}
	asset, err := l.opts.Issuer.Mint(t.ctx, recipient, t.game.Collection)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("mint asset: %w", err)
	}
	t.game.NftsMinted++
	return asset, nil
}

// Withdrawal itemizes a UserWithdraw payout.
type Withdrawal struct {
	Referral uint64
	Sell     uint64
	Dividend uint64
	Prize    uint64
}

func (w Withdrawal) Total() uint64 {
	return w.Referral + w.Sell + w.Dividend + w.Prize
}

func prizeShare(g *domain.GameState, p *domain.PlayerState) uint64 {
	return endgame.PrizeShare(p.PremarketSpent, g.FinalBalance, g.TotalPremarketSnapshot)
}

// UserWithdraw pays out everything the player is owed: referral credits,
// sell proceeds once the market is open, the premarket dividend and, after
// game over, the prize share.
func (l *Ledger) UserWithdraw(ctx context.Context, req PlayerRequest) (Withdrawal, error) {
	var w Withdrawal
	err := l.execute(ctx, opUserWithdraw, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		p, err := l.existingPlayer(t, req.Player)
		if err != nil {
			return err
		}
		accrue(g, p)

		w.Referral = p.PendingReferral()
		if g.Phase == domain.PhaseLive {
			w.Sell = p.PendingSell()
		}
		w.Dividend = p.Withdrawable
		if g.GameOver && !p.PrizeClaimed {
			w.Prize = min(prizeShare(g, p), g.OutstandingPrize())
			p.PrizeClaimed = true
		}
		total := w.Total()
		if total == 0 {
			return domain.ErrNothingToWithdraw
		}

		g.SellAndRefBalance -= w.Referral + w.Sell
		p.ReferralWithdrawn += w.Referral
		p.SellWithdrawn += w.Sell
		g.TotalWithdrawable -= w.Dividend
		p.Withdrawable = 0
		g.PrizePaid += w.Prize
		g.Treasury -= total

		t.emit(&events.UserWithdrawnEvent{
			BaseEvent: t.base(events.UserWithdrawn, req.Player, false),
			Referral:  w.Referral,
			Sell:      w.Sell,
			Dividend:  w.Dividend,
			Prize:     w.Prize,
			Total:     total,
		})
		logger.WithPlayer(t.log, g.Authority, req.Player).Info("Player withdrew",
			zap.Uint64("total", total),
			zap.Uint64("prize", w.Prize))
		return nil
	})
	if err != nil {
		return Withdrawal{}, err
	}
	return w, nil
}

// DevWithdraw drains the dev bucket down to the rent reserve and splits it
// between the three dev wallets.
func (l *Ledger) DevWithdraw(ctx context.Context, req DevWithdrawRequest) ([3]uint64, error) {
	var payouts [3]uint64
	err := l.execute(ctx, opDevWithdraw, req.Authority, req.Envelope, func(t *txn) error {
		g := t.game
		if !g.IsDev(req.Signer) {
			return domain.ErrInvalidSigner
		}
		if err := devpay.CheckPayees(g, req.Payees); err != nil {
			return err
		}
		amount, err := devpay.Payable(g)
		if err != nil {
			return err
		}
		payouts = devpay.Split(amount)
		g.DevBalance = g.RentReserve
		g.Treasury -= amount

		t.emit(&events.DevWithdrawnEvent{
			BaseEvent: t.base(events.DevWithdrawn, req.Signer, false),
			Amount:    amount,
			Payouts:   payouts,
		})
		t.log.Info("Dev withdraw",
			zap.String("signer", req.Signer.String()),
			zap.Uint64("amount", amount))
		return nil
	})
	if err != nil {
		return [3]uint64{}, err
	}
	return payouts, nil
}
