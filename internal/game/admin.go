// internal/game/admin.go
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/curve"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/guard"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
)

// Initialize creates the game of req.Authority. The first non-test game
// locks initialization for every authority in the store.
func (l *Ledger) Initialize(ctx context.Context, req InitializeRequest) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	defer func() {
		if l.opts.Metrics != nil {
			l.opts.Metrics.RecordInstruction(ctx, opInitialize, time.Since(start), err)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	if !req.Owner.Equals(l.opts.Owner) {
		return domain.ErrSignatureVerification
	}
	if req.Authority.IsZero() {
		return domain.ErrUnauthorized
	}
	if err = checkDevs(req.Devs); err != nil {
		return err
	}

	lock, err := l.store.Lock(ctx)
	if err != nil {
		return fmt.Errorf("load lock: %w", err)
	}
	if lock == domain.LockLocked {
		return domain.ErrInitializationLocked
	}
	_, err = l.store.Game(ctx, req.Authority)
	switch {
	case err == nil:
		return domain.ErrAlreadyInitialized
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("load game %s: %w", req.Authority, err)
	}

	t := l.begin(ctx, opInitialize)
	t.game = &domain.GameState{
		Authority:    req.Authority,
		Devs:         req.Devs,
		Treasury:     l.opts.RentReserve,
		RentReserve:  l.opts.RentReserve,
		DevBalance:   l.opts.RentReserve,
		PremarketEnd: req.PremarketEnd,
		Phase:        domain.PhasePremarket,
		CooldownSecs: req.CooldownSecs,
		TestMode:     req.TestMode,
		Guard:        guard.Default(),
	}
	t.game.MarketEggs.Set(curve.MarketStart)

	if !req.TestMode {
		locked := domain.LockLocked
		t.lock = &locked
	}

	t.emit(&events.InitializedEvent{
		BaseEvent:    t.base(events.Initialized, req.Authority, false),
		Devs:         req.Devs,
		PremarketEnd: req.PremarketEnd,
		CooldownSecs: req.CooldownSecs,
		TestMode:     req.TestMode,
		RentReserve:  l.opts.RentReserve,
	})

	if err = l.commit(t); err != nil {
		return err
	}
	l.logger.Info("Game initialized",
		zap.String("authority", req.Authority.String()),
		zap.Bool("test_mode", req.TestMode),
		zap.Int64("premarket_end", req.PremarketEnd))
	return nil
}

func checkDevs(devs [3]solana.PublicKey) error {
	for i := range devs {
		if devs[i].IsZero() {
			return domain.ErrInvalidDevs
		}
		for j := i + 1; j < len(devs); j++ {
			if devs[i].Equals(devs[j]) {
				return domain.ErrInvalidDevs
			}
		}
	}
	return nil
}

// SetProgramGuards replaces the instruction guard. The transaction carrying
// it is checked against the guard in force before the change.
func (l *Ledger) SetProgramGuards(ctx context.Context, req SetProgramGuardsRequest) error {
	return l.execute(ctx, opSetProgramGuards, req.Authority, req.Envelope, func(t *txn) error {
		if err := requireAuthority(t.game, req.Signer); err != nil {
			return err
		}
		if err := guard.Validate(req.MaxInstructions, req.Allowed); err != nil {
			return err
		}
		allowed := append([]solana.PublicKey(nil), req.Allowed...)
		t.game.Guard = domain.ProgramGuard{MaxInstructions: req.MaxInstructions, Allowed: allowed}

		t.emit(&events.ProgramGuardsSetEvent{
			BaseEvent:       t.base(events.ProgramGuardsSet, req.Signer, false),
			MaxInstructions: req.MaxInstructions,
			Allowed:         allowed,
		})
		return nil
	})
}

func (l *Ledger) premarketDue(g *domain.GameState, now int64) bool {
	return l.opts.Gate == GateTimestamp && g.Phase == domain.PhasePremarket && now >= g.PremarketEnd
}

// endPremarket snapshots the dividend pool and the premarket total and opens
// the market.
func (l *Ledger) endPremarket(t *txn, lazy bool) {
	g := t.game
	g.PremarketEarned = g.PremarketBalance
	g.TotalPremarketSnapshot = g.TotalPremarketSpent
	g.Phase = domain.PhaseLive
	g.PremarketEnd = t.now

	t.emit(&events.PremarketEndedEvent{
		BaseEvent:           t.base(events.PremarketEnded, g.Authority, false),
		TotalPremarketSpent: g.TotalPremarketSnapshot,
		DividendPool:        g.PremarketEarned,
		Lazy:                lazy,
	})
	t.log.Info("Premarket ended",
		zap.Uint64("total_premarket_spent", g.TotalPremarketSnapshot),
		zap.Uint64("dividend_pool", g.PremarketEarned),
		zap.Bool("lazy", lazy))
}

// EndPremarket opens the market. Under GateTimestamp it fails until the
// configured premarket end.
func (l *Ledger) EndPremarket(ctx context.Context, req AdminRequest) error {
	return l.execute(ctx, opEndPremarket, req.Authority, req.Envelope, func(t *txn) error {
		if err := requireAuthority(t.game, req.Signer); err != nil {
			return err
		}
		if t.game.Phase == domain.PhaseLive {
			return domain.ErrPremarketOver
		}
		if l.opts.Gate == GateTimestamp && t.now < t.game.PremarketEnd {
			return domain.ErrPremarketInProgress
		}
		l.endPremarket(t, false)
		return nil
	})
}

// SetMarket overrides the market-egg counter. Test games only.
func (l *Ledger) SetMarket(ctx context.Context, req SetMarketRequest) error {
	return l.execute(ctx, opSetMarket, req.Authority, req.Envelope, func(t *txn) error {
		if err := requireAuthority(t.game, req.Signer); err != nil {
			return err
		}
		if !t.game.TestMode {
			return domain.ErrNotTestEnv
		}
		if req.MarketEggs == nil {
			return errors.New("market eggs required")
		}
		t.game.MarketEggs.Set(req.MarketEggs)

		t.emit(&events.MarketUpdatedEvent{
			BaseEvent:  t.base(events.MarketUpdated, req.Signer, false),
			MarketEggs: t.game.MarketEggs.Clone(),
		})
		return nil
	})
}

// TestnetBonus flips the testnet flag of a player, creating the record if
// needed.
func (l *Ledger) TestnetBonus(ctx context.Context, req TestnetBonusRequest) error {
	return l.execute(ctx, opTestnetBonus, req.Authority, req.Envelope, func(t *txn) error {
		if err := requireAuthority(t.game, req.Signer); err != nil {
			return err
		}
		p, err := l.player(t, req.Player)
		if err != nil {
			return err
		}
		p.TestnetBonus = !p.TestnetBonus

		t.emit(&events.TestnetBonusToggledEvent{
			BaseEvent: t.base(events.TestnetBonusToggled, req.Player, false),
			Enabled:   p.TestnetBonus,
		})
		return nil
	})
}

// SetCollection records the NFT collection and candy machine. It can be
// called once.
func (l *Ledger) SetCollection(ctx context.Context, req SetCollectionRequest) error {
	return l.execute(ctx, opSetCollection, req.Authority, req.Envelope, func(t *txn) error {
		if err := requireAuthority(t.game, req.Signer); err != nil {
			return err
		}
		if !t.game.Collection.IsZero() {
			return domain.ErrCollectionAlreadySet
		}
		if req.Collection.IsZero() {
			return domain.ErrCollectionNotSet
		}
		t.game.Collection = req.Collection
		t.game.CandyMachine = req.CandyMachine

		t.emit(&events.CollectionSetEvent{
			BaseEvent:    t.base(events.CollectionSet, req.Signer, false),
			Collection:   req.Collection,
			CandyMachine: req.CandyMachine,
		})
		return nil
	})
}

// SetMinter designates the key allowed to call AdminMint.
func (l *Ledger) SetMinter(ctx context.Context, req SetMinterRequest) error {
	return l.execute(ctx, opSetMinter, req.Authority, req.Envelope, func(t *txn) error {
		if err := requireAuthority(t.game, req.Signer); err != nil {
			return err
		}
		t.game.Minter = req.Minter

		t.emit(&events.MinterSetEvent{
			BaseEvent: t.base(events.MinterSet, req.Signer, false),
			Minter:    req.Minter,
		})
		return nil
	})
}
