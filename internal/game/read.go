// internal/game/read.go
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
)

// Game returns a copy of the authority's game.
func (l *Ledger) Game(ctx context.Context, authority solana.PublicKey) (*domain.GameState, error) {
	return l.loadGame(ctx, authority)
}

// Games lists every initialized authority.
func (l *Ledger) Games(ctx context.Context) ([]solana.PublicKey, error) {
	return l.store.Games(ctx)
}

// Player returns a copy of the player's record.
func (l *Ledger) Player(ctx context.Context, authority, owner solana.PublicKey) (*domain.PlayerState, error) {
	p, err := l.store.Player(ctx, authority, owner)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", owner, err)
	}
	return p, nil
}

// Players returns every player of the game.
func (l *Ledger) Players(ctx context.Context, authority solana.PublicKey) ([]*domain.PlayerState, error) {
	return l.store.Players(ctx, authority)
}

func (l *Ledger) gameAndPlayer(ctx context.Context, authority, owner solana.PublicKey) (*domain.GameState, *domain.PlayerState, error) {
	g, err := l.loadGame(ctx, authority)
	if err != nil {
		return nil, nil, err
	}
	p, err := l.Player(ctx, authority, owner)
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

// EggsOf is the player's egg balance now, before any bonus.
func (l *Ledger) EggsOf(ctx context.Context, authority, owner solana.PublicKey) (*uint256.Int, error) {
	g, p, err := l.gameAndPlayer(ctx, authority, owner)
	if err != nil {
		return nil, err
	}
	return eggsAt(g, p, l.clock().Unix()), nil
}

// ShrimpOf includes the shrimp earned by premarket deposits.
func (l *Ledger) ShrimpOf(ctx context.Context, authority, owner solana.PublicKey) (*uint256.Int, error) {
	g, p, err := l.gameAndPlayer(ctx, authority, owner)
	if err != nil {
		return nil, err
	}
	return shrimpOf(g, p), nil
}

// Claimable is what UserWithdraw would pay the player right now.
func (l *Ledger) Claimable(ctx context.Context, authority, owner solana.PublicKey) (Withdrawal, error) {
	g, p, err := l.gameAndPlayer(ctx, authority, owner)
	if err != nil {
		return Withdrawal{}, err
	}
	accrue(g, p)

	w := Withdrawal{Referral: p.PendingReferral(), Dividend: p.Withdrawable}
	if g.Phase == domain.PhaseLive {
		w.Sell = p.PendingSell()
	}
	if g.GameOver && !p.PrizeClaimed {
		w.Prize = min(prizeShare(g, p), g.OutstandingPrize())
	}
	return w, nil
}

// LookupUsername resolves a name to its owner.
func (l *Ledger) LookupUsername(ctx context.Context, authority solana.PublicKey, name string) (solana.PublicKey, error) {
	owner, ok, err := l.store.UsernameOwner(ctx, authority, name)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("lookup username %q: %w", name, err)
	}
	if !ok {
		return solana.PublicKey{}, domain.ErrPlayerNotFound
	}
	return owner, nil
}

// UsernameOf returns the player's username, empty when unregistered.
func (l *Ledger) UsernameOf(ctx context.Context, authority, owner solana.PublicKey) (string, error) {
	p, err := l.Player(ctx, authority, owner)
	if err != nil {
		return "", err
	}
	return p.Username, nil
}
