// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("storage: not found")

// UsernameEntry binds a name to its owner within one game.
type UsernameEntry struct {
	Name  string
	Owner solana.PublicKey
}

// Changeset is everything one instruction writes. It is applied atomically:
// either every record lands or none does.
type Changeset struct {
	Authority solana.PublicKey
	Game      *domain.GameState // nil leaves the game record unchanged
	Players   []*domain.PlayerState
	Usernames []UsernameEntry
	Lock      *domain.LockState
}

// Empty reports whether the changeset writes nothing.
func (c *Changeset) Empty() bool {
	return c.Game == nil && len(c.Players) == 0 && len(c.Usernames) == 0 && c.Lock == nil
}

// Store определяет интерфейс хранилища состояния игры
type Store interface {
	// Lock returns the process-wide initialization lock.
	Lock(ctx context.Context) (domain.LockState, error)

	// Game returns ErrNotFound for an unknown authority.
	Game(ctx context.Context, authority solana.PublicKey) (*domain.GameState, error)
	Games(ctx context.Context) ([]solana.PublicKey, error)

	// Player returns ErrNotFound when the player has no record in this game.
	Player(ctx context.Context, authority, owner solana.PublicKey) (*domain.PlayerState, error)
	Players(ctx context.Context, authority solana.PublicKey) ([]*domain.PlayerState, error)

	UsernameOwner(ctx context.Context, authority solana.PublicKey, name string) (solana.PublicKey, bool, error)

	Commit(ctx context.Context, cs *Changeset) error
	Close() error
}
