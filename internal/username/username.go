// internal/username/username.go
package username

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Validate accepts 1..12 lowercase ASCII letters.
func Validate(name string) error {
	if len(name) == 0 || len(name) > domain.MaxUsernameLength {
		return domain.ErrInvalidUsername
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c < 'a' || c > 'z' {
			return domain.ErrInvalidUsername
		}
	}
	return nil
}

// Directory resolves a username to its owner within one game.
type Directory interface {
	UsernameOwner(ctx context.Context, authority solana.PublicKey, name string) (solana.PublicKey, bool, error)
}

// CheckRegister runs the registration checks in order:
// must-buy-first, name format, name taken, already registered.
// player may be nil when the caller has no record.
func CheckRegister(ctx context.Context, dir Directory, authority solana.PublicKey, player *domain.PlayerState, name string) error {
	if player == nil || player.TotalSpend() == 0 {
		return domain.ErrMustBuyFirst
	}
	if err := Validate(name); err != nil {
		return err
	}
	_, taken, err := dir.UsernameOwner(ctx, authority, name)
	if err != nil {
		return fmt.Errorf("lookup username %q: %w", name, err)
	}
	if taken {
		return domain.ErrUsernameTaken
	}
	if player.Username != "" {
		return domain.ErrAlreadyRegistered
	}
	return nil
}
