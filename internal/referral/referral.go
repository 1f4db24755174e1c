// internal/referral/referral.go
package referral

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Resolve returns the referrer that applies to a buy by player.
//
// A null or self proposal keeps the current referrer. An unset referrer takes
// the proposal. Once set, the referrer never changes: a conflicting proposal is
// rejected during the live phase and ignored during premarket.
func Resolve(phase domain.Phase, player, current, proposed solana.PublicKey) (solana.PublicKey, error) {
	if proposed.IsZero() || proposed.Equals(player) {
		return current, nil
	}
	if current.IsZero() {
		return proposed, nil
	}
	if proposed.Equals(current) {
		return current, nil
	}
	if phase == domain.PhaseLive {
		return current, domain.ErrInvalidReferrer
	}
	return current, nil
}

// Effective reports whether ref earns referral credit.
func Effective(ref solana.PublicKey) bool {
	return !ref.IsZero()
}
