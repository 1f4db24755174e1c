// internal/devpay/devpay.go
package devpay

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Share numerators over 20 for dev2 and dev3; dev1 takes the rest.
const (
	dev2Parts = 8
	dev3Parts = 3
)

// Split divides amount between the three dev wallets: 45%+remainder, 40%, 15%.
func Split(amount uint64) [3]uint64 {
	base := amount / 20
	d2 := base * dev2Parts
	d3 := base * dev3Parts
	return [3]uint64{amount - d2 - d3, d2, d3}
}

// Payable is the dev bucket above the rent reserve.
func Payable(g *domain.GameState) (uint64, error) {
	if g.DevBalance <= g.RentReserve {
		return 0, domain.ErrNothingToWithdraw
	}
	return g.DevBalance - g.RentReserve, nil
}

// CheckPayees verifies the payout accounts are the configured devs, in order.
func CheckPayees(g *domain.GameState, payees [3]solana.PublicKey) error {
	for i := range payees {
		if !payees[i].Equals(g.Devs[i]) {
			return domain.ErrInvalidDevs
		}
	}
	return nil
}
