// internal/endgame/endgame.go
package endgame

import (
	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Threshold is the market-egg count that ends the game (10^34).
var Threshold = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(34))

// Reached reports whether marketEggs plus incoming crosses the threshold.
// incoming may be nil.
func Reached(marketEggs, incoming *uint256.Int) bool {
	total := new(uint256.Int).Set(marketEggs)
	if incoming != nil {
		if _, overflow := total.AddOverflow(total, incoming); overflow {
			return true
		}
	}
	return !total.Lt(Threshold)
}

// Settle freezes the residual curve reserve as the prize pool. It is a no-op
// once the game is over and returns the frozen amount.
func Settle(g *domain.GameState) uint64 {
	if g.GameOver {
		return g.FinalBalance
	}
	g.FinalBalance = g.GameBalance()
	g.GameOver = true
	return g.FinalBalance
}

// PrizeShare is floor(spent*final/total).
func PrizeShare(spent, final, total uint64) uint64 {
	if total == 0 || spent == 0 || final == 0 {
		return 0
	}
	v := new(uint256.Int).Mul(uint256.NewInt(spent), uint256.NewInt(final))
	v.Div(v, uint256.NewInt(total))
	if !v.IsUint64() {
		return final
	}
	return v.Uint64()
}
