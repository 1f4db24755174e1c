// internal/curve/curve.go
package curve

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	PSN  = 10000
	PSNH = 5000

	// EggsPerShrimp is one day of production for a single shrimp.
	EggsPerShrimp = 86400

	// premarket buys convert at a 10% haircut
	premarketFeePercent = 10
	shareScale          = 100000
)

var (
	psn  = uint256.NewInt(PSN)
	psnh = uint256.NewInt(PSNH)

	// MarketStart is the virtual egg supply every game starts with.
	MarketStart = uint256.NewInt(864_000_000_000)

	eggsPerShrimp = uint256.NewInt(EggsPerShrimp)
)

// ErrZeroInput is returned when the traded amount is zero.
var ErrZeroInput = errors.New("curve: trade input must be positive")

// Trade evaluates PSN*bs / (PSNH + (PSN*rs + PSNH*rt)/rt) with truncating
// division at every step. rt is the amount traded in, rs the reserve it is
// traded against and bs the reserve paid out from.
func Trade(rt, rs, bs *uint256.Int) (*uint256.Int, error) {
	if rt == nil || rt.IsZero() {
		return nil, ErrZeroInput
	}
	num := new(uint256.Int).Mul(psn, bs)

	den := new(uint256.Int).Mul(psn, rs)
	den.Add(den, new(uint256.Int).Mul(psnh, rt))
	den.Div(den, rt)
	den.Add(den, psnh)

	return num.Div(num, den), nil
}

// Quote is the two-reserve form trade(amountIn, reserve) used for price previews:
// the same reserve sits on both sides of the ratio.
func Quote(amountIn, reserve *uint256.Int) (*uint256.Int, error) {
	return Trade(amountIn, reserve, reserve)
}

// EggBuy converts lamports into eggs against the current game balance.
func EggBuy(lamports, gameBalance uint64, marketEggs *uint256.Int) (*uint256.Int, error) {
	return Trade(uint256.NewInt(lamports), uint256.NewInt(gameBalance), marketEggs)
}

// EggSell converts eggs into lamports. The result never exceeds gameBalance.
func EggSell(eggs, marketEggs *uint256.Int, gameBalance uint64) (uint64, error) {
	out, err := Trade(eggs, marketEggs, uint256.NewInt(gameBalance))
	if err != nil {
		return 0, err
	}
	return out.Uint64(), nil
}

// ShrimpFor converts eggs into whole shrimp, dropping the remainder.
func ShrimpFor(eggs *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(eggs, eggsPerShrimp)
}

// PremarketShrimp is the virtual production a premarket depositor holds:
// their share of MarketStart eggs (less the 10% haircut) expressed in shrimp.
func PremarketShrimp(playerSpent, totalSpent uint64) *uint256.Int {
	if playerSpent == 0 || totalSpent == 0 {
		return new(uint256.Int)
	}
	share := new(uint256.Int).Mul(uint256.NewInt(playerSpent), uint256.NewInt(shareScale))
	share.Div(share, uint256.NewInt(totalSpent))
	if share.IsZero() {
		return new(uint256.Int)
	}

	eggs, _ := Trade(uint256.NewInt(totalSpent), new(uint256.Int), MarketStart)
	fee := new(uint256.Int).Mul(eggs, uint256.NewInt(premarketFeePercent))
	fee.Div(fee, uint256.NewInt(100))
	eggs.Sub(eggs, fee)

	eggs.Mul(eggs, share)
	eggs.Div(eggs, uint256.NewInt(shareScale))
	return eggs.Div(eggs, eggsPerShrimp)
}

// Production is the egg output of shrimp over elapsed seconds.
func Production(shrimp *uint256.Int, elapsed int64) *uint256.Int {
	if elapsed <= 0 || shrimp.IsZero() {
		return new(uint256.Int)
	}
	return new(uint256.Int).Mul(shrimp, uint256.NewInt(uint64(elapsed)))
}
