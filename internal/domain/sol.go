// internal/domain/sol.go
package domain

import "github.com/shopspring/decimal"

const LamportsPerSOL = 1_000_000_000

// SOL converts lamports to SOL without rounding.
func SOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-9)
}

// Lamports parses a SOL amount, truncating below one lamport.
func Lamports(sol string) (uint64, error) {
	d, err := decimal.NewFromString(sol)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	l := d.Shift(9).Truncate(0)
	if !l.BigInt().IsUint64() {
		return 0, ErrInvalidAmount
	}
	return l.BigInt().Uint64(), nil
}
