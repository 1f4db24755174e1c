// internal/dividend/dividend.go
package dividend

import "github.com/holiman/uint256"

// Share is floor(spent*pool/total), the part of pool owed to a depositor
// holding spent out of total. It is zero when total is zero.
func Share(spent, pool, total uint64) uint64 {
	if total == 0 || spent == 0 || pool == 0 {
		return 0
	}
	v := new(uint256.Int).Mul(uint256.NewInt(spent), uint256.NewInt(pool))
	v.Div(v, uint256.NewInt(total))
	if !v.IsUint64() {
		// spent > total cannot happen for a consistent ledger; cap at the pool
		return pool
	}
	return v.Uint64()
}

// Due is what still has to be credited given already credited amount.
// Calling it again after crediting the result returns zero until the pool grows.
func Due(spent, pool, total, already uint64) uint64 {
	s := Share(spent, pool, total)
	if s <= already {
		return 0
	}
	return s - already
}
