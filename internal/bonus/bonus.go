// internal/bonus/bonus.go
package bonus

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	NFTPercent     = 10
	TestnetPercent = 1
)

// Composition decides how the NFT and testnet bonuses combine.
type Composition string

const (
	// Exclusive applies the NFT bonus if present, otherwise the testnet bonus.
	Exclusive Composition = "exclusive"
	// Additive stacks both bonuses.
	Additive Composition = "additive"
)

// ParseComposition accepts "exclusive" and "additive"; empty means exclusive.
func ParseComposition(s string) (Composition, error) {
	switch Composition(s) {
	case "", Exclusive:
		return Exclusive, nil
	case Additive:
		return Additive, nil
	default:
		return "", fmt.Errorf("unknown bonus composition %q", s)
	}
}

// Calculator computes the yield bonus percent for hatch and sell.
type Calculator struct {
	Composition Composition
}

func (c Calculator) Percent(hasNFT, testnet bool) uint64 {
	if c.Composition == Additive {
		var p uint64
		if hasNFT {
			p += NFTPercent
		}
		if testnet {
			p += TestnetPercent
		}
		return p
	}
	switch {
	case hasNFT:
		return NFTPercent
	case testnet:
		return TestnetPercent
	default:
		return 0
	}
}

// Apply returns eggs*(100+percent)/100.
func Apply(eggs *uint256.Int, percent uint64) *uint256.Int {
	out := new(uint256.Int).Set(eggs)
	if percent == 0 {
		return out
	}
	out.Mul(out, uint256.NewInt(100+percent))
	return out.Div(out, uint256.NewInt(100))
}
