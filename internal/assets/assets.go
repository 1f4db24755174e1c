// internal/assets/assets.go
package assets

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Handle points at an asset the caller claims to hold.
type Handle struct {
	Asset solana.PublicKey
}

// Verifier answers whether a player holds a qualifying asset of a collection.
type Verifier interface {
	HoldsQualifying(ctx context.Context, player, collection solana.PublicKey, handle *Handle) (bool, error)
}

// Issuer mints collection assets on the ledger's behalf.
type Issuer interface {
	Mint(ctx context.Context, recipient, collection solana.PublicKey) (solana.PublicKey, error)
}

type record struct {
	owner      solana.PublicKey
	collection solana.PublicKey
}

// Registry is an in-process asset service. It implements Verifier and Issuer.
type Registry struct {
	mu     sync.RWMutex
	assets map[solana.PublicKey]record
}

var (
	_ Verifier = (*Registry)(nil)
	_ Issuer   = (*Registry)(nil)
)

func NewRegistry() *Registry {
	return &Registry{assets: make(map[solana.PublicKey]record)}
}

// Mint creates a new asset in collection owned by recipient.
func (r *Registry) Mint(_ context.Context, recipient, collection solana.PublicKey) (solana.PublicKey, error) {
	if collection.IsZero() {
		return solana.PublicKey{}, domain.ErrCollectionNotSet
	}
	asset := solana.NewWallet().PublicKey()

	r.mu.Lock()
	r.assets[asset] = record{owner: recipient, collection: collection}
	r.mu.Unlock()
	return asset, nil
}

// Transfer moves an asset to a new owner.
func (r *Registry) Transfer(asset, to solana.PublicKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.assets[asset]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAsset, asset)
	}
	rec.owner = to
	r.assets[asset] = rec
	return nil
}

// HoldsQualifying is false for a nil handle. A handle naming an unknown
// asset, or one outside the collection, is an error.
func (r *Registry) HoldsQualifying(_ context.Context, player, collection solana.PublicKey, handle *Handle) (bool, error) {
	if handle == nil {
		return false, nil
	}
	r.mu.RLock()
	rec, ok := r.assets[handle.Asset]
	r.mu.RUnlock()
	if !ok || !rec.collection.Equals(collection) {
		return false, fmt.Errorf("%w: %s", domain.ErrInvalidAsset, handle.Asset)
	}
	return rec.owner.Equals(player), nil
}
