// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
)

type playerKey struct {
	authority solana.PublicKey
	owner     solana.PublicKey
}

type nameKey struct {
	authority solana.PublicKey
	name      string
}

// Store keeps every record in maps. Reads and writes hand out copies.
type Store struct {
	mu        sync.RWMutex
	lock      domain.LockState
	games     map[solana.PublicKey]*domain.GameState
	players   map[playerKey]*domain.PlayerState
	usernames map[nameKey]solana.PublicKey
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		games:     make(map[solana.PublicKey]*domain.GameState),
		players:   make(map[playerKey]*domain.PlayerState),
		usernames: make(map[nameKey]solana.PublicKey),
	}
}

func (s *Store) Lock(_ context.Context) (domain.LockState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lock, nil
}

func (s *Store) Game(_ context.Context, authority solana.PublicKey) (*domain.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[authority]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *Store) Games(_ context.Context) ([]solana.PublicKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]solana.PublicKey, 0, len(s.games))
	for k := range s.games {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) Player(_ context.Context, authority, owner solana.PublicKey) (*domain.PlayerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerKey{authority, owner}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *Store) Players(_ context.Context, authority solana.PublicKey) ([]*domain.PlayerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.PlayerState
	for k, p := range s.players {
		if k.authority == authority {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner.String() < out[j].Owner.String() })
	return out, nil
}

func (s *Store) UsernameOwner(_ context.Context, authority solana.PublicKey, name string) (solana.PublicKey, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.usernames[nameKey{authority, name}]
	return owner, ok, nil
}

// Commit applies cs under the write lock.
func (s *Store) Commit(_ context.Context, cs *storage.Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs.Lock != nil {
		s.lock = *cs.Lock
	}
	if cs.Game != nil {
		s.games[cs.Authority] = cs.Game.Clone()
	}
	for _, p := range cs.Players {
		s.players[playerKey{cs.Authority, p.Owner}] = p.Clone()
	}
	for _, u := range cs.Usernames {
		s.usernames[nameKey{cs.Authority, u.Name}] = u.Owner
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
