// internal/storage/leveldb/leveldb.go
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	ldb "github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
)

var (
	lockKey      = []byte("lock")
	gamePrefix   = []byte("g/")
	playerPrefix = []byte("p/")
	namePrefix   = []byte("n/")
)

func gameKey(authority solana.PublicKey) []byte {
	return join(gamePrefix, authority[:])
}

func playerKey(authority, owner solana.PublicKey) []byte {
	return join(playerPrefix, authority[:], owner[:])
}

func nameKey(authority solana.PublicKey, name string) []byte {
	return join(namePrefix, authority[:], []byte(name))
}

func join(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Options configures how the database is opened.
type Options struct {
	ReadOnly bool
}

// Store persists game records in LevelDB. Every changeset is one synced batch.
type Store struct {
	db     *ldb.DB
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// Open creates or opens a LevelDB database at path.
func Open(path string, opts Options, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("leveldb path required")
	}
	db, err := ldb.OpenFile(filepath.Clean(path), &opt.Options{ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	logger.Named("leveldb").Info("Store opened",
		zap.String("path", path),
		zap.Bool("read_only", opts.ReadOnly))
	return &Store{db: db, logger: logger.Named("leveldb")}, nil
}

func (s *Store) get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, ldb.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	return v, err
}

func (s *Store) Lock(_ context.Context) (domain.LockState, error) {
	v, err := s.get(lockKey)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.LockUnlocked, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read lock: %w", err)
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("read lock: corrupt value %x", v)
	}
	return domain.LockState(v[0]), nil
}

func (s *Store) Game(_ context.Context, authority solana.PublicKey) (*domain.GameState, error) {
	v, err := s.get(gameKey(authority))
	if err != nil {
		return nil, err
	}
	return decodeGame(v)
}

func (s *Store) Games(_ context.Context) ([]solana.PublicKey, error) {
	it := s.db.NewIterator(util.BytesPrefix(gamePrefix), nil)
	defer it.Release()

	var out []solana.PublicKey
	for it.Next() {
		out = append(out, solana.PublicKeyFromBytes(it.Key()[len(gamePrefix):]))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return out, nil
}

func (s *Store) Player(_ context.Context, authority, owner solana.PublicKey) (*domain.PlayerState, error) {
	v, err := s.get(playerKey(authority, owner))
	if err != nil {
		return nil, err
	}
	return decodePlayer(v)
}

func (s *Store) Players(_ context.Context, authority solana.PublicKey) ([]*domain.PlayerState, error) {
	it := s.db.NewIterator(util.BytesPrefix(join(playerPrefix, authority[:])), nil)
	defer it.Release()

	var out []*domain.PlayerState
	for it.Next() {
		p, err := decodePlayer(it.Value())
		if err != nil {
			return nil, fmt.Errorf("player %x: %w", it.Key(), err)
		}
		out = append(out, p)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return out, nil
}

func (s *Store) UsernameOwner(_ context.Context, authority solana.PublicKey, name string) (solana.PublicKey, bool, error) {
	v, err := s.get(nameKey(authority, name))
	if errors.Is(err, storage.ErrNotFound) {
		return solana.PublicKey{}, false, nil
	}
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("read username: %w", err)
	}
	if len(v) != solana.PublicKeyLength {
		return solana.PublicKey{}, false, fmt.Errorf("username %q: corrupt owner", name)
	}
	return solana.PublicKeyFromBytes(v), true, nil
}

// Commit encodes the whole changeset first so a codec error writes nothing.
func (s *Store) Commit(_ context.Context, cs *storage.Changeset) error {
	batch := new(ldb.Batch)

	if cs.Lock != nil {
		batch.Put(lockKey, []byte{byte(*cs.Lock)})
	}
	if cs.Game != nil {
		v, err := encodeGame(cs.Game)
		if err != nil {
			return fmt.Errorf("encode game: %w", err)
		}
		batch.Put(gameKey(cs.Authority), v)
	}
	for _, p := range cs.Players {
		v, err := encodePlayer(p)
		if err != nil {
			return fmt.Errorf("encode player %s: %w", p.Owner, err)
		}
		batch.Put(playerKey(cs.Authority, p.Owner), v)
	}
	for _, u := range cs.Usernames {
		owner := u.Owner
		batch.Put(nameKey(cs.Authority, u.Name), owner[:])
	}

	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	s.logger.Debug("Changeset committed",
		zap.String("authority", cs.Authority.String()),
		zap.Int("records", batch.Len()))
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
