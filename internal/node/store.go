// internal/node/store.go
package node

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/leveldb"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/memory"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/postgres"
)

const retryInterval = 200 * time.Millisecond

func retryPolicy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInterval
	b.MaxInterval = retryInterval * 10
	return b
}

func tries(n int) uint {
	if n <= 0 {
		return 1
	}
	return uint(n)
}

// OpenStore opens the configured game store. LevelDB holds a file lock, so a
// store still held by a previous process is retried with backoff.
func OpenStore(ctx context.Context, cfg config.StorageConfig, readOnly bool, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverLevelDB:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	notify := func(err error, d time.Duration) {
		logger.Warn("Повтор открытия хранилища", zap.Error(err), zap.Duration("backoff", d))
	}
	operation := func() (*leveldb.Store, error) {
		return leveldb.Open(cfg.Path, leveldb.Options{ReadOnly: readOnly}, logger)
	}
	store, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(retryPolicy()),
		backoff.WithMaxTries(tries(cfg.OpenRetries)),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// OpenIndex connects the event index and runs its migrations.
func OpenIndex(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*postgres.Index, error) {
	notify := func(err error, d time.Duration) {
		logger.Warn("Повтор подключения к индексу событий", zap.Error(err), zap.Duration("backoff", d))
	}
	operation := func() (*postgres.Index, error) {
		idx, err := postgres.NewIndex(cfg.PostgresURL, logger)
		if err != nil {
			return nil, err
		}
		if err := idx.RunMigrations(); err != nil {
			_ = idx.Close()
			return nil, err
		}
		return idx, nil
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(retryPolicy()),
		backoff.WithMaxTries(tries(cfg.OpenRetries)),
		backoff.WithNotify(notify))
}
