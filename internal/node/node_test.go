package node

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/shrimp-farm/internal/bonus"
	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/game"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/leveldb"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestShutdownClosesInReverseOrder(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), time.Second)
	var order []string
	boom := errors.New("boom")

	sh.AddFunc("store", func() error { order = append(order, "store"); return nil })
	sh.AddFunc("bus", func() error { order = append(order, "bus"); return boom })
	sh.AddFunc("index", func() error { order = append(order, "index"); return nil })

	err := sh.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"index", "bus", "store"}, order)

	// a second shutdown has nothing left to close
	require.NoError(t, sh.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdownTimeout(t *testing.T) {
	sh := NewShutdownHandler(zap.NewNop(), 50*time.Millisecond)
	release := make(chan struct{})
	sh.AddFunc("stuck", func() error {
		<-release
		return nil
	})

	err := sh.Shutdown(context.Background())
	close(release)
	assert.ErrorContains(t, err, "stuck: shutdown timeout")
}

func TestLedgerOptions(t *testing.T) {
	cfg := config.GameConfig{
		ProgramID:        config.DefaultProgramID,
		Owner:            config.DefaultOwner,
		RentReserve:      config.DefaultRentReserve,
		PremarketGate:    "timestamp",
		BonusComposition: "additive",
	}
	opts, err := LedgerOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, game.GateTimestamp, opts.Gate)
	assert.Equal(t, bonus.Additive, opts.Bonus.Composition)
	assert.Equal(t, config.DefaultOwner, opts.Owner.String())
	assert.Equal(t, uint64(config.DefaultRentReserve), opts.RentReserve)

	cfg.PremarketGate = "vote"
	_, err = LedgerOptions(cfg)
	assert.Error(t, err)
}

func TestOpenStoreWaitsForLock(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shrimp.db")

	held, err := leveldb.Open(path, leveldb.Options{}, zap.NewNop())
	require.NoError(t, err)
	released := make(chan struct{})
	time.AfterFunc(300*time.Millisecond, func() {
		_ = held.Close()
		close(released)
	})

	store, err := OpenStore(ctx, config.StorageConfig{Driver: config.DriverLevelDB, Path: path, OpenRetries: 20}, false, zaptest.NewLogger(t))
	require.NoError(t, err)
	<-released
	require.NoError(t, store.Close())
}

func TestOpenStoreGivesUp(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shrimp.db")
	held, err := leveldb.Open(path, leveldb.Options{}, zap.NewNop())
	require.NoError(t, err)
	defer held.Close()

	_, err = OpenStore(ctx, config.StorageConfig{Driver: config.DriverLevelDB, Path: path, OpenRetries: 2}, false, zap.NewNop())
	assert.Error(t, err)

	_, err = OpenStore(ctx, config.StorageConfig{Driver: "bolt"}, false, zap.NewNop())
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestRunnerServesAPI(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Storage.Driver = config.DriverMemory

	r := NewRunner(cfg, zaptest.NewLogger(t))
	require.NoError(t, r.Initialize(context.Background()))
	require.NotNil(t, r.Ledger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	for _, path := range []string{"/healthz", "/metrics", "/v1/games"} {
		resp, err := client.Get("http://" + ln.Addr().String() + path)
		require.NoError(t, err, path)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, r.Shutdown(context.Background()))
}
