// internal/node/runner.go
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/shrimp-farm/internal/api"
	"github.com/rovshanmuradov/shrimp-farm/internal/assets"
	"github.com/rovshanmuradov/shrimp-farm/internal/bonus"
	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/game"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/postgres"
	"github.com/rovshanmuradov/shrimp-farm/internal/utils/metrics"
)

const shutdownTimeout = 15 * time.Second

// LedgerOptions maps the game section of the config onto ledger options.
func LedgerOptions(cfg config.GameConfig) (game.Options, error) {
	gate, err := game.ParseGate(cfg.PremarketGate)
	if err != nil {
		return game.Options{}, err
	}
	composition, err := bonus.ParseComposition(cfg.BonusComposition)
	if err != nil {
		return game.Options{}, err
	}
	return game.Options{
		ProgramID:   config.MustKey(cfg.ProgramID),
		Owner:       config.MustKey(cfg.Owner),
		RentReserve: cfg.RentReserve,
		Gate:        gate,
		Bonus:       bonus.Calculator{Composition: composition},
	}, nil
}

// Runner owns the daemon's services: store, bus, ledger, event index and
// the read API.
type Runner struct {
	logger   *zap.Logger
	config   *config.Config
	store    storage.Store
	bus      *events.Bus
	ledger   *game.Ledger
	index    *postgres.Index
	metrics  *metrics.Collector
	assets   *assets.Registry
	shutdown *ShutdownHandler
}

func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{
		logger:   logger.Named("node"),
		config:   cfg,
		metrics:  metrics.NewCollector(),
		assets:   assets.NewRegistry(),
		shutdown: NewShutdownHandler(logger, shutdownTimeout),
	}
}

// Initialize opens every service. Services opened before a failure are
// closed by Shutdown.
func (r *Runner) Initialize(ctx context.Context) error {
	opts, err := LedgerOptions(r.config.Game)
	if err != nil {
		return fmt.Errorf("ledger options: %w", err)
	}

	r.store, err = OpenStore(ctx, r.config.Storage, false, r.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	r.shutdown.Add("store", r.store)

	r.bus = events.NewBus(r.logger, r.config.Game.EventBuffer)
	r.shutdown.AddFunc("event_bus", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return r.bus.Shutdown(ctx)
	})
	r.bus.Subscribe(events.All, r.metrics)

	if r.config.Storage.PostgresURL != "" {
		r.index, err = OpenIndex(ctx, r.config.Storage, r.logger)
		if err != nil {
			return fmt.Errorf("open event index: %w", err)
		}
		r.shutdown.Add("event_index", r.index)
		r.bus.Subscribe(events.All, r.index)
	}

	opts.Verifier = r.assets
	opts.Issuer = r.assets
	opts.Metrics = r.metrics
	r.ledger = game.New(r.store, r.bus, opts, r.logger)

	r.logger.Info("Node initialized",
		zap.String("driver", r.config.Storage.Driver),
		zap.Bool("event_index", r.index != nil),
		zap.String("premarket_gate", string(opts.Gate)),
		zap.String("bonus_composition", string(opts.Bonus.Composition)))
	return nil
}

func (r *Runner) Ledger() *game.Ledger {
	return r.ledger
}

// Handler is the read API with /metrics mounted.
func (r *Runner) Handler() http.Handler {
	var index api.EventSource
	if r.index != nil {
		index = r.index
	}
	return api.New(r.config.API, r.ledger, index, r.metrics.Handler(), r.logger).Handler()
}

// Run listens on the configured address and serves until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.API.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.API.Listen, err)
	}
	return r.Serve(ctx, ln)
}

// Serve runs the API on ln and stops it gracefully when ctx is done.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      r.Handler(),
		ReadTimeout:  r.config.API.ReadTimeout,
		WriteTimeout: r.config.API.WriteTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("API listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve api: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown closes every service opened by Initialize.
func (r *Runner) Shutdown(ctx context.Context) error {
	err := r.shutdown.Shutdown(ctx)
	if syncErr := r.logger.Sync(); syncErr != nil {
		r.logger.Debug("Logger sync failed", zap.Error(syncErr))
	}
	return err
}
