package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/node"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the ledger and serve the read API until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log, true)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := log.TrackPerformance("serve")
	defer done()

	runner := node.NewRunner(cfg, log.Logger)
	defer func() {
		if err := runner.Shutdown(context.Background()); err != nil {
			log.LogError("Shutdown failed", err)
		}
	}()
	if err := runner.Initialize(ctx); err != nil {
		return err
	}

	log.Info("Starting shrimpd",
		zap.String("listen", cfg.API.Listen),
		zap.String("config", configPath))
	return runner.Run(ctx)
}
