package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/dashboard"
	"github.com/rovshanmuradov/shrimp-farm/internal/node"
	"github.com/rovshanmuradov/shrimp-farm/internal/utils/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	interval := flag.Duration("refresh", 5*time.Second, "Auto refresh interval, 0 to disable")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Storage.Driver != config.DriverLevelDB {
		log.Fatalf("tui reads a leveldb store, storage.driver is %q", cfg.Storage.Driver)
	}

	// Консоль занята интерфейсом: пишем только в файл
	appLogger, err := logger.New(&logger.Config{
		LogFile:    cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
		Quiet:      true,
	})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLogger.Close()

	tuiLog := appLogger.WithComponent("tui")

	store, err := node.OpenStore(rootCtx, cfg.Storage, true, tuiLog)
	if err != nil {
		tuiLog.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	program := tea.NewProgram(
		dashboard.New(store, *interval, tuiLog),
		tea.WithAltScreen(),
		tea.WithContext(rootCtx),
	)
	if _, err := program.Run(); err != nil && rootCtx.Err() == nil {
		tuiLog.Error("TUI application failed", zap.Error(err))
	}
}
