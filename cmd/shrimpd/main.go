package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/utils/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "shrimpd",
	Short: "Shrimp farm ledger daemon",
	Long: `shrimpd runs the shrimp farm ledger: a premarket deposit phase followed by a
bonding-curve egg market with referral, dividend and endgame prize pools.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, toml or json); SHRIMP_* env overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(exportCmd)
}

// newLogger builds the daemon logger. Without a log file it writes to the
// console only.
func newLogger(cfg config.LogConfig, withFile bool) (*logger.Logger, error) {
	lc := &logger.Config{
		MaxSize:     cfg.MaxSize,
		MaxAge:      cfg.MaxAge,
		MaxBackups:  cfg.MaxBackups,
		Compress:    cfg.Compress,
		Development: cfg.Development || verbose,
	}
	if withFile {
		lc.LogFile = cfg.File
	}
	return logger.New(lc)
}

// toolLogger is used by the one-shot commands, which print their own output.
func toolLogger() (*zap.Logger, func(), error) {
	if !verbose {
		return zap.NewNop(), func() {}, nil
	}
	l, err := newLogger(config.LogConfig{MaxSize: 1, Development: true}, false)
	if err != nil {
		return nil, nil, err
	}
	return l.Logger, func() { _ = l.Sync() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
