package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/export"
	"github.com/rovshanmuradov/shrimp-farm/internal/node"
)

var exportFlags struct {
	format     string
	out        string
	minSpend   string
	registered bool
}

var exportCmd = &cobra.Command{
	Use:   "export <authority>",
	Short: "Export a game's players as CSV or JSON",
	Long: `Reads the configured store and writes one row per player of the game.
Without --out the export goes to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.format, "format", "csv", "csv or json")
	f.StringVarP(&exportFlags.out, "out", "o", "", "output directory")
	f.StringVar(&exportFlags.minSpend, "min-spend", "0", "skip players who paid in less, SOL")
	f.BoolVar(&exportFlags.registered, "registered", false, "only players with a username")
}

func runExport(cmd *cobra.Command, args []string) error {
	authority, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("invalid authority: %w", err)
	}
	format, err := export.ParseFormat(exportFlags.format)
	if err != nil {
		return err
	}
	minSpend, err := domain.Lamports(exportFlags.minSpend)
	if err != nil {
		return fmt.Errorf("--min-spend: %w", err)
	}

	log, sync, err := toolLogger()
	if err != nil {
		return err
	}
	defer sync()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := node.OpenStore(ctx, cfg.Storage, true, log)
	if err != nil {
		return err
	}
	defer store.Close()

	exporter := export.NewPlayerExporter(store, log)
	opts := export.Options{
		Format:         format,
		MinSpend:       minSpend,
		OnlyRegistered: exportFlags.registered,
		OutputDir:      exportFlags.out,
	}
	if opts.OutputDir == "" {
		_, err = exporter.Write(ctx, cmd.OutOrStdout(), authority, opts)
		return err
	}
	path, err := exporter.Export(ctx, authority, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
