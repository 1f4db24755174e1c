package main

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/shrimp-farm/internal/curve"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/fees"
)

var quoteFlags struct {
	reserve  string
	market   string
	amount   string
	eggs     string
	dividend bool
	referred bool
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a buy or a sell against the bonding curve",
	Long: `Prices a live buy of --amount SOL, or a sell of --eggs eggs, against a game
balance of --reserve SOL and a market of --market eggs. Fees are taken the way
the ledger takes them.`,
	Example: `  shrimpd quote --reserve 10 --amount 0.5
  shrimpd quote --reserve 10 --eggs 86400000 --market 900000000000`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	f := quoteCmd.Flags()
	f.StringVar(&quoteFlags.reserve, "reserve", "", "game balance in SOL")
	f.StringVar(&quoteFlags.market, "market", curve.MarketStart.Dec(), "market eggs")
	f.StringVar(&quoteFlags.amount, "amount", "", "buy amount in SOL")
	f.StringVar(&quoteFlags.eggs, "eggs", "", "eggs to sell")
	f.BoolVar(&quoteFlags.dividend, "dividend", true, "charge the 6% premarket dividend")
	f.BoolVar(&quoteFlags.referred, "referred", false, "buyer has a referrer")
	_ = quoteCmd.MarkFlagRequired("reserve")
}

func runQuote(cmd *cobra.Command, _ []string) error {
	reserve, err := domain.Lamports(quoteFlags.reserve)
	if err != nil {
		return fmt.Errorf("--reserve: %w", err)
	}
	market, err := uint256.FromDecimal(quoteFlags.market)
	if err != nil {
		return fmt.Errorf("--market: %w", err)
	}
	w := cmd.OutOrStdout()

	switch {
	case quoteFlags.amount != "" && quoteFlags.eggs != "":
		return errors.New("--amount and --eggs are exclusive")
	case quoteFlags.amount != "":
		amount, err := domain.Lamports(quoteFlags.amount)
		if err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		b := fees.SplitLive(amount, quoteFlags.referred, quoteFlags.dividend)
		eggs, err := curve.EggBuy(b.Net, reserve, market)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "buy      %s SOL\n", domain.SOL(amount))
		fmt.Fprintf(w, "fees     %s SOL\n", domain.SOL(b.Fees()))
		fmt.Fprintf(w, "net      %s SOL\n", domain.SOL(b.Net))
		fmt.Fprintf(w, "eggs     %s\n", eggs.Dec())
		fmt.Fprintf(w, "shrimp   %s\n", curve.ShrimpFor(eggs).Dec())
	case quoteFlags.eggs != "":
		eggs, err := uint256.FromDecimal(quoteFlags.eggs)
		if err != nil {
			return fmt.Errorf("--eggs: %w", err)
		}
		proceeds, err := curve.EggSell(eggs, market, reserve)
		if err != nil {
			return err
		}
		b := fees.SplitSell(proceeds, quoteFlags.dividend)
		fmt.Fprintf(w, "sell     %s eggs\n", eggs.Dec())
		fmt.Fprintf(w, "proceeds %s SOL\n", domain.SOL(proceeds))
		fmt.Fprintf(w, "fees     %s SOL\n", domain.SOL(b.Fees()))
		fmt.Fprintf(w, "net      %s SOL\n", domain.SOL(b.Net))
	default:
		return errors.New("one of --amount or --eggs is required")
	}
	return nil
}
