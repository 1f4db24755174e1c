package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/game"
	"github.com/rovshanmuradov/shrimp-farm/internal/node"
	"github.com/rovshanmuradov/shrimp-farm/internal/scenario"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/memory"
)

var replayUseStore bool

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Replay a scripted game and print the resulting pools",
	Long: `Replays a YAML scenario against a fresh in-memory ledger under a scripted
clock. With --store the configured store is used instead; the scenario game is
then persisted under the scenario authority.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayUseStore, "store", false, "replay into the configured store instead of memory")
}

func runReplay(cmd *cobra.Command, args []string) error {
	log, sync, err := toolLogger()
	if err != nil {
		return err
	}
	defer sync()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	opts, err := node.LedgerOptions(cfg.Game)
	if err != nil {
		return err
	}

	s, err := scenario.Load(args[0], log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var store storage.Store = memory.New()
	if replayUseStore {
		if store, err = node.OpenStore(ctx, cfg.Storage, false, log); err != nil {
			return err
		}
	}
	defer store.Close()

	bus := events.NewBus(log, cfg.Game.EventBuffer)
	defer bus.Shutdown(ctx)
	counts := make(map[events.EventType]int)
	bus.SubscribeFunc(events.All, func(_ context.Context, e events.Event) error {
		counts[e.Type()]++
		return nil
	})

	ledger := game.New(store, bus, opts, log)
	res, err := scenario.NewRunner(ledger, log).Run(ctx, s)
	if res != nil {
		printOutcomes(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res, counts)
	return nil
}

func printOutcomes(w io.Writer, res *scenario.Result) {
	for _, o := range res.Outcomes {
		status := "ok"
		if o.Err != nil {
			status = o.Err.Error()
		}
		line := fmt.Sprintf("%3d  %-18s %-10s %s", o.Step, o.Op, o.Actor, status)
		if o.Paid > 0 {
			line += fmt.Sprintf(" (paid %s SOL)", domain.SOL(o.Paid))
		}
		fmt.Fprintln(w, line)
	}
}

func printResult(w io.Writer, res *scenario.Result, counts map[events.EventType]int) {
	g := res.Game
	fmt.Fprintf(w, "\nscenario %q: phase %s, game over %t\n", res.Name, g.Phase, g.GameOver)
	fmt.Fprintf(w, "market eggs %s\n\n", g.MarketEggs.Dec())

	pools := []struct {
		name string
		v    uint64
	}{
		{"treasury", g.Treasury},
		{"dev", g.DevBalance},
		{"sell_and_ref", g.SellAndRefBalance},
		{"premarket", g.PremarketBalance},
		{"withdrawable", g.TotalWithdrawable},
		{"prize", g.OutstandingPrize()},
		{"game", g.GameBalance()},
	}
	for _, p := range pools {
		fmt.Fprintf(w, "%-14s %s SOL\n", p.name, domain.SOL(p.v))
	}

	names := make([]string, 0, len(res.Players))
	for name := range res.Players {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w)
	for _, name := range names {
		p := res.Players[name]
		fmt.Fprintf(w, "%-10s shrimp %-14s spent %s SOL\n", name, p.Shrimp.Dec(), domain.SOL(p.TotalSpend()))
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	fmt.Fprintln(w)
	for _, t := range types {
		fmt.Fprintf(w, "%-24s %d\n", t, counts[events.EventType(t)])
	}
}
