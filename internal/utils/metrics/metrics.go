// internal/utils/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
)

// RecordInstruction записывает метрики инструкции с учетом контекста
func (c *Collector) RecordInstruction(ctx context.Context, instruction string, duration time.Duration, err error) {
	status := "success"
	switch {
	case ctx.Err() != nil:
		status = "cancelled"
	case errors.Is(err, domain.ErrLedgerInconsistent):
		status = "inconsistent"
	case err != nil:
		status = "rejected"
	}

	c.instructionCounter.WithLabelValues(status, instruction).Inc()
	c.instructionDuration.WithLabelValues(instruction).Observe(duration.Seconds())
}

// ObserveGame обновляет метрики пулов после коммита
func (c *Collector) ObserveGame(g *domain.GameState) {
	authority := g.Authority.String()
	pools := map[string]uint64{
		"treasury":     g.Treasury,
		"dev":          g.DevBalance,
		"sell_and_ref": g.SellAndRefBalance,
		"premarket":    g.PremarketBalance,
		"withdrawable": g.TotalWithdrawable,
		"prize":        g.OutstandingPrize(),
		"game":         g.GameBalance(),
	}
	for pool, v := range pools {
		c.poolBalance.WithLabelValues(authority, pool).Set(float64(v))
	}
	c.marketEggs.WithLabelValues(authority).Set(g.MarketEggs.Float64())
}

// Handle counts every event; subscribe it with events.All.
func (c *Collector) Handle(_ context.Context, event events.Event) error {
	c.eventCounter.WithLabelValues(string(event.Type())).Inc()
	return nil
}
