// internal/api/views.go
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/shrimp-farm/internal/curve"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/fees"
	"github.com/rovshanmuradov/shrimp-farm/internal/game"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/models"
)

// Amounts are rendered as SOL strings; egg and shrimp counters as decimal
// integer strings since they exceed 2^53.

type poolsView struct {
	Treasury     decimal.Decimal `json:"treasury"`
	Dev          decimal.Decimal `json:"dev"`
	SellAndRef   decimal.Decimal `json:"sell_and_ref"`
	Premarket    decimal.Decimal `json:"premarket"`
	Withdrawable decimal.Decimal `json:"withdrawable"`
	Prize        decimal.Decimal `json:"prize"`
	Game         decimal.Decimal `json:"game"`
}

type gameView struct {
	Authority      string          `json:"authority"`
	Phase          string          `json:"phase"`
	GameOver       bool            `json:"game_over"`
	TestMode       bool            `json:"test_mode"`
	PremarketEnd   time.Time       `json:"premarket_end"`
	CooldownSecs   uint64          `json:"cooldown_secs"`
	MarketEggs     string          `json:"market_eggs"`
	Pools          poolsView       `json:"pools"`
	PremarketSpent decimal.Decimal `json:"premarket_spent"`
	FinalBalance   decimal.Decimal `json:"final_balance"`
	Collection     string          `json:"collection,omitempty"`
	NftsMinted     uint16          `json:"nfts_minted"`
	EventIndex     uint64          `json:"event_index"`
	GameIndex      uint64          `json:"game_index"`
}

func newGameView(g *domain.GameState) gameView {
	v := gameView{
		Authority:    g.Authority.String(),
		Phase:        g.Phase.String(),
		GameOver:     g.GameOver,
		TestMode:     g.TestMode,
		PremarketEnd: time.Unix(g.PremarketEnd, 0).UTC(),
		CooldownSecs: g.CooldownSecs,
		MarketEggs:   g.MarketEggs.Dec(),
		Pools: poolsView{
			Treasury:     domain.SOL(g.Treasury),
			Dev:          domain.SOL(g.DevBalance),
			SellAndRef:   domain.SOL(g.SellAndRefBalance),
			Premarket:    domain.SOL(g.PremarketBalance),
			Withdrawable: domain.SOL(g.TotalWithdrawable),
			Prize:        domain.SOL(g.OutstandingPrize()),
			Game:         domain.SOL(g.GameBalance()),
		},
		PremarketSpent: domain.SOL(g.TotalPremarketSpent),
		FinalBalance:   domain.SOL(g.FinalBalance),
		NftsMinted:     g.NftsMinted,
		EventIndex:     g.EventIndex,
		GameIndex:      g.GameIndex,
	}
	if !g.Collection.IsZero() {
		v.Collection = g.Collection.String()
	}
	return v
}

type playerSummary struct {
	Owner          string          `json:"owner"`
	Username       string          `json:"username,omitempty"`
	Shrimp         string          `json:"shrimp"`
	PremarketSpent decimal.Decimal `json:"premarket_spent"`
	LiveSpent      decimal.Decimal `json:"live_spent"`
}

func newPlayerSummary(p *domain.PlayerState) playerSummary {
	return playerSummary{
		Owner:          p.Owner.String(),
		Username:       p.Username,
		Shrimp:         p.Shrimp.Dec(),
		PremarketSpent: domain.SOL(p.PremarketSpent),
		LiveSpent:      domain.SOL(p.LiveSpendTotal),
	}
}

type claimableView struct {
	Referral decimal.Decimal `json:"referral"`
	Sell     decimal.Decimal `json:"sell"`
	Dividend decimal.Decimal `json:"dividend"`
	Prize    decimal.Decimal `json:"prize"`
	Total    decimal.Decimal `json:"total"`
}

type playerView struct {
	playerSummary
	Eggs         string        `json:"eggs"`
	TotalShrimp  string        `json:"total_shrimp"`
	Referrer     string        `json:"referrer,omitempty"`
	LastHatchAt  int64         `json:"last_hatch_at"`
	LastSellAt   int64         `json:"last_sell_at"`
	HasMinted    bool          `json:"has_minted"`
	PrizeClaimed bool          `json:"prize_claimed"`
	TestnetBonus bool          `json:"testnet_bonus"`
	Claimable    claimableView `json:"claimable"`
}

func newPlayerView(p *domain.PlayerState, eggs, shrimp *uint256.Int, w game.Withdrawal) playerView {
	v := playerView{
		playerSummary: newPlayerSummary(p),
		Eggs:          eggs.Dec(),
		TotalShrimp:   shrimp.Dec(),
		LastHatchAt:   p.LastHatchAt,
		LastSellAt:    p.LastSellAt,
		HasMinted:     p.HasMinted,
		PrizeClaimed:  p.PrizeClaimed,
		TestnetBonus:  p.TestnetBonus,
		Claimable: claimableView{
			Referral: domain.SOL(w.Referral),
			Sell:     domain.SOL(w.Sell),
			Dividend: domain.SOL(w.Dividend),
			Prize:    domain.SOL(w.Prize),
			Total:    domain.SOL(w.Total()),
		},
	}
	if !p.CurrentReferrer.IsZero() {
		v.Referrer = p.CurrentReferrer.String()
	}
	return v
}

type quoteView struct {
	Amount      decimal.Decimal `json:"amount"`
	Fees        decimal.Decimal `json:"fees"`
	Net         decimal.Decimal `json:"net"`
	Eggs        string          `json:"eggs"`
	Shrimp      string          `json:"shrimp"`
	GameBalance decimal.Decimal `json:"game_balance"`
}

// newQuoteView prices an unreferred live buy.
func newQuoteView(g *domain.GameState, amount uint64) (quoteView, error) {
	b := fees.SplitLive(amount, false, g.TotalPremarketSnapshot > 0)
	eggs, err := curve.EggBuy(b.Net, g.GameBalance(), &g.MarketEggs)
	if err != nil {
		return quoteView{}, fmt.Errorf("quote: %w", err)
	}
	return quoteView{
		Amount:      domain.SOL(amount),
		Fees:        domain.SOL(b.Fees()),
		Net:         domain.SOL(b.Net),
		Eggs:        eggs.Dec(),
		Shrimp:      curve.ShrimpFor(eggs).Dec(),
		GameBalance: domain.SOL(g.GameBalance()),
	}, nil
}

type eventView struct {
	Index      uint64          `json:"event_index"`
	GameIndex  uint64          `json:"game_index"`
	Type       string          `json:"type"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func newEventView(r models.EventRecord) eventView {
	return eventView{
		Index:      r.EventIndex,
		GameIndex:  r.GameIndex,
		Type:       r.Type,
		Actor:      r.Actor,
		OccurredAt: r.OccurredAt,
		Payload:    json.RawMessage(r.Payload),
	}
}
