// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// Version is bumped whenever an event payload changes shape.
const Version uint8 = 1

// EventType represents the type of event.
type EventType string

const (
	// All subscribes a handler to every event type.
	All EventType = "*"

	// Admin events
	Initialized      EventType = "game.initialized"
	ProgramGuardsSet EventType = "game.program_guards_set"
	PremarketEnded   EventType = "game.premarket_ended"
	MarketUpdated    EventType = "game.market_updated"
	CollectionSet    EventType = "game.collection_set"
	MinterSet        EventType = "game.minter_set"
	GameOver         EventType = "game.over"

	// Trading events
	PremarketBuy EventType = "player.premarket_buy"
	Buy          EventType = "player.buy"
	Hatch        EventType = "player.hatch"
	Sell         EventType = "player.sell"

	// Account events
	UserRegistered      EventType = "player.registered"
	TestnetBonusToggled EventType = "player.testnet_bonus"
	NftMinted           EventType = "player.nft_minted"
	AdminMinted         EventType = "player.admin_minted"
	UserWithdrawn       EventType = "player.withdrawn"
	DevWithdrawn        EventType = "dev.withdrawn"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Header() BaseEvent
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType  EventType        `json:"type"`
	EventTime  time.Time        `json:"time"`
	Version    uint8            `json:"version"`
	GameIndex  uint64           `json:"game_index"`
	EventIndex uint64           `json:"event_index"`
	Authority  solana.PublicKey `json:"authority"`
	Actor      solana.PublicKey `json:"actor"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// Header returns the common fields.
func (e BaseEvent) Header() BaseEvent {
	return e
}

// InitializedEvent is emitted once per game.
type InitializedEvent struct {
	BaseEvent
	Devs         [3]solana.PublicKey `json:"devs"`
	PremarketEnd int64               `json:"premarket_end"`
	CooldownSecs uint64              `json:"cooldown_secs"`
	TestMode     bool                `json:"test_mode"`
	RentReserve  uint64              `json:"rent_reserve"`
}

type ProgramGuardsSetEvent struct {
	BaseEvent
	MaxInstructions uint8              `json:"max_instructions"`
	Allowed         []solana.PublicKey `json:"allowed"`
}

// PremarketBuyEvent records a premarket deposit.
type PremarketBuyEvent struct {
	BaseEvent
	Amount      uint64           `json:"amount"`
	Referrer    solana.PublicKey `json:"referrer"`
	DevFee      uint64           `json:"dev_fee"`
	ReferralFee uint64           `json:"referral_fee"`
	Cashback    uint64           `json:"cashback"`
	PlayerSpent uint64           `json:"player_spent"`
	TotalSpent  uint64           `json:"total_spent"`
}

// PremarketEndedEvent carries the snapshot taken at the phase transition.
type PremarketEndedEvent struct {
	BaseEvent
	TotalPremarketSpent uint64 `json:"total_premarket_spent"`
	DividendPool        uint64 `json:"dividend_pool"`
	Lazy                bool   `json:"lazy"`
}

// BuyEvent records a live buy.
type BuyEvent struct {
	BaseEvent
	Amount           uint64           `json:"amount"`
	Referrer         solana.PublicKey `json:"referrer"`
	DevFee           uint64           `json:"dev_fee"`
	ReferralFee      uint64           `json:"referral_fee"`
	Cashback         uint64           `json:"cashback"`
	Dividend         uint64           `json:"dividend"`
	EggsBought       *uint256.Int     `json:"eggs_bought"`
	ShrimpBought     *uint256.Int     `json:"shrimp_bought"`
	MarketEggs       *uint256.Int     `json:"market_eggs"`
	DividendCredited uint64           `json:"dividend_credited"`
}

type HatchEvent struct {
	BaseEvent
	Eggs         *uint256.Int `json:"eggs"`
	NewShrimp    *uint256.Int `json:"new_shrimp"`
	BonusPercent uint64       `json:"bonus_percent"`
}

type SellEvent struct {
	BaseEvent
	Eggs         *uint256.Int `json:"eggs"`
	Proceeds     uint64       `json:"proceeds"`
	DevFee       uint64       `json:"dev_fee"`
	Dividend     uint64       `json:"dividend"`
	Payout       uint64       `json:"payout"`
	BonusPercent uint64       `json:"bonus_percent"`
}

// GameOverEvent is emitted by the trade that crossed the market-egg threshold.
type GameOverEvent struct {
	BaseEvent
	FinalBalance uint64       `json:"final_balance"`
	MarketEggs   *uint256.Int `json:"market_eggs"`
}

type UserRegisteredEvent struct {
	BaseEvent
	Username string `json:"username"`
}

type MarketUpdatedEvent struct {
	BaseEvent
	MarketEggs *uint256.Int `json:"market_eggs"`
}

type TestnetBonusToggledEvent struct {
	BaseEvent
	Enabled bool `json:"enabled"`
}

type CollectionSetEvent struct {
	BaseEvent
	Collection   solana.PublicKey `json:"collection"`
	CandyMachine solana.PublicKey `json:"candy_machine"`
}

type MinterSetEvent struct {
	BaseEvent
	Minter solana.PublicKey `json:"minter"`
}

type NftMintedEvent struct {
	BaseEvent
	Asset  solana.PublicKey `json:"asset"`
	Minted uint16           `json:"minted"`
}

type AdminMintedEvent struct {
	BaseEvent
	Recipient solana.PublicKey `json:"recipient"`
	Asset     solana.PublicKey `json:"asset"`
	Minted    uint16           `json:"minted"`
}

// UserWithdrawnEvent itemizes a player payout by bucket.
type UserWithdrawnEvent struct {
	BaseEvent
	Referral uint64 `json:"referral"`
	Sell     uint64 `json:"sell"`
	Dividend uint64 `json:"dividend"`
	Prize    uint64 `json:"prize"`
	Total    uint64 `json:"total"`
}

type DevWithdrawnEvent struct {
	BaseEvent
	Amount  uint64    `json:"amount"`
	Payouts [3]uint64 `json:"payouts"`
}
