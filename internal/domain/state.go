// internal/domain/state.go
package domain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

const (
	MinBuy    uint64 = 10_000_000    // 0.01 SOL
	NftMinBuy uint64 = 1_000_000_000 // 1 SOL of live spend unlocks mintNft
	MaxNfts   uint16 = 1024

	DefaultMaxInstructions uint8 = 5
	// Exclusive upper bounds accepted by setProgramGuards.
	GuardProgramsLimit     = 10
	GuardInstructionsLimit = 20

	MaxUsernameLength = 12
)

// Phase is the game phase. Premarket accepts deposits only; Live runs the curve.
type Phase uint8

const (
	PhasePremarket Phase = iota
	PhaseLive
)

func (p Phase) String() string {
	switch p {
	case PhasePremarket:
		return "premarket"
	case PhaseLive:
		return "live"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// LockState gates initialize process-wide. Unlocked -> Locked only.
type LockState uint8

const (
	LockUnlocked LockState = iota
	LockLocked
)

func (l LockState) String() string {
	if l == LockLocked {
		return "locked"
	}
	return "unlocked"
}

// ProgramGuard is the authority-configurable part of the instruction guard.
type ProgramGuard struct {
	MaxInstructions uint8
	Allowed         []solana.PublicKey
}

// GameState is the per-authority aggregate record.
type GameState struct {
	Authority solana.PublicKey
	Devs      [3]solana.PublicKey

	Treasury    uint64 // lamports held, rent reserve included
	RentReserve uint64

	DevBalance        uint64 // carries the rent reserve
	SellAndRefBalance uint64
	PremarketBalance  uint64
	PremarketEarned   uint64
	FinalBalance      uint64
	PrizePaid         uint64
	TotalWithdrawable uint64

	MarketEggs uint256.Int

	TotalPremarketSpent    uint64
	TotalPremarketSnapshot uint64
	PremarketEnd           int64
	Phase                  Phase

	CooldownSecs uint64
	TestMode     bool
	GameOver     bool

	Collection   solana.PublicKey
	CandyMachine solana.PublicKey
	Minter       solana.PublicKey
	NftsMinted   uint16

	Guard ProgramGuard

	EventIndex uint64
	GameIndex  uint64
}

// Clone returns a deep copy safe to mutate.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Guard.Allowed = append([]solana.PublicKey(nil), g.Guard.Allowed...)
	return &c
}

// OutstandingPrize is the part of the prize pool not yet paid out.
func (g *GameState) OutstandingPrize() uint64 {
	return g.FinalBalance - g.PrizePaid
}

func (g *GameState) reserved() (uint64, bool) {
	parts := []uint64{
		g.DevBalance,
		g.SellAndRefBalance,
		g.PremarketBalance,
		g.TotalWithdrawable,
		g.OutstandingPrize(),
	}
	var sum uint64
	for _, p := range parts {
		next := sum + p
		if next < sum {
			return 0, false
		}
		sum = next
	}
	return sum, sum <= g.Treasury
}

// GameBalance is the curve reserve: treasury minus every earmarked pool.
func (g *GameState) GameBalance() uint64 {
	r, ok := g.reserved()
	if !ok {
		return 0
	}
	return g.Treasury - r
}

// CheckConservation verifies that the earmarked pools never exceed the treasury
// and that the prize pool was not overpaid.
func (g *GameState) CheckConservation() error {
	if g.PrizePaid > g.FinalBalance {
		return fmt.Errorf("%w: prize paid %d exceeds final balance %d", ErrLedgerInconsistent, g.PrizePaid, g.FinalBalance)
	}
	r, ok := g.reserved()
	if !ok {
		return fmt.Errorf("%w: pools %d exceed treasury %d", ErrLedgerInconsistent, r, g.Treasury)
	}
	if g.DevBalance < g.RentReserve {
		return fmt.Errorf("%w: dev balance below rent reserve", ErrLedgerInconsistent)
	}
	return nil
}

// NextEvent returns the current event index and advances it.
func (g *GameState) NextEvent(gameAction bool) (gameIndex, eventIndex uint64) {
	gameIndex, eventIndex = g.GameIndex, g.EventIndex
	g.EventIndex++
	if gameAction {
		g.GameIndex++
	}
	return gameIndex, eventIndex
}

// IsDev reports whether key is one of the three configured dev wallets.
func (g *GameState) IsDev(key solana.PublicKey) bool {
	for _, d := range g.Devs {
		if d.Equals(key) {
			return true
		}
	}
	return false
}

// PlayerState is the per (player, authority) record.
type PlayerState struct {
	Owner solana.PublicKey

	Shrimp    uint256.Int
	ExtraEggs uint256.Int

	LastInteraction int64
	LastHatchAt     int64
	LastSellAt      int64

	CurrentReferrer solana.PublicKey

	ReferralTotal     uint64
	ReferralWithdrawn uint64
	SellTotal         uint64
	SellWithdrawn     uint64

	PremarketSpent     uint64
	PremarketWithdrawn uint64 // cumulative dividend credited
	Withdrawable       uint64 // credited dividend not yet paid out

	LiveSpendTotal uint64

	HasMinted    bool
	PrizeClaimed bool
	TestnetBonus bool
	Username     string
}

// NewPlayer creates an empty record for owner.
func NewPlayer(owner solana.PublicKey) *PlayerState {
	return &PlayerState{Owner: owner}
}

func (p *PlayerState) Clone() *PlayerState {
	c := *p
	return &c
}

// TotalSpend is every lamport the player has paid in.
func (p *PlayerState) TotalSpend() uint64 {
	return p.PremarketSpent + p.LiveSpendTotal
}

func (p *PlayerState) PendingReferral() uint64 {
	return p.ReferralTotal - p.ReferralWithdrawn
}

func (p *PlayerState) PendingSell() uint64 {
	return p.SellTotal - p.SellWithdrawn
}
