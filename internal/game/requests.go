// internal/game/requests.go
package game

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/shrimp-farm/internal/assets"
	"github.com/rovshanmuradov/shrimp-farm/internal/guard"
)

// Instruction names, used as metric labels and in logs.
const (
	opInitialize       = "initialize"
	opSetProgramGuards = "set_program_guards"
	opBuyPremarket     = "buy_premarket"
	opEndPremarket     = "end_premarket"
	opBuyShrimp        = "buy_shrimp"
	opHatchEggs        = "hatch_eggs"
	opSellEggs         = "sell_eggs"
	opRegister         = "register"
	opSetMarket        = "set_market"
	opTestnetBonus     = "testnet_bonus"
	opSetCollection    = "set_collection"
	opSetMinter        = "set_minter"
	opMintNft          = "mint_nft"
	opAdminMint        = "admin_mint"
	opUserWithdraw     = "user_withdraw"
	opDevWithdraw      = "dev_withdraw"
)

// InitializeRequest creates the game of Authority. Owner is the co-signer
// that must match the configured owner key.
type InitializeRequest struct {
	Authority    solana.PublicKey
	Owner        solana.PublicKey
	Devs         [3]solana.PublicKey
	PremarketEnd int64
	CooldownSecs uint64
	TestMode     bool
}

// AdminRequest is an authority-signed instruction without arguments.
type AdminRequest struct {
	Authority solana.PublicKey
	Signer    solana.PublicKey
	Envelope  *guard.Envelope
}

type SetProgramGuardsRequest struct {
	AdminRequest
	MaxInstructions uint8
	Allowed         []solana.PublicKey
}

type SetMarketRequest struct {
	AdminRequest
	MarketEggs *uint256.Int
}

// TestnetBonusRequest toggles the testnet flag of Player.
type TestnetBonusRequest struct {
	AdminRequest
	Player solana.PublicKey
}

type SetCollectionRequest struct {
	AdminRequest
	Collection   solana.PublicKey
	CandyMachine solana.PublicKey
}

type SetMinterRequest struct {
	AdminRequest
	Minter solana.PublicKey
}

// AdminMintRequest is signed by the minter.
type AdminMintRequest struct {
	AdminRequest
	Recipient solana.PublicKey
}

// PlayerRequest is a player-signed instruction without arguments.
type PlayerRequest struct {
	Authority solana.PublicKey
	Player    solana.PublicKey
	Envelope  *guard.Envelope
}

// BuyRequest pays Amount lamports. A zero Referrer keeps the current one.
type BuyRequest struct {
	PlayerRequest
	Amount   uint64
	Referrer solana.PublicKey
}

// YieldRequest hatches or sells. Asset is optional; nil means no NFT bonus.
type YieldRequest struct {
	PlayerRequest
	Asset *assets.Handle
}

type RegisterRequest struct {
	PlayerRequest
	Username string
}

// DevWithdrawRequest is signed by one of the devs. Payees must list the
// three configured dev wallets in order.
type DevWithdrawRequest struct {
	AdminRequest
	Payees [3]solana.PublicKey
}
