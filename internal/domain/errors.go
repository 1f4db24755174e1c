// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrBelowMinimumBuy           = errors.New("shrimp: buy amount below minimum")
	ErrInvalidReferrer           = errors.New("shrimp: invalid referrer")
	ErrOnCooldown                = errors.New("shrimp: cooldown not reached")
	ErrGameOver                  = errors.New("shrimp: game over")
	ErrCollectionAlreadySet      = errors.New("shrimp: collection already set")
	ErrMustBuyFirst              = errors.New("shrimp: player must buy before registering")
	ErrInvalidUsername           = errors.New("shrimp: invalid username")
	ErrUsernameTaken             = errors.New("shrimp: username taken")
	ErrAlreadyRegistered         = errors.New("shrimp: player already registered")
	ErrInvalidSigner             = errors.New("shrimp: invalid signer")
	ErrInitializationLocked      = errors.New("shrimp: initialization locked")
	ErrInstructionGuardViolation = errors.New("shrimp: instruction guard violation")

	ErrPremarketInProgress  = errors.New("shrimp: premarket in progress")
	ErrPremarketOver        = errors.New("shrimp: premarket over")
	ErrNotTestEnv           = errors.New("shrimp: not a test environment")
	ErrInvalidDevs          = errors.New("shrimp: invalid dev wallets")
	ErrInvalidProgramGuards = errors.New("shrimp: invalid program guards")
	ErrNoEggs               = errors.New("shrimp: not enough eggs")
	ErrNothingToWithdraw    = errors.New("shrimp: nothing to withdraw")
	ErrMintNotEligible      = errors.New("shrimp: player not eligible to mint")
	ErrMintedOut            = errors.New("shrimp: collection minted out")
	ErrCollectionNotSet     = errors.New("shrimp: collection not set")
	ErrAlreadyInitialized   = errors.New("shrimp: game already initialized")
	ErrNotInitialized       = errors.New("shrimp: game not initialized")
	ErrPlayerNotFound       = errors.New("shrimp: player not found")
	ErrUnauthorized         = errors.New("shrimp: signer is not the authority")
	ErrInvalidAsset         = errors.New("shrimp: invalid asset")
	ErrLedgerInconsistent   = errors.New("shrimp: ledger inconsistent")
	ErrInvalidAmount        = errors.New("shrimp: invalid amount")

	// ErrSignatureVerification is returned for a missing or wrong owner co-signature.
	// It is deliberately not part of the typed taxonomy.
	ErrSignatureVerification = errors.New("signature verification failed")
)

// CooldownKind names the two independent cooldown timers.
type CooldownKind string

const (
	CooldownHatch CooldownKind = "hatch"
	CooldownSell  CooldownKind = "sell"
)

// OnCooldownError is returned when an action is attempted before its cooldown elapsed.
type OnCooldownError struct {
	Kind      CooldownKind
	Remaining int64
}

func (e *OnCooldownError) Error() string {
	return fmt.Sprintf("%s cooldown not reached: %ds remaining", e.Kind, e.Remaining)
}

func (e *OnCooldownError) Is(target error) bool {
	return target == ErrOnCooldown
}

// GuardViolationError describes why a transaction envelope was rejected.
type GuardViolationError struct {
	Reason       string
	Program      solana.PublicKey
	Instructions int
	Max          uint8
}

func (e *GuardViolationError) Error() string {
	if !e.Program.IsZero() {
		return fmt.Sprintf("instruction guard: %s: %s", e.Reason, e.Program)
	}
	return fmt.Sprintf("instruction guard: %s: %d > %d", e.Reason, e.Instructions, e.Max)
}

func (e *GuardViolationError) Unwrap() error {
	return ErrInstructionGuardViolation
}
