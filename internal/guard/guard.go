// internal/guard/guard.go
package guard

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

var (
	ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	LighthouseProgramID    = solana.MustPublicKeyFromBase58("L2TExMFKdjpN9kozasaurPirfHy9P8sbXoAN1qA3S95")
)

// Envelope is the instruction list of the enclosing transaction, by program.
type Envelope struct {
	Programs []solana.PublicKey
}

// Len returns the number of instructions in the envelope.
func (e *Envelope) Len() int {
	return len(e.Programs)
}

// Single is a bare transaction carrying one core instruction.
func Single(core solana.PublicKey) *Envelope {
	return &Envelope{Programs: []solana.PublicKey{core}}
}

// FromTransaction derives an envelope from a compiled transaction.
func FromTransaction(tx *solana.Transaction) (*Envelope, error) {
	env := &Envelope{Programs: make([]solana.PublicKey, 0, len(tx.Message.Instructions))}
	for i, ix := range tx.Message.Instructions {
		program, err := tx.ResolveProgramIDIndex(ix.ProgramIDIndex)
		if err != nil {
			return nil, fmt.Errorf("resolve program of instruction %d: %w", i, err)
		}
		env.Programs = append(env.Programs, program)
	}
	return env, nil
}

// Policy decides which envelopes the core program accepts.
type Policy struct {
	core  solana.PublicKey
	guard domain.ProgramGuard
}

// NewPolicy combines the base allow-list for core with the configured guard.
func NewPolicy(core solana.PublicKey, g domain.ProgramGuard) *Policy {
	return &Policy{core: core, guard: g}
}

// Base returns the programs every game accepts.
func (p *Policy) Base() []solana.PublicKey {
	return []solana.PublicKey{p.core, ComputeBudgetProgramID, LighthouseProgramID, solana.SystemProgramID}
}

func (p *Policy) allowed(program solana.PublicKey) bool {
	for _, k := range p.Base() {
		if k.Equals(program) {
			return true
		}
	}
	for _, k := range p.guard.Allowed {
		if k.Equals(program) {
			return true
		}
	}
	return false
}

// Check rejects envelopes that are too long or call an unknown program.
// A nil envelope is treated as Single(core).
func (p *Policy) Check(env *Envelope) error {
	if env == nil {
		env = Single(p.core)
	}
	if env.Len() > int(p.guard.MaxInstructions) {
		return &domain.GuardViolationError{
			Reason:       "too many instructions",
			Instructions: env.Len(),
			Max:          p.guard.MaxInstructions,
		}
	}
	for _, program := range env.Programs {
		if !p.allowed(program) {
			return &domain.GuardViolationError{Reason: "program not allowed", Program: program}
		}
	}
	return nil
}

// Default is the guard a game starts with.
func Default() domain.ProgramGuard {
	return domain.ProgramGuard{MaxInstructions: domain.DefaultMaxInstructions}
}

// Validate checks the bounds accepted by setProgramGuards.
func Validate(maxInstructions uint8, allowed []solana.PublicKey) error {
	if len(allowed) >= domain.GuardProgramsLimit || int(maxInstructions) >= domain.GuardInstructionsLimit {
		return domain.ErrInvalidProgramGuards
	}
	return nil
}
