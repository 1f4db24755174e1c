package guard

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

var core = solana.NewWallet().PublicKey()

func repeat(k solana.PublicKey, n int) []solana.PublicKey {
	out := make([]solana.PublicKey, n)
	for i := range out {
		out[i] = k
	}
	return out
}

func TestCheckInstructionCount(t *testing.T) {
	p := NewPolicy(core, Default())

	// four buys plus a compute budget instruction fit the default of five
	ok := &Envelope{Programs: append(repeat(core, 4), ComputeBudgetProgramID)}
	assert.NoError(t, p.Check(ok))

	// five buys plus a compute budget instruction do not
	tooMany := &Envelope{Programs: append(repeat(core, 5), ComputeBudgetProgramID)}
	err := p.Check(tooMany)
	require.ErrorIs(t, err, domain.ErrInstructionGuardViolation)

	var gv *domain.GuardViolationError
	require.True(t, errors.As(err, &gv))
	assert.Equal(t, 6, gv.Instructions)
	assert.Equal(t, uint8(5), gv.Max)
}

func TestCheckNilEnvelope(t *testing.T) {
	assert.NoError(t, NewPolicy(core, Default()).Check(nil))
}

func TestCheckUnknownProgram(t *testing.T) {
	stranger := solana.NewWallet().PublicKey()
	p := NewPolicy(core, Default())

	err := p.Check(&Envelope{Programs: []solana.PublicKey{core, stranger}})
	var gv *domain.GuardViolationError
	require.True(t, errors.As(err, &gv))
	assert.True(t, gv.Program.Equals(stranger))

	base := &Envelope{Programs: []solana.PublicKey{LighthouseProgramID, solana.SystemProgramID, core}}
	assert.NoError(t, p.Check(base))

	extended := NewPolicy(core, domain.ProgramGuard{MaxInstructions: 5, Allowed: []solana.PublicKey{stranger}})
	assert.NoError(t, extended.Check(&Envelope{Programs: []solana.PublicKey{core, stranger}}))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(19, repeat(core, 9)))
	assert.ErrorIs(t, Validate(20, nil), domain.ErrInvalidProgramGuards)
	assert.ErrorIs(t, Validate(5, repeat(core, 10)), domain.ErrInvalidProgramGuards)
}

func TestFromTransaction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()

	limit, err := ComputeUnitLimit(DefaultUnits)
	require.NoError(t, err)
	price, err := ComputeUnitPrice(1_000)
	require.NoError(t, err)
	buy := solana.NewInstruction(core, solana.AccountMetaSlice{solana.Meta(payer).WRITE().SIGNER()}, []byte{1})

	tx, err := solana.NewTransaction([]solana.Instruction{limit, price, buy}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)

	env, err := FromTransaction(tx)
	require.NoError(t, err)
	require.Equal(t, 3, env.Len())
	assert.True(t, env.Programs[0].Equals(ComputeBudgetProgramID))
	assert.True(t, env.Programs[1].Equals(ComputeBudgetProgramID))
	assert.True(t, env.Programs[2].Equals(core))

	assert.NoError(t, NewPolicy(core, Default()).Check(env))
}

func TestComputeUnitLimitData(t *testing.T) {
	ix, err := ComputeUnitLimit(200_000)
	require.NoError(t, err)
	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0x40, 0x0d, 0x03, 0x00}, data)
	assert.True(t, ix.ProgramID().Equals(ComputeBudgetProgramID))
}
