// internal/guard/computebudget.go
package guard

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Индексы инструкций ComputeBudget программы
const (
	setComputeUnitLimit uint8 = 2
	setComputeUnitPrice uint8 = 3
)

// DefaultUnits is the compute unit limit clients attach to a game instruction.
const DefaultUnits uint32 = 200_000

// ComputeUnitLimit builds a SetComputeUnitLimit instruction.
func ComputeUnitLimit(units uint32) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(setComputeUnitLimit); err != nil {
		return nil, fmt.Errorf("encode compute unit limit: %w", err)
	}
	if err := enc.WriteUint32(units, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("encode compute unit limit: %w", err)
	}
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, buf.Bytes()), nil
}

// ComputeUnitPrice builds a SetComputeUnitPrice instruction (micro-lamports per unit).
func ComputeUnitPrice(microLamports uint64) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(setComputeUnitPrice); err != nil {
		return nil, fmt.Errorf("encode compute unit price: %w", err)
	}
	if err := enc.WriteUint64(microLamports, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("encode compute unit price: %w", err)
	}
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, buf.Bytes()), nil
}
