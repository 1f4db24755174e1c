// internal/storage/leveldb/codec.go
package leveldb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Account discriminators, the first 8 bytes of every stored record.
var (
	gameDiscriminator   = bin.SighashAccount("GameState")
	playerDiscriminator = bin.SighashAccount("PlayerState")
)

// writer накапливает первую ошибку, чтобы не проверять каждое поле
type writer struct {
	buf *bytes.Buffer
	enc *bin.Encoder
	err error
}

func newWriter(discriminator []byte) *writer {
	buf := new(bytes.Buffer)
	buf.Write(discriminator)
	return &writer{buf: buf, enc: bin.NewBorshEncoder(buf)}
}

func (w *writer) u8(v uint8) {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
}

func (w *writer) u16(v uint16) {
	if w.err == nil {
		w.err = w.enc.WriteUint16(v, binary.LittleEndian)
	}
}

func (w *writer) u32(v uint32) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, binary.LittleEndian)
	}
}

func (w *writer) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, binary.LittleEndian)
	}
}

func (w *writer) i64(v int64) {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, binary.LittleEndian)
	}
}

func (w *writer) boolean(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

func (w *writer) key(k solana.PublicKey) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(k[:], false)
	}
}

func (w *writer) str(s string) {
	if w.err == nil {
		w.err = w.enc.WriteString(s)
	}
}

// u128 stores a 256-bit counter that must fit in 128 bits.
func (w *writer) u128(v *uint256.Int, field string) {
	if w.err != nil {
		return
	}
	if v[2] != 0 || v[3] != 0 {
		w.err = fmt.Errorf("%s overflows u128: %s", field, v.Dec())
		return
	}
	w.err = w.enc.WriteUint128(bin.Uint128{Lo: v[0], Hi: v[1]}, binary.LittleEndian)
}

func (w *writer) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

type reader struct {
	dec *bin.Decoder
	err error
}

func newReader(data, discriminator []byte) (*reader, error) {
	if len(data) < len(discriminator) || !bytes.Equal(data[:len(discriminator)], discriminator) {
		return nil, fmt.Errorf("unexpected account discriminator")
	}
	return &reader{dec: bin.NewBorshDecoder(data[len(discriminator):])}, nil
}

func (r *reader) u8() (v uint8) {
	if r.err == nil {
		v, r.err = r.dec.ReadUint8()
	}
	return v
}

func (r *reader) u16() (v uint16) {
	if r.err == nil {
		v, r.err = r.dec.ReadUint16(binary.LittleEndian)
	}
	return v
}

func (r *reader) u32() (v uint32) {
	if r.err == nil {
		v, r.err = r.dec.ReadUint32(binary.LittleEndian)
	}
	return v
}

func (r *reader) u64() (v uint64) {
	if r.err == nil {
		v, r.err = r.dec.ReadUint64(binary.LittleEndian)
	}
	return v
}

func (r *reader) i64() (v int64) {
	if r.err == nil {
		v, r.err = r.dec.ReadInt64(binary.LittleEndian)
	}
	return v
}

func (r *reader) boolean() (v bool) {
	if r.err == nil {
		v, r.err = r.dec.ReadBool()
	}
	return v
}

func (r *reader) key() (k solana.PublicKey) {
	if r.err != nil {
		return k
	}
	var b []byte
	b, r.err = r.dec.ReadNBytes(solana.PublicKeyLength)
	if r.err == nil {
		copy(k[:], b)
	}
	return k
}

func (r *reader) str() (s string) {
	if r.err == nil {
		s, r.err = r.dec.ReadString()
	}
	return s
}

func (r *reader) u128(dst *uint256.Int) {
	if r.err != nil {
		return
	}
	var v bin.Uint128
	v, r.err = r.dec.ReadUint128(binary.LittleEndian)
	if r.err == nil {
		dst[0], dst[1], dst[2], dst[3] = v.Lo, v.Hi, 0, 0
	}
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if n := r.dec.Remaining(); n != 0 {
		return fmt.Errorf("%d trailing bytes", n)
	}
	return nil
}

func encodeGame(g *domain.GameState) ([]byte, error) {
	w := newWriter(gameDiscriminator)
	w.key(g.Authority)
	for _, d := range g.Devs {
		w.key(d)
	}
	w.u64(g.Treasury)
	w.u64(g.RentReserve)
	w.u64(g.DevBalance)
	w.u64(g.SellAndRefBalance)
	w.u64(g.PremarketBalance)
	w.u64(g.PremarketEarned)
	w.u64(g.FinalBalance)
	w.u64(g.PrizePaid)
	w.u64(g.TotalWithdrawable)
	w.u128(&g.MarketEggs, "market eggs")
	w.u64(g.TotalPremarketSpent)
	w.u64(g.TotalPremarketSnapshot)
	w.i64(g.PremarketEnd)
	w.u8(uint8(g.Phase))
	w.u64(g.CooldownSecs)
	w.boolean(g.TestMode)
	w.boolean(g.GameOver)
	w.key(g.Collection)
	w.key(g.CandyMachine)
	w.key(g.Minter)
	w.u16(g.NftsMinted)
	w.u8(g.Guard.MaxInstructions)
	w.u32(uint32(len(g.Guard.Allowed)))
	for _, k := range g.Guard.Allowed {
		w.key(k)
	}
	w.u64(g.EventIndex)
	w.u64(g.GameIndex)
	return w.bytes()
}

func decodeGame(data []byte) (*domain.GameState, error) {
	r, err := newReader(data, gameDiscriminator)
	if err != nil {
		return nil, err
	}
	g := &domain.GameState{}
	g.Authority = r.key()
	for i := range g.Devs {
		g.Devs[i] = r.key()
	}
	g.Treasury = r.u64()
	g.RentReserve = r.u64()
	g.DevBalance = r.u64()
	g.SellAndRefBalance = r.u64()
	g.PremarketBalance = r.u64()
	g.PremarketEarned = r.u64()
	g.FinalBalance = r.u64()
	g.PrizePaid = r.u64()
	g.TotalWithdrawable = r.u64()
	r.u128(&g.MarketEggs)
	g.TotalPremarketSpent = r.u64()
	g.TotalPremarketSnapshot = r.u64()
	g.PremarketEnd = r.i64()
	g.Phase = domain.Phase(r.u8())
	g.CooldownSecs = r.u64()
	g.TestMode = r.boolean()
	g.GameOver = r.boolean()
	g.Collection = r.key()
	g.CandyMachine = r.key()
	g.Minter = r.key()
	g.NftsMinted = r.u16()
	g.Guard.MaxInstructions = r.u8()
	n := r.u32()
	if n > domain.GuardProgramsLimit {
		return nil, fmt.Errorf("decode game: %d allowed programs", n)
	}
	for i := uint32(0); i < n; i++ {
		g.Guard.Allowed = append(g.Guard.Allowed, r.key())
	}
	g.EventIndex = r.u64()
	g.GameIndex = r.u64()
	if err := r.done(); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return g, nil
}

func encodePlayer(p *domain.PlayerState) ([]byte, error) {
	w := newWriter(playerDiscriminator)
	w.key(p.Owner)
	w.u128(&p.Shrimp, "shrimp")
	w.u128(&p.ExtraEggs, "extra eggs")
	w.i64(p.LastInteraction)
	w.i64(p.LastHatchAt)
	w.i64(p.LastSellAt)
	w.key(p.CurrentReferrer)
	w.u64(p.ReferralTotal)
	w.u64(p.ReferralWithdrawn)
	w.u64(p.SellTotal)
	w.u64(p.SellWithdrawn)
	w.u64(p.PremarketSpent)
	w.u64(p.PremarketWithdrawn)
	w.u64(p.Withdrawable)
	w.u64(p.LiveSpendTotal)
	w.boolean(p.HasMinted)
	w.boolean(p.PrizeClaimed)
	w.boolean(p.TestnetBonus)
	w.str(p.Username)
	return w.bytes()
}

func decodePlayer(data []byte) (*domain.PlayerState, error) {
	r, err := newReader(data, playerDiscriminator)
	if err != nil {
		return nil, err
	}
	p := &domain.PlayerState{}
	p.Owner = r.key()
	r.u128(&p.Shrimp)
	r.u128(&p.ExtraEggs)
	p.LastInteraction = r.i64()
	p.LastHatchAt = r.i64()
	p.LastSellAt = r.i64()
	p.CurrentReferrer = r.key()
	p.ReferralTotal = r.u64()
	p.ReferralWithdrawn = r.u64()
	p.SellTotal = r.u64()
	p.SellWithdrawn = r.u64()
	p.PremarketSpent = r.u64()
	p.PremarketWithdrawn = r.u64()
	p.Withdrawable = r.u64()
	p.LiveSpendTotal = r.u64()
	p.HasMinted = r.boolean()
	p.PrizeClaimed = r.boolean()
	p.TestnetBonus = r.boolean()
	p.Username = r.str()
	if err := r.done(); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return p, nil
}
