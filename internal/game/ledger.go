// internal/game/ledger.go
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/assets"
	"github.com/rovshanmuradov/shrimp-farm/internal/bonus"
	"github.com/rovshanmuradov/shrimp-farm/internal/curve"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/events"
	"github.com/rovshanmuradov/shrimp-farm/internal/guard"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage"
	"github.com/rovshanmuradov/shrimp-farm/internal/utils/metrics"
)

// Gate selects how the premarket ends.
type Gate string

const (
	// GateAuthority lets the authority end the premarket at any time.
	GateAuthority Gate = "authority"
	// GateTimestamp holds the premarket until PremarketEnd and then ends it
	// on the first instruction that arrives.
	GateTimestamp Gate = "timestamp"
)

// ParseGate maps the config value to a Gate.
func ParseGate(s string) (Gate, error) {
	switch Gate(s) {
	case "", GateAuthority:
		return GateAuthority, nil
	case GateTimestamp:
		return GateTimestamp, nil
	default:
		return "", fmt.Errorf("unknown premarket gate %q", s)
	}
}

// Options configures a Ledger.
type Options struct {
	ProgramID   solana.PublicKey
	Owner       solana.PublicKey
	RentReserve uint64
	Gate        Gate
	Bonus       bonus.Calculator

	// Verifier and Issuer are the external asset service. Either may be nil:
	// without a verifier no NFT bonus applies, without an issuer minting fails.
	Verifier assets.Verifier
	Issuer   assets.Issuer

	Metrics *metrics.Collector
}

// Ledger owns every GameState and PlayerState and sequences the components
// on each instruction. Instructions are serialized.
type Ledger struct {
	mu     sync.Mutex
	store  storage.Store
	bus    *events.Bus
	opts   Options
	logger *zap.Logger

	clockMu sync.RWMutex
	now     func() time.Time
}

// New creates a ledger over store. bus may be nil.
func New(store storage.Store, bus *events.Bus, opts Options, logger *zap.Logger) *Ledger {
	if opts.Gate == "" {
		opts.Gate = GateAuthority
	}
	if opts.Bonus.Composition == "" {
		opts.Bonus.Composition = bonus.Exclusive
	}
	return &Ledger{
		store:  store,
		bus:    bus,
		opts:   opts,
		logger: logger.Named("ledger"),
		now:    time.Now,
	}
}

// SetNowFunc replaces the clock.
func (l *Ledger) SetNowFunc(now func() time.Time) {
	l.clockMu.Lock()
	l.now = now
	l.clockMu.Unlock()
}

func (l *Ledger) clock() time.Time {
	l.clockMu.RLock()
	defer l.clockMu.RUnlock()
	return l.now().UTC()
}

// Options returns the ledger configuration.
func (l *Ledger) Options() Options {
	return l.opts
}

// txn is the working copy of one instruction. Nothing in it is visible to
// other instructions until commit.
type txn struct {
	ctx       context.Context
	name      string
	at        time.Time
	now       int64
	game      *domain.GameState
	players   map[solana.PublicKey]*domain.PlayerState
	order     []solana.PublicKey
	usernames []storage.UsernameEntry
	lock      *domain.LockState
	events    []events.Event
	log       *zap.Logger
}

func (t *txn) base(typ events.EventType, actor solana.PublicKey, gameAction bool) events.BaseEvent {
	gameIndex, eventIndex := t.game.NextEvent(gameAction)
	return events.BaseEvent{
		EventType:  typ,
		EventTime:  t.at,
		Version:    events.Version,
		GameIndex:  gameIndex,
		EventIndex: eventIndex,
		Authority:  t.game.Authority,
		Actor:      actor,
	}
}

func (t *txn) emit(e events.Event) {
	t.events = append(t.events, e)
}

func (l *Ledger) begin(ctx context.Context, name string) *txn {
	at := l.clock()
	return &txn{
		ctx:     ctx,
		name:    name,
		at:      at,
		now:     at.Unix(),
		players: make(map[solana.PublicKey]*domain.PlayerState),
		log:     l.logger.With(zap.String("instruction", name)),
	}
}

// findPlayer returns the working copy of owner's record, or nil when the
// player has none.
func (l *Ledger) findPlayer(t *txn, owner solana.PublicKey) (*domain.PlayerState, error) {
	if p, ok := t.players[owner]; ok {
		return p, nil
	}
	p, err := l.store.Player(t.ctx, t.game.Authority, owner)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", owner, err)
	}
	t.players[owner] = p
	t.order = append(t.order, owner)
	return p, nil
}

// player returns owner's record, creating it on first touch.
func (l *Ledger) player(t *txn, owner solana.PublicKey) (*domain.PlayerState, error) {
	p, err := l.findPlayer(t, owner)
	if err != nil || p != nil {
		return p, err
	}
	p = domain.NewPlayer(owner)
	t.players[owner] = p
	t.order = append(t.order, owner)
	return p, nil
}

func (l *Ledger) existingPlayer(t *txn, owner solana.PublicKey) (*domain.PlayerState, error) {
	p, err := l.findPlayer(t, owner)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPlayerNotFound
	}
	return p, nil
}

func (l *Ledger) loadGame(ctx context.Context, authority solana.PublicKey) (*domain.GameState, error) {
	g, err := l.store.Game(ctx, authority)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", authority, err)
	}
	return g, nil
}

// execute runs fn against a copy of the authority's game and commits the
// result. It is the only path that mutates state.
func (l *Ledger) execute(ctx context.Context, name string, authority solana.PublicKey, env *guard.Envelope, fn func(t *txn) error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	defer func() {
		if l.opts.Metrics != nil {
			l.opts.Metrics.RecordInstruction(ctx, name, time.Since(start), err)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	t := l.begin(ctx, name)
	if t.game, err = l.loadGame(ctx, authority); err != nil {
		return err
	}

	if err = guard.NewPolicy(l.opts.ProgramID, t.game.Guard).Check(env); err != nil {
		t.log.Warn("Transaction rejected by guard", zap.Error(err))
		return err
	}

	if name != opEndPremarket && l.premarketDue(t.game, t.now) {
		l.endPremarket(t, true)
	}

	if err = fn(t); err != nil {
		t.log.Debug("Instruction rejected", zap.Error(err))
		return err
	}
	return l.commit(t)
}

// commit writes the working copy as one changeset and then publishes the
// events it produced.
func (l *Ledger) commit(t *txn) error {
	if err := t.game.CheckConservation(); err != nil {
		t.log.Error("Refusing to commit", zap.Error(err))
		return err
	}

	cs := &storage.Changeset{
		Authority: t.game.Authority,
		Game:      t.game,
		Usernames: t.usernames,
		Lock:      t.lock,
	}
	for _, owner := range t.order {
		cs.Players = append(cs.Players, t.players[owner])
	}

	if err := l.store.Commit(t.ctx, cs); err != nil {
		return fmt.Errorf("commit %s: %w", t.name, err)
	}

	if l.opts.Metrics != nil {
		l.opts.Metrics.ObserveGame(t.game)
	}

	// Состояние уже записано: ошибки подписчиков только логируем
	if l.bus != nil {
		for _, e := range t.events {
			if err := l.bus.PublishSync(t.ctx, e); err != nil {
				t.log.Warn("Event handlers failed",
					zap.String("event_type", string(e.Type())),
					zap.Uint64("event_index", e.Header().EventIndex),
					zap.Error(err))
			}
		}
	}

	t.log.Debug("Instruction committed",
		zap.String("authority", t.game.Authority.String()),
		zap.Int("players", len(cs.Players)),
		zap.Int("events", len(t.events)))
	return nil
}

// eggsAt is the player's egg balance at now: banked eggs plus production
// since the last interaction. Premarket deposits produce from the moment
// the market opened.
func eggsAt(g *domain.GameState, p *domain.PlayerState, now int64) *uint256.Int {
	eggs := new(uint256.Int).Set(&p.ExtraEggs)

	start := p.LastInteraction
	if start == 0 {
		if g.Phase != domain.PhaseLive {
			return eggs
		}
		start = g.PremarketEnd
	}

	shrimp := shrimpOf(g, p)
	return eggs.Add(eggs, curve.Production(shrimp, now-start))
}

// shrimpOf includes the virtual shrimp earned by premarket deposits.
func shrimpOf(g *domain.GameState, p *domain.PlayerState) *uint256.Int {
	s := curve.PremarketShrimp(p.PremarketSpent, g.TotalPremarketSnapshot)
	return s.Add(s, &p.Shrimp)
}

func requireAuthority(g *domain.GameState, signer solana.PublicKey) error {
	if !signer.Equals(g.Authority) {
		return domain.ErrUnauthorized
	}
	return nil
}
