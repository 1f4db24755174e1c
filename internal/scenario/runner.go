// internal/scenario/runner.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/endgame"
	"github.com/rovshanmuradov/shrimp-farm/internal/game"
)

var errorNames = map[string]error{
	"below_minimum_buy":      domain.ErrBelowMinimumBuy,
	"invalid_referrer":       domain.ErrInvalidReferrer,
	"on_cooldown":            domain.ErrOnCooldown,
	"game_over":              domain.ErrGameOver,
	"collection_already_set": domain.ErrCollectionAlreadySet,
	"must_buy_first":         domain.ErrMustBuyFirst,
	"invalid_username":       domain.ErrInvalidUsername,
	"username_taken":         domain.ErrUsernameTaken,
	"already_registered":     domain.ErrAlreadyRegistered,
	"invalid_signer":         domain.ErrInvalidSigner,
	"premarket_in_progress":  domain.ErrPremarketInProgress,
	"premarket_over":         domain.ErrPremarketOver,
	"not_test_env":           domain.ErrNotTestEnv,
	"invalid_program_guards": domain.ErrInvalidProgramGuards,
	"no_eggs":                domain.ErrNoEggs,
	"nothing_to_withdraw":    domain.ErrNothingToWithdraw,
	"mint_not_eligible":      domain.ErrMintNotEligible,
	"minted_out":             domain.ErrMintedOut,
	"collection_not_set":     domain.ErrCollectionNotSet,
	"player_not_found":       domain.ErrPlayerNotFound,
	"unauthorized":           domain.ErrUnauthorized,
}

// Outcome records what one step did.
type Outcome struct {
	Step  int
	Op    Op
	Actor string
	At    time.Time
	Err   error
	// Paid is the lamports a withdraw step moved out of the treasury.
	Paid uint64
}

// Result is the state a scenario leaves behind.
type Result struct {
	Name      string
	Authority solana.PublicKey
	Game      *domain.GameState
	Players   map[string]*domain.PlayerState
	Outcomes  []Outcome
}

// Runner replays scenarios against a ledger under a scripted clock.
type Runner struct {
	ledger *game.Ledger
	logger *zap.Logger
	now    time.Time
	actors map[solana.PublicKey]string
}

// NewRunner takes over the ledger's clock.
func NewRunner(ledger *game.Ledger, logger *zap.Logger) *Runner {
	r := &Runner{
		ledger: ledger,
		logger: logger.Named("scenario"),
		actors: make(map[solana.PublicKey]string),
	}
	ledger.SetNowFunc(func() time.Time { return r.now })
	return r
}

func (r *Runner) key(name string) solana.PublicKey {
	k := Key(name)
	r.actors[k] = name
	return k
}

// Run initializes a fresh game for the scenario and applies every step.
// A step fails the run when its error does not match Expect.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	r.now = time.Unix(s.Start, 0)
	authority := r.key(AuthorityActor)

	var devs [3]solana.PublicKey
	for i, name := range DevActors {
		devs[i] = r.key(name)
	}
	err := r.ledger.Initialize(ctx, game.InitializeRequest{
		Authority:    authority,
		Owner:        r.ledger.Options().Owner,
		Devs:         devs,
		PremarketEnd: r.now.Add(s.Premarket).Unix(),
		CooldownSecs: s.Cooldown,
		TestMode:     s.TestMode,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize %s: %w", s.Name, err)
	}

	res := &Result{Name: s.Name, Authority: authority}
	for i, st := range s.Steps {
		out := Outcome{Step: i + 1, Op: st.Op, Actor: st.Actor, At: r.now}
		out.Paid, out.Err = r.apply(ctx, authority, devs, st)
		res.Outcomes = append(res.Outcomes, out)

		if err := expect(st, out.Err); err != nil {
			return res, fmt.Errorf("step %d (%s %s): %w", out.Step, st.Op, st.Actor, err)
		}
		r.logger.Debug("Step applied",
			zap.Int("step", out.Step),
			zap.String("op", string(st.Op)),
			zap.String("actor", st.Actor),
			zap.Error(out.Err))
	}

	if res.Game, err = r.ledger.Game(ctx, authority); err != nil {
		return res, err
	}
	players, err := r.ledger.Players(ctx, authority)
	if err != nil {
		return res, err
	}
	res.Players = make(map[string]*domain.PlayerState, len(players))
	for _, p := range players {
		name, ok := r.actors[p.Owner]
		if !ok {
			name = p.Owner.String()
		}
		res.Players[name] = p
	}
	return res, nil
}

func expect(st Step, err error) error {
	if st.Expect == "" {
		return err
	}
	want := errorNames[st.Expect]
	if !errors.Is(err, want) {
		return fmt.Errorf("expected %s, got %v", st.Expect, err)
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, authority solana.PublicKey, devs [3]solana.PublicKey, st Step) (uint64, error) {
	actor := st.Actor
	if actor == "" {
		actor = AuthorityActor
	}
	signer := r.key(actor)
	admin := game.AdminRequest{Authority: authority, Signer: signer}
	player := game.PlayerRequest{Authority: authority, Player: signer}

	var referrer solana.PublicKey
	if st.Referrer != "" {
		referrer = r.key(st.Referrer)
	}
	var target solana.PublicKey
	if st.Target != "" {
		target = r.key(st.Target)
	}

	switch st.Op {
	case OpWait:
		r.now = r.now.Add(st.Wait)
		return 0, nil
	case OpPremarket, OpBuy:
		amount, err := domain.Lamports(st.Amount)
		if err != nil {
			return 0, fmt.Errorf("amount %q: %w", st.Amount, err)
		}
		req := game.BuyRequest{PlayerRequest: player, Amount: amount, Referrer: referrer}
		if st.Op == OpPremarket {
			return 0, r.ledger.BuyPremarket(ctx, req)
		}
		return 0, r.ledger.BuyShrimp(ctx, req)
	case OpEndPremarket:
		return 0, r.ledger.EndPremarket(ctx, admin)
	case OpHatch:
		return 0, r.ledger.HatchEggs(ctx, game.YieldRequest{PlayerRequest: player})
	case OpSell:
		return 0, r.ledger.SellEggs(ctx, game.YieldRequest{PlayerRequest: player})
	case OpRegister:
		return 0, r.ledger.Register(ctx, game.RegisterRequest{PlayerRequest: player, Username: st.Username})
	case OpSetMarket:
		eggs, err := marketEggs(st.Market)
		if err != nil {
			return 0, err
		}
		return 0, r.ledger.SetMarket(ctx, game.SetMarketRequest{AdminRequest: admin, MarketEggs: eggs})
	case OpTestnetBonus:
		return 0, r.ledger.TestnetBonus(ctx, game.TestnetBonusRequest{AdminRequest: admin, Player: target})
	case OpSetGuards:
		return 0, r.ledger.SetProgramGuards(ctx, game.SetProgramGuardsRequest{AdminRequest: admin, MaxInstructions: st.Max})
	case OpCollection:
		return 0, r.ledger.SetCollection(ctx, game.SetCollectionRequest{
			AdminRequest: admin,
			Collection:   r.key("collection"),
			CandyMachine: r.key("candy_machine"),
		})
	case OpSetMinter:
		return 0, r.ledger.SetMinter(ctx, game.SetMinterRequest{AdminRequest: admin, Minter: target})
	case OpMintNft:
		_, err := r.ledger.MintNft(ctx, player)
		return 0, err
	case OpAdminMint:
		_, err := r.ledger.AdminMint(ctx, game.AdminMintRequest{AdminRequest: admin, Recipient: target})
		return 0, err
	case OpWithdraw:
		w, err := r.ledger.UserWithdraw(ctx, player)
		return w.Total(), err
	case OpDevWithdraw:
		payouts, err := r.ledger.DevWithdraw(ctx, game.DevWithdrawRequest{AdminRequest: admin, Payees: devs})
		return payouts[0] + payouts[1] + payouts[2], err
	}
	return 0, fmt.Errorf("unsupported op %q", st.Op)
}

func marketEggs(raw string) (*uint256.Int, error) {
	if raw == "threshold" {
		return endgame.Threshold.Clone(), nil
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("market %q: %w", raw, err)
	}
	return v, nil
}
