// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/config"
	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
	"github.com/rovshanmuradov/shrimp-farm/internal/game"
	"github.com/rovshanmuradov/shrimp-farm/internal/storage/models"
)

// Ledger is the read side of *game.Ledger.
type Ledger interface {
	Games(ctx context.Context) ([]solana.PublicKey, error)
	Game(ctx context.Context, authority solana.PublicKey) (*domain.GameState, error)
	Player(ctx context.Context, authority, owner solana.PublicKey) (*domain.PlayerState, error)
	Players(ctx context.Context, authority solana.PublicKey) ([]*domain.PlayerState, error)
	EggsOf(ctx context.Context, authority, owner solana.PublicKey) (*uint256.Int, error)
	ShrimpOf(ctx context.Context, authority, owner solana.PublicKey) (*uint256.Int, error)
	Claimable(ctx context.Context, authority, owner solana.PublicKey) (game.Withdrawal, error)
	LookupUsername(ctx context.Context, authority solana.PublicKey, name string) (solana.PublicKey, error)
}

// EventSource serves indexed events, newest first.
type EventSource interface {
	Events(ctx context.Context, authority, actor string, limit int) ([]models.EventRecord, error)
}

var _ Ledger = (*game.Ledger)(nil)

type Server struct {
	cfg     config.APIConfig
	log     *zap.Logger
	ledger  Ledger
	index   EventSource
	metrics http.Handler
	mux     *chi.Mux
}

// New builds the router. index and metrics may be nil; their routes then
// answer 503 and 404 respectively.
func New(cfg config.APIConfig, ledger Ledger, index EventSource, metrics http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger.Named("api"),
		ledger:  ledger,
		index:   index,
		metrics: metrics,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout()))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1/games", func(r chi.Router) {
		r.Get("/", s.handleGames)
		r.Route("/{authority}", func(r chi.Router) {
			r.Get("/", s.handleGame)
			r.Get("/quote", s.handleQuote)
			r.Get("/players", s.handlePlayers)
			r.Get("/players/{owner}", s.handlePlayer)
			r.Get("/usernames/{name}", s.handleUsername)
			r.Get("/events", s.handleEvents)
		})
	})
}

func (s *Server) timeout() time.Duration {
	if s.cfg.WriteTimeout > 0 {
		return s.cfg.WriteTimeout
	}
	return 10 * time.Second
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.ledger.Games(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]string, 0, len(games))
	for _, g := range games {
		out = append(out, g.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": out})
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	authority, ok := keyParam(w, r, "authority")
	if !ok {
		return
	}
	g, err := s.ledger.Game(r.Context(), authority)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(g))
}

// handleQuote prices a live buy of ?amount= lamports against the current reserve.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	authority, ok := keyParam(w, r, "authority")
	if !ok {
		return
	}
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil || amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be a positive lamport count")
		return
	}
	g, err := s.ledger.Game(r.Context(), authority)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q, err := newQuoteView(g, amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	authority, ok := keyParam(w, r, "authority")
	if !ok {
		return
	}
	if _, err := s.ledger.Game(r.Context(), authority); err != nil {
		s.fail(w, r, err)
		return
	}
	players, err := s.ledger.Players(r.Context(), authority)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]playerSummary, 0, len(players))
	for _, p := range players {
		out = append(out, newPlayerSummary(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": out})
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	authority, ok := keyParam(w, r, "authority")
	if !ok {
		return
	}
	owner, ok := keyParam(w, r, "owner")
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := s.ledger.Player(ctx, authority, owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	eggs, err := s.ledger.EggsOf(ctx, authority, owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	shrimp, err := s.ledger.ShrimpOf(ctx, authority, owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	claimable, err := s.ledger.Claimable(ctx, authority, owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlayerView(p, eggs, shrimp, claimable))
}

func (s *Server) handleUsername(w http.ResponseWriter, r *http.Request) {
	authority, ok := keyParam(w, r, "authority")
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	owner, err := s.ledger.LookupUsername(r.Context(), authority, name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": name, "owner": owner.String()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	authority, ok := keyParam(w, r, "authority")
	if !ok {
		return
	}
	if s.index == nil {
		writeError(w, http.StatusServiceUnavailable, "event index not configured")
		return
	}
	q := r.URL.Query()
	actor := strings.TrimSpace(q.Get("player"))
	if actor != "" {
		if _, err := solana.PublicKeyFromBase58(actor); err != nil {
			writeError(w, http.StatusBadRequest, "invalid player")
			return
		}
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.index.Events(r.Context(), authority.String(), actor, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]eventView, 0, len(records))
	for _, rec := range records {
		out = append(out, newEventView(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// fail maps ledger errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotInitialized), errors.Is(err, domain.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.log.Error("Request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func keyParam(w http.ResponseWriter, r *http.Request, name string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return solana.PublicKey{}, false
	}
	return key, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
