// internal/export/export.go
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Options configures the export behavior
type Options struct {
	Format         Format
	MinSpend       uint64 // skip players who paid in less, lamports
	OnlyRegistered bool   // only players with a username
	OutputDir      string
}

// Source is the read side of the ledger the exporter needs.
type Source interface {
	Game(ctx context.Context, authority solana.PublicKey) (*domain.GameState, error)
	Players(ctx context.Context, authority solana.PublicKey) ([]*domain.PlayerState, error)
}

// Row is one exported player.
type Row struct {
	Owner          string          `json:"owner"`
	Username       string          `json:"username,omitempty"`
	Referrer       string          `json:"referrer,omitempty"`
	Shrimp         string          `json:"shrimp"`
	PremarketSpent decimal.Decimal `json:"premarket_spent"`
	LiveSpent      decimal.Decimal `json:"live_spent"`
	ReferralTotal  decimal.Decimal `json:"referral_total"`
	SellTotal      decimal.Decimal `json:"sell_total"`
	Dividend       decimal.Decimal `json:"dividend"`
	HasMinted      bool            `json:"has_minted"`
	PrizeClaimed   bool            `json:"prize_claimed"`
}

func newRow(p *domain.PlayerState) Row {
	r := Row{
		Owner:          p.Owner.String(),
		Username:       p.Username,
		Shrimp:         p.Shrimp.Dec(),
		PremarketSpent: domain.SOL(p.PremarketSpent),
		LiveSpent:      domain.SOL(p.LiveSpendTotal),
		ReferralTotal:  domain.SOL(p.ReferralTotal),
		SellTotal:      domain.SOL(p.SellTotal),
		Dividend:       domain.SOL(p.PremarketWithdrawn),
		HasMinted:      p.HasMinted,
		PrizeClaimed:   p.PrizeClaimed,
	}
	if !p.CurrentReferrer.IsZero() {
		r.Referrer = p.CurrentReferrer.String()
	}
	return r
}

var csvHeaders = []string{
	"owner", "username", "referrer", "shrimp",
	"premarket_spent", "live_spent", "referral_total", "sell_total", "dividend",
	"has_minted", "prize_claimed",
}

func (r Row) csv() []string {
	return []string{
		r.Owner, r.Username, r.Referrer, r.Shrimp,
		r.PremarketSpent.String(), r.LiveSpent.String(),
		r.ReferralTotal.String(), r.SellTotal.String(), r.Dividend.String(),
		strconv.FormatBool(r.HasMinted), strconv.FormatBool(r.PrizeClaimed),
	}
}

// Summary contains totals over the exported players
type Summary struct {
	Players        int             `json:"players"`
	Registered     int             `json:"registered"`
	Minted         int             `json:"minted"`
	PremarketSpent decimal.Decimal `json:"premarket_spent"`
	LiveSpent      decimal.Decimal `json:"live_spent"`
	ReferralTotal  decimal.Decimal `json:"referral_total"`
	SellTotal      decimal.Decimal `json:"sell_total"`
}

// Report is the JSON document.
type Report struct {
	ExportTime time.Time `json:"export_time"`
	Authority  string    `json:"authority"`
	Phase      string    `json:"phase"`
	GameOver   bool      `json:"game_over"`
	Summary    Summary   `json:"summary"`
	Players    []Row     `json:"players"`
}

// PlayerExporter dumps a game's players to CSV or JSON.
type PlayerExporter struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// NewPlayerExporter creates a new player exporter
func NewPlayerExporter(source Source, logger *zap.Logger) *PlayerExporter {
	return &PlayerExporter{source: source, logger: logger, now: time.Now}
}

// Write exports the game's players to w. Players are ordered by total spend,
// largest first.
func (e *PlayerExporter) Write(ctx context.Context, w io.Writer, authority solana.PublicKey, options Options) (int, error) {
	g, err := e.source.Game(ctx, authority)
	if err != nil {
		return 0, err
	}
	players, err := e.source.Players(ctx, authority)
	if err != nil {
		return 0, fmt.Errorf("load players: %w", err)
	}
	filtered := filterPlayers(players, options)
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].TotalSpend() > filtered[j].TotalSpend()
	})

	rows := make([]Row, len(filtered))
	for i, p := range filtered {
		rows[i] = newRow(p)
	}

	switch options.Format {
	case FormatCSV:
		err = writeCSV(w, rows)
	case FormatJSON:
		err = writeJSON(w, Report{
			ExportTime: e.now().UTC(),
			Authority:  g.Authority.String(),
			Phase:      g.Phase.String(),
			GameOver:   g.GameOver,
			Summary:    summarize(filtered),
			Players:    rows,
		})
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Export writes a timestamped file under options.OutputDir and returns its
// path.
func (e *PlayerExporter) Export(ctx context.Context, authority solana.PublicKey, options Options) (string, error) {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, e.filename(authority, options))

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	n, err := e.Write(ctx, file, authority, options)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outputPath)
		return "", err
	}

	e.logger.Info("Players exported",
		zap.String("file", outputPath),
		zap.Int("count", n),
		zap.String("format", string(options.Format)))
	return outputPath, nil
}

func filterPlayers(players []*domain.PlayerState, options Options) []*domain.PlayerState {
	var filtered []*domain.PlayerState
	for _, p := range players {
		if p.TotalSpend() < options.MinSpend {
			continue
		}
		if options.OnlyRegistered && p.Username == "" {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

func (e *PlayerExporter) filename(authority solana.PublicKey, options Options) string {
	timestamp := e.now().Format("20060102_150405")
	return fmt.Sprintf("players_%s_%s.%s", authority.String()[:8], timestamp, options.Format)
}

func writeCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(r.csv()); err != nil {
			return fmt.Errorf("failed to write player: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func summarize(players []*domain.PlayerState) Summary {
	s := Summary{Players: len(players)}
	var premarket, live, referral, sell uint64
	for _, p := range players {
		if p.Username != "" {
			s.Registered++
		}
		if p.HasMinted {
			s.Minted++
		}
		premarket += p.PremarketSpent
		live += p.LiveSpendTotal
		referral += p.ReferralTotal
		sell += p.SellTotal
	}
	s.PremarketSpent = domain.SOL(premarket)
	s.LiveSpent = domain.SOL(live)
	s.ReferralTotal = domain.SOL(referral)
	s.SellTotal = domain.SOL(sell)
	return s
}
