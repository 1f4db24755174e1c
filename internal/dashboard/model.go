// internal/dashboard/model.go
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/shrimp-farm/internal/domain"
)

// Source is the read side of a game store.
type Source interface {
	Games(ctx context.Context) ([]solana.PublicKey, error)
	Game(ctx context.Context, authority solana.PublicKey) (*domain.GameState, error)
	Players(ctx context.Context, authority solana.PublicKey) ([]*domain.PlayerState, error)
}

// Snapshot is one consistent read of a game.
type Snapshot struct {
	Games   []solana.PublicKey
	Game    *domain.GameState
	Players []*domain.PlayerState
	At      time.Time
}

type snapshotMsg struct {
	snap *Snapshot
	err  error
}

type tickMsg time.Time

// Model is the dashboard: the pools of one game and its player table.
type Model struct {
	source   Source
	logger   *zap.Logger
	keys     KeyMap
	interval time.Duration

	spinner spinner.Model
	table   table.Model

	selected int
	loading  bool
	snap     *Snapshot
	err      error
	width    int
}

// New builds the dashboard. A zero interval disables auto refresh.
func New(source Source, interval time.Duration, logger *zap.Logger) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(Cyan)

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Player", Width: 14},
			{Title: "Name", Width: 12},
			{Title: "Shrimp", Width: 16},
			{Title: "Premarket", Width: 12},
			{Title: "Live", Width: 12},
			{Title: "Referral", Width: 12},
			{Title: "Dividend", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(Magenta).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#1B1D23")).Background(Cyan)
	t.SetStyles(styles)

	return Model{
		source:   source,
		logger:   logger.Named("dashboard"),
		keys:     DefaultKeyMap(),
		interval: interval,
		spinner:  sp,
		table:    t,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.tick())
}

func (m Model) tick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refresh reads the selected game off the UI goroutine.
func (m Model) refresh() tea.Cmd {
	source, selected := m.source, m.selected
	return func() tea.Msg {
		snap, err := Load(context.Background(), source, selected)
		return snapshotMsg{snap: snap, err: err}
	}
}

// Load reads the games list and the game at index selected (wrapped).
func Load(ctx context.Context, source Source, selected int) (*Snapshot, error) {
	games, err := source.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	snap := &Snapshot{Games: games, At: time.Now()}
	if len(games) == 0 {
		return snap, nil
	}
	authority := games[wrap(selected, len(games))]
	if snap.Game, err = source.Game(ctx, authority); err != nil {
		return nil, fmt.Errorf("load game %s: %w", authority, err)
	}
	if snap.Players, err = source.Players(ctx, authority); err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	sort.Slice(snap.Players, func(i, j int) bool {
		return snap.Players[i].TotalSpend() > snap.Players[j].TotalSpend()
	})
	return snap, nil
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.refresh()
		case key.Matches(msg, m.keys.Next):
			m.selected++
			m.loading = true
			return m, m.refresh()
		case key.Matches(msg, m.keys.Prev):
			m.selected--
			m.loading = true
			return m, m.refresh()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.logger.Warn("Refresh failed", zap.Error(msg.err))
			return m, nil
		}
		m.snap = msg.snap
		if n := len(msg.snap.Games); n > 0 {
			m.selected = wrap(m.selected, n)
		}
		m.table.SetRows(rows(msg.snap))
		return m, nil

	case tickMsg:
		m.loading = true
		return m, tea.Batch(m.refresh(), m.tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func short(k solana.PublicKey) string {
	s := k.String()
	if len(s) <= 12 {
		return s
	}
	return s[:5] + "…" + s[len(s)-5:]
}

func rows(snap *Snapshot) []table.Row {
	out := make([]table.Row, 0, len(snap.Players))
	for _, p := range snap.Players {
		out = append(out, table.Row{
			short(p.Owner),
			p.Username,
			p.Shrimp.Dec(),
			domain.SOL(p.PremarketSpent).StringFixed(4),
			domain.SOL(p.LiveSpendTotal).StringFixed(4),
			domain.SOL(p.PendingReferral()).StringFixed(4),
			domain.SOL(p.Withdrawable).StringFixed(4),
		})
	}
	return out
}

func (m Model) View() string {
	var b strings.Builder

	header := titleStyle.Render("shrimp farm")
	if m.loading {
		header += " " + m.spinner.View()
	}
	b.WriteString(header + "\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	case m.snap == nil:
		b.WriteString("loading…\n")
	case m.snap.Game == nil:
		b.WriteString("no games initialized\n")
	default:
		b.WriteString(m.gameView() + "\n")
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString(helpStyle.Render(m.keys.help()))
	return b.String()
}

func (m Model) gameView() string {
	g := m.snap.Game

	phase := premarketStyle.Render(g.Phase.String())
	if g.Phase == domain.PhaseLive {
		phase = liveStyle.Render(g.Phase.String())
	}
	if g.GameOver {
		phase = overStyle.Render("game over")
	}

	line := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}
	sol := func(v uint64) string { return domain.SOL(v).StringFixed(4) + " SOL" }

	info := panelStyle.Render(strings.Join([]string{
		line("game", fmt.Sprintf("%d/%d %s", m.selected+1, len(m.snap.Games), short(g.Authority))),
		line("phase", phase),
		line("market eggs", g.MarketEggs.Dec()),
		line("players", fmt.Sprint(len(m.snap.Players))),
		line("premarket", sol(g.TotalPremarketSpent)),
		line("nfts minted", fmt.Sprint(g.NftsMinted)),
		line("updated", m.snap.At.Format(time.TimeOnly)),
	}, "\n"))

	pools := panelStyle.Render(strings.Join([]string{
		line("treasury", sol(g.Treasury)),
		line("game", sol(g.GameBalance())),
		line("dev", sol(g.DevBalance)),
		line("sell+ref", sol(g.SellAndRefBalance)),
		line("dividends", sol(g.PremarketBalance)),
		line("withdrawable", sol(g.TotalWithdrawable)),
		line("prize", sol(g.OutstandingPrize())),
	}, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, info, pools)
}
