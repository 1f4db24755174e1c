package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	Cyan    = lipgloss.Color("#00E5FF")
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")

	Base01 = lipgloss.Color("#6C7280") // Muted text
	Base2  = lipgloss.Color("#ECEFF4") // Primary text
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Base01).
			Padding(0, 1).
			MarginRight(1)

	labelStyle = lipgloss.NewStyle().Foreground(Base01).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(Base2)

	liveStyle      = lipgloss.NewStyle().Foreground(Green).Bold(true)
	premarketStyle = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	overStyle      = lipgloss.NewStyle().Foreground(Magenta).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(Red)
	helpStyle      = lipgloss.NewStyle().Foreground(Base01).MarginTop(1)
)
