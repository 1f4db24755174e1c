package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts for the dashboard
type KeyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Next    key.Binding
	Prev    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "n"),
			key.WithHelp("tab", "next game"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "p"),
			key.WithHelp("shift+tab", "previous game"),
		),
	}
}

func (k KeyMap) help() string {
	var out string
	for i, b := range []key.Binding{k.Refresh, k.Next, k.Prev, k.Quit} {
		if i > 0 {
			out += "  •  "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
