package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the browser's shortcuts. Row navigation is handled by the
// table's own bindings.
type KeyMap struct {
	ToggleLock key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ToggleLock: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "lock/unlock"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleLock, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
