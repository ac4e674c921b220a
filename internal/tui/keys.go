package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Generate  key.Binding
	CancelGen key.Binding
	Reset     key.Binding
	FreeChat  key.Binding
	Quit      key.Binding
	Up        key.Binding
	Down      key.Binding
}

var DefaultKeyMap = KeyMap{
	Generate: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", "generate"),
	),
	CancelGen: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "cancel generation"),
	),
	Reset: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel / start over"),
	),
	FreeChat: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("ctrl+f", "free chat / guided"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "scroll down"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Generate, k.FreeChat, k.Reset, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Generate, k.CancelGen, k.Reset},
		{k.FreeChat, k.Up, k.Down, k.Quit},
	}
}
