package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Show    key.Binding
	Hide    key.Binding
	Launch  key.Binding
	Refresh key.Binding
	Exit    key.Binding
	Quit    key.Binding
	Help    key.Binding
	Yes     key.Binding
	No      key.Binding
}

var keys = keyMap{
	Show: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "show logs"),
	),
	Hide: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "hide logs"),
	),
	Launch: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "launch worker"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Exit: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "stop logtray"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
	Yes: key.NewBinding(key.WithKeys("y", "Y")),
	No:  key.NewBinding(key.WithKeys("n", "N", "esc")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Show, k.Hide, k.Launch, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Show, k.Hide, k.Launch},
		{k.Refresh, k.Exit},
		{k.Quit, k.Help},
	}
}
