package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Choose  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Mark    key.Binding
	Jump    key.Binding
	Confirm key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "option up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "option down")),
		Choose:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose")),
		Next:    key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next")),
		Prev:    key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/p", "previous")),
		Mark:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark for review")),
		Jump:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to question")),
		Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "submit")),
		Back:    key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Choose, k.Next, k.Prev, k.Mark, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Choose},
		{k.Next, k.Prev, k.Jump},
		{k.Mark, k.Help, k.Quit},
	}
}
