package app

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the global bindings. List navigation is handled by the list.
type keyMap struct {
	Toggle   key.Binding
	Back     key.Binding
	Forward  key.Binding
	Stop     key.Binding
	Start    key.Binding
	Reload   key.Binding
	Continue key.Binding
	Library  key.Binding
	History  key.Binding
	VolUp    key.Binding
	VolDown  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Back:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "back")),
		Forward:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "forward")),
		Stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Start:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "listen")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Continue: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continue")),
		Library:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "library")),
		History:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		VolUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		VolDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Toggle, k.Back, k.Forward, k.Stop, k.Library, k.History, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Toggle, k.Stop},
		{k.Back, k.Forward, k.VolUp, k.VolDown},
		{k.Continue, k.Library, k.History, k.Reload},
		{k.Help, k.Quit},
	}
}
