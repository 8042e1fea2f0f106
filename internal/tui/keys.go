package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Ask       key.Binding
	Summarize key.Binding
	Choose    key.Binding
	Clear     key.Binding
	History   key.Binding
	Back      key.Binding
	Submit    key.Binding
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Ask:       key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("ctrl+q", "ask questions")),
		Summarize: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "summarize & save")),
		Choose:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "choose file")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		History:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "history")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// mainHelp implements help.KeyMap for the compose screen.
type mainHelp struct{ k keyMap }

func (h mainHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Ask, h.k.Summarize, h.k.Choose, h.k.History, h.k.Clear, h.k.Quit}
}

func (h mainHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp(), {h.k.PageUp, h.k.PageDown}}
}

// historyHelp implements help.KeyMap for the history screen.
type historyHelp struct{ k keyMap }

func (h historyHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Up, h.k.Down, h.k.Submit, h.k.Back, h.k.Quit}
}

func (h historyHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// pathHelp implements help.KeyMap for the file prompt.
type pathHelp struct{ k keyMap }

func (h pathHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Submit, h.k.Back, h.k.Quit}
}

func (h pathHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
