package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit key.Binding
	Back key.Binding

	// Navigation
	Dashboard  key.Binding
	Timesheets key.Binding
	Candidates key.Binding
	Invoices   key.Binding
	Reports    key.Binding

	// Actions
	Select key.Binding
	Filter key.Binding

	// Movement
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:       key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Dashboard:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
	Timesheets: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timesheets")),
	Candidates: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "candidates")),
	Invoices:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invoices")),
	Reports:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reports")),
	Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
}
