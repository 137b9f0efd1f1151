package tui

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// actionDoneMsg reports the outcome of a write made from a screen
type actionDoneMsg struct {
	status string
	err    error
}

// reviewCountMsg carries the number of timesheets awaiting review
type reviewCountMsg struct {
	count int
}
