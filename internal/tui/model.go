package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andy/talentsink/internal/app"
	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenTimesheets
	ScreenCandidates
	ScreenInvoices
	ScreenReports
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenDashboard:
		return "Dashboard"
	case ScreenTimesheets:
		return "Timesheets"
	case ScreenCandidates:
		return "Candidates"
	case ScreenInvoices:
		return "Invoices"
	case ScreenReports:
		return "Reports"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model for the admin console
type Model struct {
	app           *app.App
	actor         domain.Actor
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized)
	screens map[Screen]tea.Model

	// Timesheets awaiting review, shown in the header
	reviewCount int

	err error
}

// New creates a new root model acting as the given admin
func New(a *app.App, actor domain.Actor) Model {
	return Model{
		app:           a,
		actor:         actor,
		currentScreen: ScreenDashboard,
		screens: map[Screen]tea.Model{
			ScreenDashboard: NewDashboardModel(a, actor),
		},
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.screens[ScreenDashboard].Init(), m.countReview())
}

// countReview counts submitted and pending timesheets
func (m *Model) countReview() tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		ctx := context.Background()
		total := 0
		for _, status := range []domain.TimesheetStatus{domain.TimesheetStatusSubmitted, domain.TimesheetStatusPending} {
			s := status
			_, n, err := a.TimesheetService.List(ctx, actor, service.TimesheetQuery{Status: &s})
			if err != nil {
				return ErrorMsg{Err: err}
			}
			total += n
		}
		return reviewCountMsg{count: total}
	}
}

func (m *Model) newScreen(screen Screen) tea.Model {
	switch screen {
	case ScreenDashboard:
		return NewDashboardModel(m.app, m.actor)
	case ScreenTimesheets:
		return NewTimesheetsModel(m.app, m.actor)
	case ScreenCandidates:
		return NewCandidatesModel(m.app, m.actor)
	case ScreenInvoices:
		return NewInvoicesModel(m.app, m.actor)
	case ScreenReports:
		return NewReportsModel(m.app, m.actor)
	}
	return nil
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	if _, ok := m.screens[screen]; !ok {
		s := m.newScreen(screen)
		if s == nil {
			return nil
		}
		m.screens[screen] = s
		return s.Init()
	}
	return func() tea.Msg { return RefreshDataMsg{} }
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global navigation keys are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.screens[m.currentScreen].(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

func (m *Model) switchTo(screen Screen) tea.Cmd {
	m.currentScreen = screen
	m.err = nil
	return tea.Batch(m.initScreen(screen), m.countReview())
}

// navTarget maps a global navigation key to its screen
func navTarget(msg tea.KeyMsg) (Screen, bool) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Dashboard):
		return ScreenDashboard, true
	case key.Matches(msg, DefaultKeyMap.Timesheets):
		return ScreenTimesheets, true
	case key.Matches(msg, DefaultKeyMap.Candidates):
		return ScreenCandidates, true
	case key.Matches(msg, DefaultKeyMap.Invoices):
		return ScreenInvoices, true
	case key.Matches(msg, DefaultKeyMap.Reports):
		return ScreenReports, true
	}
	return 0, false
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Skip global navigation when a screen is capturing text input
		if !m.activeScreenCapturingInput() {
			if key.Matches(msg, DefaultKeyMap.Quit) {
				return m, tea.Quit
			}
			if screen, ok := navTarget(msg); ok {
				cmd := m.switchTo(screen)
				return m, cmd
			}
		}

	case SwitchScreenMsg:
		cmd := m.switchTo(msg.Screen)
		return m, cmd

	case reviewCountMsg:
		m.reviewCount = msg.count
		return m, nil

	case actionDoneMsg:
		// Writes can change the review queue
		var cmd tea.Cmd
		if s, ok := m.screens[m.currentScreen]; ok {
			m.screens[m.currentScreen], cmd = s.Update(msg)
		}
		return m, tea.Batch(cmd, m.countReview())

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	// Route message to current screen
	var cmd tea.Cmd
	if s, ok := m.screens[m.currentScreen]; ok {
		m.screens[m.currentScreen], cmd = s.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := fmt.Sprintf("talentsink - %s", m.currentScreen.String())
	if m.reviewCount > 0 {
		title += valueStyle.Render(fmt.Sprintf("  (%d awaiting review)", m.reviewCount))
	}
	header := headerStyle.Render(title)

	// Footer with navigation keys
	footer := footerStyle.Render("[D]ashboard  [T]imesheets  [C]andidates  [I]nvoices  [R]eports  [Q]uit")

	content := "Loading..."
	if s, ok := m.screens[m.currentScreen]; ok {
		content = s.View()
	}

	errorDisplay := ""
	if m.err != nil {
		errorDisplay = lipgloss.NewStyle().
			Foreground(errorColor).
			Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(a *app.App, actor domain.Actor) error {
	p := tea.NewProgram(New(a, actor), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
