package tui

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andy/talentsink/internal/app"
	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

type timesheetViewMode int

const (
	timesheetViewList   timesheetViewMode = iota
	timesheetViewDetail                   // Daily hours and history
	timesheetViewReason                   // Typing a reject or revert reason
)

// timesheetFilter selects which statuses the list shows
type timesheetFilter struct {
	label    string
	statuses []domain.TimesheetStatus // empty means all
}

var timesheetFilters = []timesheetFilter{
	{"awaiting review", []domain.TimesheetStatus{domain.TimesheetStatusSubmitted, domain.TimesheetStatusPending}},
	{"approved", []domain.TimesheetStatus{domain.TimesheetStatusApproved}},
	{"rejected", []domain.TimesheetStatus{domain.TimesheetStatusRejected}},
	{"draft", []domain.TimesheetStatus{domain.TimesheetStatusDraft}},
	{"all", nil},
}

// TimesheetsModel is the review queue
type TimesheetsModel struct {
	app       *app.App
	actor     domain.Actor
	mode      timesheetViewMode
	filter    int
	rows      []*domain.WeeklyTimesheet
	names     map[int64]string
	cursor    int
	history   []*domain.TimesheetHistory
	loading   bool
	err       error
	statusMsg string

	// Reason entry state
	reasonAction string // "reject" or "revert"
	reasonInput  textinput.Model
}

type timesheetsDataMsg struct {
	rows  []*domain.WeeklyTimesheet
	names map[int64]string
	err   error
}

type timesheetHistoryMsg struct {
	history []*domain.TimesheetHistory
	err     error
}

// NewTimesheetsModel creates a new timesheets screen model
func NewTimesheetsModel(a *app.App, actor domain.Actor) tea.Model {
	return &TimesheetsModel{
		app:     a,
		actor:   actor,
		loading: true,
	}
}

// IsCapturingInput returns true while a reason is being typed
func (m *TimesheetsModel) IsCapturingInput() bool {
	return m.mode == timesheetViewReason
}

func (m *TimesheetsModel) Init() tea.Cmd {
	return m.loadTimesheets()
}

func (m *TimesheetsModel) loadTimesheets() tea.Cmd {
	filter := timesheetFilters[m.filter]
	a, actor := m.app, m.actor
	return func() tea.Msg {
		ctx := context.Background()

		var rows []*domain.WeeklyTimesheet
		if len(filter.statuses) == 0 {
			all, _, err := a.TimesheetService.List(ctx, actor, service.TimesheetQuery{})
			if err != nil {
				return timesheetsDataMsg{err: err}
			}
			rows = all
		}
		for _, status := range filter.statuses {
			s := status
			part, _, err := a.TimesheetService.List(ctx, actor, service.TimesheetQuery{Status: &s})
			if err != nil {
				return timesheetsDataMsg{err: err}
			}
			rows = append(rows, part...)
		}

		// Oldest week first so the queue is worked in order
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].WeekStartDate.Before(rows[j].WeekStartDate)
		})

		names, err := loadCandidateNames(ctx, a, actor)
		if err != nil {
			return timesheetsDataMsg{err: err}
		}
		return timesheetsDataMsg{rows: rows, names: names}
	}
}

func (m *TimesheetsModel) loadHistory(id int64) tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		history, err := a.TimesheetService.History(context.Background(), actor, id)
		return timesheetHistoryMsg{history: history, err: err}
	}
}

func (m *TimesheetsModel) current() *domain.WeeklyTimesheet {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor]
}

func (m *TimesheetsModel) approve(ts *domain.WeeklyTimesheet) tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		if _, err := a.TimesheetService.Approve(context.Background(), actor, ts.ID); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Approved week of %s", ts.WeekStartDate.Format(domain.DateLayout))}
	}
}

func (m *TimesheetsModel) applyReason(ts *domain.WeeklyTimesheet, action, reason string) tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if action == "reject" {
			_, err = a.TimesheetService.Reject(ctx, actor, ts.ID, reason)
		} else {
			_, err = a.TimesheetService.Revert(ctx, actor, ts.ID, reason)
		}
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Timesheet %d: %s done", ts.ID, action)}
	}
}

func (m *TimesheetsModel) generateInvoice(ts *domain.WeeklyTimesheet) tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		inv, err := a.InvoiceService.Generate(context.Background(), actor, ts.ID)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Invoice %s created (%s)", inv.InvoiceNumber, formatMoney(inv.TotalAmount, inv.Currency))}
	}
}

func (m *TimesheetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == timesheetViewReason {
		return m.updateReason(msg)
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadTimesheets()

	case timesheetsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			m.names = msg.names
			if m.cursor >= len(m.rows) {
				m.cursor = max(0, len(m.rows)-1)
			}
		}
		return m, nil

	case timesheetHistoryMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.history = msg.history
		m.mode = timesheetViewDetail
		return m, nil

	case actionDoneMsg:
		m.err = msg.err
		m.statusMsg = msg.status
		m.mode = timesheetViewList
		m.loading = true
		return m, m.loadTimesheets()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if m.mode == timesheetViewDetail {
			if key.Matches(msg, DefaultKeyMap.Back) {
				m.mode = timesheetViewList
				m.history = nil
			}
			return m, nil
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m *TimesheetsModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.statusMsg = ""

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Filter):
		m.filter = (m.filter + 1) % len(timesheetFilters)
		m.cursor = 0
		m.loading = true
		return m, m.loadTimesheets()
	case key.Matches(msg, DefaultKeyMap.Select):
		if ts := m.current(); ts != nil {
			m.loading = true
			return m, m.loadHistory(ts.ID)
		}
	case msg.String() == "a":
		if ts := m.current(); ts != nil {
			return m, m.approve(ts)
		}
	case msg.String() == "x", msg.String() == "v":
		if m.current() != nil {
			m.reasonAction = "reject"
			if msg.String() == "v" {
				m.reasonAction = "revert"
			}
			m.reasonInput = textinput.New()
			m.reasonInput.Placeholder = "Reason"
			m.reasonInput.CharLimit = 500
			m.reasonInput.Width = 60
			m.mode = timesheetViewReason
			return m, m.reasonInput.Focus()
		}
	case msg.String() == "g":
		if ts := m.current(); ts != nil {
			return m, m.generateInvoice(ts)
		}
	}

	return m, nil
}

func (m *TimesheetsModel) updateReason(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		m.mode = timesheetViewList
		return m.Update(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = timesheetViewList
			return m, nil
		case "enter":
			ts := m.current()
			if ts == nil {
				m.mode = timesheetViewList
				return m, nil
			}
			return m, m.applyReason(ts, m.reasonAction, m.reasonInput.Value())
		}
	}

	var cmd tea.Cmd
	m.reasonInput, cmd = m.reasonInput.Update(msg)
	return m, cmd
}

func (m *TimesheetsModel) View() string {
	if m.loading {
		return "Loading timesheets..."
	}

	switch m.mode {
	case timesheetViewDetail:
		return m.viewDetail()
	case timesheetViewReason:
		return m.viewReason()
	default:
		return m.viewList()
	}
}

func (m *TimesheetsModel) viewList() string {
	var s string
	s += titleStyle.Render("Timesheets") + subtitleStyle.Render("  ("+timesheetFilters[m.filter].label+")") + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.rows) == 0 {
		s += subtitleStyle.Render("  No timesheets. Press 'f' to change the filter.")
		return s
	}

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-5s  %-22s  %-10s  %8s  %14s  %s",
		"ID", "Candidate", "Week", "Hours", "Amount", "Status",
	)) + "\n"

	for i, ts := range m.rows {
		line := fmt.Sprintf("  %-5d  %-22s  %-10s  %8s  %14s  %s",
			ts.ID,
			truncateStr(candidateName(m.names, ts.CandidateID), 22),
			ts.WeekStartDate.Format(domain.DateLayout),
			formatHours(ts.TotalWeeklyHours),
			formatMoney(ts.TotalWeeklyAmount, ts.Currency),
			timesheetBadge(ts.Status),
		)
		if i == m.cursor {
			s += selectedStyle.Render(line) + "\n"
		} else {
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: detail  a: approve  x: reject  v: revert  g: invoice  f: filter")
	return s
}

func (m *TimesheetsModel) viewDetail() string {
	ts := m.current()
	if ts == nil {
		return "No timesheet selected"
	}

	var s string
	s += titleStyle.Render(fmt.Sprintf("%s, week of %s",
		candidateName(m.names, ts.CandidateID), ts.WeekStartDate.Format(domain.DateLayout))) + "\n\n"

	days := ts.Hours.Days()
	for i, h := range days {
		day := ts.WeekStartDate.AddDate(0, 0, i)
		s += fmt.Sprintf("  %-10s %-6s %6s\n", day.Weekday(), day.Format("Jan 02"), formatHours(h))
	}
	s += fmt.Sprintf("\n  Total:  %s at %s = %s\n",
		formatHours(ts.TotalWeeklyHours),
		formatMoney(ts.HourlyRate, ts.Currency),
		lipgloss.NewStyle().Bold(true).Render(formatMoney(ts.TotalWeeklyAmount, ts.Currency)),
	)
	s += fmt.Sprintf("  Status: %s\n", timesheetBadge(ts.Status))
	if ts.RejectionReason != "" {
		s += fmt.Sprintf("  Reason: %s\n", ts.RejectionReason)
	}
	if ts.Notes != "" {
		s += fmt.Sprintf("  Notes:  %s\n", ts.Notes)
	}

	s += "\n  History\n"
	for _, h := range m.history {
		change := h.Reason
		if h.FieldName != "" {
			change = fmt.Sprintf("%s: %s -> %s", h.FieldName, h.OldValue, h.NewValue)
		}
		s += subtitleStyle.Render(fmt.Sprintf("    %s  %-8s %s",
			h.ChangedAt.Format("Jan 02 15:04"), h.Action, truncateStr(change, 50))) + "\n"
	}

	s += "\n" + helpStyle.Render("  esc: back to list")
	return s
}

func (m *TimesheetsModel) viewReason() string {
	var s string
	s += titleStyle.Render(fmt.Sprintf("Timesheet %s", m.reasonAction)) + "\n\n"

	label := "  Rejection reason (required):"
	if m.reasonAction == "revert" {
		label = "  Reason (optional):"
	}
	s += lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(label) + "\n"
	s += "  " + m.reasonInput.View() + "\n"

	if m.err != nil {
		s += "\n" + errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}

	s += "\n" + helpStyle.Render("  enter: confirm  esc: cancel")
	return s
}

// timesheetBadge renders a timesheet status with color
func timesheetBadge(status domain.TimesheetStatus) string {
	switch status {
	case domain.TimesheetStatusDraft:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("DRAFT")
	case domain.TimesheetStatusSubmitted:
		return lipgloss.NewStyle().Foreground(primaryColor).Render("SUBMITTED")
	case domain.TimesheetStatusPending:
		return lipgloss.NewStyle().Foreground(warningColor).Render("PENDING")
	case domain.TimesheetStatusApproved:
		return lipgloss.NewStyle().Foreground(successColor).Render("APPROVED")
	case domain.TimesheetStatusRejected:
		return lipgloss.NewStyle().Foreground(errorColor).Render("REJECTED")
	default:
		return string(status)
	}
}
