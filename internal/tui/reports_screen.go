package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andy/talentsink/internal/app"
	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/report"
	"github.com/andy/talentsink/internal/service"
)

// ReportsModel displays monthly and bi-weekly aggregates for one month
type ReportsModel struct {
	app      *app.App
	actor    domain.Actor
	month    time.Time // first day of the displayed month
	biWeekly bool

	monthly []*domain.MonthlyPeriod
	periods []*domain.BiWeeklyPeriod
	names   map[int64]string

	loading   bool
	err       error
	statusMsg string
}

type reportsDataMsg struct {
	monthly []*domain.MonthlyPeriod
	periods []*domain.BiWeeklyPeriod
	names   map[int64]string
	err     error
}

// NewReportsModel creates a new reports screen model
func NewReportsModel(a *app.App, actor domain.Actor) tea.Model {
	now := time.Now()
	return &ReportsModel{
		app:     a,
		actor:   actor,
		month:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		loading: true,
	}
}

func (m *ReportsModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *ReportsModel) loadData() tea.Cmd {
	a, actor, month := m.app, m.actor, m.month
	return func() tea.Msg {
		ctx := context.Background()
		msg := reportsDataMsg{}

		monthly, err := a.ReportService.Monthly(ctx, actor, service.MonthlyQuery{Year: month.Year(), Month: month.Month()})
		if err != nil {
			msg.err = err
			return msg
		}
		msg.monthly = monthly

		// Periods overlapping the month
		from := month
		to := month.AddDate(0, 1, -1)
		periods, err := a.ReportService.BiWeekly(ctx, actor, service.BiWeeklyQuery{From: &from, To: &to})
		if err != nil {
			msg.err = err
			return msg
		}
		msg.periods = periods

		msg.names, msg.err = loadCandidateNames(ctx, a, actor)
		return msg
	}
}

// export writes the displayed month to an XLSX workbook
func (m *ReportsModel) export() tea.Cmd {
	a, monthly, names := m.app, m.monthly, m.names
	name := fmt.Sprintf("monthly-timesheets-%s.xlsx", m.month.Format("2006-01"))
	return func() tea.Msg {
		dir := a.Config.Invoice.OutputDir
		if err := os.MkdirAll(dir, 0755); err != nil {
			return actionDoneMsg{err: fmt.Errorf("create output dir: %w", err)}
		}

		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		defer f.Close()

		if err := report.MonthlyWorkbook(f, monthly, names); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Exported " + path}
	}
}

func (m *ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()

	case reportsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.monthly = msg.monthly
			m.periods = msg.periods
			m.names = msg.names
		}
		return m, nil

	case actionDoneMsg:
		m.err = msg.err
		m.statusMsg = msg.status
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		m.err = nil
		m.statusMsg = ""

		switch {
		case key.Matches(msg, DefaultKeyMap.Left):
			m.month = m.month.AddDate(0, -1, 0)
			m.loading = true
			return m, m.loadData()
		case key.Matches(msg, DefaultKeyMap.Right):
			m.month = m.month.AddDate(0, 1, 0)
			m.loading = true
			return m, m.loadData()
		case msg.String() == "b":
			m.biWeekly = !m.biWeekly
		case msg.String() == "x":
			return m, m.export()
		}
	}

	return m, nil
}

func (m *ReportsModel) View() string {
	if m.loading {
		return "Loading reports..."
	}

	var s string
	view := "Monthly"
	if m.biWeekly {
		view = "Bi-weekly"
	}
	s += titleStyle.Render(fmt.Sprintf("%s - %s", view, m.month.Format("January 2006"))) + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	if m.err != nil {
		s += lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if m.biWeekly {
		s += m.viewBiWeekly()
	} else {
		s += m.viewMonthly()
	}

	s += "\n" + helpStyle.Render("  h/l: previous/next month  b: toggle bi-weekly  x: export XLSX")
	return s
}

func (m *ReportsModel) viewMonthly() string {
	if len(m.monthly) == 0 {
		return subtitleStyle.Render("  No approved timesheets this month") + "\n"
	}

	s := subtitleStyle.Render(fmt.Sprintf(
		"  %-22s  %5s  %8s  %14s  %12s",
		"Candidate", "Weeks", "Hours", "Amount", "Avg/Week",
	)) + "\n"

	for _, p := range m.monthly {
		s += fmt.Sprintf("  %-22s  %5d  %8s  %14s  %12s\n",
			truncateStr(candidateName(m.names, p.CandidateID), 22),
			p.TotalWeeks,
			formatHours(p.TotalHours),
			formatMoney(p.TotalAmount, p.Currency),
			formatMoney(p.AverageAmountPerWeek, p.Currency),
		)
	}
	return s
}

func (m *ReportsModel) viewBiWeekly() string {
	if len(m.periods) == 0 {
		return subtitleStyle.Render("  No bi-weekly periods overlap this month") + "\n"
	}

	s := subtitleStyle.Render(fmt.Sprintf(
		"  %-22s  %-23s  %8s  %14s",
		"Candidate", "Period", "Hours", "Amount",
	)) + "\n"

	for _, p := range m.periods {
		period := fmt.Sprintf("%s - %s", p.PeriodStart.Format("Jan 02"), p.PeriodEnd.Format("Jan 02"))
		if p.IsPartial() {
			period += " (1 wk)"
		}
		s += fmt.Sprintf("  %-22s  %-23s  %8s  %14s\n",
			truncateStr(candidateName(m.names, p.CandidateID), 22),
			period,
			formatHours(p.TotalHours),
			formatMoney(p.TotalAmount, p.Currency),
		)
	}
	return s
}
