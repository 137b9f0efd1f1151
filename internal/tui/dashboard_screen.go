package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andy/talentsink/internal/app"
	"github.com/andy/talentsink/internal/domain"
)

// DashboardModel shows the admin summary
type DashboardModel struct {
	app   *app.App
	actor domain.Actor

	summary *domain.DashboardSummary

	loading bool
	err     error
}

type dashboardDataMsg struct {
	summary *domain.DashboardSummary
	err     error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App, actor domain.Actor) tea.Model {
	return &DashboardModel{
		app:     a,
		actor:   actor,
		loading: true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.app.ReportService.Dashboard(context.Background(), m.actor)
		return dashboardDataMsg{summary: summary, err: err}
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.summary = msg.summary
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	d := m.summary
	currency := d.Currency

	var s string
	s += fmt.Sprintf(
		"  Candidates:  %-12d  Awaiting review:  %d\n  This month:  %-12s  Billed:           %s\n  Margin:      %-12s  Outstanding:      %s\n",
		d.ActiveCandidates,
		d.PendingReview(),
		formatHours(d.ApprovedHoursThisMonth),
		formatMoney(d.ApprovedAmountThisMonth, currency),
		d.ProfitMarginPercent.StringFixed(2)+"%",
		formatMoney(d.OutstandingInvoiceTotal, currency),
	)

	s += "\n" + m.renderStatuses()
	s += "\n" + m.renderRevenue()
	return s
}

func (m *DashboardModel) renderStatuses() string {
	d := m.summary
	s := "  Timesheets\n"
	for _, status := range []domain.TimesheetStatus{
		domain.TimesheetStatusDraft,
		domain.TimesheetStatusSubmitted,
		domain.TimesheetStatusPending,
		domain.TimesheetStatusApproved,
		domain.TimesheetStatusRejected,
	} {
		s += fmt.Sprintf("    %-10s %4d\n", status, d.TimesheetsByStatus[status])
	}

	s += "\n  Invoices\n"
	for _, status := range []domain.InvoiceStatus{
		domain.InvoiceStatusDraft,
		domain.InvoiceStatusSent,
		domain.InvoiceStatusOverdue,
		domain.InvoiceStatusPaid,
	} {
		s += fmt.Sprintf("    %-10s %4d\n", status, d.InvoicesByStatus[status])
	}
	return s
}

func (m *DashboardModel) renderRevenue() string {
	header := "  Revenue by Month\n"
	if len(m.summary.RevenueByMonth) == 0 {
		return header + subtitleStyle.Render("  No approved timesheets yet") + "\n"
	}

	s := header
	for _, r := range m.summary.RevenueByMonth {
		s += fmt.Sprintf("    %d-%02d  %8s  %14s  margin %s\n",
			r.Year, int(r.Month),
			formatHours(r.Hours),
			formatMoney(r.Amount, r.Currency),
			formatMoney(r.Margin, r.Currency),
		)
	}
	return s
}
