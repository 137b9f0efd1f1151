package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/andy/talentsink/internal/app"
	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

type invoiceViewMode int

const (
	invoiceViewList   invoiceViewMode = iota
	invoiceViewDetail                 // Viewing a single invoice
)

// InvoicesModel displays invoices in list and detail views
type InvoicesModel struct {
	app       *app.App
	actor     domain.Actor
	mode      invoiceViewMode
	invoices  []*domain.Invoice
	names     map[int64]string
	cursor    int
	loading   bool
	err       error
	statusMsg string
}

type invoicesDataMsg struct {
	invoices []*domain.Invoice
	names    map[int64]string
	err      error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App, actor domain.Actor) tea.Model {
	return &InvoicesModel{
		app:     a,
		actor:   actor,
		mode:    invoiceViewList,
		loading: true,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		ctx := context.Background()
		invoices, _, err := a.InvoiceService.ListInvoices(ctx, actor, service.InvoiceQuery{})
		if err != nil {
			return invoicesDataMsg{err: err}
		}
		names, err := loadCandidateNames(ctx, a, actor)
		if err != nil {
			return invoicesDataMsg{err: err}
		}
		return invoicesDataMsg{invoices: invoices, names: names}
	}
}

func (m *InvoicesModel) current() *domain.Invoice {
	if m.cursor < 0 || m.cursor >= len(m.invoices) {
		return nil
	}
	return m.invoices[m.cursor]
}

func (m *InvoicesModel) setStatus(inv *domain.Invoice, status domain.InvoiceStatus) tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		updated, err := a.InvoiceService.UpdateStatus(context.Background(), actor, inv.ID, status)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Invoice %s marked %s", updated.InvoiceNumber, updated.Status)}
	}
}

func (m *InvoicesModel) markOverdue() tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		marked, err := a.InvoiceService.MarkOverdue(context.Background(), actor)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("%d invoice(s) marked overdue", len(marked))}
	}
}

// writePDF renders the invoice into the configured output directory
func (m *InvoicesModel) writePDF(inv *domain.Invoice) tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		ctx := context.Background()

		// The breakdown is optional
		ts, err := a.TimesheetService.Get(ctx, actor, inv.TimesheetID)
		if err != nil {
			ts = nil
		}

		path, err := a.PDF.WriteFile(a.Config.Invoice.OutputDir, inv, ts)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Invoice %s -> %s", inv.InvoiceNumber, path)}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.invoices = msg.invoices
			m.names = msg.names
			if m.cursor >= len(m.invoices) {
				m.cursor = max(0, len(m.invoices)-1)
			}
		}
		return m, nil

	case actionDoneMsg:
		m.err = msg.err
		m.statusMsg = msg.status
		m.loading = true
		return m, m.loadInvoices()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m *InvoicesModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.statusMsg = ""

	if m.mode == invoiceViewDetail && key.Matches(msg, DefaultKeyMap.Back) {
		m.mode = invoiceViewList
		return m, nil
	}

	switch {
	case m.mode == invoiceViewList && key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case m.mode == invoiceViewList && key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if m.current() != nil {
			m.mode = invoiceViewDetail
		}
	case msg.String() == "s":
		if inv := m.current(); inv != nil {
			return m, m.setStatus(inv, domain.InvoiceStatusSent)
		}
	case msg.String() == "p":
		if inv := m.current(); inv != nil {
			return m, m.setStatus(inv, domain.InvoiceStatusPaid)
		}
	case msg.String() == "o":
		return m, m.markOverdue()
	case msg.String() == "w":
		if inv := m.current(); inv != nil {
			return m, m.writePDF(inv)
		}
	}

	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading..."
	}

	if m.mode == invoiceViewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m *InvoicesModel) viewList() string {
	var s string
	s += titleStyle.Render("Invoices") + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.invoices) == 0 && m.err == nil {
		s += subtitleStyle.Render("  No invoices yet. Generate one from an approved timesheet (t, then g).")
		return s
	}

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-14s  %-20s  %-22s  %12s  %-11s  %s",
		"Number", "Candidate", "Period", "Total", "Due", "Status",
	)) + "\n"

	for i, inv := range m.invoices {
		period := fmt.Sprintf("%s - %s",
			inv.PeriodStart.Format("Jan 02"),
			inv.PeriodEnd.Format("Jan 02, 2006"),
		)

		invLine := fmt.Sprintf("  %-14s  %-20s  %-22s  %12s  %-11s  %s",
			inv.InvoiceNumber,
			truncateStr(candidateName(m.names, inv.CandidateID), 20),
			period,
			formatMoney(inv.TotalAmount, inv.Currency),
			inv.DueDate.Format("2006-01-02"),
			statusBadge(inv.Status),
		)

		if i == m.cursor {
			s += selectedStyle.Render(invLine) + "\n"
		} else {
			s += invLine + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: detail  s: sent  p: paid  o: mark overdue  w: write PDF")
	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.current()
	if inv == nil {
		return "No invoice selected"
	}

	var s string
	s += titleStyle.Render(fmt.Sprintf("Invoice %s", inv.InvoiceNumber)) + "\n\n"
	s += fmt.Sprintf("  Candidate: %s\n", candidateName(m.names, inv.CandidateID))
	s += fmt.Sprintf("  Timesheet: #%d\n", inv.TimesheetID)
	s += fmt.Sprintf("  Period:    %s - %s\n",
		inv.PeriodStart.Format("Jan 02, 2006"),
		inv.PeriodEnd.Format("Jan 02, 2006"),
	)
	s += fmt.Sprintf("  Issued:    %s\n", inv.IssuedDate.Format("Jan 02, 2006"))
	s += fmt.Sprintf("  Due:       %s\n", inv.DueDate.Format("Jan 02, 2006"))
	if inv.PaidDate != nil {
		s += fmt.Sprintf("  Paid:      %s\n", inv.PaidDate.Format("Jan 02, 2006"))
	}
	s += fmt.Sprintf("  Status:    %s\n", statusBadge(inv.Status))
	s += "\n"

	s += fmt.Sprintf("  Hours:     %10s\n", formatHours(inv.TotalHours))
	s += fmt.Sprintf("  Rate:      %10s\n", formatMoney(inv.HourlyRate, inv.Currency))
	s += lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("  Total:     %10s", formatMoney(inv.TotalAmount, inv.Currency)),
	) + "\n"

	if m.err != nil {
		s += "\n" + errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}
	if m.statusMsg != "" {
		s += "\n" + statusStyle.Render("  "+m.statusMsg) + "\n"
	}

	s += "\n" + helpStyle.Render("  s: sent  p: paid  w: write PDF  esc: back to list")
	return s
}

// statusBadge renders an invoice status with color
func statusBadge(status domain.InvoiceStatus) string {
	switch status {
	case domain.InvoiceStatusDraft:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("DRAFT")
	case domain.InvoiceStatusSent:
		return lipgloss.NewStyle().Foreground(warningColor).Render("SENT")
	case domain.InvoiceStatusPaid:
		return lipgloss.NewStyle().Foreground(successColor).Render("PAID")
	case domain.InvoiceStatusOverdue:
		return lipgloss.NewStyle().Foreground(errorColor).Render("OVERDUE")
	default:
		return string(status)
	}
}
