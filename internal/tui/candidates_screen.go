package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/app"
	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

// form field indices
const (
	fieldRate = iota
	fieldPay
	fieldDays
	fieldCurrency
	fieldEmployment
	fieldCount
)

// CandidatesModel lists candidates with their active billing and edits it
type CandidatesModel struct {
	app        *app.App
	actor      domain.Actor
	candidates []*domain.User
	billing    map[int64]*domain.BillingConfig
	cursor     int
	loading    bool
	err        error
	statusMsg  string

	// Form state
	editing    bool
	fields     []textinput.Model
	fieldFocus int
}

type candidatesDataMsg struct {
	candidates []*domain.User
	billing    map[int64]*domain.BillingConfig
	err        error
}

// NewCandidatesModel creates a new candidates screen model
func NewCandidatesModel(a *app.App, actor domain.Actor) tea.Model {
	return &CandidatesModel{
		app:     a,
		actor:   actor,
		billing: make(map[int64]*domain.BillingConfig),
		loading: true,
	}
}

// IsCapturingInput returns true when the billing form is active
func (m *CandidatesModel) IsCapturingInput() bool {
	return m.editing
}

func (m *CandidatesModel) Init() tea.Cmd {
	return m.loadCandidates()
}

func (m *CandidatesModel) loadCandidates() tea.Cmd {
	a, actor := m.app, m.actor
	return func() tea.Msg {
		ctx := context.Background()

		candidates, err := a.UserService.ListCandidates(ctx, actor)
		if err != nil {
			return candidatesDataMsg{err: err}
		}

		billing := make(map[int64]*domain.BillingConfig, len(candidates))
		for _, c := range candidates {
			cfg, err := a.BillingService.GetActive(ctx, actor, c.ID)
			if err != nil {
				return candidatesDataMsg{err: err}
			}
			if cfg != nil {
				billing[c.ID] = cfg
			}
		}
		return candidatesDataMsg{candidates: candidates, billing: billing}
	}
}

func (m *CandidatesModel) initForm(current *domain.BillingConfig) {
	m.fields = make([]textinput.Model, fieldCount)

	placeholders := []string{"25.00", "18.00", "5", m.app.Config.Billing.DefaultCurrency, "contract"}
	limits := []int{12, 12, 1, 3, 10}
	for i := range m.fields {
		m.fields[i] = textinput.New()
		m.fields[i].Placeholder = placeholders[i]
		m.fields[i].CharLimit = limits[i]
		m.fields[i].Width = 20
	}

	if current != nil {
		m.fields[fieldRate].SetValue(current.HourlyRate.StringFixed(2))
		m.fields[fieldPay].SetValue(current.PayRate.StringFixed(2))
		m.fields[fieldDays].SetValue(strconv.Itoa(current.WorkingDaysPerWeek))
		m.fields[fieldCurrency].SetValue(current.Currency)
		m.fields[fieldEmployment].SetValue(string(current.EmploymentType))
	}

	m.fieldFocus = fieldRate
	m.fields[fieldRate].Focus()
}

func (m *CandidatesModel) saveBilling() tea.Cmd {
	candidate := m.candidates[m.cursor]
	values := make([]string, fieldCount)
	for i := range m.fields {
		values[i] = strings.TrimSpace(m.fields[i].Value())
	}
	a, actor := m.app, m.actor

	return func() tea.Msg {
		in := service.BillingInput{
			Currency:       strings.ToUpper(values[fieldCurrency]),
			EmploymentType: domain.EmploymentType(values[fieldEmployment]),
		}

		rate, err := decimal.NewFromString(values[fieldRate])
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("invalid hourly rate: %s", values[fieldRate])}
		}
		in.HourlyRate = rate

		if values[fieldPay] != "" {
			if in.PayRate, err = decimal.NewFromString(values[fieldPay]); err != nil {
				return actionDoneMsg{err: fmt.Errorf("invalid pay rate: %s", values[fieldPay])}
			}
		}
		if values[fieldDays] != "" {
			if in.WorkingDaysPerWeek, err = strconv.Atoi(values[fieldDays]); err != nil {
				return actionDoneMsg{err: fmt.Errorf("invalid working days: %s", values[fieldDays])}
			}
		}

		if _, err := a.BillingService.SetConfig(context.Background(), actor, candidate.ID, in); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Saved billing for %s", candidate.FullName)}
	}
}

func (m *CandidatesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadCandidates()

	case candidatesDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.candidates = msg.candidates
			m.billing = msg.billing
			if m.cursor >= len(m.candidates) {
				m.cursor = max(0, len(m.candidates)-1)
			}
		}
		return m, nil

	case actionDoneMsg:
		m.err = msg.err
		m.statusMsg = msg.status
		m.loading = true
		return m, m.loadCandidates()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.Select):
			// Enter opens the billing form for the selected candidate
			if len(m.candidates) > 0 {
				m.editing = true
				m.initForm(m.billing[m.candidates[m.cursor].ID])
				return m, m.fields[fieldRate].Focus()
			}
		}
	}

	return m, nil
}

func (m *CandidatesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.editing = false
		m.statusMsg = msg.status
		m.loading = true
		return m, m.loadCandidates()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.editing = false
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + fieldCount) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == fieldCount-1 {
				return m, m.saveBilling()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveBilling()
		}
	}

	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *CandidatesModel) View() string {
	if m.editing {
		return m.viewForm()
	}
	return m.viewList()
}

func (m *CandidatesModel) viewForm() string {
	var s string
	s += titleStyle.Render(fmt.Sprintf("Billing for %s", m.candidates[m.cursor].FullName)) + "\n"
	s += subtitleStyle.Render("  Saving replaces the active configuration; history is kept.") + "\n\n"

	labels := []string{"Hourly rate:", "Pay rate:", "Working days/week (5 or 6):", "Currency:", "Employment (contract/fulltime):"}
	for i, label := range labels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			indicator = "> "
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.fields[i].View())
	}

	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")
	return s
}

func (m *CandidatesModel) viewList() string {
	if m.loading {
		return "Loading candidates..."
	}

	var s string
	s += titleStyle.Render("Candidates") + "\n\n"

	if m.statusMsg != "" {
		s += statusStyle.Render("  "+m.statusMsg) + "\n\n"
	}
	if m.err != nil {
		s += errStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.candidates) == 0 {
		s += subtitleStyle.Render("  No candidates have registered yet.") + "\n"
		return s
	}

	for i, c := range m.candidates {
		s += m.renderCandidate(i, c) + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: edit billing")
	return s
}

func (m *CandidatesModel) renderCandidate(index int, c *domain.User) string {
	selected := index == m.cursor

	indicator := "  "
	if selected {
		indicator = "> "
	}
	line1 := fmt.Sprintf("%s%s <%s>", indicator, c.FullName, c.Email)

	line2 := "    No billing configured"
	if cfg := m.billing[c.ID]; cfg != nil {
		line2 = fmt.Sprintf("    Rate: %s/h  Pay: %s/h  |  %d days/week  |  %s",
			formatMoney(cfg.HourlyRate, cfg.Currency),
			formatMoney(cfg.PayRate, cfg.Currency),
			cfg.WorkingDaysPerWeek,
			cfg.EmploymentType,
		)
	}

	nameStyle := lipgloss.NewStyle()
	if !c.IsActive {
		nameStyle = nameStyle.Foreground(mutedColor)
	}
	if selected {
		nameStyle = nameStyle.Bold(true).Foreground(primaryColor)
	}
	return nameStyle.Render(line1) + "\n" + subtitleStyle.Render(line2)
}
