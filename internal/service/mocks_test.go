package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/repository"
)

// mock implementations

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserRepo struct {
	users map[int64]*domain.User
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[int64]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.NewValidationError("email", "email is already registered")
		}
	}
	user.ID = int64(len(m.users) + 1)
	m.users[user.ID] = user
	return nil
}
func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == domain.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}
func (m *mockUserRepo) List(ctx context.Context, role *domain.Role) ([]*domain.User, error) {
	out := make([]*domain.User, 0)
	for _, u := range m.users {
		if role == nil || u.Role == *role {
			out = append(out, u)
		}
	}
	return out, nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}
func (m *mockUserRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.Role == role && u.IsActive {
			n++
		}
	}
	return n, nil
}

type mockBillingRepo struct {
	configs []*domain.BillingConfig
}

func (m *mockBillingRepo) Activate(ctx context.Context, cfg *domain.BillingConfig) error {
	for _, c := range m.configs {
		if c.CandidateID == cfg.CandidateID {
			c.IsActive = false
		}
	}
	cfg.ID = int64(len(m.configs) + 1)
	cfg.IsActive = true
	m.configs = append(m.configs, cfg)
	return nil
}
func (m *mockBillingRepo) GetActive(ctx context.Context, candidateID int64) (*domain.BillingConfig, error) {
	for _, c := range m.configs {
		if c.CandidateID == candidateID && c.IsActive {
			return c, nil
		}
	}
	return nil, nil
}
func (m *mockBillingRepo) ListActive(ctx context.Context) ([]*domain.BillingConfig, error) {
	out := make([]*domain.BillingConfig, 0)
	for _, c := range m.configs {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *mockBillingRepo) History(ctx context.Context, candidateID int64) ([]*domain.BillingConfig, error) {
	out := make([]*domain.BillingConfig, 0)
	for i := len(m.configs) - 1; i >= 0; i-- {
		if m.configs[i].CandidateID == candidateID {
			out = append(out, m.configs[i])
		}
	}
	return out, nil
}

// mockTimesheetRepo stores copies so callers cannot mutate rows in place
type mockTimesheetRepo struct {
	rows    map[int64]*domain.WeeklyTimesheet
	history []*domain.TimesheetHistory
	nextID  int64
}

func newMockTimesheetRepo() *mockTimesheetRepo {
	return &mockTimesheetRepo{rows: make(map[int64]*domain.WeeklyTimesheet)}
}

func cloneTimesheet(ts *domain.WeeklyTimesheet) *domain.WeeklyTimesheet {
	c := *ts
	return &c
}

func (m *mockTimesheetRepo) Create(ctx context.Context, ts *domain.WeeklyTimesheet, actorID int64) error {
	for _, r := range m.rows {
		if r.CandidateID == ts.CandidateID && r.WeekStartDate.Equal(ts.WeekStartDate) {
			return domain.ErrDuplicateWeek
		}
	}
	m.nextID++
	ts.ID = m.nextID
	m.rows[ts.ID] = cloneTimesheet(ts)
	m.history = append(m.history, domain.NewTimesheetHistory(ts.ID, actorID, domain.ActionCreate, "status", "", string(ts.Status), ""))
	return nil
}
func (m *mockTimesheetRepo) GetByID(ctx context.Context, id int64) (*domain.WeeklyTimesheet, error) {
	if r, ok := m.rows[id]; ok {
		return cloneTimesheet(r), nil
	}
	return nil, fmt.Errorf("timesheet %d: %w", id, domain.ErrNotFound)
}
func (m *mockTimesheetRepo) Update(ctx context.Context, ts *domain.WeeklyTimesheet, actorID int64, action domain.HistoryAction, reason string) error {
	if _, ok := m.rows[ts.ID]; !ok {
		return fmt.Errorf("timesheet %d: %w", ts.ID, domain.ErrNotFound)
	}
	m.rows[ts.ID] = cloneTimesheet(ts)
	m.history = append(m.history, domain.NewTimesheetHistory(ts.ID, actorID, action, "", "", "", reason))
	return nil
}
func (m *mockTimesheetRepo) Delete(ctx context.Context, id int64, actorID int64, reason string) error {
	delete(m.rows, id)
	m.history = append(m.history, domain.NewTimesheetHistory(id, actorID, domain.ActionDelete, "", "", "", reason))
	return nil
}
func (m *mockTimesheetRepo) List(ctx context.Context, f repository.TimesheetFilter) ([]*domain.WeeklyTimesheet, error) {
	out := make([]*domain.WeeklyTimesheet, 0)
	for _, r := range m.rows {
		if f.CandidateID != nil && r.CandidateID != *f.CandidateID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.From != nil && r.WeekStartDate.Before(*f.From) {
			continue
		}
		if f.To != nil && r.WeekStartDate.After(*f.To) {
			continue
		}
		out = append(out, cloneTimesheet(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CandidateID != out[j].CandidateID {
			return out[i].CandidateID < out[j].CandidateID
		}
		return out[i].WeekStartDate.Before(out[j].WeekStartDate)
	})
	return out, nil
}
func (m *mockTimesheetRepo) Count(ctx context.Context, f repository.TimesheetFilter) (int, error) {
	rows, _ := m.List(ctx, f)
	return len(rows), nil
}
func (m *mockTimesheetRepo) CountByStatus(ctx context.Context) (map[domain.TimesheetStatus]int, error) {
	counts := make(map[domain.TimesheetStatus]int)
	for _, r := range m.rows {
		counts[r.Status]++
	}
	return counts, nil
}
func (m *mockTimesheetRepo) GetHistory(ctx context.Context, timesheetID int64) ([]*domain.TimesheetHistory, error) {
	out := make([]*domain.TimesheetHistory, 0)
	for _, h := range m.history {
		if h.TimesheetID == timesheetID {
			out = append(out, h)
		}
	}
	return out, nil
}

type mockInvoiceRepo struct {
	invoices map[int64]*domain.Invoice
	seq      int
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: make(map[int64]*domain.Invoice)}
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	for _, inv := range m.invoices {
		if inv.TimesheetID == invoice.TimesheetID {
			return domain.ErrAlreadyInvoiced
		}
	}
	invoice.ID = int64(len(m.invoices) + 1)
	m.invoices[invoice.ID] = invoice
	return nil
}
func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, fmt.Errorf("invoice %d: %w", id, domain.ErrNotFound)
}
func (m *mockInvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, fmt.Errorf("invoice %s: %w", number, domain.ErrNotFound)
}
func (m *mockInvoiceRepo) GetByTimesheetID(ctx context.Context, timesheetID int64) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.TimesheetID == timesheetID {
			return inv, nil
		}
	}
	return nil, nil
}
func (m *mockInvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*domain.Invoice, error) {
	out := make([]*domain.Invoice, 0)
	for _, inv := range m.invoices {
		if f.Status != nil && inv.Status != *f.Status {
			continue
		}
		if f.CandidateID != nil && inv.CandidateID != *f.CandidateID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}
func (m *mockInvoiceRepo) Count(ctx context.Context, f repository.InvoiceFilter) (int, error) {
	out, _ := m.List(ctx, f)
	return len(out), nil
}
func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	m.invoices[invoice.ID] = invoice
	return nil
}
func (m *mockInvoiceRepo) GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	m.seq++
	return fmt.Sprintf("%s-%d-%03d", prefix, year, m.seq), nil
}
