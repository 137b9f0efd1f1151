package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/db"
	"github.com/andy/talentsink/internal/domain"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"), "test-key")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func createCandidate(t *testing.T, repo *UserRepo, email string) *domain.User {
	t.Helper()
	u := domain.NewUser(email, "Test Candidate", domain.RoleCandidate)
	u.PasswordHash = "x"
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestTimesheetRepo_DuplicateWeek(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	users := NewUserRepo(database)
	sheets := NewTimesheetRepo(database)

	u := createCandidate(t, users, "dup@example.com")
	week := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := domain.NewWeeklyTimesheet(u.ID, week, domain.DayHours{Monday: decimal.NewFromInt(8)})
	first.Recalculate(decimal.NewFromInt(25), "USD")
	if err := sheets.Create(ctx, first, u.ID); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := domain.NewWeeklyTimesheet(u.ID, week.AddDate(0, 0, 2), domain.DayHours{})
	err := sheets.Create(ctx, second, u.ID)
	if !errors.Is(err, domain.ErrDuplicateWeek) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected duplicate week validation error, got %v", err)
	}

	n, err := sheets.Count(ctx, TimesheetFilter{CandidateID: &u.ID})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 row, got %d (%v)", n, err)
	}
}

func TestTimesheetRepo_RoundTripAndHistory(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	users := NewUserRepo(database)
	sheets := NewTimesheetRepo(database)

	u := createCandidate(t, users, "round@example.com")
	ts := domain.NewWeeklyTimesheet(u.ID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), domain.DayHours{
		Monday: decimal.RequireFromString("7.5"),
		Friday: decimal.NewFromInt(8),
	})
	ts.Recalculate(decimal.NewFromInt(20), "GBP")
	if err := sheets.Create(ctx, ts, u.ID); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := sheets.GetByID(ctx, ts.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Hours.Monday.Equal(decimal.RequireFromString("7.5")) || got.TotalWeeklyAmount.StringFixed(2) != "310.00" {
		t.Errorf("unexpected row: monday=%s amount=%s", got.Hours.Monday, got.TotalWeeklyAmount)
	}
	if got.WeekEndDate.Format(domain.DateLayout) != "2024-01-14" {
		t.Errorf("unexpected week end %s", got.WeekEndDate.Format(domain.DateLayout))
	}

	if err := got.Submit(time.Now()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := sheets.Update(ctx, got, u.ID, domain.ActionSubmit, ""); err != nil {
		t.Fatalf("update: %v", err)
	}

	history, err := sheets.GetHistory(ctx, ts.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected create + submit history, got %d", len(history))
	}
	if history[1].Action != domain.ActionSubmit || history[1].NewValue != "submitted" {
		t.Errorf("unexpected history %+v", history[1])
	}

	if err := sheets.Delete(ctx, ts.ID, u.ID, "duplicate entry"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := sheets.GetByID(ctx, ts.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestBillingRepo_SingleActiveConfig(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	users := NewUserRepo(database)
	billing := NewBillingRepo(database)

	u := createCandidate(t, users, "billing@example.com")

	first := domain.NewBillingConfig(u.ID, decimal.NewFromInt(25), decimal.NewFromInt(18), 5, "usd", domain.EmploymentContract)
	if err := billing.Activate(ctx, first); err != nil {
		t.Fatalf("activate first: %v", err)
	}
	second := domain.NewBillingConfig(u.ID, decimal.NewFromInt(30), decimal.NewFromInt(20), 6, "USD", domain.EmploymentContract)
	if err := billing.Activate(ctx, second); err != nil {
		t.Fatalf("activate second: %v", err)
	}

	active, err := billing.GetActive(ctx, u.ID)
	if err != nil || active == nil {
		t.Fatalf("expected active config, got %v (%v)", active, err)
	}
	if active.ID != second.ID || !active.HourlyRate.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected second config active, got %+v", active)
	}

	history, err := billing.History(ctx, u.ID)
	if err != nil || len(history) != 2 {
		t.Fatalf("expected 2 configs in history, got %d (%v)", len(history), err)
	}
	activeCount := 0
	for _, c := range history {
		if c.IsActive {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("expected exactly one active config, got %d", activeCount)
	}
}

func TestInvoiceRepo_NumberingAndUniqueness(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	users := NewUserRepo(database)
	sheets := NewTimesheetRepo(database)
	invoices := NewInvoiceRepo(database)

	u := createCandidate(t, users, "invoice@example.com")
	ts := domain.NewWeeklyTimesheet(u.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.DayHours{Monday: decimal.NewFromInt(8)})
	ts.Recalculate(decimal.NewFromInt(25), "USD")
	ts.Status = domain.TimesheetStatusApproved
	if err := sheets.Create(ctx, ts, u.ID); err != nil {
		t.Fatalf("create timesheet: %v", err)
	}

	num, err := invoices.GetNextInvoiceNumber(ctx, "INV", 2024)
	if err != nil || num != "INV-2024-001" {
		t.Fatalf("expected INV-2024-001, got %s (%v)", num, err)
	}

	inv, err := domain.NewInvoiceFromTimesheet(num, ts, time.Now(), 30)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	num, _ = invoices.GetNextInvoiceNumber(ctx, "INV", 2024)
	if num != "INV-2024-002" {
		t.Errorf("expected INV-2024-002, got %s", num)
	}

	again, _ := domain.NewInvoiceFromTimesheet(num, ts, time.Now(), 30)
	if err := invoices.Create(ctx, again); !errors.Is(err, domain.ErrAlreadyInvoiced) {
		t.Errorf("expected already invoiced, got %v", err)
	}

	found, err := invoices.GetByTimesheetID(ctx, ts.ID)
	if err != nil || found == nil || found.TotalAmount.StringFixed(2) != "200.00" {
		t.Errorf("unexpected invoice lookup: %+v (%v)", found, err)
	}
}
