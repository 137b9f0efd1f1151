package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/repository"
)

var (
	admin     = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	candidate = domain.Actor{UserID: 2, Role: domain.RoleCandidate}
	stranger  = domain.Actor{UserID: 3, Role: domain.RoleCandidate}

	week1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	week2 = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func eightHourDays(n int) domain.DayHours {
	var h domain.DayHours
	days := []*decimal.Decimal{&h.Monday, &h.Tuesday, &h.Wednesday, &h.Thursday, &h.Friday}
	for i := 0; i < n && i < len(days); i++ {
		*days[i] = dec("8")
	}
	return h
}

func repositoryFilterFor(candidateID int64) repository.TimesheetFilter {
	return repository.TimesheetFilter{CandidateID: &candidateID}
}

type fixture struct {
	users      *mockUserRepo
	billing    *mockBillingRepo
	timesheets *mockTimesheetRepo
	invoices   *mockInvoiceRepo
	svc        *timesheetService
}

func newFixture(withRate bool) *fixture {
	f := &fixture{
		users: newMockUserRepo(
			&domain.User{ID: 1, Email: "admin@example.com", FullName: "Admin", Role: domain.RoleAdmin, IsActive: true},
			&domain.User{ID: 2, Email: "cand@example.com", FullName: "Cand", Role: domain.RoleCandidate, IsActive: true},
			&domain.User{ID: 3, Email: "other@example.com", FullName: "Other", Role: domain.RoleCandidate, IsActive: true},
		),
		billing:    &mockBillingRepo{},
		timesheets: newMockTimesheetRepo(),
		invoices:   newMockInvoiceRepo(),
	}
	if withRate {
		_ = f.billing.Activate(context.Background(),
			domain.NewBillingConfig(2, dec("25"), dec("18"), 5, "USD", domain.EmploymentContract))
	}
	f.svc = &timesheetService{
		timesheetRepo:   f.timesheets,
		billingRepo:     f.billing,
		userRepo:        f.users,
		logger:          discardLogger(),
		defaultCurrency: "USD",
		now:             time.Now,
	}
	return f
}

func TestCreate_SubmittedWithServerTotals(t *testing.T) {
	f := newFixture(true)

	ts, err := f.svc.Create(context.Background(), candidate, CreateTimesheetInput{
		CandidateID:   99, // ignored for candidates
		WeekStartDate: week1,
		Hours:         eightHourDays(5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ts.CandidateID != 2 {
		t.Errorf("expected own candidate ID, got %d", ts.CandidateID)
	}
	if ts.Status != domain.TimesheetStatusSubmitted || ts.SubmittedAt == nil {
		t.Errorf("expected submitted with timestamp, got %s", ts.Status)
	}
	if !ts.TotalWeeklyHours.Equal(dec("40")) || ts.TotalWeeklyAmount.StringFixed(2) != "1000.00" {
		t.Errorf("expected 40h / 1000.00, got %s / %s", ts.TotalWeeklyHours, ts.TotalWeeklyAmount.StringFixed(2))
	}
}

func TestCreate_DuplicateWeekRejected(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(5)}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(3)})
	if !errors.Is(err, domain.ErrDuplicateWeek) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected duplicate week validation error, got %v", err)
	}
	if n, _ := f.timesheets.Count(ctx, repositoryFilterFor(2)); n != 1 {
		t.Errorf("expected exactly one row, got %d", n)
	}
}

func TestCreate_NoBillingConfig(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(5)})
	if !errors.Is(err, domain.ErrNoActiveBilling) {
		t.Fatalf("expected no active billing error, got %v", err)
	}

	ts, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{
		WeekStartDate: week1,
		Hours:         eightHourDays(5),
		Status:        domain.TimesheetStatusDraft,
	})
	if err != nil {
		t.Fatalf("draft create: %v", err)
	}
	if !ts.TotalWeeklyAmount.IsZero() || !ts.TotalWeeklyHours.Equal(dec("40")) {
		t.Errorf("expected 40h at zero rate, got %s / %s", ts.TotalWeeklyHours, ts.TotalWeeklyAmount)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CreateTimesheetInput
		field string
	}{
		{"not monday", CreateTimesheetInput{WeekStartDate: week1.AddDate(0, 0, 1)}, "weekStartDate"},
		{"saturday on five day week", CreateTimesheetInput{WeekStartDate: week1, Hours: domain.DayHours{Saturday: dec("4")}}, "saturdayHours"},
		{"over 24", CreateTimesheetInput{WeekStartDate: week1, Hours: domain.DayHours{Monday: dec("25")}}, "mondayHours"},
		{"bad status", CreateTimesheetInput{WeekStartDate: week1, Status: domain.TimesheetStatusApproved}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, candidate, tt.in)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected field %s, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func approvedTimesheet(t *testing.T, f *fixture) *domain.WeeklyTimesheet {
	t.Helper()
	ctx := context.Background()
	ts, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(5)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ts, err = f.svc.Approve(ctx, admin, ts.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return ts
}

func TestUpdate_ApprovedLockedForCandidate(t *testing.T) {
	f := newFixture(true)
	ts := approvedTimesheet(t, f)

	_, err := f.svc.Update(context.Background(), candidate, ts.ID, UpdateTimesheetInput{Hours: eightHourDays(4)})
	if !errors.Is(err, domain.ErrTimesheetLocked) || !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected locked/forbidden, got %v", err)
	}
}

func TestUpdate_AdminMayEditApproved(t *testing.T) {
	f := newFixture(true)
	ts := approvedTimesheet(t, f)

	updated, err := f.svc.Update(context.Background(), admin, ts.ID, UpdateTimesheetInput{Hours: eightHourDays(4)})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Status != domain.TimesheetStatusApproved {
		t.Errorf("admin edit must keep status, got %s", updated.Status)
	}
	if updated.TotalWeeklyAmount.StringFixed(2) != "800.00" {
		t.Errorf("expected totals recomputed to 800.00, got %s", updated.TotalWeeklyAmount.StringFixed(2))
	}

	history, _ := f.svc.History(context.Background(), admin, ts.ID)
	last := history[len(history)-1]
	if last.Action != domain.ActionUpdate || last.ActorID != admin.UserID {
		t.Errorf("expected audited admin update, got %+v", last)
	}
}

func TestUpdate_CandidateEditsRejectedWeek(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	ts := approvedTimesheet(t, f)

	if _, err := f.svc.Reject(ctx, admin, ts.ID, "wrong hours"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	updated, err := f.svc.Update(ctx, candidate, ts.ID, UpdateTimesheetInput{Hours: eightHourDays(3)})
	if err != nil {
		t.Fatalf("candidate update of rejected week: %v", err)
	}
	if updated.Status != domain.TimesheetStatusRejected {
		t.Errorf("edit must not change status, got %s", updated.Status)
	}

	resubmitted, err := f.svc.Submit(ctx, candidate, ts.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.Status != domain.TimesheetStatusSubmitted || resubmitted.RejectionReason != "" {
		t.Errorf("expected submitted without reason, got %s %q", resubmitted.Status, resubmitted.RejectionReason)
	}
}

func TestDelete_Rules(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	ts := approvedTimesheet(t, f)

	if err := f.svc.Delete(ctx, candidate, ts.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected candidate delete of approved to be forbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, stranger, ts.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected other candidate to be forbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, admin, ts.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, admin, ts.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestReviewTransitions(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	ts, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(5)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Approve(ctx, candidate, ts.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("candidate approve should be forbidden, got %v", err)
	}
	if _, err := f.svc.Reject(ctx, admin, ts.ID, ""); !errors.Is(err, domain.ErrRejectionReasonRequired) {
		t.Errorf("expected reason required, got %v", err)
	}

	approved, err := f.svc.Approve(ctx, admin, ts.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != admin.UserID || approved.ApprovedAt == nil {
		t.Errorf("expected approval metadata")
	}
	if _, err := f.svc.Approve(ctx, admin, ts.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("double approve should conflict, got %v", err)
	}

	rejected, err := f.svc.Reject(ctx, admin, ts.ID, "Friday missing")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.ApprovedAt != nil || rejected.ApprovedBy != nil || rejected.RejectionReason != "Friday missing" {
		t.Errorf("reject should clear approval and keep reason: %+v", rejected)
	}
	if _, err := f.svc.Approve(ctx, admin, ts.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("approving rejected should conflict, got %v", err)
	}
}

func TestRevert_ReturnsToPending(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	ts := approvedTimesheet(t, f)

	reverted, err := f.svc.Revert(ctx, admin, ts.ID, "recheck")
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != domain.TimesheetStatusPending {
		t.Errorf("expected pending, got %s", reverted.Status)
	}
	if _, err := f.svc.Approve(ctx, admin, ts.ID); err != nil {
		t.Errorf("pending should be approvable, got %v", err)
	}
}

func TestRateChangeIsAppliedOnEditAndSubmit(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	submitted, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(5)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	draft, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{
		WeekStartDate: week2,
		Hours:         eightHourDays(5),
		Status:        domain.TimesheetStatusDraft,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if submitted.TotalWeeklyAmount.StringFixed(2) != "1000.00" {
		t.Fatalf("expected 1000.00 at 25/h, got %s", submitted.TotalWeeklyAmount.StringFixed(2))
	}

	_ = f.billing.Activate(ctx, domain.NewBillingConfig(2, dec("30"), dec("18"), 5, "USD", domain.EmploymentContract))

	edited, err := f.svc.Update(ctx, candidate, submitted.ID, UpdateTimesheetInput{Hours: eightHourDays(5)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !edited.HourlyRate.Equal(dec("30")) || edited.TotalWeeklyAmount.StringFixed(2) != "1200.00" {
		t.Errorf("edit: expected 30/h and 1200.00, got %s and %s", edited.HourlyRate, edited.TotalWeeklyAmount.StringFixed(2))
	}

	resubmitted, err := f.svc.Submit(ctx, candidate, draft.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resubmitted.HourlyRate.Equal(dec("30")) || resubmitted.TotalWeeklyAmount.StringFixed(2) != "1200.00" {
		t.Errorf("submit: expected 30/h and 1200.00, got %s and %s", resubmitted.HourlyRate, resubmitted.TotalWeeklyAmount.StringFixed(2))
	}

	stored, err := f.timesheets.GetByID(ctx, submitted.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TotalWeeklyAmount.StringFixed(2) != "1200.00" {
		t.Errorf("expected stored total 1200.00, got %s", stored.TotalWeeklyAmount.StringFixed(2))
	}
}

func TestList_CandidateSeesOnlyOwn(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	_ = f.billing.Activate(ctx, domain.NewBillingConfig(3, dec("30"), dec("20"), 5, "USD", domain.EmploymentContract))

	if _, err := f.svc.Create(ctx, candidate, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Create(ctx, stranger, CreateTimesheetInput{WeekStartDate: week1, Hours: eightHourDays(5)}); err != nil {
		t.Fatal(err)
	}

	other := int64(3)
	rows, total, err := f.svc.List(ctx, candidate, TimesheetQuery{CandidateID: &other})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || rows[0].CandidateID != 2 {
		t.Errorf("expected only own timesheet, got %d rows", total)
	}

	_, total, _ = f.svc.List(ctx, admin, TimesheetQuery{})
	if total != 2 {
		t.Errorf("expected admin to see 2 rows, got %d", total)
	}
}
