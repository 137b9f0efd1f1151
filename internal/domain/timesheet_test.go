package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func hrs(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fullWeek() DayHours {
	return DayHours{
		Monday:    hrs("8"),
		Tuesday:   hrs("8"),
		Wednesday: hrs("8"),
		Thursday:  hrs("8"),
		Friday:    hrs("8"),
	}
}

func TestWeekStartOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-01", "2024-01-01"}, // Monday
		{"2024-01-03", "2024-01-01"},
		{"2024-01-07", "2024-01-01"}, // Sunday
		{"2024-01-08", "2024-01-08"},
		{"2024-03-01", "2024-02-26"},
	}
	for _, tt := range tests {
		in, _ := time.Parse(DateLayout, tt.in)
		got := WeekStartOf(in).Format(DateLayout)
		if got != tt.want {
			t.Errorf("WeekStartOf(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRecalculate_FortyHoursAtTwentyFive(t *testing.T) {
	ts := NewWeeklyTimesheet(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), fullWeek())
	ts.Recalculate(hrs("25"), "USD")

	if !ts.TotalWeeklyHours.Equal(hrs("40")) {
		t.Errorf("expected 40 hours, got %s", ts.TotalWeeklyHours)
	}
	if ts.TotalWeeklyAmount.StringFixed(2) != "1000.00" {
		t.Errorf("expected 1000.00, got %s", ts.TotalWeeklyAmount.StringFixed(2))
	}
	if ts.WeekEndDate.Format(DateLayout) != "2024-01-07" {
		t.Errorf("expected week end 2024-01-07, got %s", ts.WeekEndDate.Format(DateLayout))
	}
}

func TestRecalculate_ExactSum(t *testing.T) {
	h := DayHours{Monday: hrs("7.5"), Tuesday: hrs("0.5"), Wednesday: hrs("8"), Thursday: hrs("6.5"), Friday: hrs("4")}
	ts := NewWeeklyTimesheet(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), h)
	ts.Recalculate(hrs("33.33"), "EUR")

	if !ts.TotalWeeklyHours.Equal(hrs("26.5")) {
		t.Errorf("expected 26.5 hours, got %s", ts.TotalWeeklyHours)
	}
	if ts.TotalWeeklyAmount.StringFixed(2) != "883.25" {
		t.Errorf("expected 883.25, got %s", ts.TotalWeeklyAmount.StringFixed(2))
	}
}

func TestDayHoursValidate(t *testing.T) {
	tests := []struct {
		name        string
		hours       DayHours
		workingDays int
		wantField   string
	}{
		{"valid five day week", fullWeek(), 5, ""},
		{"over 24", DayHours{Monday: hrs("24.5")}, 5, "mondayHours"},
		{"negative", DayHours{Tuesday: hrs("-1")}, 5, "tuesdayHours"},
		{"quarter hour", DayHours{Wednesday: hrs("7.25")}, 5, "wednesdayHours"},
		{"saturday on five day week", DayHours{Saturday: hrs("4")}, 5, "saturdayHours"},
		{"saturday on six day week", DayHours{Saturday: hrs("4")}, 6, ""},
		{"sunday never", DayHours{Sunday: hrs("2")}, 6, "sundayHours"},
		{"zero sunday is fine", DayHours{Monday: hrs("8"), Sunday: hrs("0")}, 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate(tt.workingDays)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.wantField]; !ok {
				t.Errorf("expected field %s in %v", tt.wantField, verr.Fields)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected error to wrap ErrValidation")
			}
		})
	}
}

func TestParseTimesheetStatus(t *testing.T) {
	got, err := ParseTimesheetStatus("  Approved ")
	if err != nil || got != TimesheetStatusApproved {
		t.Fatalf("expected approved, got %q (%v)", got, err)
	}
	if _, err := ParseTimesheetStatus("archived"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestStatusMachine(t *testing.T) {
	now := time.Now()
	ts := NewWeeklyTimesheet(1, now, fullWeek())

	if err := ts.Approve(99, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("approving a draft should conflict, got %v", err)
	}
	if err := ts.Submit(now); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ts.SubmittedAt == nil {
		t.Fatal("expected submittedAt to be set")
	}
	if err := ts.Approve(99, now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if ts.ApprovedBy == nil || *ts.ApprovedBy != 99 {
		t.Fatal("expected approvedBy to be set")
	}
	if ts.CanCandidateModify() {
		t.Error("approved timesheet should be locked for candidates")
	}
	if err := ts.Approve(99, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double approve should fail, got %v", err)
	}
	if err := ts.Submit(now); !errors.Is(err, ErrConflict) {
		t.Errorf("submitting an approved timesheet should conflict, got %v", err)
	}

	if err := ts.Reject("   ", now); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}
	if err := ts.Reject("missing Friday", now); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if ts.ApprovedAt != nil || ts.ApprovedBy != nil {
		t.Error("reject should clear approval metadata")
	}
	if ts.RejectionReason != "missing Friday" {
		t.Errorf("unexpected reason %q", ts.RejectionReason)
	}

	if err := ts.Submit(now); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if ts.RejectionReason != "" {
		t.Error("resubmit should clear rejection reason")
	}
}

func TestRevert(t *testing.T) {
	now := time.Now()
	ts := NewWeeklyTimesheet(1, now, fullWeek())
	if err := ts.Revert(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	_ = ts.Submit(now)
	_ = ts.Approve(2, now)
	if err := ts.Revert(now); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if ts.Status != TimesheetStatusPending || ts.ApprovedAt != nil {
		t.Errorf("expected pending without approval data, got %s", ts.Status)
	}
}

func TestPositionAndDeadline(t *testing.T) {
	today := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC) // Wednesday
	past := NewWeeklyTimesheet(1, today.AddDate(0, 0, -7), DayHours{})
	current := NewWeeklyTimesheet(1, today, DayHours{})
	future := NewWeeklyTimesheet(1, today.AddDate(0, 0, 7), DayHours{})

	if past.Position(today) != WeekPast || !past.DeadlinePassed(today) {
		t.Error("expected last week to be past with deadline passed")
	}
	if current.Position(today) != WeekCurrent || current.DeadlinePassed(today) {
		t.Error("expected this week to be current and open")
	}
	if future.Position(today) != WeekFuture {
		t.Error("expected next week to be future")
	}
}
