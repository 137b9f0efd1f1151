package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for week boundaries.
const DateLayout = "2006-01-02"

type TimesheetStatus string

const (
	TimesheetStatusDraft     TimesheetStatus = "draft"
	TimesheetStatusSubmitted TimesheetStatus = "submitted"
	TimesheetStatusPending   TimesheetStatus = "pending"
	TimesheetStatusApproved  TimesheetStatus = "approved"
	TimesheetStatusRejected  TimesheetStatus = "rejected"
)

// ParseTimesheetStatus normalizes case and whitespace and rejects unknown values
func ParseTimesheetStatus(s string) (TimesheetStatus, error) {
	status := TimesheetStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case TimesheetStatusDraft, TimesheetStatusSubmitted, TimesheetStatusPending,
		TimesheetStatusApproved, TimesheetStatusRejected:
		return status, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown timesheet status %q", s))
}

var (
	maxDayHours = decimal.NewFromInt(24)
	two         = decimal.NewFromInt(2)
)

// DayHours holds the hours worked on each day of a Monday-based week.
type DayHours struct {
	Monday    decimal.Decimal
	Tuesday   decimal.Decimal
	Wednesday decimal.Decimal
	Thursday  decimal.Decimal
	Friday    decimal.Decimal
	Saturday  decimal.Decimal
	Sunday    decimal.Decimal
}

// Days returns the hours in Monday..Sunday order
func (d DayHours) Days() [7]decimal.Decimal {
	return [7]decimal.Decimal{d.Monday, d.Tuesday, d.Wednesday, d.Thursday, d.Friday, d.Saturday, d.Sunday}
}

// Total returns the exact sum of all seven days
func (d DayHours) Total() decimal.Decimal {
	return decimal.Sum(d.Monday, d.Tuesday, d.Wednesday, d.Thursday, d.Friday, d.Saturday, d.Sunday)
}

// Validate checks range, half-hour granularity and working-day rules
func (d DayHours) Validate(workingDaysPerWeek int) error {
	verr := &ValidationError{}
	for i, h := range d.Days() {
		day := weekdayAt(i)
		field := strings.ToLower(day.String()) + "Hours"
		switch {
		case h.IsNegative() || h.GreaterThan(maxDayHours):
			verr.Add(field, "hours must be between 0 and 24")
		case !h.Mul(two).IsInteger():
			verr.Add(field, "hours must be in 0.5 increments")
		case h.IsPositive() && !IsWorkingDay(day, workingDaysPerWeek):
			verr.Add(field, fmt.Sprintf("%s is not a working day", day))
		}
	}
	return verr.OrNil()
}

// weekdayAt maps a Monday-based index to a time.Weekday
func weekdayAt(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}

type WeeklyTimesheet struct {
	ID                int64
	CandidateID       int64
	WeekStartDate     time.Time
	WeekEndDate       time.Time
	Hours             DayHours
	TotalWeeklyHours  decimal.Decimal
	HourlyRate        decimal.Decimal // rate used for the last computation
	TotalWeeklyAmount decimal.Decimal
	Currency          string
	Status            TimesheetStatus
	RejectionReason   string
	SubmittedAt       *time.Time
	ApprovedAt        *time.Time
	ApprovedBy        *int64
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewWeeklyTimesheet creates a draft timesheet for the week containing weekStart
func NewWeeklyTimesheet(candidateID int64, weekStart time.Time, hours DayHours) *WeeklyTimesheet {
	now := time.Now()
	start := WeekStartOf(weekStart)
	return &WeeklyTimesheet{
		CandidateID:   candidateID,
		WeekStartDate: start,
		WeekEndDate:   start.AddDate(0, 0, 6),
		Hours:         hours,
		Status:        TimesheetStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// WeekStartOf returns the Monday (UTC midnight) of the week containing t
func WeekStartOf(t time.Time) time.Time {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// DateOf truncates t to its calendar date at UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseWeekStart parses a YYYY-MM-DD date that must fall on a Monday
func ParseWeekStart(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, NewValidationError("weekStartDate", "expected format YYYY-MM-DD")
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, NewValidationError("weekStartDate", "week start date must be a Monday")
	}
	return t, nil
}

// Recalculate recomputes totals from the day fields with the given rate
func (t *WeeklyTimesheet) Recalculate(rate decimal.Decimal, currency string) {
	t.TotalWeeklyHours = t.Hours.Total()
	t.HourlyRate = rate
	t.TotalWeeklyAmount = t.TotalWeeklyHours.Mul(rate).Round(2)
	if currency != "" {
		t.Currency = currency
	}
	t.UpdatedAt = time.Now()
}

// IsApproved returns true once an admin has approved the week
func (t *WeeklyTimesheet) IsApproved() bool {
	return t.Status == TimesheetStatusApproved
}

// CanCandidateModify returns true while the candidate may edit or delete
func (t *WeeklyTimesheet) CanCandidateModify() bool {
	return t.Status != TimesheetStatusApproved
}

// Submit marks the timesheet as submitted for review
func (t *WeeklyTimesheet) Submit(now time.Time) error {
	switch t.Status {
	case TimesheetStatusDraft, TimesheetStatusSubmitted, TimesheetStatusPending, TimesheetStatusRejected:
	default:
		return fmt.Errorf("cannot submit %s timesheet: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = TimesheetStatusSubmitted
	t.SubmittedAt = &now
	t.RejectionReason = ""
	t.UpdatedAt = now
	return nil
}

// Approve locks the timesheet against candidate edits
func (t *WeeklyTimesheet) Approve(adminID int64, now time.Time) error {
	if t.Status != TimesheetStatusSubmitted && t.Status != TimesheetStatusPending {
		return fmt.Errorf("cannot approve %s timesheet: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = TimesheetStatusApproved
	t.ApprovedAt = &now
	t.ApprovedBy = &adminID
	t.RejectionReason = ""
	t.UpdatedAt = now
	return nil
}

// Reject sends the timesheet back to the candidate with a reason
func (t *WeeklyTimesheet) Reject(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectionReasonRequired
	}
	switch t.Status {
	case TimesheetStatusSubmitted, TimesheetStatusPending, TimesheetStatusApproved:
	default:
		return fmt.Errorf("cannot reject %s timesheet: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = TimesheetStatusRejected
	t.RejectionReason = reason
	t.ApprovedAt = nil
	t.ApprovedBy = nil
	t.UpdatedAt = now
	return nil
}

// Revert moves an approved timesheet back to pending review
func (t *WeeklyTimesheet) Revert(now time.Time) error {
	if t.Status != TimesheetStatusApproved {
		return fmt.Errorf("cannot revert %s timesheet: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = TimesheetStatusPending
	t.ApprovedAt = nil
	t.ApprovedBy = nil
	t.UpdatedAt = now
	return nil
}

type WeekPosition string

const (
	WeekPast    WeekPosition = "past"
	WeekCurrent WeekPosition = "current"
	WeekFuture  WeekPosition = "future"
)

// Position classifies the week relative to today
func (t *WeeklyTimesheet) Position(today time.Time) WeekPosition {
	current := WeekStartOf(today)
	switch {
	case t.WeekStartDate.Before(current):
		return WeekPast
	case t.WeekStartDate.After(current):
		return WeekFuture
	default:
		return WeekCurrent
	}
}

// DeadlinePassed returns true if the week ended before today
func (t *WeeklyTimesheet) DeadlinePassed(today time.Time) bool {
	return t.WeekEndDate.Before(DateOf(today))
}

func (t *WeeklyTimesheet) Validate(workingDaysPerWeek int) error {
	verr := &ValidationError{}
	if t.CandidateID <= 0 {
		verr.Add("candidateId", "candidate is required")
	}
	if t.WeekStartDate.IsZero() {
		verr.Add("weekStartDate", "week start date is required")
	} else if t.WeekStartDate.Weekday() != time.Monday {
		verr.Add("weekStartDate", "week start date must be a Monday")
	}
	if err := t.Hours.Validate(workingDaysPerWeek); err != nil {
		if hv, ok := err.(*ValidationError); ok {
			for k, v := range hv.Fields {
				verr.Add(k, v)
			}
		}
	}
	return verr.OrNil()
}
