package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusDraft},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusSent},
	InvoiceStatusPaid:    {},
}

// ParseInvoiceStatus normalizes case and whitespace and rejects unknown values
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := invoiceTransitions[status]; !ok {
		return "", NewValidationError("status", fmt.Sprintf("unknown invoice status %q", s))
	}
	return status, nil
}

// Invoice is a frozen snapshot of one approved timesheet. Amounts are never
// re-read from the timesheet after generation.
type Invoice struct {
	ID            int64
	InvoiceNumber string
	CandidateID   int64
	TimesheetID   int64
	PeriodStart   time.Time
	PeriodEnd     time.Time
	TotalHours    decimal.Decimal
	HourlyRate    decimal.Decimal
	TotalAmount   decimal.Decimal
	Currency      string
	Status        InvoiceStatus
	IssuedDate    time.Time
	DueDate       time.Time
	PaidDate      *time.Time
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Related data (populated by service)
	Candidate *User
}

// NewInvoiceFromTimesheet snapshots an approved timesheet into a draft invoice
func NewInvoiceFromTimesheet(invoiceNumber string, ts *WeeklyTimesheet, issued time.Time, dueDays int) (*Invoice, error) {
	if !ts.IsApproved() {
		return nil, ErrTimesheetNotApproved
	}
	return &Invoice{
		InvoiceNumber: invoiceNumber,
		CandidateID:   ts.CandidateID,
		TimesheetID:   ts.ID,
		PeriodStart:   ts.WeekStartDate,
		PeriodEnd:     ts.WeekEndDate,
		TotalHours:    ts.TotalWeeklyHours,
		HourlyRate:    ts.HourlyRate,
		TotalAmount:   ts.TotalWeeklyAmount,
		Currency:      ts.Currency,
		Status:        InvoiceStatusDraft,
		IssuedDate:    issued,
		DueDate:       issued.AddDate(0, 0, dueDays),
		CreatedAt:     issued,
		UpdatedAt:     issued,
	}, nil
}

// CanTransitionTo returns true if the status change is allowed
func (i *Invoice) CanTransitionTo(next InvoiceStatus) bool {
	for _, s := range invoiceTransitions[i.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the invoice to the next status
func (i *Invoice) TransitionTo(next InvoiceStatus, now time.Time) error {
	if !i.CanTransitionTo(next) {
		return fmt.Errorf("cannot move invoice from %s to %s: %w", i.Status, next, ErrInvalidTransition)
	}
	i.Status = next
	if next == InvoiceStatusPaid {
		i.PaidDate = &now
	}
	i.UpdatedAt = now
	return nil
}

// IsPastDue returns true for a sent invoice whose due date has passed
func (i *Invoice) IsPastDue(now time.Time) bool {
	return i.Status == InvoiceStatusSent && DateOf(i.DueDate).Before(DateOf(now))
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return errors.New("invoice number is required")
	}
	if i.CandidateID <= 0 {
		return errors.New("candidate ID is required")
	}
	if i.TimesheetID <= 0 {
		return errors.New("timesheet ID is required")
	}
	if i.PeriodEnd.Before(i.PeriodStart) {
		return errors.New("period end must be after period start")
	}
	if i.TotalAmount.IsNegative() {
		return errors.New("total amount cannot be negative")
	}
	return nil
}
