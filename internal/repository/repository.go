package repository

import (
	"context"
	"time"

	"github.com/andy/talentsink/internal/domain"
)

// UserRepository manages admin and candidate accounts
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, role *domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

// BillingRepository manages billing configs; at most one is active per candidate
type BillingRepository interface {
	Activate(ctx context.Context, cfg *domain.BillingConfig) error // Deactivates the previous config
	GetActive(ctx context.Context, candidateID int64) (*domain.BillingConfig, error) // Returns nil if none
	ListActive(ctx context.Context) ([]*domain.BillingConfig, error)
	History(ctx context.Context, candidateID int64) ([]*domain.BillingConfig, error)
}

// TimesheetFilter narrows timesheet queries. Nil fields are ignored.
type TimesheetFilter struct {
	CandidateID *int64
	Status      *domain.TimesheetStatus
	From        *time.Time // week_start_date >= From
	To          *time.Time // week_start_date <= To
	Page        Page
}

// TimesheetRepository manages weekly timesheets with audit trail
type TimesheetRepository interface {
	Create(ctx context.Context, ts *domain.WeeklyTimesheet, actorID int64) error // Creates audit record
	GetByID(ctx context.Context, id int64) (*domain.WeeklyTimesheet, error)
	Update(ctx context.Context, ts *domain.WeeklyTimesheet, actorID int64, action domain.HistoryAction, reason string) error
	Delete(ctx context.Context, id int64, actorID int64, reason string) error
	List(ctx context.Context, filter TimesheetFilter) ([]*domain.WeeklyTimesheet, error)
	Count(ctx context.Context, filter TimesheetFilter) (int, error)
	CountByStatus(ctx context.Context) (map[domain.TimesheetStatus]int, error)
	GetHistory(ctx context.Context, timesheetID int64) ([]*domain.TimesheetHistory, error)
}

// InvoiceFilter narrows invoice queries. Nil fields are ignored.
type InvoiceFilter struct {
	CandidateID *int64
	Status      *domain.InvoiceStatus
	Page        Page
}

// InvoiceRepository manages invoice persistence
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	GetByTimesheetID(ctx context.Context, timesheetID int64) (*domain.Invoice, error) // Returns nil if none
	List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error)
	Count(ctx context.Context, filter InvoiceFilter) (int, error)
	Update(ctx context.Context, invoice *domain.Invoice) error
	GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error)
}
