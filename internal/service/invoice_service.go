package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/repository"
)

// InvoiceQuery filters invoice listings
type InvoiceQuery struct {
	CandidateID *int64
	Status      *domain.InvoiceStatus
	Page        repository.Page
}

// InvoiceService manages invoice generation and lifecycle. All operations
// are admin only.
type InvoiceService interface {
	// Generate snapshots an approved timesheet into a draft invoice
	Generate(ctx context.Context, actor domain.Actor, timesheetID int64) (*domain.Invoice, error)

	// UpdateStatus applies a lifecycle transition
	UpdateStatus(ctx context.Context, actor domain.Actor, invoiceID int64, status domain.InvoiceStatus) (*domain.Invoice, error)

	// MarkOverdue moves sent invoices past their due date to overdue
	MarkOverdue(ctx context.Context, actor domain.Actor) ([]*domain.Invoice, error)

	// GetInvoice retrieves an invoice with its candidate
	GetInvoice(ctx context.Context, actor domain.Actor, id int64) (*domain.Invoice, error)

	// ListInvoices lists invoices with optional filters
	ListInvoices(ctx context.Context, actor domain.Actor, q InvoiceQuery) ([]*domain.Invoice, int, error)
}

type invoiceService struct {
	invoiceRepo   repository.InvoiceRepository
	timesheetRepo repository.TimesheetRepository
	userRepo      repository.UserRepository
	logger        *slog.Logger
	prefix        string
	dueDays       int
	now           func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	timesheetRepo repository.TimesheetRepository,
	userRepo repository.UserRepository,
	logger *slog.Logger,
	prefix string,
	dueDays int,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:   invoiceRepo,
		timesheetRepo: timesheetRepo,
		userRepo:      userRepo,
		logger:        logger,
		prefix:        prefix,
		dueDays:       dueDays,
		now:           time.Now,
	}
}

func (s *invoiceService) Generate(ctx context.Context, actor domain.Actor, timesheetID int64) (*domain.Invoice, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	ts, err := s.timesheetRepo.GetByID(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if !ts.IsApproved() {
		return nil, domain.ErrTimesheetNotApproved
	}

	existing, err := s.invoiceRepo.GetByTimesheetID(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyInvoiced
	}

	issued := s.now()
	number, err := s.invoiceRepo.GetNextInvoiceNumber(ctx, s.prefix, issued.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}

	invoice, err := domain.NewInvoiceFromTimesheet(number, ts, issued, s.dueDays)
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice generated",
		"invoice", invoice.InvoiceNumber,
		"timesheet_id", timesheetID,
		"amount", invoice.TotalAmount.StringFixed(2),
		"currency", invoice.Currency,
	)
	return invoice, nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, actor domain.Actor, invoiceID int64, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	from := invoice.Status
	if err := invoice.TransitionTo(status, s.now()); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice status changed", "invoice", invoice.InvoiceNumber, "from", from, "to", status)
	return invoice, nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context, actor domain.Actor) ([]*domain.Invoice, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	status := domain.InvoiceStatusSent
	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{Status: &status})
	if err != nil {
		return nil, err
	}

	now := s.now()
	marked := make([]*domain.Invoice, 0)
	for _, invoice := range invoices {
		if !invoice.IsPastDue(now) {
			continue
		}
		if err := invoice.TransitionTo(domain.InvoiceStatusOverdue, now); err != nil {
			return marked, err
		}
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return marked, err
		}
		marked = append(marked, invoice)
	}

	if len(marked) > 0 {
		s.logger.Info("invoices marked overdue", "count", len(marked))
	}
	return marked, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, actor domain.Actor, id int64) (*domain.Invoice, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate, err := s.userRepo.GetByID(ctx, invoice.CandidateID)
	if err != nil {
		return nil, err
	}
	invoice.Candidate = candidate
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, actor domain.Actor, q InvoiceQuery) ([]*domain.Invoice, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}

	filter := repository.InvoiceFilter{CandidateID: q.CandidateID, Status: q.Status, Page: q.Page}
	total, err := s.invoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}
