package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andy/talentsink/internal/db"
	"github.com/andy/talentsink/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

const invoiceColumns = `id, invoice_number, candidate_id, timesheet_id, period_start, period_end,
	total_hours, hourly_rate, total_amount, currency, status,
	issued_date, due_date, paid_date, notes, created_at, updated_at`

// Create inserts a new invoice into the database
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	query := `
		INSERT INTO invoices (
			invoice_number, candidate_id, timesheet_id, period_start, period_end,
			total_hours, hourly_rate, total_amount, currency, status,
			issued_date, due_date, paid_date, notes, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		invoice.InvoiceNumber,
		invoice.CandidateID,
		invoice.TimesheetID,
		formatDate(invoice.PeriodStart),
		formatDate(invoice.PeriodEnd),
		invoice.TotalHours,
		invoice.HourlyRate,
		invoice.TotalAmount,
		invoice.Currency,
		string(invoice.Status),
		invoice.IssuedDate.Format(timeLayout),
		invoice.DueDate.Format(timeLayout),
		nullTime(invoice.PaidDate),
		invoice.Notes,
		invoice.CreatedAt.Format(timeLayout),
		invoice.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "timesheet_id") {
				return domain.ErrAlreadyInvoiced
			}
			return fmt.Errorf("invoice number %s already used: %w", invoice.InvoiceNumber, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice ID: %w", err)
	}

	invoice.ID = id
	return nil
}

// GetByID retrieves an invoice by ID
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// GetByNumber retrieves an invoice by invoice number
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_number = ?`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", number, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// GetByTimesheetID returns the invoice generated from a timesheet, or nil
func (r *InvoiceRepo) GetByTimesheetID(ctx context.Context, timesheetID int64) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE timesheet_id = ?`

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, timesheetID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

func (f InvoiceFilter) where() (string, []interface{}) {
	clause := " WHERE 1=1"
	args := make([]interface{}, 0)

	if f.CandidateID != nil {
		clause += " AND candidate_id = ?"
		args = append(args, *f.CandidateID)
	}
	if f.Status != nil {
		clause += " AND status = ?"
		args = append(args, string(*f.Status))
	}
	return clause, args
}

// List retrieves invoices with optional filters, newest first
func (r *InvoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error) {
	where, args := filter.where()
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where + ` ORDER BY issued_date DESC, id DESC`

	limit, limitArgs := filter.Page.clause()
	query += limit
	args = append(args, limitArgs...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// Count returns the number of invoices matching the filter, ignoring paging
func (r *InvoiceRepo) Count(ctx context.Context, filter InvoiceFilter) (int, error) {
	where, args := filter.where()

	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return n, nil
}

// Update writes status, dates and notes. Snapshot amounts are never rewritten.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		UPDATE invoices
		SET status = ?, due_date = ?, paid_date = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	invoice.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		string(invoice.Status),
		invoice.DueDate.Format(timeLayout),
		nullTime(invoice.PaidDate),
		invoice.Notes,
		invoice.UpdatedAt.Format(timeLayout),
		invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d: %w", invoice.ID, domain.ErrNotFound)
	}

	return nil
}

// GetNextInvoiceNumber generates the next invoice number in format "PREFIX-YEAR-SEQUENCE"
func (r *InvoiceRepo) GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	query := `
		SELECT invoice_number
		FROM invoices
		WHERE invoice_number LIKE ?
		ORDER BY LENGTH(invoice_number) DESC, invoice_number DESC
		LIMIT 1
	`

	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)
	var lastNumber string

	err := r.db.QueryRowContext(ctx, query, pattern).Scan(&lastNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Sprintf("%s-%d-001", prefix, year), nil
		}
		return "", fmt.Errorf("failed to get last invoice number: %w", err)
	}

	// Format: PREFIX-YEAR-SEQUENCE (e.g., "INV-2026-005")
	var lastYear, lastSeq int
	if _, err := fmt.Sscanf(strings.TrimPrefix(lastNumber, prefix+"-"), "%d-%d", &lastYear, &lastSeq); err != nil {
		return fmt.Sprintf("%s-%d-001", prefix, year), nil
	}

	return fmt.Sprintf("%s-%d-%03d", prefix, year, lastSeq+1), nil
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var periodStart, periodEnd, status, issued, due, createdAt, updatedAt string
	var paidDate, notes sql.NullString

	err := row.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.CandidateID,
		&invoice.TimesheetID,
		&periodStart,
		&periodEnd,
		&invoice.TotalHours,
		&invoice.HourlyRate,
		&invoice.TotalAmount,
		&invoice.Currency,
		&status,
		&issued,
		&due,
		&paidDate,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Status = domain.InvoiceStatus(status)
	invoice.Notes = notes.String

	if invoice.PeriodStart, err = parseDate(periodStart); err != nil {
		return nil, fmt.Errorf("failed to parse period_start: %w", err)
	}
	if invoice.PeriodEnd, err = parseDate(periodEnd); err != nil {
		return nil, fmt.Errorf("failed to parse period_end: %w", err)
	}
	if invoice.IssuedDate, err = parseTime(issued); err != nil {
		return nil, fmt.Errorf("failed to parse issued_date: %w", err)
	}
	if invoice.DueDate, err = parseTime(due); err != nil {
		return nil, fmt.Errorf("failed to parse due_date: %w", err)
	}
	if invoice.PaidDate, err = parseNullTime(paidDate); err != nil {
		return nil, fmt.Errorf("failed to parse paid_date: %w", err)
	}
	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return invoice, nil
}
