package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/talentsink/internal/db"
	"github.com/andy/talentsink/internal/domain"
)

// BillingRepo is a SQLite implementation of BillingRepository
type BillingRepo struct {
	db *db.DB
}

// NewBillingRepo creates a new BillingRepo
func NewBillingRepo(database *db.DB) *BillingRepo {
	return &BillingRepo{db: database}
}

const billingColumns = `id, candidate_id, hourly_rate, pay_rate, working_days_per_week, currency,
	employment_type, is_active, effective_from, created_at, updated_at`

// Activate deactivates the candidate's current config and inserts cfg as the
// active one in a single transaction
func (r *BillingRepo) Activate(ctx context.Context, cfg *domain.BillingConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid billing config: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime()
	if _, err := tx.ExecContext(ctx,
		"UPDATE billing_configs SET is_active = 0, updated_at = ? WHERE candidate_id = ? AND is_active = 1",
		now, cfg.CandidateID,
	); err != nil {
		return fmt.Errorf("failed to deactivate billing config: %w", err)
	}

	query := `
		INSERT INTO billing_configs (
			candidate_id, hourly_rate, pay_rate, working_days_per_week, currency,
			employment_type, is_active, effective_from, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		cfg.CandidateID,
		cfg.HourlyRate,
		cfg.PayRate,
		cfg.WorkingDaysPerWeek,
		cfg.Currency,
		string(cfg.EmploymentType),
		cfg.EffectiveFrom.Format(timeLayout),
		cfg.CreatedAt.Format(timeLayout),
		cfg.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("concurrent billing update: %w", domain.ErrConflict)
		}
		return fmt.Errorf("failed to create billing config: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get billing config ID: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	cfg.ID = id
	cfg.IsActive = true
	return nil
}

// GetActive returns the candidate's active config, or nil if there is none
func (r *BillingRepo) GetActive(ctx context.Context, candidateID int64) (*domain.BillingConfig, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_configs WHERE candidate_id = ? AND is_active = 1`

	cfg, err := scanBillingConfig(r.db.QueryRowContext(ctx, query, candidateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get billing config: %w", err)
	}
	return cfg, nil
}

// ListActive returns every active config
func (r *BillingRepo) ListActive(ctx context.Context) ([]*domain.BillingConfig, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_configs WHERE is_active = 1 ORDER BY candidate_id`
	return r.list(ctx, query)
}

// History returns all configs for a candidate, newest first
func (r *BillingRepo) History(ctx context.Context, candidateID int64) ([]*domain.BillingConfig, error) {
	query := `SELECT ` + billingColumns + ` FROM billing_configs WHERE candidate_id = ? ORDER BY effective_from DESC, id DESC`
	return r.list(ctx, query, candidateID)
}

func (r *BillingRepo) list(ctx context.Context, query string, args ...interface{}) ([]*domain.BillingConfig, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing configs: %w", err)
	}
	defer rows.Close()

	configs := make([]*domain.BillingConfig, 0)
	for rows.Next() {
		cfg, err := scanBillingConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan billing config: %w", err)
		}
		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating billing configs: %w", err)
	}

	return configs, nil
}

func scanBillingConfig(row rowScanner) (*domain.BillingConfig, error) {
	cfg := &domain.BillingConfig{}
	var employment, effectiveFrom, createdAt, updatedAt string

	err := row.Scan(
		&cfg.ID,
		&cfg.CandidateID,
		&cfg.HourlyRate,
		&cfg.PayRate,
		&cfg.WorkingDaysPerWeek,
		&cfg.Currency,
		&employment,
		&cfg.IsActive,
		&effectiveFrom,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.EmploymentType = domain.EmploymentType(employment)
	if cfg.EffectiveFrom, err = parseTime(effectiveFrom); err != nil {
		return nil, fmt.Errorf("failed to parse effective_from: %w", err)
	}
	if cfg.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if cfg.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return cfg, nil
}
