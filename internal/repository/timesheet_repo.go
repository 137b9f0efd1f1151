package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/talentsink/internal/db"
	"github.com/andy/talentsink/internal/domain"
)

// TimesheetRepo is a SQLite implementation of TimesheetRepository
type TimesheetRepo struct {
	db *db.DB
}

// NewTimesheetRepo creates a new TimesheetRepo
func NewTimesheetRepo(database *db.DB) *TimesheetRepo {
	return &TimesheetRepo{db: database}
}

const timesheetColumns = `id, candidate_id, week_start_date, week_end_date,
	monday_hours, tuesday_hours, wednesday_hours, thursday_hours, friday_hours, saturday_hours, sunday_hours,
	total_weekly_hours, hourly_rate, total_weekly_amount, currency, status, rejection_reason,
	submitted_at, approved_at, approved_by, notes, created_at, updated_at`

// Create inserts a new timesheet. A second row for the same candidate and
// week fails with domain.ErrDuplicateWeek.
func (r *TimesheetRepo) Create(ctx context.Context, ts *domain.WeeklyTimesheet, actorID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO weekly_timesheets (
			candidate_id, week_start_date, week_end_date,
			monday_hours, tuesday_hours, wednesday_hours, thursday_hours, friday_hours, saturday_hours, sunday_hours,
			total_weekly_hours, hourly_rate, total_weekly_amount, currency, status, rejection_reason,
			submitted_at, approved_at, approved_by, notes, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	h := ts.Hours
	result, err := tx.ExecContext(ctx, query,
		ts.CandidateID,
		formatDate(ts.WeekStartDate),
		formatDate(ts.WeekEndDate),
		h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday,
		ts.TotalWeeklyHours,
		ts.HourlyRate,
		ts.TotalWeeklyAmount,
		ts.Currency,
		string(ts.Status),
		ts.RejectionReason,
		nullTime(ts.SubmittedAt),
		nullTime(ts.ApprovedAt),
		ts.ApprovedBy,
		ts.Notes,
		ts.CreatedAt.Format(timeLayout),
		ts.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateWeek
		}
		return fmt.Errorf("failed to create timesheet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get timesheet ID: %w", err)
	}
	ts.ID = id

	if err := insertHistory(ctx, tx, domain.NewTimesheetHistory(id, actorID, domain.ActionCreate,
		"status", "", string(ts.Status), "")); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a timesheet by ID
func (r *TimesheetRepo) GetByID(ctx context.Context, id int64) (*domain.WeeklyTimesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM weekly_timesheets WHERE id = ?`

	ts, err := scanTimesheet(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("timesheet %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get timesheet: %w", err)
	}
	return ts, nil
}

// Update writes all mutable fields and records one history row per changed
// field, tagged with the action and actor
func (r *TimesheetRepo) Update(ctx context.Context, ts *domain.WeeklyTimesheet, actorID int64, action domain.HistoryAction, reason string) error {
	// Get current row for audit trail
	old, err := r.GetByID(ctx, ts.ID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE weekly_timesheets
		SET monday_hours = ?, tuesday_hours = ?, wednesday_hours = ?, thursday_hours = ?,
		    friday_hours = ?, saturday_hours = ?, sunday_hours = ?,
		    total_weekly_hours = ?, hourly_rate = ?, total_weekly_amount = ?, currency = ?,
		    status = ?, rejection_reason = ?, submitted_at = ?, approved_at = ?, approved_by = ?,
		    notes = ?, updated_at = ?
		WHERE id = ?
	`

	ts.UpdatedAt = time.Now()
	h := ts.Hours
	result, err := tx.ExecContext(ctx, query,
		h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday,
		ts.TotalWeeklyHours,
		ts.HourlyRate,
		ts.TotalWeeklyAmount,
		ts.Currency,
		string(ts.Status),
		ts.RejectionReason,
		nullTime(ts.SubmittedAt),
		nullTime(ts.ApprovedAt),
		ts.ApprovedBy,
		ts.Notes,
		ts.UpdatedAt.Format(timeLayout),
		ts.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update timesheet: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("timesheet %d: %w", ts.ID, domain.ErrNotFound)
	}

	if err := createAuditRecords(ctx, tx, old, ts, actorID, action, reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes a timesheet and records the deletion
func (r *TimesheetRepo) Delete(ctx context.Context, id int64, actorID int64, reason string) error {
	old, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM weekly_timesheets WHERE id = ?", id); err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("timesheet %d is invoiced: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("failed to delete timesheet: %w", err)
	}

	if err := insertHistory(ctx, tx, domain.NewTimesheetHistory(id, actorID, domain.ActionDelete,
		"status", string(old.Status), "", reason)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (f TimesheetFilter) where() (string, []interface{}) {
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
	if f.From != nil {
		clause += " AND week_start_date >= ?"
		args = append(args, formatDate(*f.From))
	}
	if f.To != nil {
		clause += " AND week_start_date <= ?"
		args = append(args, formatDate(*f.To))
	}
	return clause, args
}

// List retrieves timesheets ordered by candidate then week
func (r *TimesheetRepo) List(ctx context.Context, filter TimesheetFilter) ([]*domain.WeeklyTimesheet, error) {
	where, args := filter.where()
	query := `SELECT ` + timesheetColumns + ` FROM weekly_timesheets` + where +
		` ORDER BY candidate_id, week_start_date`

	limit, limitArgs := filter.Page.clause()
	query += limit
	args = append(args, limitArgs...)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	defer rows.Close()

	timesheets := make([]*domain.WeeklyTimesheet, 0)
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		timesheets = append(timesheets, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timesheets: %w", err)
	}

	return timesheets, nil
}

// Count returns the number of timesheets matching the filter, ignoring paging
func (r *TimesheetRepo) Count(ctx context.Context, filter TimesheetFilter) (int, error) {
	where, args := filter.where()

	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM weekly_timesheets"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count timesheets: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of timesheets per status
func (r *TimesheetRepo) CountByStatus(ctx context.Context) (map[domain.TimesheetStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM weekly_timesheets GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count timesheets: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TimesheetStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[domain.TimesheetStatus(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// GetHistory retrieves the audit trail for a timesheet, oldest first
func (r *TimesheetRepo) GetHistory(ctx context.Context, timesheetID int64) ([]*domain.TimesheetHistory, error) {
	query := `
		SELECT id, timesheet_id, actor_id, action, field_name, old_value, new_value, reason, changed_at
		FROM timesheet_history
		WHERE timesheet_id = ?
		ORDER BY changed_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	history := make([]*domain.TimesheetHistory, 0)
	for rows.Next() {
		h := &domain.TimesheetHistory{}
		var action, changedAt string
		var field, oldVal, newVal, reason sql.NullString

		if err := rows.Scan(&h.ID, &h.TimesheetID, &h.ActorID, &action, &field, &oldVal, &newVal, &reason, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}

		h.Action = domain.HistoryAction(action)
		h.FieldName = field.String
		h.OldValue = oldVal.String
		h.NewValue = newVal.String
		h.Reason = reason.String
		if h.ChangedAt, err = parseTime(changedAt); err != nil {
			return nil, fmt.Errorf("failed to parse changed_at: %w", err)
		}

		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return history, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, h *domain.TimesheetHistory) error {
	query := `
		INSERT INTO timesheet_history (timesheet_id, actor_id, action, field_name, old_value, new_value, reason, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		h.TimesheetID, h.ActorID, string(h.Action), h.FieldName, h.OldValue, h.NewValue, h.Reason,
		h.ChangedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s history: %w", h.Action, err)
	}
	return nil
}

// createAuditRecords writes one history row per changed field. An action
// that changed nothing is still recorded once.
func createAuditRecords(ctx context.Context, tx *sql.Tx, old, new *domain.WeeklyTimesheet, actorID int64, action domain.HistoryAction, reason string) error {
	type change struct{ field, oldVal, newVal string }
	changes := make([]change, 0)

	oldDays, newDays := old.Hours.Days(), new.Hours.Days()
	names := [7]string{"monday_hours", "tuesday_hours", "wednesday_hours", "thursday_hours", "friday_hours", "saturday_hours", "sunday_hours"}
	for i := range names {
		if !oldDays[i].Equal(newDays[i]) {
			changes = append(changes, change{names[i], oldDays[i].String(), newDays[i].String()})
		}
	}
	if !old.HourlyRate.Equal(new.HourlyRate) {
		changes = append(changes, change{"hourly_rate", old.HourlyRate.StringFixed(2), new.HourlyRate.StringFixed(2)})
	}
	if !old.TotalWeeklyAmount.Equal(new.TotalWeeklyAmount) {
		changes = append(changes, change{"total_weekly_amount", old.TotalWeeklyAmount.StringFixed(2), new.TotalWeeklyAmount.StringFixed(2)})
	}
	if old.Status != new.Status {
		changes = append(changes, change{"status", string(old.Status), string(new.Status)})
	}
	if old.RejectionReason != new.RejectionReason {
		changes = append(changes, change{"rejection_reason", old.RejectionReason, new.RejectionReason})
	}
	if old.Notes != new.Notes {
		changes = append(changes, change{"notes", old.Notes, new.Notes})
	}
	oldBy, newBy := "", ""
	if old.ApprovedBy != nil {
		oldBy = strconv.FormatInt(*old.ApprovedBy, 10)
	}
	if new.ApprovedBy != nil {
		newBy = strconv.FormatInt(*new.ApprovedBy, 10)
	}
	if oldBy != newBy {
		changes = append(changes, change{"approved_by", oldBy, newBy})
	}

	if len(changes) == 0 {
		changes = append(changes, change{})
	}

	for _, c := range changes {
		h := domain.NewTimesheetHistory(new.ID, actorID, action, c.field, c.oldVal, c.newVal, reason)
		if err := insertHistory(ctx, tx, h); err != nil {
			return err
		}
	}
	return nil
}

func scanTimesheet(row rowScanner) (*domain.WeeklyTimesheet, error) {
	ts := &domain.WeeklyTimesheet{}
	var weekStart, weekEnd, status, createdAt, updatedAt string
	var rejection, notes, submittedAt, approvedAt sql.NullString
	var approvedBy sql.NullInt64

	h := &ts.Hours
	err := row.Scan(
		&ts.ID,
		&ts.CandidateID,
		&weekStart,
		&weekEnd,
		&h.Monday, &h.Tuesday, &h.Wednesday, &h.Thursday, &h.Friday, &h.Saturday, &h.Sunday,
		&ts.TotalWeeklyHours,
		&ts.HourlyRate,
		&ts.TotalWeeklyAmount,
		&ts.Currency,
		&status,
		&rejection,
		&submittedAt,
		&approvedAt,
		&approvedBy,
		&notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ts.Status = domain.TimesheetStatus(status)
	ts.RejectionReason = rejection.String
	ts.Notes = notes.String
	if approvedBy.Valid {
		id := approvedBy.Int64
		ts.ApprovedBy = &id
	}

	if ts.WeekStartDate, err = parseDate(weekStart); err != nil {
		return nil, fmt.Errorf("failed to parse week_start_date: %w", err)
	}
	if ts.WeekEndDate, err = parseDate(weekEnd); err != nil {
		return nil, fmt.Errorf("failed to parse week_end_date: %w", err)
	}
	if ts.SubmittedAt, err = parseNullTime(submittedAt); err != nil {
		return nil, fmt.Errorf("failed to parse submitted_at: %w", err)
	}
	if ts.ApprovedAt, err = parseNullTime(approvedAt); err != nil {
		return nil, fmt.Errorf("failed to parse approved_at: %w", err)
	}
	if ts.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if ts.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return ts, nil
}
