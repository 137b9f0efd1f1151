package db

import (
	"fmt"
)

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Admins and candidates
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'candidate')),
    password_hash TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Billing rates per candidate; history is kept, one row active
CREATE TABLE billing_configs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    candidate_id INTEGER NOT NULL REFERENCES users(id),
    hourly_rate TEXT NOT NULL,
    pay_rate TEXT NOT NULL DEFAULT '0',
    working_days_per_week INTEGER NOT NULL CHECK (working_days_per_week IN (5, 6)),
    currency TEXT NOT NULL,
    employment_type TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    effective_from TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- One row per candidate per Monday-aligned week
CREATE TABLE weekly_timesheets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    candidate_id INTEGER NOT NULL REFERENCES users(id),
    week_start_date TEXT NOT NULL,
    week_end_date TEXT NOT NULL,
    monday_hours TEXT NOT NULL DEFAULT '0',
    tuesday_hours TEXT NOT NULL DEFAULT '0',
    wednesday_hours TEXT NOT NULL DEFAULT '0',
    thursday_hours TEXT NOT NULL DEFAULT '0',
    friday_hours TEXT NOT NULL DEFAULT '0',
    saturday_hours TEXT NOT NULL DEFAULT '0',
    sunday_hours TEXT NOT NULL DEFAULT '0',
    total_weekly_hours TEXT NOT NULL DEFAULT '0',
    hourly_rate TEXT NOT NULL DEFAULT '0',
    total_weekly_amount TEXT NOT NULL DEFAULT '0',
    currency TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    rejection_reason TEXT,
    submitted_at TEXT,
    approved_at TEXT,
    approved_by INTEGER REFERENCES users(id),
    notes TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE (candidate_id, week_start_date)
);

-- Audit trail for timesheet changes; timesheet_id survives deletes
CREATE TABLE timesheet_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timesheet_id INTEGER NOT NULL,
    actor_id INTEGER NOT NULL,
    action TEXT NOT NULL,
    field_name TEXT,
    old_value TEXT,
    new_value TEXT,
    reason TEXT,
    changed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Invoices are frozen snapshots of approved timesheets
CREATE TABLE invoices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    invoice_number TEXT NOT NULL UNIQUE,
    candidate_id INTEGER NOT NULL REFERENCES users(id),
    timesheet_id INTEGER NOT NULL UNIQUE REFERENCES weekly_timesheets(id),
    period_start TEXT NOT NULL,
    period_end TEXT NOT NULL,
    total_hours TEXT NOT NULL,
    hourly_rate TEXT NOT NULL,
    total_amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    issued_date TEXT NOT NULL,
    due_date TEXT NOT NULL,
    paid_date TEXT,
    notes TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Indexes
CREATE UNIQUE INDEX idx_billing_active ON billing_configs(candidate_id) WHERE is_active = 1;
CREATE INDEX idx_timesheets_status ON weekly_timesheets(status);
CREATE INDEX idx_timesheets_week ON weekly_timesheets(week_start_date);
CREATE INDEX idx_history_timesheet ON timesheet_history(timesheet_id);
CREATE INDEX idx_invoices_status ON invoices(status);
CREATE INDEX idx_invoices_candidate ON invoices(candidate_id);
`,
	},
}

// RunMigrations applies all pending database migrations
func (db *DB) RunMigrations() error {
	// Ensure schema_version table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	// Apply pending migrations in a transaction
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := tx.Exec(m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	return nil
}

// SchemaVersion returns the highest applied migration version
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}

// LatestVersion returns the version the schema will have after migrating
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}
