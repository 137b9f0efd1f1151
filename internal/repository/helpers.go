package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/andy/talentsink/internal/domain"
)

// timeLayout is the RFC3339 format for storing times in SQLite
const timeLayout = time.RFC3339

// parseTime parses a time string in RFC3339 format
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// formatTime returns the current time formatted as RFC3339
func formatTime() string {
	return time.Now().Format(timeLayout)
}

// parseDate parses a YYYY-MM-DD calendar date
func parseDate(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// nullTime converts an optional time into a nullable column value
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}

// parseNullTime parses an optional RFC3339 column
func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Page limits a list query. Zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) clause() (string, []interface{}) {
	if p.Limit <= 0 {
		return "", nil
	}
	return " LIMIT ? OFFSET ?", []interface{}{p.Limit, p.Offset}
}
