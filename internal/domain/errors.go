package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by the service layer wraps one of these so
// transports can map it without knowing the specific cause.
var (
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)

var (
	ErrDuplicateWeek           = fmt.Errorf("%w: a timesheet already exists for this week", ErrValidation)
	ErrTimesheetLocked         = fmt.Errorf("%w: approved timesheets cannot be modified", ErrForbidden)
	ErrRejectionReasonRequired = fmt.Errorf("%w: rejection reason is required", ErrValidation)
	ErrNoActiveBilling         = fmt.Errorf("%w: no active billing configuration for candidate", ErrValidation)
	ErrTimesheetNotApproved    = fmt.Errorf("%w: timesheet is not approved", ErrConflict)
	ErrAlreadyInvoiced         = fmt.Errorf("%w: timesheet already has an invoice", ErrConflict)
	ErrInvalidTransition       = fmt.Errorf("%w: status transition not allowed", ErrConflict)
)

// ValidationError carries field-level validation messages.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for a field, keeping the first message per field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// HasErrors returns true if any field failed validation
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns nil when no field failed, so callers can return it directly
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
