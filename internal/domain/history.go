package domain

import "time"

type HistoryAction string

const (
	ActionCreate  HistoryAction = "create"
	ActionUpdate  HistoryAction = "update"
	ActionSubmit  HistoryAction = "submit"
	ActionApprove HistoryAction = "approve"
	ActionReject  HistoryAction = "reject"
	ActionRevert  HistoryAction = "revert"
	ActionDelete  HistoryAction = "delete"
)

type TimesheetHistory struct {
	ID          int64
	TimesheetID int64
	ActorID     int64
	Action      HistoryAction
	FieldName   string
	OldValue    string
	NewValue    string
	Reason      string
	ChangedAt   time.Time
}

// NewTimesheetHistory creates a history record for a field change
func NewTimesheetHistory(timesheetID, actorID int64, action HistoryAction, fieldName, oldValue, newValue, reason string) *TimesheetHistory {
	return &TimesheetHistory{
		TimesheetID: timesheetID,
		ActorID:     actorID,
		Action:      action,
		FieldName:   fieldName,
		OldValue:    oldValue,
		NewValue:    newValue,
		Reason:      reason,
		ChangedAt:   time.Now(),
	}
}
