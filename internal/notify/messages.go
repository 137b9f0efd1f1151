package notify

import (
	"fmt"

	"github.com/andy/talentsink/internal/domain"
)

func Welcome(user *domain.User) Message {
	return Message{
		To:      user.Email,
		Subject: "Welcome to talentsink",
		Body: fmt.Sprintf("Hi %s,\n\nYour account has been created. You can now submit weekly timesheets.\n",
			user.FullName),
	}
}

func LoginAlert(user *domain.User) Message {
	return Message{
		To:      user.Email,
		Subject: "New sign-in to your account",
		Body:    fmt.Sprintf("Hi %s,\n\nYour account was just signed in to.\n", user.FullName),
	}
}

// TimesheetStatus tells the candidate their week changed status
func TimesheetStatus(user *domain.User, ts *domain.WeeklyTimesheet) Message {
	week := ts.WeekStartDate.Format(domain.DateLayout)
	body := fmt.Sprintf("Hi %s,\n\nYour timesheet for the week of %s is now %s.\n", user.FullName, week, ts.Status)
	if ts.Status == domain.TimesheetStatusRejected {
		body += fmt.Sprintf("\nReason: %s\n", ts.RejectionReason)
	}
	return Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Timesheet %s: week of %s", ts.Status, week),
		Body:    body,
	}
}
