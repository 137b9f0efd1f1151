package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

var timesheetsCmd = &cobra.Command{
	Use:   "timesheets",
	Short: "Review weekly timesheets",
}

var timesheetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List timesheets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		var q service.TimesheetQuery
		if cmd.Flags().Changed("candidate") {
			id, _ := cmd.Flags().GetInt64("candidate")
			q.CandidateID = &id
		}
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			status, err := domain.ParseTimesheetStatus(statusStr)
			if err != nil {
				return err
			}
			q.Status = &status
		}
		if cmd.Flags().Changed("from") {
			fromStr, _ := cmd.Flags().GetString("from")
			from, err := parseDate(fromStr)
			if err != nil {
				return err
			}
			q.From = &from
		}

		rows, total, err := appInstance.TimesheetService.List(ctx, actor, q)
		if err != nil {
			return fmt.Errorf("failed to list timesheets: %w", err)
		}

		if len(rows) == 0 {
			fmt.Println("No timesheets found")
			return nil
		}

		names := candidateNames(ctx, actor)

		fmt.Printf("%-5s %-22s %-12s %-8s %-12s %-10s\n", "ID", "Candidate", "Week", "Hours", "Amount", "Status")
		fmt.Println("------------------------------------------------------------------------")

		for _, ts := range rows {
			fmt.Printf("%-5d %-22s %-12s %-8s %-12s %-10s\n",
				ts.ID,
				truncate(nameOf(names, ts.CandidateID), 22),
				ts.WeekStartDate.Format(domain.DateLayout),
				ts.TotalWeeklyHours.StringFixed(2),
				ts.TotalWeeklyAmount.StringFixed(2)+" "+ts.Currency,
				ts.Status,
			)
		}

		fmt.Printf("\nTotal: %d timesheet(s)\n", total)
		return nil
	},
}

// reviewCommand builds approve/reject/revert commands that share arg parsing
func reviewCommand(use, short, done string, action func(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.WeeklyTimesheet, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <timesheet-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timesheet ID: %w", err)
			}

			actor, err := adminActor(ctx, cmd)
			if err != nil {
				return err
			}

			reason, _ := cmd.Flags().GetString("reason")
			ts, err := action(ctx, actor, id, reason)
			if err != nil {
				return fmt.Errorf("failed to %s timesheet: %w", use, err)
			}

			fmt.Printf("✓ Timesheet %d %s (%s, %s hours)\n",
				ts.ID, done, ts.WeekStartDate.Format(domain.DateLayout), ts.TotalWeeklyHours.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().String("reason", "", "Reason recorded in the history")
	return cmd
}

var timesheetsHistoryCmd = &cobra.Command{
	Use:   "history <timesheet-id>",
	Short: "Show the audit trail for a timesheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timesheet ID: %w", err)
		}

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		rows, err := appInstance.TimesheetService.History(ctx, actor, id)
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		fmt.Printf("%-17s %-8s %-20s %-14s %-14s %s\n", "When", "Action", "Field", "Old", "New", "Reason")
		fmt.Println("------------------------------------------------------------------------------------------")

		for _, h := range rows {
			fmt.Printf("%-17s %-8s %-20s %-14s %-14s %s\n",
				h.ChangedAt.Format("2006-01-02 15:04"),
				h.Action,
				truncate(h.FieldName, 20),
				truncate(h.OldValue, 14),
				truncate(h.NewValue, 14),
				h.Reason,
			)
		}
		return nil
	},
}

func init() {
	timesheetsListCmd.Flags().Int64("candidate", 0, "Filter by candidate ID")
	timesheetsListCmd.Flags().String("status", "", "Filter by status (draft, submitted, pending, approved, rejected)")
	timesheetsListCmd.Flags().String("from", "", "Only weeks starting on or after this date (YYYY-MM-DD)")

	approve := reviewCommand("approve", "Approve a submitted timesheet", "approved",
		func(ctx context.Context, actor domain.Actor, id int64, _ string) (*domain.WeeklyTimesheet, error) {
			return appInstance.TimesheetService.Approve(ctx, actor, id)
		})
	reject := reviewCommand("reject", "Reject a submitted timesheet with a reason", "rejected",
		func(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.WeeklyTimesheet, error) {
			return appInstance.TimesheetService.Reject(ctx, actor, id, reason)
		})
	revert := reviewCommand("revert", "Return an approved or rejected timesheet to pending", "reverted to pending",
		func(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.WeeklyTimesheet, error) {
			return appInstance.TimesheetService.Revert(ctx, actor, id, reason)
		})

	timesheetsCmd.AddCommand(timesheetsListCmd)
	timesheetsCmd.AddCommand(approve)
	timesheetsCmd.AddCommand(reject)
	timesheetsCmd.AddCommand(revert)
	timesheetsCmd.AddCommand(timesheetsHistoryCmd)
}
