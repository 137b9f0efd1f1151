package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/report"
	"github.com/andy/talentsink/internal/service"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Aggregated timesheet reports",
}

var reportsBiWeeklyCmd = &cobra.Command{
	Use:   "biweekly",
	Short: "Show bi-weekly periods built from approved weeks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		var q service.BiWeeklyQuery
		if cmd.Flags().Changed("candidate") {
			id, _ := cmd.Flags().GetInt64("candidate")
			q.CandidateID = &id
		}

		periods, err := appInstance.ReportService.BiWeekly(ctx, actor, q)
		if err != nil {
			return fmt.Errorf("failed to build bi-weekly report: %w", err)
		}

		if len(periods) == 0 {
			fmt.Println("No approved timesheets found")
			return nil
		}

		names := candidateNames(ctx, actor)

		fmt.Printf("%-22s %-24s %-8s %-14s %-8s\n", "Candidate", "Period", "Hours", "Amount", "Partial")
		fmt.Println("-------------------------------------------------------------------------------")

		for _, p := range periods {
			partial := ""
			if p.IsPartial() {
				partial = "yes"
			}
			fmt.Printf("%-22s %-24s %-8s %-14s %-8s\n",
				truncate(nameOf(names, p.CandidateID), 22),
				p.PeriodStart.Format(domain.DateLayout)+" - "+p.PeriodEnd.Format(domain.DateLayout),
				p.TotalHours.StringFixed(2),
				p.TotalAmount.StringFixed(2)+" "+p.Currency,
				partial,
			)
		}
		return nil
	},
}

var reportsMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Show monthly totals, optionally exported to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		var q service.MonthlyQuery
		q.Year, _ = cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		if month < 0 || month > 12 {
			return fmt.Errorf("month must be between 1 and 12")
		}
		q.Month = time.Month(month)
		if cmd.Flags().Changed("candidate") {
			id, _ := cmd.Flags().GetInt64("candidate")
			q.CandidateID = &id
		}

		periods, err := appInstance.ReportService.Monthly(ctx, actor, q)
		if err != nil {
			return fmt.Errorf("failed to build monthly report: %w", err)
		}

		names := candidateNames(ctx, actor)

		out, _ := cmd.Flags().GetString("out")
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			if err := report.MonthlyWorkbook(f, periods, names); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}
			fmt.Printf("✓ Wrote %d month(s) to %s\n", len(periods), out)
			return nil
		}

		if len(periods) == 0 {
			fmt.Println("No approved timesheets found")
			return nil
		}

		fmt.Printf("%-22s %-8s %-6s %-8s %-14s %-10s\n", "Candidate", "Month", "Weeks", "Hours", "Amount", "Avg/Week")
		fmt.Println("----------------------------------------------------------------------------")

		for _, p := range periods {
			fmt.Printf("%-22s %-8s %-6d %-8s %-14s %-10s\n",
				truncate(nameOf(names, p.CandidateID), 22),
				p.PeriodStart().Format("2006-01"),
				p.TotalWeeks,
				p.TotalHours.StringFixed(2),
				p.TotalAmount.StringFixed(2)+" "+p.Currency,
				p.AverageAmountPerWeek.StringFixed(2),
			)
		}
		return nil
	},
}

var reportsDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the admin summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		d, err := appInstance.ReportService.Dashboard(ctx, actor)
		if err != nil {
			return fmt.Errorf("failed to build dashboard: %w", err)
		}

		fmt.Printf("Active candidates:    %d\n", d.ActiveCandidates)
		fmt.Printf("Awaiting review:      %d\n", d.PendingReview())
		fmt.Printf("Approved this month:  %s h, %s %s\n", d.ApprovedHoursThisMonth.StringFixed(2), d.ApprovedAmountThisMonth.StringFixed(2), d.Currency)
		fmt.Printf("Margin this month:    %s %s (%s%%)\n", d.MarginThisMonth.StringFixed(2), d.Currency, d.ProfitMarginPercent.StringFixed(2))
		fmt.Printf("Outstanding invoices: %s %s\n", d.OutstandingInvoiceTotal.StringFixed(2), d.Currency)

		if len(d.RevenueByMonth) > 0 {
			fmt.Println()
			fmt.Printf("%-8s %-4s %10s %14s %14s\n", "MONTH", "CUR", "HOURS", "AMOUNT", "MARGIN")
			for _, r := range d.RevenueByMonth {
				fmt.Printf("%d-%02d  %-4s %10s %14s %14s\n", r.Year, int(r.Month), r.Currency,
					r.Hours.StringFixed(2), r.Amount.StringFixed(2), r.Margin.StringFixed(2))
			}
		}
		return nil
	},
}

func init() {
	reportsBiWeeklyCmd.Flags().Int64("candidate", 0, "Filter by candidate ID")

	reportsMonthlyCmd.Flags().Int64("candidate", 0, "Filter by candidate ID")
	reportsMonthlyCmd.Flags().Int("year", 0, "Year to report (default all)")
	reportsMonthlyCmd.Flags().Int("month", 0, "Month to report, 1-12 (default all)")
	reportsMonthlyCmd.Flags().String("out", "", "Write an XLSX workbook to this path instead of printing")

	reportsCmd.AddCommand(reportsBiWeeklyCmd)
	reportsCmd.AddCommand(reportsMonthlyCmd)
	reportsCmd.AddCommand(reportsDashboardCmd)
}
