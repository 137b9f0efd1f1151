package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Generate, list, and manage invoices for approved timesheets.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		// Parse filters
		var q service.InvoiceQuery
		if cmd.Flags().Changed("candidate") {
			id, _ := cmd.Flags().GetInt64("candidate")
			q.CandidateID = &id
		}
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			status, err := domain.ParseInvoiceStatus(statusStr)
			if err != nil {
				return err
			}
			q.Status = &status
		}

		invoices, total, err := appInstance.InvoiceService.ListInvoices(ctx, actor, q)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		names := candidateNames(ctx, actor)

		// Print table header
		fmt.Printf("%-5s %-15s %-20s %-24s %-14s %-12s %-8s\n", "ID", "Number", "Candidate", "Period", "Total", "Due", "Status")
		fmt.Println("------------------------------------------------------------------------------------------------------")

		for _, invoice := range invoices {
			period := fmt.Sprintf("%s - %s",
				invoice.PeriodStart.Format("2006-01-02"),
				invoice.PeriodEnd.Format("2006-01-02"),
			)

			fmt.Printf("%-5d %-15s %-20s %-24s %-14s %-12s %-8s\n",
				invoice.ID,
				invoice.InvoiceNumber,
				truncate(nameOf(names, invoice.CandidateID), 20),
				period,
				invoice.TotalAmount.StringFixed(2)+" "+invoice.Currency,
				invoice.DueDate.Format("2006-01-02"),
				invoice.Status,
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", total)
		return nil
	},
}

var invoicesGenerateCmd = &cobra.Command{
	Use:   "generate <timesheet-id>",
	Short: "Generate a draft invoice from an approved timesheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		timesheetID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timesheet ID: %w", err)
		}

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.Generate(ctx, actor, timesheetID)
		if err != nil {
			return fmt.Errorf("failed to generate invoice: %w", err)
		}

		fmt.Printf("✓ Draft invoice created: %s\n", invoice.InvoiceNumber)
		fmt.Printf("  Period: %s to %s\n",
			invoice.PeriodStart.Format("2006-01-02"),
			invoice.PeriodEnd.Format("2006-01-02"),
		)
		fmt.Printf("  Total: %s %s (%s h at %s)\n",
			invoice.TotalAmount.StringFixed(2), invoice.Currency,
			invoice.TotalHours.StringFixed(2), invoice.HourlyRate.StringFixed(2))
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid invoice ID: %w", err)
		}

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.GetInvoice(ctx, actor, id)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		candidate := fmt.Sprintf("Candidate #%d", invoice.CandidateID)
		if invoice.Candidate != nil {
			candidate = fmt.Sprintf("%s <%s>", invoice.Candidate.FullName, invoice.Candidate.Email)
		}

		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Invoice: %s\n", invoice.InvoiceNumber)
		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Candidate: %s\n", candidate)
		fmt.Printf("Timesheet: #%d\n", invoice.TimesheetID)
		fmt.Printf("Period:    %s to %s\n",
			invoice.PeriodStart.Format("2006-01-02"),
			invoice.PeriodEnd.Format("2006-01-02"),
		)
		fmt.Printf("Issued:    %s\n", invoice.IssuedDate.Format("2006-01-02"))
		fmt.Printf("Due:       %s\n", invoice.DueDate.Format("2006-01-02"))
		if invoice.PaidDate != nil {
			fmt.Printf("Paid:      %s\n", invoice.PaidDate.Format("2006-01-02"))
		}
		fmt.Printf("Status:    %s\n", invoice.Status)
		fmt.Println()
		fmt.Printf("Hours: %s  Rate: %s  Total: %s %s\n",
			invoice.TotalHours.StringFixed(2),
			invoice.HourlyRate.StringFixed(2),
			invoice.TotalAmount.StringFixed(2),
			invoice.Currency,
		)
		fmt.Println(strings.Repeat("=", 60))
		return nil
	},
}

var invoicesStatusCmd = &cobra.Command{
	Use:   "status <id> <draft|sent|paid|overdue>",
	Short: "Move an invoice through its lifecycle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid invoice ID: %w", err)
		}
		status, err := domain.ParseInvoiceStatus(args[1])
		if err != nil {
			return err
		}

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.UpdateStatus(ctx, actor, id, status)
		if err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}

		fmt.Printf("✓ Invoice %s marked as %s\n", invoice.InvoiceNumber, invoice.Status)
		return nil
	},
}

var invoicesMarkOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Mark sent invoices past their due date as overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		invoices, err := appInstance.InvoiceService.MarkOverdue(ctx, actor)
		if err != nil {
			return fmt.Errorf("failed to mark overdue invoices: %w", err)
		}

		for _, invoice := range invoices {
			fmt.Printf("  %s due %s\n", invoice.InvoiceNumber, invoice.DueDate.Format("2006-01-02"))
		}
		fmt.Printf("✓ %d invoice(s) marked overdue\n", len(invoices))
		return nil
	},
}

var invoicesPDFCmd = &cobra.Command{
	Use:   "pdf <id>",
	Short: "Write an invoice PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid invoice ID: %w", err)
		}

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.GetInvoice(ctx, actor, id)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		// The breakdown is optional
		ts, err := appInstance.TimesheetService.Get(ctx, actor, invoice.TimesheetID)
		if err != nil {
			ts = nil
		}

		dir, _ := cmd.Flags().GetString("out")
		if dir == "" {
			dir = appInstance.Config.Invoice.OutputDir
		}

		path, err := appInstance.PDF.WriteFile(dir, invoice, ts)
		if err != nil {
			return fmt.Errorf("failed to write PDF: %w", err)
		}

		fmt.Printf("✓ Wrote %s\n", path)
		return nil
	},
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesGenerateCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesStatusCmd)
	invoicesCmd.AddCommand(invoicesMarkOverdueCmd)
	invoicesCmd.AddCommand(invoicesPDFCmd)

	// List flags
	invoicesListCmd.Flags().Int64("candidate", 0, "Filter by candidate ID")
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, sent, paid, overdue)")

	// PDF flags
	invoicesPDFCmd.Flags().String("out", "", "Output directory (defaults to the configured invoice directory)")
}
