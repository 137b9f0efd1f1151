package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data in the database",
	Long: `Reset data in the database.

Examples:
  talentsink reset invoices     # Delete all invoices
  talentsink reset timesheets   # Delete all timesheets, their history and invoices
  talentsink reset all          # Wipe everything except admin accounts`,
}

// clearTables deletes rows from tables in order; order matters due to foreign keys
func clearTables(tables ...string) error {
	db := appInstance.DB
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

var resetInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Delete all invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL invoices. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := clearTables("invoices"); err != nil {
			return err
		}

		fmt.Println("All invoices have been deleted.")
		return nil
	},
}

var resetTimesheetsCmd = &cobra.Command{
	Use:   "timesheets",
	Short: "Delete all timesheets, their history, and invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL timesheets, history, and invoices. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := clearTables("invoices", "timesheet_history", "weekly_timesheets"); err != nil {
			return err
		}

		fmt.Println("All timesheets and invoices have been deleted.")
		return nil
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL data except admin accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL data (candidates, billing, timesheets, invoices). Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := clearTables("invoices", "timesheet_history", "weekly_timesheets", "billing_configs"); err != nil {
			return err
		}
		if _, err := appInstance.DB.Exec("DELETE FROM users WHERE role = 'candidate'"); err != nil {
			return fmt.Errorf("failed to clear candidates: %w", err)
		}

		fmt.Println("All data has been deleted.")
		return nil
	},
}

func init() {
	resetCmd.AddCommand(resetInvoicesCmd)
	resetCmd.AddCommand(resetTimesheetsCmd)
	resetCmd.AddCommand(resetAllCmd)
}
