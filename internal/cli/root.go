package cli

import (
	"github.com/andy/talentsink/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "talentsink",
	Short: "Timesheet and invoicing backend for recruitment agencies",
	Long: `Talentsink tracks weekly candidate timesheets, billing rates and invoices.

Run 'talentsink serve' to start the HTTP API, or 'talentsink tui' for the
admin review console. Other subcommands cover operator tasks.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	rootCmd.PersistentFlags().String("admin", "", "Email of the admin account to act as (defaults to the first admin)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(billingCmd)
	rootCmd.AddCommand(timesheetsCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tuiCmd)
}
