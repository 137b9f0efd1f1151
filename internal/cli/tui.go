package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/andy/talentsink/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the admin review console",
	Long:  `Launch the interactive terminal console for reviewing timesheets, billing and invoices.`,
	RunE:  launchTUI,
}

func launchTUI(cmd *cobra.Command, args []string) error {
	actor, err := adminActor(context.Background(), cmd)
	if err != nil {
		return err
	}
	return tui.Run(appInstance, actor)
}
