package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andy/talentsink/internal/app"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersCreateAdminCmd = &cobra.Command{
	Use:   "create-admin <email> <full-name>",
	Short: "Create an admin account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			var err error
			password, err = app.ReadPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := app.ReadPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}
		}

		user, err := appInstance.UserService.CreateAdmin(ctx, args[0], args[1], password)
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}

		fmt.Printf("✓ Created admin %s (ID: %d)\n", user.Email, user.ID)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidate accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		users, err := appInstance.UserService.ListCandidates(ctx, actor)
		if err != nil {
			return fmt.Errorf("failed to list candidates: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("No candidates found")
			return nil
		}

		fmt.Printf("%-5s %-30s %-25s %-8s %-12s\n", "ID", "Email", "Name", "Active", "Joined")
		fmt.Println("----------------------------------------------------------------------------------")

		for _, u := range users {
			active := "yes"
			if !u.IsActive {
				active = "no"
			}
			fmt.Printf("%-5d %-30s %-25s %-8s %-12s\n",
				u.ID,
				truncate(u.Email, 30),
				truncate(u.FullName, 25),
				active,
				u.CreatedAt.Format("2006-01-02"),
			)
		}

		fmt.Printf("\nTotal: %d candidate(s)\n", len(users))
		return nil
	},
}

func init() {
	usersCreateAdminCmd.Flags().String("password", "", "Password (prompted when omitted)")

	usersCmd.AddCommand(usersCreateAdminCmd)
	usersCmd.AddCommand(usersListCmd)
}
