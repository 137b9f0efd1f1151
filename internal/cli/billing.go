package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Manage candidate billing rates",
}

var billingShowCmd = &cobra.Command{
	Use:   "show <candidate-id>",
	Short: "Show billing history for a candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		candidateID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid candidate ID: %w", err)
		}

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		configs, err := appInstance.BillingService.History(ctx, actor, candidateID)
		if err != nil {
			return fmt.Errorf("failed to get billing history: %w", err)
		}

		if len(configs) == 0 {
			fmt.Println("No billing configuration found")
			return nil
		}

		fmt.Printf("%-5s %-10s %-10s %-5s %-9s %-10s %-12s %-7s\n", "ID", "Rate", "Pay", "Days", "Currency", "Type", "Since", "Active")
		fmt.Println("--------------------------------------------------------------------------------")

		for _, c := range configs {
			active := ""
			if c.IsActive {
				active = "*"
			}
			fmt.Printf("%-5d %-10s %-10s %-5d %-9s %-10s %-12s %-7s\n",
				c.ID,
				c.HourlyRate.StringFixed(2),
				c.PayRate.StringFixed(2),
				c.WorkingDaysPerWeek,
				c.Currency,
				c.EmploymentType,
				c.CreatedAt.Format("2006-01-02"),
				active,
			)
		}
		return nil
	},
}

var billingSetCmd = &cobra.Command{
	Use:   "set <candidate-id> <hourly-rate>",
	Short: "Replace a candidate's active billing configuration",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		candidateID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid candidate ID: %w", err)
		}
		rate, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid hourly rate: %w", err)
		}

		in := service.BillingInput{HourlyRate: rate}
		if cmd.Flags().Changed("pay") {
			payStr, _ := cmd.Flags().GetString("pay")
			if in.PayRate, err = decimal.NewFromString(payStr); err != nil {
				return fmt.Errorf("invalid pay rate: %w", err)
			}
		}
		in.WorkingDaysPerWeek, _ = cmd.Flags().GetInt("days")
		currency, _ := cmd.Flags().GetString("currency")
		in.Currency = strings.ToUpper(currency)
		employment, _ := cmd.Flags().GetString("type")
		in.EmploymentType = domain.EmploymentType(employment)

		actor, err := adminActor(ctx, cmd)
		if err != nil {
			return err
		}

		cfg, err := appInstance.BillingService.SetConfig(ctx, actor, candidateID, in)
		if err != nil {
			return fmt.Errorf("failed to set billing: %w", err)
		}

		fmt.Printf("✓ Candidate %d now bills %s %s/h (pay %s, %d days/week)\n",
			cfg.CandidateID, cfg.HourlyRate.StringFixed(2), cfg.Currency, cfg.PayRate.StringFixed(2), cfg.WorkingDaysPerWeek)
		return nil
	},
}

func init() {
	billingSetCmd.Flags().String("pay", "", "Hourly pay rate")
	billingSetCmd.Flags().Int("days", 0, "Working days per week (default 5)")
	billingSetCmd.Flags().String("currency", "", "Currency code (default from config)")
	billingSetCmd.Flags().String("type", "", "Employment type (contract or fulltime)")

	billingCmd.AddCommand(billingShowCmd)
	billingCmd.AddCommand(billingSetCmd)
}
