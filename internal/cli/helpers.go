package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andy/talentsink/internal/domain"
)

var errNoAdmin = errors.New("no admin account found; run 'talentsink users create-admin' first")

// adminActor resolves the admin the command runs as: the --admin flag when
// given, otherwise the first admin account.
func adminActor(ctx context.Context, cmd *cobra.Command) (domain.Actor, error) {
	email, _ := cmd.Flags().GetString("admin")
	if email != "" {
		user, err := appInstance.UserService.GetByEmail(ctx, email)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("failed to find admin %s: %w", email, err)
		}
		if user.Role != domain.RoleAdmin || !user.IsActive {
			return domain.Actor{}, fmt.Errorf("%s is not an active admin", email)
		}
		return user.Actor(), nil
	}

	role := domain.RoleAdmin
	admins, err := appInstance.UserRepo.List(ctx, &role)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("failed to list admins: %w", err)
	}
	for _, a := range admins {
		if a.IsActive {
			return a.Actor(), nil
		}
	}
	return domain.Actor{}, errNoAdmin
}

// candidateNames maps candidate IDs to display names
func candidateNames(ctx context.Context, actor domain.Actor) map[int64]string {
	names := make(map[int64]string)
	candidates, err := appInstance.UserService.ListCandidates(ctx, actor)
	if err != nil {
		return names
	}
	for _, c := range candidates {
		names[c.ID] = c.FullName
	}
	return names
}

func nameOf(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("Candidate #%d", id)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// parseDate parses a date string in YYYY-MM-DD format
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
	}
	return t, nil
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
