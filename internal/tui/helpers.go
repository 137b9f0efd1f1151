package tui

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/app"
	"github.com/andy/talentsink/internal/domain"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// formatHours formats hours as "37.5h"
func formatHours(hours decimal.Decimal) string {
	return hours.String() + "h"
}

// formatMoney formats money as "$X,XXX.XX" with comma separators. Unknown
// currencies use the code as a prefix.
func formatMoney(amount decimal.Decimal, currency string) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	// Split at decimal point
	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	// Add commas to integer part
	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	prefix, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		prefix = ""
		if currency != "" {
			prefix = strings.ToUpper(currency) + " "
		}
	}
	if negative {
		prefix = "-" + prefix
	}
	return prefix + string(result) + decPart
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// loadCandidateNames maps candidate IDs to full names
func loadCandidateNames(ctx context.Context, a *app.App, actor domain.Actor) (map[int64]string, error) {
	candidates, err := a.UserService.ListCandidates(ctx, actor)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(candidates))
	for _, c := range candidates {
		names[c.ID] = c.FullName
	}
	return names, nil
}

func candidateName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown"
}
