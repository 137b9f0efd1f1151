package tui

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1875", "USD", "$1,875.00"},
		{"1234567.891", "GBP", "£1,234,567.89"},
		{"0", "EUR", "€0.00"},
		{"-525.5", "USD", "-$525.50"},
		{"100", "chf", "CHF 100.00"},
		{"100", "", "100.00"},
	}

	for _, tt := range tests {
		got := formatMoney(decimal.RequireFromString(tt.amount), tt.currency)
		if got != tt.want {
			t.Errorf("formatMoney(%s, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	if got := formatHours(decimal.RequireFromString("37.5")); got != "37.5h" {
		t.Errorf("got %q", got)
	}
	if got := formatHours(decimal.NewFromInt(40)); got != "40h" {
		t.Errorf("got %q", got)
	}
}

func TestTruncateStr(t *testing.T) {
	if got := truncateStr("Jane Candidate-Smith", 10); got != "Jane Ca..." {
		t.Errorf("got %q", got)
	}
	if got := truncateStr("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
}
