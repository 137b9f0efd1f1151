package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyRevenue is one month of approved work in a single currency
type MonthlyRevenue struct {
	Year     int
	Month    time.Month
	Currency string
	Hours    decimal.Decimal
	Amount   decimal.Decimal
	Margin   decimal.Decimal
}

// DashboardSummary is the admin overview computed on demand. The this-month
// and outstanding totals cover Currency only; RevenueByMonth has a row per
// currency.
type DashboardSummary struct {
	Currency                string
	ActiveCandidates        int
	TimesheetsByStatus      map[TimesheetStatus]int
	ApprovedHoursThisMonth  decimal.Decimal
	ApprovedAmountThisMonth decimal.Decimal
	MarginThisMonth         decimal.Decimal
	ProfitMarginPercent     decimal.Decimal
	InvoicesByStatus        map[InvoiceStatus]int
	OutstandingInvoiceTotal decimal.Decimal
	RevenueByMonth          []MonthlyRevenue
}

// PendingReview returns the number of timesheets awaiting an admin decision
func (d *DashboardSummary) PendingReview() int {
	return d.TimesheetsByStatus[TimesheetStatusSubmitted] + d.TimesheetsByStatus[TimesheetStatusPending]
}
