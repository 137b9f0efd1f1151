package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "fulltime"
	EmploymentContract EmploymentType = "contract"
)

// DefaultWorkingDays applies when a candidate has no active billing config.
const DefaultWorkingDays = 5

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type BillingConfig struct {
	ID                 int64
	CandidateID        int64
	HourlyRate         decimal.Decimal // billed to the client
	PayRate            decimal.Decimal // paid to the candidate
	WorkingDaysPerWeek int
	Currency           string
	EmploymentType     EmploymentType
	IsActive           bool
	EffectiveFrom      time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewBillingConfig creates an active billing config effective from now
func NewBillingConfig(candidateID int64, hourlyRate, payRate decimal.Decimal, workingDays int, currency string, employment EmploymentType) *BillingConfig {
	now := time.Now()
	return &BillingConfig{
		CandidateID:        candidateID,
		HourlyRate:         hourlyRate,
		PayRate:            payRate,
		WorkingDaysPerWeek: workingDays,
		Currency:           strings.ToUpper(strings.TrimSpace(currency)),
		EmploymentType:     employment,
		IsActive:           true,
		EffectiveFrom:      now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (b *BillingConfig) Validate() error {
	verr := &ValidationError{}
	if b.CandidateID <= 0 {
		verr.Add("candidateId", "candidate is required")
	}
	if b.HourlyRate.IsNegative() {
		verr.Add("hourlyRate", "hourly rate cannot be negative")
	}
	if b.PayRate.IsNegative() {
		verr.Add("payRate", "pay rate cannot be negative")
	}
	if b.WorkingDaysPerWeek != 5 && b.WorkingDaysPerWeek != 6 {
		verr.Add("workingDaysPerWeek", "working days per week must be 5 or 6")
	}
	if !currencyPattern.MatchString(b.Currency) {
		verr.Add("currency", "currency must be a three-letter ISO code")
	}
	if b.EmploymentType != EmploymentFullTime && b.EmploymentType != EmploymentContract {
		verr.Add("employmentType", "employment type must be fulltime or contract")
	}
	return verr.OrNil()
}

// IsWorkingDay reports whether hours may be recorded on the given weekday.
// Sunday is never a working day; Saturday only for six-day weeks.
func IsWorkingDay(day time.Weekday, workingDaysPerWeek int) bool {
	switch day {
	case time.Sunday:
		return false
	case time.Saturday:
		return workingDaysPerWeek == 6
	default:
		return true
	}
}

// Margin returns the agency margin for the given hours
func (b *BillingConfig) Margin(hours decimal.Decimal) decimal.Decimal {
	return hours.Mul(b.HourlyRate.Sub(b.PayRate)).Round(2)
}

// ProfitMarginPercent returns margin as a percentage of the billed amount
func ProfitMarginPercent(margin, amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	return margin.Div(amount).Mul(decimal.NewFromInt(100)).Round(2)
}
