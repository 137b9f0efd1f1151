package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/repository"
)

// BiWeeklyQuery filters bi-weekly periods. Periods overlapping [From, To] are kept.
type BiWeeklyQuery struct {
	CandidateID *int64
	From        *time.Time
	To          *time.Time
}

// MonthlyQuery filters monthly periods. Zero Year or Month means any.
type MonthlyQuery struct {
	CandidateID *int64
	Year        int
	Month       time.Month
}

// ReportService provides aggregations and analytics. Everything is computed
// from the current approved rows on each call.
type ReportService interface {
	BiWeekly(ctx context.Context, actor domain.Actor, q BiWeeklyQuery) ([]*domain.BiWeeklyPeriod, error)
	Monthly(ctx context.Context, actor domain.Actor, q MonthlyQuery) ([]*domain.MonthlyPeriod, error)

	// Dashboard summarizes timesheets, revenue and invoices (admin)
	Dashboard(ctx context.Context, actor domain.Actor) (*domain.DashboardSummary, error)
}

type reportService struct {
	timesheetRepo repository.TimesheetRepository
	billingRepo   repository.BillingRepository
	invoiceRepo   repository.InvoiceRepository
	userRepo      repository.UserRepository
	currency      string
	now           func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	timesheetRepo repository.TimesheetRepository,
	billingRepo repository.BillingRepository,
	invoiceRepo repository.InvoiceRepository,
	userRepo repository.UserRepository,
	currency string,
) ReportService {
	return &reportService{
		timesheetRepo: timesheetRepo,
		billingRepo:   billingRepo,
		invoiceRepo:   invoiceRepo,
		userRepo:      userRepo,
		currency:      currency,
		now:           time.Now,
	}
}

// scope restricts candidates to their own data
func scope(actor domain.Actor, candidateID *int64) *int64 {
	if actor.IsAdmin() {
		return candidateID
	}
	own := actor.UserID
	return &own
}

func (s *reportService) approved(ctx context.Context, candidateID *int64, from, to *time.Time) ([]*domain.WeeklyTimesheet, error) {
	status := domain.TimesheetStatusApproved
	return s.timesheetRepo.List(ctx, repository.TimesheetFilter{
		CandidateID: candidateID,
		Status:      &status,
		From:        from,
		To:          to,
	})
}

func (s *reportService) BiWeekly(ctx context.Context, actor domain.Actor, q BiWeeklyQuery) ([]*domain.BiWeeklyPeriod, error) {
	// Pairing depends on every approved week, so the date window is applied
	// after building periods.
	rows, err := s.approved(ctx, scope(actor, q.CandidateID), nil, nil)
	if err != nil {
		return nil, err
	}

	periods := domain.BuildBiWeekly(rows)
	if q.From == nil && q.To == nil {
		return periods, nil
	}

	kept := make([]*domain.BiWeeklyPeriod, 0, len(periods))
	for _, p := range periods {
		if q.From != nil && p.PeriodEnd.Before(domain.DateOf(*q.From)) {
			continue
		}
		if q.To != nil && p.PeriodStart.After(domain.DateOf(*q.To)) {
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

func (s *reportService) Monthly(ctx context.Context, actor domain.Actor, q MonthlyQuery) ([]*domain.MonthlyPeriod, error) {
	var from, to *time.Time
	switch {
	case q.Year > 0 && q.Month > 0:
		f := time.Date(q.Year, q.Month, 1, 0, 0, 0, 0, time.UTC)
		t := f.AddDate(0, 1, -1)
		from, to = &f, &t
	case q.Year > 0:
		f := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		t := time.Date(q.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		from, to = &f, &t
	}

	rows, err := s.approved(ctx, scope(actor, q.CandidateID), from, to)
	if err != nil {
		return nil, err
	}

	periods := domain.BuildMonthly(rows)
	if q.Year == 0 && q.Month > 0 {
		kept := make([]*domain.MonthlyPeriod, 0, len(periods))
		for _, p := range periods {
			if p.Month == q.Month {
				kept = append(kept, p)
			}
		}
		periods = kept
	}
	return periods, nil
}

func (s *reportService) Dashboard(ctx context.Context, actor domain.Actor) (*domain.DashboardSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		Currency:         s.currency,
		InvoicesByStatus: make(map[domain.InvoiceStatus]int),
	}

	var err error
	if summary.ActiveCandidates, err = s.userRepo.CountByRole(ctx, domain.RoleCandidate); err != nil {
		return nil, err
	}
	if summary.TimesheetsByStatus, err = s.timesheetRepo.CountByStatus(ctx); err != nil {
		return nil, err
	}

	// Margin uses the candidate's current pay rate against the billed rate
	// recorded on each week.
	configs, err := s.billingRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	payRates := make(map[int64]decimal.Decimal, len(configs))
	for _, c := range configs {
		payRates[c.CandidateID] = c.PayRate
	}

	rows, err := s.approved(ctx, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	type revenueKey struct {
		year     int
		month    time.Month
		currency string
	}
	byMonth := make(map[revenueKey]*domain.MonthlyRevenue)
	for _, p := range domain.BuildMonthly(rows) {
		k := revenueKey{p.Year, p.Month, p.Currency}
		rev, ok := byMonth[k]
		if !ok {
			rev = &domain.MonthlyRevenue{Year: p.Year, Month: p.Month, Currency: p.Currency}
			byMonth[k] = rev
		}
		rev.Hours = rev.Hours.Add(p.TotalHours)
		rev.Amount = rev.Amount.Add(p.TotalAmount)
		for _, w := range p.Weeks {
			spread := w.HourlyRate.Sub(payRates[w.CandidateID])
			rev.Margin = rev.Margin.Add(w.TotalWeeklyHours.Mul(spread).Round(2))
		}
	}

	revenue := make([]domain.MonthlyRevenue, 0, len(byMonth))
	for _, rev := range byMonth {
		revenue = append(revenue, *rev)
	}
	sort.Slice(revenue, func(i, j int) bool {
		a, b := revenue[i], revenue[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Currency < b.Currency
	})
	summary.RevenueByMonth = lastMonths(revenue, 12)

	now := s.now()
	if rev, ok := byMonth[revenueKey{now.Year(), now.Month(), s.currency}]; ok {
		summary.ApprovedHoursThisMonth = rev.Hours
		summary.ApprovedAmountThisMonth = rev.Amount
		summary.MarginThisMonth = rev.Margin
		summary.ProfitMarginPercent = domain.ProfitMarginPercent(rev.Margin, rev.Amount)
	}

	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		summary.InvoicesByStatus[inv.Status]++
		if inv.Currency != s.currency {
			continue
		}
		if inv.Status == domain.InvoiceStatusSent || inv.Status == domain.InvoiceStatusOverdue {
			summary.OutstandingInvoiceTotal = summary.OutstandingInvoiceTotal.Add(inv.TotalAmount)
		}
	}

	return summary, nil
}

// lastMonths keeps the rows of the n most recent months of a sorted slice
func lastMonths(revenue []domain.MonthlyRevenue, n int) []domain.MonthlyRevenue {
	months := 0
	for i := len(revenue) - 1; i >= 0; i-- {
		if i == len(revenue)-1 || revenue[i].Year != revenue[i+1].Year || revenue[i].Month != revenue[i+1].Month {
			months++
		}
		if months > n {
			return revenue[i+1:]
		}
	}
	return revenue
}
