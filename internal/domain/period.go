package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BiWeeklyPeriod pairs two consecutive approved weeks of one candidate.
// Week2 is nil for a trailing partial period.
type BiWeeklyPeriod struct {
	CandidateID int64
	PeriodStart time.Time
	PeriodEnd   time.Time
	Week1       *WeeklyTimesheet
	Week2       *WeeklyTimesheet
	TotalHours  decimal.Decimal
	TotalAmount decimal.Decimal
	Currency    string
}

// IsPartial returns true if the period has only one week
func (p *BiWeeklyPeriod) IsPartial() bool {
	return p.Week2 == nil
}

type MonthlyPeriod struct {
	CandidateID          int64
	Year                 int
	Month                time.Month
	Weeks                []*WeeklyTimesheet
	TotalHours           decimal.Decimal
	TotalAmount          decimal.Decimal
	TotalWeeks           int
	AverageHoursPerWeek  decimal.Decimal
	AverageAmountPerWeek decimal.Decimal
	Currency             string
}

// PeriodStart returns the first day of the month
func (p *MonthlyPeriod) PeriodStart() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// approvedByCandidate keeps approved rows, grouped per candidate in ascending
// week order. Candidate IDs are returned sorted.
func approvedByCandidate(rows []*WeeklyTimesheet) ([]int64, map[int64][]*WeeklyTimesheet) {
	groups := make(map[int64][]*WeeklyTimesheet)
	for _, r := range rows {
		if r == nil || !r.IsApproved() {
			continue
		}
		groups[r.CandidateID] = append(groups[r.CandidateID], r)
	}

	ids := make([]int64, 0, len(groups))
	for id, weeks := range groups {
		ids = append(ids, id)
		sort.SliceStable(weeks, func(i, j int) bool {
			return weeks[i].WeekStartDate.Before(weeks[j].WeekStartDate)
		})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, groups
}

// BuildBiWeekly pairs each candidate's approved weeks in ascending order
// (0-1, 2-3, ...). An odd trailing week forms a partial period. Weeks billed
// in different currencies are never paired: a currency change closes the
// current period as partial.
func BuildBiWeekly(rows []*WeeklyTimesheet) []*BiWeeklyPeriod {
	ids, groups := approvedByCandidate(rows)

	periods := make([]*BiWeeklyPeriod, 0)
	for _, id := range ids {
		weeks := groups[id]
		for i := 0; i < len(weeks); {
			p := &BiWeeklyPeriod{
				CandidateID: id,
				PeriodStart: weeks[i].WeekStartDate,
				PeriodEnd:   weeks[i].WeekEndDate,
				Week1:       weeks[i],
				TotalHours:  weeks[i].TotalWeeklyHours,
				TotalAmount: weeks[i].TotalWeeklyAmount,
				Currency:    weeks[i].Currency,
			}
			next := i + 1
			if next < len(weeks) && weeks[next].Currency == p.Currency {
				p.Week2 = weeks[next]
				p.PeriodEnd = weeks[next].WeekEndDate
				p.TotalHours = p.TotalHours.Add(weeks[next].TotalWeeklyHours)
				p.TotalAmount = p.TotalAmount.Add(weeks[next].TotalWeeklyAmount)
				next++
			}
			periods = append(periods, p)
			i = next
		}
	}
	return periods
}

type monthKey struct {
	year     int
	month    time.Month
	currency string
}

// BuildMonthly groups each candidate's approved weeks by the calendar month of
// the week start date and by currency. Weeks spanning two months are not split.
func BuildMonthly(rows []*WeeklyTimesheet) []*MonthlyPeriod {
	ids, groups := approvedByCandidate(rows)

	periods := make([]*MonthlyPeriod, 0)
	for _, id := range ids {
		byMonth := make(map[monthKey]*MonthlyPeriod)
		for _, w := range groups[id] {
			y, m, _ := w.WeekStartDate.Date()
			k := monthKey{y, m, w.Currency}
			current, ok := byMonth[k]
			if !ok {
				current = &MonthlyPeriod{
					CandidateID: id,
					Year:        y,
					Month:       m,
					Currency:    w.Currency,
				}
				byMonth[k] = current
				periods = append(periods, current)
			}
			current.Weeks = append(current.Weeks, w)
			current.TotalHours = current.TotalHours.Add(w.TotalWeeklyHours)
			current.TotalAmount = current.TotalAmount.Add(w.TotalWeeklyAmount)
			current.TotalWeeks++
		}
	}

	for _, p := range periods {
		n := decimal.NewFromInt(int64(p.TotalWeeks))
		p.AverageHoursPerWeek = p.TotalHours.DivRound(n, 2)
		p.AverageAmountPerWeek = p.TotalAmount.DivRound(n, 2)
	}
	return periods
}
