package domain

import (
	"testing"
	"time"
)

func approvedWeek(candidateID int64, start string, hours, rate string) *WeeklyTimesheet {
	d, _ := time.Parse(DateLayout, start)
	ts := NewWeeklyTimesheet(candidateID, d, DayHours{Monday: hrs(hours)})
	ts.ID = d.Unix()
	ts.TotalWeeklyHours = hrs(hours)
	ts.HourlyRate = hrs(rate)
	ts.TotalWeeklyAmount = hrs(hours).Mul(hrs(rate))
	ts.Currency = "USD"
	ts.Status = TimesheetStatusApproved
	return ts
}

func TestBuildBiWeekly_PairsConsecutiveWeeks(t *testing.T) {
	rows := []*WeeklyTimesheet{
		approvedWeek(1, "2024-01-08", "35", "25"),
		approvedWeek(1, "2024-01-01", "40", "25"),
	}

	periods := BuildBiWeekly(rows)
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	p := periods[0]
	if !p.TotalHours.Equal(hrs("75")) {
		t.Errorf("expected 75 hours, got %s", p.TotalHours)
	}
	if p.TotalAmount.StringFixed(2) != "1875.00" {
		t.Errorf("expected 1875.00, got %s", p.TotalAmount.StringFixed(2))
	}
	if p.PeriodStart.Format(DateLayout) != "2024-01-01" || p.PeriodEnd.Format(DateLayout) != "2024-01-14" {
		t.Errorf("unexpected period %s..%s", p.PeriodStart.Format(DateLayout), p.PeriodEnd.Format(DateLayout))
	}
	if p.IsPartial() {
		t.Error("expected a full period")
	}
}

func TestBuildBiWeekly_OddTrailingWeekIsPartial(t *testing.T) {
	rows := []*WeeklyTimesheet{
		approvedWeek(1, "2024-01-01", "40", "25"),
		approvedWeek(1, "2024-01-08", "40", "25"),
		approvedWeek(1, "2024-01-15", "20", "25"),
	}

	periods := BuildBiWeekly(rows)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	last := periods[1]
	if !last.IsPartial() {
		t.Fatal("expected trailing period to be partial")
	}
	if last.TotalAmount.StringFixed(2) != "500.00" {
		t.Errorf("expected 500.00, got %s", last.TotalAmount.StringFixed(2))
	}
	if last.PeriodEnd.Format(DateLayout) != "2024-01-21" {
		t.Errorf("expected end 2024-01-21, got %s", last.PeriodEnd.Format(DateLayout))
	}
}

func TestBuildBiWeekly_IgnoresUnapprovedAndSeparatesCandidates(t *testing.T) {
	pending := approvedWeek(1, "2024-01-08", "40", "25")
	pending.Status = TimesheetStatusSubmitted

	rows := []*WeeklyTimesheet{
		approvedWeek(2, "2024-01-01", "10", "30"),
		approvedWeek(1, "2024-01-01", "40", "25"),
		pending,
	}

	periods := BuildBiWeekly(rows)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	if periods[0].CandidateID != 1 || periods[1].CandidateID != 2 {
		t.Errorf("expected candidates ordered 1,2 got %d,%d", periods[0].CandidateID, periods[1].CandidateID)
	}
	if !periods[0].IsPartial() {
		t.Error("submitted week must not be paired")
	}
}

func TestBuildMonthly_GroupsByWeekStartMonth(t *testing.T) {
	rows := []*WeeklyTimesheet{
		approvedWeek(1, "2024-01-22", "40", "25"),
		approvedWeek(1, "2024-01-29", "30", "25"), // spans into February
		approvedWeek(1, "2024-02-05", "40", "25"),
	}

	periods := BuildMonthly(rows)
	if len(periods) != 2 {
		t.Fatalf("expected 2 months, got %d", len(periods))
	}
	jan := periods[0]
	if jan.Month != time.January || jan.TotalWeeks != 2 {
		t.Fatalf("expected January with 2 weeks, got %s with %d", jan.Month, jan.TotalWeeks)
	}
	if jan.TotalAmount.StringFixed(2) != "1750.00" {
		t.Errorf("expected 1750.00, got %s", jan.TotalAmount.StringFixed(2))
	}
	if jan.AverageHoursPerWeek.StringFixed(2) != "35.00" {
		t.Errorf("expected average 35.00, got %s", jan.AverageHoursPerWeek.StringFixed(2))
	}
	if periods[1].Month != time.February || periods[1].TotalWeeks != 1 {
		t.Errorf("expected February with 1 week")
	}
}

func TestAggregationSeparatesCurrencies(t *testing.T) {
	eur := approvedWeek(1, "2024-01-15", "40", "20")
	eur.Currency = "EUR"

	rows := []*WeeklyTimesheet{
		approvedWeek(1, "2024-01-01", "40", "25"),
		approvedWeek(1, "2024-01-08", "40", "25"),
		eur,
	}

	months := BuildMonthly(rows)
	if len(months) != 2 {
		t.Fatalf("expected one period per currency, got %d", len(months))
	}
	if months[0].Currency != "USD" || months[0].TotalAmount.StringFixed(2) != "2000.00" {
		t.Errorf("unexpected USD month %s %s", months[0].Currency, months[0].TotalAmount.StringFixed(2))
	}
	if months[1].Currency != "EUR" || months[1].TotalAmount.StringFixed(2) != "800.00" {
		t.Errorf("unexpected EUR month %s %s", months[1].Currency, months[1].TotalAmount.StringFixed(2))
	}

	// USD, USD | EUR
	periods := BuildBiWeekly(rows)
	if len(periods) != 2 || periods[1].Currency != "EUR" || !periods[1].IsPartial() {
		t.Fatalf("expected EUR week in its own period, got %d periods", len(periods))
	}

	// USD | EUR | USD: no period mixes the two
	between := approvedWeek(1, "2024-01-08", "40", "20")
	between.Currency = "EUR"
	rows = []*WeeklyTimesheet{
		approvedWeek(1, "2024-01-01", "40", "25"),
		between,
		approvedWeek(1, "2024-01-15", "40", "25"),
	}
	periods = BuildBiWeekly(rows)
	for _, p := range periods {
		if p.Week2 != nil && p.Week2.Currency != p.Week1.Currency {
			t.Errorf("period starting %s mixes currencies", p.PeriodStart.Format(DateLayout))
		}
	}
	if len(periods) != 3 {
		t.Errorf("expected 3 periods, got %d", len(periods))
	}
}

func TestAggregationIsDeterministic(t *testing.T) {
	rows := []*WeeklyTimesheet{
		approvedWeek(1, "2024-01-08", "35", "25"),
		approvedWeek(1, "2024-01-01", "40", "25"),
	}
	a := BuildBiWeekly(rows)
	b := BuildBiWeekly(rows)
	if !a[0].TotalAmount.Equal(b[0].TotalAmount) || !a[0].PeriodStart.Equal(b[0].PeriodStart) {
		t.Error("repeated aggregation should produce identical results")
	}
}
