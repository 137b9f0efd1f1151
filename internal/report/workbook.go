// Package report exports aggregated timesheet data as spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/andy/talentsink/internal/domain"
)

const (
	SummarySheet = "Monthly"
	WeeksSheet   = "Weeks"
)

var (
	summaryHeader = []interface{}{"Candidate", "Year", "Month", "Weeks", "Total Hours", "Total Amount", "Avg Hours/Week", "Avg Amount/Week", "Currency"}
	weeksHeader   = []interface{}{"Candidate", "Week Start", "Week End", "Hours", "Rate", "Amount", "Currency"}
)

// MonthlyWorkbook writes monthly periods to an XLSX workbook with a summary
// sheet and a per-week detail sheet. names maps candidate IDs to display names.
func MonthlyWorkbook(w io.Writer, periods []*domain.MonthlyPeriod, names map[int64]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(WeeksSheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	// builtin format 2 is "0.00"
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	if err := writeHeader(f, SummarySheet, summaryHeader, header); err != nil {
		return err
	}
	if err := writeHeader(f, WeeksSheet, weeksHeader, header); err != nil {
		return err
	}

	summaryRow, weekRow := 2, 2
	for _, p := range periods {
		name := candidateName(names, p.CandidateID)
		row := []interface{}{
			name,
			p.Year,
			p.Month.String(),
			p.TotalWeeks,
			p.TotalHours.InexactFloat64(),
			p.TotalAmount.InexactFloat64(),
			p.AverageHoursPerWeek.InexactFloat64(),
			p.AverageAmountPerWeek.InexactFloat64(),
			p.Currency,
		}
		if err := setRow(f, SummarySheet, summaryRow, row); err != nil {
			return err
		}
		if err := styleRange(f, SummarySheet, 5, summaryRow, 8, summaryRow, money); err != nil {
			return err
		}
		summaryRow++

		for _, wk := range p.Weeks {
			row := []interface{}{
				name,
				wk.WeekStartDate.Format(domain.DateLayout),
				wk.WeekEndDate.Format(domain.DateLayout),
				wk.TotalWeeklyHours.InexactFloat64(),
				wk.HourlyRate.InexactFloat64(),
				wk.TotalWeeklyAmount.InexactFloat64(),
				wk.Currency,
			}
			if err := setRow(f, WeeksSheet, weekRow, row); err != nil {
				return err
			}
			if err := styleRange(f, WeeksSheet, 4, weekRow, 6, weekRow, money); err != nil {
				return err
			}
			weekRow++
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "I", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(WeeksSheet, "A", "G", 14); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func candidateName(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("#%d", id)
}

func writeHeader(f *excelize.File, sheet string, cols []interface{}, style int) error {
	if err := setRow(f, sheet, 1, cols); err != nil {
		return err
	}
	return styleRange(f, sheet, 1, 1, len(cols), 1, style)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleRange(f *excelize.File, sheet string, col1, row1, col2, row2, style int) error {
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}
