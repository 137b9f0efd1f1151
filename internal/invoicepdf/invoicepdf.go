// Package invoicepdf renders invoices as printable PDF documents.
package invoicepdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/andy/talentsink/internal/domain"
)

// Company is the issuing agency printed in the header
type Company struct {
	Name    string
	Address string
}

// Renderer writes invoice PDFs
type Renderer struct {
	company  Company
	compress bool
}

func New(company Company) *Renderer {
	return &Renderer{company: company, compress: true}
}

// Render writes the invoice to w. ts is optional and adds a daily breakdown.
func (r *Renderer) Render(w io.Writer, inv *domain.Invoice, ts *domain.WeeklyTimesheet) error {
	if inv == nil {
		return errors.New("invoice is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.AddPage()

	// Core fonts are cp1252; names and notes arrive as UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, tr(fmt.Sprintf("Invoice %s", inv.InvoiceNumber)))
	pdf.Ln(10)

	if r.company.Name != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.Cell(40, 6, tr(r.company.Name))
		pdf.Ln(6)
	}
	if r.company.Address != "" {
		pdf.SetFont("Arial", "", 10)
		for _, line := range strings.Split(r.company.Address, "\n") {
			pdf.Cell(40, 5, tr(strings.TrimSpace(line)))
			pdf.Ln(5)
		}
	}
	pdf.Ln(6)

	// Bill-to on the left, dates on the right
	top := pdf.GetY()
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(95, 8, "Candidate:")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	if inv.Candidate != nil {
		pdf.Cell(95, 6, tr(inv.Candidate.FullName))
		pdf.Ln(6)
		pdf.Cell(95, 6, tr(inv.Candidate.Email))
		pdf.Ln(6)
	} else {
		pdf.Cell(95, 6, fmt.Sprintf("Candidate #%d", inv.CandidateID))
		pdf.Ln(6)
	}
	leftEnd := pdf.GetY()

	pdf.SetXY(105, top)
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{
		fmt.Sprintf("Status: %s", strings.ToUpper(string(inv.Status))),
		fmt.Sprintf("Issued: %s", inv.IssuedDate.Format(domain.DateLayout)),
		fmt.Sprintf("Due: %s", inv.DueDate.Format(domain.DateLayout)),
		fmt.Sprintf("Period: %s to %s", inv.PeriodStart.Format(domain.DateLayout), inv.PeriodEnd.Format(domain.DateLayout)),
	} {
		pdf.Cell(85, 6, line)
		pdf.SetXY(105, pdf.GetY()+6)
	}

	y := pdf.GetY()
	if leftEnd > y {
		y = leftEnd
	}
	pdf.SetXY(10, y)
	pdf.Ln(10)

	// Line item
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(100, 8, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 8, "Hours", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Rate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	desc := fmt.Sprintf("Services, week of %s", inv.PeriodStart.Format(domain.DateLayout))
	pdf.CellFormat(100, 7, desc, "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, inv.TotalHours.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, money(inv.Currency, inv.HourlyRate.StringFixed(2)), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, money(inv.Currency, inv.TotalAmount.StringFixed(2)), "1", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(155, 10, "Total:")
	pdf.CellFormat(35, 10, money(inv.Currency, inv.TotalAmount.StringFixed(2)), "", 1, "R", false, 0, "")

	if ts != nil {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(40, 8, "Daily hours")
		pdf.Ln(9)

		days := ts.Hours.Days()
		pdf.SetFont("Arial", "B", 9)
		for i := range days {
			pdf.CellFormat(27, 7, ts.WeekStartDate.AddDate(0, 0, i).Format("Mon 02 Jan"), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 9)
		for _, h := range days {
			pdf.CellFormat(27, 7, h.StringFixed(1), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(7)
	}

	if inv.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(190, 5, tr(inv.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return nil
}

// WriteFile renders the invoice into dir and returns the file path
func (r *Renderer) WriteFile(dir string, inv *domain.Invoice, ts *domain.WeeklyTimesheet) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(inv))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := r.Render(f, inv, ts); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// FileName returns a filesystem-safe name for the invoice PDF
func FileName(inv *domain.Invoice) string {
	var b strings.Builder
	for _, c := range inv.InvoiceNumber {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return "invoice_" + b.String() + ".pdf"
}

func money(currency, amount string) string {
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}
