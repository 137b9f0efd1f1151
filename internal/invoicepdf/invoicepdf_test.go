package invoicepdf

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/domain"
)

func sampleInvoice() *domain.Invoice {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Invoice{
		ID:            1,
		InvoiceNumber: "INV-2024-001",
		CandidateID:   2,
		TimesheetID:   7,
		PeriodStart:   start,
		PeriodEnd:     start.AddDate(0, 0, 6),
		TotalHours:    decimal.NewFromInt(40),
		HourlyRate:    decimal.NewFromInt(25),
		TotalAmount:   decimal.NewFromInt(1000),
		Currency:      "USD",
		Status:        domain.InvoiceStatusDraft,
		IssuedDate:    start.AddDate(0, 0, 7),
		DueDate:       start.AddDate(0, 0, 37),
		Candidate:     &domain.User{ID: 2, FullName: "Casey Jones", Email: "casey@example.com"},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	r := New(Company{Name: "Acme Talent", Address: "1 Main St\nSpringfield"})

	ts := domain.NewWeeklyTimesheet(2, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		domain.DayHours{Monday: decimal.NewFromInt(8)})

	if err := r.Render(&buf, sampleInvoice(), ts); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("expected PDF header")
	}
}

func TestRender_TranslatesUTF8Text(t *testing.T) {
	var buf bytes.Buffer
	r := New(Company{Name: "Agence Général"})
	r.compress = false

	inv := sampleInvoice()
	inv.Candidate.FullName = "Zoë Müller"
	inv.Notes = "Café hours"

	if err := r.Render(&buf, inv, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.Bytes()
	for _, want := range []string{"Zo\xeb M\xfcller", "G\xe9n\xe9ral", "Caf\xe9 hours"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("expected cp1252 text %q in output", want)
		}
	}
	if bytes.Contains(out, []byte("Zoë")) {
		t.Error("raw UTF-8 must not reach the page")
	}
}

func TestRender_NilInvoice(t *testing.T) {
	if err := New(Company{}).Render(&bytes.Buffer{}, nil, nil); err == nil {
		t.Error("expected error for nil invoice")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path, err := New(Company{}).WriteFile(dir, sampleInvoice(), nil)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(path, "invoice_INV-2024-001.pdf") {
		t.Errorf("unexpected path %s", path)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected non-empty file, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	inv := &domain.Invoice{InvoiceNumber: "INV/2024 001"}
	if got := FileName(inv); got != "invoice_INV_2024_001.pdf" {
		t.Errorf("got %s", got)
	}
}
