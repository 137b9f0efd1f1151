package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/invoicepdf"
	"github.com/andy/talentsink/internal/report"
	"github.com/andy/talentsink/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := a.svc.Reports.Dashboard(r.Context(), actorFrom(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newDashboardResponse(summary))
}

func (a *API) handleMonthlyExport(w http.ResponseWriter, r *http.Request) {
	q, err := monthlyQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	periods, err := a.svc.Reports.Monthly(r.Context(), actor, q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	candidates, err := a.svc.Users.ListCandidates(r.Context(), actor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	names := make(map[int64]string, len(candidates))
	for _, c := range candidates {
		names[c.ID] = c.FullName
	}

	// Buffer so a failed export still gets a JSON error
	var buf bytes.Buffer
	if err := report.MonthlyWorkbook(&buf, periods, names); err != nil {
		a.writeError(w, r, err)
		return
	}

	name := "monthly-timesheets.xlsx"
	if q.Year > 0 {
		name = fmt.Sprintf("monthly-timesheets-%d.xlsx", q.Year)
		if q.Month > 0 {
			name = fmt.Sprintf("monthly-timesheets-%d-%02d.xlsx", q.Year, int(q.Month))
		}
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	users, err := a.svc.Users.ListCandidates(r.Context(), actorFrom(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	render.JSON(w, r, out)
}

// writeBilling renders the active config or 404 when there is none
func (a *API) writeBilling(w http.ResponseWriter, r *http.Request, candidateID int64) {
	cfg, err := a.svc.Billing.GetActive(r.Context(), actorFrom(r), candidateID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if cfg == nil {
		a.writeError(w, r, fmt.Errorf("billing for candidate %d: %w", candidateID, domain.ErrNotFound))
		return
	}
	render.JSON(w, r, newBillingResponse(cfg))
}

func (a *API) handleOwnBilling(w http.ResponseWriter, r *http.Request) {
	a.writeBilling(w, r, actorFrom(r).UserID)
}

func (a *API) handleGetBilling(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeBilling(w, r, id)
}

func (a *API) handleSetBilling(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := &BillingRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	cfg, err := a.svc.Billing.SetConfig(r.Context(), actorFrom(r), id, req.input())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newBillingResponse(cfg))
}

func (a *API) handleBillingHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	configs, err := a.svc.Billing.History(r.Context(), actorFrom(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]BillingResponse, 0, len(configs))
	for _, c := range configs {
		out = append(out, newBillingResponse(c))
	}
	render.JSON(w, r, out)
}

func (a *API) handleGenerateInvoice(w http.ResponseWriter, r *http.Request) {
	req := &GenerateInvoiceRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	invoice, err := a.svc.Invoices.Generate(r.Context(), actorFrom(r), req.TimesheetID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newInvoiceResponse(invoice))
}

func (a *API) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	verr := &domain.ValidationError{}
	page, pageNum, perPage := pageQuery(r, verr)
	q := service.InvoiceQuery{
		CandidateID: int64Query(r, "candidateId", verr),
		Status:      invoiceStatusQuery(r, verr),
		Page:        page,
	}
	if err := verr.OrNil(); err != nil {
		a.writeError(w, r, err)
		return
	}

	invoices, total, err := a.svc.Invoices.ListInvoices(r.Context(), actorFrom(r), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	items := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, newInvoiceResponse(inv))
	}
	render.JSON(w, r, ListResponse{Items: items, Total: total, Page: pageNum, PerPage: perPage})
}

func (a *API) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	invoice, err := a.svc.Invoices.GetInvoice(r.Context(), actorFrom(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newInvoiceResponse(invoice))
}

func (a *API) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	req := &InvoiceStatusRequest{}
	if err := render.Bind(r, req); err != nil {
		a.writeError(w, r, bindError(err))
		return
	}

	invoice, err := a.svc.Invoices.UpdateStatus(r.Context(), actorFrom(r), id, req.status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	render.JSON(w, r, newInvoiceResponse(invoice))
}

func (a *API) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	invoice, err := a.svc.Invoices.GetInvoice(r.Context(), actor, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	// The daily breakdown is optional; the snapshot on the invoice is authoritative
	ts, err := a.svc.Timesheets.Get(r.Context(), actor, invoice.TimesheetID)
	if err != nil {
		a.slog.Warn("invoice pdf without timesheet", "invoice", invoice.InvoiceNumber, "error", err)
		ts = nil
	}

	var buf bytes.Buffer
	if err := a.pdf.Render(&buf, invoice, ts); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", invoicepdf.FileName(invoice)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
