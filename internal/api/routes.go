package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func (a *API) RegisterRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(a.logRequests)
	a.router.Use(middleware.Recoverer)
	a.router.Use(render.SetContentType(render.ContentTypeJSON))

	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	a.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.With(a.authenticate).Post("/logout", a.handleLogout)
		r.With(a.authenticate).Get("/me", a.handleMe)
	})

	a.router.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Get("/billing", a.handleOwnBilling)

		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", a.handleListTimesheets)
			r.Post("/", a.handleCreateTimesheet)
			r.Get("/biweekly", a.handleBiWeekly)
			r.Get("/monthly", a.handleMonthly)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.handleGetTimesheet)
				r.Put("/", a.handleUpdateTimesheet)
				r.Delete("/", a.handleDeleteTimesheet)
				r.Post("/submit", a.handleSubmitTimesheet)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(a.requireAdmin)

			r.Get("/dashboard", a.handleDashboard)

			r.Get("/timesheets", a.handleListTimesheets)
			r.Patch("/timesheets/{id}/approve", a.handleApprove)
			r.Patch("/timesheets/{id}/reject", a.handleReject)
			r.Patch("/timesheets/{id}/revert", a.handleRevert)
			r.Get("/timesheets/{id}/history", a.handleHistory)

			r.Get("/biweekly-timesheets", a.handleBiWeekly)
			r.Get("/monthly-timesheets", a.handleMonthly)
			r.Get("/monthly-timesheets/export", a.handleMonthlyExport)

			r.Get("/candidates", a.handleListCandidates)
			r.Get("/candidates/{id}/billing", a.handleGetBilling)
			r.Put("/candidates/{id}/billing", a.handleSetBilling)
			r.Get("/candidates/{id}/billing/history", a.handleBillingHistory)

			r.Post("/generate-invoice", a.handleGenerateInvoice)
			r.Get("/invoices", a.handleListInvoices)
			r.Get("/invoices/{id}", a.handleGetInvoice)
			r.Patch("/invoices/{id}/status", a.handleInvoiceStatus)
			r.Get("/invoices/{id}/pdf", a.handleInvoicePDF)
		})
	})
}
