// Package api exposes the services over a JSON REST interface.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andy/talentsink/internal/invoicepdf"
	"github.com/andy/talentsink/internal/service"
)

// Services bundles everything the handlers call into
type Services struct {
	Users      service.UserService
	Billing    service.BillingService
	Timesheets service.TimesheetService
	Reports    service.ReportService
	Invoices   service.InvoiceService
}

type API struct {
	host         string
	port         int
	cookieSecure bool

	slog   *slog.Logger
	router chi.Router

	svc Services
	pdf *invoicepdf.Renderer
	now func() time.Time
}

func New(slog *slog.Logger, svc Services, pdf *invoicepdf.Renderer) *API {
	api := &API{
		host: "localhost",
		port: 8080,

		router: chi.NewRouter(),
		slog:   slog,

		svc: svc,
		pdf: pdf,
		now: time.Now,
	}

	api.RegisterRoutes()

	return api
}

func (a *API) WithHost(host string) *API {
	a.host = host
	return a
}

func (a *API) WithPort(port int) *API {
	a.port = port
	return a
}

// WithSecureCookies marks the session cookie Secure (HTTPS only)
func (a *API) WithSecureCookies(secure bool) *API {
	a.cookieSecure = secure
	return a
}

// Handler returns the root handler, mainly for tests
func (a *API) Handler() http.Handler {
	return a.router
}

// Serve listens until ctx is cancelled, then drains in-flight requests
func (a *API) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.host, a.port)
	server := &http.Server{
		Addr:    addr,
		Handler: a.router,

		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.slog.Info("server started listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
