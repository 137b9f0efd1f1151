package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/repository"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "invalid id")
	}
	return id, nil
}

// pageQuery reads page and perPage (1-based) into a repository page
func pageQuery(r *http.Request, verr *domain.ValidationError) (repository.Page, int, int) {
	page, perPage := 1, defaultPerPage

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			verr.Add("page", "page must be a positive integer")
		} else {
			page = n
		}
	}
	if v := r.URL.Query().Get("perPage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPerPage {
			verr.Add("perPage", "perPage must be between 1 and 100")
		} else {
			perPage = n
		}
	}

	return repository.Page{Limit: perPage, Offset: (page - 1) * perPage}, page, perPage
}

// pageOf slices results that are computed in memory rather than paged in SQL
func pageOf[T any](items []T, p repository.Page) []T {
	if p.Offset >= len(items) {
		return nil
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

func int64Query(r *http.Request, name string, verr *domain.ValidationError) *int64 {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		verr.Add(name, "must be a positive integer")
		return nil
	}
	return &n
}

func intQuery(r *http.Request, name string, min, max int, verr *domain.ValidationError) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		verr.Add(name, "out of range")
		return 0
	}
	return n
}

func dateQuery(r *http.Request, name string, verr *domain.ValidationError) *time.Time {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil
	}
	t, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		verr.Add(name, "expected format YYYY-MM-DD")
		return nil
	}
	return &t
}

func timesheetStatusQuery(r *http.Request, verr *domain.ValidationError) *domain.TimesheetStatus {
	v := r.URL.Query().Get("status")
	if strings.TrimSpace(v) == "" {
		return nil
	}
	status, err := domain.ParseTimesheetStatus(v)
	if err != nil {
		merge(verr, "status", err)
		return nil
	}
	return &status
}

func invoiceStatusQuery(r *http.Request, verr *domain.ValidationError) *domain.InvoiceStatus {
	v := r.URL.Query().Get("status")
	if strings.TrimSpace(v) == "" {
		return nil
	}
	status, err := domain.ParseInvoiceStatus(v)
	if err != nil {
		merge(verr, "status", err)
		return nil
	}
	return &status
}
