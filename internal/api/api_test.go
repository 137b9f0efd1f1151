package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andy/talentsink/internal/auth"
	"github.com/andy/talentsink/internal/db"
	"github.com/andy/talentsink/internal/invoicepdf"
	"github.com/andy/talentsink/internal/repository"
	"github.com/andy/talentsink/internal/service"
)

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	svc    Services
	admin  string
	cand   string
	candID int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "api.db"), "test-key")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repository.NewUserRepo(database)
	billing := repository.NewBillingRepo(database)
	sheets := repository.NewTimesheetRepo(database)
	invoices := repository.NewInvoiceRepo(database)

	svc := Services{
		Users:      service.NewUserService(users, auth.NewTokenManager("test-secret", time.Hour), nil),
		Billing:    service.NewBillingService(billing, users, "USD"),
		Timesheets: service.NewTimesheetService(sheets, billing, users, nil, logger, "USD"),
		Reports:    service.NewReportService(sheets, billing, invoices, users, "USD"),
		Invoices:   service.NewInvoiceService(invoices, sheets, users, logger, "INV", 30),
	}

	a := New(logger, svc, invoicepdf.New(invoicepdf.Company{Name: "Test Agency"}))
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	ts := &testServer{t: t, srv: srv, svc: svc}

	ctx := context.Background()
	if _, err := svc.Users.CreateAdmin(ctx, "admin@example.com", "Admin", "admin-password"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	ts.admin = ts.login("admin@example.com", "admin-password")

	var user UserResponse
	ts.expect(ts.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "casey@example.com", "fullName": "Casey Jones", "password": "casey-password",
	}), http.StatusCreated, &user)
	ts.candID = user.ID
	ts.cand = ts.login("casey@example.com", "casey-password")

	return ts
}

func (s *testServer) do(method, path, token string, body interface{}) *http.Response {
	s.t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, r)
	if err != nil {
		s.t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatal(err)
	}
	return resp
}

// expect checks the status and decodes the body into out when non-nil
func (s *testServer) expect(resp *http.Response, status int, out interface{}) {
	s.t.Helper()
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != status {
		s.t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, status, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			s.t.Fatalf("decode: %v (%s)", err, data)
		}
	}
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	var out LoginResponse
	s.expect(s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}), http.StatusOK, &out)
	return out.Token
}

func (s *testServer) setRate(rate string) {
	s.t.Helper()
	s.expect(s.do(http.MethodPut, fmt.Sprintf("/admin/candidates/%d/billing", s.candID), s.admin, map[string]interface{}{
		"hourlyRate": rate, "payRate": "18", "currency": "usd",
	}), http.StatusOK, nil)
}

func week(hours ...int) map[string]interface{} {
	days := []string{"mondayHours", "tuesdayHours", "wednesdayHours", "thursdayHours", "fridayHours"}
	body := map[string]interface{}{}
	for i, h := range hours {
		body[days[i]] = h
	}
	return body
}

type biWeeklyPage struct {
	Items   []BiWeeklyResponse `json:"items"`
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	PerPage int                `json:"perPage"`
}

type monthlyPage struct {
	Items   []MonthlyResponse `json:"items"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"perPage"`
}

func (s *testServer) createWeek(start string, hours ...int) TimesheetResponse {
	s.t.Helper()
	body := week(hours...)
	body["weekStartDate"] = start
	var out TimesheetResponse
	s.expect(s.do(http.MethodPost, "/timesheets", s.cand, body), http.StatusCreated, &out)
	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	s.expect(s.do(http.MethodGet, "/healthz", "", nil), http.StatusOK, nil)
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	s.expect(s.do(http.MethodGet, "/timesheets", "", nil), http.StatusUnauthorized, nil)
	s.expect(s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "casey@example.com", "password": "nope-nope"}), http.StatusUnauthorized, nil)

	var me UserResponse
	s.expect(s.do(http.MethodGet, "/auth/me", s.cand, nil), http.StatusOK, &me)
	if me.Role != "candidate" || me.Email != "casey@example.com" {
		t.Errorf("unexpected me %+v", me)
	}

	s.expect(s.do(http.MethodGet, "/admin/dashboard", s.cand, nil), http.StatusForbidden, nil)

	s.expect(s.do(http.MethodPost, "/auth/logout", s.cand, nil), http.StatusNoContent, nil)
	s.expect(s.do(http.MethodGet, "/auth/me", s.cand, nil), http.StatusUnauthorized, nil)
}

func TestLoginSetsCookie(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "casey@example.com", "password": "casey-password"})
	defer resp.Body.Close()

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil || !session.HttpOnly || session.Value == "" {
		t.Fatalf("expected HttpOnly session cookie, got %+v", session)
	}

	req, _ := http.NewRequest(http.MethodGet, s.srv.URL+"/auth/me", nil)
	req.AddCookie(session)
	me, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Errorf("expected cookie to authenticate, got %d", me.StatusCode)
	}
}

func TestCreateTimesheet(t *testing.T) {
	s := newTestServer(t)
	s.setRate("25")

	ts := s.createWeek("2024-01-01", 8, 8, 8, 8, 8)
	if ts.Status != "submitted" || ts.TotalWeeklyHours != "40.00" || ts.TotalWeeklyAmount != "1000.00" {
		t.Errorf("unexpected timesheet %+v", ts)
	}
	if ts.WeekEndDate != "2024-01-07" || ts.Currency != "USD" || ts.OvertimeHours != "0.00" {
		t.Errorf("unexpected derived fields %+v", ts)
	}

	// Duplicate week
	body := week(4)
	body["weekStartDate"] = "2024-01-01"
	s.expect(s.do(http.MethodPost, "/timesheets", s.cand, body), http.StatusBadRequest, nil)

	// Invalid hours come back per field
	body = week(25, 7)
	body["weekStartDate"] = "2024-01-08"
	body["wednesdayHours"] = 7.25
	var errResp ErrorResponse
	s.expect(s.do(http.MethodPost, "/timesheets", s.cand, body), http.StatusBadRequest, &errResp)
	if errResp.Fields["mondayHours"] == "" || errResp.Fields["wednesdayHours"] == "" {
		t.Errorf("expected field errors, got %+v", errResp.Fields)
	}

	// Not a Monday
	body = week(8)
	body["weekStartDate"] = "2024-01-09"
	s.expect(s.do(http.MethodPost, "/timesheets", s.cand, body), http.StatusBadRequest, &errResp)
	if errResp.Fields["weekStartDate"] == "" {
		t.Errorf("expected weekStartDate error, got %+v", errResp.Fields)
	}
}

func TestApprovedLockAndAdminEdit(t *testing.T) {
	s := newTestServer(t)
	s.setRate("25")

	ts := s.createWeek("2024-01-01", 8, 8, 8, 8, 8)
	path := fmt.Sprintf("/timesheets/%d", ts.ID)

	var errResp ErrorResponse
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/admin/timesheets/%d/reject", ts.ID), s.admin, map[string]string{"rejectionReason": "  "}), http.StatusBadRequest, &errResp)
	if errResp.Fields["rejectionReason"] == "" {
		t.Errorf("expected rejectionReason field error, got %+v", errResp)
	}
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/admin/timesheets/%d/approve", ts.ID), s.cand, nil), http.StatusForbidden, nil)
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/admin/timesheets/%d/approve", ts.ID), s.admin, nil), http.StatusOK, nil)

	s.expect(s.do(http.MethodPut, path, s.cand, week(8, 8, 8, 8)), http.StatusForbidden, nil)
	s.expect(s.do(http.MethodDelete, path, s.cand, nil), http.StatusForbidden, nil)

	var edited TimesheetResponse
	s.expect(s.do(http.MethodPut, path, s.admin, week(8, 8, 8, 8)), http.StatusOK, &edited)
	if edited.TotalWeeklyHours != "32.00" || edited.TotalWeeklyAmount != "800.00" || edited.Status != "approved" {
		t.Errorf("unexpected admin edit %+v", edited)
	}

	var history []HistoryResponse
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/admin/timesheets/%d/history", ts.ID), s.admin, nil), http.StatusOK, &history)
	if len(history) < 3 {
		t.Errorf("expected create, approve and edit history, got %d rows", len(history))
	}

	s.expect(s.do(http.MethodGet, "/timesheets/999", s.admin, nil), http.StatusNotFound, nil)
}

func TestBiWeeklyAndInvoice(t *testing.T) {
	s := newTestServer(t)
	s.setRate("25")

	w1 := s.createWeek("2024-01-01", 8, 8, 8, 8, 8)
	w2 := s.createWeek("2024-01-08", 8, 8, 8, 8, 3)
	for _, id := range []int64{w1.ID, w2.ID} {
		s.expect(s.do(http.MethodPatch, fmt.Sprintf("/admin/timesheets/%d/approve", id), s.admin, nil), http.StatusOK, nil)
	}

	var periods biWeeklyPage
	s.expect(s.do(http.MethodGet, "/admin/biweekly-timesheets", s.admin, nil), http.StatusOK, &periods)
	if len(periods.Items) != 1 || periods.Items[0].TotalHours != "75.00" || periods.Items[0].TotalAmount != "1875.00" {
		t.Fatalf("unexpected bi-weekly %+v", periods)
	}

	var months monthlyPage
	s.expect(s.do(http.MethodGet, "/timesheets/monthly?year=2024&month=1", s.cand, nil), http.StatusOK, &months)
	if len(months.Items) != 1 || months.Items[0].TotalWeeks != 2 {
		t.Fatalf("unexpected monthly %+v", months)
	}

	var inv InvoiceResponse
	s.expect(s.do(http.MethodPost, "/admin/generate-invoice", s.admin, map[string]int64{"timesheetId": w1.ID}), http.StatusCreated, &inv)
	if inv.TotalAmount != "1000.00" || inv.Status != "draft" || !strings.HasPrefix(inv.InvoiceNumber, "INV-") {
		t.Fatalf("unexpected invoice %+v", inv)
	}
	s.expect(s.do(http.MethodPost, "/admin/generate-invoice", s.admin, map[string]int64{"timesheetId": w1.ID}), http.StatusConflict, nil)

	// New rate and an admin edit leave the invoice untouched
	s.setRate("30")
	var rerated TimesheetResponse
	s.expect(s.do(http.MethodPut, fmt.Sprintf("/timesheets/%d", w1.ID), s.admin, week(8, 8, 8, 8, 8)), http.StatusOK, &rerated)
	if rerated.HourlyRate != "30.00" || rerated.TotalWeeklyAmount != "1200.00" {
		t.Errorf("expected edit at the new rate, got %s / %s", rerated.HourlyRate, rerated.TotalWeeklyAmount)
	}

	var stored InvoiceResponse
	s.expect(s.do(http.MethodGet, fmt.Sprintf("/admin/invoices/%d", inv.ID), s.admin, nil), http.StatusOK, &stored)
	if stored.TotalAmount != "1000.00" || stored.HourlyRate != "25.00" {
		t.Errorf("invoice changed after rate update: %+v", stored)
	}

	status := fmt.Sprintf("/admin/invoices/%d/status", inv.ID)
	s.expect(s.do(http.MethodPatch, status, s.admin, map[string]string{"status": "paid"}), http.StatusConflict, nil)
	s.expect(s.do(http.MethodPatch, status, s.admin, map[string]string{"status": "sent"}), http.StatusOK, nil)
	var paid InvoiceResponse
	s.expect(s.do(http.MethodPatch, status, s.admin, map[string]string{"status": "paid"}), http.StatusOK, &paid)
	if paid.PaidDate == "" {
		t.Error("expected paid date")
	}

	resp := s.do(http.MethodGet, fmt.Sprintf("/admin/invoices/%d/pdf", inv.ID), s.admin, nil)
	pdf, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("expected pdf, got %d", resp.StatusCode)
	}

	// Invoiced timesheets cannot be deleted
	s.expect(s.do(http.MethodDelete, fmt.Sprintf("/timesheets/%d", w1.ID), s.admin, nil), http.StatusConflict, nil)
}

func TestAggregatePagination(t *testing.T) {
	s := newTestServer(t)
	s.setRate("25")

	// Three approved weeks: two bi-weekly periods, two months
	for _, start := range []string{"2024-01-22", "2024-01-29", "2024-02-05"} {
		ts := s.createWeek(start, 8, 8)
		s.expect(s.do(http.MethodPatch, fmt.Sprintf("/admin/timesheets/%d/approve", ts.ID), s.admin, nil), http.StatusOK, nil)
	}

	var periods biWeeklyPage
	s.expect(s.do(http.MethodGet, "/admin/biweekly-timesheets?page=2&perPage=1", s.admin, nil), http.StatusOK, &periods)
	if periods.Total != 2 || periods.Page != 2 || periods.PerPage != 1 || len(periods.Items) != 1 {
		t.Fatalf("unexpected bi-weekly page %+v", periods)
	}
	if periods.Items[0].PeriodStart != "2024-02-05" || !periods.Items[0].Partial {
		t.Errorf("expected the partial February period, got %+v", periods.Items[0])
	}

	s.expect(s.do(http.MethodGet, "/admin/biweekly-timesheets?page=5&perPage=1", s.admin, nil), http.StatusOK, &periods)
	if periods.Total != 2 || len(periods.Items) != 0 {
		t.Errorf("expected empty page 5, got %+v", periods)
	}

	var months monthlyPage
	s.expect(s.do(http.MethodGet, "/admin/monthly-timesheets?page=1&perPage=1", s.admin, nil), http.StatusOK, &months)
	if months.Total != 2 || len(months.Items) != 1 || months.Items[0].Month != 1 {
		t.Fatalf("unexpected monthly page %+v", months)
	}

	s.expect(s.do(http.MethodGet, "/admin/monthly-timesheets?page=5&perPage=1", s.admin, nil), http.StatusOK, &months)
	if months.Total != 2 || len(months.Items) != 0 {
		t.Errorf("expected empty page 5, got %+v", months)
	}

	s.expect(s.do(http.MethodGet, "/admin/monthly-timesheets?perPage=0", s.admin, nil), http.StatusBadRequest, nil)
}

func TestMonthlyExport(t *testing.T) {
	s := newTestServer(t)
	s.setRate("25")

	w1 := s.createWeek("2024-01-01", 8, 8)
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/admin/timesheets/%d/approve", w1.ID), s.admin, nil), http.StatusOK, nil)

	resp := s.do(http.MethodGet, "/admin/monthly-timesheets/export?year=2024", s.admin, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != xlsxContentType {
		t.Errorf("unexpected content type %s", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "monthly-timesheets-2024.xlsx") {
		t.Errorf("unexpected disposition %s", resp.Header.Get("Content-Disposition"))
	}
}

func TestCandidateScoping(t *testing.T) {
	s := newTestServer(t)
	s.setRate("25")
	ts := s.createWeek("2024-01-01", 8)

	var other UserResponse
	s.expect(s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "other@example.com", "fullName": "Other", "password": "other-password",
	}), http.StatusCreated, &other)
	token := s.login("other@example.com", "other-password")

	s.expect(s.do(http.MethodGet, fmt.Sprintf("/timesheets/%d", ts.ID), token, nil), http.StatusForbidden, nil)

	var list ListResponse
	s.expect(s.do(http.MethodGet, "/timesheets", token, nil), http.StatusOK, &list)
	if list.Total != 0 {
		t.Errorf("expected empty list for other candidate, got %d", list.Total)
	}

	s.expect(s.do(http.MethodGet, "/billing", token, nil), http.StatusNotFound, nil)

	var billing BillingResponse
	s.expect(s.do(http.MethodGet, "/billing", s.cand, nil), http.StatusOK, &billing)
	if billing.HourlyRate != "25.00" || billing.Currency != "USD" {
		t.Errorf("unexpected billing %+v", billing)
	}
}
