package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/service"
)

// reservedHours is rendered for overtime and leave columns that are not tracked
const reservedHours = "0.00"

// merge copies field errors from err into verr; anything else lands on fallback
func merge(verr *domain.ValidationError, fallback string, err error) {
	if err == nil {
		return
	}
	var fe *domain.ValidationError
	if errors.As(err, &fe) {
		for k, v := range fe.Fields {
			verr.Add(k, v)
		}
		return
	}
	verr.Add(fallback, err.Error())
}

// Requests

type DayHoursPayload struct {
	MondayHours    decimal.Decimal `json:"mondayHours"`
	TuesdayHours   decimal.Decimal `json:"tuesdayHours"`
	WednesdayHours decimal.Decimal `json:"wednesdayHours"`
	ThursdayHours  decimal.Decimal `json:"thursdayHours"`
	FridayHours    decimal.Decimal `json:"fridayHours"`
	SaturdayHours  decimal.Decimal `json:"saturdayHours"`
	SundayHours    decimal.Decimal `json:"sundayHours"`
}

func (p DayHoursPayload) toDomain() domain.DayHours {
	return domain.DayHours{
		Monday:    p.MondayHours,
		Tuesday:   p.TuesdayHours,
		Wednesday: p.WednesdayHours,
		Thursday:  p.ThursdayHours,
		Friday:    p.FridayHours,
		Saturday:  p.SaturdayHours,
		Sunday:    p.SundayHours,
	}
}

type CreateTimesheetRequest struct {
	CandidateID   int64  `json:"candidateId"`
	WeekStartDate string `json:"weekStartDate"`
	WeekEndDate   string `json:"weekEndDate"`
	DayHoursPayload
	Notes  string `json:"notes"`
	Status string `json:"status"`

	weekStart time.Time
	status    domain.TimesheetStatus
}

// CreateTimesheetRequest satisfies [render.Binder]
func (req *CreateTimesheetRequest) Bind(r *http.Request) error {
	verr := &domain.ValidationError{}

	start, err := domain.ParseWeekStart(req.WeekStartDate)
	merge(verr, "weekStartDate", err)
	req.weekStart = start

	if req.WeekEndDate != "" && err == nil {
		end, err := time.Parse(domain.DateLayout, strings.TrimSpace(req.WeekEndDate))
		if err != nil || !end.Equal(start.AddDate(0, 0, 6)) {
			verr.Add("weekEndDate", "week end date must be the Sunday after weekStartDate")
		}
	}

	if req.Status != "" {
		status, err := domain.ParseTimesheetStatus(req.Status)
		merge(verr, "status", err)
		req.status = status
	}

	return verr.OrNil()
}

func (req *CreateTimesheetRequest) input() service.CreateTimesheetInput {
	return service.CreateTimesheetInput{
		CandidateID:   req.CandidateID,
		WeekStartDate: req.weekStart,
		Hours:         req.toDomain(),
		Notes:         req.Notes,
		Status:        req.status,
	}
}

type UpdateTimesheetRequest struct {
	DayHoursPayload
	Notes *string `json:"notes"`
}

func (req *UpdateTimesheetRequest) Bind(r *http.Request) error {
	return nil
}

type RejectRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

func (req *RejectRequest) Bind(r *http.Request) error {
	if strings.TrimSpace(req.RejectionReason) == "" {
		return domain.NewValidationError("rejectionReason", "rejection reason is required")
	}
	return nil
}

type RevertRequest struct {
	Reason string `json:"reason"`
}

func (req *RevertRequest) Bind(r *http.Request) error {
	return nil
}

type GenerateInvoiceRequest struct {
	TimesheetID int64 `json:"timesheetId"`
}

func (req *GenerateInvoiceRequest) Bind(r *http.Request) error {
	if req.TimesheetID <= 0 {
		return domain.NewValidationError("timesheetId", "timesheet id is required")
	}
	return nil
}

type InvoiceStatusRequest struct {
	Status string `json:"status"`

	status domain.InvoiceStatus
}

func (req *InvoiceStatusRequest) Bind(r *http.Request) error {
	status, err := domain.ParseInvoiceStatus(req.Status)
	if err != nil {
		return err
	}
	req.status = status
	return nil
}

type BillingRequest struct {
	HourlyRate         decimal.Decimal `json:"hourlyRate"`
	PayRate            decimal.Decimal `json:"payRate"`
	WorkingDaysPerWeek int             `json:"workingDaysPerWeek"`
	Currency           string          `json:"currency"`
	EmploymentType     string          `json:"employmentType"`
}

func (req *BillingRequest) Bind(r *http.Request) error {
	if req.HourlyRate.IsZero() {
		return domain.NewValidationError("hourlyRate", "hourly rate is required")
	}
	return nil
}

func (req *BillingRequest) input() service.BillingInput {
	return service.BillingInput{
		HourlyRate:         req.HourlyRate,
		PayRate:            req.PayRate,
		WorkingDaysPerWeek: req.WorkingDaysPerWeek,
		Currency:           strings.ToUpper(strings.TrimSpace(req.Currency)),
		EmploymentType:     domain.EmploymentType(strings.ToLower(strings.TrimSpace(req.EmploymentType))),
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

func (req *RegisterRequest) Bind(r *http.Request) error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(req.Email) == "" {
		verr.Add("email", "email is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		verr.Add("fullName", "full name is required")
	}
	if req.Password == "" {
		verr.Add("password", "password is required")
	}
	return verr.OrNil()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Bind(r *http.Request) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return domain.NewValidationError("email", "email and password are required")
	}
	return nil
}

// Responses

type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type TimesheetResponse struct {
	ID                int64      `json:"id"`
	CandidateID       int64      `json:"candidateId"`
	WeekStartDate     string     `json:"weekStartDate"`
	WeekEndDate       string     `json:"weekEndDate"`
	MondayHours       string     `json:"mondayHours"`
	TuesdayHours      string     `json:"tuesdayHours"`
	WednesdayHours    string     `json:"wednesdayHours"`
	ThursdayHours     string     `json:"thursdayHours"`
	FridayHours       string     `json:"fridayHours"`
	SaturdayHours     string     `json:"saturdayHours"`
	SundayHours       string     `json:"sundayHours"`
	TotalWeeklyHours  string     `json:"totalWeeklyHours"`
	HourlyRate        string     `json:"hourlyRate"`
	TotalWeeklyAmount string     `json:"totalWeeklyAmount"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	SubmittedAt       *time.Time `json:"submittedAt,omitempty"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy        *int64     `json:"approvedBy,omitempty"`
	WeekPosition      string     `json:"weekPosition"`
	DeadlinePassed    bool       `json:"deadlinePassed"`
	Locked            bool       `json:"locked"`
	OvertimeHours     string     `json:"overtimeHours"`
	SickLeaveHours    string     `json:"sickLeaveHours"`
	PaidLeaveHours    string     `json:"paidLeaveHours"`
	UnpaidLeaveHours  string     `json:"unpaidLeaveHours"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func newTimesheetResponse(ts *domain.WeeklyTimesheet, today time.Time) *TimesheetResponse {
	if ts == nil {
		return nil
	}
	return &TimesheetResponse{
		ID:                ts.ID,
		CandidateID:       ts.CandidateID,
		WeekStartDate:     ts.WeekStartDate.Format(domain.DateLayout),
		WeekEndDate:       ts.WeekEndDate.Format(domain.DateLayout),
		MondayHours:       ts.Hours.Monday.StringFixed(2),
		TuesdayHours:      ts.Hours.Tuesday.StringFixed(2),
		WednesdayHours:    ts.Hours.Wednesday.StringFixed(2),
		ThursdayHours:     ts.Hours.Thursday.StringFixed(2),
		FridayHours:       ts.Hours.Friday.StringFixed(2),
		SaturdayHours:     ts.Hours.Saturday.StringFixed(2),
		SundayHours:       ts.Hours.Sunday.StringFixed(2),
		TotalWeeklyHours:  ts.TotalWeeklyHours.StringFixed(2),
		HourlyRate:        ts.HourlyRate.StringFixed(2),
		TotalWeeklyAmount: ts.TotalWeeklyAmount.StringFixed(2),
		Currency:          ts.Currency,
		Status:            string(ts.Status),
		RejectionReason:   ts.RejectionReason,
		Notes:             ts.Notes,
		SubmittedAt:       ts.SubmittedAt,
		ApprovedAt:        ts.ApprovedAt,
		ApprovedBy:        ts.ApprovedBy,
		WeekPosition:      string(ts.Position(today)),
		DeadlinePassed:    ts.DeadlinePassed(today),
		Locked:            ts.IsApproved(),
		OvertimeHours:     reservedHours,
		SickLeaveHours:    reservedHours,
		PaidLeaveHours:    reservedHours,
		UnpaidLeaveHours:  reservedHours,
		CreatedAt:         ts.CreatedAt,
		UpdatedAt:         ts.UpdatedAt,
	}
}

func newTimesheetList(rows []*domain.WeeklyTimesheet, today time.Time) []*TimesheetResponse {
	out := make([]*TimesheetResponse, 0, len(rows))
	for _, ts := range rows {
		out = append(out, newTimesheetResponse(ts, today))
	}
	return out
}

type HistoryResponse struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actorId"`
	Action    string    `json:"action"`
	FieldName string    `json:"fieldName,omitempty"`
	OldValue  string    `json:"oldValue,omitempty"`
	NewValue  string    `json:"newValue,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

func newHistoryList(rows []*domain.TimesheetHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, HistoryResponse{
			ID:        h.ID,
			ActorID:   h.ActorID,
			Action:    string(h.Action),
			FieldName: h.FieldName,
			OldValue:  h.OldValue,
			NewValue:  h.NewValue,
			Reason:    h.Reason,
			ChangedAt: h.ChangedAt,
		})
	}
	return out
}

type BiWeeklyResponse struct {
	CandidateID int64              `json:"candidateId"`
	PeriodStart string             `json:"periodStart"`
	PeriodEnd   string             `json:"periodEnd"`
	Week1       *TimesheetResponse `json:"week1"`
	Week2       *TimesheetResponse `json:"week2"`
	Partial     bool               `json:"partial"`
	TotalHours  string             `json:"totalHours"`
	TotalAmount string             `json:"totalAmount"`
	Currency    string             `json:"currency"`
}

func newBiWeeklyList(periods []*domain.BiWeeklyPeriod, today time.Time) []BiWeeklyResponse {
	out := make([]BiWeeklyResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, BiWeeklyResponse{
			CandidateID: p.CandidateID,
			PeriodStart: p.PeriodStart.Format(domain.DateLayout),
			PeriodEnd:   p.PeriodEnd.Format(domain.DateLayout),
			Week1:       newTimesheetResponse(p.Week1, today),
			Week2:       newTimesheetResponse(p.Week2, today),
			Partial:     p.IsPartial(),
			TotalHours:  p.TotalHours.StringFixed(2),
			TotalAmount: p.TotalAmount.StringFixed(2),
			Currency:    p.Currency,
		})
	}
	return out
}

type MonthlyResponse struct {
	CandidateID          int64                `json:"candidateId"`
	Year                 int                  `json:"year"`
	Month                int                  `json:"month"`
	MonthName            string               `json:"monthName"`
	Weeks                []*TimesheetResponse `json:"weeks"`
	TotalWeeks           int                  `json:"totalWeeks"`
	TotalHours           string               `json:"totalHours"`
	TotalAmount          string               `json:"totalAmount"`
	AverageHoursPerWeek  string               `json:"averageHoursPerWeek"`
	AverageAmountPerWeek string               `json:"averageAmountPerWeek"`
	Currency             string               `json:"currency"`
}

func newMonthlyList(periods []*domain.MonthlyPeriod, today time.Time) []MonthlyResponse {
	out := make([]MonthlyResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, MonthlyResponse{
			CandidateID:          p.CandidateID,
			Year:                 p.Year,
			Month:                int(p.Month),
			MonthName:            p.Month.String(),
			Weeks:                newTimesheetList(p.Weeks, today),
			TotalWeeks:           p.TotalWeeks,
			TotalHours:           p.TotalHours.StringFixed(2),
			TotalAmount:          p.TotalAmount.StringFixed(2),
			AverageHoursPerWeek:  p.AverageHoursPerWeek.StringFixed(2),
			AverageAmountPerWeek: p.AverageAmountPerWeek.StringFixed(2),
			Currency:             p.Currency,
		})
	}
	return out
}

type BillingResponse struct {
	ID                 int64     `json:"id"`
	CandidateID        int64     `json:"candidateId"`
	HourlyRate         string    `json:"hourlyRate"`
	PayRate            string    `json:"payRate"`
	WorkingDaysPerWeek int       `json:"workingDaysPerWeek"`
	Currency           string    `json:"currency"`
	EmploymentType     string    `json:"employmentType"`
	IsActive           bool      `json:"isActive"`
	EffectiveFrom      time.Time `json:"effectiveFrom"`
}

func newBillingResponse(b *domain.BillingConfig) BillingResponse {
	return BillingResponse{
		ID:                 b.ID,
		CandidateID:        b.CandidateID,
		HourlyRate:         b.HourlyRate.StringFixed(2),
		PayRate:            b.PayRate.StringFixed(2),
		WorkingDaysPerWeek: b.WorkingDaysPerWeek,
		Currency:           b.Currency,
		EmploymentType:     string(b.EmploymentType),
		IsActive:           b.IsActive,
		EffectiveFrom:      b.EffectiveFrom,
	}
}

type InvoiceResponse struct {
	ID            int64         `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	CandidateID   int64         `json:"candidateId"`
	TimesheetID   int64         `json:"timesheetId"`
	PeriodStart   string        `json:"periodStart"`
	PeriodEnd     string        `json:"periodEnd"`
	TotalHours    string        `json:"totalHours"`
	HourlyRate    string        `json:"hourlyRate"`
	TotalAmount   string        `json:"totalAmount"`
	Currency      string        `json:"currency"`
	Status        string        `json:"status"`
	IssuedDate    string        `json:"issuedDate"`
	DueDate       string        `json:"dueDate"`
	PaidDate      string        `json:"paidDate,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Candidate     *UserResponse `json:"candidate,omitempty"`
}

func newInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CandidateID:   inv.CandidateID,
		TimesheetID:   inv.TimesheetID,
		PeriodStart:   inv.PeriodStart.Format(domain.DateLayout),
		PeriodEnd:     inv.PeriodEnd.Format(domain.DateLayout),
		TotalHours:    inv.TotalHours.StringFixed(2),
		HourlyRate:    inv.HourlyRate.StringFixed(2),
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		Currency:      inv.Currency,
		Status:        string(inv.Status),
		IssuedDate:    inv.IssuedDate.Format(domain.DateLayout),
		DueDate:       inv.DueDate.Format(domain.DateLayout),
		Notes:         inv.Notes,
	}
	if inv.PaidDate != nil {
		resp.PaidDate = inv.PaidDate.Format(domain.DateLayout)
	}
	if inv.Candidate != nil {
		u := newUserResponse(inv.Candidate)
		resp.Candidate = &u
	}
	return resp
}

type RevenueResponse struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Currency string `json:"currency"`
	Hours    string `json:"hours"`
	Amount   string `json:"amount"`
	Margin   string `json:"margin"`
}

type DashboardResponse struct {
	Currency                string            `json:"currency"`
	ActiveCandidates        int               `json:"activeCandidates"`
	TimesheetsByStatus      map[string]int    `json:"timesheetsByStatus"`
	PendingReview           int               `json:"pendingReview"`
	ApprovedHoursThisMonth  string            `json:"approvedHoursThisMonth"`
	ApprovedAmountThisMonth string            `json:"approvedAmountThisMonth"`
	MarginThisMonth         string            `json:"marginThisMonth"`
	ProfitMarginPercent     string            `json:"profitMarginPercent"`
	InvoicesByStatus        map[string]int    `json:"invoicesByStatus"`
	OutstandingInvoiceTotal string            `json:"outstandingInvoiceTotal"`
	RevenueByMonth          []RevenueResponse `json:"revenueByMonth"`
}

func newDashboardResponse(d *domain.DashboardSummary) DashboardResponse {
	resp := DashboardResponse{
		Currency:                d.Currency,
		ActiveCandidates:        d.ActiveCandidates,
		TimesheetsByStatus:      make(map[string]int, len(d.TimesheetsByStatus)),
		PendingReview:           d.PendingReview(),
		ApprovedHoursThisMonth:  d.ApprovedHoursThisMonth.StringFixed(2),
		ApprovedAmountThisMonth: d.ApprovedAmountThisMonth.StringFixed(2),
		MarginThisMonth:         d.MarginThisMonth.StringFixed(2),
		ProfitMarginPercent:     d.ProfitMarginPercent.StringFixed(2),
		InvoicesByStatus:        make(map[string]int, len(d.InvoicesByStatus)),
		OutstandingInvoiceTotal: d.OutstandingInvoiceTotal.StringFixed(2),
		RevenueByMonth:          make([]RevenueResponse, 0, len(d.RevenueByMonth)),
	}
	for k, v := range d.TimesheetsByStatus {
		resp.TimesheetsByStatus[string(k)] = v
	}
	for k, v := range d.InvoicesByStatus {
		resp.InvoicesByStatus[string(k)] = v
	}
	for _, m := range d.RevenueByMonth {
		resp.RevenueByMonth = append(resp.RevenueByMonth, RevenueResponse{
			Year:     m.Year,
			Month:    int(m.Month),
			Currency: m.Currency,
			Hours:    m.Hours.StringFixed(2),
			Amount:   m.Amount.StringFixed(2),
			Margin:   m.Margin.StringFixed(2),
		})
	}
	return resp
}

// ListResponse wraps a page of results
type ListResponse struct {
	Items   interface{} `json:"items"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"perPage"`
}
