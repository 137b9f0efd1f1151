package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/notify"
	"github.com/andy/talentsink/internal/repository"
)

// CreateTimesheetInput is what a caller supplies to create a week. Totals are
// always computed server-side.
type CreateTimesheetInput struct {
	CandidateID   int64 // admin only; candidates always create for themselves
	WeekStartDate time.Time
	Hours         domain.DayHours
	Notes         string
	Status        domain.TimesheetStatus // draft or submitted; empty means submitted
}

type UpdateTimesheetInput struct {
	Hours domain.DayHours
	Notes *string
}

// TimesheetQuery filters timesheet listings
type TimesheetQuery struct {
	CandidateID *int64
	Status      *domain.TimesheetStatus
	From        *time.Time
	To          *time.Time
	Page        repository.Page
}

// TimesheetService owns the weekly timesheet status machine
type TimesheetService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateTimesheetInput) (*domain.WeeklyTimesheet, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.WeeklyTimesheet, error)
	List(ctx context.Context, actor domain.Actor, q TimesheetQuery) ([]*domain.WeeklyTimesheet, int, error)
	Update(ctx context.Context, actor domain.Actor, id int64, in UpdateTimesheetInput) (*domain.WeeklyTimesheet, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
	Submit(ctx context.Context, actor domain.Actor, id int64) (*domain.WeeklyTimesheet, error)

	// Admin review
	Approve(ctx context.Context, actor domain.Actor, id int64) (*domain.WeeklyTimesheet, error)
	Reject(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.WeeklyTimesheet, error)
	Revert(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.WeeklyTimesheet, error)
	History(ctx context.Context, actor domain.Actor, id int64) ([]*domain.TimesheetHistory, error)
}

type timesheetService struct {
	timesheetRepo   repository.TimesheetRepository
	billingRepo     repository.BillingRepository
	userRepo        repository.UserRepository
	notifier        *notify.Dispatcher
	logger          *slog.Logger
	defaultCurrency string
	now             func() time.Time
}

// NewTimesheetService creates a new timesheet service
func NewTimesheetService(
	timesheetRepo repository.TimesheetRepository,
	billingRepo repository.BillingRepository,
	userRepo repository.UserRepository,
	notifier *notify.Dispatcher,
	logger *slog.Logger,
	defaultCurrency string,
) TimesheetService {
	return &timesheetService{
		timesheetRepo:   timesheetRepo,
		billingRepo:     billingRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		logger:          logger,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// rates resolves the candidate's active config. Without one, hours are valued
// at zero and the default working week applies.
func (s *timesheetService) rates(ctx context.Context, candidateID int64) (*domain.BillingConfig, decimal.Decimal, string, int, error) {
	cfg, err := s.billingRepo.GetActive(ctx, candidateID)
	if err != nil {
		return nil, decimal.Zero, "", 0, err
	}
	if cfg == nil {
		return nil, decimal.Zero, s.defaultCurrency, domain.DefaultWorkingDays, nil
	}
	return cfg, cfg.HourlyRate, cfg.Currency, cfg.WorkingDaysPerWeek, nil
}

func (s *timesheetService) Create(ctx context.Context, actor domain.Actor, in CreateTimesheetInput) (*domain.WeeklyTimesheet, error) {
	candidateID := actor.UserID
	if actor.IsAdmin() {
		if in.CandidateID <= 0 {
			return nil, domain.NewValidationError("candidateId", "candidate is required")
		}
		candidateID = in.CandidateID
	}

	status := in.Status
	if status == "" {
		status = domain.TimesheetStatusSubmitted
	}
	if status != domain.TimesheetStatusDraft && status != domain.TimesheetStatusSubmitted {
		return nil, domain.NewValidationError("status", "status must be draft or submitted")
	}
	if in.WeekStartDate.IsZero() {
		return nil, domain.NewValidationError("weekStartDate", "week start date is required")
	}
	if in.WeekStartDate.Weekday() != time.Monday {
		return nil, domain.NewValidationError("weekStartDate", "week start date must be a Monday")
	}

	cfg, rate, currency, workingDays, err := s.rates(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if status == domain.TimesheetStatusSubmitted && cfg == nil {
		return nil, domain.ErrNoActiveBilling
	}

	ts := domain.NewWeeklyTimesheet(candidateID, in.WeekStartDate, in.Hours)
	ts.Notes = strings.TrimSpace(in.Notes)
	if err := ts.Validate(workingDays); err != nil {
		return nil, err
	}
	ts.Recalculate(rate, currency)

	if status == domain.TimesheetStatusSubmitted {
		if err := ts.Submit(s.now()); err != nil {
			return nil, err
		}
	}

	if err := s.timesheetRepo.Create(ctx, ts, actor.UserID); err != nil {
		return nil, err
	}

	s.logger.Info("timesheet created",
		"timesheet_id", ts.ID,
		"candidate_id", candidateID,
		"week", ts.WeekStartDate.Format(domain.DateLayout),
		"status", ts.Status,
	)
	return ts, nil
}

// load fetches a timesheet and enforces read access
func (s *timesheetService) load(ctx context.Context, actor domain.Actor, id int64) (*domain.WeeklyTimesheet, error) {
	ts, err := s.timesheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(ts.CandidateID) {
		return nil, ErrNotOwner
	}
	return ts, nil
}

func (s *timesheetService) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.WeeklyTimesheet, error) {
	return s.load(ctx, actor, id)
}

func (s *timesheetService) List(ctx context.Context, actor domain.Actor, q TimesheetQuery) ([]*domain.WeeklyTimesheet, int, error) {
	filter := repository.TimesheetFilter{
		CandidateID: q.CandidateID,
		Status:      q.Status,
		From:        q.From,
		To:          q.To,
		Page:        q.Page,
	}
	if !actor.IsAdmin() {
		own := actor.UserID
		filter.CandidateID = &own
	}

	total, err := s.timesheetRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.timesheetRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *timesheetService) Update(ctx context.Context, actor domain.Actor, id int64, in UpdateTimesheetInput) (*domain.WeeklyTimesheet, error) {
	ts, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !ts.CanCandidateModify() {
		return nil, domain.ErrTimesheetLocked
	}

	_, rate, currency, workingDays, err := s.rates(ctx, ts.CandidateID)
	if err != nil {
		return nil, err
	}

	ts.Hours = in.Hours
	if in.Notes != nil {
		ts.Notes = strings.TrimSpace(*in.Notes)
	}
	if err := ts.Validate(workingDays); err != nil {
		return nil, err
	}
	ts.Recalculate(rate, currency)

	reason := ""
	if actor.IsAdmin() {
		reason = "admin edit"
	}
	if err := s.timesheetRepo.Update(ctx, ts, actor.UserID, domain.ActionUpdate, reason); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *timesheetService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	ts, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !ts.CanCandidateModify() {
		return domain.ErrTimesheetLocked
	}

	reason := ""
	if actor.IsAdmin() {
		reason = "admin delete"
	}
	if err := s.timesheetRepo.Delete(ctx, id, actor.UserID, reason); err != nil {
		return err
	}

	s.logger.Info("timesheet deleted", "timesheet_id", id, "actor_id", actor.UserID, "status", ts.Status)
	return nil
}

func (s *timesheetService) Submit(ctx context.Context, actor domain.Actor, id int64) (*domain.WeeklyTimesheet, error) {
	ts, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	cfg, rate, currency, workingDays, err := s.rates(ctx, ts.CandidateID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNoActiveBilling
	}
	if err := ts.Validate(workingDays); err != nil {
		return nil, err
	}

	if err := ts.Submit(s.now()); err != nil {
		if !actor.IsAdmin() && ts.IsApproved() {
			return nil, domain.ErrTimesheetLocked
		}
		return nil, err
	}
	ts.Recalculate(rate, currency)

	if err := s.timesheetRepo.Update(ctx, ts, actor.UserID, domain.ActionSubmit, ""); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *timesheetService) Approve(ctx context.Context, actor domain.Actor, id int64) (*domain.WeeklyTimesheet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ts, err := s.timesheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ts.Approve(actor.UserID, s.now()); err != nil {
		return nil, err
	}
	if err := s.timesheetRepo.Update(ctx, ts, actor.UserID, domain.ActionApprove, ""); err != nil {
		return nil, err
	}

	s.statusChanged(ctx, ts)
	return ts, nil
}

func (s *timesheetService) Reject(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.WeeklyTimesheet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ts, err := s.timesheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ts.Reject(reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.timesheetRepo.Update(ctx, ts, actor.UserID, domain.ActionReject, ts.RejectionReason); err != nil {
		return nil, err
	}

	s.statusChanged(ctx, ts)
	return ts, nil
}

func (s *timesheetService) Revert(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.WeeklyTimesheet, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ts, err := s.timesheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ts.Revert(s.now()); err != nil {
		return nil, err
	}
	if err := s.timesheetRepo.Update(ctx, ts, actor.UserID, domain.ActionRevert, strings.TrimSpace(reason)); err != nil {
		return nil, err
	}

	s.statusChanged(ctx, ts)
	return ts, nil
}

func (s *timesheetService) History(ctx context.Context, actor domain.Actor, id int64) ([]*domain.TimesheetHistory, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.timesheetRepo.GetHistory(ctx, id)
}

// statusChanged logs the transition and emails the candidate
func (s *timesheetService) statusChanged(ctx context.Context, ts *domain.WeeklyTimesheet) {
	s.logger.Info("timesheet status changed",
		"timesheet_id", ts.ID,
		"candidate_id", ts.CandidateID,
		"status", ts.Status,
	)

	candidate, err := s.userRepo.GetByID(ctx, ts.CandidateID)
	if err != nil {
		s.logger.Warn("cannot notify candidate", "candidate_id", ts.CandidateID, "error", err)
		return
	}
	s.notifier.Dispatch(notify.TimesheetStatus(candidate, ts))
}
