package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/repository"
)

// BillingInput is the admin-supplied billing configuration
type BillingInput struct {
	HourlyRate         decimal.Decimal
	PayRate            decimal.Decimal
	WorkingDaysPerWeek int
	Currency           string
	EmploymentType     domain.EmploymentType
}

// BillingService manages candidate billing configuration
type BillingService interface {
	// SetConfig replaces the candidate's active config (admin)
	SetConfig(ctx context.Context, actor domain.Actor, candidateID int64, in BillingInput) (*domain.BillingConfig, error)

	// GetActive returns the active config or nil; candidates may read their own
	GetActive(ctx context.Context, actor domain.Actor, candidateID int64) (*domain.BillingConfig, error)

	// History lists all configs for a candidate, newest first (admin)
	History(ctx context.Context, actor domain.Actor, candidateID int64) ([]*domain.BillingConfig, error)
}

type billingService struct {
	billingRepo     repository.BillingRepository
	userRepo        repository.UserRepository
	defaultCurrency string
}

// NewBillingService creates a new billing service
func NewBillingService(billingRepo repository.BillingRepository, userRepo repository.UserRepository, defaultCurrency string) BillingService {
	return &billingService{
		billingRepo:     billingRepo,
		userRepo:        userRepo,
		defaultCurrency: defaultCurrency,
	}
}

func (s *billingService) SetConfig(ctx context.Context, actor domain.Actor, candidateID int64, in BillingInput) (*domain.BillingConfig, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	candidate, err := s.userRepo.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.Role != domain.RoleCandidate {
		return nil, domain.NewValidationError("candidateId", "billing applies to candidates only")
	}

	currency := in.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	workingDays := in.WorkingDaysPerWeek
	if workingDays == 0 {
		workingDays = domain.DefaultWorkingDays
	}
	employment := in.EmploymentType
	if employment == "" {
		employment = domain.EmploymentContract
	}

	cfg := domain.NewBillingConfig(candidateID, in.HourlyRate, in.PayRate, workingDays, currency, employment)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := s.billingRepo.Activate(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save billing config: %w", err)
	}
	return cfg, nil
}

func (s *billingService) GetActive(ctx context.Context, actor domain.Actor, candidateID int64) (*domain.BillingConfig, error) {
	if !actor.IsAdmin() && !actor.Owns(candidateID) {
		return nil, fmt.Errorf("billing for candidate %d: %w", candidateID, domain.ErrForbidden)
	}
	return s.billingRepo.GetActive(ctx, candidateID)
}

func (s *billingService) History(ctx context.Context, actor domain.Actor, candidateID int64) ([]*domain.BillingConfig, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.billingRepo.History(ctx, candidateID)
}
