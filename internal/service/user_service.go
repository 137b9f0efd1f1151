package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andy/talentsink/internal/auth"
	"github.com/andy/talentsink/internal/domain"
	"github.com/andy/talentsink/internal/notify"
	"github.com/andy/talentsink/internal/repository"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	ErrAdminOnly          = fmt.Errorf("%w: admin access required", domain.ErrForbidden)
	ErrNotOwner           = fmt.Errorf("%w: not your timesheet", domain.ErrForbidden)
)

// requireAdmin rejects non-admin actors
func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// UserService manages accounts and sessions
type UserService interface {
	// Register creates a candidate account
	Register(ctx context.Context, email, fullName, password string) (*domain.User, error)

	// CreateAdmin creates an admin account (bootstrap from the CLI)
	CreateAdmin(ctx context.Context, email, fullName, password string) (*domain.User, error)

	// Login verifies credentials and issues a session token
	Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error)

	// Logout revokes a session
	Logout(ctx context.Context, session *auth.Session)

	// Authenticate resolves a session token into an actor
	Authenticate(ctx context.Context, token string) (*auth.Session, error)

	// GetUser retrieves a user; candidates may only read themselves
	GetUser(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error)

	// GetByEmail looks up a user by email (CLI use)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListCandidates lists candidate accounts (admin)
	ListCandidates(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	notifier *notify.Dispatcher
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenManager, notifier *notify.Dispatcher) UserService {
	return &userService{
		userRepo: userRepo,
		tokens:   tokens,
		notifier: notifier,
	}
}

func (s *userService) Register(ctx context.Context, email, fullName, password string) (*domain.User, error) {
	user, err := s.create(ctx, email, fullName, password, domain.RoleCandidate)
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(notify.Welcome(user))
	return user, nil
}

func (s *userService) CreateAdmin(ctx context.Context, email, fullName, password string) (*domain.User, error) {
	return s.create(ctx, email, fullName, password, domain.RoleAdmin)
}

func (s *userService) create(ctx context.Context, email, fullName, password string, role domain.Role) (*domain.User, error) {
	user := domain.NewUser(email, fullName, role)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}

	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.notifier.Dispatch(notify.LoginAlert(user))
	return user, token, expires, nil
}

func (s *userService) Logout(ctx context.Context, session *auth.Session) {
	if session == nil {
		return
	}
	s.tokens.Revoke(session.TokenID, session.ExpiresAt)
}

func (s *userService) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	session, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	// Deactivated accounts lose access before their token expires
	user, err := s.userRepo.GetByID(ctx, session.Actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive || user.Role != session.Actor.Role {
		return nil, auth.ErrInvalidToken
	}
	return session, nil
}

func (s *userService) GetUser(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error) {
	if !actor.IsAdmin() && !actor.Owns(id) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrForbidden)
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

func (s *userService) ListCandidates(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role := domain.RoleCandidate
	return s.userRepo.List(ctx, &role)
}
