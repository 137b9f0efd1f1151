package domain

import (
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin returns true if the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns returns true if the actor is the given candidate
func (a Actor) Owns(candidateID int64) bool {
	return a.UserID == candidateID
}

type User struct {
	ID           int64
	Email        string
	FullName     string
	Role         Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates an active user with a normalized email
func NewUser(email, fullName string, role Role) *User {
	now := time.Now()
	return &User{
		Email:     NormalizeEmail(email),
		FullName:  strings.TrimSpace(fullName),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Actor returns the request identity for this user
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func (u *User) Validate() error {
	verr := &ValidationError{}
	if u.Email == "" {
		verr.Add("email", "email is required")
	} else if _, err := mail.ParseAddress(u.Email); err != nil {
		verr.Add("email", "email is invalid")
	}
	if u.FullName == "" {
		verr.Add("fullName", "full name is required")
	}
	if u.Role != RoleAdmin && u.Role != RoleCandidate {
		verr.Add("role", "role must be admin or candidate")
	}
	return verr.OrNil()
}
