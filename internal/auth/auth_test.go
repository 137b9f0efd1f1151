package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/andy/talentsink/internal/domain"
)

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	user := &domain.User{ID: 42, Role: domain.RoleAdmin}

	token, expires, err := m.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Error("expected future expiry")
	}

	session, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if session.Actor.UserID != 42 || !session.Actor.IsAdmin() {
		t.Errorf("unexpected actor %+v", session.Actor)
	}
}

func TestTokenRejected(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)
	expired := NewTokenManager("test-secret", -time.Minute)
	user := &domain.User{ID: 1, Role: domain.RoleCandidate}

	foreign, _, _ := other.Issue(user)
	if _, err := m.Parse(foreign); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected foreign token to be rejected, got %v", err)
	}

	old, _, _ := expired.Issue(user)
	if _, err := m.Parse(old); !IsInvalidToken(err) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}

	if _, err := m.Parse("not-a-token"); !IsInvalidToken(err) {
		t.Errorf("expected garbage to be rejected, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	token, _, _ := m.Issue(&domain.User{ID: 1, Role: domain.RoleCandidate})

	session, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m.Revoke(session.TokenID, session.ExpiresAt)

	if _, err := m.Parse(token); !IsInvalidToken(err) {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}
}
