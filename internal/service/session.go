package service

import (
	"context"
	"fmt"
	"time"

	"twolaunch/internal/models"
	"twolaunch/internal/repository"
	"twolaunch/internal/security"
)

// DefaultSessionDuration is how long a login token stays valid
const DefaultSessionDuration = 7 * 24 * time.Hour

// SessionStore persists bearer sessions
type SessionStore interface {
	CreateSession(ctx context.Context, token string, accountID int64, expiresAt, createdAt time.Time) (*models.Session, error)
	GetSession(ctx context.Context, token string) (*repository.StoredSession, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionManager issues and validates time-limited bearer tokens
type SessionManager struct {
	store    SessionStore
	duration time.Duration
	now      func() time.Time
}

// NewSessionManager creates a session manager using the wall clock
func NewSessionManager(store SessionStore, duration time.Duration) *SessionManager {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &SessionManager{
		store:    store,
		duration: duration,
		now:      time.Now,
	}
}

// SetClock replaces the time source
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}

// Create issues a fresh token for accountID
func (m *SessionManager) Create(ctx context.Context, accountID int64) (*models.Session, error) {
	token, err := security.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	session, err := m.store.CreateSession(ctx, token, accountID, now.Add(m.duration), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Validate returns the account bound to token. Unknown tokens, unreadable
// expiry values and expired sessions all yield ErrInvalidSession. Nothing is
// written.
func (m *SessionManager) Validate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidSession
	}

	stored, err := m.store.GetSession(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("failed to validate session: %w", err)
	}
	if stored == nil {
		return 0, ErrInvalidSession
	}

	expiresAt, err := models.ParseTimestamp(stored.ExpiresAt)
	if err != nil {
		return 0, ErrInvalidSession
	}

	session := models.Session{Token: stored.Token, AccountID: stored.AccountID, ExpiresAt: expiresAt}
	if !session.IsValidAt(m.now()) {
		return 0, ErrInvalidSession
	}

	return session.AccountID, nil
}

// PruneExpired deletes sessions that can no longer validate
func (m *SessionManager) PruneExpired(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpiredSessions(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return n, nil
}
