package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twolaunch/internal/models"
	"twolaunch/internal/repository"
)

type memorySessionStore struct {
	sessions map[string]*repository.StoredSession
	err      error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]*repository.StoredSession)}
}

func (s *memorySessionStore) CreateSession(ctx context.Context, token string, accountID int64, expiresAt, createdAt time.Time) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sessions[token] = &repository.StoredSession{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: models.FormatTimestamp(expiresAt),
		CreatedAt: models.FormatTimestamp(createdAt),
	}
	return &models.Session{Token: token, AccountID: accountID, ExpiresAt: expiresAt, CreatedAt: createdAt}, nil
}

func (s *memorySessionStore) GetSession(ctx context.Context, token string) (*repository.StoredSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions[token], nil
}

func (s *memorySessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for token, stored := range s.sessions {
		expires, err := models.ParseTimestamp(stored.ExpiresAt)
		if err != nil || !now.Before(expires) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSessionManager(store SessionStore) (*SessionManager, *testClock) {
	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewSessionManager(store, DefaultSessionDuration)
	m.SetClock(clock.Now)
	return m, clock
}

func TestSessionManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestSessionManager(newMemorySessionStore())

	session, err := m.Create(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.AccountID)
	assert.Equal(t, clock.now.Add(7*24*time.Hour), session.ExpiresAt)
	assert.NotEmpty(t, session.Token)

	// Valid immediately after issuance
	id, err := m.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// Still valid one second before expiry
	clock.Advance(7*24*time.Hour - time.Second)
	id, err = m.Validate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// Invalid exactly at expiry
	clock.Advance(time.Second)
	_, err = m.Validate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// And never valid again
	clock.Advance(time.Hour)
	_, err = m.Validate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionManagerTokensAreNotReused(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestSessionManager(newMemorySessionStore())

	first, err := m.Create(ctx, 1)
	require.NoError(t, err)
	second, err := m.Create(ctx, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	// Both stay live at once
	for _, token := range []string{first.Token, second.Token} {
		id, err := m.Validate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	}
}

func TestSessionManagerValidateRejects(t *testing.T) {
	ctx := context.Background()
	store := newMemorySessionStore()
	store.sessions["garbled"] = &repository.StoredSession{Token: "garbled", AccountID: 7, ExpiresAt: "next tuesday"}
	store.sessions["blank"] = &repository.StoredSession{Token: "blank", AccountID: 7, ExpiresAt: ""}
	store.sessions["legacy"] = &repository.StoredSession{Token: "legacy", AccountID: 7, ExpiresAt: "2025-03-08T12:00:00.000001"}
	m, _ := newTestSessionManager(store)

	tests := []struct {
		name    string
		token   string
		wantID  int64
		wantErr error
	}{
		{name: "empty token", token: "", wantErr: ErrInvalidSession},
		{name: "unknown token", token: "missing", wantErr: ErrInvalidSession},
		{name: "unparsable expiry", token: "garbled", wantErr: ErrInvalidSession},
		{name: "blank expiry", token: "blank", wantErr: ErrInvalidSession},
		{name: "legacy zone-less expiry", token: "legacy", wantID: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := m.Validate(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestSessionManagerValidateDoesNotDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemorySessionStore()
	m, clock := newTestSessionManager(store)

	session, err := m.Create(ctx, 3)
	require.NoError(t, err)

	clock.Advance(8 * 24 * time.Hour)
	_, err = m.Validate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Contains(t, store.sessions, session.Token)
}

func TestSessionManagerStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemorySessionStore()
	store.err = errors.New("disk full")
	m, _ := newTestSessionManager(store)

	_, err := m.Create(ctx, 1)
	assert.Error(t, err)

	_, err = m.Validate(ctx, "anything")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}

func TestSessionManagerPruneExpired(t *testing.T) {
	ctx := context.Background()
	store := newMemorySessionStore()
	m, clock := newTestSessionManager(store)

	old, err := m.Create(ctx, 1)
	require.NoError(t, err)
	clock.Advance(6 * 24 * time.Hour)
	fresh, err := m.Create(ctx, 1)
	require.NoError(t, err)
	clock.Advance(2 * 24 * time.Hour)

	n, err := m.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, store.sessions, old.Token)
	assert.Contains(t, store.sessions, fresh.Token)
}
