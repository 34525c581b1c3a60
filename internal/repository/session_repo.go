package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"twolaunch/internal/database"
	"twolaunch/internal/models"
)

// StoredSession is a session row as persisted. ExpiresAt is kept raw so the
// caller decides how to treat values it cannot parse.
type StoredSession struct {
	Token     string
	AccountID int64
	ExpiresAt string
	CreatedAt string
}

// SessionRepository handles database operations for bearer sessions
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository. db may be a
// *database.DB or a *database.Tx.
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession stores a new token for accountID
func (r *SessionRepository) CreateSession(ctx context.Context, token string, accountID int64, expiresAt, createdAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (token, reg_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, token, accountID, models.FormatTimestamp(expiresAt), models.FormatTimestamp(createdAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: createdAt.UTC(),
	}, nil
}

// GetSession retrieves a session by token. Sessions whose account no longer
// exists are not returned.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (*StoredSession, error) {
	query := `
		SELECT s.token, s.reg_id, COALESCE(s.expires_at, ''), COALESCE(s.created_at, '')
		FROM sessions s
		JOIN registrations r ON r.id = s.reg_id
		WHERE s.token = ?
	`
	session := &StoredSession{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token,
		&session.AccountID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// DeleteExpiredSessions removes sessions that are expired at now, carry an
// unparsable expiry, or belong to a deleted account. It returns the number removed.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	query := `
		SELECT s.token, COALESCE(s.expires_at, ''), CASE WHEN r.id IS NULL THEN 1 ELSE 0 END
		FROM sessions s
		LEFT JOIN registrations r ON r.id = s.reg_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	var stale []string
	for rows.Next() {
		var token, expiresAt string
		var orphaned int
		if err := rows.Scan(&token, &expiresAt, &orphaned); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan session: %w", err)
		}

		expires, parseErr := models.ParseTimestamp(expiresAt)
		if orphaned == 1 || parseErr != nil || !now.Before(expires) {
			stale = append(stale, token)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	rows.Close()

	if len(stale) == 0 {
		return 0, nil
	}

	var removed int64
	err = database.RunInTx(ctx, r.db, func(tx database.DBTX) error {
		for _, token := range stale {
			result, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
			if err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}
