package models

import "time"

// Session binds a bearer token to an account until it expires.
// There is no revoked state; a session ends only by expiry.
type Session struct {
	Token     string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsValidAt reports whether the session is still live at now.
// Expiry is exclusive: a session expiring exactly at now is invalid.
func (s *Session) IsValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
