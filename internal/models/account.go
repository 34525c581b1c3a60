package models

import (
	"strings"
	"time"
)

// Account represents a registered business
type Account struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	CompanyName   string `json:"company_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Plan          string `json:"plan"`
	ContactMethod string `json:"contact_method"`
	Address       string `json:"address"`
	Username      string `json:"username"`
	PasswordHash  string `json:"-"`
	Views         int64  `json:"views"`
	Orders        int64  `json:"orders"`
	CreatedAt     string `json:"created_at"`
}

// AccountSummary is the row shape of the public registrations listing
type AccountSummary struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Plan        string `json:"plan"`
	CreatedAt   string `json:"created_at"`
	Username    string `json:"username"`
	Views       int64  `json:"views"`
	Orders      int64  `json:"orders"`
}

// Registration holds the profile fields supplied when registering
type Registration struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	CompanyName   string `json:"company_name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Plan          string `json:"plan"`
	ContactMethod string `json:"contact_method"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field
func (r Registration) Trimmed() Registration {
	return Registration{
		FirstName:     strings.TrimSpace(r.FirstName),
		LastName:      strings.TrimSpace(r.LastName),
		CompanyName:   strings.TrimSpace(r.CompanyName),
		Phone:         strings.TrimSpace(r.Phone),
		Email:         strings.TrimSpace(r.Email),
		Address:       strings.TrimSpace(r.Address),
		Plan:          strings.TrimSpace(r.Plan),
		ContactMethod: strings.TrimSpace(r.ContactMethod),
	}
}

// Metrics are derived from an account's stored counters
type Metrics struct {
	Views          int64   `json:"views"`
	Orders         int64   `json:"orders"`
	ConversionRate float64 `json:"conversion_rate"`
	DaysOnline     int     `json:"days_online"`
}

// legacyTimestampLayout is what older rows were written with: no zone, implicitly UTC
const legacyTimestampLayout = "2006-01-02T15:04:05.999999999"

// FormatTimestamp renders t as an ISO-8601 UTC string for storage
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a stored timestamp, accepting zoned and zone-less forms
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(legacyTimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
