package validation

import (
	"fmt"
	"regexp"
	"strings"

	"twolaunch/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired fails when value is empty after trimming
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// ValidateRegistration checks that every registration field is filled in.
// The first missing field is reported.
func ValidateRegistration(reg models.Registration) error {
	fields := []struct {
		name  string
		value string
	}{
		{"first_name", reg.FirstName},
		{"last_name", reg.LastName},
		{"company_name", reg.CompanyName},
		{"phone", reg.Phone},
		{"email", reg.Email},
		{"address", reg.Address},
		{"plan", reg.Plan},
		{"contact_method", reg.ContactMethod},
	}

	for _, f := range fields {
		if err := ValidateRequired(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLogin checks that both login credentials are present
func ValidateLogin(username, password string) error {
	if err := ValidateRequired("username", username); err != nil {
		return err
	}
	return ValidateRequired("password", password)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateOutboundEmail checks a message submitted for sending
func ValidateOutboundEmail(to, subject, body string) error {
	if err := ValidateEmail(to); err != nil {
		return err
	}
	if err := ValidateRequired("subject", subject); err != nil {
		return err
	}
	return ValidateRequired("body", body)
}
