package validation

import (
	"errors"
	"testing"

	"twolaunch/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func validRegistration() models.Registration {
	return models.Registration{
		FirstName:     "Jana",
		LastName:      "Novak",
		CompanyName:   "Acme Corp",
		Phone:         "+421900000000",
		Email:         "jana@example.com",
		Address:       "Main 1, Bratislava",
		Plan:          "basic",
		ContactMethod: "email",
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *models.Registration)
		wantField string
	}{
		{
			name:   "all fields present",
			mutate: func(r *models.Registration) {},
		},
		{
			name:      "missing first name",
			mutate:    func(r *models.Registration) { r.FirstName = "" },
			wantField: "first_name",
		},
		{
			name:      "whitespace company name",
			mutate:    func(r *models.Registration) { r.CompanyName = "   " },
			wantField: "company_name",
		},
		{
			name:      "missing contact method",
			mutate:    func(r *models.Registration) { r.ContactMethod = "" },
			wantField: "contact_method",
		},
		{
			name: "first missing field reported",
			mutate: func(r *models.Registration) {
				r.Plan = ""
				r.Phone = ""
			},
			wantField: "phone",
		},
		{
			name:   "email format not enforced",
			mutate: func(r *models.Registration) { r.Email = "not-an-email" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)

			err := ValidateRegistration(reg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateRegistration() error = %v, want nil", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateRegistration() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "both present", username: "acme_123", password: "secret", wantErr: false},
		{name: "missing username", username: "", password: "secret", wantErr: true},
		{name: "missing password", username: "acme_123", password: "", wantErr: true},
		{name: "whitespace password", username: "acme_123", password: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogin(tt.username, tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLogin() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutboundEmail(t *testing.T) {
	tests := []struct {
		name    string
		to      string
		subject string
		body    string
		wantErr bool
	}{
		{name: "complete", to: "a@example.com", subject: "Hi", body: "Hello", wantErr: false},
		{name: "bad address", to: "nope", subject: "Hi", body: "Hello", wantErr: true},
		{name: "missing subject", to: "a@example.com", subject: "", body: "Hello", wantErr: true},
		{name: "missing body", to: "a@example.com", subject: "Hi", body: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutboundEmail(tt.to, tt.subject, tt.body)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutboundEmail() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
