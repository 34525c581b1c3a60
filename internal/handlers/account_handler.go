package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"twolaunch/internal/models"
	"twolaunch/internal/security"
	"twolaunch/internal/service"
	"twolaunch/internal/validation"
)

// AccountHandler serves the registration, login and account endpoints
type AccountHandler struct {
	accounts *service.AccountService
	metrics  *Metrics
	logger   zerolog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *service.AccountService, metrics *Metrics, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		metrics:  metrics,
		logger:   logger,
	}
}

// formValue is a registration field. Forms post numbers and booleans as well
// as strings; their literal JSON text is kept and null reads as empty.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected a scalar value, got %s", data)
	default:
		*v = formValue(data)
	}
	return nil
}

type registerRequest struct {
	FirstName     formValue `json:"first_name"`
	LastName      formValue `json:"last_name"`
	CompanyName   formValue `json:"company_name"`
	Phone         formValue `json:"phone"`
	Email         formValue `json:"email"`
	Address       formValue `json:"address"`
	Plan          formValue `json:"plan"`
	ContactMethod formValue `json:"contact_method"`
}

func (req registerRequest) registration() models.Registration {
	return models.Registration{
		FirstName:     string(req.FirstName),
		LastName:      string(req.LastName),
		CompanyName:   string(req.CompanyName),
		Phone:         string(req.Phone),
		Email:         string(req.Email),
		Address:       string(req.Address),
		Plan:          string(req.Plan),
		ContactMethod: string(req.ContactMethod),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sendEmailRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Register handles POST /api/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	result, err := h.accounts.Register(r.Context(), req.registration())
	if err != nil {
		var verr validation.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   ErrFillAllFields,
				"field":   verr.Field,
			})
			return
		}
		h.logger.Error().Err(err).Msg("registration failed")
		respondFailure(w, http.StatusInternalServerError, ErrSaveRegistration)
		return
	}

	h.metrics.observeRegistration(result.SentEmail)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"sent_email": result.SentEmail,
		"username":   result.Username,
		"reg_id":     result.AccountID,
	})
}

// CheckName handles GET /api/check_name
func (h *AccountHandler) CheckName(w http.ResponseWriter, r *http.Request) {
	found, err := h.accounts.CompanyNameExists(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to check company name", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"found": found})
}

// Login handles POST /api/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var verr validation.ValidationError
		switch {
		case errors.As(err, &verr):
			respondFailure(w, http.StatusBadRequest, ErrMissingCredentials)
		case errors.Is(err, service.ErrInvalidCredentials):
			h.metrics.observeLogin("invalid")
			respondFailure(w, http.StatusUnauthorized, ErrInvalidCredentials)
		default:
			h.metrics.observeLogin("error")
			h.logger.Error().Err(err).Msg("login failed")
			respondFailure(w, http.StatusInternalServerError, ErrInternalServerError)
		}
		return
	}

	h.metrics.observeLogin("success")
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   session.Token,
		"expires": models.FormatTimestamp(session.ExpiresAt),
		"reg_id":  session.AccountID,
	})
}

// Validate handles GET /api/auth/validate
func (h *AccountHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token, ok := security.BearerToken(r)
	if !ok {
		h.metrics.observeAuthFailure("missing")
		respondJSON(w, http.StatusUnauthorized, map[string]any{"valid": false})
		return
	}

	accountID, err := h.accounts.ValidateSession(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			h.metrics.observeAuthFailure("invalid")
			respondJSON(w, http.StatusUnauthorized, map[string]any{"valid": false})
			return
		}
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to validate session", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"valid": true, "reg_id": accountID})
}

// ListRegistrations handles GET /api/all_registrations
func (h *AccountHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to list registrations", err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// GetRegistration handles GET /api/registration/{id}
func (h *AccountHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id, _ := parseAccountID(r)

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		h.respondAccountError(w, err, "failed to get registration")
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// GetMetrics handles GET /api/metrics/{id}
func (h *AccountHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	id, _ := parseAccountID(r)

	metrics, err := h.accounts.GetMetrics(r.Context(), id)
	if err != nil {
		h.respondAccountError(w, err, "failed to get metrics")
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

// DeleteRegistration handles DELETE /api/delete/{id}
func (h *AccountHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, _ := parseAccountID(r)

	if err := h.accounts.DeleteAccount(r.Context(), id); err != nil {
		h.respondAccountError(w, err, "failed to delete registration")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// IncrementView handles POST /api/increment_view/{id}. It is public.
func (h *AccountHandler) IncrementView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAccountID(r)
	if !ok {
		respondWithError(w, h.logger, http.StatusNotFound, ErrNotFound, "", nil)
		return
	}

	if err := h.accounts.IncrementView(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, ErrNotFound, "", nil)
			return
		}
		h.logger.Error().Err(err).Int64("reg_id", id).Msg("failed to increment views")
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SendEmail handles POST /api/send_email. Any authenticated account may send.
func (h *AccountHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	sent, err := h.accounts.SendEmail(r.Context(), req.Email, req.Subject, req.Body)
	if err != nil {
		var verr validation.ValidationError
		if errors.As(err, &verr) {
			respondFailure(w, http.StatusBadRequest, ErrMissingEmailData)
			return
		}
		h.logger.Error().Err(err).Msg("send email failed")
		respondFailure(w, http.StatusInternalServerError, ErrInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": sent})
}

func (h *AccountHandler) respondAccountError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, service.ErrAccountNotFound) {
		respondWithError(w, h.logger, http.StatusNotFound, ErrNotFound, "", nil)
		return
	}
	respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
}
