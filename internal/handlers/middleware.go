package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"twolaunch/internal/security"
	"twolaunch/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const AccountIDContextKey ContextKey = "account_id"

// SessionValidator resolves a bearer token to its account
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (int64, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	sessions SessionValidator
	metrics  *Metrics
	logger   zerolog.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(sessions SessionValidator, metrics *Metrics, logger zerolog.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a live bearer session and stores the
// session's account ID in the request context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := security.BearerToken(r)
		if !ok {
			m.metrics.observeAuthFailure("missing")
			respondWithError(w, m.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		accountID, err := m.sessions.ValidateSession(r.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidSession) {
				m.metrics.observeAuthFailure("invalid")
				respondWithError(w, m.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
				return
			}
			respondWithError(w, m.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to validate session", err)
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDContextKey, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOwner must run after RequireAuth. It compares the authenticated
// account with the {id} path parameter; a mismatch is reported as 401 so
// other accounts' existence is not revealed.
func (m *Middleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseAccountID(r)
		if !ok {
			respondWithError(w, m.logger, http.StatusNotFound, ErrNotFound, "", nil)
			return
		}

		accountID, ok := GetAccountIDFromContext(r.Context())
		if !ok || accountID != id {
			m.metrics.observeAuthFailure("forbidden")
			respondWithError(w, m.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Logging writes one log line per request and records its latency
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = security.GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		// unmatched requests share one label
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.metrics.observeRequest(r.Method, route, status, duration.Seconds())

		m.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	})
}

// GetAccountIDFromContext retrieves the authenticated account ID from the request context
func GetAccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(AccountIDContextKey).(int64)
	return id, ok
}

// parseAccountID reads the {id} path parameter. Negative and non-numeric
// values can never name an account.
func parseAccountID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
