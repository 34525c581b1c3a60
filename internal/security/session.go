package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionTokenBytes is the amount of randomness behind each bearer token
const SessionTokenBytes = 32

const bearerPrefix = "Bearer "

// GenerateSessionToken creates an opaque URL-safe bearer token
func GenerateSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateRequestID creates a new UUID for request correlation in logs
func GenerateRequestID() string {
	return uuid.New().String()
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-sensitively.
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(auth[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
