package handlers

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zerolog.Nop(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	body := strings.TrimSpace(recorder.Body.String())
	if body != `{"error":"Teapot"}` {
		t.Fatalf("expected JSON error body, got %q", body)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
}

func TestRespondWithErrorLogsButHidesDetail(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	recorder := httptest.NewRecorder()
	err := errors.New("boom: /var/lib/db locked")

	respondWithError(recorder, logger, 500, ErrInternalServerError, "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, ErrInternalServerError) {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
	if strings.Contains(recorder.Body.String(), "boom") {
		t.Fatalf("error detail leaked to client: %q", recorder.Body.String())
	}
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/login", strings.NewReader(""))

	var dest loginRequest
	if err := decodeJSON(r, &dest); err != nil {
		t.Fatalf("decodeJSON() error = %v", err)
	}
	if dest.Username != "" {
		t.Fatalf("expected empty request, got %+v", dest)
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/login", strings.NewReader("{not json"))

	var dest loginRequest
	if err := decodeJSON(r, &dest); err == nil {
		t.Fatal("decodeJSON() should fail on malformed JSON")
	}
}
