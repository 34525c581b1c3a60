package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError writes {"error": userMsg}. err, when set, is logged with
// logMsg and never sent to the client.
func respondWithError(w http.ResponseWriter, logger zerolog.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error().Err(err).Int("status", status).Msg(logMsg)
	}

	respondJSON(w, status, map[string]any{"error": userMsg})
}

// respondFailure writes {"success": false, "error": userMsg}
func respondFailure(w http.ResponseWriter, status int, userMsg string) {
	respondJSON(w, status, map[string]any{"success": false, "error": userMsg})
}

// decodeJSON reads a JSON body into dest. A missing or empty body leaves dest untouched.
func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(dest)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
