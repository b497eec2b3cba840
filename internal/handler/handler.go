package handler

import (
	"encoding/json"
	"net/http"

	"swimshop/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code. The status is
// already sent when encoding fails, so the error is only logged.
func writeJSON(w http.ResponseWriter, status int, data any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError writes a {"message": ...} response with the given status code.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Message: message}, logger)
}
