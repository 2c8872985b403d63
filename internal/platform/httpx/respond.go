// Package httpx provides HTTP response helpers around the fixed API envelope.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
)

// JSON sends an arbitrary JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK sends a success envelope wrapping data.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, apperr.Envelope{Status: true, Data: data})
}

// Error translates err to the wire envelope and sends it. Unexpected errors
// are logged with their original cause; the client only sees the safe message.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := apperr.Translate(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("unexpected error", slog.Any("error", err))
	}
	JSON(w, status, body)
}

// DecodeJSON decodes a JSON request body into target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
