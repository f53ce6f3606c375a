package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fiscus/internal/core"
	"fiscus/internal/log"
)

// specificErrors are reported to clients verbatim; anything else in the same
// class falls back to the wrapped message.
var specificErrors = []error{
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidAccountType,
	core.ErrInvalidTransactionType,
	core.ErrInvalidAmount,
	core.ErrNoteTooLong,
	core.ErrInvalidAccountRef,
	core.ErrEmptySettingKey,
	core.ErrAccountNotFound,
	core.ErrTransactionNotFound,
	core.ErrSettingNotFound,
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode JSON response", log.FieldError, err)
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// statusFor maps the ledger error classes onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func clientMessage(err error) string {
	for _, known := range specificErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

// writeError renders err. Storage and unexpected failures are logged and
// hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldError, err)
		writeMessage(w, r, status, "Failed to "+op)
		return
	}
	writeMessage(w, r, status, clientMessage(err))
}
