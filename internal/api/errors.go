// internal/api/errors.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tamzrod/neptun-bridge/internal/hub"
	"github.com/tamzrod/neptun-bridge/internal/registry"
)

// Error is the structured error body.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v) // connection may be gone
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeServiceError maps hub and registry error kinds onto HTTP.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrUnknownHub):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, hub.ErrConfiguration):
		writeBadRequest(w, err.Error())
	case errors.Is(err, hub.ErrConnection), errors.Is(err, hub.ErrTransport):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
