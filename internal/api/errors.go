package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ereOn/home-control/internal/dispatch"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnreachable  = "upstream_unreachable"
	ErrCodeRejected     = "command_rejected"
	ErrCodeTimeout      = "confirmation_timeout"
	ErrCodeHardware     = "hardware_fault"
	ErrCodeRelay        = "relay_unreachable"
	ErrCodeInternal     = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDispatchError maps a dispatcher error to the HTTP surface.
//
// The mapping keeps the caller's three questions answerable from the status
// code alone: was the request wrong (4xx), is the upstream the problem
// (502/503/504), or did local hardware fail (500).
func writeDispatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatch.ErrUnknownEntity):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, dispatch.ErrUnreachable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnreachable, err.Error())
	case errors.Is(err, dispatch.ErrRejected):
		writeError(w, http.StatusBadGateway, ErrCodeRejected, err.Error())
	case errors.Is(err, dispatch.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	case errors.Is(err, dispatch.ErrHardwareFault):
		writeError(w, http.StatusInternalServerError, ErrCodeHardware, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
