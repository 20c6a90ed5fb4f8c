package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/store"
)

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, APIError{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
	}})
}

// writeErr reports an engine error with the status its kind maps to.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	WriteError(w, r, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrMalformedInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrStateCorruption):
		return http.StatusInternalServerError, "state_corrupted"
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, "source_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	}
	return http.StatusInternalServerError, "internal_error"
}
