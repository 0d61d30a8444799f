package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/edgard/batepapo/internal/errs"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps an error code to the HTTP status it is reported with.
func statusFor(err error) int {
	switch errs.Code(err) {
	case errs.CodeValidation:
		return http.StatusUnprocessableEntity
	case errs.CodeConflict:
		return http.StatusConflict
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeUnauthorized:
		return http.StatusUnauthorized
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Validation errors list every
// reason; server side failures are logged and answered with a generic body.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusFor(err)

	switch {
	case status == http.StatusUnprocessableEntity:
		writeJSON(w, status, validationResponse{Errors: errs.Reasons(err)})
	case status >= http.StatusInternalServerError:
		log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "status", status, "error", err)
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
	default:
		writeJSON(w, status, errorResponse{Error: errs.Message(err)})
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)

	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return errs.NewValidationError("invalid request", "body is required")
	case errors.As(err, &maxErr):
		return errs.NewValidationError("invalid request", "body is too large")
	default:
		return errs.NewValidationError("invalid request", "body must be valid JSON")
	}
}
