// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
)

// ErrorResponse represents a structured error response returned by the API.
// The Details field is optional and can contain additional context about the error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Sets the Content-Type header to application/json and writes the status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// RespondError sends a structured error response with the given status code.
// The message should be a user-friendly error description.
// The details parameter can be an error string, additional context, or nil.
//
// Example:
//
//	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
//	response.RespondError(w, http.StatusNotFound, "resource not found", "")
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	response := ErrorResponse{
		Error:   message,
		Details: details,
	}
	RespondJSON(w, status, response)
}

// RespondServiceError maps a service error to its HTTP status and sends it.
// message is used for failures without a more specific status.
//
// Mapping:
//   - missing portfolio, snapshot or credentials: 404
//   - invalid input: 400
//   - sync already running: 409
//   - Kinvo failures and bad source data: 502
//   - everything else: 500
func RespondServiceError(w http.ResponseWriter, message string, err error) {
	status := StatusFor(err)
	switch status {
	case http.StatusNotFound:
		message = "resource not found"
	case http.StatusBadRequest:
		message = "invalid request"
	case http.StatusConflict:
		message = "conflict"
	case http.StatusBadGateway:
		message = "kinvo source failure"
	}
	RespondError(w, status, message, err.Error())
}

// StatusFor returns the HTTP status for a service error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrSnapshotNotFound),
		errors.Is(err, apperrors.ErrCredentialsNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidPortfolioID),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidDate),
		errors.Is(err, apperrors.ErrInvalidInterval),
		errors.Is(err, apperrors.ErrInvalidGranularity),
		errors.Is(err, apperrors.ErrInvalidGrouping),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrMissingBenchmark),
		errors.Is(err, apperrors.ErrSeriesLengthMismatch),
		errors.Is(err, apperrors.ErrInvalidCategory),
		errors.Is(err, apperrors.ErrSourceFailure),
		errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
