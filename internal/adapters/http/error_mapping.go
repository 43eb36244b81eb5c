package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Details any               `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// mapErrorToHTTPStatus checks report failures before temporary ones: a
// rasterizer outage is still a failed generation.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrClaimNotFound), domain.IsKind(err, domain.ErrGarageNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrPDFGeneration):
		return http.StatusInternalServerError
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(status int, err error) errorResponse {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorResponse{Error: "Validation Error", Details: "Invalid input data", Fields: verr.Fields}
	case domain.IsKind(err, domain.ErrNoActiveGarage):
		return errorResponse{Error: "No active garage", Details: "Select a garage before using this resource"}
	case domain.IsKind(err, domain.ErrClaimNotFound):
		return errorResponse{Error: "Claim not found", Details: "The claim does not exist or belongs to another garage"}
	case domain.IsKind(err, domain.ErrGarageNotFound):
		return errorResponse{Error: "Garage not found", Details: "The garage of this claim does not exist"}
	}

	switch status {
	case http.StatusBadRequest:
		return errorResponse{Error: "Bad Request", Details: causeMessage(err)}
	case http.StatusUnauthorized:
		return errorResponse{Error: "Authentication required", Details: "Missing or invalid access token"}
	case http.StatusForbidden:
		return errorResponse{Error: "Forbidden", Details: causeMessage(err)}
	case http.StatusServiceUnavailable:
		return errorResponse{Error: "Service Unavailable", Details: "Please try again later"}
	}
	if domain.IsKind(err, domain.ErrPDFGeneration) {
		return errorResponse{Error: "PDF generation failed", Details: "The report could not be generated"}
	}
	return errorResponse{Error: "Internal Server Error", Details: "Something went wrong"}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, errorBody(status, err))
}

// causeMessage returns the innermost message of an error chain built with
// domain.WrapError, which keeps the cause as its last wrapped error.
func causeMessage(err error) string {
	for {
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			errs := u.Unwrap()
			if len(errs) == 0 {
				return err.Error()
			}
			err = errs[len(errs)-1]
		case interface{ Unwrap() error }:
			next := u.Unwrap()
			if next == nil {
				return err.Error()
			}
			err = next
		default:
			return err.Error()
		}
	}
}
