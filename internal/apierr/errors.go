// Package apierr defines the application error taxonomy.
//
// Business logic signals a failure category by returning one of these typed
// errors instead of a sentinel or a raw status code. The middleware error
// registry is the single place where they are converted into HTTP responses.
package apierr

import (
	"errors"
	"net/http"
)

// Stable kind names carried in the error body's "type" field. Clients branch
// on these, so they must never change.
const (
	TypeValidation      = "ValidationError"
	TypeUnauthorized    = "UnauthorizedError"
	TypeForbidden       = "ForbiddenError"
	TypeNotFound        = "NotFoundError"
	TypeConflict        = "ConflictError"
	TypeRateLimit       = "RateLimitError"
	TypeExternalService = "ExternalServiceError"
)

// Error is an application error with a fixed HTTP status and an optional
// structured details payload. It is a pure value: raising it carries no retry
// or recovery semantics of its own.
type Error struct {
	Type       string
	Message    string
	StatusCode int
	Details    map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// New creates an application error with an explicit status code. Prefer the
// typed constructors below; New exists for callers that extend the taxonomy.
func New(kind, message string, statusCode int, details map[string]any) *Error {
	return &Error{
		Type:       kind,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// NewValidation creates a 400 error for invalid input detected by business
// logic (as opposed to request schema validation, which yields 422).
func NewValidation(message string, details map[string]any) *Error {
	return New(TypeValidation, message, http.StatusBadRequest, details)
}

// NewUnauthorized creates a 401 error.
func NewUnauthorized(message string) *Error {
	return New(TypeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewForbidden creates a 403 error.
func NewForbidden(message string) *Error {
	return New(TypeForbidden, message, http.StatusForbidden, nil)
}

// NewNotFound creates a 404 error. The resource type and id are folded into
// the details payload so clients can identify what was missing.
func NewNotFound(message, resourceType, resourceID string) *Error {
	details := map[string]any{}
	if resourceType != "" {
		details["resource_type"] = resourceType
	}
	if resourceID != "" {
		details["resource_id"] = resourceID
	}
	if len(details) == 0 {
		details = nil
	}
	return New(TypeNotFound, message, http.StatusNotFound, details)
}

// NewConflict creates a 409 error for state conflicts (duplicates,
// constraint violations).
func NewConflict(message string, details map[string]any) *Error {
	return New(TypeConflict, message, http.StatusConflict, details)
}

// NewRateLimit creates a 429 error.
func NewRateLimit(message string) *Error {
	return New(TypeRateLimit, message, http.StatusTooManyRequests, nil)
}

// NewExternalService creates a 502 error for upstream dependency failures.
// The underlying cause belongs in logs, not in the response body, so only the
// message and optional details are carried.
func NewExternalService(message string, details map[string]any) *Error {
	return New(TypeExternalService, message, http.StatusBadGateway, details)
}

// AsError unwraps err to the taxonomy error it carries, or nil.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
