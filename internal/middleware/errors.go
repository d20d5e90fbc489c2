package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"serverless-api-starter/internal/apierr"
	"serverless-api-starter/internal/models"
)

// ErrorMatcher reports whether a converter handles the given error.
type ErrorMatcher func(err error) bool

// ErrorConverter turns a matched error into an HTTP status and error body.
type ErrorConverter func(err error) (int, *models.ErrorBody)

type registration struct {
	match   ErrorMatcher
	convert ErrorConverter
}

// ErrorRegistry is the single point where errors raised by handlers are
// converted into HTTP responses. It is built once at startup and attached to
// the router; no handler writes its own error body.
//
// Matching is an ordered scan, most specific first. Precedence: custom
// registrations, then the application error taxonomy, then request
// validation failures, then the generic 500 fallback. Wrapped errors are
// matched through errors.As, which gives nearest-registered-kind semantics.
type ErrorRegistry struct {
	log     *logrus.Logger
	entries []registration
}

// NewErrorRegistry creates a registry pre-loaded with the built-in
// conversions for the application taxonomy and request validation failures.
func NewErrorRegistry(log *logrus.Logger) *ErrorRegistry {
	r := &ErrorRegistry{log: log}
	r.entries = []registration{
		{match: matchAppError, convert: convertAppError},
		{match: matchRequestValidation, convert: convertRequestValidation},
	}
	return r
}

// Register adds a conversion that takes precedence over everything
// registered before it, built-ins included.
func (r *ErrorRegistry) Register(match ErrorMatcher, convert ErrorConverter) {
	r.entries = append([]registration{{match: match, convert: convert}}, r.entries...)
}

// Convert maps an error to a status code and error body. Unmatched errors
// fall through to an opaque 500: the message is generic and no internal
// detail reaches the client.
func (r *ErrorRegistry) Convert(err error) (int, *models.ErrorBody) {
	for _, e := range r.entries {
		if e.match(err) {
			return e.convert(err)
		}
	}
	return http.StatusInternalServerError, &models.ErrorBody{
		Type:    "InternalServerError",
		Message: "An internal error occurred",
	}
}

// Middleware converts the last error recorded on the gin context into a
// failure envelope. Handlers record errors with c.Error and abort; nothing
// reaches the platform boundary unformatted.
func (r *ErrorRegistry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := r.Convert(err)

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"error_type": body.Type,
			"request_id": c.GetString(RequestIDKey),
		}
		if status >= http.StatusInternalServerError {
			// The full error goes to the logs only.
			r.log.WithFields(fields).WithError(err).Error("unhandled error")
		} else {
			r.log.WithFields(fields).WithError(err).Warn("request failed")
		}

		c.JSON(status, models.Failure(body))
	}
}

func matchAppError(err error) bool {
	var appErr *apierr.Error
	return errors.As(err, &appErr)
}

func convertAppError(err error) (int, *models.ErrorBody) {
	var appErr *apierr.Error
	errors.As(err, &appErr)

	var details any
	if appErr.Details != nil {
		details = appErr.Details
	}
	return appErr.StatusCode, &models.ErrorBody{
		Type:    appErr.Type,
		Message: appErr.Message,
		Details: details,
	}
}

func matchRequestValidation(err error) bool {
	var (
		fieldErrs validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	return errors.As(err, &fieldErrs) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// convertRequestValidation produces the 422 body for schema validation
// failures raised by the binding layer before the handler body runs.
func convertRequestValidation(err error) (int, *models.ErrorBody) {
	return http.StatusUnprocessableEntity, &models.ErrorBody{
		Type:    "RequestValidationError",
		Message: "Request validation failed",
		Details: violationRecords(err),
	}
}

func violationRecords(err error) []models.FieldViolation {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		records := make([]models.FieldViolation, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			records = append(records, models.FieldViolation{
				Loc:   []string{"body", fe.Field()},
				Msg:   violationMessage(fe),
				Type:  fe.Tag(),
				Input: fe.Value(),
			})
		}
		return records
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, typeErr.Field)
		}
		return []models.FieldViolation{{
			Loc:  loc,
			Msg:  fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			Type: "type_error",
		}}
	}

	return []models.FieldViolation{{
		Loc:  []string{"body"},
		Msg:  "request body is not valid JSON",
		Type: "json_invalid",
	}}
}

// violationMessage renders a validator tag failure as a human-readable
// reason. Unknown tags fall back to the tag name itself.
func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "base64":
		return "must be base64-encoded"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
