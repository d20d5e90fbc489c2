package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"serverless-api-starter/internal/apierr"
	"serverless-api-starter/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestConvertTaxonomyVariants(t *testing.T) {
	registry := NewErrorRegistry(testLogger())

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", apierr.NewValidation("bad", nil), 400, "ValidationError"},
		{"unauthorized", apierr.NewUnauthorized("no token"), 401, "UnauthorizedError"},
		{"forbidden", apierr.NewForbidden("nope"), 403, "ForbiddenError"},
		{"not found", apierr.NewNotFound("gone", "User", "9"), 404, "NotFoundError"},
		{"conflict", apierr.NewConflict("dup", nil), 409, "ConflictError"},
		{"rate limit", apierr.NewRateLimit("slow"), 429, "RateLimitError"},
		{"external", apierr.NewExternalService("upstream", nil), 502, "ExternalServiceError"},
		{"wrapped", fmt.Errorf("service: %w", apierr.NewConflict("dup", nil)), 409, "ConflictError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := registry.Convert(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body.Type != tt.wantType {
				t.Errorf("type = %q, want %q", body.Type, tt.wantType)
			}
		})
	}
}

func TestConvertNotFoundDetails(t *testing.T) {
	registry := NewErrorRegistry(testLogger())

	status, body := registry.Convert(apierr.NewNotFound("User 123 not found", "User", "123"))
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}

	details, ok := body.Details.(map[string]any)
	if !ok {
		t.Fatalf("details = %T, want map", body.Details)
	}
	if details["resource_type"] != "User" || details["resource_id"] != "123" {
		t.Errorf("details = %v", details)
	}
}

func TestConvertUnknownErrorIsOpaque500(t *testing.T) {
	registry := NewErrorRegistry(testLogger())

	status, body := registry.Convert(errors.New("pq: connection refused on 10.0.0.7"))
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if body.Type != "InternalServerError" {
		t.Errorf("type = %q", body.Type)
	}
	if body.Message != "An internal error occurred" {
		t.Errorf("message = %q, internal detail must not leak", body.Message)
	}
	if body.Details != nil {
		t.Errorf("details = %v, want nil", body.Details)
	}
}

func TestConvertValidationErrors(t *testing.T) {
	type payload struct {
		Age int `json:"age" validate:"gte=0,lte=150"`
	}

	v := validator.New()
	err := v.Struct(payload{Age: 200})
	if err == nil {
		t.Fatal("expected validation error")
	}

	registry := NewErrorRegistry(testLogger())
	status, body := registry.Convert(err)

	if status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", status)
	}
	if body.Type != "RequestValidationError" {
		t.Errorf("type = %q", body.Type)
	}

	records, ok := body.Details.([]models.FieldViolation)
	if !ok || len(records) == 0 {
		t.Fatalf("details = %#v, want violation records", body.Details)
	}
	if records[0].Type != "lte" {
		t.Errorf("violation type = %q, want lte", records[0].Type)
	}
	if records[0].Loc[0] != "body" {
		t.Errorf("loc = %v, want body prefix", records[0].Loc)
	}
	if records[0].Input != 200 {
		t.Errorf("input = %v, want 200", records[0].Input)
	}
}

func TestConvertMalformedJSON(t *testing.T) {
	var dst struct{ Age int }
	err := json.Unmarshal([]byte(`{"age":`), &dst)

	registry := NewErrorRegistry(testLogger())
	status, body := registry.Convert(err)

	if status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", status)
	}
	if body.Type != "RequestValidationError" {
		t.Errorf("type = %q", body.Type)
	}
}

func TestRegisterTakesPrecedence(t *testing.T) {
	registry := NewErrorRegistry(testLogger())

	// A custom registration for a specific conflict shadows the built-in
	// taxonomy conversion.
	registry.Register(
		func(err error) bool {
			var appErr *apierr.Error
			return errors.As(err, &appErr) && appErr.Message == "special"
		},
		func(err error) (int, *models.ErrorBody) {
			return http.StatusTeapot, &models.ErrorBody{Type: "TeapotError", Message: "special"}
		},
	)

	status, body := registry.Convert(apierr.NewConflict("special", nil))
	if status != http.StatusTeapot || body.Type != "TeapotError" {
		t.Errorf("custom registration did not win: %d %q", status, body.Type)
	}

	// Other taxonomy errors still hit the built-in.
	status, body = registry.Convert(apierr.NewConflict("ordinary", nil))
	if status != http.StatusConflict || body.Type != "ConflictError" {
		t.Errorf("built-in conversion lost: %d %q", status, body.Type)
	}
}

func TestMiddlewareWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := NewErrorRegistry(testLogger())

	router := gin.New()
	router.Use(registry.Middleware())
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(apierr.NewNotFound("User 123 not found", "User", "123"))
		c.Abort()
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	var env models.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Success {
		t.Error("success should be false")
	}
	if env.Data != nil {
		t.Error("data should be null on error")
	}
	if env.Error == nil || env.Error.Type != "NotFoundError" {
		t.Errorf("error body = %+v", env.Error)
	}
}

func TestMiddlewareSkipsWrittenResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := NewErrorRegistry(testLogger())

	router := gin.New()
	router.Use(registry.Middleware())
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Success(gin.H{"ok": true}))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
