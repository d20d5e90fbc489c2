package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func echoHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.Query().Get("q"),
			"header": r.Header.Get("X-Custom"),
			"body":   string(body),
		})
	})
}

func TestAdapterTranslatesRequest(t *testing.T) {
	adapter := NewAdapter(echoHandler(t))

	resp, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/users",
		QueryStringParameters: map[string]string{"q": "abc"},
		Headers:               map[string]string{"X-Custom": "value"},
		Body:                  `{"name":"Alice"}`,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var echoed struct {
		Method string `json:"method"`
		Path   string `json:"path"`
		Query  string `json:"query"`
		Header string `json:"header"`
		Body   string `json:"body"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &echoed); err != nil {
		t.Fatalf("body: %v: %s", err, resp.Body)
	}
	if echoed.Method != http.MethodPost || echoed.Path != "/users" {
		t.Errorf("echoed = %+v", echoed)
	}
	if echoed.Query != "abc" {
		t.Errorf("query = %s", echoed.Query)
	}
	if echoed.Header != "value" {
		t.Errorf("header = %s", echoed.Header)
	}
	if echoed.Body != `{"name":"Alice"}` {
		t.Errorf("body = %s", echoed.Body)
	}
}

func TestAdapterDecodesBase64Body(t *testing.T) {
	adapter := NewAdapter(echoHandler(t))

	resp, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/users",
		Body:            base64.StdEncoding.EncodeToString([]byte("binary body")),
		IsBase64Encoded: true,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(resp.Body, "binary body") {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestAdapterRejectsBadBase64(t *testing.T) {
	adapter := NewAdapter(echoHandler(t))

	_, err := adapter.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/users",
		Body:            "not base64!!",
		IsBase64Encoded: true,
	})
	if err == nil {
		t.Error("expected error for invalid base64 body")
	}
}

func TestAdapterPreservesStatusAndHeaders(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req-1")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})

	resp, err := NewAdapter(handler).Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/users",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if resp.Headers["X-Request-Id"] != "req-1" {
		t.Errorf("headers = %v", resp.Headers)
	}
	if resp.IsBase64Encoded {
		t.Error("JSON response should not be base64 encoded")
	}
}

func TestAdapterEncodesBinaryResponses(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	})

	resp, err := NewAdapter(handler).Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/image",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !resp.IsBase64Encoded {
		t.Fatal("binary response should be base64 encoded")
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestAdapterDefaultsEmptyPath(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})

	resp, err := NewAdapter(handler).Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.Body != "/" {
		t.Errorf("path = %s, want /", resp.Body)
	}
}
