// Package lambda bridges API Gateway proxy events onto a standard
// http.Handler so the same gin router serves both the HTTP server and the
// Lambda runtime.
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Adapter translates API Gateway proxy events into http.Requests served by
// the wrapped handler.
type Adapter struct {
	handler http.Handler
}

// NewAdapter creates an adapter around handler
func NewAdapter(handler http.Handler) *Adapter {
	return &Adapter{handler: handler}
}

// Handle serves one API Gateway proxy event
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := a.toRequest(ctx, &event)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	w := newResponseWriter()
	a.handler.ServeHTTP(w, req)

	return w.toProxyResponse(), nil
}

func (a *Adapter) toRequest(ctx context.Context, event *events.APIGatewayProxyRequest) (*http.Request, error) {
	path := event.Path
	if path == "" {
		path = "/"
	}

	query := url.Values{}
	for name, values := range event.MultiValueQueryStringParameters {
		for _, value := range values {
			query.Add(name, value)
		}
	}
	for name, value := range event.QueryStringParameters {
		if query.Get(name) == "" {
			query.Set(name, value)
		}
	}
	if encoded := query.Encode(); encoded != "" {
		path = path + "?" + encoded
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode request body: %w", err)
		}
		body = decoded
	}

	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for name, values := range event.MultiValueHeaders {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	for name, value := range event.Headers {
		if req.Header.Get(name) == "" {
			req.Header.Set(name, value)
		}
	}

	if ip := event.RequestContext.Identity.SourceIP; ip != "" {
		req.RemoteAddr = ip + ":443"
	}
	req.RequestURI = path

	return req, nil
}

// responseWriter captures a handler's response for conversion back into a
// proxy response.
type responseWriter struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func newResponseWriter() *responseWriter {
	return &responseWriter{status: http.StatusOK, header: make(http.Header)}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(p []byte) (int, error) {
	return w.body.Write(p)
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
}

func (w *responseWriter) toProxyResponse() events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(w.header))
	multiHeaders := make(map[string][]string, len(w.header))
	for name, values := range w.header {
		if len(values) > 0 {
			headers[name] = values[len(values)-1]
		}
		multiHeaders[name] = values
	}

	body := w.body.String()
	isBase64 := false
	if !isTextContent(w.header.Get("Content-Type")) {
		body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		isBase64 = true
	}

	return events.APIGatewayProxyResponse{
		StatusCode:        w.status,
		Headers:           headers,
		MultiValueHeaders: multiHeaders,
		Body:              body,
		IsBase64Encoded:   isBase64,
	}
}

func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	switch {
	case strings.HasPrefix(contentType, "text/"),
		strings.Contains(contentType, "json"),
		strings.Contains(contentType, "xml"),
		strings.Contains(contentType, "x-www-form-urlencoded"):
		return true
	}
	return false
}
