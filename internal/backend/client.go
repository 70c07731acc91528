// Package backend talks to the hiring platform's REST API. Every call takes the
// caller's bearer token explicitly; the client never stores credentials.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/observability"
)

const maxResponseBytes = 4 << 20

// Config configures the backend client.
type Config struct {
	BaseURL           string
	AssignmentBaseURL string
	Timeout           time.Duration
	HTTPClient        *http.Client
	Logger            zerolog.Logger
}

// Client is a thin JSON client for the admin and assignment APIs.
type Client struct {
	baseURL           string
	assignmentBaseURL string
	http              *http.Client
	logger            zerolog.Logger
	tracer            trace.Tracer
}

// New validates the configuration and builds a client. When no assignment base
// URL is configured it is derived from the admin URL by swapping "/admin" for
// "/assignment".
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url must not be empty")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	assignmentBase := strings.TrimRight(strings.TrimSpace(cfg.AssignmentBaseURL), "/")
	if assignmentBase == "" {
		assignmentBase = strings.Replace(base, "/admin", "/assignment", 1)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:           base,
		assignmentBaseURL: assignmentBase,
		http:              httpClient,
		logger:            cfg.Logger.With().Str("component", "backend_client").Logger(),
		tracer:            otel.Tracer("github.com/noah-isme/orbit-admin-api/internal/backend"),
	}, nil
}

type request struct {
	operation string
	base      string
	method    string
	path      string
	token     string
	public    bool
	headers   map[string]string
	body      interface{}
	fallback  string
}

// send performs the request and returns the raw response body for 2xx replies.
// Non-2xx replies become *Error carrying the backend message or the fallback.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	if !req.public && strings.TrimSpace(req.token) == "" {
		return nil, ErrUnauthorized
	}

	ctx, span := c.tracer.Start(ctx, "backend."+req.operation, trace.WithAttributes(
		attribute.String("http.method", req.method),
		attribute.String("backend.path", req.path),
	))
	defer span.End()

	var reader io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", req.operation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.base+req.path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.operation, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if !req.public {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}
	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		httpReq.Header.Set("X-Correlation-ID", correlationID)
	}

	logger := middleware.LoggerFromContext(ctx, c.logger)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		observability.BackendRequests().WithLabelValues(req.operation, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "request_failed")
		logger.Error().Err(err).Str("operation", req.operation).Msg("backend request failed")
		return nil, fmt.Errorf("%s: %w", req.operation, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	status := strconv.Itoa(resp.StatusCode)
	observability.BackendRequests().WithLabelValues(req.operation, status).Inc()
	observability.BackendLatency().WithLabelValues(req.operation).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read %s response: %w", req.operation, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		upstreamErr := &Error{Status: resp.StatusCode, Message: errorMessage(payload, req.fallback)}
		span.SetStatus(codes.Error, "upstream_error")
		logger.Warn().
			Str("operation", req.operation).
			Int("status", resp.StatusCode).
			Dur("latency", elapsed).
			Msg("backend returned error")
		return nil, upstreamErr
	}

	logger.Debug().Str("operation", req.operation).Int("status", resp.StatusCode).Dur("latency", elapsed).Msg("backend request completed")
	return payload, nil
}

// call sends the request and decodes the response into out. Responses wrapped in
// a {"data": ...} envelope are unwrapped first.
func (c *Client) call(ctx context.Context, req request, out interface{}) error {
	payload, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := decodeData(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.operation, err)
	}
	return nil
}

func decodeData(payload []byte, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

func errorMessage(payload []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
	}
	if fallback == "" {
		return "An unknown error occurred"
	}
	return fallback
}

func messageFrom(payload []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && strings.TrimSpace(body.Message) != "" {
		return strings.TrimSpace(body.Message)
	}
	return fallback
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}

// IsStatus reports whether err is an upstream error with the given status.
func IsStatus(err error, status int) bool {
	var upstream *Error
	return errors.As(err, &upstream) && upstream.Status == status
}

func decodeStrict(payload []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}
	return json.Unmarshal(trimmed, out)
}
