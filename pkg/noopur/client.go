// Package noopur is the HTTP client for the Noopur generation backend.
//
// The client is intentionally conservative: every call has a bounded timeout,
// transient network failures are retried a fixed number of times with
// increasing backoff, and all failures are classified (network, timeout,
// schema, logic) so callers can degrade deterministically instead of
// propagating remote faults.
package noopur

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const logPrefix = "noopur:client"

const (
	defaultTimeout = 30 * time.Second
	healthTimeout  = 5 * time.Second
	maxAttempts    = 3
	baseBackoff    = 500 * time.Millisecond
)

// ErrorType classifies a failed remote call.
type ErrorType string

const (
	ErrorNetwork    ErrorType = "network"
	ErrorTimeout    ErrorType = "timeout"
	ErrorSchema     ErrorType = "schema"
	ErrorLogic      ErrorType = "logic"
	ErrorUnexpected ErrorType = "unexpected"
)

// ClientError is a classified failure from the Noopur backend.
type ClientError struct {
	Type     ErrorType
	Endpoint string
	Err      error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("noopur %s: %s error: %v", e.Endpoint, e.Type, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// Client talks to the Noopur generation service. A disabled client (Enabled
// false) answers every call with its deterministic fallback value so callers
// never need to branch on configuration.
type Client struct {
	baseURL string
	apiKey  string
	enabled bool
	http    *http.Client
}

// Config holds Noopur client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Enabled bool
	Timeout time.Duration
}

// NewClient creates a Noopur client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		enabled: cfg.Enabled,
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether remote integration is turned on.
func (c *Client) Enabled() bool { return c.enabled }

// GenerateRequest is the payload for the generate endpoint.
type GenerateRequest struct {
	Topic string `json:"topic"`
	Goal  string `json:"goal"`
	Type  string `json:"type"`
}

// GenerateResponse is the generate endpoint's reply. RelatedContext is always
// non-nil on a successful call; GenerationID is nil when the backend did not
// produce a persisted generation.
type GenerateResponse struct {
	RelatedContext []any  `json:"related_context"`
	GeneratedText  string `json:"generated_text,omitempty"`
	GenerationID   *int64 `json:"generation_id,omitempty"`
}

// HistoryItem is one generation record from the history endpoint.
type HistoryItem struct {
	ID        int64   `json:"id"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

// Generate asks the backend for content plus related context.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if !c.enabled {
		return &GenerateResponse{RelatedContext: []any{}}, nil
	}
	var out GenerateResponse
	if err := c.call(ctx, http.MethodPost, "/generate", req, &out); err != nil {
		return nil, err
	}
	if out.RelatedContext == nil {
		out.RelatedContext = []any{}
	}
	return &out, nil
}

// Feedback submits a feedback payload. The backend accepts several shapes, so
// both the payload and the reply stay as raw mappings.
func (c *Client) Feedback(ctx context.Context, payload map[string]any) (map[string]any, error) {
	if !c.enabled {
		return map[string]any{"status": "disabled"}, nil
	}
	var out map[string]any
	if err := c.call(ctx, http.MethodPost, "/feedback", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches recent generations, optionally filtered by topic.
func (c *Client) History(ctx context.Context, topic string) ([]HistoryItem, error) {
	if !c.enabled {
		return []HistoryItem{}, nil
	}
	endpoint := "/history"
	if topic != "" {
		endpoint = "/history/" + topic
	}
	var out []HistoryItem
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HealthCheck reports "up", "down" or "disabled". It never returns an error.
func (c *Client) HealthCheck(ctx context.Context) string {
	if !c.enabled {
		return "disabled"
	}
	hctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(hctx, http.MethodGet, c.baseURL+"/system/health", nil)
	if err != nil {
		return "down"
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return "down"
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return "up"
	}
	return "down"
}

// call performs a request with retry on transient network errors. Schema and
// logic errors from the remote side are never retried.
func (c *Client) call(ctx context.Context, method, endpoint string, body, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseBackoff * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return &ClientError{Type: ErrorTimeout, Endpoint: endpoint, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		err := c.once(ctx, method, endpoint, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var cerr *ClientError
		if !errors.As(err, &cerr) || (cerr.Type != ErrorNetwork && cerr.Type != ErrorTimeout) {
			slog.Error(fmt.Sprintf("%s - %s %s failed: %v", logPrefix, method, endpoint, err))
			return err
		}
		slog.Warn(fmt.Sprintf("%s - %s %s attempt %d failed: %v", logPrefix, method, endpoint, attempt+1, err))
	}
	slog.Error(fmt.Sprintf("%s - %s %s gave up after %d attempts: %v", logPrefix, method, endpoint, maxAttempts, lastErr))
	return lastErr
}

func (c *Client) once(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrorUnexpected, Endpoint: endpoint, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return &ClientError{Type: ErrorUnexpected, Endpoint: endpoint, Err: err}
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &ClientError{Type: classifyTransport(err), Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return &ClientError{
			Type:     classifyStatus(resp.StatusCode),
			Endpoint: endpoint,
			Err:      fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrorSchema, Endpoint: endpoint, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}

	slog.Debug(fmt.Sprintf("%s - %s %s ok in %s", logPrefix, method, endpoint, time.Since(start).Round(time.Millisecond)))
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func classifyTransport(err error) ErrorType {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorNetwork
}

func classifyStatus(code int) ErrorType {
	switch {
	case code == http.StatusBadRequest:
		return ErrorSchema
	case code == http.StatusNotFound || code == http.StatusMethodNotAllowed:
		return ErrorLogic
	default:
		return ErrorUnexpected
	}
}
