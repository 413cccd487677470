package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the gateway settings.
type Config struct {
	BaseURL    string
	TimeoutMs  int
	MaxRetries int
	UserAgent  string
}

func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:5000/api",
		TimeoutMs:  10000,
		MaxRetries: 1,
		UserAgent:  "hra-cli",
	}
}

// TokenSource yields the bearer credential for the next request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// UnauthorizedHandler is called once per 401, before the error is returned.
type UnauthorizedHandler func(ctx context.Context) bool

// Client is the one outbound gateway shared by every page and command.
type Client struct {
	cfg            Config
	http           *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	observer       Observer
	newRequestID   func() string
}

type Option func(*Client)

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer:     NoopObserver{},
		newRequestID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// call describes one gateway request.
type call struct {
	method string
	path   string
	body   any
	// anonymous requests carry no credential and a 401 is an ordinary
	// rejection rather than an expired session.
	anonymous bool
}

func (c *Client) do(ctx context.Context, req call) ([]byte, error) {
	start := time.Now()
	requestID := c.newRequestID()

	if c.cfg.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	attempts := 1
	if req.method == http.MethodGet {
		attempts += c.cfg.MaxRetries
	}

	var (
		data    []byte
		status  int
		lastErr error
		tries   int
	)
	for tries = 1; tries <= attempts; tries++ {
		data, status, lastErr = c.roundTrip(ctx, req, requestID)
		if lastErr == nil || !retryable(lastErr) || ctx.Err() != nil {
			break
		}
	}
	if tries > attempts {
		tries = attempts
	}

	err := lastErr
	if err != nil {
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr):
		case ctx.Err() != nil:
			err = fmt.Errorf("%s %s: %w", req.method, req.path, ErrTimeout)
		case isConnectionError(err):
			err = fmt.Errorf("%s %s: %w: %v", req.method, req.path, ErrUnavailable, err)
		case tries > 1:
			err = fmt.Errorf("%w: %v", ErrRetryExhausted, err)
		}
	}
	if status == http.StatusUnauthorized && !req.anonymous {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		err = fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	c.observer.OnRequestComplete(RequestEvent{
		RequestID: requestID,
		Method:    req.method,
		Path:      req.path,
		Status:    status,
		Attempts:  tries,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, req call, requestID string) ([]byte, int, error) {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.url(req.path), body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if !req.anonymous && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("reading credential: %w", err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, httpResp.StatusCode, &APIError{
			Status:  httpResp.StatusCode,
			Message: serverMessage(respBody, httpResp.StatusCode),
			Path:    req.path,
		}
	}
	return respBody, httpResp.StatusCode, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// serverMessage extracts the backend's message or error field.
func serverMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}
