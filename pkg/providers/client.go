package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Client is the shared HTTP layer embedded by all provider adapters.
// It provides connection pooling, timeout handling and classification of
// upstream failures into the package's typed errors. It performs exactly
// one attempt per call; cross-credential retry lives in the dispatcher.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates the shared HTTP client for a credential.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
}

// Name returns the credential name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Type returns the provider type.
func (c *Client) Type() Type {
	return c.cfg.Type
}

// Config returns the credential configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Logger returns the credential-scoped logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Do performs a single HTTP request. A 2xx response is returned with its
// body open; any other status is read, closed and converted into a typed
// error (AuthError, RateLimitError or ProviderError). Network failures and
// timeouts become ProviderError with StatusCode 0 or TimeoutError.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "sending request to provider",
		"provider", c.cfg.Name,
		"method", method,
		"url", url,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || (ctx.Err() == nil && isClientTimeout(err)) {
			return nil, &TimeoutError{Provider: c.cfg.Name, Timeout: c.cfg.Timeout}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{
			Provider: c.cfg.Name,
			Message:  "upstream request failed",
			Cause:    err,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{
			Provider:   c.cfg.Name,
			StatusCode: resp.StatusCode,
			Message:    string(errorBody),
		}

	case http.StatusTooManyRequests:
		retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"))
		if retryAfter == 0 {
			retryAfter = ParseRateLimitReset(resp.Header.Get("X-Ratelimit-Reset"))
		}
		return nil, &RateLimitError{
			Provider:   c.cfg.Name,
			RetryAfter: retryAfter,
			Message:    string(errorBody),
		}

	default:
		return nil, &ProviderError{
			Provider:   c.cfg.Name,
			StatusCode: resp.StatusCode,
			Message:    string(errorBody),
		}
	}
}

// DoJSON marshals reqBody, performs the request and decodes the 2xx
// response into respBody.
func (c *Client) DoJSON(ctx context.Context, method, url string, reqBody, respBody interface{}, headers map[string]string) error {
	var bodyBytes []byte
	var err error
	if reqBody != nil {
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.Do(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: c.cfg.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    c.cfg.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// Close closes idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// isClientTimeout reports whether err is the http.Client timeout rather
// than a caller cancellation.
func isClientTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}

// ParseRetryAfter parses a Retry-After header value.
// It supports both delay-seconds and HTTP-date formats; unparseable
// values yield 0.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}

	return 0
}

// ParseRateLimitReset parses an x-ratelimit-reset header value. Providers
// send either delay seconds (possibly fractional), a unix timestamp, or a
// duration string like "6m0s". Unparseable values yield 0.
func ParseRateLimitReset(header string) time.Duration {
	if header == "" {
		return 0
	}

	if secs, err := strconv.ParseFloat(header, 64); err == nil {
		// Values this large can only be an absolute unix timestamp.
		if secs > 1e9 {
			d := time.Until(time.Unix(int64(secs), 0))
			if d < 0 {
				return 0
			}
			return d
		}
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}

	if d, err := time.ParseDuration(header); err == nil && d > 0 {
		return d
	}

	return 0
}
