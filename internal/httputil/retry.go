// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP client shared by the archive and
// text downloads.
package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/gutenberg-cache/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 and 503 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// StatusError reports a final non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client issues GET requests with a fixed User-Agent and retries on
// throttling responses.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	MaxRetries int
	Logger     *slog.Logger
}

// NewClient returns a Client configured from cfg.
func NewClient(cfg types.HTTPConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	}
}

// Get fetches url and returns the response of a 2xx status. Any other
// final status is returned as a *StatusError wrapped in types.ErrIO, with
// the body already closed.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %w", types.ErrIO, url, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", types.ErrIO, url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %w", types.ErrIO, &StatusError{URL: url, StatusCode: resp.StatusCode})
	}
	return resp, nil
}

// Do executes req and retries on HTTP 429 (Too Many Requests) and 503
// (Service Unavailable) with exponential backoff. The delay starts at
// RetryBaseDelay and doubles each attempt.
//
// When MaxRetries is 0 the default (5) is used. On each retried response
// the body is drained and closed before sleeping. If the context is
// cancelled during a backoff wait Do returns ctx.Err(). After exhausting
// retries the last response is returned so the caller can inspect it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		logger.Warn("server throttled request, retrying",
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"backoff", backoff,
			"attempt", attempt+1,
			"max_retries", maxRetries,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}
