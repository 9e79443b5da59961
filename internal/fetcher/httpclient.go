package fetcher

import (
	"log/slog"
	"time"

	"resty.dev/v3"
)

const (
	// DefaultTimeout bounds a single page request so one stalled fetch
	// cannot hold a worker indefinitely.
	DefaultTimeout = 10 * time.Second

	userAgent = "stockfetcher/1.0"
)

// NewHTTPClient creates an HTTP client for page fetching. The client
// carries no retry configuration of its own; retrying a page is the
// Paginator's decision.
func NewHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		AddResponseMiddleware(traceResponse)

	return client
}

// traceResponse logs every completed page request for observability.
func traceResponse(c *resty.Client, r *resty.Response) error {
	slog.Debug("page request completed",
		"url", r.Request.URL,
		"status_code", r.StatusCode())
	return nil
}
