// Package nasdaq retrieves paginated listing data from the Nasdaq JSON
// API. It implements the pipeline's Source contract: one page per
// call, typed errors, no retries of its own.
package nasdaq

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"

	"stockfetcher/internal/fetcher"
	"stockfetcher/internal/ratelimit"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.nasdaq.com"

// Client fetches paginated quote and insider trade pages.
type Client struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// Options configures a Client.
type Options struct {
	// BaseURL points at the API root. Tests point it at a local server.
	// Empty means DefaultBaseURL.
	BaseURL string

	// Timeout bounds each page request. Zero means fetcher.DefaultTimeout.
	Timeout time.Duration

	// Limiter throttles outbound requests. Nil means unlimited.
	Limiter *ratelimit.Limiter
}

// New creates a Client for the given API root.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		client:  fetcher.NewHTTPClient(baseURL, opts.Timeout),
		limiter: opts.Limiter,
	}
}

// getPage performs one rate-limited GET for the given page and decodes
// the payload into result. Failures come back as *fetcher.FetchError
// except for context cancellation, which is returned as is so callers
// abort instead of retrying.
func (c *Client) getPage(ctx context.Context, path string, page int, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(page),
		}).
		SetResult(result).
		Get(path)

	if err != nil {
		return classifyRequestError(err)
	}

	if !resp.IsSuccess() {
		return fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	return nil
}

// classifyRequestError maps a request-level failure onto the error
// taxonomy: decode failures are permanent parse errors, timeouts and
// connection problems are retryable transport errors.
func classifyRequestError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var jsonSyntaxErr *json.SyntaxError
	var jsonTypeErr *json.UnmarshalTypeError
	if errors.As(err, &jsonSyntaxErr) || errors.As(err, &jsonTypeErr) {
		return fetcher.NewParseError("response body is not valid JSON", err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fetcher.NewTimeoutError(err)
	}

	return fetcher.NewNetworkError(err)
}

// parsePrice converts a display-formatted price ("$1,234.56") into a
// float. Empty and placeholder values parse to zero rather than
// failing the row.
func parsePrice(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" || cleaned == "N/A" || cleaned == "--" {
		return 0, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

// parseCount converts a display-formatted integer ("1,005,000").
// Empty and placeholder values parse to zero.
func parseCount(s string) (int64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" || cleaned == "N/A" || cleaned == "--" {
		return 0, nil
	}
	return strconv.ParseInt(cleaned, 10, 64)
}
