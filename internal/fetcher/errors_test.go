package fetcher

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantType   ErrorType
		retryable  bool
	}{
		{"rate limit", 429, ErrorTypeRateLimit, true},
		{"server error", 500, ErrorTypeServer, true},
		{"bad gateway", 502, ErrorTypeServer, true},
		{"not found", 404, ErrorTypeClient, true},
		{"bad request", 400, ErrorTypeClient, true},
		{"redirect", 302, ErrorTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTPError(tt.statusCode)
			if err.Type != tt.wantType {
				t.Errorf("type = %s, want %s", err.Type, tt.wantType)
			}
			if err.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", err.Retryable, tt.retryable)
			}
			if err.StatusCode != tt.statusCode {
				t.Errorf("status code = %d, want %d", err.StatusCode, tt.statusCode)
			}
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	withStatus := NewServerError(503)
	if !strings.Contains(withStatus.Error(), "503") {
		t.Errorf("Error() = %q, want it to mention the status code", withStatus.Error())
	}

	withoutStatus := NewParseError("missing envelope", nil)
	if !strings.Contains(withoutStatus.Error(), "missing envelope") {
		t.Errorf("Error() = %q, want it to carry the message", withoutStatus.Error())
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewNetworkError(errors.New("refused"))) {
		t.Error("network errors should be retryable")
	}
	if !IsRetryable(NewTimeoutError(nil)) {
		t.Error("timeout errors should be retryable")
	}
	if IsRetryable(NewParseError("bad shape", nil)) {
		t.Error("parse errors should not be retryable")
	}
	if IsRetryable(errors.New("boom")) {
		t.Error("plain errors should not be retryable")
	}
}
