package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "auth error 401",
			err:  &AuthError{Provider: "a", StatusCode: 401},
			want: 401,
		},
		{
			name: "auth error 403",
			err:  &AuthError{Provider: "a", StatusCode: 403},
			want: 403,
		},
		{
			name: "auth error without explicit code",
			err:  &AuthError{Provider: "a"},
			want: 401,
		},
		{
			name: "rate limit",
			err:  &RateLimitError{Provider: "a", RetryAfter: time.Second},
			want: 429,
		},
		{
			name: "server error",
			err:  &ProviderError{Provider: "a", StatusCode: 503},
			want: 503,
		},
		{
			name: "network failure",
			err:  &ProviderError{Provider: "a", Cause: errors.New("conn refused")},
			want: 0,
		},
		{
			name: "wrapped auth error",
			err:  fmt.Errorf("attempt failed: %w", &AuthError{Provider: "a", StatusCode: 401}),
			want: 401,
		},
		{
			name: "timeout",
			err:  &TimeoutError{Provider: "a", Timeout: time.Second},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "auth error", err: &AuthError{StatusCode: 401}, want: true},
		{name: "rate limit", err: &RateLimitError{}, want: true},
		{name: "timeout", err: &TimeoutError{}, want: true},
		{name: "server error", err: &ProviderError{StatusCode: 500}, want: true},
		{name: "network failure", err: &ProviderError{StatusCode: 0}, want: true},
		{name: "bad request", err: &ProviderError{StatusCode: 400}, want: false},
		{name: "not found", err: &ProviderError{StatusCode: 404}, want: false},
		{name: "parse error", err: &ParseError{Cause: errors.New("bad json")}, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")

	if got := (&ProviderError{Cause: cause}).Unwrap(); got != cause {
		t.Error("ProviderError.Unwrap() did not return cause")
	}
	if got := (&ParseError{Cause: cause}).Unwrap(); got != cause {
		t.Error("ParseError.Unwrap() did not return cause")
	}
	if got := (&StreamError{Cause: cause}).Unwrap(); got != cause {
		t.Error("StreamError.Unwrap() did not return cause")
	}
	if !errors.Is(&StreamError{Cause: cause}, cause) {
		t.Error("errors.Is failed through StreamError")
	}
}
