// Package apierr provides shared error sentinels and retry infrastructure
// for HTTP-based generation and transcription clients. Provider-specific
// failures are classified into these sentinels at the adapter boundary.
//
// Providers map HTTP status codes to these errors using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"context"
	"errors"
)

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request attempt timed out (retryable).
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates the provider answered with a 5xx status (retryable).
	ErrServer = errors.New("server error")

	// ErrTransport indicates the request never produced an HTTP response:
	// connection reset, DNS failure, truncated body (retryable).
	ErrTransport = errors.New("transport failure")
)

// IsRetryable reports whether a classified error is transient.
// Rate limits, timeouts, server errors and transport failures are retried;
// everything else, including cancellation of the caller's context, is terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch {
	case errors.Is(err, ErrRateLimit),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrServer),
		errors.Is(err, ErrTransport):
		return true
	}
	return false
}
