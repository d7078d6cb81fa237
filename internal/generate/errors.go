package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/alnah/podscribe/internal/apierr"
)

// ErrEmptyAPIKey indicates that the API key was not provided.
var ErrEmptyAPIKey = errors.New("API key is required")

// ErrEmptyResponse indicates a successful call that carried no text.
var ErrEmptyResponse = errors.New("empty response from model")

// APIError is a non-200 answer from the generation service.
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error %d", e.Provider, e.StatusCode)
}

// classifyStatus attaches the apierr sentinel matching an HTTP status.
// Definite client errors are terminal; 429, 408 and 5xx are retryable.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests: // 429
		return fmt.Errorf("%w: %w", err, apierr.ErrRateLimit)
	case status == http.StatusUnauthorized, status == http.StatusForbidden: // 401, 403
		return fmt.Errorf("%w: %w", err, apierr.ErrAuthFailed)
	case status == http.StatusPaymentRequired: // 402
		return fmt.Errorf("%w: %w", err, apierr.ErrQuotaExceeded)
	case status == http.StatusRequestTimeout: // 408
		return fmt.Errorf("%w: %w", err, apierr.ErrTimeout)
	case status >= 500: // includes 529 overloaded
		return fmt.Errorf("%w: %w", err, apierr.ErrServer)
	case status >= 400:
		return fmt.Errorf("%w: %w", err, apierr.ErrBadRequest)
	}
	return err
}

// classifyTransport maps errors that never produced an HTTP status.
// Caller cancellation stays terminal; deadlines and network failures retry.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", err, apierr.ErrTimeout)
		}
		return fmt.Errorf("%w: %w", err, apierr.ErrTransport)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", err, apierr.ErrTransport)
	}
	return err
}
