// Package generate wraps one-shot text-generation calls: build a request,
// execute it, classify the outcome, and retry transient failures with
// exponential backoff. Requests are stateless; nothing is remembered
// between calls.
package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is a single generation call.
type Request struct {
	System    string // system prompt
	User      string // user message
	MaxTokens int    // output token cap; 0 uses the client default

	// Schema optionally constrains output to a JSON schema on providers
	// that support structured output. Others rely on the prompt alone.
	Schema json.Marshaler
}

// Generator produces text for a request.
// Implementations retry transient failures internally; a returned error is final.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Default configuration values.
const (
	// Three attempts total: the first plus two retries.
	defaultMaxRetries = 2

	// Backoff is 2^attempt seconds: 2s after attempt 1, 4s after attempt 2.
	defaultBaseDelay = 2 * time.Second
	defaultMaxDelay  = 30 * time.Second

	// Formatting a 12K-character chunk can take minutes on large models.
	defaultAttemptTimeout = 5 * time.Minute

	defaultMaxOutputTokens = 16000

	// Response size limit to prevent OOM from malformed responses (10MB).
	maxResponseSize = 10 * 1024 * 1024
)

// httpDoer abstracts the HTTP client for testing.
// *http.Client satisfies it, as does go-openai's HTTPDoer.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// settings is shared by every client constructor.
type settings struct {
	model          string
	baseURL        string
	httpClient     httpDoer
	maxRetries     int
	baseDelay      time.Duration
	maxDelay       time.Duration
	attemptTimeout time.Duration
	maxTokens      int
	logger         *zap.Logger
}

func newSettings(model, baseURL string, opts []Option) settings {
	s := settings{
		model:          model,
		baseURL:        baseURL,
		maxRetries:     defaultMaxRetries,
		baseDelay:      defaultBaseDelay,
		maxDelay:       defaultMaxDelay,
		attemptTimeout: defaultAttemptTimeout,
		maxTokens:      defaultMaxOutputTokens,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a generation client.
type Option func(*settings)

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithBaseURL sets a custom base URL (for testing or proxies).
func WithBaseURL(url string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c httpDoer) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(s *settings) {
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// WithAttemptTimeout bounds the wall-clock time of a single attempt.
// An expired attempt is retried; it does not cancel sibling requests.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

// WithMaxTokens sets the output token cap used when a Request leaves it at 0.
func WithMaxTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func (s settings) tokensFor(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return s.maxTokens
}
