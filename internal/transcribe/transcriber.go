// Package transcribe turns episode audio into raw transcript text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/apierr"
	"github.com/alnah/podscribe/internal/format"
	"github.com/alnah/podscribe/internal/lang"
)

// ModelGPT4oMiniTranscribe is the cost-effective transcription model.
// Not yet a constant in go-openai.
const ModelGPT4oMiniTranscribe = "gpt-4o-mini-transcribe"

// MaxFileSize is the transcription API upload limit.
const MaxFileSize = 25 * 1024 * 1024

// Default retry configuration.
const (
	defaultMaxRetries      = 5
	defaultBaseDelay       = 1 * time.Second
	defaultMaxDelay        = 30 * time.Second
	defaultDownloadTimeout = 10 * time.Minute
)

// Options configures transcription behavior.
type Options struct {
	// Prompt provides context to improve transcription accuracy.
	// Useful for show names, guest names, or domain vocabulary.
	Prompt string

	// Language specifies the audio language.
	// Zero value means auto-detect.
	Language lang.Language
}

// Transcriber transcribes episode audio to text.
type Transcriber interface {
	// Transcribe converts the audio at source to text.
	// source is an http(s) URL or a local file path.
	Transcribe(ctx context.Context, source string, opts Options) (string, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio using OpenAI's transcription API.
// It supports automatic retries with exponential backoff for transient errors.
type OpenAITranscriber struct {
	client     audioTranscriber
	httpClient httpDoer
	tempDir    string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *zap.Logger
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// WithHTTPClient sets the client used to download audio.
func WithHTTPClient(c httpDoer) TranscriberOption {
	return func(t *OpenAITranscriber) {
		t.httpClient = c
	}
}

// WithTempDir sets where downloaded audio is staged. Default is os.TempDir.
func WithTempDir(dir string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		t.tempDir = dir
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewOpenAITranscriber creates a new OpenAITranscriber.
// The client is injected to enable testing with mocks.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	return newTranscriber(client, opts)
}

func newTranscriber(client audioTranscriber, opts []TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:     client,
		httpClient: &http.Client{Timeout: defaultDownloadTimeout},
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe fetches the audio at source when it is a URL, then transcribes
// it. Files over MaxFileSize are rejected with ErrFileTooLarge before upload.
// It automatically retries on transient errors (rate limits, timeouts, server errors).
func (t *OpenAITranscriber) Transcribe(ctx context.Context, source string, opts Options) (string, error) {
	audioPath := source
	if isRemote(source) {
		p, err := t.download(ctx, source)
		if err != nil {
			return "", err
		}
		defer func() { _ = os.Remove(p) }()
		audioPath = p
	} else if err := checkSize(source); err != nil {
		return "", err
	}

	req := openai.AudioRequest{
		Model:    ModelGPT4oMiniTranscribe,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   opts.Prompt,
		Language: opts.Language.Base(), // OpenAI only accepts ISO 639-1 base codes
	}

	start := time.Now()
	text, err := t.transcribeWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	t.logger.Info("transcribed audio",
		zap.String("source", source),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len([]rune(text))))
	return text, nil
}

// transcribeWithRetry executes the transcription with exponential backoff retry.
func (t *OpenAITranscriber) transcribeWithRetry(ctx context.Context, req openai.AudioRequest) (string, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			t.logger.Warn("transcription attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err))
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func(int) (string, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		return resp.Text, nil
	}, apierr.IsRetryable)
}

// download stages remote audio in a temp file and returns its path.
func (t *OpenAITranscriber) download(ctx context.Context, source string) (_ string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d from %s", ErrDownload, resp.StatusCode, source)
	}
	if resp.ContentLength > MaxFileSize {
		return "", fmt.Errorf("%s: %w", format.Size(resp.ContentLength), ErrFileTooLarge)
	}

	f, err := os.CreateTemp(t.tempDir, "podscribe-*"+audioExt(source))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close temp file: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	// Read one byte past the limit to detect oversize bodies without a length.
	n, err := io.Copy(f, io.LimitReader(resp.Body, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if n > MaxFileSize {
		return "", ErrFileTooLarge
	}
	return f.Name(), nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// audioExt keeps the URL's extension so the API can infer the format.
func audioExt(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ".mp3"
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return ".mp3"
}

func checkSize(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("failed to stat audio file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%s (%s): %w", p, format.Size(info.Size()), ErrFileTooLarge)
	}
	return nil
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Distinguish between temporary rate limit and quota exceeded (billing issue).
			// Quota exceeded should not be retried - it requires user action.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusNotFound, http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrServer)
		}
	}

	// Check for context timeout/deadline exceeded.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
