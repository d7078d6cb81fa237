package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/feed"
	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time
	Logger *zap.Logger

	// Factories for domain objects
	ConfigLoader       ConfigLoader
	GeneratorFactory   GeneratorFactory
	TranscriberFactory TranscriberFactory
	FeedReader         FeedReader
}

// ConfigLoader loads the configuration, using getenv for fallbacks.
type ConfigLoader interface {
	Load(getenv func(string) string) (config.Config, error)
}

// GeneratorFactory creates generation clients for a provider.
type GeneratorFactory interface {
	NewGenerator(p Provider, apiKey string, opts ...generate.Option) (generate.Generator, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey string, logger *zap.Logger) transcribe.Transcriber
}

// FeedReader lists a podcast feed's episodes.
type FeedReader interface {
	Episodes(ctx context.Context, feedURL string, limit int) ([]feed.Episode, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) EnvOption {
	return func(e *Env) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithGeneratorFactory sets the generator factory.
func WithGeneratorFactory(f GeneratorFactory) EnvOption {
	return func(e *Env) {
		e.GeneratorFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// WithFeedReader sets the feed reader.
func WithFeedReader(r FeedReader) EnvOption {
	return func(e *Env) {
		e.FeedReader = r
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		Logger:             zap.NewNop(),
		ConfigLoader:       defaultConfigLoader{},
		GeneratorFactory:   defaultGeneratorFactory{},
		TranscriberFactory: defaultTranscriberFactory{},
		FeedReader:         feed.NewReader(),
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// NewLogger builds the diagnostic logger: debug-level development output
// when verbose, warnings and errors only otherwise. Both write to stderr.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return cfg.Build()
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(getenv func(string) string) (config.Config, error) {
	return config.Load(getenv)
}

type defaultGeneratorFactory struct{}

func (defaultGeneratorFactory) NewGenerator(p Provider, apiKey string, opts ...generate.Option) (generate.Generator, error) {
	switch p.OrDefault() {
	case OpenAIProvider:
		c, err := generate.NewOpenAIClient(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case AnthropicProvider:
		c, err := generate.NewAnthropicClient(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%s: %w", p, ErrInvalidProvider)
}

type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string, logger *zap.Logger) transcribe.Transcriber {
	return transcribe.NewOpenAITranscriber(openai.NewClient(apiKey), transcribe.WithLogger(logger))
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = defaultConfigLoader{}
	_ GeneratorFactory   = defaultGeneratorFactory{}
	_ TranscriberFactory = defaultTranscriberFactory{}
	_ FeedReader         = (*feed.Reader)(nil)
)
