package cli

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/alnah/podscribe/internal/config"
	"github.com/alnah/podscribe/internal/feed"
	"github.com/alnah/podscribe/internal/generate"
	"github.com/alnah/podscribe/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func(getenv func(string) string) (config.Config, error)
}

func (m *mockConfigLoader) Load(getenv func(string) string) (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(getenv)
	}
	return config.Config{}, nil
}

// configWith returns a ConfigLoader returning cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func(func(string) string) (config.Config, error) { return cfg, nil },
	}
}

// ---------------------------------------------------------------------------
// Mock GeneratorFactory + Generator
// ---------------------------------------------------------------------------

// mockGenerator answers by request kind: a formatting request (schema set)
// gets one section echoing the input, a summary request gets "SUMMARY",
// anything else is treated as translation and echoed with a "EN:" prefix.
type mockGenerator struct {
	GenerateFunc func(ctx context.Context, req generate.Request) (string, error)

	mu    sync.Mutex
	calls []generate.Request
}

func (m *mockGenerator) Generate(ctx context.Context, req generate.Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	switch {
	case req.Schema != nil:
		out, _ := json.Marshal(map[string]any{
			"sections": []map[string]string{{"title": "Part", "content": strings.TrimSpace(req.User)}},
		})
		return string(out), nil
	case strings.HasPrefix(req.System, "You summarize"):
		return "SUMMARY", nil
	default:
		return "EN:" + req.User, nil
	}
}

func (m *mockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockGeneratorFactory struct {
	gen *mockGenerator
	Err error

	mu       sync.Mutex
	provider Provider
	apiKey   string
	opts     int
}

func (m *mockGeneratorFactory) NewGenerator(p Provider, apiKey string, opts ...generate.Option) (generate.Generator, error) {
	m.mu.Lock()
	m.provider, m.apiKey, m.opts = p, apiKey, len(opts)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.gen, nil
}

func (m *mockGeneratorFactory) Last() (Provider, string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider, m.apiKey, m.opts
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory + Transcriber
// ---------------------------------------------------------------------------

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, source string, opts transcribe.Options) (string, error)

	mu      sync.Mutex
	sources []string
}

func (m *mockTranscriber) Transcribe(ctx context.Context, source string, opts transcribe.Options) (string, error) {
	m.mu.Lock()
	m.sources = append(m.sources, source)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, source, opts)
	}
	return "Hello and welcome. Today we talk about Go.", nil
}

func (m *mockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

type mockTranscriberFactory struct {
	transcriber *mockTranscriber

	mu     sync.Mutex
	apiKey string
}

func (m *mockTranscriberFactory) NewTranscriber(apiKey string, _ *zap.Logger) transcribe.Transcriber {
	m.mu.Lock()
	m.apiKey = apiKey
	m.mu.Unlock()
	return m.transcriber
}

// ---------------------------------------------------------------------------
// Mock FeedReader
// ---------------------------------------------------------------------------

type mockFeedReader struct {
	episodes []feed.Episode
	err      error

	mu    sync.Mutex
	url   string
	limit int
}

func (m *mockFeedReader) Episodes(_ context.Context, feedURL string, limit int) ([]feed.Episode, error) {
	m.mu.Lock()
	m.url, m.limit = feedURL, limit
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	eps := m.episodes
	if limit > 0 && len(eps) > limit {
		eps = eps[:limit]
	}
	return append([]feed.Episode(nil), eps...), nil
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = (*mockConfigLoader)(nil)
	_ GeneratorFactory   = (*mockGeneratorFactory)(nil)
	_ TranscriberFactory = (*mockTranscriberFactory)(nil)
	_ FeedReader         = (*mockFeedReader)(nil)
)
