package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	stdout       *syncBuffer
	stderr       *syncBuffer
	config       *mockConfigLoader
	generator    *mockGenerator
	generators   *mockGeneratorFactory
	transcriber  *mockTranscriber
	transcribers *mockTranscriberFactory
	feed         *mockFeedReader
}

// testEnv creates an Env with every dependency mocked and a clock that
// advances one second per call.
func testEnv(getenv func(string) string) (*Env, *testMocks) {
	gen := &mockGenerator{}
	tr := &mockTranscriber{}
	m := &testMocks{
		stdout:       &syncBuffer{},
		stderr:       &syncBuffer{},
		config:       &mockConfigLoader{},
		generator:    gen,
		generators:   &mockGeneratorFactory{gen: gen},
		transcriber:  tr,
		transcribers: &mockTranscriberFactory{transcriber: tr},
		feed:         &mockFeedReader{},
	}

	var mu sync.Mutex
	now := time.Date(2026, 1, 26, 14, 30, 0, 0, time.UTC)
	env := &Env{
		Stdout: m.stdout,
		Stderr: m.stderr,
		Getenv: getenv,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(time.Second)
			return now
		},
		Logger:             zap.NewNop(),
		ConfigLoader:       m.config,
		GeneratorFactory:   m.generators,
		TranscriberFactory: m.transcribers,
		FeedReader:         m.feed,
	}
	return env, m
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for both providers.
func defaultTestEnv(key string) string {
	switch key {
	case EnvOpenAIAPIKey:
		return "test-openai-key"
	case EnvAnthropicAPIKey:
		return "test-anthropic-key"
	default:
		return ""
	}
}

// writeInput creates a transcript file and returns its path.
func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create input: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
