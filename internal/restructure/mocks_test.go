package restructure_test

import (
	"context"
	"sync"

	"github.com/alnah/podscribe/internal/generate"
)

// ---------------------------------------------------------------------------
// Mock Generator
// ---------------------------------------------------------------------------

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
	return `{"sections":[{"title":"T","content":"C"}]}`, nil
}

func (m *mockGenerator) Calls() []generate.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generate.Request(nil), m.calls...)
}

func (m *mockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
