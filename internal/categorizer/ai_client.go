package categorizer

import (
	"context"
	"sync"
)

// AIClient classifies a transaction description into one category token.
// The raw answer is returned; the caller validates it against the vocabulary.
type AIClient interface {
	Classify(ctx context.Context, description string) (string, error)
}

// MockAIClient is a scripted AIClient that counts its calls.
type MockAIClient struct {
	// Response is returned when ClassifyFunc is nil.
	Response     string
	Err          error
	ClassifyFunc func(ctx context.Context, description string) (string, error)

	mu    sync.Mutex
	calls []string
}

// Classify records the call and returns the scripted answer.
func (m *MockAIClient) Classify(ctx context.Context, description string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, description)
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, description)
	}
	return m.Response, m.Err
}

// CallCount returns the number of Classify calls.
func (m *MockAIClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the descriptions passed to Classify.
func (m *MockAIClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
