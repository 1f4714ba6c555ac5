package llm

import (
	"context"
	"sync"
)

// MockCompletion is a canned completion for the MockProvider.
type MockCompletion struct {
	Text  string
	Usage Usage
	Err   error
}

// MockProvider is a deterministic Provider for testing and development.
// It returns canned completions in FIFO order and records all requests.
type MockProvider struct {
	mu          sync.Mutex
	completions []MockCompletion
	Calls       []Request
}

// NewMockProvider creates a MockProvider with the given canned completions.
func NewMockProvider(completions ...MockCompletion) *MockProvider {
	return &MockProvider{completions: completions}
}

// Complete returns the next canned completion or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Complete(_ context.Context, req Request) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.completions) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	next := m.completions[0]
	m.completions = m.completions[1:]

	if next.Err != nil {
		return nil, next.Err
	}

	return &Completion{
		Text:       next.Text,
		Usage:      next.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddCompletion appends a canned completion to the queue.
func (m *MockProvider) AddCompletion(c MockCompletion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, c)
}

// CallCount returns the number of Complete calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
