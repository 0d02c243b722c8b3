package mock

import (
	"context"
	"sync"
)

// MockGenerator is a test double for ai.AnswerProvider.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, query, personalization string) (string, error)

	mu        sync.Mutex
	callCount int
	lastQuery string
	lastInfo  string
}

// NewMockGenerator creates a mock generator that echoes the query.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records its arguments and returns the injected or default answer.
func (m *MockGenerator) Generate(ctx context.Context, query, personalization string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastQuery = query
	m.lastInfo = personalization
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, query, personalization)
	}
	return "mock answer: " + query, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastCall returns the arguments of the most recent Generate call.
func (m *MockGenerator) LastCall() (query, personalization string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery, m.lastInfo
}
