package mock

import (
	"context"
	"sync/atomic"
)

// MockSynthesizer is a test double for ai.Synthesizer.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, returns the text bytes.
	SynthesizeFunc func(ctx context.Context, text, lang string) ([]byte, error)

	callCount atomic.Int64
}

// NewMockSynthesizer creates a mock synthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	m.callCount.Add(1)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, lang)
	}
	return []byte(text), nil
}

func (m *MockSynthesizer) Format() string {
	return "mp3"
}

// CallCount returns the number of Synthesize calls.
func (m *MockSynthesizer) CallCount() int {
	return int(m.callCount.Load())
}
