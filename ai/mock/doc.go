// Package mock provides test doubles for the ai package interfaces.
//
// Each mock exposes function fields for behavior injection and a call
// counter for assertions:
//
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockGenerator: Echoes the query with a fixed prefix
//   - MockSynthesizer: Returns the text bytes as "audio"
//   - MockProvider: Aggregates the three mocks
package mock
