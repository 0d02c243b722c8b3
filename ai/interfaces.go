package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerProvider produces guidance text for a user's situation.
// Both the corpus retriever and the LLM generator implement it, so
// callers pick a strategy by configuration only.
// personalization is free text describing the user (may be empty).
type AnswerProvider interface {
	Generate(ctx context.Context, query, personalization string) (string, error)
}

// Synthesizer converts text to encoded audio.
type Synthesizer interface {
	// Synthesize returns the audio for text in the given language.
	// The encoding is reported by Format.
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)

	// Format returns the file extension of the produced audio, e.g. "mp3".
	Format() string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the LLM-backed answer provider.
	Generator() AnswerProvider

	// Synthesizer returns the speech service, or nil when speech is not configured.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	Close() error
}
