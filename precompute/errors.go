package precompute

import "errors"

var (
	// ErrInvalidAttempts is returned when a retry policy allows no attempts.
	ErrInvalidAttempts = errors.New("attempts must be greater than 0")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
