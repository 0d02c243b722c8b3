package openai

import (
	"io"
	"log/slog"
	"testing"

	"github.com/poiesic/sosai/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewProvider(t *testing.T) {
	t.Run("with speech", func(t *testing.T) {
		provider, err := NewProvider(ai.NewConfig(ai.WithHost("http://localhost:11434")))
		require.NoError(t, err)
		defer provider.Close()

		assert.NotNil(t, provider.Embedder())
		assert.NotNil(t, provider.Generator())
		assert.NotNil(t, provider.Synthesizer())
	})

	t.Run("without speech", func(t *testing.T) {
		provider, err := NewProvider(ai.NewConfig(ai.WithSpeechHost("")))
		require.NoError(t, err)
		defer provider.Close()

		assert.Nil(t, provider.Synthesizer())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithEmbeddingModel("")))
		assert.Error(t, err)
	})
}
