package sosai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sosai/ai/mock"
	"github.com/poiesic/sosai/config"
	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/events"
)

const testQuestions = `question,condition,intent,embedding
물집이 생겼어요,화상,물집,"[1, 0]"
코피가 나요,출혈,코피,"[0, 1]"
`

const testAnswers = `condition,intent,answer
화상,물집,물집은 터뜨리지 마세요.
화상,물집,물집 부위를 냉찜질로 식혀 주세요.
출혈,코피,콧방울을 눌러 주세요.
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.QuestionsPath = filepath.Join(dir, "questions.csv")
	cfg.AnswersPath = filepath.Join(dir, "answers.csv")
	cfg.DataDir = filepath.Join(dir, "db")
	cfg.StaticDir = filepath.Join(dir, "static")
	cfg.JWTSecret = "test-secret"
	require.NoError(t, os.WriteFile(cfg.QuestionsPath, []byte(testQuestions), 0o644))
	require.NoError(t, os.WriteFile(cfg.AnswersPath, []byte(testAnswers), 0o644))
	return cfg
}

func testProvider() *mock.MockProvider {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		switch {
		case strings.Contains(text, "물집"):
			return []float32{1, 0}, nil
		case strings.Contains(text, "냉찜질"):
			return []float32{0.9, 0.1}, nil
		case strings.Contains(text, "코피"):
			return []float32{0, 1}, nil
		default:
			return []float32{0.5, 0.5}, nil
		}
	}
	return mock.NewMockProviderWithServices(embedder, mock.NewMockGenerator(), mock.NewMockSynthesizer()).(*mock.MockProvider)
}

func TestNewApp(t *testing.T) {
	t.Run("wires every service", func(t *testing.T) {
		app, err := NewApp(testConfig(t), WithProvider(testProvider()), WithInMemoryStorage())
		require.NoError(t, err)
		defer app.Close()

		assert.NotNil(t, app.Corpus().Current())
		assert.Equal(t, 2, app.Corpus().Current().Len())
		assert.NotNil(t, app.Retriever())
		assert.Equal(t, "rerank", app.Retriever().Policy().Name())
		assert.NotNil(t, app.Speech())
		assert.NotNil(t, app.Auth())
		assert.NotNil(t, app.Profiles())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Policy = "random"
		_, err := NewApp(cfg, WithProvider(testProvider()), WithInMemoryStorage())
		assert.Error(t, err)
	})

	t.Run("missing corpus is not fatal", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.QuestionsPath = filepath.Join(t.TempDir(), "missing.csv")
		app, err := NewApp(cfg, WithProvider(testProvider()), WithInMemoryStorage())
		require.NoError(t, err)
		defer app.Close()

		assert.Nil(t, app.Corpus().Current())
		assert.ErrorIs(t, app.Corpus().LastError(), core.ErrCorpusLoad)

		_, err = app.Retriever().Retrieve(context.Background(), "물집이 생겼어요", 1)
		assert.ErrorIs(t, err, core.ErrCorpusUnavailable)
	})

	t.Run("on-disk storage", func(t *testing.T) {
		app, err := NewApp(testConfig(t), WithProvider(testProvider()))
		require.NoError(t, err)
		assert.NoError(t, app.Close())
	})

	t.Run("storage path is a file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DataDir = cfg.QuestionsPath
		_, err := NewApp(cfg, WithProvider(testProvider()))
		assert.Error(t, err)
	})
}

func TestApp_AnswerProvider(t *testing.T) {
	provider := testProvider()

	cfg := testConfig(t)
	app, err := NewApp(cfg, WithProvider(provider), WithInMemoryStorage())
	require.NoError(t, err)
	defer app.Close()

	answer, err := app.AnswerProvider().Generate(context.Background(), "물집이 생겼어요", "")
	require.NoError(t, err)
	assert.Equal(t, "물집 부위를 냉찜질로 식혀 주세요.", answer)

	cfg.AnswerProvider = config.ProviderLLM
	answer, err = app.AnswerProvider().Generate(context.Background(), "물집이 생겼어요", "혈액형: A+")
	require.NoError(t, err)
	assert.Equal(t, "mock answer: 물집이 생겼어요", answer)
	_, info := provider.GetMockGenerator().LastCall()
	assert.Equal(t, "혈액형: A+", info)
}

func TestApp_DirectPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Policy = config.PolicyDirect
	app, err := NewApp(cfg, WithProvider(testProvider()), WithInMemoryStorage())
	require.NoError(t, err)
	defer app.Close()

	result, err := app.Retriever().Retrieve(context.Background(), "물집이 생겼어요", 1)
	require.NoError(t, err)
	assert.Equal(t, "물집은 터뜨리지 마세요.", result.BestAnswer)
}

func TestApp_NewServer(t *testing.T) {
	app, err := NewApp(testConfig(t), WithProvider(testProvider()), WithInMemoryStorage(), WithPublisher(events.NopPublisher{}))
	require.NoError(t, err)
	defer app.Close()

	srv, err := app.NewServer()
	require.NoError(t, err)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodPost, "/answer", strings.NewReader(`{"question": "물집이 생겼어요", "top_k": 1}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "냉찜질")
}

func TestApp_Serve(t *testing.T) {
	cfg := testConfig(t)
	cfg.Addr = "127.0.0.1:0"
	app, err := NewApp(cfg, WithProvider(testProvider()), WithInMemoryStorage())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestApp_PruneAudio(t *testing.T) {
	cfg := testConfig(t)
	cfg.AudioMaxAge = time.Nanosecond
	app, err := NewApp(cfg, WithProvider(testProvider()), WithInMemoryStorage())
	require.NoError(t, err)
	defer app.Close()

	url, err := app.Speech().Speak(context.Background(), "119에 신고해 주세요", "")
	require.NoError(t, err)
	path := filepath.Join(app.Speech().Dir(), strings.TrimPrefix(url, app.Speech().URLPrefix()))
	require.FileExists(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.pruneAudio(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}
