package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/sosai/ai/mock"
)

var audioURL = regexp.MustCompile(`^/static/[0-9a-f]{32}\.mp3$`)

func TestNewService(t *testing.T) {
	_, err := NewService(nil, t.TempDir())
	assert.ErrorIs(t, err, ErrSynthesizerRequired)

	_, err = NewService(mock.NewMockSynthesizer(), "")
	assert.Error(t, err)

	_, err = NewService(mock.NewMockSynthesizer(), t.TempDir(), WithURLPrefix("audio"))
	assert.Error(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "static")
	s, err := NewService(mock.NewMockSynthesizer(), dir, WithURLPrefix("/audio"))
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, "/audio/", s.URLPrefix())
}

func TestService_Speak(t *testing.T) {
	dir := t.TempDir()
	synth := mock.NewMockSynthesizer()
	var gotText, gotLang string
	synth.SynthesizeFunc = func(_ context.Context, text, lang string) ([]byte, error) {
		gotText, gotLang = text, lang
		return []byte("ID3 fake audio"), nil
	}

	s, err := NewService(synth, dir)
	require.NoError(t, err)

	url, err := s.Speak(context.Background(), "  119에   신고해 주세요 ", "")
	require.NoError(t, err)
	assert.Regexp(t, audioURL, url)
	assert.Equal(t, "119에 신고해 주세요", gotText)
	assert.Equal(t, DefaultLang, gotLang)

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/static/")))
	require.NoError(t, err)
	assert.Equal(t, "ID3 fake audio", string(data))

	other, err := s.Speak(context.Background(), "다른 안내", "en")
	require.NoError(t, err)
	assert.NotEqual(t, url, other)
	assert.Equal(t, "en", gotLang)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files are cleaned up")
}

func TestService_SpeakErrors(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		synth := mock.NewMockSynthesizer()
		s, err := NewService(synth, t.TempDir())
		require.NoError(t, err)

		_, err = s.Speak(context.Background(), "   ", "ko")
		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Equal(t, 0, synth.CallCount())
	})

	t.Run("synthesizer failure", func(t *testing.T) {
		synth := mock.NewMockSynthesizer()
		synth.SynthesizeFunc = func(context.Context, string, string) ([]byte, error) {
			return nil, errors.New("quota exceeded")
		}
		s, err := NewService(synth, t.TempDir())
		require.NoError(t, err)

		_, err = s.Speak(context.Background(), "안내", "ko")
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("no audio", func(t *testing.T) {
		synth := mock.NewMockSynthesizer()
		synth.SynthesizeFunc = func(context.Context, string, string) ([]byte, error) {
			return nil, nil
		}
		s, err := NewService(synth, t.TempDir())
		require.NoError(t, err)

		_, err = s.Speak(context.Background(), "안내", "ko")
		assert.Error(t, err)
	})
}

func TestService_Prune(t *testing.T) {
	dir := t.TempDir()
	s, err := NewService(mock.NewMockSynthesizer(), dir)
	require.NoError(t, err)

	oldURL, err := s.Speak(context.Background(), "오래된 안내", "ko")
	require.NoError(t, err)
	newURL, err := s.Speak(context.Background(), "새 안내", "ko")
	require.NoError(t, err)

	oldPath := filepath.Join(dir, strings.TrimPrefix(oldURL, "/static/"))
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	removed, err := s.Prune(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, filepath.Join(dir, strings.TrimPrefix(newURL, "/static/")))
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
}
