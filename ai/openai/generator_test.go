package openai

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	response *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.response, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	part, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func TestGenerator_Generate(t *testing.T) {
	model := &fakeModel{
		response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "  흐르는 찬물로 15분 이상 식혀 주세요.  "}},
		},
	}
	g := newGeneratorWithModel(model)

	text, err := g.Generate(context.Background(), "손을 데었어요", "알레르기: 페니실린")
	require.NoError(t, err)
	assert.Equal(t, "흐르는 찬물로 15분 이상 식혀 주세요.", text)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, guidanceSystemPrompt, textOf(t, model.messages[0]))
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	user := textOf(t, model.messages[1])
	assert.Contains(t, user, "알레르기: 페니실린")
	assert.Contains(t, user, "손을 데었어요")
}

func TestGenerator_Failures(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{"model error", &fakeModel{err: errors.New("connection refused")}},
		{"no choices", &fakeModel{response: &llms.ContentResponse{}}},
		{"blank content", &fakeModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  "}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGeneratorWithModel(tt.model)
			text, err := g.Generate(context.Background(), "질문", "")
			require.NoError(t, err)
			assert.Equal(t, GenerationFailedMessage, text)
		})
	}
}

func TestGenerator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newGeneratorWithModel(&fakeModel{err: context.Canceled})
	_, err := g.Generate(ctx, "질문", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildUserPrompt(t *testing.T) {
	assert.Equal(t, "질문", buildUserPrompt("질문", ""))
	assert.Equal(t, "질문", buildUserPrompt("질문", "  \n "))

	prompt := buildUserPrompt("질문", "혈액형: O+")
	assert.True(t, strings.HasPrefix(prompt, "[사용자 정보]\n혈액형: O+"))
	assert.True(t, strings.HasSuffix(prompt, "[상황]\n질문"))
}

type fakeSpeechClient struct {
	audio   string
	err     error
	request goopenai.CreateSpeechRequest
}

func (f *fakeSpeechClient) CreateSpeech(ctx context.Context, request goopenai.CreateSpeechRequest) (goopenai.RawResponse, error) {
	f.request = request
	if f.err != nil {
		return goopenai.RawResponse{}, f.err
	}
	return goopenai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader(f.audio))}, nil
}

func TestSynthesizer_Synthesize(t *testing.T) {
	client := &fakeSpeechClient{audio: "ID3-audio"}
	s := &Synthesizer{
		client: client,
		model:  goopenai.TTSModel1,
		voice:  goopenai.VoiceAlloy,
		logger: newTestLogger(),
	}

	audio, err := s.Synthesize(context.Background(), "안녕하세요", "ko")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-audio"), audio)
	assert.Equal(t, "mp3", s.Format())
	assert.Equal(t, "안녕하세요", client.request.Input)
	assert.Equal(t, goopenai.SpeechResponseFormatMp3, client.request.ResponseFormat)
	assert.Equal(t, goopenai.VoiceAlloy, client.request.Voice)
}

func TestSynthesizer_Errors(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		s := &Synthesizer{client: &fakeSpeechClient{err: errors.New("401")}, logger: newTestLogger()}
		_, err := s.Synthesize(context.Background(), "텍스트", "ko")
		assert.Error(t, err)
	})

	t.Run("empty audio", func(t *testing.T) {
		s := &Synthesizer{client: &fakeSpeechClient{}, logger: newTestLogger()}
		_, err := s.Synthesize(context.Background(), "텍스트", "ko")
		assert.ErrorIs(t, err, ErrEmptyAudio)
	})
}
