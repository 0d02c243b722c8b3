// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/sosai/ai"
	goopenai "github.com/sashabaranov/go-openai"
)

// ErrEmptyAudio is returned when the speech service answers with no audio.
var ErrEmptyAudio = errors.New("speech service returned no audio")

type speechClient interface {
	CreateSpeech(ctx context.Context, request goopenai.CreateSpeechRequest) (goopenai.RawResponse, error)
}

// Synthesizer implements ai.Synthesizer using the OpenAI speech endpoint.
// The model detects the language from the input text, so lang is only
// recorded for diagnostics.
type Synthesizer struct {
	client speechClient
	model  goopenai.SpeechModel
	voice  goopenai.SpeechVoice
	logger *slog.Logger
}

var _ ai.Synthesizer = (*Synthesizer)(nil)

func newSynthesizer(config *ai.Config) (*Synthesizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientConfig := goopenai.DefaultConfig(config.APIToken)
	clientConfig.BaseURL = config.SpeechHost

	return &Synthesizer{
		client: goopenai.NewClientWithConfig(clientConfig),
		model:  goopenai.SpeechModel(config.SpeechModel),
		voice:  goopenai.SpeechVoice(config.SpeechVoice),
		logger: slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewSynthesizer creates a new text-to-speech client.
//
// Returns ai.Synthesizer interface to enforce abstraction.
func NewSynthesizer(config *ai.Config) (ai.Synthesizer, error) {
	return newSynthesizer(config)
}

// Synthesize returns MP3 audio for text.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	s.logger.Debug("synthesizing speech", "length", len(text), "lang", lang)

	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		s.logger.Error("speech request failed", "err", err)
		return nil, err
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	return audio, nil
}

// Format reports the audio container produced by Synthesize.
func (s *Synthesizer) Format() string {
	return "mp3"
}
