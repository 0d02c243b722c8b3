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
	"log/slog"
	"strings"

	"github.com/poiesic/sosai/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.AnswerProvider with an OpenAI-compatible chat model.
// Model failures are logged and reported to the caller as
// GenerationFailedMessage rather than an error, so the user always
// receives actionable text.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.AnswerProvider = (*Generator)(nil)

func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return newGeneratorWithModel(client), nil
}

func newGeneratorWithModel(model llms.Model) *Generator {
	return &Generator{
		client: model,
		logger: slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a new LLM answer provider using the provided configuration.
//
// Returns ai.AnswerProvider interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.AnswerProvider, error) {
	return newGenerator(config)
}

// Generate answers query, taking personalization into account when present.
func (g *Generator) Generate(ctx context.Context, query, personalization string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(guidanceSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(query, personalization)),
			},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.2))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.logger.Error("failed to generate content", "err", err)
		return GenerationFailedMessage, nil
	}

	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model")
		return GenerationFailedMessage, nil
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		g.logger.Warn("model returned empty content")
		return GenerationFailedMessage, nil
	}
	return text, nil
}
