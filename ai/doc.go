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

// Package ai provides abstractions for the model-backed services used by sosai.
//
// This package defines interfaces for text embeddings, answer generation
// and speech synthesis, so the retrieval engine and HTTP layer depend on
// abstractions rather than concrete model clients.
//
// # Design Principles
//
// The package is designed around four interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - AnswerProvider: Produces guidance text for a query plus optional
//     personalization. Implemented by the LLM generator and by the
//     corpus retriever in package search.
//   - Synthesizer: Converts guidance text to audio
//   - AIProvider: Aggregates the services for initialization and shutdown
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Mock constructors (mock.NewMockEmbedder, ...) return
// CONCRETE types so tests can inject behavior and read call counts:
//
//	mockEmbed := mock.NewMockEmbedder()
//	mockEmbed.EmbedTextFunc = ...
//	count := mockEmbed.CallCount()
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "물집이 생겼어요")
//	text, err := provider.Generator().Generate(ctx, "손을 데었어요", "")
package ai
