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

// Package search answers first-aid questions by semantic retrieval.
//
// A Retriever normalizes the query, embeds it, and finds the most similar
// questions in the loaded corpus. Each matched question's category key
// selects the candidate answers; a Policy picks one:
//   - DirectPolicy takes the first answer recorded for the category
//   - RerankPolicy prefers answers containing first-aid action keywords,
//     then picks the one whose embedding is closest to the query
//
// An optional minimum similarity drops weak matches from the result list.
// When nothing survives, or the category has no answers, the best answer
// is core.NoAnswerFound rather than an error.
package search
