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

package search

import "errors"

var (
	// ErrCorpusRequired is returned by constructors given a nil corpus holder.
	ErrCorpusRequired = errors.New("corpus holder required")

	// ErrEmbedderRequired is returned by NewRetriever without an embedder.
	// Queries cannot be compared to precomputed vectors without one.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidTopK is returned for a non-positive default result count.
	ErrInvalidTopK = errors.New("top-k must be positive")
)
