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

import (
	"cmp"
	"context"
	"slices"

	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/corpus"
)

// Index finds the questions of a corpus snapshot most similar to a query
// embedding. Returned matches point into c.
type Index interface {
	// Search returns up to k matches sorted by descending score. k is
	// clamped to [1, c.Len()].
	Search(ctx context.Context, c *corpus.Corpus, vector []float32, k int) ([]core.Match, error)
}

// ScanIndex scores every question of the snapshot it is given. It is the
// retriever's default index.
type ScanIndex struct{}

var _ Index = ScanIndex{}

func (ScanIndex) Search(ctx context.Context, c *corpus.Corpus, vector []float32, k int) ([]core.Match, error) {
	if c == nil {
		return nil, core.ErrCorpusUnavailable
	}
	return NewMemoryIndex(c.Questions()).Search(ctx, vector, k)
}

// MemoryIndex is a brute-force cosine index over an in-memory question
// slice. Every search scores every question.
type MemoryIndex struct {
	questions []core.QuestionRecord
}

// NewMemoryIndex indexes questions without copying them.
func NewMemoryIndex(questions []core.QuestionRecord) *MemoryIndex {
	return &MemoryIndex{questions: questions}
}

func (m *MemoryIndex) Len() int {
	return len(m.questions)
}

// Search scores all questions against vector. Equal scores keep corpus
// order.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]core.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.questions) == 0 {
		return nil, core.ErrCorpusUnavailable
	}
	k = clampK(k, len(m.questions))

	matches := make([]core.Match, 0, len(m.questions))
	for i := range m.questions {
		score, err := CosineSimilarity(vector, m.questions[i].Vector)
		if err != nil {
			return nil, err
		}
		matches = append(matches, core.Match{Question: &m.questions[i], Score: score})
	}

	slices.SortStableFunc(matches, func(a, b core.Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return matches[:k], nil
}

func clampK(k, n int) int {
	return max(1, min(k, n))
}
