package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poiesic/sosai/ai"
	"github.com/poiesic/sosai/core"
)

// Policy picks the best answer among the candidates sharing a category key.
// Select returns core.ErrNoMatch when candidates is empty.
type Policy interface {
	Name() string
	Select(ctx context.Context, query []float32, candidates []core.AnswerRecord) (*core.AnswerRecord, error)
}

// DirectPolicy picks the first candidate in table order.
type DirectPolicy struct{}

var _ Policy = DirectPolicy{}

func (DirectPolicy) Name() string { return "direct" }

func (DirectPolicy) Select(_ context.Context, _ []float32, candidates []core.AnswerRecord) (*core.AnswerRecord, error) {
	if len(candidates) == 0 {
		return nil, core.ErrNoMatch
	}
	return &candidates[0], nil
}

// Scoped is implemented by policies holding state for one corpus version.
// The retriever calls Scope with the fingerprint of the snapshot it is
// about to select answers from.
type Scoped interface {
	Scope(fingerprint core.ID)
}

// RerankPolicy narrows the candidates to those containing a priority
// keyword, when any do, then picks the candidate whose embedding is most
// similar to the query. Answer embeddings are cached by text for the
// current corpus version.
type RerankPolicy struct {
	// Keywords overrides the priority flags computed when the corpus was
	// loaded. Nil uses AnswerRecord.HasPriority.
	Keywords []string
	Embedder ai.Embedder

	cache answerCache
}

var (
	_ Policy = (*RerankPolicy)(nil)
	_ Scoped = (*RerankPolicy)(nil)
)

// NewRerankPolicy creates a policy that uses the corpus priority flags.
func NewRerankPolicy(embedder ai.Embedder) *RerankPolicy {
	return &RerankPolicy{Embedder: embedder}
}

func (p *RerankPolicy) Name() string { return "rerank" }

// Scope drops cached answer embeddings when fingerprint differs from the
// corpus they were computed for.
func (p *RerankPolicy) Scope(fingerprint core.ID) {
	p.cache.reset(fingerprint)
}

func (p *RerankPolicy) Select(ctx context.Context, query []float32, candidates []core.AnswerRecord) (*core.AnswerRecord, error) {
	if len(candidates) == 0 {
		return nil, core.ErrNoMatch
	}

	pool := p.prioritize(candidates)
	if len(pool) == 1 {
		return pool[0], nil
	}

	vectors, err := p.embed(ctx, pool)
	if err != nil {
		return nil, err
	}

	best, bestScore := 0, float32(-2)
	for i, vec := range vectors {
		score, err := CosineSimilarity(query, vec)
		if err != nil {
			return nil, err
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return pool[best], nil
}

func (p *RerankPolicy) prioritize(candidates []core.AnswerRecord) []*core.AnswerRecord {
	all := make([]*core.AnswerRecord, 0, len(candidates))
	var priority []*core.AnswerRecord
	for i := range candidates {
		a := &candidates[i]
		all = append(all, a)
		if p.hasPriority(a) {
			priority = append(priority, a)
		}
	}
	if len(priority) > 0 {
		return priority
	}
	return all
}

func (p *RerankPolicy) hasPriority(a *core.AnswerRecord) bool {
	if p.Keywords == nil {
		return a.HasPriority
	}
	for _, kw := range p.Keywords {
		if kw != "" && strings.Contains(a.Text, kw) {
			return true
		}
	}
	return false
}

// embed returns one vector per answer, embedding only uncached texts.
func (p *RerankPolicy) embed(ctx context.Context, answers []*core.AnswerRecord) ([][]float32, error) {
	vectors := make([][]float32, len(answers))
	var missing []string
	var missingIdx []int
	for i, a := range answers {
		if v, ok := p.cache.load(a.Text); ok {
			vectors[i] = v
			continue
		}
		missing = append(missing, a.Text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := p.Embedder.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("embed answers: %w", err)
	}
	if len(embedded) != len(missing) {
		return nil, fmt.Errorf("embed answers: got %d vectors for %d texts", len(embedded), len(missing))
	}
	for j, vec := range embedded {
		p.cache.store(missing[j], vec)
		vectors[missingIdx[j]] = vec
	}
	return vectors, nil
}

type answerCache struct {
	mu      sync.RWMutex
	scope   core.ID
	vectors map[string][]float32
}

func (c *answerCache) reset(scope core.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope != scope || c.vectors == nil {
		c.scope = scope
		c.vectors = make(map[string][]float32)
	}
}

func (c *answerCache) load(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[text]
	return v, ok
}

func (c *answerCache) store(text string, v []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vectors == nil {
		c.vectors = make(map[string][]float32)
	}
	c.vectors[text] = v
}

func (c *answerCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
