package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/poiesic/sosai/ai"
	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/corpus"
)

const (
	DefaultTopK         = 3
	DefaultEmbedTimeout = 10 * time.Second
)

var tracer = otel.Tracer("github.com/poiesic/sosai/search")

// Retriever answers queries from the corpus published by a Holder.
type Retriever struct {
	corpus        *corpus.Holder
	embedder      ai.Embedder
	policy        Policy
	index         Index
	monitor       Monitor
	minSimilarity float32
	embedTimeout  time.Duration
	logger        *slog.Logger
}

var _ ai.AnswerProvider = (*Retriever)(nil)

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithPolicy sets the answer selection policy.
// Default is DirectPolicy.
func WithPolicy(policy Policy) Option {
	return func(r *Retriever) error {
		if policy == nil {
			return errors.New("policy must not be nil")
		}
		r.policy = policy
		return nil
	}
}

// WithMinSimilarity drops matches scoring below min.
// Default keeps every match.
func WithMinSimilarity(min float32) Option {
	return func(r *Retriever) error {
		if math.IsNaN(float64(min)) || min < -1 || min > 1 {
			return fmt.Errorf("minimum similarity %v outside [-1, 1]", min)
		}
		r.minSimilarity = min
		return nil
	}
}

// WithEmbedTimeout bounds each call to the embedder.
// Default is DefaultEmbedTimeout.
func WithEmbedTimeout(d time.Duration) Option {
	return func(r *Retriever) error {
		if d <= 0 {
			return errors.New("embed timeout must be positive")
		}
		r.embedTimeout = d
		return nil
	}
}

// WithIndex replaces the default ScanIndex. The index is always searched
// against the snapshot the request started with.
func WithIndex(index Index) Option {
	return func(r *Retriever) error {
		if index == nil {
			index = ScanIndex{}
		}
		r.index = index
		return nil
	}
}

// WithMonitor sets a monitor used by every Retrieve call.
func WithMonitor(monitor Monitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// NewRetriever creates a retriever over the corpus published by holder.
func NewRetriever(holder *corpus.Holder, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if holder == nil {
		return nil, ErrCorpusRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		corpus:        holder,
		embedder:      embedder,
		policy:        DirectPolicy{},
		index:         ScanIndex{},
		monitor:       &noopMonitor{},
		minSimilarity: float32(math.Inf(-1)),
		embedTimeout:  DefaultEmbedTimeout,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")

	return r, nil
}

// Policy returns the configured answer selection policy.
func (r *Retriever) Policy() Policy {
	return r.policy
}

// Retrieve returns up to topK matches for query with their answers.
// topK below 1 is treated as 1.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (*core.QueryResult, error) {
	return r.RetrieveWithMonitor(ctx, query, topK, r.monitor)
}

// RetrieveWithMonitor is Retrieve with a per-call monitor.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, topK int, monitor Monitor) (*core.QueryResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	ctx, span := tracer.Start(ctx, "search.Retrieve", trace.WithAttributes(
		attribute.Int("search.top_k", topK),
		attribute.String("search.policy", r.policy.Name()),
	))
	defer span.End()

	result, err := r.retrieve(ctx, query, topK, monitor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("search.results", len(result.Results)),
		attribute.Bool("search.found", result.Found()),
	)
	return result, nil
}

func (r *Retriever) retrieve(ctx context.Context, query string, topK int, monitor Monitor) (*core.QueryResult, error) {
	normalized := Normalize(query)
	if normalized == "" {
		return nil, core.ErrEmptyQuery
	}

	c := r.corpus.Current()
	if c == nil || c.Len() == 0 {
		return nil, core.ErrCorpusUnavailable
	}

	if scoped, ok := r.policy.(Scoped); ok {
		scoped.Scope(c.Fingerprint())
	}
	monitor.Start(normalized)

	vector, err := r.embedQuery(ctx, normalized)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", normalized, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(vector)

	matches, err := r.index.Search(ctx, c, vector, topK)
	if err != nil {
		r.logger.Error("error searching index", "err", err)
		return nil, err
	}
	monitor.AfterSearch(matches)

	kept := make([]core.Match, 0, len(matches))
	for _, m := range matches {
		if !belongsTo(c, m) {
			r.logger.Warn("dropping match outside the current corpus", "score", m.Score)
			continue
		}
		if m.Score >= r.minSimilarity {
			kept = append(kept, m)
		}
	}
	monitor.AfterThreshold(kept)

	result := &core.QueryResult{
		Query:      normalized,
		Results:    make([]core.Result, 0, len(kept)),
		BestAnswer: core.NoAnswerFound,
	}

	selected := make(map[core.CategoryKey]string, len(kept))
	for _, m := range kept {
		key := m.Question.Category
		answer, ok := selected[key]
		if !ok {
			answer, err = r.selectAnswer(ctx, c, vector, key)
			if err != nil {
				return nil, err
			}
			selected[key] = answer
			monitor.AnswerSelected(key, answer)
		}
		result.Results = append(result.Results, core.Result{
			Question:   m.Question.Text,
			Answer:     answer,
			Similarity: m.Score,
			Category:   key,
		})
	}
	if len(result.Results) > 0 {
		result.BestAnswer = result.Results[0].Answer
	}

	monitor.Finish(result)
	return result, nil
}

func belongsTo(c *corpus.Corpus, m core.Match) bool {
	if m.Question == nil {
		return false
	}
	q, ok := c.Question(m.Question.Index)
	return ok && q == m.Question
}

func (r *Retriever) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "search.EmbedQuery")
	defer span.End()

	vector, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	span.SetAttributes(attribute.Int("embedding.dimension", len(vector)))
	return vector, nil
}

// selectAnswer applies the policy to the answers for key. A policy failure
// other than cancellation falls back to the first answer so a reachable
// answer is never withheld.
func (r *Retriever) selectAnswer(ctx context.Context, c *corpus.Corpus, vector []float32, key core.CategoryKey) (string, error) {
	candidates := c.Answers(key)

	sctx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	defer cancel()

	answer, err := r.policy.Select(sctx, vector, candidates)
	switch {
	case err == nil:
		return answer.Text, nil
	case errors.Is(err, core.ErrNoMatch):
		r.logger.Warn("no answers for category", "category", key.String())
		return core.NoAnswerFound, nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	}

	r.logger.Warn("answer selection failed, using first answer",
		"policy", r.policy.Name(), "category", key.String(), "err", err)
	answer, err = DirectPolicy{}.Select(ctx, vector, candidates)
	if err != nil {
		return core.NoAnswerFound, nil
	}
	return answer.Text, nil
}

// Generate returns the best answer for query. Retrieved answers are corpus
// text and are not altered by personalization.
func (r *Retriever) Generate(ctx context.Context, query, _ string) (string, error) {
	result, err := r.Retrieve(ctx, query, 1)
	if err != nil {
		return "", err
	}
	return result.BestAnswer, nil
}
