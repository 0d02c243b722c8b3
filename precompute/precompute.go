package precompute

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/sosai/ai"
	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/corpus"
)

// Config holds configuration for a precompute run.
type Config struct {
	// BatchSize is the number of questions sent per embedding call.
	BatchSize int

	// PoolSize is the number of batches embedded concurrently.
	PoolSize int

	// ReportInterval is how often progress is reported, in questions.
	ReportInterval int

	Retry RetryPolicy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      32,
		PoolSize:       max(1, runtime.NumCPU()/2),
		ReportInterval: 32,
		Retry: RetryPolicy{
			Attempts:  3,
			BaseDelay: time.Second,
			MaxDelay:  30 * time.Second,
		},
	}
}

// Precomputer embeds question tables.
type Precomputer struct {
	embedder ai.Embedder
	config   *Config
	pool     *ants.Pool
	progress io.Writer
	logger   *slog.Logger
}

// New creates a Precomputer. progress receives the progress line and may
// be nil. Release must be called when done.
func New(embedder ai.Embedder, config *Config, progress io.Writer) (*Precomputer, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", config.BatchSize)
	}
	if config.Retry.Attempts < 1 {
		return nil, ErrInvalidAttempts
	}

	pool, err := ants.NewPool(max(1, config.PoolSize))
	if err != nil {
		return nil, err
	}

	return &Precomputer{
		embedder: embedder,
		config:   config,
		pool:     pool,
		progress: progress,
		logger:   slog.Default().With("component", "precompute"),
	}, nil
}

// Release stops the worker pool.
func (p *Precomputer) Release() {
	p.pool.Release()
}

// Embed fills in Vector for every record. Records keep their order.
func (p *Precomputer) Embed(ctx context.Context, records []core.QuestionRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tracker := NewProgressTracker(p.progress, len(records), p.config.ReportInterval)

	var wg sync.WaitGroup
	for start := 0; start < len(records); start += p.config.BatchSize {
		batch := records[start:min(start+p.config.BatchSize, len(records))]
		first := start

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.embedBatch(ctx, batch); err != nil {
				cancel(fmt.Errorf("batch starting at question %d: %w", first+1, err))
				return
			}
			tracker.Add(len(batch))
		})
		if err != nil {
			wg.Done()
			cancel(err)
			break
		}
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return err
	}
	tracker.Done()

	dim := len(records[0].Vector)
	for i := range records {
		if len(records[i].Vector) != dim {
			return fmt.Errorf("question %d: %w: got %d, want %d",
				i+1, core.ErrDimensionMismatch, len(records[i].Vector), dim)
		}
	}

	p.logger.Info("questions embedded",
		"count", len(records),
		"dimension", dim,
		"elapsed", tracker.Elapsed().Round(time.Millisecond))
	return nil
}

// embedBatch embeds one batch with retries and stores unit vectors.
func (p *Precomputer) embedBatch(ctx context.Context, batch []core.QuestionRecord) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, p.config.Retry, p.logger, func(ctx context.Context) error {
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", p.config.Retry.Attempts, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}

	for i := range batch {
		batch[i].Vector = NormalizeVector(vectors[i])
	}
	return nil
}

// Run reads a question table from in, embeds it, and writes the table with
// embeddings to out. It returns the number of questions written.
func (p *Precomputer) Run(ctx context.Context, in io.Reader, out io.Writer) (int, error) {
	records, err := corpus.ReadQuestions(in)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: no questions to embed", core.ErrCorpusLoad)
	}

	if err := p.Embed(ctx, records); err != nil {
		return 0, err
	}
	if err := corpus.WriteQuestions(out, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// RunFiles is Run over files. The output is written to a temporary file
// and renamed into place, so a watched corpus never sees a partial table.
func (p *Precomputer) RunFiles(ctx context.Context, inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".questions-*.csv")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := p.Run(ctx, in, tmp)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return 0, err
	}
	return n, nil
}
