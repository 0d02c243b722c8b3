package corpus

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Holder publishes the current Corpus to concurrent readers. Reloads
// replace the snapshot atomically; a failed reload keeps the previous one.
type Holder struct {
	questionsPath string
	answersPath   string
	opts          []Option
	logger        *slog.Logger

	current atomic.Pointer[Corpus]
	lastErr atomic.Pointer[error]
	mu      sync.Mutex
}

// NewHolder creates a Holder for the two table files. Nothing is loaded
// until Reload is called.
func NewHolder(questionsPath, answersPath string, opts ...Option) *Holder {
	o := newOptions(opts)
	return &Holder{
		questionsPath: questionsPath,
		answersPath:   answersPath,
		opts:          opts,
		logger:        o.logger.With("component", "corpus"),
	}
}

// NewStaticHolder wraps an already loaded corpus. Reload on a static
// holder is a no-op.
func NewStaticHolder(c *Corpus) *Holder {
	h := &Holder{logger: slog.Default().With("component", "corpus")}
	h.current.Store(c)
	return h
}

// Current returns the published corpus, or nil when none has loaded.
func (h *Holder) Current() *Corpus {
	return h.current.Load()
}

// Store publishes c.
func (h *Holder) Store(c *Corpus) {
	h.current.Store(c)
}

// Reload reads both tables and publishes the result.
func (h *Holder) Reload() error {
	if h.questionsPath == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, err := Load(h.questionsPath, h.answersPath, h.opts...)
	if err != nil {
		h.lastErr.Store(&err)
		h.logger.Error("corpus reload failed", "err", err)
		return err
	}

	if prev := h.current.Load(); prev != nil && prev.Fingerprint() == c.Fingerprint() {
		h.lastErr.Store(nil)
		return nil
	}
	h.current.Store(c)
	h.lastErr.Store(nil)
	return nil
}

// LastError returns the error from the most recent failed reload, or nil
// if the last reload succeeded.
func (h *Holder) LastError() error {
	if p := h.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Paths returns the question and answer table paths.
func (h *Holder) Paths() (questions, answers string) {
	return h.questionsPath, h.answersPath
}
