package precompute

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a single updating progress line. It is safe for
// use by concurrent batches.
type ProgressTracker struct {
	w            io.Writer
	total        int
	every        int
	done         int
	lastReported int
	start        time.Time
	mu           sync.Mutex
}

// NewProgressTracker reports to w whenever at least every items completed
// since the last report. A nil w discards output.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	if every < 1 {
		every = 1
	}
	return &ProgressTracker{w: w, total: total, every: every, start: time.Now()}
}

// Add records n completed items.
func (p *ProgressTracker) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = min(p.done+n, p.total)
	if p.done-p.lastReported >= p.every {
		p.report()
		p.lastReported = p.done
	}
}

// Done reports the final count and ends the line.
func (p *ProgressTracker) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report()
	fmt.Fprintln(p.w)
}

// Completed returns the number of items recorded so far.
func (p *ProgressTracker) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *ProgressTracker) Elapsed() time.Duration {
	return time.Since(p.start)
}

// report must be called with mu held.
func (p *ProgressTracker) report() {
	pct := 0.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	rate := float64(p.done) / max(time.Since(p.start).Seconds(), 1e-9)
	fmt.Fprintf(p.w, "\rEmbedded %d/%d questions (%.1f%%) - %.1f questions/s", p.done, p.total, pct, rate)
}
