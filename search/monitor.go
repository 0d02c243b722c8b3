package search

import (
	"log/slog"

	"github.com/poiesic/sosai/core"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(query string)
	AfterEmbedding(vector []float32)
	AfterSearch(matches []core.Match)
	AfterThreshold(kept []core.Match)
	AnswerSelected(key core.CategoryKey, answer string)
	Finish(result *core.QueryResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterEmbedding(_ []float32)                  {}
func (n *noopMonitor) AfterSearch(_ []core.Match)                  {}
func (n *noopMonitor) AfterThreshold(_ []core.Match)               {}
func (n *noopMonitor) AnswerSelected(_ core.CategoryKey, _ string) {}
func (n *noopMonitor) Finish(_ *core.QueryResult)                  {}

// LogMonitor logs each retrieval stage at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ Monitor = (*LogMonitor)(nil)

func (m *LogMonitor) Start(query string) {
	m.Logger.Debug("retrieval started", "query", query)
}

func (m *LogMonitor) AfterEmbedding(vector []float32) {
	m.Logger.Debug("query embedded", "dimension", len(vector))
}

func (m *LogMonitor) AfterSearch(matches []core.Match) {
	for i, match := range matches {
		m.Logger.Debug("match", "rank", i+1, "question", match.Question.Text, "score", match.Score)
	}
}

func (m *LogMonitor) AfterThreshold(kept []core.Match) {
	m.Logger.Debug("threshold applied", "kept", len(kept))
}

func (m *LogMonitor) AnswerSelected(key core.CategoryKey, answer string) {
	m.Logger.Debug("answer selected", "category", key.String(), "answer", answer)
}

func (m *LogMonitor) Finish(result *core.QueryResult) {
	m.Logger.Debug("retrieval finished", "results", len(result.Results), "found", result.Found())
}
