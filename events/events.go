// Package events publishes notifications about served answers so other
// services can audit or analyse assistant traffic.
package events

import (
	"context"
	"time"

	"github.com/poiesic/sosai/core"
)

const DefaultSubject = "sosai.answers"

// Source names the endpoint that served an answer.
type Source string

const (
	SourceAnswer Source = "answer"
	SourceChat   Source = "chat"
	SourceDialog Source = "dialog"
)

// AnswerServed describes one answer returned to a client.
type AnswerServed struct {
	Source      Source    `json:"source"`
	Query       string    `json:"query"`
	BestAnswer  string    `json:"best_answer"`
	Found       bool      `json:"found"`
	TopCategory string    `json:"top_category,omitempty"`
	TopScore    float32   `json:"top_score,omitempty"`
	UserID      core.ID   `json:"user_id,omitempty"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	ServedAt    time.Time `json:"served_at"`
}

// FromResult builds an event for a retrieval result.
func FromResult(source Source, result *core.QueryResult, elapsed time.Duration) AnswerServed {
	ev := AnswerServed{
		Source:     source,
		Query:      result.Query,
		BestAnswer: result.BestAnswer,
		Found:      result.Found(),
		ElapsedMs:  elapsed.Milliseconds(),
		ServedAt:   time.Now().UTC(),
	}
	if len(result.Results) > 0 {
		ev.TopCategory = result.Results[0].Category.String()
		ev.TopScore = result.Results[0].Similarity
	}
	return ev
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event AnswerServed) error
	Close() error
}

// NopPublisher discards events.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, AnswerServed) error { return nil }
func (NopPublisher) Close() error                                { return nil }
