//go:build integration

package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func natsURL() string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return nats.DefaultURL
}

func TestNATSPublisher_RoundTrip(t *testing.T) {
	nc, err := nats.Connect(natsURL())
	if err != nil {
		t.Skipf("nats not available: %v", err)
	}
	defer nc.Close()

	received := make(chan AnswerServed, 1)
	sub, err := Subscribe(nc, "sosai.test.answers", func(_ context.Context, ev AnswerServed) {
		received <- ev
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, nc.Flush())

	p, err := Connect(natsURL(), "sosai.test.answers")
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), AnswerServed{Source: SourceAnswer, Query: "코피가 나요"}))

	select {
	case ev := <-received:
		assert.Equal(t, "코피가 나요", ev.Query)
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}
}
