package precompute

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Add(5)
	assert.Empty(t, buf.String(), "below the report interval")

	tracker.Add(5)
	assert.Contains(t, buf.String(), "10/100")

	tracker.Add(500)
	assert.Equal(t, 100, tracker.Completed(), "capped at total")

	tracker.Done()
	out := buf.String()
	assert.Contains(t, out, "100/100")
	assert.Contains(t, out, "100.0%")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestProgressTracker_Concurrent(t *testing.T) {
	tracker := NewProgressTracker(nil, 1000, 50)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tracker.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, tracker.Completed())
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0, 0)
	tracker.Done()
	assert.Contains(t, buf.String(), "0/0")
}
