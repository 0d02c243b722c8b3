package search

import (
	"fmt"
	"math"

	"github.com/poiesic/sosai/core"
)

// CosineSimilarity returns the cosine of the angle between a and b,
// clamped to [-1, 1]. A zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", core.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32(max(-1, min(1, sim))), nil
}
