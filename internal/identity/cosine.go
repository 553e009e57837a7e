package identity

import (
	"errors"
	"math"
)

var (
	// ErrDimensionMismatch is returned when two embeddings have different lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrZeroVector is returned for empty or zero-magnitude embeddings,
	// for which cosine similarity is undefined.
	ErrZeroVector = errors.New("zero-magnitude embedding")
)

// CosineSimilarity computes the cosine similarity between two embeddings.
// Returns a value in [-1, 1]. Length mismatches and zero-magnitude vectors
// are reported as errors instead of producing NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	if len(a) == 0 {
		return 0, ErrZeroVector
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}
