package embedding

import (
	"fmt"
	"math"
)

// DefaultThreshold is the similarity a live photo must reach against
// the reference photo to count as the same person.
const DefaultThreshold = 0.90

// Cosine returns the cosine similarity of a and b in [-1, 1]. Degenerate
// inputs are an explicit error, never a silent NaN.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensions do not match: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors are empty")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("vector has zero norm")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// IsMatch applies the decision rule: scores at the threshold pass.
func IsMatch(score, threshold float64) bool {
	return score >= threshold
}
