// Package similarity compares embedding vectors.
package similarity

import (
	"fmt"
	"math"

	"github.com/ppiankov/topology/internal/model"
)

// DegenerateScore is the similarity reported in place of a cosine that is
// undefined because one of the vectors has zero magnitude. It equals a real
// cosine of -1, so rankers must order degenerate pairs separately.
const DegenerateScore = -1.0

// Cosine returns the cosine similarity of a and b.
//
// Vectors of different length are an input shape violation. A zero-magnitude
// vector yields ErrDegenerateVector; the returned score is then
// DegenerateScore so callers that choose to recover can use it directly.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, &model.InputShapeError{
			Op:     "similarity",
			Detail: dimDetail(len(a), len(b)),
			Err:    model.ErrDimensionMismatch,
		}
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return DegenerateScore, model.ErrDegenerateVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push |sim| a hair past 1.
	return math.Max(-1, math.Min(1, sim)), nil
}

// Distance is the cosine distance 1 - cos(a, b) used for neighborhood search.
// Two zero vectors are at distance 0; a zero vector and any other vector
// are at distance 1. Lengths must already be validated by the caller.
func Distance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	switch {
	case normA == 0 && normB == 0:
		return 0
	case normA == 0 || normB == 0:
		return 1
	}
	d := 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	if d < 0 {
		return 0
	}
	return d
}

func dimDetail(a, b int) string {
	if a == 0 || b == 0 {
		return "empty vector"
	}
	return fmt.Sprintf("dimensions %d and %d differ", a, b)
}
