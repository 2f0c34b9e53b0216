package project

import (
	"math"

	"github.com/ppiankov/topology/internal/model"
)

// Normalize recenters coords on their mean and divides by the largest
// absolute coordinate over all axes, so every value lands in [-1, 1]. When
// all points coincide the centered coordinates (the origin) are returned
// unscaled. Batches that are compared downstream must be normalized together,
// exactly once.
func Normalize(coords []model.Coord) []model.Coord {
	out := make([]model.Coord, len(coords))
	copy(out, coords)
	if len(out) == 0 {
		return out
	}

	var mean [Components]float64
	for _, c := range out {
		for d := 0; d < Components; d++ {
			mean[d] += c.Pos[d]
		}
	}
	for d := range mean {
		mean[d] /= float64(len(out))
	}

	var maxAbs float64
	for i := range out {
		for d := 0; d < Components; d++ {
			out[i].Pos[d] -= mean[d]
			maxAbs = math.Max(maxAbs, math.Abs(out[i].Pos[d]))
		}
	}
	if maxAbs == 0 {
		return out
	}

	for i := range out {
		for d := 0; d < Components; d++ {
			out[i].Pos[d] /= maxAbs
		}
	}
	return out
}
