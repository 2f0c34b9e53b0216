package project

import (
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// spectralLimit bounds the dense eigendecomposition; larger batches start
// from a random layout instead.
const spectralLimit = 4000

const (
	initScale = 10.0
	initNoise = 1e-4
)

// spectralInit positions points by the eigenvectors of the normalized graph
// Laplacian belonging to the smallest non-trivial eigenvalues, rescaled to
// [0, initScale] per axis.
func spectralInit(g graph, n int, rng *rand.Rand) [][Components]float64 {
	if n > spectralLimit {
		return randomInit(n, rng)
	}

	degree := make([]float64, n)
	for _, e := range g.edges {
		degree[e.head] += e.weight
	}
	for i, d := range degree {
		if d == 0 {
			degree[i] = 1
		}
	}

	lap := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		lap.SetSym(i, i, 1)
	}
	for _, e := range g.edges {
		if e.head < e.tail {
			v := -e.weight / math.Sqrt(degree[e.head]*degree[e.tail])
			lap.SetSym(e.head, e.tail, v)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(lap, true); !ok {
		slog.Warn("spectral initialisation failed, using random layout", "points", n)
		return randomInit(n, rng)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	out := make([][Components]float64, n)
	for c := 0; c < Components; c++ {
		// Column 0 belongs to the trivial eigenvalue 0.
		col := c + 1
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < n; i++ {
			v := vecs.At(i, col)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		span := hi - lo
		for i := 0; i < n; i++ {
			v := 0.0
			if span > 0 {
				v = initScale * (vecs.At(i, col) - lo) / span
			}
			out[i][c] = v + rng.NormFloat64()*initNoise
		}
	}
	return out
}

func randomInit(n int, rng *rand.Rand) [][Components]float64 {
	out := make([][Components]float64, n)
	for i := range out {
		for c := 0; c < Components; c++ {
			out[i][c] = rng.Float64() * initScale
		}
	}
	return out
}
