// Package project reduces embedding vectors to a shared 3-D layout.
//
// The reduction follows the UMAP family: a fuzzy k-nearest-neighbor graph is
// built under cosine distance, initialised spectrally, and laid out with
// seeded stochastic gradient descent. All randomness comes from one seeded
// source and the work runs on a single goroutine, so identical input and
// seed give identical coordinates.
package project

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/ppiankov/topology/internal/model"
)

// MinPoints is the smallest batch the reduction accepts
const MinPoints = 4

// Components is the output dimensionality
const Components = 3

const (
	defaultNeighbors = 15
	defaultMinDist   = 0.1
	defaultSpread    = 1.0
)

// Projector runs the neighborhood-preserving reduction
type Projector struct {
	cfg model.ProjectionConfig
}

// New creates a Projector. Zero-valued parameters fall back to defaults.
func New(cfg model.ProjectionConfig) *Projector {
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = defaultNeighbors
	}
	if cfg.MinDist < 0 {
		cfg.MinDist = defaultMinDist
	}
	if cfg.Spread <= 0 {
		cfg.Spread = defaultSpread
	}
	return &Projector{cfg: cfg}
}

// Config returns the effective configuration
func (p *Projector) Config() model.ProjectionConfig {
	return p.cfg
}

// EffectiveNeighbors returns the neighborhood size used for a batch of k points
func (p *Projector) EffectiveNeighbors(k int) int {
	n := p.cfg.Neighbors
	if n > k-1 {
		n = k - 1
	}
	if n < 2 {
		n = 2
	}
	return n
}

// Project lays out one batch of vectors on its own. Use it only when the
// result does not need to be compared with another batch.
func (p *Projector) Project(points []model.Embedding) ([]model.Coord, error) {
	if err := validate(points); err != nil {
		return nil, err
	}

	start := time.Now()
	pos := p.fit(points)
	slog.Debug("projection complete",
		"points", len(points),
		"neighbors", p.EffectiveNeighbors(len(points)),
		"elapsed", time.Since(start),
	)

	coords := make([]model.Coord, len(points))
	for i, pt := range points {
		coords[i] = model.Coord{Key: pt.Key, Pos: pos[i]}
	}
	return coords, nil
}

// ProjectJoint places several batches in one coordinate frame. The batches
// are concatenated, projected once, and split back at their original
// boundaries; separate projections would land in unrelated frames.
func (p *Projector) ProjectJoint(sets ...[]model.Embedding) ([][]model.Coord, error) {
	total := 0
	for _, s := range sets {
		total += len(s)
	}
	all := make([]model.Embedding, 0, total)
	for _, s := range sets {
		all = append(all, s...)
	}

	coords, err := p.Project(all)
	if err != nil {
		return nil, err
	}

	out := make([][]model.Coord, len(sets))
	offset := 0
	for i, s := range sets {
		part := make([]model.Coord, len(s))
		copy(part, coords[offset:offset+len(s)])
		for j := range s {
			if part[j].Key != s[j].Key {
				return nil, model.ShapeErrorf("project", "joint split misaligned at set %d index %d", i, j)
			}
		}
		out[i] = part
		offset += len(s)
	}
	return out, nil
}

func validate(points []model.Embedding) error {
	if len(points) < MinPoints {
		return model.ShapeErrorf("project", "%d points, need at least %d", len(points), MinPoints)
	}
	dim := len(points[0].Vector)
	if dim == 0 {
		return model.ShapeErrorf("project", "empty vector for %s", points[0].Key)
	}
	for _, pt := range points[1:] {
		if len(pt.Vector) != dim {
			return &model.InputShapeError{
				Op:     "project",
				Detail: pt.Key + " has a different dimension",
				Err:    model.ErrDimensionMismatch,
			}
		}
	}
	return nil
}

// fit runs the full reduction and returns one position per input point
func (p *Projector) fit(points []model.Embedding) [][Components]float64 {
	n := len(points)
	k := p.EffectiveNeighbors(n)
	rng := rand.New(rand.NewSource(p.cfg.Seed))

	knn := nearestNeighbors(points, k)
	graph := fuzzyGraph(knn, n, k)

	epochs := p.cfg.Epochs
	if epochs <= 0 {
		epochs = 500
		if n > 10000 {
			epochs = 200
		}
	}
	graph = graph.prune(epochs)

	init := spectralInit(graph, n, rng)
	a, b := fitCurve(p.cfg.Spread, p.cfg.MinDist)

	return optimize(init, graph, optimizeParams{
		a:      a,
		b:      b,
		epochs: epochs,
		rng:    rng,
	})
}
