package project

import (
	"math"
	"sort"

	"github.com/ppiankov/topology/internal/model"
	"github.com/ppiankov/topology/internal/similarity"
)

const (
	smoothIterations = 64
	smoothTolerance  = 1e-5
	minKDistScale    = 1e-3
)

// neighbor is one entry of a point's k-nearest list
type neighbor struct {
	index int
	dist  float64
}

// nearestNeighbors finds the k nearest other points of every point by exact
// search under cosine distance. Ties order by lower index.
func nearestNeighbors(points []model.Embedding, k int) [][]neighbor {
	n := len(points)
	out := make([][]neighbor, n)
	row := make([]neighbor, 0, n-1)

	for i := 0; i < n; i++ {
		row = row[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			row = append(row, neighbor{index: j, dist: similarity.Distance(points[i].Vector, points[j].Vector)})
		}
		sort.Slice(row, func(x, y int) bool {
			if row[x].dist != row[y].dist {
				return row[x].dist < row[y].dist
			}
			return row[x].index < row[y].index
		})
		out[i] = append([]neighbor(nil), row[:k]...)
	}
	return out
}

// edge is one weighted connection of the fuzzy graph, stored once per direction
type edge struct {
	head, tail int
	weight     float64
}

// graph is the symmetric fuzzy simplicial set as a directed edge list
// sorted by (head, tail)
type graph struct {
	edges []edge
}

// fuzzyGraph turns kNN distances into membership strengths and combines
// the two directions of every pair with the fuzzy union w + w' - w*w'.
func fuzzyGraph(knn [][]neighbor, n, k int) graph {
	target := math.Log2(float64(k))

	var meanAll float64
	for _, row := range knn {
		for _, nb := range row {
			meanAll += nb.dist
		}
	}
	meanAll /= float64(n * k)

	type pair struct{ lo, hi int }
	directed := make(map[pair][2]float64)

	for i, row := range knn {
		rho, sigma := smoothDistances(row, target, meanAll)
		for _, nb := range row {
			w := 1.0
			if d := nb.dist - rho; d > 0 && sigma > 0 {
				w = math.Exp(-d / sigma)
			}
			key := pair{i, nb.index}
			slot := 0
			if i > nb.index {
				key = pair{nb.index, i}
				slot = 1
			}
			v := directed[key]
			v[slot] = w
			directed[key] = v
		}
	}

	edges := make([]edge, 0, 2*len(directed))
	for key, v := range directed {
		w := v[0] + v[1] - v[0]*v[1]
		if w <= 0 {
			continue
		}
		edges = append(edges,
			edge{head: key.lo, tail: key.hi, weight: w},
			edge{head: key.hi, tail: key.lo, weight: w},
		)
	}
	sort.Slice(edges, func(x, y int) bool {
		if edges[x].head != edges[y].head {
			return edges[x].head < edges[y].head
		}
		return edges[x].tail < edges[y].tail
	})
	return graph{edges: edges}
}

// smoothDistances finds rho, the distance to the nearest non-identical
// neighbor, and sigma such that the neighbors' memberships sum to target.
func smoothDistances(row []neighbor, target, meanAll float64) (rho, sigma float64) {
	var mean float64
	for _, nb := range row {
		mean += nb.dist
		if rho == 0 && nb.dist > 0 {
			rho = nb.dist
		}
	}
	mean /= float64(len(row))

	lo, hi := 0.0, math.Inf(1)
	sigma = 1.0
	for iter := 0; iter < smoothIterations; iter++ {
		var sum float64
		for _, nb := range row {
			d := nb.dist - rho
			if d > 0 {
				sum += math.Exp(-d / sigma)
			} else {
				sum++
			}
		}
		if math.Abs(sum-target) < smoothTolerance {
			break
		}
		if sum > target {
			hi = sigma
			sigma = (lo + hi) / 2
		} else {
			lo = sigma
			if math.IsInf(hi, 1) {
				sigma *= 2
			} else {
				sigma = (lo + hi) / 2
			}
		}
	}

	floor := minKDistScale * meanAll
	if rho > 0 {
		floor = minKDistScale * mean
	}
	if sigma < floor {
		sigma = floor
	}
	return rho, sigma
}

// prune drops edges too weak to be sampled even once in the given epochs
func (g graph) prune(epochs int) graph {
	maxW := g.maxWeight()
	if maxW == 0 {
		return g
	}
	limit := maxW / float64(epochs)
	kept := g.edges[:0:0]
	for _, e := range g.edges {
		if e.weight >= limit {
			kept = append(kept, e)
		}
	}
	return graph{edges: kept}
}

func (g graph) maxWeight() float64 {
	var maxW float64
	for _, e := range g.edges {
		if e.weight > maxW {
			maxW = e.weight
		}
	}
	return maxW
}
