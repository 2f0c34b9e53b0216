package project

import (
	"math"
	"math/rand"
)

const (
	learningRate     = 1.0
	repulsion        = 1.0
	negativeRate     = 5
	gradientClip     = 4.0
	repulsionEpsilon = 0.001
)

type optimizeParams struct {
	a, b   float64
	epochs int
	rng    *rand.Rand
}

// optimize runs the attractive/repulsive SGD over the graph's edges. Each
// edge is sampled in proportion to its weight; every positive sample is
// followed by negativeRate repulsive samples against random points. The
// learning rate decays linearly to zero.
func optimize(pos [][Components]float64, g graph, p optimizeParams) [][Components]float64 {
	n := len(pos)
	maxW := g.maxWeight()
	if maxW == 0 || len(g.edges) == 0 {
		return pos
	}

	ne := len(g.edges)
	epochsPerSample := make([]float64, ne)
	nextSample := make([]float64, ne)
	epochsPerNegative := make([]float64, ne)
	nextNegative := make([]float64, ne)
	for i, e := range g.edges {
		epochsPerSample[i] = maxW / e.weight
		nextSample[i] = epochsPerSample[i]
		epochsPerNegative[i] = epochsPerSample[i] / negativeRate
		nextNegative[i] = epochsPerNegative[i]
	}

	a, b := p.a, p.b
	for epoch := 0; epoch < p.epochs; epoch++ {
		alpha := learningRate * (1 - float64(epoch)/float64(p.epochs))
		fe := float64(epoch)

		for i, e := range g.edges {
			if nextSample[i] > fe {
				continue
			}

			cur := &pos[e.head]
			other := &pos[e.tail]

			distSq := sqDist(cur, other)
			var coeff float64
			if distSq > 0 {
				coeff = -2 * a * b * math.Pow(distSq, b-1)
				coeff /= a*math.Pow(distSq, b) + 1
			}
			for d := 0; d < Components; d++ {
				grad := clip(coeff * (cur[d] - other[d]))
				cur[d] += grad * alpha
				other[d] -= grad * alpha
			}
			nextSample[i] += epochsPerSample[i]

			negatives := int((fe - nextNegative[i]) / epochsPerNegative[i])
			for s := 0; s < negatives; s++ {
				k := p.rng.Intn(n)
				if k == e.head {
					continue
				}
				other := &pos[k]
				distSq := sqDist(cur, other)
				coeff := 0.0
				if distSq > 0 {
					coeff = 2 * repulsion * b
					coeff /= (repulsionEpsilon + distSq) * (a*math.Pow(distSq, b) + 1)
				}
				for d := 0; d < Components; d++ {
					grad := gradientClip
					if coeff > 0 {
						grad = clip(coeff * (cur[d] - other[d]))
					}
					cur[d] += grad * alpha
				}
			}
			nextNegative[i] += float64(negatives) * epochsPerNegative[i]
		}
	}
	return pos
}

func sqDist(x, y *[Components]float64) float64 {
	var sum float64
	for d := 0; d < Components; d++ {
		diff := x[d] - y[d]
		sum += diff * diff
	}
	return sum
}

func clip(v float64) float64 {
	if v > gradientClip {
		return gradientClip
	}
	if v < -gradientClip {
		return -gradientClip
	}
	return v
}
