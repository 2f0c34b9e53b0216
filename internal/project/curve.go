package project

import "math"

const (
	curveSamples    = 300
	curveIterations = 200
)

// fitCurve finds a and b so that 1 / (1 + a*x^(2b)) best matches, in the
// least-squares sense, a membership that is 1 up to minDist and decays as
// exp(-(x - minDist) / spread) beyond it. Solved by Levenberg-Marquardt.
func fitCurve(spread, minDist float64) (a, b float64) {
	xs := make([]float64, 0, curveSamples)
	ys := make([]float64, 0, curveSamples)
	for i := 0; i < curveSamples; i++ {
		x := 3 * spread * float64(i) / float64(curveSamples-1)
		if x == 0 {
			// f(0) = 1 for every a, b; contributes nothing
			continue
		}
		y := 1.0
		if x >= minDist {
			y = math.Exp(-(x - minDist) / spread)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}

	a, b = 1.8, 0.8
	lambda := 1e-3
	cost := curveCost(xs, ys, a, b)

	for iter := 0; iter < curveIterations; iter++ {
		// Normal equations of the linearised problem.
		var jaa, jab, jbb, ga, gb float64
		for i, x := range xs {
			p := math.Pow(x, 2*b)
			den := 1 + a*p
			f := 1 / den
			r := f - ys[i]
			da := -p / (den * den)
			db := -a * p * 2 * math.Log(x) / (den * den)
			jaa += da * da
			jab += da * db
			jbb += db * db
			ga += da * r
			gb += db * r
		}

		improved := false
		for try := 0; try < 10; try++ {
			maa := jaa * (1 + lambda)
			mbb := jbb * (1 + lambda)
			det := maa*mbb - jab*jab
			if det == 0 {
				lambda *= 10
				continue
			}
			stepA := -(mbb*ga - jab*gb) / det
			stepB := -(maa*gb - jab*ga) / det
			na, nb := a+stepA, b+stepB
			if na <= 0 || nb <= 0 {
				lambda *= 10
				continue
			}
			if c := curveCost(xs, ys, na, nb); c < cost {
				a, b, cost = na, nb, c
				lambda /= 10
				improved = true
				break
			}
			lambda *= 10
		}
		if !improved {
			break
		}
	}
	return a, b
}

func curveCost(xs, ys []float64, a, b float64) float64 {
	var sum float64
	for i, x := range xs {
		r := 1/(1+a*math.Pow(x, 2*b)) - ys[i]
		sum += r * r
	}
	return sum
}
