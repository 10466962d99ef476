package dataset

import (
	"math"
	"math/rand"
)

// poisson draws from a Poisson distribution using Knuth's method.
// Fine for the small lambdas used here.
func poisson(rng *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

// gamma draws from a Gamma(alpha, 1) distribution using the
// Marsaglia-Tsang squeeze method. Requires alpha >= 1.
func gamma(rng *rand.Rand, alpha float64) float64 {
	d := alpha - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}

// Beta draws from a Beta(a, b) distribution via two gamma draws.
// Exported for the sampled context source, which reuses the same
// reputation distributions.
func Beta(rng *rand.Rand, a, b float64) float64 {
	x := gamma(rng, a)
	y := gamma(rng, b)
	return x / (x + y)
}
