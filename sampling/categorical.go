// Package sampling implements the three sampling primitives the filter
// draws from: a categorical distribution over particle weights, a
// Cholesky-based multivariate Gaussian, and a map-rejecting bounded
// uniform sampler.
package sampling

import (
	"sort"

	"golang.org/x/exp/rand"
)

// Categorical is a discrete distribution built from a weight vector.
// Sample draws index i with probability w[i]/sum(w) in O(log n) via a
// prefix-sum and binary search over the cumulative distribution.
type Categorical struct {
	cumulative []float64
	rng        *rand.Rand
}

// NewCategorical builds a categorical sampler over weights. Weights must
// be nonnegative; a zero-sum weight vector is undefined, per spec.
func NewCategorical(weights []float64, rng *rand.Rand) *Categorical {
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cum[i] = total
	}
	return &Categorical{cumulative: cum, rng: rng}
}

// Sample draws an index with probability proportional to its weight.
func (c *Categorical) Sample() int {
	total := c.cumulative[len(c.cumulative)-1]
	r := c.rng.Float64() * total
	i := sort.Search(len(c.cumulative), func(i int) bool {
		return c.cumulative[i] > r
	})
	if i >= len(c.cumulative) {
		i = len(c.cumulative) - 1
	}
	return i
}
