package pf

import "amclfilter/pose"

// Hypothesis is an external pose estimate (typically from a higher-level
// tracker merging several clusters) used to seed ResampleHyps and its
// variants.
//
// Cov.At(0,0) and Cov.At(1,1) are consumed as standard deviations, not
// variances, and Cov.At(0,1) is divided by their product to form a
// correlation coefficient rather than normalized by the square roots of
// the diagonal entries. This mirrors the original source's bivariate
// Gaussian call exactly; it is very likely a unit mismatch in the
// original, but callers must supply Cov already in this convention to
// get matching output.
type Hypothesis struct {
	Mean pose.Vector
	Cov  pose.Matrix
}

func (h Hypothesis) rho() float64 {
	return h.Cov.At(0, 1) / (h.Cov.At(0, 0) * h.Cov.At(1, 1))
}
