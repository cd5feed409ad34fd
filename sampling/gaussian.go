package sampling

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"amclfilter/pose"
)

// ThetaMode controls how a Gaussian sampler draws the heading component,
// since the underlying distribution only covers x, y.
type ThetaMode int

const (
	// ThetaUniform draws heading uniformly on (-pi, pi], the default per
	// spec.md 4.2.
	ThetaUniform ThetaMode = iota
	// ThetaFixed always returns a constant heading.
	ThetaFixed
)

// Gaussian draws (x, y) from a bivariate normal built via Cholesky
// factorization of the covariance's x,y sub-block, and draws theta
// independently.
type Gaussian struct {
	normal     *distmv.Normal
	thetaMode  ThetaMode
	thetaFixed float64
	thetaUnif  distuv.Uniform
}

// NewGaussian builds a Gaussian sampler for the given mean and
// covariance. cov's x,y sub-block drives the bivariate draw; theta is
// drawn uniformly on (-pi, pi] unless overridden with WithFixedTheta.
func NewGaussian(mean pose.Vector, cov pose.Matrix, rng *rand.Rand) *Gaussian {
	mu := []float64{mean.X, mean.Y}
	normal, ok := distmv.NewNormal(mu, cov.XYSym(), rng)
	if !ok {
		// Covariance not positive-definite; fall back to a degenerate
		// point mass so the filter still makes progress.
		normal, _ = distmv.NewNormal(mu, mat.NewSymDense(2, []float64{1e-9, 0, 0, 1e-9}), rng)
	}
	return &Gaussian{
		normal:    normal,
		thetaMode: ThetaUniform,
		thetaUnif: distuv.Uniform{Min: -math.Pi, Max: math.Pi, Src: rng},
	}
}

// WithFixedTheta overrides the heading draw to always return theta.
func (g *Gaussian) WithFixedTheta(theta float64) *Gaussian {
	g.thetaMode = ThetaFixed
	g.thetaFixed = theta
	return g
}

// Sample draws one pose.
func (g *Gaussian) Sample() pose.Vector {
	xy := g.normal.Rand(nil)
	theta := g.thetaFixed
	if g.thetaMode == ThetaUniform {
		theta = g.thetaUnif.Rand()
	}
	return pose.Vector{X: xy[0], Y: xy[1], Theta: theta}
}

// Bivariate draws a correlated (x, y) pair from standard deviations
// sigmaX, sigmaY and correlation rho, mirroring gsl_ran_bivariate_gaussian
// (see pf.Hypothesis's doc comment for the stddev/correlation
// convention this preserves).
func Bivariate(rng *rand.Rand, sigmaX, sigmaY, rho float64) (x, y float64) {
	u1 := rng.NormFloat64()
	u2 := rng.NormFloat64()
	x = sigmaX * u1
	y = sigmaY * (rho*u1 + math.Sqrt(1-rho*rho)*u2)
	return x, y
}
