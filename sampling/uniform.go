package sampling

import (
	"math"

	"golang.org/x/exp/rand"

	"amclfilter/gridmap"
	"amclfilter/pose"
)

// BoundedUniform draws (x, y) uniformly over a map's world extent,
// rejecting draws that land outside the map or on a non-free cell, and
// returning on first acceptance. The map must have at least one free
// cell or this spins forever; that is the caller's responsibility, per
// spec.md 4.2.
type BoundedUniform struct {
	m         gridmap.Map
	rng       *rand.Rand
	thetaMode ThetaMode
	theta     float64
}

// NewBoundedUniform builds a rejection sampler over m's free cells, with
// theta drawn uniformly on (-pi, pi] by default.
func NewBoundedUniform(m gridmap.Map, rng *rand.Rand) *BoundedUniform {
	return &BoundedUniform{m: m, rng: rng, thetaMode: ThetaUniform}
}

// WithFixedTheta overrides the heading draw to always return theta
// (used by pf.InitHeadingZero/InitHeadingFixed).
func (u *BoundedUniform) WithFixedTheta(theta float64) *BoundedUniform {
	u.thetaMode = ThetaFixed
	u.theta = theta
	return u
}

// Sample draws a pose whose (x, y) lands on a free map cell.
func (u *BoundedUniform) Sample() pose.Vector {
	halfX := u.m.WorldExtentX() / 2
	halfY := u.m.WorldExtentY() / 2
	for {
		x := u.m.OriginX() + (u.rng.Float64()*2-1)*halfX
		y := u.m.OriginY() + (u.rng.Float64()*2-1)*halfY
		if u.m.IsFree(x, y) {
			return pose.Vector{X: x, Y: y, Theta: u.theading()}
		}
	}
}

func (u *BoundedUniform) theading() float64 {
	if u.thetaMode == ThetaFixed {
		return u.theta
	}
	return (u.rng.Float64()*2 - 1) * math.Pi
}

// InBounds draws (x, y) uniformly in the square of side span centered on
// (centerX, centerY), rejecting only draws outside the grid bounds, not
// draws off the free-cell predicate — used by
// pf.InitToPoint, which constrains to a bounding box rather than free
// space (original source's pf_init_to_point checks MAP_VALID only).
func InBounds(m gridmap.Map, rng *rand.Rand, centerX, centerY, span float64) pose.Vector {
	for {
		x := centerX + (rng.Float64()-0.5)*span
		y := centerY + (rng.Float64()-0.5)*span
		i, j := m.GridX(x), m.GridY(y)
		if m.Valid(i, j) {
			theta := (rng.Float64()*2 - 1) * math.Pi
			return pose.Vector{X: x, Y: y, Theta: theta}
		}
	}
}
