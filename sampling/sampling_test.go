package sampling

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"amclfilter/gridmap"
	"amclfilter/pose"
)

func assertWithin(t *testing.T, got, want, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("got %.4f, want %.4f +/- %.4f", got, want, tolerance)
	}
}

func TestCategoricalRespectsWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	weights := []float64{0.0, 1.0, 0.0}
	cat := NewCategorical(weights, rng)

	for i := 0; i < 1000; i++ {
		if got := cat.Sample(); got != 1 {
			t.Fatalf("Sample() = %d, want 1 (only nonzero weight)", got)
		}
	}
}

func TestCategoricalProportions(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	weights := []float64{1.0, 3.0}
	cat := NewCategorical(weights, rng)

	counts := [2]int{}
	n := 20000
	for i := 0; i < n; i++ {
		counts[cat.Sample()]++
	}

	gotRatio := float64(counts[1]) / float64(n)
	assertWithin(t, gotRatio, 0.75, 0.02)
}

func TestGaussianSampleMatchesMoments(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	mean := pose.Vector{X: 5, Y: -2, Theta: 0}
	cov := pose.Diag(1.0, 4.0, 0.1)
	g := NewGaussian(mean, cov, rng)

	n := 40000
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		p := g.Sample()
		sumX += p.X
		sumY += p.Y
	}
	assertWithin(t, sumX/float64(n), 5, 0.1)
	assertWithin(t, sumY/float64(n), -2, 0.1)
}

func TestGaussianFixedThetaOverride(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	g := NewGaussian(pose.Zero(), pose.Diag(1, 1, 1), rng).WithFixedTheta(0.75)

	for i := 0; i < 50; i++ {
		if p := g.Sample(); p.Theta != 0.75 {
			t.Fatalf("Theta = %v, want fixed 0.75", p.Theta)
		}
	}
}

func buildTestGrid() *gridmap.Grid {
	g := gridmap.NewGrid(10, 10, 1.0, 0, 0)
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			if i < 5 {
				g.SetOccState(i, j, gridmap.Free)
			} else {
				g.SetOccState(i, j, gridmap.Occupied)
			}
		}
	}
	return g
}

func TestBoundedUniformOnlyReturnsFreeCells(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	grid := buildTestGrid()
	u := NewBoundedUniform(grid, rng)

	for i := 0; i < 200; i++ {
		p := u.Sample()
		if !grid.IsFree(p.X, p.Y) {
			t.Fatalf("Sample() returned non-free cell at (%.2f, %.2f)", p.X, p.Y)
		}
	}
}
