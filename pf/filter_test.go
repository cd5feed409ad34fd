package pf

import (
	"math"
	"testing"

	"amclfilter/gridmap"
	"amclfilter/pose"
)

func weightSum(samples []Sample) float64 {
	total := 0.0
	for _, s := range samples {
		total += s.Weight
	}
	return total
}

func buildOpenGrid(n int) *gridmap.Grid {
	g := gridmap.NewGrid(n, n, 1.0, 0, 0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.SetOccState(i, j, gridmap.Free)
		}
	}
	return g
}

func buildTwoRegionGrid(n int) *gridmap.Grid {
	g := gridmap.NewGrid(n, n, 1.0, 0, 0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.SetOccState(i, j, gridmap.Occupied)
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			g.SetOccState(i, j, gridmap.Free)
			g.SetOccState(n-1-i, n-1-j, gridmap.Free)
		}
	}
	return g
}

func TestInitGaussianProducesUnitWeightSum(t *testing.T) {
	f := NewFilter(50, 1000, 50)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))

	set := f.CurrentSet()
	if got := weightSum(set.Samples()); math.Abs(got-1) > 1e-9 {
		t.Fatalf("weight sum = %v, want 1", got)
	}
	for _, s := range set.Samples() {
		if s.Weight < 0 {
			t.Fatalf("negative weight %v", s.Weight)
		}
	}
}

func TestLeafCountNeverExceedsLiveN(t *testing.T) {
	f := NewFilter(50, 1000, 50)
	f.InitGaussian(pose.Vector{}, pose.Diag(4, 4, 1))

	set := f.CurrentSet()
	if set.Tree.LeafCount() > set.N() || set.N() > f.maxSamples {
		t.Fatalf("leaf_count=%d n=%d max=%d, want leaf_count<=n<=max", set.Tree.LeafCount(), set.N(), f.maxSamples)
	}
}

func TestKLDLimitMonotonicAndClamped(t *testing.T) {
	f := NewFilter(100, 5000, 0)

	if got := f.klimit(0); got != 100 {
		t.Fatalf("klimit(0) = %d, want 100", got)
	}
	if got := f.klimit(1); got != 100 {
		t.Fatalf("klimit(1) = %d, want 100", got)
	}

	prev := f.klimit(2)
	for k := 3; k < 2000; k += 7 {
		cur := f.klimit(k)
		if cur < prev {
			t.Fatalf("klimit not monotonic: klimit(%d-ish)=%d < previous=%d", k, cur, prev)
		}
		if cur < f.minSamples || cur > f.maxSamples {
			t.Fatalf("klimit(%d) = %d out of [%d, %d]", k, cur, f.minSamples, f.maxSamples)
		}
		prev = cur
	}

	if got := f.klimit(1000000); got != f.maxSamples {
		t.Fatalf("klimit(huge k) = %d, want max_samples %d", got, f.maxSamples)
	}
}

func TestClusterStatsConserveWeightAndCount(t *testing.T) {
	f := NewFilter(50, 500, 50)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))

	set := f.CurrentSet()
	var weightTotal float64
	var countTotal int
	for i := 0; i < set.ClusterCount(); i++ {
		w, _, _, ok := ClusterStatsOf(set, i)
		if !ok {
			t.Fatalf("ClusterStatsOf(%d) not ok for label < ClusterCount", i)
		}
		weightTotal += w
		countTotal += set.clusters[i].Count
	}

	if math.Abs(weightTotal-weightSum(set.Samples())) > 1e-9 {
		t.Fatalf("sum of cluster weights = %v, want %v", weightTotal, weightSum(set.Samples()))
	}
	if countTotal != set.N() {
		t.Fatalf("sum of cluster counts = %d, want n = %d", countTotal, set.N())
	}
}

func TestCurrentSetFlipsExactlyOncePerResample(t *testing.T) {
	f := NewFilter(50, 500, 50)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))

	before := f.current
	f.Resample(f.maxSamples)
	if f.current == before {
		t.Fatalf("current set did not flip after Resample")
	}
	afterFirst := f.current
	f.Resample(f.maxSamples)
	if f.current == afterFirst {
		t.Fatalf("current set did not flip after second Resample")
	}
}

func TestInitMapOnlyEmitsFreeCells(t *testing.T) {
	grid := buildTwoRegionGrid(10)
	f := NewFilter(50, 500, 50)
	f.InitMap(grid)

	for _, s := range f.CurrentSet().Samples() {
		if !grid.IsFree(s.Pose.X, s.Pose.Y) {
			t.Fatalf("sample at (%.2f, %.2f) is not on a free cell", s.Pose.X, s.Pose.Y)
		}
	}
}

func TestResampleMapOnlyEmitsFreeCells(t *testing.T) {
	grid := buildTwoRegionGrid(10)
	f := NewFilter(50, 500, 50)
	f.InitMap(grid)
	f.ResampleMap(grid)

	for _, s := range f.CurrentSet().Samples() {
		if !grid.IsFree(s.Pose.X, s.Pose.Y) {
			t.Fatalf("resampled sample at (%.2f, %.2f) is not on a free cell", s.Pose.X, s.Pose.Y)
		}
	}
}

func TestSensorUpdateConstantLikelihoodIsIdempotent(t *testing.T) {
	f := NewFilter(50, 500, 50)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))

	n := f.CurrentSet().N()
	f.UpdateSensor(func(_ any, samples []Sample) float64 {
		for i := range samples {
			samples[i].Weight = 1.0
		}
		return float64(len(samples))
	}, nil)

	want := 1.0 / float64(n)
	for _, s := range f.CurrentSet().Samples() {
		if math.Abs(s.Weight-want) > 1e-12 {
			t.Fatalf("weight = %v, want %v", s.Weight, want)
		}
	}
}

func TestSensorUpdateZeroTotalResetsToUniform(t *testing.T) {
	f := NewFilter(50, 500, 50)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))
	n := f.CurrentSet().N()

	sq := f.UpdateSensor(func(_ any, samples []Sample) float64 {
		for i := range samples {
			samples[i].Weight = 0
		}
		return 0
	}, nil)

	want := 1.0 / float64(n)
	for _, s := range f.CurrentSet().Samples() {
		if s.Weight != want {
			t.Fatalf("weight = %v, want exactly %v after reset", s.Weight, want)
		}
	}
	if math.Abs(sq-want) > 1e-12 {
		t.Fatalf("sum-square-weights = %v, want %v", sq, want)
	}
}

func TestScenarioS1GaussianTrackingConvergence(t *testing.T) {
	f := NewFilter(200, 3000, 0)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))

	truth := 0.0
	for step := 0; step < 10; step++ {
		truth += 0.1
		f.UpdateActionClustered(func(_ any, set *SampleSet) {
			for i := range set.samples {
				set.samples[i].Pose.X += 0.1 + f.rng.NormFloat64()*0.02
			}
		}, nil)

		f.UpdateSensor(func(_ any, samples []Sample) float64 {
			total := 0.0
			for i := range samples {
				dx := samples[i].Pose.X - truth
				dy := samples[i].Pose.Y
				w := math.Exp(-(dx*dx + dy*dy) / (2 * 0.05 * 0.05))
				samples[i].Weight = w
				total += w
			}
			return total
		}, nil)

		f.Resample(f.maxSamples)
	}

	set := f.CurrentSet()
	bestWeight, bestMean := -1.0, pose.Vector{}
	bestCov := pose.NewMatrix()
	for i := 0; i < set.ClusterCount(); i++ {
		w, mean, cov, ok := ClusterStatsOf(set, i)
		if ok && w > bestWeight {
			bestWeight, bestMean, bestCov = w, mean, cov
		}
	}

	if bestMean.X < 0.7 || bestMean.X > 1.3 {
		t.Fatalf("dominant cluster mean x = %v, want near 1.0", bestMean.X)
	}
	if bestCov.At(0, 0) > 0.2 {
		t.Fatalf("dominant cluster cov_xx = %v, want small", bestCov.At(0, 0))
	}
}

func TestScenarioS5HypothesisGuidance(t *testing.T) {
	grid := buildOpenGrid(40)
	f := NewFilter(50, 2000, 200)
	f.InitMap(grid)

	before := f.CurrentSet().ClusterCount()

	hyps := []Hypothesis{{
		Mean: pose.Vector{X: 10, Y: 10},
		Cov:  pose.Diag(0.3, 0.3, 0),
	}}
	f.ResampleHyps(grid, hyps, f.maxSamples)

	set := f.CurrentSet()
	if set.ClusterCount() < before {
		t.Fatalf("cluster count shrank: before=%d after=%d", before, set.ClusterCount())
	}

	found := false
	for i := 0; i < set.ClusterCount(); i++ {
		_, mean, _, ok := ClusterStatsOf(set, i)
		if ok && math.Abs(mean.X-10) < 2 && math.Abs(mean.Y-10) < 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no cluster near the hypothesis mean (10, 10)")
	}
}

func TestScenarioS6ClusterMeanIsCircular(t *testing.T) {
	// The two pairs below sit on opposite sides of the +/-pi branch cut.
	// kdtree's bucket key does not wrap theta, so they land 18 buckets
	// apart and form two separate clusters rather than one; each
	// cluster's own circular mean must still land near +/-pi, not get
	// pulled toward 0 by a naive arithmetic average.
	set := newSampleSet(4)
	set.resetEmpty()
	set.appendSample(Sample{Pose: pose.Vector{Theta: math.Pi - 0.01}, Weight: 0.5})
	set.appendSample(Sample{Pose: pose.Vector{Theta: math.Pi - 0.02}, Weight: 0.5})
	set.appendSample(Sample{Pose: pose.Vector{Theta: -math.Pi + 0.01}, Weight: 0.5})
	set.appendSample(Sample{Pose: pose.Vector{Theta: -math.Pi + 0.02}, Weight: 0.5})

	ClusterExternalSet(set)

	if set.ClusterCount() != 2 {
		t.Fatalf("cluster count = %d, want 2 (theta buckets do not wrap across +/-pi)", set.ClusterCount())
	}
	for i := 0; i < set.ClusterCount(); i++ {
		_, mean, _, ok := ClusterStatsOf(set, i)
		if !ok {
			t.Fatalf("ClusterStatsOf(%d) not ok", i)
		}
		if math.Abs(mean.Theta) < math.Pi/2 {
			t.Fatalf("cluster %d circular mean theta = %v, want near +/- pi, not collapsed toward 0", i, mean.Theta)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := NewFilter(50, 200, 20)
	f.InitGaussian(pose.Vector{}, pose.Diag(1, 1, 0.1))

	clone, err := f.Clone()
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}

	clone.Resample(clone.maxSamples)
	if clone.current == f.current {
		t.Fatalf("clone's resample should have flipped only the clone's current index")
	}
}
