package pf

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"

	mrand "golang.org/x/exp/rand"

	"amclfilter/gridmap"
	"amclfilter/pose"
	"amclfilter/sampling"
)

// ActionModelFunc mutates sample_set.samples[*].pose in place. It must
// not change the sample count and must not touch weights.
type ActionModelFunc func(data any, set *SampleSet)

// SensorModelFunc overwrites every sample's weight with the likelihood
// of the observation given that sample's pose, and returns the sum of
// the new weights. It must not touch poses or change the sample count.
type SensorModelFunc func(data any, samples []Sample) float64

// InitModelFunc draws one pose from a caller-supplied distribution.
type InitModelFunc func(data any) pose.Vector

// InitHeadingKind controls how init_map seeds a sample's heading, per
// the open question in spec.md 9: the original source unconditionally
// zeroed it, flagged in a comment as a to-be-checked modification.
type InitHeadingKind int

const (
	// InitHeadingUniform draws heading uniformly on (-pi, pi]. Default.
	InitHeadingUniform InitHeadingKind = iota
	// InitHeadingZero forces heading to zero, matching the original
	// source bit-for-bit.
	InitHeadingZero
	// InitHeadingFixed forces heading to Filter.fixedHeading.
	InitHeadingFixed
)

// Filter owns two sample sets and orchestrates init, action/sensor
// updates, and the resampling family across them. All methods must be
// called in strict program order on one goroutine; nothing here
// synchronizes concurrent access.
type Filter struct {
	sets    [2]*SampleSet
	current int

	minSamples, maxSamples, overheadSamples int
	popErr, popZ                            float64
	sumSquareWeights                        float64

	rng *mrand.Rand

	initHeading  InitHeadingKind
	fixedHeading float64
}

// NewFilter allocates a filter with two sample sets of capacity
// maxSamples, each with its own kd-tree sized 3x maxSamples nodes.
// popErr defaults to 0.01 and popZ to 3, the standard Fox KLD-sampling
// parameters; override via SetKLDParams.
func NewFilter(minSamples, maxSamples, overheadSamples int) *Filter {
	f := &Filter{
		minSamples:      minSamples,
		maxSamples:      maxSamples,
		overheadSamples: overheadSamples,
		popErr:          0.01,
		popZ:            3,
		rng:             mrand.New(mrand.NewSource(seedFromEntropy())),
	}
	f.sets[0] = newSampleSet(maxSamples)
	f.sets[1] = newSampleSet(maxSamples)
	return f
}

// seedFromEntropy reads a seed from crypto/rand rather than time.Now(),
// avoiding the coarse-granularity reseeding weakness spec.md 9 flags in
// the original source's per-call time(NULL) seeding.
func seedFromEntropy() uint64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		panic("pf: failed to read seed entropy: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// SetKLDParams overrides the default Fox KLD-sampling parameters.
func (f *Filter) SetKLDParams(popErr, popZ float64) {
	f.popErr, f.popZ = popErr, popZ
}

// SetInitHeading selects how InitMap seeds heading when no motion
// information is available. Resample-time map injections are not
// affected; they always draw heading uniformly.
func (f *Filter) SetInitHeading(kind InitHeadingKind, fixed float64) {
	f.initHeading = kind
	f.fixedHeading = fixed
}

// CurrentSet returns the live sample set, the one every query and
// callback operates against.
func (f *Filter) CurrentSet() *SampleSet { return f.sets[f.current] }

func (f *Filter) otherSet() *SampleSet { return f.sets[(f.current+1)%2] }

func (f *Filter) flip() { f.current = (f.current + 1) % 2 }

func (f *Filter) headingFor(defaultTheta float64) float64 {
	switch f.initHeading {
	case InitHeadingZero:
		return 0
	case InitHeadingFixed:
		return f.fixedHeading
	default:
		return defaultTheta
	}
}

// InitGaussian seeds the current set by drawing maxSamples poses from a
// multivariate Gaussian, then rebuilds the histogram and cluster stats.
func (f *Filter) InitGaussian(mean pose.Vector, cov pose.Matrix) {
	set := f.CurrentSet()
	set.Tree.Clear()
	set.setN(f.maxSamples)

	g := sampling.NewGaussian(mean, cov, f.rng)
	w := 1.0 / float64(f.maxSamples)
	for i := range set.samples {
		set.samples[i] = Sample{Pose: g.Sample(), Weight: w}
		set.Tree.Insert(set.samples[i].Pose, w)
	}

	recomputeClusters(set)
}

// InitMap seeds the current set uniformly over m's free cells. Heading
// is controlled by Filter.initHeading (see InitHeadingKind).
func (f *Filter) InitMap(m gridmap.Map) {
	set := f.CurrentSet()
	set.Tree.Clear()
	set.setN(f.maxSamples)

	u := sampling.NewBoundedUniform(m, f.rng)
	if f.initHeading != InitHeadingUniform {
		u = u.WithFixedTheta(f.headingFor(0))
	}

	w := 1.0 / float64(f.maxSamples)
	for i := range set.samples {
		set.samples[i] = Sample{Pose: u.Sample(), Weight: w}
		set.Tree.Insert(set.samples[i].Pose, w)
	}

	recomputeClusters(set)
}

// InitModel seeds the current set from a caller-supplied sampler.
func (f *Filter) InitModel(fn InitModelFunc, data any) {
	set := f.CurrentSet()
	set.Tree.Clear()
	set.setN(f.maxSamples)

	w := 1.0 / float64(f.maxSamples)
	for i := range set.samples {
		set.samples[i] = Sample{Pose: fn(data), Weight: w}
		set.Tree.Insert(set.samples[i].Pose, w)
	}

	recomputeClusters(set)
}

// InitToPoint seeds the current set uniformly in
// [x-var/2, x+var/2] x [y-var/2, y+var/2], subject to map bounds (not
// the free-cell predicate), with heading drawn uniformly.
func (f *Filter) InitToPoint(m gridmap.Map, x, y, variance float64) {
	set := f.CurrentSet()
	set.Tree.Clear()
	set.setN(f.maxSamples)

	w := 1.0 / float64(f.maxSamples)
	for i := range set.samples {
		p := sampling.InBounds(m, f.rng, x, y, variance)
		set.samples[i] = Sample{Pose: p, Weight: w}
		set.Tree.Insert(p, w)
	}

	recomputeClusters(set)
}

// UpdateAction runs the motion model against the current set without
// touching the histogram; callers that will resample next should use
// this, since resampling rebuilds the histogram from the motion-updated
// poses anyway.
func (f *Filter) UpdateAction(fn ActionModelFunc, data any) {
	fn(data, f.CurrentSet())
}

// UpdateActionClustered runs the motion model, then rebuilds the
// histogram and recomputes cluster statistics in place, for callers
// that want a cluster read between the action and sensor updates.
func (f *Filter) UpdateActionClustered(fn ActionModelFunc, data any) {
	set := f.CurrentSet()
	set.Tree.Clear()

	fn(data, set)

	for _, sample := range set.samples {
		set.Tree.Insert(sample.Pose, sample.Weight)
	}
	recomputeClusters(set)
}

// UpdateSensor runs the sensor model, normalizes the resulting weights,
// and returns sum(w^2) over the normalized weights (an effective-sample-
// size surrogate). If the sensor model reports a zero total, weights are
// reset to uniform and a diagnostic is printed, per spec.md 7.
func (f *Filter) UpdateSensor(fn SensorModelFunc, data any) float64 {
	set := f.CurrentSet()
	total := fn(data, set.samples)

	if total > 0 {
		f.sumSquareWeights = normalize(set.samples, total)
	} else {
		fmt.Println("pf: sensor update returned zero total weight, resetting to uniform")
		set.resetUniformWeight(set.N())
		f.sumSquareWeights = 1.0 / float64(set.N())
	}
	return f.sumSquareWeights
}
