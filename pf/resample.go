package pf

import (
	"math"

	"golang.org/x/exp/rand"

	"amclfilter/gridmap"
	"amclfilter/kdtree"
	"amclfilter/pose"
	"amclfilter/sampling"
)

// assertPositiveWeight mirrors the original source's assert(sample_a->
// weight > 0) on every categorical draw (pf.c:388): a zero-weight
// source sample indicates the importance distribution was built wrong,
// and silently copying it forward would corrupt the resampled set.
func assertPositiveWeight(w float64) {
	if w <= 0 {
		panic("pf: categorical draw selected a non-positive-weight sample")
	}
}

// Resample draws at most nMax samples from the current set into the
// other set by importance resampling, stopping early once the KLD
// sample-count bound for the resulting histogram is satisfied. Mirrors
// pf_update_resample.
func (f *Filter) Resample(nMax int) {
	setA, setB := f.CurrentSet(), f.otherSet()
	cat := sampling.NewCategorical(weightsOf(setA.samples), f.rng)

	setB.Tree.Clear()
	setB.resetEmpty()

	total := 0.0
	for setB.N() < nMax {
		a := setA.samples[cat.Sample()]
		assertPositiveWeight(a.Weight)
		b := Sample{Pose: a.Pose, Weight: 1.0}
		setB.appendSample(b)
		total += b.Weight
		setB.Tree.Insert(b.Pose, b.Weight)

		if setB.N() > f.klimit(setB.Tree.LeafCount()) {
			break
		}
	}

	f.finishResample(setB, total)
}

// ResampleMap behaves like Resample with nMax = maxSamples -
// overheadSamples, then, if fewer than minSamples+10 samples were drawn,
// injects up to 100 uniform free-space samples (never past maxSamples).
// Mirrors pf_update_resample_map.
func (f *Filter) ResampleMap(m gridmap.Map) {
	setA, setB := f.CurrentSet(), f.otherSet()
	cat := sampling.NewCategorical(weightsOf(setA.samples), f.rng)

	setB.Tree.Clear()
	setB.resetEmpty()

	nMax := f.maxSamples - f.overheadSamples
	total := 0.0
	for setB.N() < nMax {
		a := setA.samples[cat.Sample()]
		assertPositiveWeight(a.Weight)
		b := Sample{Pose: a.Pose, Weight: 1.0}
		setB.appendSample(b)
		total += b.Weight
		setB.Tree.Insert(b.Pose, b.Weight)

		if setB.N() > f.klimit(setB.Tree.LeafCount()) {
			break
		}
	}

	if setB.N() < f.minSamples+10 {
		u := sampling.NewBoundedUniform(m, f.rng)
		for i := 0; i < 100 && setB.N() < f.maxSamples; i++ {
			p := u.Sample()
			b := Sample{Pose: p, Weight: 1.0}
			setB.appendSample(b)
			total += b.Weight
			setB.Tree.Insert(b.Pose, b.Weight)
		}
	}

	f.finishResample(setB, total)
}

// ResampleAddParticles behaves like Resample, but reserves k slots at
// the end of the draw for uniform random free-space injections,
// unconditionally, regardless of how well the importance draw covered
// the histogram. Mirrors pf_update_resample_addParticle.
func (f *Filter) ResampleAddParticles(k int, m gridmap.Map) {
	setA, setB := f.CurrentSet(), f.otherSet()
	cat := sampling.NewCategorical(weightsOf(setA.samples), f.rng)

	setB.Tree.Clear()
	setB.resetEmpty()

	nMax := f.maxSamples - k
	total := 0.0
	for setB.N() < nMax {
		a := setA.samples[cat.Sample()]
		assertPositiveWeight(a.Weight)
		b := Sample{Pose: a.Pose, Weight: 1.0}
		setB.appendSample(b)
		total += b.Weight
		setB.Tree.Insert(b.Pose, b.Weight)

		if setB.N() > f.klimit(setB.Tree.LeafCount()) {
			break
		}
	}

	u := sampling.NewBoundedUniform(m, f.rng)
	for i := 0; i < k; i++ {
		p := u.Sample()
		b := Sample{Pose: p, Weight: 1.0}
		setB.appendSample(b)
		total += b.Weight
		setB.Tree.Insert(b.Pose, b.Weight)
	}

	f.finishResample(setB, total)
}

// ResampleHyps behaves like Resample, but after the importance draw
// fills the remainder of the budget (divided evenly across hyps) with
// free-space-rejected draws from each hypothesis's bivariate Gaussian.
// nParticle caps the total number of hypothesis-guided injections.
// Mirrors pf_update_resample_hyps.
func (f *Filter) ResampleHyps(m gridmap.Map, hyps []Hypothesis, nParticle int) {
	setA, setB := f.CurrentSet(), f.otherSet()
	cat := sampling.NewCategorical(weightsOf(setA.samples), f.rng)

	setB.Tree.Clear()
	setB.resetEmpty()

	nMax := f.maxSamples - f.overheadSamples
	total := 0.0
	for setB.N() < nMax {
		a := setA.samples[cat.Sample()]
		assertPositiveWeight(a.Weight)
		b := Sample{Pose: a.Pose, Weight: 1.0}
		setB.appendSample(b)
		total += b.Weight
		setB.Tree.Insert(b.Pose, b.Weight)

		if setB.N() > f.klimit(setB.Tree.LeafCount()) {
			break
		}
	}

	if len(hyps) > 0 {
		nNewSample := f.maxSamples - setB.N()
		if nParticle < nNewSample {
			nNewSample = nParticle
		}
		nNewSample /= len(hyps)

		for _, h := range hyps {
			for i := 0; i < nNewSample; i++ {
				b, ok := drawFromHypothesis(f.rng, m, h)
				if !ok {
					continue
				}
				setB.appendSample(b)
				total += b.Weight
				setB.Tree.Insert(b.Pose, b.Weight)
			}
		}
	}

	f.finishResample(setB, total)
}

// ResampleHypsGuided is the "guided" hypothesis variant: the importance
// draw uses the standard KLD divisor (klimit) just like Resample, and
// the budget it frees up is spent growing each hypothesis into its own
// KLD-sized cloud rather than a flat per-hypothesis quota. Each
// hypothesis accumulates into a scratch histogram of its own: it makes
// nMinPart seeding draws (draws off free space are dropped, not
// retried), heading forced to 0, then keeps injecting
// until either the hypothesis's share of the budget is exhausted or the
// scratch histogram's relaxed cutoff (klimit2) is met. Heading is drawn
// uniformly only once a sample is handed off to set B. Mirrors
// pf_update_resample_hyps_3 (pf.c:1240-1446), including its seed-then-
// grow loop (pf.c:1339-1410) and deferred heading draw (pf.c:1419).
func (f *Filter) ResampleHypsGuided(m gridmap.Map, hyps []Hypothesis) {
	setA, setB := f.CurrentSet(), f.otherSet()
	cat := sampling.NewCategorical(weightsOf(setA.samples), f.rng)

	setB.Tree.Clear()
	setB.resetEmpty()

	nReqSamples := f.maxSamples - setA.N()
	if nReqSamples < f.overheadSamples {
		nReqSamples = f.maxSamples - f.overheadSamples
	} else {
		nReqSamples = setA.N()
	}

	total := 0.0
	for setB.N() < nReqSamples {
		a := setA.samples[cat.Sample()]
		assertPositiveWeight(a.Weight)
		b := Sample{Pose: a.Pose, Weight: 1.0}
		setB.appendSample(b)
		total += b.Weight
		setB.Tree.Insert(b.Pose, b.Weight)

		if setB.N() > f.klimit(setB.Tree.LeafCount()) {
			break
		}
	}

	if len(hyps) > 0 {
		nNewSample := (f.maxSamples - nReqSamples) / len(hyps)
		nMinPart := nNewSample
		if nMinPart > 10 {
			nMinPart = 10
		}

		scratch := kdtree.New(3 * (nNewSample + 1))
		positions := make([]pose.Vector, 0, nNewSample)
		for _, h := range hyps {
			scratch.Clear()
			positions = positions[:0]

			for i := 0; i < nMinPart; i++ {
				p, ok := hypothesisPosition(f.rng, m, h)
				if !ok {
					continue
				}
				positions = append(positions, p)
				scratch.Insert(p, 1.0)
			}

			for len(positions) < nNewSample {
				if len(positions) > f.klimit2(scratch.LeafCount()) {
					break
				}
				p, ok := hypothesisPosition(f.rng, m, h)
				if !ok {
					continue
				}
				positions = append(positions, p)
				scratch.Insert(p, 1.0)
			}

			for _, p := range positions {
				p.Theta = (f.rng.Float64()*2 - 1) * math.Pi
				b := Sample{Pose: p, Weight: 1.0}
				setB.appendSample(b)
				total += b.Weight
				setB.Tree.Insert(b.Pose, b.Weight)
			}
		}
	}

	f.finishResample(setB, total)
}

// ResampleHypsBlend is an experimental hypothesis variant: it injects
// hypothesis-guided samples directly into the current set first, then
// runs one more importance-resample pass over the blended set. overHead
// shrinks the resample pass's budget the same way overheadSamples does
// elsewhere. Mirrors pf_update_resample_hyps_2; kept distinct from
// ResampleHyps because it mutates set A in place before resampling it,
// an unusual control flow worth keeping isolated.
func (f *Filter) ResampleHypsBlend(m gridmap.Map, hyps []Hypothesis, overHead int) {
	setA, setB := f.CurrentSet(), f.otherSet()

	if len(hyps) > 0 {
		nNewSample := (f.maxSamples - setA.N()) / len(hyps)
		for _, h := range hyps {
			for i := 0; i < nNewSample; i++ {
				b, ok := drawFromHypothesis(f.rng, m, h)
				if !ok {
					continue
				}
				setA.appendSample(b)
			}
		}
	}

	w := 1.0 / float64(setA.N())
	for i := range setA.samples {
		setA.samples[i].Weight = w
	}

	cat := sampling.NewCategorical(weightsOf(setA.samples), f.rng)

	setB.Tree.Clear()
	setB.resetEmpty()

	nMax := f.maxSamples - overHead
	for setB.N() < nMax {
		a := setA.samples[cat.Sample()]
		assertPositiveWeight(a.Weight)
		b := Sample{Pose: a.Pose, Weight: 1.0}
		setB.appendSample(b)
		setB.Tree.Insert(b.Pose, b.Weight)

		if setB.N() > f.klimit(setB.Tree.LeafCount()) {
			break
		}
	}

	total := float64(setB.N())
	f.finishResample(setB, total)
}

func (f *Filter) finishResample(setB *SampleSet, total float64) {
	f.sumSquareWeights = normalize(setB.samples, total)
	recomputeClusters(setB)
	f.flip()
}

func weightsOf(samples []Sample) []float64 {
	w := make([]float64, len(samples))
	for i, s := range samples {
		w[i] = s.Weight
	}
	return w
}

// hypothesisPosition draws an (x, y) position from h's bivariate
// Gaussian, rejecting draws that fall outside the map or on a cell that
// is not free. Theta is left zero; callers that need a heading draw one
// themselves (drawFromHypothesis draws it immediately, the guided
// per-hypothesis growth loop defers it to transfer time).
func hypothesisPosition(rng *rand.Rand, m gridmap.Map, h Hypothesis) (pose.Vector, bool) {
	x, y := sampling.Bivariate(rng, h.Cov.At(0, 0), h.Cov.At(1, 1), h.rho())
	x += h.Mean.X
	y += h.Mean.Y

	i, j := m.GridX(x), m.GridY(y)
	if !m.Valid(i, j) || !m.IsFree(x, y) {
		return pose.Vector{}, false
	}
	return pose.Vector{X: x, Y: y}, true
}

func drawFromHypothesis(rng *rand.Rand, m gridmap.Map, h Hypothesis) (Sample, bool) {
	p, ok := hypothesisPosition(rng, m, h)
	if !ok {
		return Sample{}, false
	}
	p.Theta = (rng.Float64()*2 - 1) * math.Pi
	return Sample{Pose: p, Weight: 1.0}, true
}
