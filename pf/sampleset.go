// Package pf implements the adaptive Monte Carlo localization particle
// filter: the sample-set double buffer, the resampling family, KLD
// sample-count adaptation, and cluster statistics. Callers must
// serialize all calls on a single Filter; no operation here is
// goroutine-safe, and none blocks.
package pf

import (
	"amclfilter/kdtree"
	"amclfilter/pose"
)

// clusterMaxCount bounds the cluster table, per spec.
const clusterMaxCount = 100

// Sample is one weighted pose hypothesis.
type Sample struct {
	Pose   pose.Vector
	Weight float64
}

// SampleSet is a fixed-capacity buffer of samples plus the kd-tree
// histogram built over them and the cluster table derived from it.
type SampleSet struct {
	samples  []Sample // len == live N, cap == maxSamples
	capacity int
	Tree     *kdtree.Tree
	clusters []Cluster
	nClusters int
}

func newSampleSet(maxSamples int) *SampleSet {
	s := &SampleSet{
		samples:  make([]Sample, maxSamples),
		capacity: maxSamples,
		Tree:     kdtree.New(3 * maxSamples),
		clusters: make([]Cluster, clusterMaxCount),
	}
	w := 1.0 / float64(maxSamples)
	for i := range s.samples {
		s.samples[i] = Sample{Pose: pose.Zero(), Weight: w}
	}
	return s
}

// N returns the live sample count.
func (s *SampleSet) N() int { return len(s.samples) }

// Samples returns the live sample slice. Motion and sensor model
// callbacks receive this directly; they may mutate poses/weights in
// place but must not grow or shrink it.
func (s *SampleSet) Samples() []Sample { return s.samples }

// setN grows or shrinks the live view without reallocating; n must not
// exceed capacity.
func (s *SampleSet) setN(n int) {
	s.samples = s.samples[:cap(s.samples)][:n]
}

// resetEmpty truncates the live view to zero length, the starting point
// for every resampling variant, which rebuilds set B by appending.
func (s *SampleSet) resetEmpty() {
	s.samples = s.samples[:cap(s.samples)][:0]
}

// appendSample grows the live view by one, writing sample into the new
// slot. The caller must ensure capacity remains.
func (s *SampleSet) appendSample(sample Sample) {
	s.samples = append(s.samples, sample)
}

// resetUniformWeight resets every live sample's weight to 1/n, leaving
// poses untouched. Used when a sensor update reports a zero total
// likelihood: the poses are still the best motion-updated estimate we
// have, only the weighting collapsed.
func (s *SampleSet) resetUniformWeight(n int) {
	w := 1.0 / float64(n)
	for i := range s.samples {
		s.samples[i].Weight = w
	}
}

// clone returns a deep copy of s: an independent samples slice (with
// the same live length and full capacity), kd-tree, and cluster table,
// so mutating the copy cannot affect s.
func (s *SampleSet) clone() *SampleSet {
	c := &SampleSet{
		samples:   make([]Sample, len(s.samples), cap(s.samples)),
		capacity:  s.capacity,
		Tree:      s.Tree.Clone(),
		clusters:  make([]Cluster, len(s.clusters)),
		nClusters: s.nClusters,
	}
	copy(c.samples, s.samples)
	for i, cl := range s.clusters {
		cl.Cov = cl.Cov.Clone()
		c.clusters[i] = cl
	}
	return c
}

// normalize divides every weight by total and returns sum(w^2) over the
// normalized weights.
func normalize(samples []Sample, total float64) float64 {
	sq := 0.0
	for i := range samples {
		samples[i].Weight /= total
		sq += samples[i].Weight * samples[i].Weight
	}
	return sq
}
