package pf

import (
	"math"

	"amclfilter/pose"
)

// Cluster holds the running moments and derived mean/covariance of one
// connected component of the histogram, plus the weighted x,y
// outer-product accumulator needed to derive the linear covariance.
type Cluster struct {
	Count  int
	Weight float64
	Mean   pose.Vector
	Cov    pose.Matrix

	m0, m1, m2, m3 float64 // weighted x, y, cos(theta), sin(theta)
	c              [2][2]float64
}

// recomputeClusters re-clusters set's kd-tree and recomputes every
// cluster's weight, mean pose (with a circular mean for theta), and
// covariance (with the standard circular-variance identity for theta).
// Tree.Cluster can assign more distinct labels than clusterMaxCount;
// set.nClusters only ever grows from labels that fit the capped
// clusters table, mirroring pf_cluster_stats's own cap (pf.c:1036).
func recomputeClusters(set *SampleSet) {
	set.Tree.Cluster()
	set.nClusters = 0

	for i := range set.clusters {
		set.clusters[i] = Cluster{}
	}

	for _, sample := range set.samples {
		label := set.Tree.GetCluster(sample.Pose)
		if label < 0 {
			panic("pf: sample has no cluster label after clustering")
		}
		if label >= clusterMaxCount {
			continue
		}
		if label+1 > set.nClusters {
			set.nClusters = label + 1
		}

		cl := &set.clusters[label]
		cl.Count++
		cl.Weight += sample.Weight
		cl.m0 += sample.Weight * sample.Pose.X
		cl.m1 += sample.Weight * sample.Pose.Y
		cl.m2 += sample.Weight * math.Cos(sample.Pose.Theta)
		cl.m3 += sample.Weight * math.Sin(sample.Pose.Theta)

		cl.c[0][0] += sample.Weight * sample.Pose.X * sample.Pose.X
		cl.c[0][1] += sample.Weight * sample.Pose.X * sample.Pose.Y
		cl.c[1][0] += sample.Weight * sample.Pose.Y * sample.Pose.X
		cl.c[1][1] += sample.Weight * sample.Pose.Y * sample.Pose.Y
	}

	for i := 0; i < set.nClusters; i++ {
		cl := &set.clusters[i]
		if cl.Weight == 0 {
			continue
		}

		cl.Mean.X = cl.m0 / cl.Weight
		cl.Mean.Y = cl.m1 / cl.Weight
		cl.Mean.Theta = pose.CircularMean(cl.m2, cl.m3)

		cov := pose.NewMatrix()
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				mj := [2]float64{cl.Mean.X, cl.Mean.Y}[j]
				mk := [2]float64{cl.Mean.X, cl.Mean.Y}[k]
				cov.Set(j, k, cl.c[j][k]/cl.Weight-mj*mk)
			}
		}
		cov.Set(2, 2, -2*math.Log(math.Sqrt(cl.m2*cl.m2+cl.m3*cl.m3)))
		cl.Cov = cov
	}
}

// CEPStats returns the weighted (x, y) mean and the scalar spatial
// variance E[x^2+y^2] - E[x]^2 - E[y]^2 over the whole set, ignoring
// clustering.
func CEPStats(set *SampleSet) (mean pose.Vector, variance float64) {
	var mn, mx, my, mrr float64
	for _, sample := range set.samples {
		mn += sample.Weight
		mx += sample.Weight * sample.Pose.X
		my += sample.Weight * sample.Pose.Y
		mrr += sample.Weight * (sample.Pose.X*sample.Pose.X + sample.Pose.Y*sample.Pose.Y)
	}
	mean = pose.Vector{X: mx / mn, Y: my / mn}
	variance = mrr/mn - (mx*mx/(mn*mn) + my*my/(mn*mn))
	return mean, variance
}

// ClusterStatsOf returns the statistics for cluster label in set, or
// ok=false if label is out of range.
func ClusterStatsOf(set *SampleSet, label int) (weight float64, mean pose.Vector, cov pose.Matrix, ok bool) {
	if label < 0 || label >= set.nClusters {
		return 0, pose.Vector{}, pose.Matrix{}, false
	}
	cl := &set.clusters[label]
	return cl.Weight, cl.Mean, cl.Cov, true
}

// ClusterCount returns the number of clusters found by the most recent
// clustering pass.
func (s *SampleSet) ClusterCount() int { return s.nClusters }

// ClusterExternalSet runs the clustering pass on a sample set that was
// populated outside the normal init/resample flow (e.g. by a caller
// merging the outputs of two filters), rebuilding its histogram from
// scratch first. Mirrors pf_cluster_set from the original source.
func ClusterExternalSet(set *SampleSet) {
	set.Tree.Clear()
	for _, sample := range set.samples {
		set.Tree.Insert(sample.Pose, sample.Weight)
	}
	recomputeClusters(set)
}
