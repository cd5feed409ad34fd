package pf

import "go.mongodb.org/mongo-driver/bson"

// snapshotSample is the serializable projection of one weighted pose.
type snapshotSample struct {
	X, Y, Theta, Weight float64
}

// snapshotCluster is the serializable projection of one cluster.
type snapshotCluster struct {
	Weight    float64
	MeanX     float64
	MeanY     float64
	MeanTheta float64
}

// Snapshot is a point-in-time, storage-ready view of the current sample
// set: every live sample and every cluster's weight and mean pose.
type Snapshot struct {
	Samples  []snapshotSample
	Clusters []snapshotCluster
}

// SnapshotBSON marshals the current sample set to BSON, for logging a
// particle cloud to a document store between updates.
func (f *Filter) SnapshotBSON() ([]byte, error) {
	set := f.CurrentSet()

	snap := Snapshot{
		Samples:  make([]snapshotSample, set.N()),
		Clusters: make([]snapshotCluster, set.ClusterCount()),
	}
	for i, s := range set.samples {
		snap.Samples[i] = snapshotSample{X: s.Pose.X, Y: s.Pose.Y, Theta: s.Pose.Theta, Weight: s.Weight}
	}
	for i := 0; i < set.ClusterCount(); i++ {
		weight, mean, _, ok := ClusterStatsOf(set, i)
		if !ok {
			continue
		}
		snap.Clusters[i] = snapshotCluster{Weight: weight, MeanX: mean.X, MeanY: mean.Y, MeanTheta: mean.Theta}
	}

	return bson.Marshal(snap)
}
