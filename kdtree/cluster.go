package kdtree

import "amclfilter/pose"

// neighborOffsets enumerates the 26 neighbor offsets of a 3-D bucket,
// excluding the bucket itself.
var neighborOffsets = buildNeighborOffsets()

func buildNeighborOffsets() [][3]int64 {
	var offs [][3]int64
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dt := int64(-1); dt <= 1; dt++ {
				if dx == 0 && dy == 0 && dt == 0 {
					continue
				}
				offs = append(offs, [3]int64{dx, dy, dt})
			}
		}
	}
	return offs
}

// Cluster assigns a non-negative label to every leaf such that two
// leaves share a label iff they are connected via a chain of leaves
// whose bucket keys differ by at most 1 on every axis. It returns the
// number of clusters found. Labels are assigned in the order flood
// fills are launched, which is leaf insertion order.
func (t *Tree) Cluster() int {
	for _, idx := range t.leaves {
		t.pool[idx].label = NoCluster
	}

	label := 0
	queue := make([]int, 0, len(t.leaves))
	for _, start := range t.leaves {
		if t.pool[start].label != NoCluster {
			continue
		}
		t.pool[start].label = label
		queue = queue[:0]
		queue = append(queue, start)
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			key := t.pool[cur].key
			for _, off := range neighborOffsets {
				nk := bucketKey{key[0] + off[0], key[1] + off[1], key[2] + off[2]}
				nIdx, ok := t.leafByKey[nk]
				if !ok || t.pool[nIdx].label != NoCluster {
					continue
				}
				t.pool[nIdx].label = label
				queue = append(queue, nIdx)
			}
		}
		label++
	}
	return label
}

// GetCluster returns the cluster label of the leaf containing pose, or
// NoCluster if the bucket is unoccupied.
func (t *Tree) GetCluster(p pose.Vector) int {
	idx, ok := t.leafByKey[keyOf(p)]
	if !ok {
		return NoCluster
	}
	return t.pool[idx].label
}
