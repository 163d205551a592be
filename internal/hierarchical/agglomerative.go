package hierarchical

import (
	"context"
	"math"

	"clusterkit/internal/core"
	"clusterkit/internal/distance"
)

// agglomerative runs the bottom-up merge loop. The evolving forest lives in
// an arena of cluster nodes; every merge allocates a new slot and records
// child ids, never live references.
//
// The stop condition (target cluster count, or a merge distance exceeding the
// threshold) fixes the exported labels. When a dendrogram is requested the
// loop keeps merging past that point down to a single root so the tree is
// complete and cuttable at any height; the label snapshot is unaffected.
func (e *Engine) agglomerative(ctx context.Context, points []core.Point, targetK int) (*core.HierarchicalResult, error) {
	n := len(points)
	arena := make([]core.Cluster, 0, 2*n-1)
	for i := range points {
		arena = append(arena, core.Cluster{
			ID:         i,
			PointIDs:   []int{i},
			Centroid:   append([]float64(nil), points[i].Features...),
			Size:       1,
			LeftChild:  core.NoChild,
			RightChild: core.NoChild,
		})
	}

	// single/complete/average linkage scan all member pairs, so the all-pairs
	// point distances are computed once up front. Ward and centroid linkage
	// work on centroids alone and skip the O(N²) matrix.
	var pairDist [][]float64
	switch e.opts.Linkage {
	case SingleLinkage, CompleteLinkage, AverageLinkage:
		pairDist = distance.Matrix(featureRows(points), e.dist, e.opts.Workers)
	}

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	var merges []core.MergeRecord
	var snapshot []int // active set at the stop condition; nil until reached
	threshold := e.opts.DistanceThreshold
	step := 0

	for len(active) > 1 {
		if err := ctx.Err(); err != nil {
			return nil, core.ErrCancelled
		}
		if snapshot == nil && targetK > 0 && len(active) == targetK {
			snapshot = append([]int(nil), active...)
			if !e.opts.BuildDendrogram {
				break
			}
		}

		// Globally minimal pair. active is kept in ascending arena-id order
		// and the comparison is strict, so ties resolve to the lowest (i, j)
		// index pair regardless of how they arise.
		bestA, bestB := -1, -1
		bestDist := math.Inf(1)
		for ai := 0; ai < len(active); ai++ {
			for bi := ai + 1; bi < len(active); bi++ {
				d := e.linkageDistance(&arena[active[ai]], &arena[active[bi]], pairDist)
				if d < bestDist {
					bestDist = d
					bestA, bestB = ai, bi
				}
			}
		}

		// The threshold stops the run before the offending merge is applied.
		if snapshot == nil && threshold > 0 && bestDist > threshold {
			snapshot = append([]int(nil), active...)
			if !e.opts.BuildDendrogram {
				break
			}
		}

		a := arena[active[bestA]]
		b := arena[active[bestB]]
		merged := mergeClusters(len(arena), &a, &b, bestDist)
		arena = append(arena, merged)
		merges = append(merges, core.MergeRecord{
			Step:     step,
			ClusterA: a.ID,
			ClusterB: b.ID,
			Result:   merged.ID,
			Distance: bestDist,
		})

		// Remove the parents and append the child; the new arena id is the
		// largest so far, so the active list stays sorted.
		active = append(active[:bestB], active[bestB+1:]...)
		active = append(active[:bestA], active[bestA+1:]...)
		active = append(active, merged.ID)

		step++
		if e.opts.Progress != nil && step%progressInterval == 0 {
			e.opts.Progress(step, n-1)
		}
	}
	if snapshot == nil {
		snapshot = append([]int(nil), active...)
	}

	labels := make([]int, n)
	finalClusters := make([]core.Cluster, len(snapshot))
	for li, cid := range snapshot {
		c := arena[cid]
		finalClusters[li] = c
		for _, pid := range c.PointIDs {
			labels[pid] = li
		}
	}

	result := &core.HierarchicalResult{
		Labels:          labels,
		Clusters:        finalClusters,
		Merges:          merges,
		Stats:           e.finalStats(points, finalClusters),
		OptimalClusters: optimalClusterCount(merges, n),
	}
	if e.opts.BuildDendrogram {
		result.Dendrogram = buildDendrogram(merges, points)
	}
	return result, nil
}

// mergeClusters builds the merged arena node: concatenated members, the
// size-weighted centroid of the parents, and a level one above the deeper
// parent.
func mergeClusters(id int, a, b *core.Cluster, dist float64) core.Cluster {
	pointIDs := make([]int, 0, a.Size+b.Size)
	pointIDs = append(pointIDs, a.PointIDs...)
	pointIDs = append(pointIDs, b.PointIDs...)

	na, nb := float64(a.Size), float64(b.Size)
	centroid := make([]float64, len(a.Centroid))
	for d := range centroid {
		centroid[d] = (a.Centroid[d]*na + b.Centroid[d]*nb) / (na + nb)
	}

	level := a.Level
	if b.Level > level {
		level = b.Level
	}
	return core.Cluster{
		ID:            id,
		PointIDs:      pointIDs,
		Centroid:      centroid,
		Size:          a.Size + b.Size,
		Level:         level + 1,
		MergeDistance: dist,
		LeftChild:     a.ID,
		RightChild:    b.ID,
	}
}

// linkageDistance computes the between-cluster distance for the configured
// linkage. pairDist is the precomputed point distance matrix and is nil for
// ward/centroid linkage.
func (e *Engine) linkageDistance(a, b *core.Cluster, pairDist [][]float64) float64 {
	switch e.opts.Linkage {
	case SingleLinkage:
		best := math.Inf(1)
		for _, pa := range a.PointIDs {
			for _, pb := range b.PointIDs {
				if d := pairDist[pa][pb]; d < best {
					best = d
				}
			}
		}
		return best
	case CompleteLinkage:
		worst := 0.0
		for _, pa := range a.PointIDs {
			for _, pb := range b.PointIDs {
				if d := pairDist[pa][pb]; d > worst {
					worst = d
				}
			}
		}
		return worst
	case AverageLinkage:
		var sum float64
		for _, pa := range a.PointIDs {
			for _, pb := range b.PointIDs {
				sum += pairDist[pa][pb]
			}
		}
		return sum / float64(a.Size*b.Size)
	case WardLinkage:
		// Lance-Williams closed form; equals SS(merged) - SS(a) - SS(b).
		// Zero for identical centroids, so degenerate clusters merge at 0.
		na, nb := float64(a.Size), float64(b.Size)
		return na * nb / (na + nb) * distance.SquaredEuclidean(a.Centroid, b.Centroid)
	default: // CentroidLinkage
		return e.dist(a.Centroid, b.Centroid)
	}
}

// optimalClusterCount suggests a cluster count from the largest jump between
// consecutive merge distances (the elbow of the merge curve). Cutting before
// merge i leaves n-i clusters. The first maximal jump wins.
func optimalClusterCount(merges []core.MergeRecord, n int) int {
	if len(merges) < 2 {
		return len(merges) + 1
	}
	bestIdx := 1
	bestJump := math.Inf(-1)
	for i := 1; i < len(merges); i++ {
		jump := merges[i].Distance - merges[i-1].Distance
		if jump > bestJump {
			bestJump = jump
			bestIdx = i
		}
	}
	k := n - bestIdx
	if k < 2 {
		k = 2
	}
	if k > 10 {
		k = 10
	}
	if k > n {
		k = n
	}
	return k
}
