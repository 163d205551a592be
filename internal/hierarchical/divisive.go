package hierarchical

import (
	"context"

	"clusterkit/internal/core"
)

// twoMeansMaxIterations caps the bisecting 2-means refinement.
const twoMeansMaxIterations = 50

// divisive runs the top-down bisecting loop: repeatedly split the active
// cluster with the largest mean squared deviation from its centroid until
// the target count is reached or every cluster is a singleton.
func (e *Engine) divisive(ctx context.Context, points []core.Point, targetK int) (*core.HierarchicalResult, error) {
	n := len(points)
	if targetK < 1 {
		targetK = autoClusterCount(n)
	}

	allIDs := make([]int, n)
	for i := range allIDs {
		allIDs[i] = i
	}
	arena := []core.Cluster{{
		ID:         0,
		PointIDs:   allIDs,
		Centroid:   meanVector(points, allIDs),
		Size:       n,
		LeftChild:  core.NoChild,
		RightChild: core.NoChild,
	}}
	active := []int{0}

	var splits []core.SplitRecord
	step := 0

	for len(active) < targetK {
		if err := ctx.Err(); err != nil {
			return nil, core.ErrCancelled
		}

		// Pick the splittable cluster with the largest variance; first seen
		// wins on ties, scanning in ascending arena-id order.
		srcIdx := -1
		srcVariance := -1.0
		for i, cid := range active {
			c := &arena[cid]
			if c.Size < 2 {
				continue
			}
			if v := clusterVariance(points, c.PointIDs, c.Centroid); v > srcVariance {
				srcVariance = v
				srcIdx = i
			}
		}
		if srcIdx == -1 {
			break // nothing left to split
		}

		src := arena[active[srcIdx]]
		leftIDs, rightIDs := e.bisect(points, src.PointIDs)

		left := core.Cluster{
			ID:         len(arena),
			PointIDs:   leftIDs,
			Centroid:   meanVector(points, leftIDs),
			Size:       len(leftIDs),
			Level:      src.Level + 1,
			LeftChild:  core.NoChild,
			RightChild: core.NoChild,
		}
		arena = append(arena, left)
		right := core.Cluster{
			ID:         len(arena),
			PointIDs:   rightIDs,
			Centroid:   meanVector(points, rightIDs),
			Size:       len(rightIDs),
			Level:      src.Level + 1,
			LeftChild:  core.NoChild,
			RightChild: core.NoChild,
		}
		arena = append(arena, right)
		arena[src.ID].LeftChild = left.ID
		arena[src.ID].RightChild = right.ID

		splits = append(splits, core.SplitRecord{
			Step:     step,
			Source:   src.ID,
			ResultA:  left.ID,
			ResultB:  right.ID,
			Variance: srcVariance,
		})

		// Replace the source with its children; new ids are the largest so
		// far, so the active list stays sorted.
		active = append(active[:srcIdx], active[srcIdx+1:]...)
		active = append(active, left.ID, right.ID)

		step++
		if e.opts.Progress != nil && step%progressInterval == 0 {
			e.opts.Progress(step, targetK-1)
		}
	}

	labels := make([]int, n)
	finalClusters := make([]core.Cluster, len(active))
	for li, cid := range active {
		c := arena[cid]
		finalClusters[li] = c
		for _, pid := range c.PointIDs {
			labels[pid] = li
		}
	}

	return &core.HierarchicalResult{
		Labels:   labels,
		Clusters: finalClusters,
		Splits:   splits,
		Stats:    e.finalStats(points, finalClusters),
	}, nil
}

// bisect splits a member list with a deterministic 2-means pass: seeds are
// the first point and the point at the midpoint index (never random), then
// assign/recompute until no point moves or the iteration cap is hit. An
// empty side is rescued by moving one point across so both children are
// non-empty.
func (e *Engine) bisect(points []core.Point, ids []int) (left, right []int) {
	seedA := append([]float64(nil), points[ids[0]].Features...)
	seedB := append([]float64(nil), points[ids[len(ids)/2]].Features...)

	assignment := make([]bool, len(ids)) // true = right side
	for iter := 0; iter < twoMeansMaxIterations; iter++ {
		moved := false
		for i, id := range ids {
			toRight := e.dist(points[id].Features, seedB) < e.dist(points[id].Features, seedA)
			if toRight != assignment[i] {
				assignment[i] = toRight
				moved = true
			}
		}
		if !moved && iter > 0 {
			break
		}

		var leftIDs, rightIDs []int
		for i, id := range ids {
			if assignment[i] {
				rightIDs = append(rightIDs, id)
			} else {
				leftIDs = append(leftIDs, id)
			}
		}
		if len(leftIDs) == 0 || len(rightIDs) == 0 {
			break // degenerate split; rescued below
		}
		seedA = meanVector(points, leftIDs)
		seedB = meanVector(points, rightIDs)
		if !moved {
			break
		}
	}

	for i, id := range ids {
		if assignment[i] {
			right = append(right, id)
		} else {
			left = append(left, id)
		}
	}
	// Guarantee both children are non-empty: identical seeds can pull every
	// point to one side.
	if len(left) == 0 {
		left = append(left, right[len(right)-1])
		right = right[:len(right)-1]
	} else if len(right) == 0 {
		right = append(right, left[len(left)-1])
		left = left[:len(left)-1]
	}
	return left, right
}
