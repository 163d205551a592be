package hierarchical

import (
	"fmt"

	"clusterkit/internal/core"
)

// buildDendrogram replays the ordered merge history from the leaves upward.
// Each internal node's height is the recorded merge distance; the root is
// the cluster created by the final merge. The tree is never mutated after
// this returns.
func buildDendrogram(merges []core.MergeRecord, points []core.Point) *core.DendrogramNode {
	nodes := make(map[int]*core.DendrogramNode, 2*len(points)-1)
	for i := range points {
		nodes[i] = &core.DendrogramNode{
			IsLeaf:    true,
			Size:      1,
			PointID:   i,
			ClusterID: i,
		}
	}
	var root *core.DendrogramNode
	if len(merges) == 0 {
		return nodes[0]
	}
	for _, rec := range merges {
		left := nodes[rec.ClusterA]
		right := nodes[rec.ClusterB]
		node := &core.DendrogramNode{
			Height:    rec.Distance,
			Size:      left.Size + right.Size,
			ClusterID: rec.Result,
			Left:      left,
			Right:     right,
		}
		nodes[rec.Result] = node
		root = node
	}
	return root
}

// CutByHeight walks down from the root and returns each maximal subtree whose
// height is at or below the cut as one cluster, yielding a fresh label
// assignment without reclustering. A cut at +Inf yields one cluster; a cut at
// 0 yields singletons unless duplicate points merged at height 0.
func CutByHeight(root *core.DendrogramNode, height float64) ([]int, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil dendrogram", core.ErrInvalidParams)
	}
	var subtrees []*core.DendrogramNode
	var descend func(n *core.DendrogramNode)
	descend = func(n *core.DendrogramNode) {
		if n.IsLeaf || n.Height <= height {
			subtrees = append(subtrees, n)
			return
		}
		descend(n.Left)
		descend(n.Right)
	}
	descend(root)
	return labelSubtrees(subtrees, root.Size), nil
}

// CutByCount splits the widest frontier node (highest merge height, first
// seen on ties) until the frontier holds numClusters subtrees or only leaves
// remain.
func CutByCount(root *core.DendrogramNode, numClusters int) ([]int, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil dendrogram", core.ErrInvalidParams)
	}
	if numClusters < 1 {
		return nil, fmt.Errorf("%w: numClusters must be positive, got %d", core.ErrInvalidParams, numClusters)
	}
	frontier := []*core.DendrogramNode{root}
	for len(frontier) < numClusters {
		splitIdx := -1
		for i, n := range frontier {
			if n.IsLeaf {
				continue
			}
			if splitIdx == -1 || n.Height > frontier[splitIdx].Height {
				splitIdx = i
			}
		}
		if splitIdx == -1 {
			break // only leaves left
		}
		n := frontier[splitIdx]
		// Replace in place so the traversal order stays deterministic.
		frontier = append(frontier[:splitIdx],
			append([]*core.DendrogramNode{n.Left, n.Right}, frontier[splitIdx+1:]...)...)
	}
	return labelSubtrees(frontier, root.Size), nil
}

// labelSubtrees assigns one label per subtree in traversal order.
func labelSubtrees(subtrees []*core.DendrogramNode, n int) []int {
	labels := make([]int, n)
	for li, sub := range subtrees {
		var collect func(node *core.DendrogramNode)
		collect = func(node *core.DendrogramNode) {
			if node.IsLeaf {
				labels[node.PointID] = li
				return
			}
			collect(node.Left)
			collect(node.Right)
		}
		collect(sub)
	}
	return labels
}
