package core

import "errors"

// NoiseLabel is the sentinel cluster label reserved for DBSCAN noise points.
// The hierarchical engine never produces it.
const NoiseLabel = -1

// NoChild marks an empty child slot in a Cluster arena node.
const NoChild = -1

// Sentinel errors for the validation and cancellation taxonomy. Callers
// match them with errors.Is; engines wrap them with context via fmt.Errorf.
var (
	// ErrInvalidInput covers empty input, inconsistent record shape, missing
	// numeric features, and datasets exceeding the configured point limit.
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInvalidParams covers non-positive eps, out-of-range minPts, unknown
	// metrics/linkages, and cluster targets that cannot be satisfied.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrCancelled is returned when a run is aborted through its context.
	// No partial result accompanies it.
	ErrCancelled = errors.New("clustering cancelled")

	// ErrLabelLengthMismatch is returned by external quality metrics when the
	// predicted and true label arrays differ in length.
	ErrLabelLengthMismatch = errors.New("label arrays differ in length")
)

// ProgressFunc reports completed outer-loop steps out of an estimated total.
// Engines invoke it at a fixed cadence; it must not block.
type ProgressFunc func(step, total int)

// Point is a single observation: a stable 0-based index into the original
// input plus a fixed-length numeric feature vector. Immutable once ingested.
type Point struct {
	ID       int       `json:"id"`       // 0-based index into the original input
	Features []float64 `json:"features"` // fixed-length numeric vector
}

// Cluster is one node in the merge/split forest. The forest lives in an
// arena indexed by Cluster.ID; children are referenced by arena id rather
// than pointer so the merge history serializes cleanly and carries no
// ownership cycles.
type Cluster struct {
	ID            int       `json:"id"`             // arena slot of this node
	PointIDs      []int     `json:"point_ids"`      // member point ids
	Centroid      []float64 `json:"centroid"`       // size-weighted mean of member features
	Size          int       `json:"size"`           // len(PointIDs)
	Level         int       `json:"level"`          // merge/split depth, 0 for leaves
	MergeDistance float64   `json:"merge_distance"` // linkage value when this node was created
	LeftChild     int       `json:"left_child"`     // arena id, NoChild for leaves
	RightChild    int       `json:"right_child"`    // arena id, NoChild for leaves
}

// IsLeaf reports whether the cluster wraps a single original point.
func (c *Cluster) IsLeaf() bool {
	return c.LeftChild == NoChild && c.RightChild == NoChild
}

// MergeRecord is one append-only entry in the agglomerative merge log.
// Distances are non-decreasing across steps for single/complete/average/ward
// linkage; centroid linkage may invert, which is accepted rather than fixed.
type MergeRecord struct {
	Step     int     `json:"step"`      // 0-based merge step
	ClusterA int     `json:"cluster_a"` // arena id of the first parent
	ClusterB int     `json:"cluster_b"` // arena id of the second parent
	Result   int     `json:"result"`    // arena id of the merged cluster
	Distance float64 `json:"distance"`  // linkage distance of the merge
}

// SplitRecord is one append-only entry in the divisive split log.
type SplitRecord struct {
	Step     int     `json:"step"`     // 0-based split step
	Source   int     `json:"source"`   // arena id of the split cluster
	ResultA  int     `json:"result_a"` // arena id of the first child
	ResultB  int     `json:"result_b"` // arena id of the second child
	Variance float64 `json:"variance"` // mean squared deviation that selected the source
}

// DendrogramNode is a binary tree mirroring the agglomerative merge lineage.
// It is built once from the ordered merge history and never mutated.
type DendrogramNode struct {
	IsLeaf    bool            `json:"is_leaf"`
	Height    float64         `json:"height"`     // merge distance, 0 for leaves
	Size      int             `json:"size"`       // points under this node
	PointID   int             `json:"point_id"`   // original point id (leaves only)
	ClusterID int             `json:"cluster_id"` // originating arena id
	Left      *DendrogramNode `json:"left,omitempty"`
	Right     *DendrogramNode `json:"right,omitempty"`
}

// ClusterStats summarizes one final cluster. Variance, Diameter and the
// density fields degrade to 0 for degenerate clusters (single point, all
// points identical) rather than producing NaN.
type ClusterStats struct {
	ClusterID   int       `json:"cluster_id"`  // output label of the cluster
	Size        int       `json:"size"`        // member count
	Centroid    []float64 `json:"centroid"`    // mean feature vector
	Variance    float64   `json:"variance"`    // mean squared euclidean deviation from centroid
	Diameter    float64   `json:"diameter"`    // max pairwise member distance
	Radius      float64   `json:"radius"`      // max centroid-to-member distance (DBSCAN)
	Compactness float64   `json:"compactness"` // mean centroid-to-member distance (DBSCAN)
	Density     float64   `json:"density"`     // size per unit radius (DBSCAN)
}

// HierarchicalResult is the output record of one hierarchical clustering run.
type HierarchicalResult struct {
	RunID           string          `json:"run_id"`                     // unique id for this run
	Labels          []int           `json:"labels"`                     // labels[i] aligned by point id, in [0, numClusters)
	Clusters        []Cluster       `json:"clusters"`                   // final active clusters
	Merges          []MergeRecord   `json:"merges,omitempty"`           // agglomerative history
	Splits          []SplitRecord   `json:"splits,omitempty"`           // divisive history
	Dendrogram      *DendrogramNode `json:"dendrogram,omitempty"`       // agglomerative only, on request
	Stats           []ClusterStats  `json:"stats"`                      // per final cluster
	OptimalClusters int             `json:"optimal_clusters,omitempty"` // elbow suggestion, agglomerative only
}

// DBSCANResult is the output record of one DBSCAN run.
type DBSCANResult struct {
	RunID          string         `json:"run_id"`
	Labels         []int          `json:"labels"`   // labels[i] in {-1} ∪ [0, numClusters)
	Clusters       [][]int        `json:"clusters"` // member point ids per cluster label
	CorePointIDs   []int          `json:"core_point_ids"`
	BorderPointIDs []int          `json:"border_point_ids"`
	NoisePointIDs  []int          `json:"noise_point_ids"`
	Stats          []ClusterStats `json:"stats"`
	Eps            float64        `json:"eps"`     // eps actually used (given or estimated)
	MinPts         int            `json:"min_pts"` // minPts actually used
}
