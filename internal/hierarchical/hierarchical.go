// Package hierarchical implements agglomerative and divisive hierarchical
// clustering over fixed-length numeric feature vectors, with merge/split
// history, optional dendrogram construction, and dendrogram cutting.
package hierarchical

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clusterkit/internal/core"
	"clusterkit/internal/distance"
	"clusterkit/internal/logger"
)

// Method selects the clustering direction.
type Method string

const (
	Agglomerative Method = "agglomerative"
	Divisive      Method = "divisive"
)

// Linkage selects the between-cluster distance rule for agglomerative
// merging. It is ignored by the divisive method.
type Linkage string

const (
	SingleLinkage   Linkage = "single"
	CompleteLinkage Linkage = "complete"
	AverageLinkage  Linkage = "average"
	WardLinkage     Linkage = "ward"
	CentroidLinkage Linkage = "centroid"
)

// DefaultMaxPoints caps the input size so the O(N²)–O(N³) loops stay
// tractable.
const DefaultMaxPoints = 5000

// progressInterval is the outer-loop cadence for progress callbacks and
// cancellation polls.
const progressInterval = 64

// Options configures one hierarchical clustering run.
type Options struct {
	Method            Method
	Linkage           Linkage         // agglomerative only
	Metric            distance.Metric // default euclidean
	MinkowskiP        float64         // order for the minkowski metric
	NumClusters       int             // target cluster count; 0 = auto
	DistanceThreshold float64         // stop before a merge above this; <= 0 = unset
	BuildDendrogram   bool            // agglomerative only
	MaxPoints         int             // 0 = DefaultMaxPoints
	Workers           int             // parallelism for the all-pairs distance matrix
	Progress          core.ProgressFunc
}

// Engine runs hierarchical clustering. Construct it with New so invalid
// method/linkage/metric combinations are rejected before any computation.
type Engine struct {
	opts Options
	dist distance.Func
	log  zerolog.Logger
}

// New validates the options and returns a ready engine.
func New(opts Options) (*Engine, error) {
	if opts.Method == "" {
		opts.Method = Agglomerative
	}
	switch opts.Method {
	case Agglomerative, Divisive:
	default:
		return nil, fmt.Errorf("%w: unknown method %q", core.ErrInvalidParams, opts.Method)
	}
	if opts.Linkage == "" {
		opts.Linkage = AverageLinkage
	}
	switch opts.Linkage {
	case SingleLinkage, CompleteLinkage, AverageLinkage, WardLinkage, CentroidLinkage:
	default:
		return nil, fmt.Errorf("%w: unknown linkage %q", core.ErrInvalidParams, opts.Linkage)
	}
	fn, err := distance.ForMetric(opts.Metric, opts.MinkowskiP)
	if err != nil {
		return nil, err
	}
	if opts.NumClusters < 0 {
		return nil, fmt.Errorf("%w: numClusters must be positive, got %d", core.ErrInvalidParams, opts.NumClusters)
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	return &Engine{opts: opts, dist: fn, log: logger.Get().With().Str("component", "hierarchical").Logger()}, nil
}

// Cluster runs the configured method over the points. The input snapshot is
// treated as immutable; all mutable state is private to this call.
func (e *Engine) Cluster(ctx context.Context, points []core.Point) (*core.HierarchicalResult, error) {
	if err := validatePoints(points, e.opts.MaxPoints); err != nil {
		return nil, err
	}
	n := len(points)
	if e.opts.NumClusters > n {
		return nil, fmt.Errorf("%w: numClusters %d exceeds point count %d", core.ErrInvalidParams, e.opts.NumClusters, n)
	}

	targetK := e.opts.NumClusters
	if targetK == 0 && e.opts.DistanceThreshold <= 0 {
		targetK = autoClusterCount(n)
	}

	e.log.Debug().
		Str("method", string(e.opts.Method)).
		Str("linkage", string(e.opts.Linkage)).
		Int("points", n).
		Int("target_clusters", targetK).
		Msg("starting hierarchical clustering")

	var result *core.HierarchicalResult
	var err error
	switch e.opts.Method {
	case Divisive:
		result, err = e.divisive(ctx, points, targetK)
	default:
		result, err = e.agglomerative(ctx, points, targetK)
	}
	if err != nil {
		return nil, err
	}

	result.RunID = uuid.NewString()
	e.log.Info().
		Str("run_id", result.RunID).
		Int("clusters", len(result.Clusters)).
		Msg("hierarchical clustering complete")
	return result, nil
}

// autoClusterCount is the default target when neither numClusters nor a
// distance threshold is given: clamp(2, 10, floor(sqrt(N/2))).
func autoClusterCount(n int) int {
	k := int(math.Floor(math.Sqrt(float64(n) / 2)))
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

// validatePoints rejects input the engines cannot run on: empty collections,
// ragged feature vectors, zero-dimensional points, and datasets beyond the
// configured cap.
func validatePoints(points []core.Point, maxPoints int) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: no points to cluster", core.ErrInvalidInput)
	}
	if len(points) > maxPoints {
		return fmt.Errorf("%w: %d points exceeds limit of %d", core.ErrInvalidInput, len(points), maxPoints)
	}
	dims := len(points[0].Features)
	if dims == 0 {
		return fmt.Errorf("%w: points have no numeric features", core.ErrInvalidInput)
	}
	for i := range points {
		if len(points[i].Features) != dims {
			return fmt.Errorf("%w: point %d has %d features, expected %d",
				core.ErrInvalidInput, points[i].ID, len(points[i].Features), dims)
		}
	}
	return nil
}

// featureRows extracts the feature vectors in point order.
func featureRows(points []core.Point) [][]float64 {
	rows := make([][]float64, len(points))
	for i := range points {
		rows[i] = points[i].Features
	}
	return rows
}

// meanVector computes the unweighted mean of the member features.
func meanVector(points []core.Point, ids []int) []float64 {
	dims := len(points[0].Features)
	centroid := make([]float64, dims)
	for _, id := range ids {
		for d, v := range points[id].Features {
			centroid[d] += v
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(ids))
	}
	return centroid
}

// clusterVariance is the mean squared euclidean deviation of the members
// from their centroid. Zero-variance clusters yield exactly 0.
func clusterVariance(points []core.Point, ids []int, centroid []float64) float64 {
	if len(ids) == 0 {
		return 0
	}
	var total float64
	for _, id := range ids {
		total += distance.SquaredEuclidean(points[id].Features, centroid)
	}
	return total / float64(len(ids))
}

// finalStats summarizes each output cluster: centroid, variance, and the
// maximum pairwise member distance under the engine's metric.
func (e *Engine) finalStats(points []core.Point, clusters []core.Cluster) []core.ClusterStats {
	stats := make([]core.ClusterStats, len(clusters))
	for i, c := range clusters {
		diameter := 0.0
		for a := 0; a < len(c.PointIDs); a++ {
			for b := a + 1; b < len(c.PointIDs); b++ {
				d := e.dist(points[c.PointIDs[a]].Features, points[c.PointIDs[b]].Features)
				if d > diameter {
					diameter = d
				}
			}
		}
		stats[i] = core.ClusterStats{
			ClusterID: i,
			Size:      c.Size,
			Centroid:  c.Centroid,
			Variance:  clusterVariance(points, c.PointIDs, c.Centroid),
			Diameter:  diameter,
		}
	}
	return stats
}
