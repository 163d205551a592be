// Package dbscan implements density-based clustering with automatic
// eps/minPts estimation, core/border/noise point classification, and
// nearest-centroid prediction for new points after fitting.
package dbscan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clusterkit/internal/core"
	"clusterkit/internal/distance"
	"clusterkit/internal/logger"
)

// DefaultMaxPoints caps the input size; neighborhood queries are O(N) each.
const DefaultMaxPoints = 5000

// progressInterval is the point-scan cadence for progress callbacks.
const progressInterval = 64

// Options configures one DBSCAN run.
type Options struct {
	Eps        float64         // neighborhood radius; <= 0 = estimate from the k-distance curve
	MinPts     int             // density threshold; <= 0 = estimate from N and D
	Metric     distance.Metric // default euclidean
	MinkowskiP float64
	SampleSize int     // k-distance sample bound for eps estimation; 0 = 1000
	Quantile   float64 // conservative quantile for eps estimation; 0 = 0.9
	MaxPoints  int     // 0 = DefaultMaxPoints
	Workers    int     // parallelism for the k-distance sampling
	Progress   core.ProgressFunc
}

// Engine runs DBSCAN. After a successful Cluster call it retains the fitted
// cluster centroids and parameters so Predict can assign new points.
type Engine struct {
	opts Options
	dist distance.Func
	log  zerolog.Logger

	// fitted state
	fitted    bool
	eps       float64
	minPts    int
	centroids [][]float64
}

// New validates the options and returns a ready engine.
func New(opts Options) (*Engine, error) {
	fn, err := distance.ForMetric(opts.Metric, opts.MinkowskiP)
	if err != nil {
		return nil, err
	}
	if opts.Eps < 0 {
		return nil, fmt.Errorf("%w: eps must be positive, got %g", core.ErrInvalidParams, opts.Eps)
	}
	if opts.MinPts < 0 {
		return nil, fmt.Errorf("%w: minPts must be >= 1, got %d", core.ErrInvalidParams, opts.MinPts)
	}
	if opts.Quantile < 0 || opts.Quantile > 1 {
		return nil, fmt.Errorf("%w: quantile must be in (0, 1], got %g", core.ErrInvalidParams, opts.Quantile)
	}
	if opts.Quantile == 0 {
		opts.Quantile = 0.9
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = 1000
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = DefaultMaxPoints
	}
	return &Engine{opts: opts, dist: fn, log: logger.Get().With().Str("component", "dbscan").Logger()}, nil
}

// Cluster runs DBSCAN over the points. Per-point state (visited flags,
// labels, the neighborhood memo arena) is private to this call and discarded
// at run end except for the exported result.
func (e *Engine) Cluster(ctx context.Context, points []core.Point) (*core.DBSCANResult, error) {
	if err := validatePoints(points, e.opts.MaxPoints); err != nil {
		return nil, err
	}
	n := len(points)
	dims := len(points[0].Features)

	minPts := e.opts.MinPts
	if minPts == 0 {
		minPts = defaultMinPts(n, dims)
	}
	eps := e.opts.Eps
	if eps == 0 {
		eps = e.estimateEps(points, minPts)
		e.log.Debug().Float64("eps", eps).Int("min_pts", minPts).Msg("estimated dbscan parameters")
	}
	if eps <= 0 {
		return nil, fmt.Errorf("%w: eps must be positive, got %g", core.ErrInvalidParams, eps)
	}
	if minPts < 1 || minPts >= n {
		return nil, fmt.Errorf("%w: minPts must be in [1, %d), got %d", core.ErrInvalidParams, n, minPts)
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = core.NoiseLabel
	}
	visited := make([]bool, n)
	isCore := make([]bool, n)
	// Neighborhoods are queried at most once per point per run; a flat arena
	// indexed by point id makes the memory bound explicit.
	memo := make([][]int, n)

	clusterID := -1
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, core.ErrCancelled
		}
		if e.opts.Progress != nil && i%progressInterval == 0 {
			e.opts.Progress(i, n)
		}
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := e.neighborhood(points, i, eps, memo)
		if len(neighbors) < minPts {
			continue // stays a candidate for later absorption as a border point
		}

		clusterID++
		isCore[i] = true
		labels[i] = clusterID

		// Frontier expansion: absorb unassigned neighbors and grow through
		// every core-sized neighbor's own neighborhood.
		frontier := make([]int, 0, len(neighbors))
		for _, q := range neighbors {
			if q != i {
				frontier = append(frontier, q)
			}
		}
		for len(frontier) > 0 {
			q := frontier[0]
			frontier = frontier[1:]

			if labels[q] == core.NoiseLabel {
				labels[q] = clusterID
			}
			if visited[q] {
				continue
			}
			visited[q] = true

			qNeighbors := e.neighborhood(points, q, eps, memo)
			if len(qNeighbors) >= minPts {
				isCore[q] = true
				frontier = append(frontier, qNeighbors...)
			}
		}
	}

	// Border-vs-noise status is only well-defined after the whole sweep:
	// classify in a second pass over the final labels.
	result := &core.DBSCANResult{
		RunID:    uuid.NewString(),
		Labels:   labels,
		Clusters: make([][]int, clusterID+1),
		Eps:      eps,
		MinPts:   minPts,
	}
	for i := 0; i < n; i++ {
		switch {
		case isCore[i]:
			result.CorePointIDs = append(result.CorePointIDs, i)
		case labels[i] != core.NoiseLabel:
			result.BorderPointIDs = append(result.BorderPointIDs, i)
		default:
			result.NoisePointIDs = append(result.NoisePointIDs, i)
		}
		if labels[i] != core.NoiseLabel {
			result.Clusters[labels[i]] = append(result.Clusters[labels[i]], i)
		}
	}
	result.Stats = e.clusterStats(points, result.Clusters)

	e.fitted = true
	e.eps = eps
	e.minPts = minPts
	e.centroids = make([][]float64, len(result.Stats))
	for i, s := range result.Stats {
		e.centroids[i] = s.Centroid
	}

	e.log.Info().
		Str("run_id", result.RunID).
		Int("clusters", len(result.Clusters)).
		Int("core", len(result.CorePointIDs)).
		Int("border", len(result.BorderPointIDs)).
		Int("noise", len(result.NoisePointIDs)).
		Msg("dbscan complete")
	return result, nil
}

// Predict assigns each new point to the nearest fitted cluster centroid,
// accepted only when within eps; everything else is noise. The engine must
// have been fitted by a successful Cluster call.
func (e *Engine) Predict(newPoints []core.Point) ([]int, error) {
	if !e.fitted {
		return nil, fmt.Errorf("%w: predict requires a fitted model", core.ErrInvalidParams)
	}
	labels := make([]int, len(newPoints))
	for i, p := range newPoints {
		labels[i] = core.NoiseLabel
		best := e.eps
		for c, centroid := range e.centroids {
			if d := e.dist(p.Features, centroid); d <= best {
				best = d
				labels[i] = c
			}
		}
	}
	return labels, nil
}

// neighborhood returns the ids of all points within eps of point i,
// including i itself, memoizing the result in the per-run arena.
func (e *Engine) neighborhood(points []core.Point, i int, eps float64, memo [][]int) []int {
	if memo[i] != nil {
		return memo[i]
	}
	neighbors := make([]int, 0, 8)
	for j := range points {
		if e.dist(points[i].Features, points[j].Features) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	memo[i] = neighbors
	return neighbors
}

// clusterStats summarizes each cluster: centroid, the maximum and mean
// centroid-to-member distances, and a size-per-radius density. Degenerate
// clusters (all members identical) report their size as density rather than
// dividing by zero.
func (e *Engine) clusterStats(points []core.Point, clusters [][]int) []core.ClusterStats {
	stats := make([]core.ClusterStats, len(clusters))
	for c, members := range clusters {
		dims := len(points[0].Features)
		centroid := make([]float64, dims)
		for _, id := range members {
			for d, v := range points[id].Features {
				centroid[d] += v
			}
		}
		for d := range centroid {
			centroid[d] /= float64(len(members))
		}

		var radius, sum float64
		for _, id := range members {
			d := e.dist(points[id].Features, centroid)
			sum += d
			if d > radius {
				radius = d
			}
		}
		density := float64(len(members))
		if radius > 0 {
			density = float64(len(members)) / radius
		}
		stats[c] = core.ClusterStats{
			ClusterID:   c,
			Size:        len(members),
			Centroid:    centroid,
			Radius:      radius,
			Compactness: sum / float64(len(members)),
			Density:     density,
		}
	}
	return stats
}

// validatePoints mirrors the hierarchical engine's input contract.
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
