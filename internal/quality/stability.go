package quality

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"clusterkit/internal/core"
)

// ClusterFunc reclusters a dataset and returns one label per point. The
// stability check uses it to rerun the caller's algorithm on subsamples.
type ClusterFunc func(data []core.Point) ([]int, error)

// StabilityOptions controls the bootstrap stability estimate.
type StabilityOptions struct {
	Resamples int     // 0 = 100
	Ratio     float64 // subsample fraction; 0 = 0.8
	Seed      int64   // rng seed; fixed seeds give reproducible estimates
}

// Stability estimates how robust a clustering is to perturbation: it draws
// subsamples without replacement, reclusters each with fn, and returns the
// mean adjusted Rand index between each rerun and the original labels
// restricted to the sampled points. 1 means every rerun reproduced the
// original partition.
func (e *Evaluator) Stability(data []core.Point, labels []int, fn ClusterFunc, opts StabilityOptions) (float64, error) {
	if len(labels) != len(data) {
		return 0, fmt.Errorf("%w: %d labels for %d points", core.ErrLabelLengthMismatch, len(labels), len(data))
	}
	if opts.Resamples <= 0 {
		opts.Resamples = 100
	}
	if opts.Ratio <= 0 || opts.Ratio > 1 {
		opts.Ratio = 0.8
	}
	size := int(opts.Ratio * float64(len(data)))
	if size < 2 {
		return 0, fmt.Errorf("%w: subsample of %d points is too small", core.ErrInvalidInput, size)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	var sum float64
	for r := 0; r < opts.Resamples; r++ {
		idx := rng.Perm(len(data))[:size]
		sort.Ints(idx)

		sample := make([]core.Point, size)
		original := make([]int, size)
		for i, id := range idx {
			sample[i] = data[id]
			original[i] = labels[id]
		}

		relabels, err := fn(sample)
		if err != nil {
			return 0, fmt.Errorf("stability resample %d: %w", r, err)
		}
		if len(relabels) != size {
			return 0, fmt.Errorf("%w: resample returned %d labels for %d points", core.ErrLabelLengthMismatch, len(relabels), size)
		}
		sum += newContingency(original, relabels).adjustedRandIndex()
	}
	score := sum / float64(opts.Resamples)
	e.log.Debug().
		Int("resamples", opts.Resamples).
		Float64("ratio", opts.Ratio).
		Float64("stability", score).
		Msg("stability estimate complete")
	return score, nil
}

// EvaluateWithStability runs a full evaluation and folds a bootstrap
// stability estimate into the report's overall score. The returned report is
// a fresh record; the cached plain evaluation is left untouched.
func (e *Evaluator) EvaluateWithStability(data []core.Point, labels, trueLabels []int, fn ClusterFunc, opts StabilityOptions) (*Report, error) {
	base, err := e.Evaluate(data, labels, trueLabels)
	if err != nil {
		return nil, err
	}
	score, err := e.Stability(data, labels, fn, opts)
	if err != nil {
		return nil, err
	}

	report := *base
	report.ID = uuid.NewString()
	report.HasStability = true
	report.Stability = score
	report.Overall, report.Recommendation = summarize(&report)
	return &report, nil
}
