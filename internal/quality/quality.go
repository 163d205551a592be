// Package quality evaluates clustering results. Internal metrics (silhouette,
// Davies-Bouldin, Calinski-Harabasz, Dunn) need only the data and labels;
// external metrics (ARI, NMI, homogeneity, completeness, V-measure) compare
// against ground-truth labels when available. Reports carry normalized
// component scores, an overall score, and a coarse recommendation.
package quality

import (
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clusterkit/internal/core"
	"clusterkit/internal/distance"
	"clusterkit/internal/logger"
)

// Options configures an evaluator.
type Options struct {
	Metric     distance.Metric // default euclidean
	MinkowskiP float64
	SkipCache  bool // disable the repeat-evaluation cache
}

// Report is the outcome of one evaluation. External metrics are populated
// only when ground-truth labels were supplied; External records that.
type Report struct {
	ID       string `json:"id"`
	Points   int    `json:"points"`
	Clusters int    `json:"clusters"`
	Noise    int    `json:"noise"`

	Silhouette       float64 `json:"silhouette"`
	DaviesBouldin    float64 `json:"davies_bouldin"`
	CalinskiHarabasz float64 `json:"calinski_harabasz"`
	Dunn             float64 `json:"dunn"`

	External     bool    `json:"external"`
	ARI          float64 `json:"ari,omitempty"`
	NMI          float64 `json:"nmi,omitempty"`
	Homogeneity  float64 `json:"homogeneity,omitempty"`
	Completeness float64 `json:"completeness,omitempty"`
	VMeasure     float64 `json:"v_measure,omitempty"`

	HasStability bool    `json:"has_stability,omitempty"`
	Stability    float64 `json:"stability,omitempty"`

	Overall        float64 `json:"overall"`
	Recommendation string  `json:"recommendation"`
}

// Evaluator computes quality reports. Evaluations are cached by a digest of
// the partition shape and labels, so repeated scoring of the same result is
// free.
type Evaluator struct {
	opts Options
	dist distance.Func
	log  zerolog.Logger

	mu    sync.Mutex
	cache map[uint64]*Report
}

// New validates the options and returns a ready evaluator.
func New(opts Options) (*Evaluator, error) {
	fn, err := distance.ForMetric(opts.Metric, opts.MinkowskiP)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		opts:  opts,
		dist:  fn,
		log:   logger.Get().With().Str("component", "quality").Logger(),
		cache: make(map[uint64]*Report),
	}, nil
}

// Evaluate scores a clustering of data. labels must align with data by index;
// points labelled core.NoiseLabel are excluded from the internal metrics.
// trueLabels may be nil; when given it must also align with data and enables
// the external metrics.
func (e *Evaluator) Evaluate(data []core.Point, labels []int, trueLabels []int) (*Report, error) {
	if len(labels) != len(data) {
		return nil, fmt.Errorf("%w: %d labels for %d points", core.ErrLabelLengthMismatch, len(labels), len(data))
	}
	if trueLabels != nil && len(trueLabels) != len(data) {
		return nil, fmt.Errorf("%w: %d true labels for %d points", core.ErrLabelLengthMismatch, len(trueLabels), len(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: nothing to evaluate", core.ErrInvalidInput)
	}

	key := e.cacheKey(data, labels, trueLabels)
	if !e.opts.SkipCache {
		e.mu.Lock()
		cached, ok := e.cache[key]
		e.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	part := newPartition(data, labels)
	report := &Report{
		ID:       uuid.NewString(),
		Points:   len(data),
		Clusters: len(part.members),
		Noise:    part.noise,

		Silhouette:       e.silhouette(part),
		DaviesBouldin:    e.daviesBouldin(part),
		CalinskiHarabasz: e.calinskiHarabasz(part),
		Dunn:             e.dunn(part),
	}
	if trueLabels != nil {
		report.External = true
		table := newContingency(trueLabels, labels)
		report.ARI = table.adjustedRandIndex()
		report.NMI = table.normalizedMutualInfo()
		report.Homogeneity, report.Completeness, report.VMeasure = table.vMeasure()
	}
	report.Overall, report.Recommendation = summarize(report)

	if !e.opts.SkipCache {
		e.mu.Lock()
		e.cache[key] = report
		e.mu.Unlock()
	}
	e.log.Debug().
		Str("report_id", report.ID).
		Float64("overall", report.Overall).
		Str("recommendation", report.Recommendation).
		Msg("evaluation complete")
	return report, nil
}

// cacheKey digests the partition identity: point count, per-cluster sizes,
// the full label vector, and the evaluator options.
func (e *Evaluator) cacheKey(data []core.Point, labels, trueLabels []int) uint64 {
	h := fnv.New64a()
	writeInt := func(v int) {
		var buf [8]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	writeInt(len(data))
	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	writeInt(len(sizes))
	for _, l := range labels {
		writeInt(l)
	}
	writeInt(len(trueLabels))
	for _, l := range trueLabels {
		writeInt(l)
	}
	h.Write([]byte(e.opts.Metric))
	writeInt(int(e.opts.MinkowskiP * 1000))
	return h.Sum64()
}

// summarize folds the raw metrics into one [0, 1] score and a coarse
// recommendation. The internal metrics are normalized to [0, 1] and averaged
// into one group score; the external metrics and the stability estimate form
// their own groups when present; the overall score is the mean of the
// available groups.
func summarize(r *Report) (float64, string) {
	internal := ((r.Silhouette+1)/2 +
		1/(1+r.DaviesBouldin) +
		normalizedCH(r.CalinskiHarabasz) +
		r.Dunn/(r.Dunn+1)) / 4

	groups := []float64{internal}
	if r.External {
		external := (math.Max(0, r.ARI) + r.NMI + r.VMeasure) / 3
		groups = append(groups, external)
	}
	if r.HasStability {
		groups = append(groups, r.Stability)
	}
	var sum float64
	for _, g := range groups {
		sum += g
	}
	overall := sum / float64(len(groups))

	var rec string
	switch {
	case overall >= 0.8:
		rec = "excellent"
	case overall >= 0.7:
		rec = "good"
	case overall >= 0.6:
		rec = "fair"
	case overall >= 0.5:
		rec = "poor"
	default:
		rec = "very_poor"
	}
	return overall, rec
}

func normalizedCH(ch float64) float64 {
	if math.IsInf(ch, 1) {
		return 1
	}
	return ch / (ch + 100)
}
