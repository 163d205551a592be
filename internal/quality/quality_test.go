package quality

import (
	"errors"
	"math"
	"testing"

	"clusterkit/internal/core"
)

func makePoints(features [][]float64) []core.Point {
	points := make([]core.Point, len(features))
	for i, f := range features {
		points[i] = core.Point{ID: i, Features: f}
	}
	return points
}

func twoBlobs() []core.Point {
	return makePoints([][]float64{{0, 0}, {0, 1}, {10, 0}, {10, 1}})
}

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestEvaluate_WellSeparatedBlobs(t *testing.T) {
	e := newEvaluator(t)
	report, err := e.Evaluate(twoBlobs(), []int{0, 0, 1, 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// Tight pairs 10 units apart: silhouette close to its maximum.
	if report.Silhouette < 0.85 || report.Silhouette > 1 {
		t.Errorf("expected silhouette near 1, got %v", report.Silhouette)
	}
	if report.DaviesBouldin > 0.2 {
		t.Errorf("expected a low davies-bouldin, got %v", report.DaviesBouldin)
	}
	// Min inter-cluster distance 10 over max diameter 1.
	if math.Abs(report.Dunn-10) > 1e-9 {
		t.Errorf("expected dunn=10, got %v", report.Dunn)
	}
	if report.CalinskiHarabasz <= 0 {
		t.Errorf("expected a positive calinski-harabasz, got %v", report.CalinskiHarabasz)
	}
	if report.Clusters != 2 || report.Points != 4 || report.Noise != 0 {
		t.Errorf("bad partition summary: %+v", report)
	}
	if report.External {
		t.Error("no ground truth was given; external metrics should be absent")
	}
	if report.Overall < 0.8 {
		t.Errorf("well-separated blobs should score high overall, got %v", report.Overall)
	}
	if report.ID == "" {
		t.Error("report should carry an id")
	}
}

func TestEvaluate_SilhouetteRange(t *testing.T) {
	e := newEvaluator(t)
	// A deliberately bad partition that mixes the blobs.
	report, err := e.Evaluate(twoBlobs(), []int{0, 1, 0, 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Silhouette < -1 || report.Silhouette > 1 {
		t.Errorf("silhouette out of [-1, 1]: %v", report.Silhouette)
	}
	good, err := e.Evaluate(twoBlobs(), []int{0, 0, 1, 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Silhouette >= good.Silhouette {
		t.Errorf("the mixed partition (%v) should score below the clean one (%v)",
			report.Silhouette, good.Silhouette)
	}
}

func TestEvaluate_NoiseIsExcluded(t *testing.T) {
	e := newEvaluator(t)
	labels := []int{0, 0, core.NoiseLabel, core.NoiseLabel}
	report, err := e.Evaluate(twoBlobs(), labels, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Noise != 2 {
		t.Errorf("expected 2 noise points, got %d", report.Noise)
	}
	if report.Clusters != 1 {
		t.Errorf("expected 1 cluster, got %d", report.Clusters)
	}
	// Internal metrics need at least two clusters; with one they are defined
	// as zero rather than failing.
	if report.Silhouette != 0 || report.DaviesBouldin != 0 || report.Dunn != 0 {
		t.Errorf("single-cluster metrics should be zero: %+v", report)
	}
}

func TestEvaluate_ExternalMetrics_IdenticalPartitions(t *testing.T) {
	e := newEvaluator(t)
	// Same partition under a different label permutation.
	report, err := e.Evaluate(twoBlobs(), []int{1, 1, 0, 0}, []int{0, 0, 1, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !report.External {
		t.Fatal("ground truth was given; external metrics should be present")
	}
	for name, v := range map[string]float64{
		"ari": report.ARI, "nmi": report.NMI,
		"homogeneity": report.Homogeneity, "completeness": report.Completeness,
		"v-measure": report.VMeasure,
	} {
		if math.Abs(v-1) > 1e-9 {
			t.Errorf("%s should be 1 for identical partitions, got %v", name, v)
		}
	}
}

func TestEvaluate_ExternalMetrics_SingleCluster(t *testing.T) {
	e := newEvaluator(t)
	// Everything lumped together: completeness is perfect, homogeneity is not.
	report, err := e.Evaluate(twoBlobs(), []int{0, 0, 0, 0}, []int{0, 0, 1, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(report.Completeness-1) > 1e-9 {
		t.Errorf("expected completeness 1, got %v", report.Completeness)
	}
	if report.Homogeneity != 0 {
		t.Errorf("expected homogeneity 0, got %v", report.Homogeneity)
	}
	if report.VMeasure != 0 {
		t.Errorf("expected v-measure 0, got %v", report.VMeasure)
	}
	if report.ARI > 0.01 {
		t.Errorf("expected ARI near or below 0, got %v", report.ARI)
	}
}

func TestEvaluate_LabelLengthMismatch(t *testing.T) {
	e := newEvaluator(t)
	if _, err := e.Evaluate(twoBlobs(), []int{0, 0, 1}, nil); !errors.Is(err, core.ErrLabelLengthMismatch) {
		t.Errorf("short labels: expected ErrLabelLengthMismatch, got %v", err)
	}
	if _, err := e.Evaluate(twoBlobs(), []int{0, 0, 1, 1}, []int{0}); !errors.Is(err, core.ErrLabelLengthMismatch) {
		t.Errorf("short true labels: expected ErrLabelLengthMismatch, got %v", err)
	}
}

func TestEvaluate_CachesRepeatEvaluations(t *testing.T) {
	e := newEvaluator(t)
	first, err := e.Evaluate(twoBlobs(), []int{0, 0, 1, 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	second, err := e.Evaluate(twoBlobs(), []int{0, 0, 1, 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if first.ID != second.ID {
		t.Error("repeat evaluation should hit the cache and return the same report")
	}

	other, err := e.Evaluate(twoBlobs(), []int{0, 1, 0, 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if other.ID == first.ID {
		t.Error("a different partition must not reuse the cached report")
	}
}

func TestRecommendationBands(t *testing.T) {
	cases := []struct {
		overall float64
		want    string
	}{
		{0.95, "excellent"},
		{0.75, "good"},
		{0.65, "fair"},
		{0.55, "poor"},
		{0.3, "very_poor"},
	}
	for _, tc := range cases {
		// Reverse-engineer a report whose components average to the target.
		r := &Report{
			Silhouette:       2*tc.overall - 1,
			DaviesBouldin:    1/tc.overall - 1,
			CalinskiHarabasz: 100 * tc.overall / (1 - tc.overall),
			Dunn:             tc.overall / (1 - tc.overall),
		}
		overall, rec := summarize(r)
		if math.Abs(overall-tc.overall) > 1e-9 {
			t.Errorf("expected overall %v, got %v", tc.overall, overall)
		}
		if rec != tc.want {
			t.Errorf("overall %v: expected %q, got %q", tc.overall, tc.want, rec)
		}
	}
}

func TestStability_DeterministicClusterer(t *testing.T) {
	e := newEvaluator(t)
	data := twoBlobs()
	labels := []int{0, 0, 1, 1}

	// Reclustering by a fixed rule reproduces the original partition on every
	// subsample, so stability must be exactly 1.
	byHalf := func(sample []core.Point) ([]int, error) {
		out := make([]int, len(sample))
		for i, p := range sample {
			if p.Features[0] >= 5 {
				out[i] = 1
			}
		}
		return out, nil
	}
	score, err := e.Stability(data, labels, byHalf, StabilityOptions{Resamples: 20, Seed: 42})
	if err != nil {
		t.Fatalf("Stability: %v", err)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("expected stability 1, got %v", score)
	}
}

func TestEvaluateWithStability(t *testing.T) {
	e := newEvaluator(t)
	data := twoBlobs()
	labels := []int{0, 0, 1, 1}
	byHalf := func(sample []core.Point) ([]int, error) {
		out := make([]int, len(sample))
		for i, p := range sample {
			if p.Features[0] >= 5 {
				out[i] = 1
			}
		}
		return out, nil
	}

	plain, err := e.Evaluate(data, labels, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	report, err := e.EvaluateWithStability(data, labels, nil, byHalf, StabilityOptions{Resamples: 10, Seed: 7})
	if err != nil {
		t.Fatalf("EvaluateWithStability: %v", err)
	}
	if !report.HasStability || math.Abs(report.Stability-1) > 1e-9 {
		t.Errorf("expected stability 1, got %+v", report)
	}
	// A perfect stability group can only pull the overall score up here.
	if report.Overall < plain.Overall {
		t.Errorf("stability 1 should not lower the overall score: %v -> %v", plain.Overall, report.Overall)
	}
	if report.ID == plain.ID {
		t.Error("the stability report should be a fresh record")
	}
}

func TestStability_PropagatesClusterError(t *testing.T) {
	e := newEvaluator(t)
	fail := func(sample []core.Point) ([]int, error) {
		return nil, errors.New("backend unavailable")
	}
	if _, err := e.Stability(twoBlobs(), []int{0, 0, 1, 1}, fail, StabilityOptions{Resamples: 3}); err == nil {
		t.Error("expected the resample error to propagate")
	}
}

func TestStability_LabelMismatch(t *testing.T) {
	e := newEvaluator(t)
	fn := func(sample []core.Point) ([]int, error) { return make([]int, len(sample)), nil }
	if _, err := e.Stability(twoBlobs(), []int{0}, fn, StabilityOptions{}); !errors.Is(err, core.ErrLabelLengthMismatch) {
		t.Errorf("expected ErrLabelLengthMismatch, got %v", err)
	}
}
