package render

import (
	"strings"
	"testing"

	"clusterkit/internal/core"
	"clusterkit/internal/quality"
)

func TestJSON(t *testing.T) {
	out, err := JSON(map[string]int{"clusters": 2})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(out, `"clusters": 2`) {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
}

func TestHierarchicalResult(t *testing.T) {
	res := &core.HierarchicalResult{
		RunID:           "run-1",
		Labels:          []int{0, 0, 1, 1},
		Clusters:        make([]core.Cluster, 2),
		Merges:          make([]core.MergeRecord, 2),
		OptimalClusters: 2,
		Stats: []core.ClusterStats{
			{ClusterID: 0, Size: 2, Variance: 0.25, Diameter: 1},
			{ClusterID: 1, Size: 2, Variance: 0.25, Diameter: 1},
		},
	}
	out := HierarchicalResult(res)
	for _, want := range []string{"run-1", "merges", "suggested k", "cluster 0", "cluster 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDBSCANResult(t *testing.T) {
	res := &core.DBSCANResult{
		RunID:         "run-2",
		Labels:        []int{0, 0, -1},
		Clusters:      [][]int{{0, 1}},
		CorePointIDs:  []int{0, 1},
		NoisePointIDs: []int{2},
		Eps:           1.5,
		MinPts:        2,
		Stats:         []core.ClusterStats{{ClusterID: 0, Size: 2, Radius: 0.5, Density: 4}},
	}
	out := DBSCANResult(res)
	for _, want := range []string{"run-2", "eps", "noise", "cluster 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestQualityReport(t *testing.T) {
	r := &quality.Report{
		Points: 4, Clusters: 2,
		Silhouette: 0.9, Dunn: 10,
		External: true, ARI: 1, NMI: 1,
		HasStability: true, Stability: 1,
		Overall: 0.9, Recommendation: "excellent",
	}
	out := QualityReport(r)
	for _, want := range []string{"silhouette", "ari", "stability", "excellent"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestQualityReport_InternalOnly(t *testing.T) {
	r := &quality.Report{Points: 4, Clusters: 2, Recommendation: "fair"}
	out := QualityReport(r)
	if strings.Contains(out, "ari") {
		t.Errorf("external metrics should be omitted:\n%s", out)
	}
	if strings.Contains(out, "stability") {
		t.Errorf("stability should be omitted:\n%s", out)
	}
}
