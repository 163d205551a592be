// Package render formats clustering results and quality reports for terminal
// output, plus a plain JSON mode for piping into other tools.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"clusterkit/internal/core"
	"clusterkit/internal/quality"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func row(key string, format string, args ...any) string {
	return fmt.Sprintf("  %s %s\n", keyStyle.Render(key+":"), valStyle.Render(fmt.Sprintf(format, args...)))
}

// JSON marshals any result with indentation.
func JSON(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(out) + "\n", nil
}

// HierarchicalResult renders a run summary: cluster sizes, merge/split depth,
// and the suggested cluster count.
func HierarchicalResult(res *core.HierarchicalResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Hierarchical clustering") + "\n")
	b.WriteString(row("run", "%s", res.RunID))
	b.WriteString(row("clusters", "%d", len(res.Clusters)))
	if len(res.Merges) > 0 {
		b.WriteString(row("merges", "%d", len(res.Merges)))
		b.WriteString(row("suggested k", "%d", res.OptimalClusters))
	}
	if len(res.Splits) > 0 {
		b.WriteString(row("splits", "%d", len(res.Splits)))
	}
	for _, s := range res.Stats {
		b.WriteString(row(fmt.Sprintf("cluster %d", s.ClusterID),
			"size=%d variance=%.4f diameter=%.4f", s.Size, s.Variance, s.Diameter))
	}
	return b.String()
}

// DBSCANResult renders a run summary including the effective parameters,
// which matter most when they were estimated.
func DBSCANResult(res *core.DBSCANResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("DBSCAN clustering") + "\n")
	b.WriteString(row("run", "%s", res.RunID))
	b.WriteString(row("eps", "%.4f", res.Eps))
	b.WriteString(row("minPts", "%d", res.MinPts))
	b.WriteString(row("clusters", "%d", len(res.Clusters)))
	b.WriteString(row("core / border", "%d / %d", len(res.CorePointIDs), len(res.BorderPointIDs)))
	if n := len(res.NoisePointIDs); n > 0 {
		b.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render("noise:"), warnStyle.Render(fmt.Sprintf("%d", n))))
	}
	for _, s := range res.Stats {
		b.WriteString(row(fmt.Sprintf("cluster %d", s.ClusterID),
			"size=%d radius=%.4f density=%.4f", s.Size, s.Radius, s.Density))
	}
	return b.String()
}

// QualityReport renders an evaluation report. External metrics appear only
// when ground-truth labels were part of the evaluation.
func QualityReport(r *quality.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Quality report") + "\n")
	b.WriteString(row("points", "%d (%d noise)", r.Points, r.Noise))
	b.WriteString(row("clusters", "%d", r.Clusters))
	b.WriteString(row("silhouette", "%.4f", r.Silhouette))
	b.WriteString(row("davies-bouldin", "%.4f", r.DaviesBouldin))
	b.WriteString(row("calinski-harabasz", "%.4f", r.CalinskiHarabasz))
	b.WriteString(row("dunn", "%.4f", r.Dunn))
	if r.External {
		b.WriteString(row("ari", "%.4f", r.ARI))
		b.WriteString(row("nmi", "%.4f", r.NMI))
		b.WriteString(row("homogeneity", "%.4f", r.Homogeneity))
		b.WriteString(row("completeness", "%.4f", r.Completeness))
		b.WriteString(row("v-measure", "%.4f", r.VMeasure))
	}
	if r.HasStability {
		b.WriteString(row("stability", "%.4f", r.Stability))
	}
	b.WriteString(row("overall", "%.4f (%s)", r.Overall, r.Recommendation))
	return b.String()
}
