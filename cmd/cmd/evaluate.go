/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clusterkit/internal/core"
	"clusterkit/internal/dataset"
	"clusterkit/internal/distance"
	"clusterkit/internal/hierarchical"
	"clusterkit/internal/quality"
	"clusterkit/internal/render"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a clustering result",
	Long: `Evaluate a clustering of a dataset. The predicted labels come from a JSON
file holding one integer per point (-1 for noise). When the dataset carries a
ground-truth label column, external metrics are included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		labelColumn, _ := cmd.Flags().GetString("label-column")
		ds, err := dataset.Load(input, labelColumn)
		if err != nil {
			return err
		}

		labelsPath, _ := cmd.Flags().GetString("labels")
		raw, err := os.ReadFile(labelsPath)
		if err != nil {
			return fmt.Errorf("reading labels: %w", err)
		}
		var labels []int
		if err := json.Unmarshal(raw, &labels); err != nil {
			return fmt.Errorf("parsing labels: %w", err)
		}

		metric, _ := cmd.Flags().GetString("metric")
		if metric == "" {
			metric = cfg.Quality.Metric
		}
		evaluator, err := quality.New(quality.Options{Metric: distance.Metric(metric)})
		if err != nil {
			return err
		}

		var report *quality.Report
		if withStability, _ := cmd.Flags().GetBool("stability"); withStability {
			engine, engineErr := hierarchical.New(hierarchical.Options{Metric: distance.Metric(metric)})
			if engineErr != nil {
				return engineErr
			}
			recluster := func(sample []core.Point) ([]int, error) {
				result, err := engine.Cluster(cmd.Context(), renumber(sample))
				if err != nil {
					return nil, err
				}
				return result.Labels, nil
			}
			resamples, _ := cmd.Flags().GetInt("resamples")
			if !cmd.Flags().Changed("resamples") {
				resamples = cfg.Quality.Resamples
			}
			ratio, _ := cmd.Flags().GetFloat64("ratio")
			if !cmd.Flags().Changed("ratio") {
				ratio = cfg.Quality.Ratio
			}
			report, err = evaluator.EvaluateWithStability(ds.Points, labels, ds.Labels, recluster,
				quality.StabilityOptions{Resamples: resamples, Ratio: ratio})
		} else {
			report, err = evaluator.Evaluate(ds.Points, labels, ds.Labels)
		}
		if err != nil {
			return err
		}

		if outputFormat(cmd) == "json" {
			out, err := render.JSON(report)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		}
		fmt.Print(render.QualityReport(report))
		return nil
	},
}

// renumber reindexes a subsample so point ids match slice positions, which
// the engines require.
func renumber(sample []core.Point) []core.Point {
	out := make([]core.Point, len(sample))
	for i, p := range sample {
		out[i] = core.Point{ID: i, Features: p.Features}
	}
	return out
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("input", "", "dataset file (.csv or .json)")
	evaluateCmd.Flags().String("labels", "", "JSON file with one predicted label per point")
	evaluateCmd.Flags().String("label-column", "", "CSV column holding ground-truth labels")
	evaluateCmd.Flags().String("metric", "", "distance metric for the internal metrics")
	evaluateCmd.Flags().Bool("stability", false, "estimate bootstrap stability by reclustering subsamples")
	evaluateCmd.Flags().Int("resamples", 0, "bootstrap resamples for the stability estimate")
	evaluateCmd.Flags().Float64("ratio", 0, "subsample ratio for the stability estimate")
	_ = evaluateCmd.MarkFlagRequired("input")
	_ = evaluateCmd.MarkFlagRequired("labels")
}
