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
	"fmt"

	"github.com/spf13/cobra"

	"clusterkit/internal/dataset"
	"clusterkit/internal/dbscan"
	"clusterkit/internal/distance"
	"clusterkit/internal/hierarchical"
	"clusterkit/internal/render"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster a dataset",
	Long:  `Cluster a CSV or JSON dataset of numeric feature vectors.`,
}

var hierarchicalCmd = &cobra.Command{
	Use:   "hierarchical",
	Short: "Hierarchical clustering (agglomerative or divisive)",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		ds, err := dataset.Load(input, "")
		if err != nil {
			return err
		}

		opts := hierarchical.Options{
			Method:     hierarchical.Method(flagOr(cmd, "method", cfg.Hierarchical.Method)),
			Linkage:    hierarchical.Linkage(flagOr(cmd, "linkage", cfg.Hierarchical.Linkage)),
			Metric:     distance.Metric(flagOr(cmd, "metric", cfg.Hierarchical.Metric)),
			MaxPoints:  cfg.Hierarchical.MaxPoints,
			Workers:    cfg.Hierarchical.Workers,
		}
		opts.NumClusters, _ = cmd.Flags().GetInt("clusters")
		opts.DistanceThreshold, _ = cmd.Flags().GetFloat64("threshold")
		opts.MinkowskiP, _ = cmd.Flags().GetFloat64("minkowski-p")
		opts.BuildDendrogram, _ = cmd.Flags().GetBool("dendrogram")
		if !cmd.Flags().Changed("dendrogram") {
			opts.BuildDendrogram = cfg.Hierarchical.Dendrogram
		}

		engine, err := hierarchical.New(opts)
		if err != nil {
			return err
		}
		result, err := engine.Cluster(cmd.Context(), ds.Points)
		if err != nil {
			return err
		}

		if outputFormat(cmd) == "json" {
			out, err := render.JSON(result)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		}
		fmt.Print(render.HierarchicalResult(result))
		return nil
	},
}

var dbscanCmd = &cobra.Command{
	Use:   "dbscan",
	Short: "Density-based clustering with noise detection",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		ds, err := dataset.Load(input, "")
		if err != nil {
			return err
		}

		opts := dbscan.Options{
			Metric:     distance.Metric(flagOr(cmd, "metric", cfg.DBSCAN.Metric)),
			SampleSize: cfg.DBSCAN.SampleSize,
			Quantile:   cfg.DBSCAN.Quantile,
			MaxPoints:  cfg.DBSCAN.MaxPoints,
			Workers:    cfg.DBSCAN.Workers,
		}
		opts.Eps, _ = cmd.Flags().GetFloat64("eps")
		if !cmd.Flags().Changed("eps") {
			opts.Eps = cfg.DBSCAN.Eps
		}
		opts.MinPts, _ = cmd.Flags().GetInt("min-pts")
		if !cmd.Flags().Changed("min-pts") {
			opts.MinPts = cfg.DBSCAN.MinPts
		}
		opts.MinkowskiP, _ = cmd.Flags().GetFloat64("minkowski-p")

		engine, err := dbscan.New(opts)
		if err != nil {
			return err
		}
		result, err := engine.Cluster(cmd.Context(), ds.Points)
		if err != nil {
			return err
		}

		if outputFormat(cmd) == "json" {
			out, err := render.JSON(result)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		}
		fmt.Print(render.DBSCANResult(result))
		return nil
	},
}

// flagOr returns the flag value when the user set it, the fallback otherwise.
func flagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.AddCommand(hierarchicalCmd)
	clusterCmd.AddCommand(dbscanCmd)

	for _, c := range []*cobra.Command{hierarchicalCmd, dbscanCmd} {
		c.Flags().String("input", "", "dataset file (.csv or .json)")
		c.Flags().String("metric", "", "distance metric: euclidean, manhattan, cosine, chebyshev, minkowski")
		c.Flags().Float64("minkowski-p", 0, "order for the minkowski metric")
		_ = c.MarkFlagRequired("input")
	}

	hierarchicalCmd.Flags().String("method", "", "agglomerative or divisive")
	hierarchicalCmd.Flags().String("linkage", "", "single, complete, average, ward, or centroid")
	hierarchicalCmd.Flags().Int("clusters", 0, "target cluster count (0 = auto)")
	hierarchicalCmd.Flags().Float64("threshold", 0, "stop merging above this distance")
	hierarchicalCmd.Flags().Bool("dendrogram", false, "build the full dendrogram")

	dbscanCmd.Flags().Float64("eps", 0, "neighborhood radius (0 = estimate)")
	dbscanCmd.Flags().Int("min-pts", 0, "density threshold (0 = estimate)")
}
