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
	"os"

	"github.com/spf13/cobra"

	"clusterkit/internal/config"
	"clusterkit/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clusterkit",
	Short: "Clusterkit groups numeric datasets with hierarchical and density-based clustering.",
	Long: `Clusterkit is a CLI for clustering numeric feature vectors.

It supports agglomerative and divisive hierarchical clustering with a choice
of linkage rules, DBSCAN with automatic parameter estimation, and quality
evaluation of any labelled result against internal and external metrics.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.clusterkit.yaml)")
	rootCmd.PersistentFlags().String("output", "", "output format: text or json (default from config)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	loaded, err := config.Load(cfgFile)
	cobra.CheckErr(err)
	cfg = loaded
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
}

// outputFormat resolves the output format from the flag, falling back to the
// configured default.
func outputFormat(cmd *cobra.Command) string {
	if f, _ := cmd.Flags().GetString("output"); f != "" {
		return f
	}
	return cfg.Output.Format
}
