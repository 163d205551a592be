// Package config loads application configuration from a .clusterkit.yaml
// file, CLUSTERKIT_* environment variables, and built-in defaults, in that
// order of increasing precedence for the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration tree.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Hierarchical HierarchicalConfig `mapstructure:"hierarchical"`
	DBSCAN       DBSCANConfig       `mapstructure:"dbscan"`
	Quality      QualityConfig      `mapstructure:"quality"`
	Output       OutputConfig       `mapstructure:"output"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// HierarchicalConfig carries the hierarchical engine defaults.
type HierarchicalConfig struct {
	Method     string `mapstructure:"method"`
	Linkage    string `mapstructure:"linkage"`
	Metric     string `mapstructure:"metric"`
	MaxPoints  int    `mapstructure:"max_points"`
	Workers    int    `mapstructure:"workers"`
	Dendrogram bool   `mapstructure:"dendrogram"`
}

// DBSCANConfig carries the density engine defaults. Zero eps/min_pts means
// estimate from the data.
type DBSCANConfig struct {
	Eps        float64 `mapstructure:"eps"`
	MinPts     int     `mapstructure:"min_pts"`
	Metric     string  `mapstructure:"metric"`
	SampleSize int     `mapstructure:"sample_size"`
	Quantile   float64 `mapstructure:"quantile"`
	MaxPoints  int     `mapstructure:"max_points"`
	Workers    int     `mapstructure:"workers"`
}

// QualityConfig carries the evaluator defaults.
type QualityConfig struct {
	Metric    string  `mapstructure:"metric"`
	Resamples int     `mapstructure:"resamples"`
	Ratio     float64 `mapstructure:"ratio"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load reads configuration. cfgFile overrides the default search path when
// non-empty. A missing config file is fine; defaults and environment
// variables still apply. A malformed file is an error.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".clusterkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("CLUSTERKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("hierarchical.method", "agglomerative")
	v.SetDefault("hierarchical.linkage", "average")
	v.SetDefault("hierarchical.metric", "euclidean")
	v.SetDefault("hierarchical.max_points", 5000)
	v.SetDefault("hierarchical.workers", 4)
	v.SetDefault("hierarchical.dendrogram", false)

	v.SetDefault("dbscan.metric", "euclidean")
	v.SetDefault("dbscan.sample_size", 1000)
	v.SetDefault("dbscan.quantile", 0.9)
	v.SetDefault("dbscan.max_points", 5000)
	v.SetDefault("dbscan.workers", 4)

	v.SetDefault("quality.metric", "euclidean")
	v.SetDefault("quality.resamples", 100)
	v.SetDefault("quality.ratio", 0.8)

	v.SetDefault("output.format", "text")
}
