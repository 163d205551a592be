package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// No config file anywhere near the test working directory.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.Hierarchical.Linkage != "average" {
		t.Errorf("expected default linkage average, got %q", cfg.Hierarchical.Linkage)
	}
	if cfg.DBSCAN.Quantile != 0.9 {
		t.Errorf("expected default quantile 0.9, got %v", cfg.DBSCAN.Quantile)
	}
	if cfg.Quality.Resamples != 100 {
		t.Errorf("expected default resamples 100, got %d", cfg.Quality.Resamples)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected default output format text, got %q", cfg.Output.Format)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clusterkit.yaml")
	yaml := "log:\n  level: debug\nhierarchical:\n  linkage: ward\n  workers: 8\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Log.Level)
	}
	if cfg.Hierarchical.Linkage != "ward" {
		t.Errorf("expected linkage ward, got %q", cfg.Hierarchical.Linkage)
	}
	if cfg.Hierarchical.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Hierarchical.Workers)
	}
	// Untouched keys keep their defaults.
	if cfg.Hierarchical.Method != "agglomerative" {
		t.Errorf("expected default method, got %q", cfg.Hierarchical.Method)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("an explicitly named missing config file should be an error")
	}
}
