package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: ./data/concepts.db
graph:
  k: 8
layout:
  strategy: force
  seed: 7
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Graph.K != 8 {
		t.Errorf("k = %d, want 8", cfg.Graph.K)
	}
	if cfg.Graph.SimilarityThreshold != 0.6 {
		t.Errorf("threshold default = %v, want 0.6", cfg.Graph.SimilarityThreshold)
	}
	if cfg.Layout.Strategy != StrategyForce {
		t.Errorf("strategy = %q", cfg.Layout.Strategy)
	}
	if cfg.Layout.Seed == nil || *cfg.Layout.Seed != 7 {
		t.Error("seed should be 7")
	}
	if cfg.Layout.GalaxyRadius != 200 || cfg.Layout.HaloRadius != 300 {
		t.Error("radius defaults missing")
	}
	if !cfg.Graph.CategoryEdgesOrDefault() {
		t.Error("category edges default to enabled")
	}
	want := filepath.Join(dir, "data/concepts.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Graph.K = 5
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Graph.K != 5 {
		t.Errorf("round-trip k = %d, want 5", loaded.Graph.K)
	}
}

func TestSeedUnsetByDefault(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Layout.Seed != nil {
		t.Error("seed must stay unset unless configured")
	}
}
