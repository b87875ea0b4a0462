// Package config provides configuration loading and structs for the Stellar server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. One explicit struct is
// threaded into the orchestrator; there are no process-wide mutable defaults.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Graph     GraphConfig     `yaml:"graph"`
	Layout    LayoutConfig    `yaml:"layout"`
	Rebuild   RebuildConfig   `yaml:"rebuild"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// GraphConfig holds similarity-graph construction settings.
type GraphConfig struct {
	K                       int     `yaml:"k"`
	SimilarityThreshold     float64 `yaml:"similarity_threshold"`
	SkipIdenticalPairs      bool    `yaml:"skip_identical_pairs"`
	CategoryEdgesEnabled    *bool   `yaml:"category_edges_enabled"`
	CategoryEdgeProbability float64 `yaml:"category_edge_probability"`
	CategoryEdgeWeight      float64 `yaml:"category_edge_weight"`
}

// CategoryEdgesOrDefault returns whether category fallback edges are built;
// defaults to true when unset.
func (g *GraphConfig) CategoryEdgesOrDefault() bool {
	if g.CategoryEdgesEnabled != nil {
		return *g.CategoryEdgesEnabled
	}
	return true
}

// LayoutConfig holds spatial layout settings.
type LayoutConfig struct {
	Strategy        string                `yaml:"strategy"`
	Seed            *int64                `yaml:"seed"`
	GalaxyRadius    float64               `yaml:"galaxy_radius"`
	CoreRadius      float64               `yaml:"core_radius"`
	HaloRadius      float64               `yaml:"halo_radius"`
	CoreFraction    float64               `yaml:"core_fraction"`
	MainFraction    float64               `yaml:"main_fraction"`
	ForceIterations int                   `yaml:"force_iterations"`
	Scale           float64               `yaml:"scale"`
	BarnesHutCutoff int                   `yaml:"barnes_hut_cutoff"`
	CategoryCenters map[string][3]float64 `yaml:"category_centers"`
	CategoryZ       map[string]float64    `yaml:"category_z"`
}

// RebuildConfig holds pipeline-level settings.
type RebuildConfig struct {
	// TimeoutSeconds is the optional wall-clock budget for one rebuild;
	// 0 means no budget.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
