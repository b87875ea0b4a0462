package config

// Layout strategy names.
const (
	StrategyProcedural = "procedural"
	StrategyForce      = "force"
	StrategyHybrid     = "hybrid"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/stellar/data/db/concepts.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/stellar/data/indices/bleve"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/stellar/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Graph.K == 0 {
		cfg.Graph.K = 12
	}
	if cfg.Graph.SimilarityThreshold == 0 {
		cfg.Graph.SimilarityThreshold = 0.6
	}
	if cfg.Graph.CategoryEdgeProbability == 0 {
		cfg.Graph.CategoryEdgeProbability = 0.1
	}
	if cfg.Graph.CategoryEdgeWeight == 0 {
		cfg.Graph.CategoryEdgeWeight = 0.3
	}
	if cfg.Layout.Strategy == "" {
		cfg.Layout.Strategy = StrategyProcedural
	}
	if cfg.Layout.GalaxyRadius == 0 {
		cfg.Layout.GalaxyRadius = 200
	}
	if cfg.Layout.CoreRadius == 0 {
		cfg.Layout.CoreRadius = 50
	}
	if cfg.Layout.HaloRadius == 0 {
		cfg.Layout.HaloRadius = 300
	}
	if cfg.Layout.CoreFraction == 0 {
		cfg.Layout.CoreFraction = 0.3
	}
	if cfg.Layout.MainFraction == 0 {
		cfg.Layout.MainFraction = 0.5
	}
	if cfg.Layout.ForceIterations == 0 {
		cfg.Layout.ForceIterations = 1000
	}
	if cfg.Layout.Scale == 0 {
		cfg.Layout.Scale = 100
	}
	if cfg.Layout.BarnesHutCutoff == 0 {
		cfg.Layout.BarnesHutCutoff = 2000
	}
	if cfg.Layout.CategoryZ == nil {
		cfg.Layout.CategoryZ = map[string]float64{
			"Science & Technology":  20,
			"History":               0,
			"Arts & Culture":        -20,
			"Philosophy & Religion": 10,
			"Geography":             -10,
			"General":               5,
		}
	}
}
