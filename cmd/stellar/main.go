// Command stellar builds and serves the concept galaxy: concepts are
// ingested with embeddings, linked by similarity, and laid out in 3D space.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lynxverse/stellar/internal/config"
	"github.com/lynxverse/stellar/internal/embedding"
	"github.com/lynxverse/stellar/internal/ingest"
	"github.com/lynxverse/stellar/internal/keyword"
	"github.com/lynxverse/stellar/internal/pipeline"
	"github.com/lynxverse/stellar/internal/server"
	"github.com/lynxverse/stellar/internal/storage"
	"github.com/lynxverse/stellar/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/stellar/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so running from the project dir
// uses the project's config. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "rebuild":
		runRebuild()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("stellar version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Ingester,
		components.Orchestrator,
		components.Storage,
		components.KeywordIndex,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	rebuild := fs.Bool("rebuild", false, "rebuild the graph after ingesting")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: stellar ingest [flags] <concepts.jsonl>")
		os.Exit(1)
	}
	sourcePath := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	n, err := components.Ingester.IngestSource(context.Background(), ingest.NewFileSource(sourcePath))
	if err != nil {
		fmt.Printf("Ingest failed after %d concepts: %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d concepts from %s\n", n, sourcePath)

	if *rebuild {
		status, err := components.Orchestrator.Rebuild(context.Background())
		if err != nil {
			fmt.Printf("Rebuild failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Graph rebuilt: %d concepts, %d edges, %d positions\n",
			status.TotalConcepts, status.TotalEdges, status.TotalPositions)
	}
}

func runRebuild() {
	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	status, err := components.Orchestrator.Rebuild(context.Background())
	if err != nil {
		fmt.Printf("Rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Graph rebuilt: %d concepts, %d edges, %d positions\n",
		status.TotalConcepts, status.TotalEdges, status.TotalPositions)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(false)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	status, err := components.Storage.GetRebuildStatus(ctx)
	if err != nil {
		fmt.Printf("Failed to read rebuild status: %v\n", err)
		os.Exit(1)
	}
	concepts, _ := components.Storage.CountConcepts(ctx)
	edges, _ := components.Storage.CountEdges(ctx)
	positions, _ := components.Storage.CountPositions(ctx)

	if *output == "json" {
		out := map[string]interface{}{
			"rebuild":   status,
			"concepts":  concepts,
			"edges":     edges,
			"positions": positions,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Printf("Rebuild state:  %s\n", status.State)
	if status.ErrorMessage != "" {
		fmt.Printf("Rebuild error:  %s\n", status.ErrorMessage)
	}
	if !status.UpdatedAt.IsZero() {
		fmt.Printf("Last updated:   %s\n", status.UpdatedAt.Format(time.RFC3339))
	}
	fmt.Printf("Concepts:       %d\n", concepts)
	fmt.Printf("Edges:          %d\n", edges)
	fmt.Printf("Positions:      %d\n", positions)
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	KeywordIndex *keyword.Index
	Ingester     *ingest.Ingester
	Orchestrator *pipeline.Orchestrator
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using deterministic mock", zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	keywordIndex, err := keyword.NewIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	ingestOpts := []ingest.IngesterOption{}
	if debug {
		ingestOpts = append(ingestOpts, ingest.WithLogger(logger))
	}
	ingester := ingest.NewIngester(store, embedder, keywordIndex, ingestOpts...)
	orchestrator := pipeline.NewOrchestrator(cfg, store, pipeline.WithLogger(logger))

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		KeywordIndex: keywordIndex,
		Ingester:     ingester,
		Orchestrator: orchestrator,
	}, nil
}

func printUsage() {
	fmt.Println(`stellar - concept galaxy graph and layout engine

Usage:
  stellar server [flags]              Start the HTTP server
  stellar ingest [flags] <file>       Ingest concepts from a JSONL file
  stellar rebuild [flags]             Rebuild the similarity graph and layout
  stellar status [flags]              Show graph and rebuild status
  stellar version                     Show version
  stellar help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/stellar/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path
  --rebuild          Rebuild the graph after ingesting

Rebuild Flags:
  --config string    Config file path

Status Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Examples:
  stellar server
  stellar ingest concepts.jsonl
  stellar ingest --rebuild concepts.jsonl
  stellar rebuild
  stellar status --output json`)
}
