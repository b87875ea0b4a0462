// Package server provides the HTTP API for Stellar.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lynxverse/stellar/internal/config"
	"github.com/lynxverse/stellar/internal/ingest"
	"github.com/lynxverse/stellar/internal/keyword"
	"github.com/lynxverse/stellar/internal/pipeline"
	"github.com/lynxverse/stellar/internal/storage"
)

// Server is the HTTP server for the Stellar API.
type Server struct {
	ingester     *ingest.Ingester
	orchestrator *pipeline.Orchestrator
	storage      storage.Storage
	keywordIndex *keyword.Index
	config       *config.ServerConfig
	logger       *zap.Logger
	server       *http.Server

	// rebuilding guards against overlapping rebuild requests.
	rebuilding atomic.Bool
}

// NewServer creates a server with the given dependencies.
func NewServer(
	ingester *ingest.Ingester,
	orchestrator *pipeline.Orchestrator,
	store storage.Storage,
	keywordIndex *keyword.Index,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingester:     ingester,
		orchestrator: orchestrator,
		storage:      store,
		keywordIndex: keywordIndex,
		config:       cfg,
		logger:       logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/concepts", s.handleCreateConcept)
	r.Get("/api/v1/concepts/search", s.handleSearch)
	r.Get("/api/v1/concepts/{id}", s.handleGetConcept)
	r.Delete("/api/v1/concepts/{id}", s.handleDeleteConcept)
	r.Post("/api/v1/rebuild", s.handleRebuild)
	r.Get("/api/v1/graph", s.handleGraph)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
