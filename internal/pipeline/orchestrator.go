// Package pipeline coordinates the full graph rebuild: load concepts, find
// nearest neighbors, reduce candidates to edges, lay out positions, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lynxverse/stellar/internal/config"
	"github.com/lynxverse/stellar/internal/graph"
	"github.com/lynxverse/stellar/internal/layout"
	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/similarity"
	"github.com/lynxverse/stellar/internal/storage"
	"github.com/lynxverse/stellar/internal/vector"
)

// Orchestrator runs rebuilds. A rebuild is atomic with respect to persistence:
// edges and positions are only written after every stage has succeeded, so a
// failed run leaves the previously stored graph intact.
type Orchestrator struct {
	cfg     *config.Config
	store   storage.Storage
	index   *similarity.Index
	reducer *graph.Reducer
	engine  *layout.Engine
	logger  *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator wires the pipeline stages from the config.
func NewOrchestrator(cfg *config.Config, store storage.Storage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.index = similarity.NewIndex(similarity.WithLogger(o.logger))

	reducerOpts := []graph.ReducerOption{
		graph.WithLogger(o.logger),
		graph.WithSkipIdenticalPairs(cfg.Graph.SkipIdenticalPairs),
	}
	if cfg.Graph.CategoryEdgesOrDefault() {
		reducerOpts = append(reducerOpts,
			graph.WithCategoryEdges(cfg.Graph.CategoryEdgeProbability, cfg.Graph.CategoryEdgeWeight))
	}
	o.reducer = graph.NewReducer(reducerOpts...)
	o.engine = layout.NewEngine(&cfg.Layout, layout.WithLogger(o.logger))
	return o
}

// Rebuild loads every concept with an embedding, recomputes the similarity
// graph and layout, and persists the result. Progress is recorded in the
// rebuild status table after each stage. Any failure aborts the run, records
// an error status, and returns; exceeding the configured wall-clock budget
// returns ErrTimeout.
func (o *Orchestrator) Rebuild(ctx context.Context) (*models.RebuildStatus, error) {
	if o.cfg.Rebuild.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Rebuild.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	start := time.Now()
	o.logger.Info("rebuild started")

	o.setState(models.RebuildStateLoading, nil)
	concepts, err := o.store.ListConceptsWithEmbeddings(ctx)
	if err != nil {
		return o.fail(ctx, fmt.Errorf("loading concepts: %w", err))
	}

	edges, positions, err := o.RebuildGraph(ctx, concepts)
	if err != nil {
		return o.fail(ctx, err)
	}

	o.setState(models.RebuildStatePersisting, nil)
	if err := o.store.ReplaceEdges(ctx, edges); err != nil {
		return o.fail(ctx, fmt.Errorf("persisting edges: %w", err))
	}
	if err := o.store.UpsertPositions(ctx, positions); err != nil {
		return o.fail(ctx, fmt.Errorf("persisting positions: %w", err))
	}

	status := &models.RebuildStatus{
		State:          models.RebuildStateComplete,
		TotalConcepts:  len(concepts),
		TotalEdges:     len(edges),
		TotalPositions: len(positions),
		UpdatedAt:      time.Now(),
	}
	if err := o.store.UpdateRebuildStatus(ctx, status); err != nil {
		o.logger.Warn("failed to record rebuild status", zap.Error(err))
	}

	o.logger.Info("rebuild complete",
		zap.Int("concepts", len(concepts)),
		zap.Int("edges", len(edges)),
		zap.Duration("elapsed", time.Since(start)))
	return status, nil
}

// RebuildGraph computes edges and positions for the given concepts without
// touching storage. Concepts without embeddings are rejected by the vector
// store; an empty input yields an empty graph.
func (o *Orchestrator) RebuildGraph(ctx context.Context, concepts []*models.Concept) ([]models.Edge, []models.Position, error) {
	if len(concepts) == 0 {
		return []models.Edge{}, []models.Position{}, nil
	}

	store, err := vector.NewStore(concepts)
	if err != nil {
		return nil, nil, fmt.Errorf("building vector store: %w", err)
	}

	o.setState(models.RebuildStateSimilarity, nil)
	candidates, err := o.index.FindNeighbors(ctx, store, o.cfg.Graph.K, o.cfg.Graph.SimilarityThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("finding neighbors: %w", err)
	}

	o.setState(models.RebuildStateReducing, nil)
	edges, err := o.reducer.Reduce(store, candidates, o.cfg.Graph.K)
	if err != nil {
		return nil, nil, fmt.Errorf("reducing graph: %w", err)
	}
	if o.cfg.Graph.CategoryEdgesOrDefault() {
		edges = append(edges, o.reducer.CategoryEdges(store, o.seed())...)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	o.setState(models.RebuildStateLayout, nil)
	positions, err := o.engine.Layout(store, edges)
	if err != nil {
		return nil, nil, fmt.Errorf("computing layout: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return edges, positions, nil
}

// Status returns the persisted rebuild status.
func (o *Orchestrator) Status(ctx context.Context) (*models.RebuildStatus, error) {
	return o.store.GetRebuildStatus(ctx)
}

func (o *Orchestrator) seed() int64 {
	if o.cfg.Layout.Seed != nil {
		return *o.cfg.Layout.Seed
	}
	return time.Now().UnixNano()
}

func (o *Orchestrator) setState(state string, failure error) {
	status := &models.RebuildStatus{State: state, UpdatedAt: time.Now()}
	if failure != nil {
		status.ErrorMessage = failure.Error()
	}
	// Status updates are advisory; a write failure must not abort the rebuild.
	if err := o.store.UpdateRebuildStatus(context.Background(), status); err != nil {
		o.logger.Warn("failed to record rebuild status", zap.String("state", state), zap.Error(err))
	}
}

func (o *Orchestrator) fail(ctx context.Context, err error) (*models.RebuildStatus, error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = models.ErrTimeout
	}
	o.logger.Error("rebuild failed", zap.Error(err))
	o.setState(models.RebuildStateError, err)
	return nil, err
}
