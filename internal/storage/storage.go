// Package storage defines the persistence interface for concepts, edges, and positions.
package storage

import (
	"context"

	"github.com/lynxverse/stellar/internal/models"
)

// Storage defines persistence operations for the concept graph. Edges and
// positions are upserted idempotently: edges are keyed by (source, target,
// edge type), positions by concept id.
type Storage interface {
	// Concept operations
	CreateConcept(ctx context.Context, c *models.Concept) error
	GetConcept(ctx context.Context, id string) (*models.Concept, error)
	DeleteConcept(ctx context.Context, id string) error
	ListConcepts(ctx context.Context, offset, limit int) ([]*models.Concept, error)
	// ListConceptsWithEmbeddings returns every concept that has an embedding,
	// with the embedding populated, ordered by id.
	ListConceptsWithEmbeddings(ctx context.Context) ([]*models.Concept, error)

	// Graph outputs
	ReplaceEdges(ctx context.Context, edges []models.Edge) error
	ListEdges(ctx context.Context, edgeType models.EdgeType) ([]models.Edge, error)
	UpsertPositions(ctx context.Context, positions []models.Position) error
	ListPositions(ctx context.Context) ([]models.Position, error)

	// Rebuild status
	UpdateRebuildStatus(ctx context.Context, status *models.RebuildStatus) error
	GetRebuildStatus(ctx context.Context) (*models.RebuildStatus, error)

	// Stats
	CountConcepts(ctx context.Context) (int64, error)
	CountEdges(ctx context.Context) (int64, error)
	CountPositions(ctx context.Context) (int64, error)

	Close() error
}
