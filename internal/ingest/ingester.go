package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lynxverse/stellar/internal/embedding"
	"github.com/lynxverse/stellar/internal/keyword"
	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/storage"
)

// Ingester stores concepts with their embeddings and keeps the keyword index
// in step with storage.
type Ingester struct {
	storage      storage.Storage
	embedder     embedding.Embedder
	keywordIndex *keyword.Index
	logger       *zap.Logger
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithLogger sets a logger for per-concept progress.
func WithLogger(l *zap.Logger) IngesterOption {
	return func(ing *Ingester) { ing.logger = l }
}

// NewIngester creates an ingester. keywordIndex may be nil; keyword indexing
// is then skipped.
func NewIngester(store storage.Storage, embedder embedding.Embedder, keywordIndex *keyword.Index, opts ...IngesterOption) *Ingester {
	ing := &Ingester{
		storage:      store,
		embedder:     embedder,
		keywordIndex: keywordIndex,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestConcept embeds and stores one concept. An empty ID gets a generated
// UUID; an existing ID updates the stored concept in place.
func (ing *Ingester) IngestConcept(ctx context.Context, input *models.ConceptInput) (*models.Concept, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: missing title", models.ErrInvalidInput)
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}

	now := time.Now()
	concept := &models.Concept{
		ID:        input.ID,
		Title:     input.Title,
		Summary:   input.Summary,
		Category:  input.Category,
		Source:    input.Source,
		URL:       input.URL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	vec, err := ing.embedder.Embed(ctx, concept.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("failed to embed concept: %w", err)
	}
	concept.Embedding = vec

	if err := ing.storage.CreateConcept(ctx, concept); err != nil {
		return nil, fmt.Errorf("failed to store concept: %w", err)
	}
	if ing.keywordIndex != nil {
		if err := ing.keywordIndex.IndexConcept(ctx, concept); err != nil {
			return nil, fmt.Errorf("failed to index concept keywords: %w", err)
		}
	}

	ing.logger.Debug("concept ingested",
		zap.String("id", concept.ID),
		zap.String("title", concept.Title))
	return concept, nil
}

// IngestSource reads every concept from the source and ingests them in order.
// Returns the number ingested; the first failure aborts the run.
func (ing *Ingester) IngestSource(ctx context.Context, src Source) (int, error) {
	inputs, err := src.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read source %s: %w", src.Name(), err)
	}

	for i, input := range inputs {
		input.Source = firstNonEmpty(input.Source, src.Name())
		if _, err := ing.IngestConcept(ctx, input); err != nil {
			return i, fmt.Errorf("concept %d of %d: %w", i+1, len(inputs), err)
		}
	}

	ing.logger.Info("source ingested",
		zap.String("source", src.Name()),
		zap.Int("concepts", len(inputs)))
	return len(inputs), nil
}

// DeleteConcept removes a concept from storage and the keyword index.
func (ing *Ingester) DeleteConcept(ctx context.Context, id string) error {
	if err := ing.storage.DeleteConcept(ctx, id); err != nil {
		return err
	}
	if ing.keywordIndex != nil {
		if err := ing.keywordIndex.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to remove concept from keyword index: %w", err)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
