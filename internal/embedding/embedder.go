// Package embedding turns concept text into vectors for similarity search.
package embedding

import "context"

// Embedder produces unit-length vector embeddings for concept text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
