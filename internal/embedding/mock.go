package embedding

import (
	"context"
	"math/rand"

	"github.com/lynxverse/stellar/pkg/utils"
)

// MockEmbedder produces deterministic pseudo-random embeddings derived from
// the text hash. The same text always maps to the same unit vector, and
// distinct texts are near-orthogonal at reasonable dimensions, which is what
// graph construction tests need.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a deterministic embedder of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a unit vector seeded by the text hash.
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	rng := rand.New(rand.NewSource(int64(HashString(text))))
	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int { return e.dimensions }

// Close is a no-op.
func (e *MockEmbedder) Close() error { return nil }
