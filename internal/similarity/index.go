// Package similarity computes per-concept nearest-neighbor candidates over a
// dense pairwise cosine pass.
package similarity

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/vector"
)

// Index finds top-k neighbor candidates for every concept in a store.
// The pass is exact (O(n²·d)), which is the scalability ceiling: beyond roughly
// 10⁴–10⁵ concepts this should be swapped for an approximate index behind the
// same FindNeighbors contract.
type Index struct {
	workers int
	logger  *zap.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a logger for degenerate-vector warnings.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Index) { idx.logger = l }
}

// WithWorkers sets the number of parallel workers (default GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// NewIndex creates an index with the given options.
func NewIndex(opts ...Option) *Index {
	idx := &Index{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// FindNeighbors returns, for every concept, its candidates with similarity at
// or above threshold, sorted by descending similarity (ties broken by ascending
// neighbor id), truncated to k. Self-similarity is excluded. A concept with no
// qualifying neighbor maps to an empty list. The store is read-only during the
// pass; rows are computed independently and merged after each worker returns.
func (idx *Index) FindNeighbors(ctx context.Context, store *vector.Store, k int, threshold float64) (map[string][]models.CandidateEdge, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", models.ErrInvalidInput, k)
	}
	if threshold < -1 || threshold > 1 {
		return nil, fmt.Errorf("%w: similarity threshold must be in [-1,1], got %v", models.ErrInvalidInput, threshold)
	}

	n := store.Len()
	candidates := make(map[string][]models.CandidateEdge, n)
	if n == 0 {
		return candidates, nil
	}

	for i := 0; i < n; i++ {
		if store.NormAt(i) == 0 && idx.logger != nil {
			idx.logger.Warn("degenerate zero-norm embedding, similarity defined as 0",
				zap.String("concept_id", store.IDAt(i)))
		}
	}

	rows := make([][]models.CandidateEdge, n)
	workers := idx.workers
	if workers > n {
		workers = n
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < n; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				rows[i] = neighborRow(store, i, k, threshold)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		candidates[store.IDAt(i)] = rows[i]
	}
	return candidates, nil
}

// neighborRow computes the sorted, truncated candidate list for row i.
func neighborRow(store *vector.Store, i, k int, threshold float64) []models.CandidateEdge {
	id := store.IDAt(i)
	vec := store.VectorAt(i)
	norm := store.NormAt(i)

	row := make([]models.CandidateEdge, 0, k)
	for j := 0; j < store.Len(); j++ {
		if j == i {
			continue
		}
		sim := vector.CosineWithNorms(vec, store.VectorAt(j), norm, store.NormAt(j))
		if sim >= threshold {
			row = append(row, models.CandidateEdge{From: id, To: store.IDAt(j), Similarity: sim})
		}
	}
	sort.Slice(row, func(a, b int) bool {
		if row[a].Similarity != row[b].Similarity {
			return row[a].Similarity > row[b].Similarity
		}
		return row[a].To < row[b].To
	})
	if len(row) > k {
		row = row[:k]
	}
	return row
}
