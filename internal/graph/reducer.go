// Package graph reduces directed neighbor candidates into a canonical
// undirected weighted edge set.
package graph

import (
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/vector"
)

// identicalSimilarity is the cutoff above which a pair is treated as having
// identical embeddings when SkipIdenticalPairs is set.
const identicalSimilarity = 0.9999

// Reducer converts per-concept candidate lists into canonical edges.
//
// Deduplication policy: an edge is emitted for the unordered pair {a, b} only
// when the smaller id nominated the larger one, with that direction's
// similarity as the weight. A nomination arriving only from the larger id is
// dropped. On top of that, each concept's incident semantic degree is capped
// at k: pairs are considered in ascending smaller-id order, candidates in
// descending similarity, and a pair whose endpoints are both saturated is
// skipped. Nodes can therefore end up with fewer than k edges; that is
// documented behavior, not a bug.
type Reducer struct {
	skipIdenticalPairs  bool
	categoryEdges       bool
	categoryProbability float64
	categoryWeight      float64
	logger              *zap.Logger
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithLogger sets a logger for empty-graph warnings.
func WithLogger(l *zap.Logger) ReducerOption {
	return func(r *Reducer) { r.logger = l }
}

// WithSkipIdenticalPairs drops pairs whose similarity exceeds 0.9999,
// preventing near-duplicate concepts from forming dense cliques.
func WithSkipIdenticalPairs(skip bool) ReducerOption {
	return func(r *Reducer) { r.skipIdenticalPairs = skip }
}

// WithCategoryEdges enables sampled same-category fallback edges with the
// given sampling probability and constant weight.
func WithCategoryEdges(probability, weight float64) ReducerOption {
	return func(r *Reducer) {
		r.categoryEdges = probability > 0
		r.categoryProbability = probability
		r.categoryWeight = weight
	}
}

// NewReducer creates a reducer with the given options.
func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce emits canonical semantic edges from per-concept candidate lists.
// A candidate referencing an id absent from the store is a contract violation
// and fails the whole reduction. An empty result is a valid terminal state.
func (r *Reducer) Reduce(store *vector.Store, candidates map[string][]models.CandidateEdge, k int) ([]models.Edge, error) {
	froms := make([]string, 0, len(candidates))
	for from := range candidates {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	degree := make(map[string]int, len(candidates))
	seen := make(map[string]struct{})
	var edges []models.Edge

	for _, from := range froms {
		if !store.Has(from) {
			return nil, fmt.Errorf("%w: candidate list for unknown concept %q", models.ErrInvalidInput, from)
		}
		for _, cand := range candidates[from] {
			if !store.Has(cand.To) {
				return nil, fmt.Errorf("%w: concept %q nominated unknown concept %q",
					models.ErrInvalidInput, from, cand.To)
			}
			if cand.To <= from {
				// Only the smaller id's nomination creates the edge.
				continue
			}
			if r.skipIdenticalPairs && cand.Similarity > identicalSimilarity {
				continue
			}
			edge := models.NewEdge(from, cand.To, cand.Similarity, models.EdgeTypeSemantic)
			if _, dup := seen[edge.Key()]; dup {
				continue
			}
			if k > 0 && (degree[edge.Source] >= k || degree[edge.Target] >= k) {
				continue
			}
			seen[edge.Key()] = struct{}{}
			degree[edge.Source]++
			degree[edge.Target]++
			edges = append(edges, edge)
		}
	}

	if len(edges) == 0 && store.Len() > 1 && r.logger != nil {
		r.logger.Warn("no semantic edges survived thresholding; graph is edgeless")
	}
	return edges, nil
}

// CategoryEdges samples same-category pairs at the configured probability and
// connects them at a constant weight below the semantic threshold, as a
// connectivity fallback. The rng seed makes the sampling reproducible; pairs
// are visited in ascending id order.
func (r *Reducer) CategoryEdges(store *vector.Store, seed int64) []models.Edge {
	if !r.categoryEdges {
		return nil
	}
	groups := make(map[string][]string)
	for i := 0; i < store.Len(); i++ {
		cat := store.CategoryAt(i)
		groups[cat] = append(groups[cat], store.IDAt(i))
	}
	cats := make([]string, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	rng := rand.New(rand.NewSource(seed))
	var edges []models.Edge
	for _, cat := range cats {
		members := groups[cat]
		if len(members) < 2 {
			continue
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if rng.Float64() < r.categoryProbability {
					edges = append(edges, models.NewEdge(members[i], members[j], r.categoryWeight, models.EdgeTypeCategory))
				}
			}
		}
	}
	return edges
}
