// Package vector provides the in-memory embedding store and similarity math
// used by the graph pipeline.
package vector

import (
	"fmt"
	"sort"

	"github.com/lynxverse/stellar/internal/models"
)

// Store is a read-only, id-ordered view of concepts and their embeddings.
// It is built once per rebuild and shared across similarity workers; it is
// never mutated after construction.
type Store struct {
	ids        []string
	index      map[string]int
	vectors    [][]float32
	norms      []float64
	categories []string
	dimensions int
}

// NewStore validates concepts and builds a store ordered by ascending id.
// Duplicate ids and embedding length mismatches are fatal input errors.
func NewStore(concepts []*models.Concept) (*Store, error) {
	s := &Store{
		ids:        make([]string, 0, len(concepts)),
		index:      make(map[string]int, len(concepts)),
		vectors:    make([][]float32, 0, len(concepts)),
		norms:      make([]float64, 0, len(concepts)),
		categories: make([]string, 0, len(concepts)),
	}

	sorted := make([]*models.Concept, len(concepts))
	copy(sorted, concepts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, c := range sorted {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: concept with empty id", models.ErrInvalidInput)
		}
		if _, ok := s.index[c.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate concept id %q", models.ErrInvalidInput, c.ID)
		}
		if s.dimensions == 0 {
			s.dimensions = len(c.Embedding)
		}
		if len(c.Embedding) != s.dimensions {
			return nil, fmt.Errorf("%w: concept %q embedding length %d, expected %d",
				models.ErrInvalidInput, c.ID, len(c.Embedding), s.dimensions)
		}
		vec := make([]float32, len(c.Embedding))
		copy(vec, c.Embedding)
		s.index[c.ID] = len(s.ids)
		s.ids = append(s.ids, c.ID)
		s.vectors = append(s.vectors, vec)
		s.norms = append(s.norms, Norm(vec))
		s.categories = append(s.categories, c.CategoryOrDefault())
	}
	return s, nil
}

// Len returns the number of concepts in the store.
func (s *Store) Len() int { return len(s.ids) }

// Dimensions returns the embedding length shared by every stored vector.
func (s *Store) Dimensions() int { return s.dimensions }

// IDs returns all concept ids in ascending order. The slice is shared; do not modify.
func (s *Store) IDs() []string { return s.ids }

// IDAt returns the id at position i in ascending-id order.
func (s *Store) IDAt(i int) string { return s.ids[i] }

// Has reports whether id is present.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// VectorAt returns the embedding at position i. The slice is shared; do not modify.
func (s *Store) VectorAt(i int) []float32 { return s.vectors[i] }

// NormAt returns the precomputed L2 norm of the vector at position i.
func (s *Store) NormAt(i int) float64 { return s.norms[i] }

// CategoryAt returns the category of the concept at position i
// (CategoryGeneral when the concept had none).
func (s *Store) CategoryAt(i int) string { return s.categories[i] }

// Category returns the category for id, or CategoryGeneral when unknown.
func (s *Store) Category(id string) string {
	if i, ok := s.index[id]; ok {
		return s.categories[i]
	}
	return models.CategoryGeneral
}
