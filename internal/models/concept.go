// Package models defines core data structures for concepts, edges, and positions.
package models

import "time"

// CategoryGeneral is the bucket for concepts without an explicit category.
const CategoryGeneral = "General"

// Concept represents a node in the knowledge graph: an identity, a category,
// and an embedding vector. The embedding is immutable once computed.
type Concept struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Summary   string    `json:"summary,omitempty" db:"summary"`
	Category  string    `json:"category,omitempty" db:"category"`
	Source    string    `json:"source,omitempty" db:"source"`
	URL       string    `json:"url,omitempty" db:"url"`
	Embedding []float32 `json:"-" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryOrDefault returns the concept's category, or CategoryGeneral when unset.
func (c *Concept) CategoryOrDefault() string {
	if c.Category == "" {
		return CategoryGeneral
	}
	return c.Category
}

// EmbeddingText returns the text the embedder should encode for this concept.
func (c *Concept) EmbeddingText() string {
	if c.Summary == "" {
		return c.Title
	}
	return c.Title + ". " + c.Summary
}

// ConceptInput is the input for creating a concept via the API or a source.
type ConceptInput struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	Category string `json:"category,omitempty"`
	Source   string `json:"source,omitempty"`
	URL      string `json:"url,omitempty"`
}
