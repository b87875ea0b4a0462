// Package keyword provides a Bleve index over concept titles and summaries.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/lynxverse/stellar/internal/models"
)

// Result is one keyword search hit.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// conceptDoc is the shape indexed per concept.
type conceptDoc struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// Index is a Bleve-backed keyword index over concepts.
type Index struct {
	index bleve.Index
}

// NewIndex creates or opens a Bleve index at path. An existing index is
// reused; remove the directory to force a rebuild after mapping changes.
func NewIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open keyword index: %w", openErr)
		}
		return &Index{index: idx}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so a query term
	// matches the exact indexed word.
	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textMapping)
	docMapping.AddFieldMappingsAt("summary", textMapping)
	docMapping.AddFieldMappingsAt("category", bleve.NewKeywordFieldMapping())

	im.AddDocumentMapping("concept", docMapping)
	im.DefaultType = "concept"
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	return &Index{index: idx}, nil
}

// IndexConcept adds or updates a concept in the index.
func (i *Index) IndexConcept(_ context.Context, c *models.Concept) error {
	return i.index.Index(c.ID, conceptDoc{
		Title:    c.Title,
		Summary:  c.Summary,
		Category: c.CategoryOrDefault(),
	})
}

// Search runs a match query over titles and summaries, with title hits
// weighted higher, and returns up to limit hits by descending score.
func (i *Index) Search(_ context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)
	summaryQuery := bleve.NewMatchQuery(query)
	summaryQuery.SetField("summary")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(titleQuery, summaryQuery))
	req.Size = limit

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	out := make([]Result, len(res.Hits))
	for n, hit := range res.Hits {
		out[n] = Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a concept from the index.
func (i *Index) Delete(_ context.Context, id string) error {
	return i.index.Delete(id)
}

// DocCount returns the number of indexed concepts.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the underlying index.
func (i *Index) Close() error {
	return i.index.Close()
}
