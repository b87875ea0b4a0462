package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lynxverse/stellar/internal/embedding"
	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/storage"
)

func writeJSONL(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "concepts.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestFileSourceRead(t *testing.T) {
	path := writeJSONL(t, `{"id":"c1","title":"Gravity","category":"Science & Technology"}

{"title":"Renaissance","summary":"A period of cultural rebirth."}
`)
	src := NewFileSource(path)

	inputs, err := src.Read()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(inputs))
	}
	if inputs[0].ID != "c1" || inputs[0].Category != "Science & Technology" {
		t.Errorf("first input wrong: %+v", inputs[0])
	}
	if inputs[1].Summary != "A period of cultural rebirth." {
		t.Errorf("second input wrong: %+v", inputs[1])
	}
}

func TestFileSourceRejectsMalformedLine(t *testing.T) {
	path := writeJSONL(t, `{"title":"ok"}
{not json}
`)
	if _, err := NewFileSource(path).Read(); err == nil {
		t.Fatal("expected error for malformed line")
	}
}

func TestFileSourceRejectsMissingTitle(t *testing.T) {
	path := writeJSONL(t, `{"id":"c1"}
`)
	_, err := NewFileSource(path).Read()
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := NewFileSource("/nonexistent/concepts.jsonl").Read(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func newTestIngester(t *testing.T) (*Ingester, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewIngester(store, embedding.NewMockEmbedder(8), nil), store
}

func TestIngestConcept(t *testing.T) {
	ing, store := newTestIngester(t)
	ctx := context.Background()

	c, err := ing.IngestConcept(ctx, &models.ConceptInput{Title: "Photosynthesis"})
	if err != nil {
		t.Fatalf("IngestConcept error: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated ID")
	}
	if len(c.Embedding) != 8 {
		t.Errorf("embedding dimension = %d, want 8", len(c.Embedding))
	}

	stored, err := store.GetConcept(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetConcept: %v", err)
	}
	if stored.Title != "Photosynthesis" {
		t.Errorf("stored title = %q", stored.Title)
	}
	if len(stored.Embedding) != 8 {
		t.Errorf("stored embedding dimension = %d, want 8", len(stored.Embedding))
	}
}

func TestIngestConceptRejectsEmptyTitle(t *testing.T) {
	ing, _ := newTestIngester(t)
	_, err := ing.IngestConcept(context.Background(), &models.ConceptInput{ID: "c1"})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestIngestSource(t *testing.T) {
	ing, store := newTestIngester(t)
	path := writeJSONL(t, `{"id":"a","title":"Alpha"}
{"id":"b","title":"Beta","source":"custom"}
`)

	n, err := ing.IngestSource(context.Background(), NewFileSource(path))
	if err != nil {
		t.Fatalf("IngestSource error: %v", err)
	}
	if n != 2 {
		t.Errorf("ingested = %d, want 2", n)
	}

	a, err := store.GetConcept(context.Background(), "a")
	if err != nil {
		t.Fatalf("GetConcept a: %v", err)
	}
	if a.Source != path {
		t.Errorf("default source = %q, want file path", a.Source)
	}
	b, err := store.GetConcept(context.Background(), "b")
	if err != nil {
		t.Fatalf("GetConcept b: %v", err)
	}
	if b.Source != "custom" {
		t.Errorf("explicit source overridden: %q", b.Source)
	}
}
