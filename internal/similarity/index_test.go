package similarity

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/vector"
)

func mustStore(t *testing.T, concepts []*models.Concept) *vector.Store {
	t.Helper()
	store, err := vector.NewStore(concepts)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return store
}

// vecAtAngle returns a 2D unit vector at the given angle, so cosine
// similarities between test vectors are exact angle differences.
func vecAtAngle(rad float64) []float32 {
	return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func TestFindNeighborsBasic(t *testing.T) {
	store := mustStore(t, []*models.Concept{
		{ID: "a", Embedding: vecAtAngle(0)},
		{ID: "b", Embedding: vecAtAngle(0.2)},
		{ID: "c", Embedding: vecAtAngle(1.4)},
	})
	idx := NewIndex()
	got, err := idx.FindNeighbors(context.Background(), store, 2, 0.6)
	if err != nil {
		t.Fatalf("FindNeighbors error: %v", err)
	}
	// cos(0.2) ≈ 0.98, cos(1.2) ≈ 0.36, cos(1.4) ≈ 0.17
	if len(got["a"]) != 1 || got["a"][0].To != "b" {
		t.Errorf("a should only nominate b, got %+v", got["a"])
	}
	if len(got["b"]) != 1 || got["b"][0].To != "a" {
		t.Errorf("b should only nominate a, got %+v", got["b"])
	}
	if len(got["c"]) != 0 {
		t.Errorf("c should have no qualifying neighbors, got %+v", got["c"])
	}
}

func TestFindNeighborsExcludesSelfAndSortsDescending(t *testing.T) {
	store := mustStore(t, []*models.Concept{
		{ID: "a", Embedding: vecAtAngle(0)},
		{ID: "b", Embedding: vecAtAngle(0.1)},
		{ID: "c", Embedding: vecAtAngle(0.3)},
		{ID: "d", Embedding: vecAtAngle(0.5)},
	})
	got, err := NewIndex().FindNeighbors(context.Background(), store, 10, -1)
	if err != nil {
		t.Fatalf("FindNeighbors error: %v", err)
	}
	row := got["a"]
	if len(row) != 3 {
		t.Fatalf("expected 3 candidates for a, got %d", len(row))
	}
	for i := range row {
		if row[i].To == "a" {
			t.Error("self must be excluded")
		}
		if i > 0 && row[i].Similarity > row[i-1].Similarity {
			t.Error("candidates must be sorted by descending similarity")
		}
	}
	if row[0].To != "b" || row[2].To != "d" {
		t.Errorf("order wrong: %+v", row)
	}
}

func TestFindNeighborsTruncatesToK(t *testing.T) {
	concepts := []*models.Concept{
		{ID: "q", Embedding: vecAtAngle(0)},
		{ID: "n1", Embedding: vecAtAngle(0.05)},
		{ID: "n2", Embedding: vecAtAngle(0.10)},
		{ID: "n3", Embedding: vecAtAngle(0.15)},
	}
	got, err := NewIndex().FindNeighbors(context.Background(), mustStore(t, concepts), 2, -1)
	if err != nil {
		t.Fatalf("FindNeighbors error: %v", err)
	}
	if len(got["q"]) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got["q"]))
	}
	if got["q"][0].To != "n1" || got["q"][1].To != "n2" {
		t.Errorf("kept the wrong candidates: %+v", got["q"])
	}
}

func TestFindNeighborsTieBreaksByAscendingID(t *testing.T) {
	// b and c are identical, so both have the same similarity to a.
	store := mustStore(t, []*models.Concept{
		{ID: "a", Embedding: vecAtAngle(0)},
		{ID: "c", Embedding: vecAtAngle(0.2)},
		{ID: "b", Embedding: vecAtAngle(0.2)},
	})
	got, err := NewIndex().FindNeighbors(context.Background(), store, 1, -1)
	if err != nil {
		t.Fatalf("FindNeighbors error: %v", err)
	}
	if got["a"][0].To != "b" {
		t.Errorf("tie must break by ascending id, got %q", got["a"][0].To)
	}
}

func TestFindNeighborsZeroNormVector(t *testing.T) {
	store := mustStore(t, []*models.Concept{
		{ID: "a", Embedding: []float32{0, 0}},
		{ID: "b", Embedding: vecAtAngle(0)},
	})
	got, err := NewIndex().FindNeighbors(context.Background(), store, 5, 0.1)
	if err != nil {
		t.Fatalf("degenerate vector must not be an error: %v", err)
	}
	if len(got["a"]) != 0 || len(got["b"]) != 0 {
		t.Error("zero-norm similarity is 0 and must fall below the threshold")
	}
}

func TestFindNeighborsInvalidParams(t *testing.T) {
	store := mustStore(t, []*models.Concept{{ID: "a", Embedding: vecAtAngle(0)}})
	if _, err := NewIndex().FindNeighbors(context.Background(), store, 0, 0.5); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("k=0 should be rejected, got %v", err)
	}
	if _, err := NewIndex().FindNeighbors(context.Background(), store, 3, 1.5); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("threshold out of range should be rejected, got %v", err)
	}
}

func TestFindNeighborsEmptyStore(t *testing.T) {
	store := mustStore(t, nil)
	got, err := NewIndex().FindNeighbors(context.Background(), store, 3, 0.5)
	if err != nil {
		t.Fatalf("empty store must not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d rows", len(got))
	}
}

func TestFindNeighborsParallelMatchesSerial(t *testing.T) {
	var concepts []*models.Concept
	for i := 0; i < 40; i++ {
		concepts = append(concepts, &models.Concept{
			ID:        string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Embedding: vecAtAngle(float64(i) * 0.07),
		})
	}
	store := mustStore(t, concepts)
	serial, err := NewIndex(WithWorkers(1)).FindNeighbors(context.Background(), store, 5, 0.3)
	if err != nil {
		t.Fatalf("serial error: %v", err)
	}
	parallel, err := NewIndex(WithWorkers(8)).FindNeighbors(context.Background(), store, 5, 0.3)
	if err != nil {
		t.Fatalf("parallel error: %v", err)
	}
	for id, row := range serial {
		prow := parallel[id]
		if len(prow) != len(row) {
			t.Fatalf("row %q length differs: %d vs %d", id, len(prow), len(row))
		}
		for i := range row {
			if row[i] != prow[i] {
				t.Errorf("row %q candidate %d differs: %+v vs %+v", id, i, row[i], prow[i])
			}
		}
	}
}
