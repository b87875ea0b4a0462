package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/lynxverse/stellar/internal/models"
)

func TestNewStoreOrdersByID(t *testing.T) {
	store, err := NewStore([]*models.Concept{
		{ID: "c", Embedding: []float32{1, 0}},
		{ID: "a", Embedding: []float32{0, 1}},
		{ID: "b", Embedding: []float32{1, 1}},
	})
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, id := range store.IDs() {
		if id != want[i] {
			t.Errorf("position %d: got %q, want %q", i, id, want[i])
		}
	}
}

func TestNewStoreRejectsDuplicates(t *testing.T) {
	_, err := NewStore([]*models.Concept{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "a", Embedding: []float32{0, 1}},
	})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewStoreRejectsDimensionMismatch(t *testing.T) {
	_, err := NewStore([]*models.Concept{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0, 0}},
	})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStoreCategoryDefaults(t *testing.T) {
	store, err := NewStore([]*models.Concept{
		{ID: "a", Embedding: []float32{1}},
		{ID: "b", Category: "History", Embedding: []float32{1}},
	})
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	if store.Category("a") != models.CategoryGeneral {
		t.Error("missing category should default to General")
	}
	if store.Category("b") != "History" {
		t.Error("explicit category should pass through")
	}
	if store.Category("unknown") != models.CategoryGeneral {
		t.Error("unknown id should report General")
	}
}

func TestCosine(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		if got := Cosine([]float32{1, 2, 3}, []float32{1, 2, 3}); math.Abs(got-1) > 1e-9 {
			t.Errorf("got %v, want 1", got)
		}
	})
	t.Run("orthogonal vectors", func(t *testing.T) {
		if got := Cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
			t.Errorf("got %v, want 0", got)
		}
	})
	t.Run("opposite vectors", func(t *testing.T) {
		if got := Cosine([]float32{1, 0}, []float32{-1, 0}); math.Abs(got+1) > 1e-9 {
			t.Errorf("got %v, want -1", got)
		}
	})
	t.Run("zero norm yields 0 not NaN", func(t *testing.T) {
		got := Cosine([]float32{0, 0}, []float32{1, 2})
		if got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})
	t.Run("never exceeds 1", func(t *testing.T) {
		// Rounding in Dot/(na*nb) can land just above 1 for identical
		// vectors; the result must stay inside [-1, 1].
		a := []float32{1, 1, 1}
		if got := Cosine(a, a); got > 1 {
			t.Errorf("got %v, want <= 1", got)
		}
		na := Norm(a)
		if got := CosineWithNorms(a, a, na, na); got > 1 {
			t.Errorf("with norms: got %v, want <= 1", got)
		}
	})
	t.Run("symmetry", func(t *testing.T) {
		a, b := []float32{0.3, -0.2, 0.9}, []float32{-0.1, 0.5, 0.4}
		if math.Abs(Cosine(a, b)-Cosine(b, a)) > 1e-12 {
			t.Error("cosine must be symmetric")
		}
	})
}
