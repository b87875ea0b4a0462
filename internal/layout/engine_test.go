package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/lynxverse/stellar/internal/config"
	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/vector"
)

func testLayoutConfig(strategy string, seed int64) *config.LayoutConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Layout.Strategy = strategy
	cfg.Layout.Seed = &seed
	cfg.Layout.ForceIterations = 50 // keep tests fast
	return &cfg.Layout
}

func storeOf(t *testing.T, n int) *vector.Store {
	t.Helper()
	categories := []string{"Science & Technology", "History", "", "Arts & Culture"}
	var concepts []*models.Concept
	for i := 0; i < n; i++ {
		concepts = append(concepts, &models.Concept{
			ID:        fmt.Sprintf("c%03d", i),
			Category:  categories[i%len(categories)],
			Embedding: []float32{float32(i), 1},
		})
	}
	store, err := vector.NewStore(concepts)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return store
}

func checkComplete(t *testing.T, store *vector.Store, positions []models.Position) {
	t.Helper()
	if len(positions) != store.Len() {
		t.Fatalf("got %d positions for %d concepts", len(positions), store.Len())
	}
	seen := map[string]bool{}
	for _, p := range positions {
		if seen[p.ConceptID] {
			t.Errorf("duplicate position for %q", p.ConceptID)
		}
		seen[p.ConceptID] = true
		for _, v := range []float64{p.X, p.Y, p.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite coordinate for %q", p.ConceptID)
			}
		}
		if p.ClusterID == "" {
			t.Errorf("missing cluster id for %q", p.ConceptID)
		}
	}
}

func TestProceduralLayoutCompleteAndFinite(t *testing.T) {
	store := storeOf(t, 60)
	engine := NewEngine(testLayoutConfig(config.StrategyProcedural, 1))
	positions, err := engine.Layout(store, nil)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	checkComplete(t, store, positions)
}

func TestProceduralLayoutWithinHaloRadius(t *testing.T) {
	store := storeOf(t, 200)
	cfg := testLayoutConfig(config.StrategyProcedural, 3)
	engine := NewEngine(cfg)
	positions, err := engine.Layout(store, nil)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	for _, p := range positions {
		r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
		if r > cfg.HaloRadius+1e-9 {
			t.Errorf("concept %q at radius %v, beyond halo %v", p.ConceptID, r, cfg.HaloRadius)
		}
	}
}

func TestProceduralLayoutDeterministicWithSeed(t *testing.T) {
	store := storeOf(t, 40)
	a, err := NewEngine(testLayoutConfig(config.StrategyProcedural, 99)).Layout(store, nil)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	b, err := NewEngine(testLayoutConfig(config.StrategyProcedural, 99)).Layout(store, nil)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("position %d differs across identically seeded runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSingleNodeWithinHalo(t *testing.T) {
	store := storeOf(t, 1)
	cfg := testLayoutConfig(config.StrategyProcedural, 5)
	positions, err := NewEngine(cfg).Layout(store, nil)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	p := positions[0]
	r := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
	if r > cfg.HaloRadius {
		t.Errorf("single node at %v exceeds halo radius %v", r, cfg.HaloRadius)
	}
}

func TestForceLayoutCompleteAndFinite(t *testing.T) {
	store := storeOf(t, 30)
	edges := []models.Edge{
		models.NewEdge("c000", "c001", 0.9, models.EdgeTypeSemantic),
		models.NewEdge("c001", "c002", 0.8, models.EdgeTypeSemantic),
		models.NewEdge("c010", "c020", 0.7, models.EdgeTypeSemantic),
	}
	positions, err := NewEngine(testLayoutConfig(config.StrategyForce, 2)).Layout(store, edges)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	checkComplete(t, store, positions)
}

func TestForceLayoutEdgelessGraph(t *testing.T) {
	// Pure repulsion + gravity is well-defined; an empty edge set must work.
	store := storeOf(t, 15)
	positions, err := NewEngine(testLayoutConfig(config.StrategyForce, 4)).Layout(store, nil)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	checkComplete(t, store, positions)
}

func TestForceLayoutDeterministicWithSeed(t *testing.T) {
	store := storeOf(t, 25)
	edges := []models.Edge{models.NewEdge("c000", "c024", 0.9, models.EdgeTypeSemantic)}
	a, err := NewEngine(testLayoutConfig(config.StrategyForce, 77)).Layout(store, edges)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	b, err := NewEngine(testLayoutConfig(config.StrategyForce, 77)).Layout(store, edges)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	for i := range a {
		if math.Abs(a[i].X-b[i].X) > 1e-9 || math.Abs(a[i].Y-b[i].Y) > 1e-9 || math.Abs(a[i].Z-b[i].Z) > 1e-9 {
			t.Fatalf("position %d differs across identically seeded runs", i)
		}
	}
}

func TestForceLayoutZBandsByCategory(t *testing.T) {
	store := storeOf(t, 40)
	cfg := testLayoutConfig(config.StrategyForce, 6)
	positions, err := NewEngine(cfg).Layout(store, nil)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	for i, p := range positions {
		base := cfg.CategoryZ[store.CategoryAt(i)]
		if math.Abs(p.Z-base) > zJitter {
			t.Errorf("concept %q z=%v outside band %v±%v", p.ConceptID, p.Z, base, zJitter)
		}
	}
}

func TestHybridLayout(t *testing.T) {
	store := storeOf(t, 20)
	edges := []models.Edge{models.NewEdge("c000", "c001", 0.95, models.EdgeTypeSemantic)}
	positions, err := NewEngine(testLayoutConfig(config.StrategyHybrid, 8)).Layout(store, edges)
	if err != nil {
		t.Fatalf("Layout error: %v", err)
	}
	checkComplete(t, store, positions)
}

func TestUnknownStrategyRejected(t *testing.T) {
	store := storeOf(t, 2)
	_, err := NewEngine(testLayoutConfig("spiral", 1)).Layout(store, nil)
	if err == nil {
		t.Fatal("unknown strategy must be rejected")
	}
}

func TestBarnesHutApproximatesExactRepulsion(t *testing.T) {
	// Compare tree-based repulsion against the exact sum for a small cloud.
	xs := []float64{0, 10, -5, 3, 7, -9, 2, 40}
	ys := []float64{0, -3, 8, 12, -7, 1, 5, 40}
	degree := make([]float64, len(xs))
	tree := buildQuadtree(xs, ys, degree)

	for i := range xs {
		var ex, ey float64
		for j := range xs {
			if i == j {
				continue
			}
			dx := xs[i] - xs[j]
			dy := ys[i] - ys[j]
			dist := math.Hypot(dx, dy)
			f := repulsionScale / dist
			ex += f * dx / dist
			ey += f * dy / dist
		}
		fx, fy := tree.repulsion(xs[i], ys[i], 0, 0.5)
		if math.Hypot(fx-ex, fy-ey) > 0.25*math.Hypot(ex, ey)+1e-6 {
			t.Errorf("point %d: tree force (%v,%v) too far from exact (%v,%v)", i, fx, fy, ex, ey)
		}
	}
}

func TestQuadtreeCoincidentPoints(t *testing.T) {
	xs := []float64{1, 1, 1}
	ys := []float64{2, 2, 2}
	tree := buildQuadtree(xs, ys, []float64{0, 0, 0})
	fx, fy := tree.repulsion(1, 2, 0, barnesHutTheta)
	if math.IsNaN(fx) || math.IsNaN(fy) {
		t.Fatal("coincident points must not produce NaN forces")
	}
}
