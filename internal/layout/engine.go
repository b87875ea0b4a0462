// Package layout computes 3D positions for concepts, either procedurally
// (galaxy density bands) or by 2D force relaxation over the graph topology.
package layout

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/lynxverse/stellar/internal/config"
	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/vector"
	"github.com/lynxverse/stellar/pkg/utils"
)

// Engine computes positions with one of the configured strategies.
//
// Determinism: with an explicit seed the procedural strategy is fully
// reproducible. The force strategy is also reproducible because its RNG is
// seeded from the same value and iteration order is the store's ascending-id
// order; both conditions are required and both are pinned here.
type Engine struct {
	cfg    *config.LayoutConfig
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for layout diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a layout engine for the given configuration.
func NewEngine(cfg *config.LayoutConfig, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// seed returns the configured seed, or a time-based one when unset.
func (e *Engine) seed() int64 {
	if e.cfg.Seed != nil {
		return *e.cfg.Seed
	}
	return time.Now().UnixNano()
}

// Layout produces exactly one position per concept in the store. The force
// and hybrid strategies consume edges; procedural ignores them. Coordinates
// are guaranteed finite.
func (e *Engine) Layout(store *vector.Store, edges []models.Edge) ([]models.Position, error) {
	seed := e.seed()
	rng := rand.New(rand.NewSource(seed))

	var positions []models.Position
	switch e.cfg.Strategy {
	case config.StrategyProcedural, "":
		positions = e.proceduralLayout(store, rng)
	case config.StrategyForce:
		positions = e.forceLayout(store, edges, rng, false)
	case config.StrategyHybrid:
		positions = e.forceLayout(store, edges, rng, true)
	default:
		return nil, fmt.Errorf("%w: unknown layout strategy %q", models.ErrInvalidInput, e.cfg.Strategy)
	}

	for i := range positions {
		p := &positions[i]
		if !utils.IsFinite(p.X) || !utils.IsFinite(p.Y) || !utils.IsFinite(p.Z) {
			return nil, fmt.Errorf("non-finite coordinate for concept %q", p.ConceptID)
		}
	}
	if e.logger != nil {
		e.logger.Debug("layout complete",
			zap.String("strategy", e.cfg.Strategy),
			zap.Int("positions", len(positions)),
			zap.Int64("seed", seed))
	}
	return positions, nil
}

// categoryZ returns the base z level for a category, falling back to the
// General band when the category has no configured level.
func (e *Engine) categoryZ(category string) float64 {
	if z, ok := e.cfg.CategoryZ[category]; ok {
		return z
	}
	if z, ok := e.cfg.CategoryZ[models.CategoryGeneral]; ok {
		return z
	}
	return 0
}

// categoryCenter returns the configured offset vector for a category, or zero.
func (e *Engine) categoryCenter(category string) [3]float64 {
	if c, ok := e.cfg.CategoryCenters[category]; ok {
		return c
	}
	return [3]float64{}
}
