package layout

import (
	"math"
	"math/rand"

	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/vector"
)

// coreInnerRadius keeps procedural points off the exact origin.
const coreInnerRadius = 10.0

// categoryJitterFraction bounds the jitter applied around a category center,
// as a fraction of the core radius.
const categoryJitterFraction = 0.5

// proceduralLayout places every concept on a radially stratified galaxy
// profile: a uniform direction on the sphere (inverse-CDF polar angle, so the
// poles are not over-dense) and a radius drawn from the core, main, or halo
// band. Draws from the rng happen in ascending-id order, so a seed pins the
// whole layout.
func (e *Engine) proceduralLayout(store *vector.Store, rng *rand.Rand) []models.Position {
	positions := make([]models.Position, 0, store.Len())
	for i := 0; i < store.Len(); i++ {
		category := store.CategoryAt(i)
		x, y, z := e.samplePoint(rng, category)
		positions = append(positions, models.Position{
			ConceptID: store.IDAt(i),
			X:         x,
			Y:         y,
			Z:         z,
			ClusterID: models.ClusterID(category),
		})
	}
	return positions
}

// samplePoint draws one galaxy-profile point, biased toward the category's
// configured center with bounded jitter.
func (e *Engine) samplePoint(rng *rand.Rand, category string) (x, y, z float64) {
	u := rng.Float64()
	v := rng.Float64()
	theta := 2 * math.Pi * u
	phi := math.Acos(2*v - 1)

	radius := e.sampleRadius(rng)

	x = radius * math.Sin(phi) * math.Cos(theta)
	y = radius * math.Sin(phi) * math.Sin(theta)
	z = radius * math.Cos(phi)

	center := e.categoryCenter(category)
	if center != ([3]float64{}) {
		jitter := e.cfg.CoreRadius * categoryJitterFraction
		x += center[0] + (rng.Float64()*2-1)*jitter
		y += center[1] + (rng.Float64()*2-1)*jitter
		z += center[2] + (rng.Float64()*2-1)*jitter
	}
	return x, y, z
}

// sampleRadius picks a density band with a single uniform draw, then a radius
// within it. Core is dense and small, main holds the bulk, halo is sparse.
func (e *Engine) sampleRadius(rng *rand.Rand) float64 {
	band := rng.Float64()
	r := rng.Float64()
	switch {
	case band < e.cfg.CoreFraction:
		return coreInnerRadius + r*(e.cfg.CoreRadius-coreInnerRadius)
	case band < e.cfg.CoreFraction+e.cfg.MainFraction:
		return e.cfg.CoreRadius + r*(e.cfg.GalaxyRadius-e.cfg.CoreRadius)
	default:
		return e.cfg.GalaxyRadius + r*(e.cfg.HaloRadius-e.cfg.GalaxyRadius)
	}
}
