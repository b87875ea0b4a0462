package layout

import (
	"math"
	"math/rand"

	"github.com/lynxverse/stellar/internal/models"
	"github.com/lynxverse/stellar/internal/vector"
)

// Force relaxation tuning. Values follow common ForceAtlas2-style defaults.
const (
	repulsionScale = 2.0
	gravity        = 1.0
	barnesHutTheta = 1.2
	zJitter        = 5.0
	minDistance    = 0.01
)

// forceLayout runs a 2D force relaxation and projects the result into layered
// 3D space: the simulation itself never touches z, which is assigned per
// category afterwards. When fromProcedural is true the initial coordinates
// come from the procedural galaxy layout (the hybrid strategy); otherwise
// from a seeded random square.
func (e *Engine) forceLayout(store *vector.Store, edges []models.Edge, rng *rand.Rand, fromProcedural bool) []models.Position {
	n := store.Len()
	xs := make([]float64, n)
	ys := make([]float64, n)

	if fromProcedural {
		for i, p := range e.proceduralLayout(store, rng) {
			xs[i] = p.X
			ys[i] = p.Y
		}
	} else {
		for i := 0; i < n; i++ {
			xs[i] = (rng.Float64()*2 - 1) * e.cfg.GalaxyRadius
			ys[i] = (rng.Float64()*2 - 1) * e.cfg.GalaxyRadius
		}
	}

	// Adjacency as index pairs; weight drives attraction strength.
	type link struct {
		a, b   int
		weight float64
	}
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		index[store.IDAt(i)] = i
	}
	links := make([]link, 0, len(edges))
	degree := make([]float64, n)
	for _, edge := range edges {
		a, okA := index[edge.Source]
		b, okB := index[edge.Target]
		if !okA || !okB {
			continue
		}
		links = append(links, link{a: a, b: b, weight: edge.Weight})
		degree[a]++
		degree[b]++
	}

	useTree := n > e.cfg.BarnesHutCutoff
	fx := make([]float64, n)
	fy := make([]float64, n)

	for iter := 0; iter < e.cfg.ForceIterations; iter++ {
		for i := range fx {
			fx[i] = 0
			fy[i] = 0
		}

		// Repulsion: exact all-pairs below the cutoff, Barnes-Hut above it.
		if useTree {
			tree := buildQuadtree(xs, ys, degree)
			for i := 0; i < n; i++ {
				rx, ry := tree.repulsion(xs[i], ys[i], degree[i], barnesHutTheta)
				fx[i] += rx
				fy[i] += ry
			}
		} else {
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					dx := xs[i] - xs[j]
					dy := ys[i] - ys[j]
					dist := math.Hypot(dx, dy)
					if dist < minDistance {
						dist = minDistance
					}
					f := repulsionScale * (degree[i] + 1) * (degree[j] + 1) / dist
					ux, uy := dx/dist, dy/dist
					fx[i] += f * ux
					fy[i] += f * uy
					fx[j] -= f * ux
					fy[j] -= f * uy
				}
			}
		}

		// Attraction along edges, scaled by weight.
		for _, l := range links {
			dx := xs[l.a] - xs[l.b]
			dy := ys[l.a] - ys[l.b]
			dist := math.Hypot(dx, dy)
			if dist < minDistance {
				continue
			}
			f := l.weight * dist
			ux, uy := dx/dist, dy/dist
			fx[l.a] -= f * ux
			fy[l.a] -= f * uy
			fx[l.b] += f * ux
			fy[l.b] += f * uy
		}

		// Gravity toward origin keeps disconnected components from drifting away.
		for i := 0; i < n; i++ {
			dist := math.Hypot(xs[i], ys[i])
			if dist < minDistance {
				continue
			}
			f := gravity * (degree[i] + 1)
			fx[i] -= f * xs[i] / dist
			fy[i] -= f * ys[i] / dist
		}

		// Cooling: displacement cap shrinks linearly to zero.
		temp := e.cfg.GalaxyRadius * 0.1 * (1 - float64(iter)/float64(e.cfg.ForceIterations))
		for i := 0; i < n; i++ {
			disp := math.Hypot(fx[i], fy[i])
			if disp < minDistance {
				continue
			}
			step := math.Min(disp, temp)
			xs[i] += fx[i] / disp * step
			ys[i] += fy[i] / disp * step
		}
	}

	// Normalize the 2D extent to the galaxy radius before scaling, so the
	// output range does not depend on iteration count.
	var maxExtent float64
	for i := 0; i < n; i++ {
		if d := math.Hypot(xs[i], ys[i]); d > maxExtent {
			maxExtent = d
		}
	}
	norm := 1.0
	if maxExtent > 0 {
		norm = e.cfg.GalaxyRadius / maxExtent
	}
	scale := e.cfg.Scale / 100.0

	positions := make([]models.Position, 0, n)
	for i := 0; i < n; i++ {
		category := store.CategoryAt(i)
		z := e.categoryZ(category) + (rng.Float64()*2-1)*zJitter
		positions = append(positions, models.Position{
			ConceptID: store.IDAt(i),
			X:         xs[i] * norm * scale,
			Y:         ys[i] * norm * scale,
			Z:         z,
			ClusterID: models.ClusterID(category),
		})
	}
	return positions
}
