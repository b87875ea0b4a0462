package layout

import "math"

// quadtree is a Barnes-Hut tree over 2D points with per-point mass
// (degree + 1), used to approximate all-pairs repulsion in O(n log n).
type quadtree struct {
	nodes  []quadNode
	xs, ys []float64
	masses []float64
}

type quadNode struct {
	// Bounds of this cell (square).
	minX, minY, side float64
	// Aggregate mass and center of mass of all points in the cell.
	mass       float64
	comX, comY float64
	// Point index stored in a leaf; -1 when empty or internal.
	point    int
	children [4]int
	leaf     bool
}

// maxDepth stops subdivision for (near-)coincident points; aggregates stay
// correct and their mutual repulsion is handled by the distance clamp.
const maxDepth = 32

// buildQuadtree builds a tree over the points with mass degree[i]+1.
func buildQuadtree(xs, ys, degree []float64) *quadtree {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		minX = math.Min(minX, xs[i])
		minY = math.Min(minY, ys[i])
		maxX = math.Max(maxX, xs[i])
		maxY = math.Max(maxY, ys[i])
	}
	side := math.Max(maxX-minX, maxY-minY)
	if side == 0 {
		side = 1
	}

	t := &quadtree{xs: xs, ys: ys, masses: make([]float64, len(xs))}
	for i := range degree {
		t.masses[i] = degree[i] + 1
	}
	t.newNode(minX, minY, side)
	for i := range xs {
		t.insert(0, i, 0)
	}
	return t
}

func (t *quadtree) newNode(minX, minY, side float64) int {
	t.nodes = append(t.nodes, quadNode{
		minX: minX, minY: minY, side: side,
		point:    -1,
		children: [4]int{-1, -1, -1, -1},
		leaf:     true,
	})
	return len(t.nodes) - 1
}

// insert adds point pi under node ni, updating aggregates on the way down.
func (t *quadtree) insert(ni, pi, depth int) {
	mass := t.masses[pi]
	n := &t.nodes[ni]
	total := n.mass + mass
	n.comX = (n.comX*n.mass + t.xs[pi]*mass) / total
	n.comY = (n.comY*n.mass + t.ys[pi]*mass) / total
	n.mass = total

	if !n.leaf {
		t.insert(t.childFor(ni, t.xs[pi], t.ys[pi]), pi, depth+1)
		return
	}
	if n.point == -1 {
		n.point = pi
		return
	}
	if depth >= maxDepth {
		return
	}
	// Split: push the resident point down, then the new one. The resident's
	// mass is already in this node's aggregates, so it descends from the
	// children, not from here.
	resident := n.point
	n.point = -1
	n.leaf = false
	t.insert(t.childFor(ni, t.xs[resident], t.ys[resident]), resident, depth+1)
	t.insert(t.childFor(ni, t.xs[pi], t.ys[pi]), pi, depth+1)
}

// childFor returns (creating if needed) the child quadrant containing (x, y).
func (t *quadtree) childFor(ni int, x, y float64) int {
	n := t.nodes[ni]
	half := n.side / 2
	midX := n.minX + half
	midY := n.minY + half
	quadrant := 0
	minX, minY := n.minX, n.minY
	if x > midX {
		quadrant |= 1
		minX = midX
	}
	if y > midY {
		quadrant |= 2
		minY = midY
	}
	if t.nodes[ni].children[quadrant] == -1 {
		ci := t.newNode(minX, minY, half)
		t.nodes[ni].children[quadrant] = ci
	}
	return t.nodes[ni].children[quadrant]
}

// repulsion returns the approximate repulsive force on a point of degree deg
// at (x, y). Cells whose size/distance ratio is below theta are treated as a
// single body at their center of mass. The contribution at the point's own
// location is skipped by the distance clamp.
func (t *quadtree) repulsion(x, y, deg, theta float64) (fx, fy float64) {
	mass := deg + 1
	stack := []int{0}
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[ni]
		if n.mass == 0 {
			continue
		}

		dx := x - n.comX
		dy := y - n.comY
		dist := math.Hypot(dx, dy)

		if n.leaf || (dist > 0 && n.side/dist < theta) {
			if dist < minDistance {
				continue
			}
			f := repulsionScale * mass * n.mass / dist
			fx += f * dx / dist
			fy += f * dy / dist
			continue
		}
		for _, ci := range n.children {
			if ci != -1 {
				stack = append(stack, ci)
			}
		}
	}
	return fx, fy
}
