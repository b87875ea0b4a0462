package vector

import (
	"math"

	"github.com/lynxverse/stellar/pkg/utils"
)

// Norm returns the L2 norm of a vector.
func Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of two equal-length vectors.
func Dot(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero-norm vector has similarity 0 with everything; this avoids NaN while
// keeping degenerate vectors below any useful threshold.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return CosineWithNorms(a, b, na, nb)
}

// CosineWithNorms is Cosine with precomputed norms, used in the dense
// pairwise pass where norms are computed once per vector. The result is
// clamped to [-1, 1]; float rounding can push identical vectors slightly
// past 1, which would leak out as an edge weight above the bound.
func CosineWithNorms(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	return utils.Clamp(Dot(a, b)/(na*nb), -1, 1)
}
