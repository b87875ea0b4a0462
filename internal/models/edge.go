package models

// EdgeType distinguishes independent edge namespaces. At most one edge exists
// per unordered concept pair per type.
type EdgeType string

const (
	// EdgeTypeSemantic connects concepts by embedding cosine similarity.
	EdgeTypeSemantic EdgeType = "semantic"
	// EdgeTypeCategory connects sampled same-category concepts at a fixed low weight.
	EdgeTypeCategory EdgeType = "category"
)

// CandidateEdge is a directed nearest-neighbor nomination produced during
// similarity search. Candidates are transient; they never reach storage.
type CandidateEdge struct {
	From       string
	To         string
	Similarity float64
}

// Edge is an undirected weighted edge in canonical form: Source < Target under
// string ordering, so the two directions a kNN search can produce collapse to one.
type Edge struct {
	Source string   `json:"source_id" db:"source_id"`
	Target string   `json:"target_id" db:"target_id"`
	Weight float64  `json:"weight" db:"weight"`
	Type   EdgeType `json:"edge_type" db:"edge_type"`
}

// NewEdge returns the canonical edge for the unordered pair {a, b}.
func NewEdge(a, b string, weight float64, edgeType EdgeType) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{Source: a, Target: b, Weight: weight, Type: edgeType}
}

// Key returns a unique key for the canonical pair within the edge's type.
func (e Edge) Key() string {
	return e.Source + "\x00" + e.Target + "\x00" + string(e.Type)
}
