package models

import "time"

// Rebuild states, in pipeline order.
const (
	RebuildStatePending    = "pending"
	RebuildStateLoading    = "loading"
	RebuildStateSimilarity = "similarity"
	RebuildStateReducing   = "reducing"
	RebuildStateLayout     = "layout"
	RebuildStatePersisting = "persisting"
	RebuildStateComplete   = "complete"
	RebuildStateError      = "error"
)

// RebuildStatus tracks the progress of the most recent graph rebuild.
type RebuildStatus struct {
	State          string    `json:"state" db:"state"`
	TotalConcepts  int       `json:"total_concepts" db:"total_concepts"`
	TotalEdges     int       `json:"total_edges" db:"total_edges"`
	TotalPositions int       `json:"total_positions" db:"total_positions"`
	ErrorMessage   string    `json:"error_message,omitempty" db:"error_message"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
