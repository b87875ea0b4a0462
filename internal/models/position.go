package models

import "strings"

// Position is a concept's 3D coordinate for visualization. Exactly one position
// exists per known concept after a successful layout run.
type Position struct {
	ConceptID string  `json:"concept_id" db:"concept_id"`
	X         float64 `json:"x" db:"x"`
	Y         float64 `json:"y" db:"y"`
	Z         float64 `json:"z" db:"z"`
	ClusterID string  `json:"cluster_id,omitempty" db:"cluster_id"`
}

// ClusterID derives a deterministic cluster identifier from a category label:
// lowercased with spaces replaced by underscores.
func ClusterID(category string) string {
	if category == "" {
		category = CategoryGeneral
	}
	return strings.ToLower(strings.ReplaceAll(category, " ", "_"))
}
