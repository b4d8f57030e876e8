// Package vector defines the records exchanged with the vector search provider.
package vector

import "fmt"

// Vector is one stored embedding with its search metadata.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Validate checks that the vector is storable with the expected dimensionality.
func (v *Vector) Validate(dims int) error {
	if v.ID == "" {
		return fmt.Errorf("vector id is required")
	}
	if len(v.Values) != dims {
		return fmt.Errorf("vector %s: expected %d dimensions, got %d", v.ID, dims, len(v.Values))
	}
	return nil
}

// Progress reports upsert advancement after each batch.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ProgressFunc receives upsert progress. It may be nil.
type ProgressFunc func(Progress)

// Stats describes the vector index.
type Stats struct {
	VectorCount      int `json:"vectorCount"`
	TotalVectorCount int `json:"totalVectorCount"`
}
