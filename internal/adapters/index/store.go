// Package index defines the exemplar similarity store interface and errors.
package index

import (
	"context"

	"github.com/symptomly/triage/internal/domain/types"
)

// Exemplar is a reference phrase with its assigned risk band.
type Exemplar struct {
	Text string          `json:"text"`
	Risk types.RiskLevel `json:"risk"`
}

// Match pairs the closest exemplar with its cosine similarity to the query.
type Match struct {
	Exemplar   Exemplar
	Similarity float64
}

// Store provides read access to the exemplar embedding index.
type Store interface {
	// Nearest returns the single closest exemplar to the query vector.
	// Returns ErrUnavailable when the index could not be built and
	// ErrEmptyIndex when it holds no exemplars.
	Nearest(ctx context.Context, vec []float32) (Match, error)

	// Count returns the number of exemplars in the index.
	Count(ctx context.Context) int

	// Ready reports whether the index has been built successfully.
	Ready() bool
}
