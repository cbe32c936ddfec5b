// Package vector provides vector indexes and similarity search over passage embeddings.
package vector

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// Result is a single similarity hit. MemoryIndex hits identify the passage by
// Position (the caller owns the parallel passage slice); PostgresIndex hits
// carry the Passage row fetched from the store.
type Result struct {
	Position int
	Score    float64
	Passage  *models.Passage
}

// VectorIndex is the capability shared by the two index backends.
// Search is read-only, safe for concurrent use, and returns results in
// non-increasing score order. Backend-specific parameters (similarity
// threshold, query timeout) are fixed at construction so that the search
// contract stays uniform.
type VectorIndex interface {
	Search(ctx context.Context, query []float32, topK int) ([]Result, error)
	Dimensions() int
}

// Squeeze reduces a batch of exactly one query vector to the single vector.
// Embedding clients return batches; search takes one query at a time.
func Squeeze(batch [][]float32) ([]float32, error) {
	if len(batch) != 1 {
		return nil, NewError(KindDimensionMismatch, "expected a batch of exactly one query vector", nil)
	}
	return batch[0], nil
}
