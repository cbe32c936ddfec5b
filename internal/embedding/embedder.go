// Package embedding produces vector embeddings for text via a remote
// OpenAI-compatible API, a local ONNX model, or a deterministic mock.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations must return
// vectors of the fixed dimension reported by Dimensions; the retrieval core
// rejects anything else with a dimension_mismatch failure.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
