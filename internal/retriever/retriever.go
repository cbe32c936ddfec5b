// Package retriever presents one uniform retrieval contract over the two
// vector index backends and formats retrieved passages for generation.
package retriever

import (
	"context"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// NoContextSentinel is returned by FormatContext for an empty result set.
// The generator must never receive an empty context string silently.
const NoContextSentinel = "No relevant context found."

// Retriever returns the passages most similar to a query embedding,
// regardless of which index backend is active.
type Retriever interface {
	// Search returns up to topK passages in non-increasing score order.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]*models.ScoredPassage, error)
	// FormatContext renders passages as bullet items for the generation prompt.
	FormatContext(docs []*models.ScoredPassage) string
	// Count returns the number of passages the retriever can search over.
	Count(ctx context.Context) (int64, error)
	// Mode identifies the active backend ("local" or "postgres").
	Mode() string
}

// FormatContext renders each passage as one "- " bullet joined by newlines.
// An empty result set yields NoContextSentinel, never the empty string.
func FormatContext(docs []*models.ScoredPassage) string {
	if len(docs) == 0 {
		return NoContextSentinel
	}
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(d.Passage.Content)
	}
	return b.String()
}
