// Package llm generates grounded answers from a query and retrieved context.
package llm

import "context"

// Generator produces an answer for a query given formatted context passages.
// The context string comes from the retriever; the generator treats it as
// opaque text.
type Generator interface {
	Generate(ctx context.Context, query, contextText string) (string, error)
	Model() string
	Close() error
}
