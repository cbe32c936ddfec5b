package llm

import (
	"context"
	"fmt"
)

// MockGenerator echoes the query and context for tests and dry runs.
type MockGenerator struct{}

// NewMockGenerator returns a generator that fabricates no content.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a canned answer referencing the inputs.
func (g *MockGenerator) Generate(ctx context.Context, query, contextText string) (string, error) {
	return fmt.Sprintf("[mock answer to %q based on %d bytes of context]", query, len(contextText)), nil
}

// Model returns the mock model name.
func (g *MockGenerator) Model() string {
	return "mock"
}

// Close is a no-op.
func (g *MockGenerator) Close() error {
	return nil
}
