package retriever

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// PostgresRetriever delegates similarity search to a pgvector-backed index.
// Unlike the local backend it may return fewer than topK passages: the
// server-side similarity threshold filters out weak matches, and an empty
// result set is a valid answer, not a failure.
type PostgresRetriever struct {
	index  *vector.PostgresIndex
	logger *zap.Logger
}

// NewPostgresRetriever wraps a remote index.
func NewPostgresRetriever(index *vector.PostgresIndex, logger *zap.Logger) (*PostgresRetriever, error) {
	if index == nil {
		return nil, vector.NewError(vector.KindInvalidConfiguration, "postgres index is required", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresRetriever{index: index, logger: logger}, nil
}

// Search returns between 0 and topK passages above the configured threshold.
func (r *PostgresRetriever) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]*models.ScoredPassage, error) {
	hits, err := r.index.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, err
	}
	results := make([]*models.ScoredPassage, len(hits))
	for i, h := range hits {
		if h.Passage.Source == "" {
			h.Passage.Source = fmt.Sprintf("Page %d", h.Passage.PageNumber)
		}
		results[i] = &models.ScoredPassage{
			Passage:  h.Passage,
			Score:    h.Score,
			Position: h.Position,
		}
	}
	return results, nil
}

// FormatContext renders passages for the generation prompt.
func (r *PostgresRetriever) FormatContext(docs []*models.ScoredPassage) string {
	return FormatContext(docs)
}

// Count returns the number of passages stored remotely.
func (r *PostgresRetriever) Count(ctx context.Context) (int64, error) {
	return r.index.Count(ctx)
}

// Mode identifies the backend.
func (r *PostgresRetriever) Mode() string {
	return ModePostgres
}
