package vector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"go.uber.org/zap"
)

// PostgresIndex delegates similarity search to a PostgreSQL database with the
// pgvector extension. The search runs server-side through the match_passages
// stored function, which computes 1 - (embedding <=> query) as similarity,
// keeps rows above the threshold, and returns them ordered by distance
// ascending, capped at the requested count.
//
// Fewer than topK rows, including zero, is a valid result: the collection
// simply does not contain enough sufficiently-similar passages. Transport and
// scan failures surface as index_unavailable and are never collapsed into an
// empty result set.
type PostgresIndex struct {
	db         *sql.DB
	dimensions int
	threshold  float64
	timeout    time.Duration
	logger     *zap.Logger
}

// NewPostgresIndex creates a remote index over db. threshold is the minimum
// similarity applied server-side; timeout bounds each search call (0 disables).
func NewPostgresIndex(db *sql.DB, dimensions int, threshold float64, timeout time.Duration, logger *zap.Logger) (*PostgresIndex, error) {
	if db == nil {
		return nil, NewError(KindInvalidConfiguration, "database connection is required", nil)
	}
	if dimensions <= 0 {
		return nil, NewError(KindInvalidConfiguration, fmt.Sprintf("dimensions must be positive, got %d", dimensions), nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresIndex{
		db:         db,
		dimensions: dimensions,
		threshold:  threshold,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

const matchPassagesQuery = `SELECT id, content, page_number, chunk_char_count, chunk_word_count, chunk_token_count, similarity
FROM match_passages($1::vector, $2, $3)`

// Search invokes the stored function with the query vector, the configured
// similarity threshold, and topK as the result-count cap.
func (p *PostgresIndex) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	if len(query) != p.dimensions {
		return nil, NewError(KindDimensionMismatch,
			fmt.Sprintf("query has dimension %d, index expects %d", len(query), p.dimensions), nil)
	}
	if topK < 1 {
		return nil, NewError(KindInvalidTopK, fmt.Sprintf("top_k must be at least 1, got %d", topK), nil)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	rows, err := p.db.QueryContext(ctx, matchPassagesQuery, FormatVector(query), p.threshold, topK)
	if err != nil {
		return nil, NewError(KindIndexUnavailable, "similarity search query failed", err)
	}
	defer rows.Close()

	results := make([]Result, 0, topK)
	pos := 0
	for rows.Next() {
		var passage models.Passage
		var score float64
		if err := rows.Scan(
			&passage.ID,
			&passage.Content,
			&passage.PageNumber,
			&passage.CharCount,
			&passage.WordCount,
			&passage.TokenCount,
			&score,
		); err != nil {
			return nil, NewError(KindIndexUnavailable, "scan similarity search row", err)
		}
		results = append(results, Result{Position: pos, Score: score, Passage: &passage})
		pos++
	}
	if err := rows.Err(); err != nil {
		return nil, NewError(KindIndexUnavailable, "read similarity search rows", err)
	}
	p.logger.Debug("remote search complete",
		zap.Int("top_k", topK),
		zap.Float64("threshold", p.threshold),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Dimensions returns the embedding dimension.
func (p *PostgresIndex) Dimensions() int {
	return p.dimensions
}

// Count returns the number of passages stored remotely.
func (p *PostgresIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRowContext(ctx, "SELECT count(*) FROM passages").Scan(&n); err != nil {
		return 0, NewError(KindIndexUnavailable, "count passages", err)
	}
	return n, nil
}
