package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// insertBatchSize is the number of passages inserted per transaction.
const insertBatchSize = 100

// PostgresStore writes passages and embeddings to a pgvector-enabled
// postgres database and owns the match_passages similarity function.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenPostgres connects to databaseURL and verifies the connection.
func OpenPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, vector.NewError(vector.KindInvalidConfiguration, "database URL is required", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, vector.NewError(vector.KindIndexUnavailable, "postgres ping failed", err)
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

// NewPostgresStore wraps an existing connection, mainly for tests.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// DB exposes the underlying connection for the retriever layer.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the vector extension, the passages table, its ANN
// index, and the match_passages function for the given embedding dimension.
func (s *PostgresStore) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("dimensions must be positive, got %d", dimensions), nil)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS passages (
			id bigserial PRIMARY KEY,
			content text NOT NULL,
			page_number integer NOT NULL DEFAULT 0,
			chunk_char_count integer NOT NULL DEFAULT 0,
			chunk_word_count integer NOT NULL DEFAULT 0,
			chunk_token_count double precision NOT NULL DEFAULT 0,
			embedding vector(%d) NOT NULL
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS passages_embedding_idx
			ON passages USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION match_passages(
			query_embedding vector(%d),
			match_threshold double precision,
			match_count integer
		)
		RETURNS TABLE (
			id bigint,
			content text,
			page_number integer,
			chunk_char_count integer,
			chunk_word_count integer,
			chunk_token_count double precision,
			similarity double precision
		)
		LANGUAGE sql STABLE
		AS $$
			SELECT
				p.id,
				p.content,
				p.page_number,
				p.chunk_char_count,
				p.chunk_word_count,
				p.chunk_token_count,
				1 - (p.embedding <=> query_embedding) AS similarity
			FROM passages p
			WHERE 1 - (p.embedding <=> query_embedding) > match_threshold
			ORDER BY p.embedding <=> query_embedding
			LIMIT match_count;
		$$`, dimensions),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return vector.NewError(vector.KindIndexUnavailable, "ensure schema failed", err)
		}
	}
	s.logger.Info("postgres schema ready", zap.Int("dimensions", dimensions))
	return nil
}

// InsertPassages stores passages with their embeddings, batching inserts so
// one failing batch does not roll back the whole ingest.
func (s *PostgresStore) InsertPassages(ctx context.Context, passages []*models.Passage, embeddings [][]float32) error {
	if len(passages) != len(embeddings) {
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("passage count %d does not match embedding count %d", len(passages), len(embeddings)), nil)
	}

	for start := 0; start < len(passages); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		if err := s.insertBatch(ctx, passages[start:end], embeddings[start:end]); err != nil {
			return fmt.Errorf("insert batch starting at %d: %w", start, err)
		}
		s.logger.Debug("passage batch inserted", zap.Int("from", start), zap.Int("to", end))
	}
	return nil
}

func (s *PostgresStore) insertBatch(ctx context.Context, passages []*models.Passage, embeddings [][]float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO passages (content, page_number, chunk_char_count, chunk_word_count, chunk_token_count, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6::vector)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range passages {
		if _, err := stmt.ExecContext(ctx,
			p.Content, p.PageNumber, p.CharCount, p.WordCount, p.TokenCount,
			vector.FormatVector(embeddings[i]),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountPassages returns the number of stored passages.
func (s *PostgresStore) CountPassages(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM passages`).Scan(&count); err != nil {
		return 0, vector.NewError(vector.KindIndexUnavailable, "count passages failed", err)
	}
	return count, nil
}

// DeleteAllPassages clears the passages table, used before a full re-ingest.
func (s *PostgresStore) DeleteAllPassages(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM passages`); err != nil {
		return vector.NewError(vector.KindIndexUnavailable, "delete passages failed", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
