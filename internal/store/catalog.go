package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// Catalog records which source documents have been ingested, in a local
// SQLite database. It is bookkeeping only; passages and embeddings live in
// the snapshot or postgres.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func OpenCatalog(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		title TEXT,
		pages INTEGER NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0,
		ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Record inserts a catalog entry for an ingested document.
func (c *Catalog) Record(ctx context.Context, doc *models.IngestedDocument) error {
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (id, path, title, pages, chunks, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Path, doc.Title, doc.Pages, doc.Chunks, doc.IngestedAt,
	)
	return err
}

// List returns catalog entries, newest first.
func (c *Catalog) List(ctx context.Context) ([]*models.IngestedDocument, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, path, title, pages, chunks, ingested_at
		 FROM documents ORDER BY ingested_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.IngestedDocument
	for rows.Next() {
		var doc models.IngestedDocument
		if err := rows.Scan(&doc.ID, &doc.Path, &doc.Title, &doc.Pages, &doc.Chunks, &doc.IngestedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Count returns the number of cataloged documents.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
