package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/store"
)

// embedBatchSize is the number of chunks embedded per API call.
const embedBatchSize = 100

// Sink receives the embedded passages of one ingest run.
type Sink interface {
	Store(ctx context.Context, passages []*models.Passage, embeddings [][]float32) error
}

// SnapshotSink appends passages to a CSV snapshot file.
type SnapshotSink struct {
	Path string
}

// Store merges the new passages with any existing snapshot and rewrites it.
func (s *SnapshotSink) Store(ctx context.Context, passages []*models.Passage, embeddings [][]float32) error {
	existing, existingEmb, err := store.LoadSnapshot(s.Path)
	if err == nil {
		passages = append(existing, passages...)
		embeddings = append(existingEmb, embeddings...)
	}
	return store.SaveSnapshot(s.Path, passages, embeddings)
}

// PostgresSink inserts passages into the pgvector store.
type PostgresSink struct {
	DB *store.PostgresStore
}

func (s *PostgresSink) Store(ctx context.Context, passages []*models.Passage, embeddings [][]float32) error {
	return s.DB.InsertPassages(ctx, passages, embeddings)
}

// Ingestor runs the extract -> chunk -> embed -> persist pipeline for one
// document at a time.
type Ingestor struct {
	extractor *extract.Extractor
	chunker   *Chunker
	embedder  embedding.Embedder
	sink      Sink
	catalog   *store.Catalog
	logger    *zap.Logger
}

// NewIngestor wires an ingestion pipeline. catalog may be nil, in which case
// no document records are kept.
func NewIngestor(chunker *Chunker, embedder embedding.Embedder, sink Sink, catalog *store.Catalog, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		extractor: extract.NewExtractor(),
		chunker:   chunker,
		embedder:  embedder,
		sink:      sink,
		catalog:   catalog,
		logger:    logger,
	}
}

// Ingest processes the document at path and returns its catalog record.
func (ing *Ingestor) Ingest(ctx context.Context, path string) (*models.IngestedDocument, error) {
	start := time.Now()

	pages, err := ing.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	passages := ing.chunker.Chunk(pages)
	if len(passages) == 0 {
		return nil, fmt.Errorf("no usable chunks in %s", path)
	}

	embeddings, err := ing.embedAll(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", path, err)
	}

	if err := ing.sink.Store(ctx, passages, embeddings); err != nil {
		return nil, fmt.Errorf("store %s: %w", path, err)
	}

	doc := &models.IngestedDocument{
		ID:         uuid.New().String(),
		Path:       path,
		Title:      filepath.Base(path),
		Pages:      len(pages),
		Chunks:     len(passages),
		IngestedAt: time.Now(),
	}
	if ing.catalog != nil {
		if err := ing.catalog.Record(ctx, doc); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	ing.logger.Info("document ingested",
		zap.String("path", path),
		zap.Int("pages", doc.Pages),
		zap.Int("chunks", doc.Chunks),
		zap.Duration("took", time.Since(start)))
	return doc, nil
}

func (ing *Ingestor) embedAll(ctx context.Context, passages []*models.Passage) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(passages))
	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		texts := make([]string, 0, end-start)
		for _, p := range passages[start:end] {
			texts = append(texts, p.Content)
		}
		batch, err := ing.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch starting at %d: %w", start, err)
		}
		embeddings = append(embeddings, batch...)
		ing.logger.Debug("chunk batch embedded", zap.Int("from", start), zap.Int("to", end))
	}
	return embeddings, nil
}
