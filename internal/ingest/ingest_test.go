package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/store"
)

type captureSink struct {
	passages   []*models.Passage
	embeddings [][]float32
}

func (s *captureSink) Store(ctx context.Context, passages []*models.Passage, embeddings [][]float32) error {
	s.passages = append(s.passages, passages...)
	s.embeddings = append(s.embeddings, embeddings...)
	return nil
}

func writeDoc(t *testing.T, dir string) string {
	t.Helper()
	sentence := "Protein is one of the three macronutrients the body needs in large amounts. "
	path := filepath.Join(dir, "nutrition.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat(sentence, 15)), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestorEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir)

	catalog, err := store.OpenCatalog(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer catalog.Close()

	sink := &captureSink{}
	embedder := embedding.NewMockEmbedder(8)
	ing := NewIngestor(NewChunker(10, 30), embedder, sink, catalog, zap.NewNop())

	doc, err := ing.Ingest(context.Background(), path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.ID == "" {
		t.Error("document ID should be set")
	}
	if doc.Title != "nutrition.txt" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.Chunks != len(sink.passages) {
		t.Errorf("doc.Chunks = %d, sink got %d", doc.Chunks, len(sink.passages))
	}
	if len(sink.passages) != len(sink.embeddings) {
		t.Fatalf("passages/embeddings mismatch: %d vs %d", len(sink.passages), len(sink.embeddings))
	}
	for _, emb := range sink.embeddings {
		if len(emb) != 8 {
			t.Errorf("embedding dimension = %d, want 8", len(emb))
		}
	}

	count, err := catalog.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("catalog count = %d, want 1", count)
	}
}

func TestIngestorNoUsableChunks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.txt")
	if err := os.WriteFile(path, []byte("Too short."), 0644); err != nil {
		t.Fatal(err)
	}

	ing := NewIngestor(NewChunker(10, 30), embedding.NewMockEmbedder(8), &captureSink{}, nil, zap.NewNop())
	if _, err := ing.Ingest(context.Background(), path); err == nil {
		t.Error("expected error for document with no usable chunks")
	}
}

func TestSnapshotSinkAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.csv")
	sink := &SnapshotSink{Path: path}

	first := []*models.Passage{{Content: "first chunk", PageNumber: 1}}
	if err := sink.Store(context.Background(), first, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("first Store: %v", err)
	}
	second := []*models.Passage{{Content: "second chunk", PageNumber: 2}}
	if err := sink.Store(context.Background(), second, [][]float32{{0, 1}}); err != nil {
		t.Fatalf("second Store: %v", err)
	}

	passages, embeddings, err := store.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(passages) != 2 || len(embeddings) != 2 {
		t.Fatalf("snapshot has %d passages, want 2", len(passages))
	}
	if passages[1].Content != "second chunk" {
		t.Errorf("second passage = %q", passages[1].Content)
	}
}
