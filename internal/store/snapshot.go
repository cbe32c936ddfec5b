// Package store persists passages and their embeddings: a CSV snapshot for
// local mode, a pgvector-backed postgres store for remote mode, and a SQLite
// catalog of ingested documents.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// snapshotHeader is the fixed CSV column layout of a snapshot file.
var snapshotHeader = []string{
	"sentence_chunk",
	"page_number",
	"chunk_char_count",
	"chunk_word_count",
	"chunk_token_count",
	"embedding",
}

// LoadSnapshot reads a snapshot CSV and returns passages with their
// embeddings, in file order. All embeddings must share one dimension.
func LoadSnapshot(path string) ([]*models.Passage, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(snapshotHeader)

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, nil, err
	}

	var (
		passages   []*models.Passage
		embeddings [][]float32
		dimensions int
		line       = 1
	)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read snapshot row %d: %w", line, err)
		}
		line++

		passage, embedding, err := parseRecord(record)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot row %d: %w", line, err)
		}
		if dimensions == 0 {
			dimensions = len(embedding)
		} else if len(embedding) != dimensions {
			return nil, nil, vector.NewError(vector.KindDimensionMismatch,
				fmt.Sprintf("snapshot row %d has %d dimensions, expected %d", line, len(embedding), dimensions), nil)
		}
		passages = append(passages, passage)
		embeddings = append(embeddings, embedding)
	}
	return passages, embeddings, nil
}

// SaveSnapshot writes passages and embeddings to a snapshot CSV. The file is
// written to a temp sibling and renamed so readers never see a partial file.
func SaveSnapshot(path string, passages []*models.Passage, embeddings [][]float32) error {
	if len(passages) != len(embeddings) {
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("passage count %d does not match embedding count %d", len(passages), len(embeddings)), nil)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(snapshotHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for i, p := range passages {
		record := []string{
			p.Content,
			strconv.Itoa(p.PageNumber),
			strconv.Itoa(p.CharCount),
			strconv.Itoa(p.WordCount),
			strconv.FormatFloat(p.TokenCount, 'g', -1, 64),
			vector.FormatVector(embeddings[i]),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write snapshot row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func validateHeader(header []string) error {
	if len(header) != len(snapshotHeader) {
		return fmt.Errorf("snapshot header has %d columns, expected %d", len(header), len(snapshotHeader))
	}
	for i, col := range snapshotHeader {
		if header[i] != col {
			return fmt.Errorf("snapshot header column %d is %q, expected %q", i, header[i], col)
		}
	}
	return nil
}

func parseRecord(record []string) (*models.Passage, []float32, error) {
	pageNumber, err := strconv.Atoi(record[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid page_number %q: %w", record[1], err)
	}
	charCount, err := strconv.Atoi(record[2])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chunk_char_count %q: %w", record[2], err)
	}
	wordCount, err := strconv.Atoi(record[3])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chunk_word_count %q: %w", record[3], err)
	}
	tokenCount, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid chunk_token_count %q: %w", record[4], err)
	}
	embedding, err := vector.ParseVector(record[5])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid embedding: %w", err)
	}

	return &models.Passage{
		Content:    record[0],
		PageNumber: pageNumber,
		CharCount:  charCount,
		WordCount:  wordCount,
		TokenCount: tokenCount,
	}, embedding, nil
}
