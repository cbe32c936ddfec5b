// Package models defines core data structures for passages, queries, and answers.
package models

import "time"

// Passage is one retrievable unit of text: a chunk of a source document with
// its page provenance and chunk statistics. Passages are created once during
// ingestion and are immutable for the lifetime of an index.
type Passage struct {
	// ID is the persisted primary key in postgres mode; 0 for snapshot-loaded
	// passages, whose identity is their position in the index.
	ID         int64   `json:"id,omitempty" db:"id"`
	Content    string  `json:"content" db:"content"`
	PageNumber int     `json:"page_number" db:"page_number"`
	Source     string  `json:"source,omitempty"`
	CharCount  int     `json:"chunk_char_count,omitempty" db:"chunk_char_count"`
	WordCount  int     `json:"chunk_word_count,omitempty" db:"chunk_word_count"`
	TokenCount float64 `json:"chunk_token_count,omitempty" db:"chunk_token_count"`
}

// ScoredPassage is a Passage plus its similarity score for one query, and the
// position it occupied in the index (so callers can build citations).
// Produced transiently per query, never persisted.
type ScoredPassage struct {
	Passage  *Passage `json:"passage"`
	Score    float64  `json:"score"`
	Position int      `json:"position"`
}

// PageText is the per-page output of document extraction, the input to chunking.
type PageText struct {
	PageNumber int
	Text       string
}

// IngestedDocument is a catalog record for one ingested source document.
type IngestedDocument struct {
	ID         string    `json:"id" db:"id"`
	Path       string    `json:"path" db:"path"`
	Title      string    `json:"title" db:"title"`
	Pages      int       `json:"pages" db:"pages"`
	Chunks     int       `json:"chunks" db:"chunks"`
	IngestedAt time.Time `json:"ingested_at" db:"ingested_at"`
}
