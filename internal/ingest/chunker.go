// Package ingest turns source documents into embedded, persisted passages.
package ingest

import (
	"strings"
	"unicode"

	"github.com/hyperjump/kotae/internal/models"
)

// Chunker groups sentences into fixed-size passages and drops fragments too
// short to be worth retrieving.
type Chunker struct {
	// SentencesPerChunk is how many sentences make one passage.
	SentencesPerChunk int
	// MinTokenLength filters out chunks whose estimated token count is below
	// this value (page headers, stray footnotes).
	MinTokenLength float64
}

// NewChunker returns a chunker with the given settings. Non-positive values
// fall back to defaults (10 sentences, 30 tokens).
func NewChunker(sentencesPerChunk int, minTokenLength float64) *Chunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 10
	}
	if minTokenLength <= 0 {
		minTokenLength = 30
	}
	return &Chunker{SentencesPerChunk: sentencesPerChunk, MinTokenLength: minTokenLength}
}

// Chunk splits each page into sentences, groups them into passages, and
// attaches chunk statistics. Chunks never span page boundaries.
func (c *Chunker) Chunk(pages []models.PageText) []*models.Passage {
	var passages []*models.Passage
	for _, page := range pages {
		sentences := SplitSentences(page.Text)
		for start := 0; start < len(sentences); start += c.SentencesPerChunk {
			end := start + c.SentencesPerChunk
			if end > len(sentences) {
				end = len(sentences)
			}
			content := joinSentences(sentences[start:end])
			if content == "" {
				continue
			}
			p := &models.Passage{
				Content:    content,
				PageNumber: page.PageNumber,
				CharCount:  len(content),
				WordCount:  len(strings.Fields(content)),
				TokenCount: float64(len(content)) / 4,
			}
			if p.TokenCount < c.MinTokenLength {
				continue
			}
			passages = append(passages, p)
		}
	}
	return passages
}

// SplitSentences breaks text into sentences on ., !, ? followed by
// whitespace. Abbreviation handling is deliberately naive; retrieval quality
// does not hinge on exact sentence boundaries.
func SplitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	runes := []rune(strings.TrimSpace(text))
	for i, r := range runes {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func joinSentences(sentences []string) string {
	return strings.TrimSpace(strings.Join(sentences, " "))
}
