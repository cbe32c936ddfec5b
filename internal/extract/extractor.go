// Package extract turns source documents into per-page text for chunking.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Extractor extracts page-segmented text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text split into pages.
// PDFs keep their native page boundaries; spreadsheets yield one page per
// sheet; everything else is a single page. Page numbers start at 1.
func (e *Extractor) Extract(path string) ([]models.PageText, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]models.PageText, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return singlePage(extractDOCX(content))
	case ".odt":
		return singlePage(extractODT(content))
	case ".xlsx":
		return extractExcel(content)
	case ".txt", ".md", ".rst", "":
		return singlePage(extractPlain(content))
	default:
		// Unknown extension: treat as plain text
		return singlePage(extractPlain(content))
	}
}

func singlePage(text string, err error) ([]models.PageText, error) {
	if err != nil {
		return nil, err
	}
	return []models.PageText{{PageNumber: 1, Text: text}}, nil
}
