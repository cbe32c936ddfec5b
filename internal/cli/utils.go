// Package cli provides CLI output utilities for Kotae.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for answer output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// answerJSON is the machine-readable shape of one answer.
type answerJSON struct {
	Answer     string       `json:"answer"`
	Confidence *float64     `json:"confidence,omitempty"`
	DurationMS int64        `json:"duration_ms"`
	Sources    []sourceJSON `json:"sources"`
}

type sourceJSON struct {
	Page    int     `json:"page"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

// WriteAnswer writes one pipeline result to w in the given format.
func WriteAnswer(w io.Writer, result *pipeline.Result, format OutputFormat) error {
	switch format {
	case OutputJSON:
		out := answerJSON{
			Answer:     result.Answer,
			Confidence: result.Confidence,
			DurationMS: result.Duration.Milliseconds(),
			Sources:    make([]sourceJSON, 0, len(result.Sources)),
		}
		for _, s := range result.Sources {
			out.Sources = append(out.Sources, sourceJSON{
				Page:    s.Passage.PageNumber,
				Source:  s.Passage.Source,
				Score:   s.Score,
				Excerpt: utils.Truncate(s.Passage.Content, 200),
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		writeAnswerText(w, result)
		return nil
	}
}

func writeAnswerText(w io.Writer, result *pipeline.Result) {
	fmt.Fprintf(w, "\n%s\n", result.Answer)
	if result.Confidence != nil {
		fmt.Fprintf(w, "\nConfidence: %.2f | Took: %dms\n", *result.Confidence, result.Duration.Milliseconds())
	} else {
		fmt.Fprintf(w, "\nNo matching passages | Took: %dms\n", result.Duration.Milliseconds())
	}
	if len(result.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, s := range result.Sources {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			label := s.Passage.Source
			if label == "" {
				label = fmt.Sprintf("Page %d", s.Passage.PageNumber)
			}
			fmt.Fprintf(w, "[%s] Score: %.4f\n", label, s.Score)
			fmt.Fprintf(w, "%s\n", utils.Truncate(s.Passage.Content, 200))
		}
	}
}

// PrintAnswer prints a result to stdout in text format.
func PrintAnswer(result *pipeline.Result) {
	_ = WriteAnswer(os.Stdout, result, OutputText)
}
