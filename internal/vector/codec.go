package vector

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatVector serializes a vector as a bracketed list, e.g. "[0.1,0.2]".
// The same form is used for pgvector literals and for the CSV snapshot.
// Each component uses the shortest decimal representation that parses back
// to the identical float32, so the round trip is bit-exact.
func FormatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVector parses a bracketed list of numbers into a vector. Components
// may be separated by commas or by whitespace, so Python-style "[0.1, 0.2]"
// and numpy-style "[ 0.1  0.2 ]" from legacy snapshots both parse.
func ParseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("vector literal must be bracketed, got %q", truncateForError(s))
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []float32{}, nil
	}
	parts := strings.Fields(strings.ReplaceAll(inner, ",", " "))
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func truncateForError(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
