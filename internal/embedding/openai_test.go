package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kotae/internal/vector"
)

func embeddingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.Input) != 2 {
			t.Errorf("input length = %d", len(req.Input))
		}
		// Out-of-order data entries must be reassembled by index.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1, 0}},
				{"index": 0, "embedding": []float32{1, 0, 0}},
			},
		})
	})

	e, err := NewOpenAIEmbedder(srv.URL, "test-key", "text-embedding-3-small", 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	embeddings, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatal(err)
	}
	if embeddings[0][0] != 1 || embeddings[1][1] != 1 {
		t.Errorf("batch order not preserved: %v", embeddings)
	}
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1, 0}}},
		})
	})

	e, _ := NewOpenAIEmbedder(srv.URL, "", "m", 3, nil)
	_, err := e.Embed(context.Background(), "text")
	if !errors.Is(err, vector.ErrDimensionMismatch) {
		t.Errorf("expected dimension_mismatch, got %v", err)
	}
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	})

	e, _ := NewOpenAIEmbedder(srv.URL, "", "m", 3, nil)
	_, err := e.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestOpenAIEmbedder_EmptyBatch(t *testing.T) {
	e, _ := NewOpenAIEmbedder("http://unused", "", "m", 3, nil)
	embeddings, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(embeddings) != 0 {
		t.Errorf("expected no embeddings, got %d", len(embeddings))
	}
}

func TestNewOpenAIEmbedder_Validation(t *testing.T) {
	cases := []struct {
		name    string
		baseURL string
		model   string
		dims    int
	}{
		{"missing base URL", "", "m", 3},
		{"missing model", "http://x", "", 3},
		{"zero dimensions", "http://x", "m", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewOpenAIEmbedder(tc.baseURL, "", tc.model, tc.dims, nil); !errors.Is(err, vector.ErrInvalidConfiguration) {
				t.Errorf("expected invalid_configuration, got %v", err)
			}
		})
	}
}
