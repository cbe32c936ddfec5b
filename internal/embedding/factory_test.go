package embedding

import (
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/vector"
)

func TestNew_Mock(t *testing.T) {
	e, err := New(Options{Backend: BackendMock, Dimensions: 8}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions=%d, want 8", e.Dimensions())
	}
}

func TestNew_MockWithCache(t *testing.T) {
	e, err := New(Options{Backend: BackendMock, Dimensions: 8, CacheSize: 10}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("expected *CachedEmbedder, got %T", e)
	}
}

func TestNew_API(t *testing.T) {
	e, err := New(Options{
		Backend:    BackendAPI,
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimensions() != 1536 {
		t.Errorf("Dimensions=%d, want 1536", e.Dimensions())
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(Options{Backend: "gemini", Dimensions: 8}, nil)
	if !errors.Is(err, vector.ErrInvalidConfiguration) {
		t.Errorf("expected invalid_configuration, got %v", err)
	}
}
