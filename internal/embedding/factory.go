package embedding

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Embedding backends.
const (
	// BackendAPI calls an OpenAI-compatible /embeddings endpoint.
	BackendAPI = "api"
	// BackendLocal runs an ONNX model in-process (requires CGO).
	BackendLocal = "local"
	// BackendMock produces deterministic embeddings for tests and dry runs.
	BackendMock = "mock"
)

// Options configures the embedder factory.
type Options struct {
	Backend    string
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	// ModelPath and MaxTokens apply to the local ONNX backend.
	ModelPath string
	MaxTokens int
	// CacheSize > 0 wraps the embedder in an LRU cache.
	CacheSize int
}

// New constructs the embedder for opts.Backend. Unknown backends fail with
// invalid_configuration before any model or network resource is touched.
func New(opts Options, logger *zap.Logger) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)
	switch opts.Backend {
	case BackendAPI:
		embedder, err = NewOpenAIEmbedder(opts.BaseURL, opts.APIKey, opts.Model, opts.Dimensions, logger)
	case BackendLocal:
		embedder, err = NewONNXEmbedder(opts.ModelPath, opts.Dimensions, opts.MaxTokens)
	case BackendMock:
		embedder = NewMockEmbedder(opts.Dimensions)
	default:
		return nil, vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("unknown embedding backend %q (supported: %s, %s, %s)",
				opts.Backend, BackendAPI, BackendLocal, BackendMock), nil)
	}
	if err != nil {
		return nil, err
	}
	if opts.CacheSize > 0 {
		embedder = NewCachedEmbedder(embedder, opts.CacheSize)
	}
	return embedder, nil
}
