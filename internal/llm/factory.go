package llm

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Generation backends.
const (
	// BackendAPI calls an OpenAI-compatible chat endpoint.
	BackendAPI = "api"
	// BackendOllama is the API backend pointed at a local Ollama server.
	BackendOllama = "ollama"
	// BackendMock returns canned answers for tests and dry runs.
	BackendMock = "mock"
)

// defaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint.
const defaultOllamaBaseURL = "http://localhost:11434/v1"

// Options configures the generator factory.
type Options struct {
	Backend     string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// New constructs the generator for opts.Backend. Unknown backends fail with
// invalid_configuration.
func New(opts Options, logger *zap.Logger) (Generator, error) {
	switch opts.Backend {
	case BackendAPI:
		return NewOpenAIGenerator(opts.BaseURL, opts.APIKey, opts.Model, opts.Temperature, opts.MaxTokens, logger)
	case BackendOllama:
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		return NewOpenAIGenerator(baseURL, opts.APIKey, opts.Model, opts.Temperature, opts.MaxTokens, logger)
	case BackendMock:
		return NewMockGenerator(), nil
	default:
		return nil, vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("unknown llm backend %q (supported: %s, %s, %s)",
				opts.Backend, BackendAPI, BackendOllama, BackendMock), nil)
	}
}
