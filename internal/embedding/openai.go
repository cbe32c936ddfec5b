package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

const defaultEmbeddingTimeout = 60 * time.Second

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. The base
// URL is configurable, so the same client serves OpenAI and self-hosted
// compatible servers.
//
// Failures are returned to the caller as-is. In particular, an embedding
// failure is never masked by a zero vector: a zero vector scores 0 against
// everything and silently poisons retrieval.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIEmbedder creates an embedder for the given endpoint and model.
// dimensions is the expected vector length; responses of any other length
// fail with dimension_mismatch.
func NewOpenAIEmbedder(baseURL, apiKey, model string, dimensions int, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		return nil, vector.NewError(vector.KindInvalidConfiguration, "embedding base URL is required", nil)
	}
	if model == "" {
		return nil, vector.NewError(vector.KindInvalidConfiguration, "embedding model is required", nil)
	}
	if dimensions <= 0 {
		return nil, vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("embedding dimensions must be positive, got %d", dimensions), nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIEmbedder{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: defaultEmbeddingTimeout},
		logger:     logger,
	}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds texts in one API call, preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("embedding API returned status %d", resp.StatusCode)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(parsed.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding API returned out-of-range index %d", item.Index)
		}
		if len(item.Embedding) != e.dimensions {
			return nil, vector.NewError(vector.KindDimensionMismatch,
				fmt.Sprintf("model %s returned dimension %d, expected %d", e.model, len(item.Embedding), e.dimensions), nil)
		}
		embeddings[item.Index] = item.Embedding
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("embedding API response missing vector for input %d", i)
		}
	}
	e.logger.Debug("embedded batch", zap.Int("texts", len(texts)), zap.String("model", e.model))
	return embeddings, nil
}

// Dimensions returns the expected embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for the HTTP client.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
