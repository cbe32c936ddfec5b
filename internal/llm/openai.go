package llm

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

// Generous timeout: LLM responses can take a while.
const defaultGenerationTimeout = 120 * time.Second

// OpenAIGenerator calls an OpenAI-compatible /chat/completions endpoint.
// Pointing the base URL at a local server (e.g. an Ollama instance in
// OpenAI-compat mode) makes the same client serve local models.
type OpenAIGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewOpenAIGenerator creates a generator for the given endpoint and model.
func NewOpenAIGenerator(baseURL, apiKey, model string, temperature float64, maxTokens int, logger *zap.Logger) (*OpenAIGenerator, error) {
	if baseURL == "" {
		return nil, vector.NewError(vector.KindInvalidConfiguration, "llm base URL is required", nil)
	}
	if model == "" {
		return nil, vector.NewError(vector.KindInvalidConfiguration, "llm model is required", nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIGenerator{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: defaultGenerationTimeout},
		logger:      logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate builds the RAG prompt from query and contextText and returns the
// model's answer.
func (g *OpenAIGenerator) Generate(ctx context.Context, query, contextText string) (string, error) {
	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(query, contextText)},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	g.logger.Debug("answer generated", zap.String("model", g.model))
	return parsed.Choices[0].Message.Content, nil
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Close is a no-op for the HTTP client.
func (g *OpenAIGenerator) Close() error {
	return nil
}
