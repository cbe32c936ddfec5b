package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestOpenAIGeneratorGenerate(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Protein builds muscle."}},
			},
		})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(server.URL, "test-key", "gpt-4o-mini", 0.2, 512, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIGenerator: %v", err)
	}

	answer, err := gen.Generate(context.Background(), "What does protein do?", "- Protein builds muscle.")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "Protein builds muscle." {
		t.Errorf("answer = %q", answer)
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" {
		t.Errorf("first message role = %q", gotReq.Messages[0].Role)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "What does protein do?") {
		t.Error("user message missing query")
	}
	if !strings.Contains(gotReq.Messages[1].Content, "- Protein builds muscle.") {
		t.Error("user message missing context")
	}
}

func TestOpenAIGeneratorAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(server.URL, "k", "m", 0, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIGenerator: %v", err)
	}

	_, err = gen.Generate(context.Background(), "q", "c")
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error should carry API message, got %v", err)
	}
}

func TestOpenAIGeneratorNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(server.URL, "", "m", 0, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOpenAIGenerator: %v", err)
	}
	if _, err := gen.Generate(context.Background(), "q", "c"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestNewOpenAIGeneratorValidation(t *testing.T) {
	if _, err := NewOpenAIGenerator("", "k", "m", 0, 0, nil); err == nil {
		t.Error("expected error for empty base URL")
	}
	if _, err := NewOpenAIGenerator("http://x", "k", "", 0, 0, nil); err == nil {
		t.Error("expected error for empty model")
	}
}
