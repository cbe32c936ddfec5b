package llm

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("What is a macronutrient?", "- Protein is a macronutrient.")

	if !strings.Contains(prompt, "What is a macronutrient?") {
		t.Error("prompt missing query")
	}
	if !strings.Contains(prompt, "- Protein is a macronutrient.") {
		t.Error("prompt missing context")
	}
	if strings.Contains(prompt, "{context}") || strings.Contains(prompt, "{query}") {
		t.Error("prompt has unsubstituted placeholders")
	}
}

func TestBuildPromptEmptyContext(t *testing.T) {
	prompt := BuildPrompt("anything", "No relevant context found.")
	if !strings.Contains(prompt, "No relevant context found.") {
		t.Error("sentinel context should pass through verbatim")
	}
}
