package models

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Source is one citation in a query response.
type Source struct {
	Page   int    `json:"page"`
	Source string `json:"source"`
}

// QueryResponse is the response of POST /api/query.
type QueryResponse struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	Confidence     *float64 `json:"confidence,omitempty"`
	ProcessingTime float64  `json:"processing_time_ms,omitempty"`
}

// HealthResponse is the response of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	RetrieverMode  string `json:"retriever_mode"`
	PassagesLoaded int    `json:"passages_loaded"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	LLMModel       string `json:"llm_model,omitempty"`
}
