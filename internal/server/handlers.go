package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/vector"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "kotae",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"POST /api/query",
			"GET /api/status",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.retriever.Count(r.Context())
	if err != nil {
		s.logger.Warn("health: passage count failed", zap.Error(err))
		count = -1
	}
	s.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:         "ok",
		RetrieverMode:  s.retriever.Mode(),
		PassagesLoaded: int(count),
		EmbeddingModel: s.config.Embedding.Model,
		LLMModel:       s.generator.Model(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	s.logger.Debug("query request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))

	result, err := s.pipeline.AnswerTopK(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	sources := make([]models.Source, 0, len(result.Sources))
	for _, sp := range result.Sources {
		sources = append(sources, models.Source{
			Page:   sp.Passage.PageNumber,
			Source: sp.Passage.Source,
		})
	}
	s.respondJSON(w, http.StatusOK, models.QueryResponse{
		Answer:         result.Answer,
		Sources:        sources,
		Confidence:     result.Confidence,
		ProcessingTime: float64(result.Duration.Milliseconds()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.retriever.Count(r.Context())
	if err != nil {
		s.logger.Error("status: passage count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"passages": count,
		"config": map[string]interface{}{
			"retriever_mode":       s.retriever.Mode(),
			"top_k":                s.pipeline.TopK(),
			"threshold":            s.config.Retrieval.Threshold,
			"embedding_model":      s.config.Embedding.Model,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"llm_model":            s.generator.Model(),
		},
	})
}

// respondPipelineError maps pipeline failures to HTTP statuses. Bad client
// input is 400; upstream or index failures are 502 so callers can tell them
// from bugs in this server.
func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	var stageErr *pipeline.StageError
	stage := "unknown"
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
	}
	s.logger.Error("query failed", zap.String("stage", stage), zap.Error(err))

	switch {
	case errors.Is(err, vector.ErrInvalidTopK), errors.Is(err, vector.ErrDimensionMismatch):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vector.ErrNotLoaded), errors.Is(err, vector.ErrIndexUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.respondError(w, http.StatusBadGateway, stage+" stage failed")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
