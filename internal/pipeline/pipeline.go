// Package pipeline runs the embed -> retrieve -> generate flow for one query.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retriever"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Pipeline answers questions by embedding them, retrieving similar passages,
// and generating a grounded answer.
type Pipeline struct {
	embedder  embedding.Embedder
	retriever retriever.Retriever
	generator llm.Generator
	topK      int
	logger    *zap.Logger
}

// Result is the full outcome of one answered question.
type Result struct {
	Answer      string
	Sources     []*models.ScoredPassage
	ContextText string
	// Confidence is the top similarity score clamped to [0,1]; nil when no
	// passages matched.
	Confidence *float64
	Duration   time.Duration
}

// New wires a pipeline. topK defaults to 5 when non-positive.
func New(embedder embedding.Embedder, ret retriever.Retriever, generator llm.Generator, topK int, logger *zap.Logger) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		embedder:  embedder,
		retriever: ret,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Answer runs the full flow for one question with the configured topK.
func (p *Pipeline) Answer(ctx context.Context, question string) (*Result, error) {
	return p.AnswerTopK(ctx, question, p.topK)
}

// AnswerTopK runs the full flow with a per-question result count. Failures
// carry the stage they occurred in; callers can tell an embedding outage from
// a generation outage.
func (p *Pipeline) AnswerTopK(ctx context.Context, question string, topK int) (*Result, error) {
	start := time.Now()
	if topK <= 0 {
		topK = p.topK
	}

	queryEmbedding, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &StageError{Stage: StageEmbed, Err: err}
	}

	sources, err := p.retriever.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieve, Err: err}
	}
	contextText := p.retriever.FormatContext(sources)

	answer, err := p.generator.Generate(ctx, question, contextText)
	if err != nil {
		return nil, &StageError{Stage: StageGenerate, Err: err}
	}

	result := &Result{
		Answer:      answer,
		Sources:     sources,
		ContextText: contextText,
		Duration:    time.Since(start),
	}
	if len(sources) > 0 {
		confidence := utils.Clamp01(sources[0].Score)
		result.Confidence = &confidence
	}

	p.logger.Info("question answered",
		zap.Int("sources", len(sources)),
		zap.Duration("took", result.Duration))
	return result, nil
}

// TopK returns the configured result count.
func (p *Pipeline) TopK() int {
	return p.topK
}

// Pipeline stages, used in StageError.
const (
	StageEmbed    = "embed"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
)

// StageError wraps a failure with the pipeline stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
