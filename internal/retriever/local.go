package retriever

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// LocalRetriever searches an in-memory dense index over a fully materialized
// passage collection. It supports deferred loading: constructed empty, it
// rejects queries with not_loaded until Load publishes a snapshot. Load and
// Reload publish the index and the parallel passage slice together in a
// single atomic swap, so a query never sees vectors from one generation and
// passages from another.
type LocalRetriever struct {
	dimensions int
	logger     *zap.Logger
	state      atomic.Pointer[localState]
}

type localState struct {
	index    *vector.MemoryIndex
	passages []*models.Passage
}

// NewLocalRetriever creates an unloaded local retriever for vectors of the
// given dimension.
func NewLocalRetriever(dimensions int, logger *zap.Logger) (*LocalRetriever, error) {
	if dimensions <= 0 {
		return nil, vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("dimensions must be positive, got %d", dimensions), nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalRetriever{dimensions: dimensions, logger: logger}, nil
}

// Load builds a fresh index from the passage/vector pair and swaps it in.
// The two slices must be parallel: same length, aligned by position.
func (r *LocalRetriever) Load(passages []*models.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return vector.NewError(vector.KindInvalidConfiguration,
			fmt.Sprintf("passages (%d) and vectors (%d) must have the same length", len(passages), len(vectors)), nil)
	}
	idx, err := vector.NewMemoryIndex(r.dimensions)
	if err != nil {
		return err
	}
	if err := idx.Load(vectors); err != nil {
		return err
	}
	for _, p := range passages {
		if p.Source == "" {
			p.Source = fmt.Sprintf("Page %d", p.PageNumber)
		}
	}
	r.state.Store(&localState{index: idx, passages: passages})
	r.logger.Info("local retriever loaded",
		zap.Int("passages", len(passages)),
		zap.Int("dimensions", r.dimensions),
	)
	return nil
}

// Search scores queryEmbedding against the loaded collection and returns the
// topK best passages. Returns exactly min(topK, N) results.
func (r *LocalRetriever) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]*models.ScoredPassage, error) {
	state := r.state.Load()
	if state == nil {
		return nil, vector.NewError(vector.KindNotLoaded, "local retriever queried before load", nil)
	}
	hits, err := state.index.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, err
	}
	results := make([]*models.ScoredPassage, len(hits))
	for i, h := range hits {
		results[i] = &models.ScoredPassage{
			Passage:  state.passages[h.Position],
			Score:    h.Score,
			Position: h.Position,
		}
	}
	return results, nil
}

// FormatContext renders passages for the generation prompt.
func (r *LocalRetriever) FormatContext(docs []*models.ScoredPassage) string {
	return FormatContext(docs)
}

// Count returns the number of loaded passages (0 before load).
func (r *LocalRetriever) Count(ctx context.Context) (int64, error) {
	if state := r.state.Load(); state != nil {
		return int64(len(state.passages)), nil
	}
	return 0, nil
}

// Loaded reports whether a snapshot has been published.
func (r *LocalRetriever) Loaded() bool {
	return r.state.Load() != nil
}

// Mode identifies the backend.
func (r *LocalRetriever) Mode() string {
	return ModeLocal
}
