package vector

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync/atomic"
)

// MemoryIndex is an in-memory vector index using an exact brute-force dot
// product scan. Scores are raw dot products: cosine similarity only when the
// stored vectors and the query were normalized upstream.
//
// The index supports deferred loading: it is constructed empty and rejects
// queries with a not_loaded error until Load publishes a snapshot. Load
// builds the new snapshot off to the side and swaps it in atomically, so
// concurrent searches never observe a half-populated index.
type MemoryIndex struct {
	dimensions int
	snap       atomic.Pointer[memorySnapshot]
}

// memorySnapshot holds count vectors flattened row-major into one contiguous
// buffer. Immutable after publication.
type memorySnapshot struct {
	data  []float32
	count int
}

// NewMemoryIndex creates an empty in-memory index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, NewError(KindInvalidConfiguration, fmt.Sprintf("dimensions must be positive, got %d", dimensions), nil)
	}
	return &MemoryIndex{dimensions: dimensions}, nil
}

// Load validates and publishes a full set of vectors, replacing any previous
// contents. Every vector must have the index dimension.
func (m *MemoryIndex) Load(vectors [][]float32) error {
	data := make([]float32, 0, len(vectors)*m.dimensions)
	for i, vec := range vectors {
		if len(vec) != m.dimensions {
			return NewError(KindDimensionMismatch,
				fmt.Sprintf("vector %d has dimension %d, index expects %d", i, len(vec), m.dimensions), nil)
		}
		data = append(data, vec...)
	}
	m.snap.Store(&memorySnapshot{data: data, count: len(vectors)})
	return nil
}

// Search scores query against every stored vector and returns the topK
// highest-scoring positions in non-increasing score order. Equal scores are
// ordered by ascending position, so repeated calls are deterministic.
// When topK exceeds the index size, all entries are returned.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	snap := m.snap.Load()
	if snap == nil {
		return nil, NewError(KindNotLoaded, "memory index queried before load", nil)
	}
	if len(query) != m.dimensions {
		return nil, NewError(KindDimensionMismatch,
			fmt.Sprintf("query has dimension %d, index expects %d", len(query), m.dimensions), nil)
	}
	if topK < 1 {
		return nil, NewError(KindInvalidTopK, fmt.Sprintf("top_k must be at least 1, got %d", topK), nil)
	}
	k := topK
	if k > snap.count {
		k = snap.count
	}
	if k == 0 {
		return []Result{}, nil
	}

	// Partial top-k selection: a bounded min-heap whose root is the current
	// worst candidate. O(N·D) scoring dominates; selection stays O(N log k).
	h := make(topKHeap, 0, k)
	d := m.dimensions
	for pos := 0; pos < snap.count; pos++ {
		row := snap.data[pos*d : (pos+1)*d]
		var dot float64
		for j := 0; j < d; j++ {
			dot += float64(query[j]) * float64(row[j])
		}
		if len(h) < k {
			heap.Push(&h, Result{Position: pos, Score: dot})
			continue
		}
		if betterThan(dot, pos, h[0]) {
			h[0] = Result{Position: pos, Score: dot}
			heap.Fix(&h, 0)
		}
	}

	results := []Result(h)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Position < results[j].Position
	})
	return results, nil
}

// betterThan reports whether a candidate with the given score and position
// outranks r: higher score wins, equal scores prefer the earlier position.
func betterThan(score float64, position int, r Result) bool {
	if score != r.Score {
		return score > r.Score
	}
	return position < r.Position
}

// Dimensions returns the embedding dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Size returns the number of vectors in the published snapshot, 0 when unloaded.
func (m *MemoryIndex) Size() int {
	if snap := m.snap.Load(); snap != nil {
		return snap.count
	}
	return 0
}

// Loaded reports whether a snapshot has been published.
func (m *MemoryIndex) Loaded() bool {
	return m.snap.Load() != nil
}

// topKHeap is a min-heap of candidates: the root is the worst kept result
// (lowest score; among equals, the latest position, so earlier positions win ties).
type topKHeap []Result

func (h topKHeap) Len() int { return len(h) }

func (h topKHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Position > h[j].Position
}

func (h topKHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topKHeap) Push(x any) { *h = append(*h, x.(Result)) }

func (h *topKHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
