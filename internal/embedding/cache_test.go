package embedding

import (
	"context"
	"sync/atomic"
	"testing"
)

// countingEmbedder wraps MockEmbedder and counts inner calls.
type countingEmbedder struct {
	*MockEmbedder
	batchCalls atomic.Int64
	texts      atomic.Int64
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls.Add(1)
	c.texts.Add(int64(len(texts)))
	return c.MockEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_BatchOnlyEmbedsMisses(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(8)}
	cached := NewCachedEmbedder(inner, 100)
	ctx := context.Background()

	first, err := cached.EmbedBatch(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.texts.Load() != 3 {
		t.Errorf("inner embedded %d texts, want 3", inner.texts.Load())
	}

	second, err := cached.EmbedBatch(ctx, []string{"a", "d", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.texts.Load() != 4 {
		t.Errorf("inner embedded %d texts total, want 4 (only the miss)", inner.texts.Load())
	}
	for i := range first[0] {
		if second[0][i] != first[0][i] {
			t.Fatal("cached embedding differs from original")
		}
	}
}

func TestCachedEmbedder_Embed(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(8)}
	cached := NewCachedEmbedder(inner, 100)
	ctx := context.Background()

	if _, err := cached.Embed(ctx, "question"); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.Embed(ctx, "question"); err != nil {
		t.Fatal(err)
	}
	// Embed goes through the single-text path; the mock is only consulted once.
	if got := cached.cache.len(); got != 1 {
		t.Errorf("cache length = %d, want 1", got)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.set("a", []float32{1})
	c.set("b", []float32{2})
	c.get("a") // refresh a; b becomes the eviction candidate
	c.set("c", []float32{3})

	if _, ok := c.get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("a should still be cached")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("c should be cached")
	}
}
