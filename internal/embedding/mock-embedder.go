package embedding

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"unicode"
)

// MockEmbedder is a deterministic embedder for tests. Each lowercase word is
// hashed into a bucket, so texts sharing words are close and every vector is
// non-negative and unit length.
type MockEmbedder struct {
	dimensions int
	model      string
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions, model: "mock"}
}

// WithModel returns a copy reporting name as its model.
func (e *MockEmbedder) WithModel(name string) *MockEmbedder {
	c := *e
	c.model = name
	return &c
}

// Embed returns a deterministic embedding based on word hashes.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		emb[HashString(w)%e.dimensions]++
	}
	if len(words) == 0 {
		emb[0] = 1
	}
	var sum float64
	for _, v := range emb {
		sum += float64(v * v)
	}
	norm := float32(1 / math.Sqrt(sum))
	for i := range emb {
		emb[i] *= norm
	}
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int { return e.dimensions }

// ModelName returns the reported model name ("mock" by default).
func (e *MockEmbedder) ModelName() string { return e.model }

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error { return nil }

// CountingEmbedder wraps an Embedder and counts calls and embedded texts.
type CountingEmbedder struct {
	Embedder
	calls atomic.Int64
	texts atomic.Int64
}

// NewCountingEmbedder wraps inner.
func NewCountingEmbedder(inner Embedder) *CountingEmbedder {
	return &CountingEmbedder{Embedder: inner}
}

// Embed counts one call and one text.
func (c *CountingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	c.texts.Add(1)
	return c.Embedder.Embed(ctx, text)
}

// EmbedBatch counts one call and len(texts) texts.
func (c *CountingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	c.texts.Add(int64(len(texts)))
	return c.Embedder.EmbedBatch(ctx, texts)
}

// Calls returns the number of Embed/EmbedBatch calls.
func (c *CountingEmbedder) Calls() int64 { return c.calls.Load() }

// Texts returns the number of texts embedded.
func (c *CountingEmbedder) Texts() int64 { return c.texts.Load() }

// Reset zeroes both counters.
func (c *CountingEmbedder) Reset() {
	c.calls.Store(0)
	c.texts.Store(0)
}
