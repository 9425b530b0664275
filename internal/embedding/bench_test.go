package embedding

import (
	"context"
	"testing"
)

func BenchmarkMockEmbedder_Embed(b *testing.B) {
	e := NewMockEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkCachedEmbedder_hit(b *testing.B) {
	e := NewCachedEmbedder(NewMockEmbedder(384), 100)
	ctx := context.Background()
	_, _ = e.Embed(ctx, "benchmark query text for embedding")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}
