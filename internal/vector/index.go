// Package vector holds embedded chunks and answers exact k-nearest-neighbor queries by L2 distance.
package vector

import "context"

// VectorIndex stores vectors by insertion position and searches them by squared L2 distance.
type VectorIndex interface {
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns up to k hits ordered by ascending distance; ties keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	// Truncate drops every vector at position n or later.
	Truncate(n int) error
	Save(path string) error
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	Position int
	Distance float64 // squared L2; 0 is identical
}
