// Package search answers retrieval queries against the vector index and
// serializes index maintenance with those queries.
package search

import (
	"context"
	"time"

	"github.com/hyperjump/kbase/internal/models"
)

// Searcher is a k-nearest-neighbor source. *index.Manager implements it.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]*models.SearchResult, error)
}

// Engine runs threshold-filtered similarity search.
type Engine struct {
	searcher Searcher
}

// NewEngine creates a search engine over searcher.
func NewEngine(searcher Searcher) *Engine {
	return &Engine{searcher: searcher}
}

// Search returns at most query.K results whose distance is within the
// threshold, most similar first.
func (e *Engine) Search(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query); err != nil {
		return nil, err
	}

	candidates, err := e.searcher.SimilaritySearch(ctx, query.Query, query.K)
	if err != nil {
		return nil, err
	}
	results := FilterByThreshold(candidates, query.ThresholdOrDefault())

	return &models.RetrieveResponse{
		Results:       results,
		Total:         len(results),
		Query:         query.Query,
		KnowledgeBase: query.KnowledgeBase,
		QueryTime:     time.Since(startTime).Milliseconds(),
	}, nil
}

// FilterByThreshold keeps results with score <= threshold, in order, and renumbers their ranks.
func FilterByThreshold(results []*models.SearchResult, threshold float64) []*models.SearchResult {
	filtered := make([]*models.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score <= threshold {
			r.Rank = len(filtered) + 1
			filtered = append(filtered, r)
		}
	}
	return filtered
}
