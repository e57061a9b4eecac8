package rag

import (
	"context"
	"fmt"
	"math"

	"github.com/hrkb/assistant/internal/store"
)

// DefaultTopK is used when a query does not specify a result count.
const DefaultTopK = 5

// confidence parameters: the boost applies when enough of the top results
// clear the high-relevance bar.
const (
	confidenceWindow  = 3
	highRelevanceBar  = 0.8
	highRelevanceMin  = 2
	confidenceBoost   = 1.1
)

// Retriever turns a query into ranked, scored chunks via the store's
// similarity search. It adds no re-ranking of its own.
type Retriever struct {
	store store.Store
	topK  int
}

// NewRetriever creates a retriever. topK <= 0 falls back to DefaultTopK.
func NewRetriever(s store.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{store: s, topK: topK}
}

// Retrieve returns up to topK results for the query, optionally filtered
// by category. topK <= 0 uses the configured default; it is never below 1.
// No matches yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, categoryFilter string) ([]store.SearchResult, error) {
	if topK <= 0 {
		topK = r.topK
	}
	if topK < 1 {
		topK = 1
	}
	results, err := r.store.Search(ctx, query, topK, categoryFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	return results, nil
}

// Confidence scores a whole result set: the average relevance of the top 3
// results, boosted by 1.1 when at least 2 of them exceed 0.8, capped at
// 1.0 and rounded to 2 decimal places. An empty set scores 0.0.
func Confidence(results []store.SearchResult) float64 {
	if len(results) == 0 {
		return 0.0
	}

	top := results
	if len(top) > confidenceWindow {
		top = top[:confidenceWindow]
	}

	sum := 0.0
	high := 0
	for _, r := range top {
		sum += r.Relevance
		if r.Relevance > highRelevanceBar {
			high++
		}
	}

	avg := sum / float64(len(top))
	if high >= highRelevanceMin {
		avg = math.Min(avg*confidenceBoost, 1.0)
	}
	return math.Round(avg*100) / 100
}
