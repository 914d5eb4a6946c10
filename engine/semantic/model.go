// Package semantic owns vector storage and nearest-neighbour search over
// law embeddings: an exact in-memory index published by atomic swap, and a
// Qdrant-backed store for remote deployments.
package semantic

import "context"

// SearchResult is one nearest-neighbour hit.
type SearchResult struct {
	DocID string
	Score float32
}

// VectorRecord pairs a document ID with its embedding.
type VectorRecord struct {
	DocID     string
	Embedding []float32
}

// Searcher is the query-time view of a vector index. Search is read-only
// and safe for unlimited concurrent callers.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
}
