// Package rag implements the online query path: retrieve the laws most
// similar to a question, then synthesize a grounded answer over them.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
	"github.com/LexiconAI/lexicon-mvp/engine/semantic"
)

// Embedder produces the query embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DefaultTopK is the retrieval depth used when none is configured.
const DefaultTopK = 2

// Retriever maps a query to its most similar law documents against the
// currently published corpus snapshot.
type Retriever struct {
	embed     Embedder
	published *semantic.Published
	topK      int
	logger    *slog.Logger
}

// NewRetriever creates a Retriever. topK <= 0 selects DefaultTopK.
func NewRetriever(embed Embedder, published *semantic.Published, topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embed: embed, published: published, topK: topK, logger: logger}
}

// Retrieve returns up to topK documents ordered by descending similarity.
// An empty corpus yields an empty set without calling the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string) (domain.RetrievedSet, error) {
	snap := r.published.Load()
	if snap.Empty() {
		r.logger.Info("retriever: empty corpus, nothing to retrieve")
		return domain.RetrievedSet{}, nil
	}

	vec, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "embed query", Err: err}
	}

	hits, err := snap.Index.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("rag: search corpus %s: %w", snap.Version, err)
	}

	set := make(domain.RetrievedSet, 0, len(hits))
	for _, h := range hits {
		doc, ok := snap.Docs[h.DocID]
		if !ok {
			// Index and doc table come from the same snapshot, so a
			// missing doc means a corrupt artifact.
			r.logger.Error("retriever: hit without document",
				"doc_id", h.DocID, "version", snap.Version)
			continue
		}
		set = append(set, domain.Scored{Doc: doc, Score: h.Score})
	}

	r.logger.Debug("retriever: retrieved",
		"hits", len(set), "top_k", r.topK, "version", snap.Version)
	return set, nil
}
