package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
	"github.com/LexiconAI/lexicon-mvp/engine/structurer"
	"github.com/LexiconAI/lexicon-mvp/pkg/fn"
)

// Embedder produces an embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DefaultWorkers bounds concurrent chunk processing.
const DefaultWorkers = 4

// Deps wires the ingestion pipeline.
type Deps struct {
	Structurer *structurer.Structurer
	Embedder   Embedder
	Workers    int
	Logger     *slog.Logger
}

// Summary counts the outcomes of one ingestion run. Every candidate chunk
// lands in exactly one bucket.
type Summary struct {
	Candidates int
	Accepted   int
	Duplicates int
	Unresolved int
	Failed     int
}

// Run processes candidate chunks through structure, dedup and embed,
// returning the accepted records in input order. One chunk failing never
// aborts the batch; its outcome is counted in the summary instead.
func Run(ctx context.Context, chunks []structurer.RawChunk, deps Deps) ([]Record, Summary) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := deps.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	registry := NewRegistry()

	structure := fn.TracedStage("ingest.structure",
		func(ctx context.Context, chunk structurer.RawChunk) fn.Result[domain.LawDocument] {
			doc, err := deps.Structurer.Structure(ctx, chunk)
			if err != nil {
				return fn.Err[domain.LawDocument](err)
			}
			if !registry.Claim(doc.LawNumber, doc.ID) {
				return fn.Errf[domain.LawDocument]("ingest: law %s: %w",
					doc.LawNumber, domain.ErrDuplicateLaw)
			}
			return fn.Ok(doc)
		})

	embed := fn.TracedStage("ingest.embed",
		func(ctx context.Context, doc domain.LawDocument) fn.Result[Record] {
			vec, err := deps.Embedder.Embed(ctx, doc.Text)
			if err != nil {
				// The record was never accepted; give the law number back
				// so another chunk carrying it can still win.
				registry.Release(doc.LawNumber, doc.ID)
				return fn.Errf[Record]("ingest: embed law %s: %w", doc.LawNumber, err)
			}
			return fn.Ok(Record{
				ID:              doc.ID,
				LawNumber:       doc.LawNumber,
				Category:        doc.Category,
				Title:           doc.Title,
				Text:            doc.Text,
				EmbeddingVector: vec,
			})
		})

	pipeline := fn.Then(structure, embed)

	results := fn.ParMapResult(chunks, workers, func(chunk structurer.RawChunk) fn.Result[Record] {
		return pipeline(ctx, chunk)
	})

	summary := Summary{Candidates: len(chunks)}
	records := make([]Record, 0, len(results))
	for i, r := range results {
		rec, err := r.Unwrap()
		switch {
		case err == nil:
			summary.Accepted++
			records = append(records, rec)
		case errors.Is(err, domain.ErrDuplicateLaw):
			summary.Duplicates++
			logger.Info("ingest: duplicate law skipped",
				"chunk", chunks[i].Ref, "error", err)
		case errors.Is(err, domain.ErrUnresolved):
			summary.Unresolved++
			logger.Warn("ingest: chunk unresolved", "chunk", chunks[i].Ref, "error", err)
		default:
			summary.Failed++
			logger.Error("ingest: chunk failed", "chunk", chunks[i].Ref, "error", err)
		}
	}
	return records, summary
}

// String renders the summary for the run log.
func (s Summary) String() string {
	return fmt.Sprintf("candidates=%d accepted=%d duplicates=%d unresolved=%d failed=%d",
		s.Candidates, s.Accepted, s.Duplicates, s.Unresolved, s.Failed)
}
