package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
	"github.com/LexiconAI/lexicon-mvp/engine/structurer"
)

// --- Mocks ---

// echoExtractor structures a chunk from a "num|category|title" ref.
type echoExtractor struct {
	mu    sync.Mutex
	calls int
}

func (m *echoExtractor) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	// The chunk ref is embedded in the prompt; pull it back out.
	for _, line := range strings.Split(prompt, "\n") {
		ref, ok := strings.CutPrefix(line, "Section reference: ")
		if !ok {
			continue
		}
		parts := strings.SplitN(ref, "|", 3)
		if len(parts) != 3 {
			return "", fmt.Errorf("bad ref %q", ref)
		}
		out, _ := json.Marshal(map[string]string{
			"law_number": parts[0],
			"category":   parts[1],
			"title":      parts[2],
			"text":       "Text of law " + parts[0] + ".",
		})
		return string(out), nil
	}
	return "", errors.New("ref not found in prompt")
}

type fixedEmbedder struct {
	vec []float32
	err error
}

func (m *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vec, nil
}

func chunk(ref string) structurer.RawChunk {
	return structurer.RawChunk{Ref: ref, Text: "body", PageStart: 1, PageEnd: 1}
}

func testDeps(embedder Embedder) Deps {
	return Deps{
		Structurer: structurer.New(&echoExtractor{}, slog.Default()),
		Embedder:   embedder,
		Workers:    3,
		Logger:     slog.Default(),
	}
}

// --- Tests ---

func TestRunAcceptsAllDistinctLaws(t *testing.T) {
	chunks := []structurer.RawChunk{
		chunk("1|Peace|Keeping the Peace"),
		chunk("2|Theft|Prohibition of Theft"),
		chunk("3.1.1|Widows|Maintenance of Widow"),
	}
	records, summary := Run(context.Background(), chunks, testDeps(&fixedEmbedder{vec: []float32{1, 0}}))

	if summary.Accepted != 3 || summary.Candidates != 3 {
		t.Fatalf("summary = %s", summary)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Input order survives the parallel pipeline.
	if records[2].LawNumber != "3.1.1" {
		t.Fatalf("record order broken: %q", records[2].LawNumber)
	}
	if records[2].ID != domain.DocID("3.1.1") {
		t.Fatal("record id not derived from law number")
	}
	if len(records[0].EmbeddingVector) != 2 {
		t.Fatal("embedding missing")
	}
}

func TestRunCountsDuplicates(t *testing.T) {
	chunks := []structurer.RawChunk{
		chunk("1|Peace|Keeping the Peace"),
		chunk("1|Peace|Keeping the Peace"),
	}
	records, summary := Run(context.Background(), chunks, testDeps(&fixedEmbedder{vec: []float32{1}}))

	if summary.Accepted != 1 || summary.Duplicates != 1 {
		t.Fatalf("summary = %s", summary)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestRunCountsUnresolved(t *testing.T) {
	chunks := []structurer.RawChunk{
		chunk("malformed-ref"),
		chunk("2|Theft|Prohibition of Theft"),
	}
	records, summary := Run(context.Background(), chunks, testDeps(&fixedEmbedder{vec: []float32{1}}))

	if summary.Unresolved != 1 || summary.Accepted != 1 {
		t.Fatalf("summary = %s", summary)
	}
	if len(records) != 1 || records[0].LawNumber != "2" {
		t.Fatalf("wrong records: %+v", records)
	}
}

func TestRunEmbedFailureDoesNotAbortBatch(t *testing.T) {
	chunks := []structurer.RawChunk{chunk("1|Peace|Keeping the Peace")}
	records, summary := Run(context.Background(), chunks,
		testDeps(&fixedEmbedder{err: errors.New("quota exceeded")}))

	if summary.Failed != 1 || summary.Accepted != 0 {
		t.Fatalf("summary = %s", summary)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}

// flakyEmbedder fails a fixed number of leading calls, then succeeds.
type flakyEmbedder struct {
	fails int
	calls int
}

func (m *flakyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.calls <= m.fails {
		return nil, errors.New("quota exceeded")
	}
	return []float32{1}, nil
}

func TestRunEmbedFailureReleasesLawNumber(t *testing.T) {
	// Same law twice; the first chunk fails at embed. Its claim must be
	// released so the second chunk is accepted, not counted a duplicate
	// of a record that never existed. One worker keeps the order fixed.
	chunks := []structurer.RawChunk{
		chunk("1|Peace|Keeping the Peace"),
		chunk("1|Peace|Keeping the Peace"),
	}
	deps := testDeps(&flakyEmbedder{fails: 1})
	deps.Workers = 1

	records, summary := Run(context.Background(), chunks, deps)
	if summary.Failed != 1 || summary.Accepted != 1 || summary.Duplicates != 0 {
		t.Fatalf("summary = %s", summary)
	}
	if len(records) != 1 || records[0].LawNumber != "1" {
		t.Fatalf("wrong records: %+v", records)
	}
}

func TestRunIdempotentIDsAcrossRuns(t *testing.T) {
	chunks := []structurer.RawChunk{chunk("3.1.1|Widows|Maintenance of Widow")}
	deps := testDeps(&fixedEmbedder{vec: []float32{1}})

	first, _ := Run(context.Background(), chunks, deps)
	second, _ := Run(context.Background(), chunks, testDeps(&fixedEmbedder{vec: []float32{1}}))
	if first[0].ID != second[0].ID {
		t.Fatalf("ids differ across runs: %s vs %s", first[0].ID, second[0].ID)
	}
}

func TestRunEmptyInput(t *testing.T) {
	records, summary := Run(context.Background(), nil, testDeps(&fixedEmbedder{vec: []float32{1}}))
	if len(records) != 0 || summary.Candidates != 0 {
		t.Fatalf("unexpected output: %v %s", records, summary)
	}
}
