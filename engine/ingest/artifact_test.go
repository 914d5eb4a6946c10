package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
)

func testRecords() []Record {
	return []Record{
		{
			ID:              domain.DocID("1"),
			LawNumber:       "1",
			Category:        "Peace",
			Title:           "Keeping the Peace",
			Text:            "All citizens shall keep the peace.",
			EmbeddingVector: []float32{1, 0, 0},
		},
		{
			ID:              domain.DocID("3.1.1"),
			LawNumber:       "3.1.1",
			Category:        "Widows",
			Title:           "Maintenance of Widow",
			Text:            "A widow shall be maintained.",
			EmbeddingVector: []float32{0, 1, 0},
		},
	}
}

func TestBuildArtifactVersionDeterministic(t *testing.T) {
	recs := testRecords()
	a := BuildArtifact("text-embedding-004", recs)
	b := BuildArtifact("text-embedding-004", []Record{recs[1], recs[0]})
	if a.Version == "" {
		t.Fatal("empty version")
	}
	if a.Version != b.Version {
		t.Fatalf("record order changed version: %s vs %s", a.Version, b.Version)
	}
	if c := BuildArtifact("other-model", recs); c.Version == a.Version {
		t.Fatal("model change should change version")
	}
	if a.Dimension != 3 {
		t.Fatalf("Dimension = %d, want 3", a.Dimension)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	a := BuildArtifact("text-embedding-004", testRecords())

	if err := WriteArtifact(path, a); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	got, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("ReadArtifact: %v", err)
	}
	if got.Version != a.Version || got.Model != a.Model || len(got.Records) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Records[1].LawNumber != "3.1.1" {
		t.Fatalf("record order not preserved: %q", got.Records[1].LawNumber)
	}
}

func TestWriteArtifactLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	if err := WriteArtifact(path, BuildArtifact("m", testRecords())); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".corpus-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestReadArtifactMissing(t *testing.T) {
	if _, err := ReadArtifact(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestBuildSnapshot(t *testing.T) {
	a := BuildArtifact("text-embedding-004", testRecords())
	snap, err := BuildSnapshot(a)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.Empty() {
		t.Fatal("snapshot should not be empty")
	}
	if snap.Size != 2 || len(snap.Docs) != 2 {
		t.Fatalf("Size = %d, Docs = %d, want 2", snap.Size, len(snap.Docs))
	}
	doc, ok := snap.Docs[domain.DocID("3.1.1")]
	if !ok {
		t.Fatal("widow law missing from doc table")
	}
	if doc.CitationSource() != "Law 3.1.1 (Widows) - Maintenance of Widow" {
		t.Fatalf("wrong citation source: %q", doc.CitationSource())
	}
}

func TestBuildSnapshotEmptyArtifact(t *testing.T) {
	snap, err := BuildSnapshot(Artifact{Version: "v0"})
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if !snap.Empty() {
		t.Fatal("empty artifact should build an empty snapshot")
	}
}
