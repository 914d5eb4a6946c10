package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
	"github.com/LexiconAI/lexicon-mvp/engine/semantic"
)

// Record is one persisted law with its embedding, in the fixed artifact
// schema.
type Record struct {
	ID              string    `json:"id"`
	LawNumber       string    `json:"law_number"`
	Category        string    `json:"category"`
	Title           string    `json:"title"`
	Text            string    `json:"text"`
	EmbeddingVector []float32 `json:"embedding_vector"`
}

// Document returns the law document portion of the record.
func (r Record) Document() domain.LawDocument {
	return domain.LawDocument{
		ID:        r.ID,
		LawNumber: r.LawNumber,
		Category:  r.Category,
		Title:     r.Title,
		Text:      r.Text,
	}
}

// Artifact is the persisted output of one corpus build: every law document
// plus its vector, versioned so the active index can be swapped atomically.
type Artifact struct {
	Version   string    `json:"version"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"built_at"`
	Records   []Record  `json:"records"`
}

// BuildArtifact assembles an artifact from accepted records. The version
// is a content hash over the model and the sorted law numbers, so two
// builds over an identical corpus get the same version.
func BuildArtifact(model string, records []Record) Artifact {
	nums := make([]string, len(records))
	for i, r := range records {
		nums[i] = r.LawNumber
	}
	sort.Strings(nums)

	h := sha1.Sum([]byte(model + "\n" + strings.Join(nums, "\n")))
	dim := 0
	if len(records) > 0 {
		dim = len(records[0].EmbeddingVector)
	}
	return Artifact{
		Version:   hex.EncodeToString(h[:])[:12],
		Model:     model,
		Dimension: dim,
		BuiltAt:   time.Now().UTC(),
		Records:   records,
	}
}

// WriteArtifact writes the artifact to a temporary file in the target
// directory and renames it into place, so a reader never observes a
// half-written corpus.
func WriteArtifact(path string, a Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("ingest: encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".corpus-*.json")
	if err != nil {
		return fmt.Errorf("ingest: create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ingest: write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ingest: close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ingest: publish artifact: %w", err)
	}
	return nil
}

// ReadArtifact loads an artifact from disk.
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("ingest: read artifact %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("ingest: decode artifact %s: %w", path, err)
	}
	return a, nil
}

// BuildSnapshot builds an in-memory corpus snapshot (exact index plus
// document table) from an artifact. The snapshot is complete before it is
// returned; callers publish it with a single atomic swap.
func BuildSnapshot(a Artifact) (*semantic.Snapshot, error) {
	docs := make(map[string]domain.LawDocument, len(a.Records))
	if len(a.Records) == 0 {
		return &semantic.Snapshot{Version: a.Version, Docs: docs}, nil
	}

	index, err := semantic.NewMemoryIndex(a.Dimension)
	if err != nil {
		return nil, fmt.Errorf("ingest: snapshot %s: %w", a.Version, err)
	}
	for _, r := range a.Records {
		if err := index.Insert(r.ID, r.EmbeddingVector); err != nil {
			return nil, fmt.Errorf("ingest: snapshot %s: %w", a.Version, err)
		}
		docs[r.ID] = r.Document()
	}
	return &semantic.Snapshot{
		Version: a.Version,
		Index:   index,
		Docs:    docs,
		Size:    len(a.Records),
	}, nil
}
