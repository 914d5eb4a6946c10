// Package domain holds the core types of the law corpus: structured law
// documents, retrieval results, and the citations that ground an answer.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// excerptLimit caps the citation excerpt length.
const excerptLimit = 200

// LawDocument is one numbered law extracted from the source corpus.
// Documents are created during ingestion and never mutated; a corpus
// rebuild replaces the full set.
type LawDocument struct {
	ID        string `json:"id"`
	LawNumber string `json:"law_number"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Text      string `json:"text"`
}

// DocID derives the stable document ID for a law number. The same law
// number always maps to the same ID, so repeated ingestion runs over an
// identical corpus produce identical keying.
func DocID(lawNumber string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("law:"+lawNumber)).String()
}

// CitationSource renders the human-readable citation label,
// e.g. "Law 3.1.1 (Widows) - Maintenance of Widow".
func (d LawDocument) CitationSource() string {
	return fmt.Sprintf("Law %s (%s) - %s", d.LawNumber, d.Category, d.Title)
}

// Excerpt returns the citation excerpt of the law text, truncated to 200
// characters with a trailing ellipsis.
func (d LawDocument) Excerpt() string {
	runes := []rune(strings.TrimSpace(d.Text))
	if len(runes) <= excerptLimit {
		return string(runes)
	}
	return string(runes[:excerptLimit]) + "..."
}

// Scored pairs a retrieved document with its similarity to the query.
type Scored struct {
	Doc   LawDocument
	Score float32
}

// RetrievedSet is the ordered retrieval result for a single query,
// descending by similarity. Ephemeral; one per query.
type RetrievedSet []Scored

// Contains reports whether a law number is present in the set.
func (rs RetrievedSet) Contains(lawNumber string) bool {
	for _, s := range rs {
		if s.Doc.LawNumber == lawNumber {
			return true
		}
	}
	return false
}

// Citation points a generated answer back at one retrieved law.
type Citation struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Answer is the final response for one query. Citations may be empty but
// never reference a document outside the query's RetrievedSet.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}
