// Package structurer turns raw extracted corpus text into validated law
// records: it splits source pages into candidate sections on numbering
// markers and normalizes each candidate through an AI-assisted extraction
// step whose output is schema-checked before acceptance.
package structurer

// Page is the extracted text of one source page, 1-based.
type Page struct {
	Number int
	Lines  []string
}

// RawChunk is a candidate section cut from the source text, before
// extraction. Ref is the numbering marker it was cut on, or a page range
// for the fallback grouping.
type RawChunk struct {
	Ref       string
	Text      string
	PageStart int
	PageEnd   int
}
