package structurer

import (
	"strings"
	"testing"
)

func TestSplitSectionsByMarkers(t *testing.T) {
	pages := []Page{
		{Number: 1, Lines: []string{
			"3.1 Widows",
			"Provisions concerning widows.",
			"3.1.1 Maintenance of Widow",
			"A widow shall be maintained by the eldest son.",
		}},
		{Number: 2, Lines: []string{
			"3.1.2 Remarriage",
			"A widow may remarry after one year.",
		}},
	}

	chunks := SplitSections(pages)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Ref != "3.1" || chunks[1].Ref != "3.1.1" || chunks[2].Ref != "3.1.2" {
		t.Fatalf("wrong refs: %q %q %q", chunks[0].Ref, chunks[1].Ref, chunks[2].Ref)
	}
	if chunks[1].PageStart != 1 {
		t.Fatalf("chunk 3.1.1 starts on page %d, want 1", chunks[1].PageStart)
	}
	if chunks[2].PageStart != 2 || chunks[2].PageEnd != 2 {
		t.Fatalf("chunk 3.1.2 pages %d-%d, want 2-2", chunks[2].PageStart, chunks[2].PageEnd)
	}
}

func TestSplitSectionsMarkerVariants(t *testing.T) {
	pages := []Page{{Number: 1, Lines: []string{
		"1. Peace",
		"Keep the peace.",
		"2) Theft",
		"Do not steal.",
	}}}
	chunks := SplitSections(pages)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Ref != "1" || chunks[1].Ref != "2" {
		t.Fatalf("wrong refs: %q %q", chunks[0].Ref, chunks[1].Ref)
	}
}

func TestSplitSectionsKeepsPreamble(t *testing.T) {
	pages := []Page{{Number: 1, Lines: []string{
		"The Book of Laws",
		"A compilation of the realm's laws.",
		"1. Peace",
		"Keep the peace.",
	}}}
	chunks := SplitSections(pages)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Ref != "page 1" {
		t.Fatalf("preamble ref %q, want %q", chunks[0].Ref, "page 1")
	}
	if !strings.Contains(chunks[0].Text, "The Book of Laws") {
		t.Fatalf("preamble text lost: %q", chunks[0].Text)
	}
	if chunks[1].Ref != "1" {
		t.Fatalf("section ref %q, want %q", chunks[1].Ref, "1")
	}
}

func TestSplitSectionsFallbackPageRanges(t *testing.T) {
	pages := []Page{
		{Number: 1, Lines: []string{"no numbering here"}},
		{Number: 2, Lines: []string{"still prose"}},
		{Number: 3, Lines: []string{"more prose"}},
	}
	chunks := SplitSections(pages)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Ref != "pages 1-2" {
		t.Fatalf("first ref %q, want %q", chunks[0].Ref, "pages 1-2")
	}
	if chunks[1].Ref != "page 3" {
		t.Fatalf("second ref %q, want %q", chunks[1].Ref, "page 3")
	}
}

func TestSplitSectionsDiscardsBlank(t *testing.T) {
	pages := []Page{
		{Number: 1, Lines: []string{"", "   "}},
		{Number: 2, Lines: []string{""}},
	}
	if chunks := SplitSections(pages); len(chunks) != 0 {
		t.Fatalf("blank pages produced %d chunks", len(chunks))
	}
}

func TestSplitSectionsEmptyInput(t *testing.T) {
	if chunks := SplitSections(nil); len(chunks) != 0 {
		t.Fatalf("nil pages produced %d chunks", len(chunks))
	}
}
