package structurer

import (
	"fmt"
	"regexp"
	"strings"
)

// sectionMarker matches hierarchical numbering headings at line start:
// "3", "3.1", "3.1.1", optionally followed by "." or ")".
var sectionMarker = regexp.MustCompile(`(?m)^[ \t]*(\d+(?:\.\d+)*)[.)]?[ \t]+`)

// fallbackPageSpan is the page window used when no numbering is recoverable.
const fallbackPageSpan = 2

// SplitSections cuts the source pages into candidate sections on numbering
// markers. Text before the first marker becomes a page-range chunk; when
// the text carries no recoverable numbering at all, pages are grouped into
// page-range chunks instead. Zero-length chunks are discarded silently
// either way.
func SplitSections(pages []Page) []RawChunk {
	text, starts := joinPages(pages)
	locs := sectionMarker.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return pageRangeChunks(pages)
	}

	var chunks []RawChunk
	if lead := strings.TrimSpace(text[:locs[0][0]]); lead != "" {
		first := pageAt(pages, starts, 0)
		last := pageAt(pages, starts, locs[0][0]-1)
		chunks = append(chunks, RawChunk{
			Ref:       pageRef(first, last),
			Text:      lead,
			PageStart: first,
			PageEnd:   last,
		})
	}
	for i, loc := range locs {
		start := loc[0]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[start:end])
		if body == "" {
			continue
		}
		chunks = append(chunks, RawChunk{
			Ref:       text[loc[2]:loc[3]],
			Text:      body,
			PageStart: pageAt(pages, starts, start),
			PageEnd:   pageAt(pages, starts, end-1),
		})
	}
	return chunks
}

// joinPages concatenates page text and records each page's start offset.
func joinPages(pages []Page) (string, []int) {
	var b strings.Builder
	starts := make([]int, len(pages))
	for i, p := range pages {
		starts[i] = b.Len()
		for _, line := range p.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String(), starts
}

// pageAt returns the page number covering a byte offset.
func pageAt(pages []Page, starts []int, offset int) int {
	page := 1
	for i, s := range starts {
		if s > offset {
			break
		}
		page = pages[i].Number
	}
	return page
}

// pageRef names a chunk by the pages it spans.
func pageRef(first, last int) string {
	if last != first {
		return fmt.Sprintf("pages %d-%d", first, last)
	}
	return fmt.Sprintf("page %d", first)
}

// pageRangeChunks is the fallback grouping for unnumbered sources.
func pageRangeChunks(pages []Page) []RawChunk {
	var chunks []RawChunk
	for i := 0; i < len(pages); i += fallbackPageSpan {
		end := i + fallbackPageSpan
		if end > len(pages) {
			end = len(pages)
		}
		window := pages[i:end]

		var b strings.Builder
		for _, p := range window {
			for _, line := range p.Lines {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		body := strings.TrimSpace(b.String())
		if body == "" {
			continue
		}

		first, last := window[0].Number, window[len(window)-1].Number
		chunks = append(chunks, RawChunk{Ref: pageRef(first, last), Text: body, PageStart: first, PageEnd: last})
	}
	return chunks
}
