package structurer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxSourceBytes caps in-memory source loading.
const maxSourceBytes = 200 << 20

// Load reads a source document into pages. PDF files are extracted page by
// page; anything else is treated as plain text.
func Load(path string) ([]Page, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return LoadPDF(path)
	}
	return LoadText(path)
}

// LoadPDF extracts text from a PDF line by line with page tracking.
func LoadPDF(path string) ([]Page, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("structurer: stat %s: %w", path, err)
	}
	if stat.Size() > maxSourceBytes {
		return nil, fmt.Errorf("structurer: %s: pdf too large for in-memory extraction", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("structurer: read %s: %w", path, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("structurer: open pdf %s: %w", path, err)
	}

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A single unreadable page is not fatal to the batch.
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Lines: splitLines(text)})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("structurer: %s: no text extracted", path)
	}
	return pages, nil
}

// LoadText reads a plain-text document as a single page.
func LoadText(path string) ([]Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("structurer: read %s: %w", path, err)
	}
	return []Page{{Number: 1, Lines: splitLines(string(content))}}, nil
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return lines
}
