package structurer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
)

// Extractor produces a model completion for an extraction prompt.
type Extractor interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultAttempts bounds extraction retries per chunk before the chunk is
// marked unresolved.
const DefaultAttempts = 3

const extractionPrompt = `You are a legal document parser. Normalize the following section of a law
document into a single structured record.

Identify:
- the law number (hierarchical, e.g. 1, 1.1, 3.1.1)
- the category the law belongs to (e.g. Peace, Widows, Theft)
- a short title
- the full law text

Section reference: %s

Section text:
%s

IMPORTANT: Return ONLY valid JSON, no explanatory text before or after.
Return a single JSON object with this exact structure:
{
  "law_number": "3.1.1",
  "category": "Widows",
  "title": "Maintenance of Widow",
  "text": "A widow shall be maintained by..."
}`

// recordJSON mirrors the JSON schema the extraction model must return.
type recordJSON struct {
	LawNumber string `json:"law_number"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Text      string `json:"text"`
}

// Structurer normalizes candidate chunks into validated law documents.
// Extraction output is untrusted: it is parsed and schema-checked before
// acceptance, and a chunk that never validates within the attempt bound is
// reported unresolved rather than producing a partial document.
type Structurer struct {
	extractor Extractor
	attempts  int
	logger    *slog.Logger
}

// New creates a Structurer.
func New(extractor Extractor, logger *slog.Logger) *Structurer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Structurer{extractor: extractor, attempts: DefaultAttempts, logger: logger}
}

// Structure turns one candidate chunk into a validated LawDocument.
// Failed extractions are retried up to the attempt bound; exhausting it
// returns an error matching domain.ErrUnresolved.
func (s *Structurer) Structure(ctx context.Context, chunk RawChunk) (domain.LawDocument, error) {
	prompt := fmt.Sprintf(extractionPrompt, chunk.Ref, chunk.Text)

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.LawDocument{}, err
		}

		out, err := s.extractor.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			s.logger.Warn("structurer: extraction call failed",
				"chunk", chunk.Ref, "attempt", attempt, "error", err)
			continue
		}

		doc, err := parseRecord(out)
		if err != nil {
			lastErr = err
			s.logger.Warn("structurer: extraction rejected",
				"chunk", chunk.Ref, "attempt", attempt, "error", err)
			continue
		}
		return doc, nil
	}

	return domain.LawDocument{}, fmt.Errorf("structurer: chunk %q after %d attempts: %w: %v",
		chunk.Ref, s.attempts, domain.ErrUnresolved, lastErr)
}

// parseRecord decodes and validates one extraction response.
func parseRecord(raw string) (domain.LawDocument, error) {
	var rec recordJSON
	if err := json.Unmarshal([]byte(stripFences(raw)), &rec); err != nil {
		return domain.LawDocument{}, fmt.Errorf("structurer: decode extraction: %w", err)
	}

	doc := domain.LawDocument{
		ID:        domain.DocID(rec.LawNumber),
		LawNumber: rec.LawNumber,
		Category:  strings.TrimSpace(rec.Category),
		Title:     strings.TrimSpace(rec.Title),
		Text:      strings.TrimSpace(rec.Text),
	}
	if err := domain.ValidateLawDocument(doc); err != nil {
		return domain.LawDocument{}, err
	}
	return doc, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(raw string) string {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```json")
		out = strings.TrimPrefix(out, "```")
		if idx := strings.LastIndex(out, "```"); idx != -1 {
			out = out[:idx]
		}
	}
	return strings.TrimSpace(out)
}
