package rag

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
)

// Generator produces a model completion for a synthesis prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NoRelevantLawAnswer is returned verbatim when retrieval finds nothing;
// no model call is made in that case.
const NoRelevantLawAnswer = "No relevant law was found for this question."

const synthesisPrompt = `You are a legal assistant answering questions strictly from the law excerpts
below. Do not use any outside knowledge. If the excerpts do not answer the
question, say so.

When you rely on a law, reference it inline by its number in square
brackets, e.g. [3.1.1].

Law excerpts:
%s

Question: %s

Answer:`

// refPattern matches inline law references like [3.1.1] in model output.
var refPattern = regexp.MustCompile(`\[(\d+(?:\.\d+)*)\]`)

// Synthesizer turns a retrieved set into a grounded answer. Citations are
// taken from the retrieved set itself, never from the model output, so an
// answer can only cite documents retrieval actually produced.
type Synthesizer struct {
	gen    Generator
	logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(gen Generator, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{gen: gen, logger: logger}
}

// Synthesize generates an answer grounded in the retrieved set. An empty
// set yields the fixed no-result answer; a generation failure is reported,
// never papered over with an uncited reply.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, retrieved domain.RetrievedSet) (domain.Answer, error) {
	if len(retrieved) == 0 {
		return domain.Answer{Text: NoRelevantLawAnswer, Citations: []domain.Citation{}}, nil
	}

	out, err := s.gen.Generate(ctx, fmt.Sprintf(synthesisPrompt, renderContext(retrieved), query))
	if err != nil {
		return domain.Answer{}, &domain.UpstreamError{Op: "generate answer", Err: err}
	}

	text := s.filterReferences(strings.TrimSpace(out), retrieved)

	citations := make([]domain.Citation, 0, len(retrieved))
	for _, sc := range retrieved {
		citations = append(citations, domain.Citation{
			Source: sc.Doc.CitationSource(),
			Text:   sc.Doc.Excerpt(),
		})
	}
	return domain.Answer{Text: text, Citations: citations}, nil
}

// renderContext formats the retrieved laws for the synthesis prompt.
func renderContext(retrieved domain.RetrievedSet) string {
	var b strings.Builder
	for _, sc := range retrieved {
		fmt.Fprintf(&b, "%s\n%s\n\n", sc.Doc.CitationSource(), sc.Doc.Text)
	}
	return strings.TrimSpace(b.String())
}

// filterReferences strips inline references to laws outside the retrieved
// set. The model is instructed to reference only the provided excerpts;
// anything else is a hallucination and must not reach the caller.
func (s *Synthesizer) filterReferences(text string, retrieved domain.RetrievedSet) string {
	return refPattern.ReplaceAllStringFunc(text, func(ref string) string {
		num := refPattern.FindStringSubmatch(ref)[1]
		if retrieved.Contains(num) {
			return ref
		}
		s.logger.Warn("synthesizer: dropped reference outside retrieved set", "law", num)
		return ""
	})
}
