package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
)

// DocRetriever retrieves the laws most similar to a query.
type DocRetriever interface {
	Retrieve(ctx context.Context, query string) (domain.RetrievedSet, error)
}

// AnswerSynthesizer produces a grounded answer from a retrieved set.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, query string, retrieved domain.RetrievedSet) (domain.Answer, error)
}

// Service is the query-path facade: validate, retrieve, synthesize.
type Service struct {
	retriever   DocRetriever
	synthesizer AnswerSynthesizer
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(retriever DocRetriever, synthesizer AnswerSynthesizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{retriever: retriever, synthesizer: synthesizer, logger: logger}
}

// Answer handles one question end to end. An invalid query fails fast
// before any retrieval or model work; upstream failures propagate to the
// caller unchanged.
func (s *Service) Answer(ctx context.Context, query string) (domain.Answer, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return domain.Answer{}, err
	}

	start := time.Now()
	retrieved, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return domain.Answer{}, err
	}

	answer, err := s.synthesizer.Synthesize(ctx, query, retrieved)
	if err != nil {
		return domain.Answer{}, err
	}

	s.logger.Info("rag: answered",
		"retrieved", len(retrieved),
		"citations", len(answer.Citations),
		"duration", time.Since(start))
	return answer, nil
}
