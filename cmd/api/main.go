// Package main implements the Lexicon query API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/LexiconAI/lexicon-mvp/engine/domain"
	"github.com/LexiconAI/lexicon-mvp/engine/ingest"
	"github.com/LexiconAI/lexicon-mvp/engine/rag"
	"github.com/LexiconAI/lexicon-mvp/engine/semantic"
	"github.com/LexiconAI/lexicon-mvp/pkg/gemini"
	"github.com/LexiconAI/lexicon-mvp/pkg/metrics"
	"github.com/LexiconAI/lexicon-mvp/pkg/mid"
	"github.com/LexiconAI/lexicon-mvp/pkg/natsutil"
)

// corpusSubject carries rebuild notifications from the ingest binary.
const corpusSubject = "lexicon.corpus.rebuilt"

// rebuiltMsg is the payload published after a successful corpus build.
type rebuiltMsg struct {
	Version  string `json:"version"`
	Artifact string `json:"artifact"`
	Size     int    `json:"size"`
}

// Config holds all environment-based configuration.
type Config struct {
	Port         string
	GeminiAPIKey string
	EmbedModel   string
	GenModel     string
	ArtifactPath string
	TopK         int
	IndexBackend string // "memory" or "qdrant"
	QdrantURL    string
	Collection   string
	NATSURL      string
	CORSOrigin   string
}

func loadConfig() Config {
	topK, _ := strconv.Atoi(envOr("TOP_K", ""))
	return Config{
		Port:         envOr("PORT", "8080"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		EmbedModel:   envOr("EMBED_MODEL", gemini.DefaultEmbedModel),
		GenModel:     envOr("GEN_MODEL", gemini.DefaultGenModel),
		ArtifactPath: envOr("CORPUS_ARTIFACT", "corpus.json"),
		TopK:         topK,
		IndexBackend: envOr("INDEX_BACKEND", "memory"),
		QdrantURL:    envOr("QDRANT_URL", "localhost:6334"),
		Collection:   envOr("QDRANT_COLLECTION", "lexicon"),
		NATSURL:      os.Getenv("NATS_URL"),
		CORSOrigin:   envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("config: GEMINI_API_KEY: %w", domain.ErrMissingAPIKey)
	}

	// --- Model client ---
	model, err := gemini.New(ctx, gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		EmbedModel: cfg.EmbedModel,
		GenModel:   cfg.GenModel,
	}, logger)
	if err != nil {
		return fmt.Errorf("gemini client: %w", err)
	}
	defer model.Close()

	// --- Published corpus snapshot ---
	published := semantic.NewPublished()
	defer func() {
		if snap := published.Load(); snap != nil {
			if store, ok := snap.Index.(*semantic.Store); ok {
				store.Close()
			}
		}
	}()

	if err := loadCorpus(cfg, published, logger); err != nil {
		// A missing artifact is a valid cold start: serve the fixed
		// no-result answer until a corpus is built.
		logger.Warn("corpus not loaded, starting empty", "path", cfg.ArtifactPath, "err", err)
	}

	// --- Corpus rebuild notifications ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("lexicon-api"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()

		sub, err := natsutil.Subscribe(nc, corpusSubject, func(_ context.Context, msg rebuiltMsg) {
			logger.Info("corpus rebuilt, reloading", "version", msg.Version, "size", msg.Size)
			if err := loadCorpus(cfg, published, logger); err != nil {
				logger.Error("corpus reload failed", "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer sub.Unsubscribe()
	}

	// --- RAG service ---
	retriever := rag.NewRetriever(model, published, cfg.TopK, logger)
	synthesizer := rag.NewSynthesizer(model, logger)
	ragSvc := rag.NewService(retriever, synthesizer, logger)

	// --- Metrics ---
	reg := metrics.New()

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth(published))
	mux.HandleFunc("GET /query", handleQuery(ragSvc, reg, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("lexicon-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// loadCorpus reads the artifact, builds a snapshot, and publishes it. With
// the qdrant backend the snapshot's index is the collection for this
// artifact version; the document table still comes from the artifact.
// Publishing is a single swap, so in-flight queries keep the previous
// version's index and doc table as one consistent pair.
func loadCorpus(cfg Config, published *semantic.Published, logger *slog.Logger) error {
	artifact, err := ingest.ReadArtifact(cfg.ArtifactPath)
	if err != nil {
		return err
	}
	snap, err := ingest.BuildSnapshot(artifact)
	if err != nil {
		return err
	}

	active := ""
	if cfg.IndexBackend == "qdrant" && snap.Size > 0 {
		active = semantic.VersionedCollection(cfg.Collection, artifact.Version)
		store, err := semantic.NewStore(cfg.QdrantURL, active)
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		snap.Index = store
	}

	prev := published.Swap(snap)
	retireStore(prev, active, logger)
	logger.Info("corpus published",
		"version", snap.Version, "size", snap.Size, "model", artifact.Model)
	return nil
}

// retireStore drops the previous snapshot's Qdrant collection once a new
// corpus version is live. A rebuild with the same version keeps its
// collection; everything else is superseded and removed.
func retireStore(prev *semantic.Snapshot, active string, logger *slog.Logger) {
	if prev == nil {
		return
	}
	store, ok := prev.Index.(*semantic.Store)
	if !ok {
		return
	}
	if store.Collection() == active {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.DropCollection(ctx); err != nil {
		logger.Warn("retire collection failed", "collection", store.Collection(), "err", err)
	}
	store.Close()
}

// --- Handlers ---

func handleHealth(published *semantic.Published) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := published.Load()
		resp := map[string]any{"status": "ok", "corpus_size": 0}
		if !snap.Empty() {
			resp["corpus_size"] = snap.Size
			resp["corpus_version"] = snap.Version
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// answerer is the slice of rag.Service the query handler needs.
type answerer interface {
	Answer(ctx context.Context, query string) (domain.Answer, error)
}

// QueryResponse is the JSON response for GET /query.
type QueryResponse struct {
	Query     string            `json:"query"`
	Response  string            `json:"response"`
	Citations []domain.Citation `json:"citations"`
}

func handleQuery(svc answerer, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	total := reg.Counter("lexicon_queries_total", "Queries received.")
	failed := func(kind string) *metrics.Counter {
		return reg.Counter(metrics.WithLabels("lexicon_queries_failed_total", "kind", kind),
			"Queries that returned an error.")
	}
	latency := reg.Histogram("lexicon_query_seconds", "Query latency.", nil)

	return func(w http.ResponseWriter, r *http.Request) {
		total.Inc()
		start := time.Now()
		defer latency.Since(start)

		query := r.URL.Query().Get("query")
		answer, err := svc.Answer(r.Context(), query)
		if err != nil {
			failed(errorKind(err)).Inc()
			writeError(w, logger, err)
			return
		}

		if answer.Citations == nil {
			answer.Citations = []domain.Citation{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(QueryResponse{
			Query:     query,
			Response:  answer.Text,
			Citations: answer.Citations,
		})
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return "invalid"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	default:
		return "internal"
	}
}

// writeError maps domain errors to HTTP statuses. Upstream details stay in
// the log; the client gets a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		http.Error(w, `{"error":"a non-empty query parameter is required"}`, http.StatusBadRequest)
	case errors.Is(err, domain.ErrUpstream):
		logger.Error("upstream model failure", "err", err)
		http.Error(w, `{"error":"upstream model failure"}`, http.StatusBadGateway)
	default:
		logger.Error("query failed", "err", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}
