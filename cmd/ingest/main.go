// Command ingest builds the law corpus: it loads a source document, splits
// it into candidate sections, structures and embeds each law, and writes
// the versioned corpus artifact the API serves from.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/LexiconAI/lexicon-mvp/engine/ingest"
	"github.com/LexiconAI/lexicon-mvp/engine/semantic"
	"github.com/LexiconAI/lexicon-mvp/engine/structurer"
	"github.com/LexiconAI/lexicon-mvp/pkg/fn"
	"github.com/LexiconAI/lexicon-mvp/pkg/gemini"
	"github.com/LexiconAI/lexicon-mvp/pkg/natsutil"
)

const corpusSubject = "lexicon.corpus.rebuilt"

type rebuiltMsg struct {
	Version  string `json:"version"`
	Artifact string `json:"artifact"`
	Size     int    `json:"size"`
}

func main() {
	godotenv.Load()

	var (
		docPath    = flag.String("doc", "laws.pdf", "source law document (.pdf or plain text)")
		outPath    = flag.String("out", "corpus.json", "corpus artifact output path")
		workers    = flag.Int("workers", ingest.DefaultWorkers, "concurrent chunk workers")
		embedModel = flag.String("embed-model", gemini.DefaultEmbedModel, "embedding model version")
		genModel   = flag.String("gen-model", gemini.DefaultGenModel, "extraction model")
		qdrantAddr = flag.String("qdrant", "", "Qdrant gRPC address (empty disables upsert)")
		collection = flag.String("collection", "lexicon", "Qdrant collection name prefix")
		natsURL    = flag.String("nats", "", "NATS URL for rebuild notification (empty disables)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *docPath, *outPath, *workers, *embedModel, *genModel,
		*qdrantAddr, *collection, *natsURL, logger); err != nil {
		logger.Error("ingest failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, docPath, outPath string, workers int,
	embedModel, genModel, qdrantAddr, collection, natsURL string, logger *slog.Logger) error {

	model, err := gemini.New(ctx, gemini.Config{
		APIKey:     os.Getenv("GEMINI_API_KEY"),
		EmbedModel: embedModel,
		GenModel:   genModel,
	}, logger)
	if err != nil {
		return err
	}
	defer model.Close()

	start := time.Now()

	pages, err := structurer.Load(docPath)
	if err != nil {
		return err
	}
	chunks := structurer.SplitSections(pages)
	logger.Info("source loaded", "doc", docPath, "pages", len(pages), "chunks", len(chunks))

	records, summary := ingest.Run(ctx, chunks, ingest.Deps{
		Structurer: structurer.New(model, logger),
		Embedder:   model,
		Workers:    workers,
		Logger:     logger,
	})
	logger.Info("ingestion finished", "summary", summary.String(), "duration", time.Since(start))

	artifact := ingest.BuildArtifact(model.EmbedModelVersion(), records)
	if err := ingest.WriteArtifact(outPath, artifact); err != nil {
		return err
	}
	logger.Info("artifact written",
		"path", outPath, "version", artifact.Version, "records", len(artifact.Records))

	// The new corpus version gets its own collection; the API switches to
	// it only after the rebuild notification below, so the collection its
	// live queries read is never touched.
	if qdrantAddr != "" {
		name := semantic.VersionedCollection(collection, artifact.Version)
		if err := upsertQdrant(ctx, qdrantAddr, name, artifact); err != nil {
			return err
		}
		logger.Info("qdrant collection built", "collection", name)
	}

	if natsURL != "" {
		nc, err := nats.Connect(natsURL, nats.Name("lexicon-ingest"))
		if err != nil {
			return err
		}
		defer nc.Close()
		msg := rebuiltMsg{Version: artifact.Version, Artifact: outPath, Size: len(artifact.Records)}
		if err := natsutil.Publish(ctx, nc, corpusSubject, msg); err != nil {
			return err
		}
		logger.Info("rebuild notification published", "subject", corpusSubject)
	}

	return nil
}

func upsertQdrant(ctx context.Context, addr, collection string, artifact ingest.Artifact) error {
	store, err := semantic.NewStore(addr, collection)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx, artifact.Dimension); err != nil {
		return err
	}
	points := fn.Map(artifact.Records, func(r ingest.Record) semantic.VectorRecord {
		return semantic.VectorRecord{DocID: r.ID, Embedding: r.EmbeddingVector}
	})
	return store.Upsert(ctx, points)
}
