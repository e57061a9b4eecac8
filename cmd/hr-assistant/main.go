package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hrkb/assistant/config"
	"github.com/hrkb/assistant/internal/assistant"
	"github.com/hrkb/assistant/internal/category"
	"github.com/hrkb/assistant/internal/chunker"
	"github.com/hrkb/assistant/internal/documents"
	"github.com/hrkb/assistant/internal/embeddings"
	"github.com/hrkb/assistant/internal/ollama"
	"github.com/hrkb/assistant/internal/rag"
	"github.com/hrkb/assistant/internal/server"
	"github.com/hrkb/assistant/internal/store"
)

func main() {
	var (
		migrateFlag = flag.Bool("migrate", false, "Initialize database schema and exit")
		addrFlag    = flag.String("addr", "", "HTTP listen address (overrides config)")
		ingestFlag  = flag.String("ingest", "", "Ingest a document from the given path and exit")
		queryFlag   = flag.String("query", "", "Answer a single question and exit")
		topKFlag    = flag.Int("top-k", 0, "Number of chunks to retrieve for -query")
		catFlag     = flag.String("category", "", "Category filter for -query")
	)
	flag.Parse()

	// Local development loads env vars from .env; a missing file is fine.
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	ctx := context.Background()

	embedder := embeddings.NewTextEmbedder(cfg.Ollama.BaseURL, cfg.Embeddings.TextModel, cfg.Embeddings.Dimensions)
	st, err := store.NewPostgres(ctx, cfg.Database.ConnectionString, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *migrateFlag {
		if err := st.Init(ctx, embedder.Dimensions()); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Schema initialized successfully")
		return
	}

	classifier := category.NewKeywordClassifier()
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Processing.ChunkSize),
		chunker.WithOverlap(cfg.Processing.ChunkOverlap),
	)
	generator := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.DefaultModel)

	svc := assistant.New(
		documents.NewProcessor(splitter, classifier),
		st,
		rag.NewRetriever(st, cfg.Processing.TopK),
		rag.NewComposer(generator, classifier),
		log,
	)

	switch {
	case *ingestFlag != "":
		if err := ingestFile(ctx, svc, *ingestFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting document: %v\n", err)
			os.Exit(1)
		}
	case *queryFlag != "":
		runQuery(ctx, svc, *queryFlag, *topKFlag, *catFlag)
	default:
		if err := serve(svc, cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error running server: %v\n", err)
			os.Exit(1)
		}
	}
}

// ingestFile extracts text from a local document and indexes it.
func ingestFile(ctx context.Context, svc *assistant.Service, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}

	text, err := documents.Extract(path)
	if err != nil {
		return err
	}

	res, err := svc.Ingest(ctx, text, info.Name(), info.Size())
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %s: %d chunks (document %s)\n", res.Filename, res.ChunksCreated, res.DocumentID)
	return nil
}

func runQuery(ctx context.Context, svc *assistant.Service, query string, topK int, categoryFilter string) {
	resp := svc.Query(ctx, query, topK, categoryFilter)
	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range resp.Sources {
			if src.Page != nil {
				fmt.Printf("  - %s (page %d, relevance %.2f)\n", src.Document, *src.Page, src.Relevance)
			} else {
				fmt.Printf("  - %s (relevance %.2f)\n", src.Document, src.Relevance)
			}
		}
	}
	fmt.Printf("\nCategory: %s  Confidence: %.2f  Time: %.2fs\n", resp.Category, resp.Confidence, resp.ProcessingTime)
}

// serve runs the HTTP API until SIGINT or SIGTERM, then shuts down
// gracefully.
func serve(svc *assistant.Service, cfg *config.Config, log *slog.Logger) error {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(svc, cfg.Paths.DocumentsDir, log).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}
	return nil
}
