// Package assistant wires the ingestion and query pipelines behind the
// caller-facing operations, independent of transport.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrkb/assistant/internal/documents"
	"github.com/hrkb/assistant/internal/rag"
	"github.com/hrkb/assistant/internal/store"
)

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}

// HealthStatus summarises service health for callers.
type HealthStatus struct {
	Status      string `json:"status"`
	VectorStore string `json:"vector_store"`
}

// Service exposes the assistant operations: ingest, query, list, delete
// and health. Ingestion-path errors are fatal to their request; the query
// path degrades to an in-band error response instead.
type Service struct {
	processor *documents.Processor
	store     store.Store
	retriever *rag.Retriever
	composer  *rag.Composer
	log       *slog.Logger
}

// New creates a service. A nil logger defaults to slog.Default().
func New(processor *documents.Processor, st store.Store, retriever *rag.Retriever, composer *rag.Composer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		processor: processor,
		store:     st,
		retriever: retriever,
		composer:  composer,
		log:       log,
	}
}

// Ingest chunks, categorises and indexes extracted document text. Zero
// chunks is a processing failure, not a silent success.
func (s *Service) Ingest(ctx context.Context, text, filename string, fileSize int64) (IngestResult, error) {
	chunks, documentID, err := s.processor.Process(text, filename, fileSize)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to process %q: %w", filename, err)
	}

	if err := s.store.Upsert(ctx, chunks); err != nil {
		return IngestResult{}, fmt.Errorf("failed to index %q: %w", filename, err)
	}

	s.log.Info("document ingested",
		"filename", filename,
		"document_id", documentID,
		"chunks", len(chunks),
		"category", chunks[0].Metadata.Category,
	)
	return IngestResult{
		DocumentID:    documentID,
		Filename:      filename,
		ChunksCreated: len(chunks),
	}, nil
}

// Query answers a question from indexed chunks. Retrieval or generation
// failures degrade into a valid error response; Query never returns an
// error because a displayable answer is more useful to an end user than a
// transport-level failure.
func (s *Service) Query(ctx context.Context, query string, topK int, categoryFilter string) rag.QueryResponse {
	start := time.Now()

	var resp rag.QueryResponse
	results, err := s.retriever.Retrieve(ctx, query, topK, categoryFilter)
	if err != nil {
		s.log.Error("retrieval failed", "error", err)
		resp = rag.ErrorResponse(fmt.Sprintf("I encountered an error while processing your question: %v", err))
	} else {
		resp = s.composer.Compose(ctx, query, results)
	}

	resp.ProcessingTime = time.Since(start).Seconds()
	return resp
}

// ListDocuments returns one summary per indexed document.
func (s *Service) ListDocuments(ctx context.Context) ([]store.DocumentInfo, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and all its chunks. An unknown id is
// a no-op.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document %q: %w", documentID, err)
	}
	s.log.Info("document deleted", "document_id", documentID)
	return nil
}

// Health reports overall service health from the store's view.
func (s *Service) Health(ctx context.Context) HealthStatus {
	h, err := s.store.Health(ctx)
	if err != nil {
		return HealthStatus{
			Status:      "unhealthy",
			VectorStore: fmt.Sprintf("unhealthy - %v", err),
		}
	}
	return HealthStatus{
		Status:      "healthy",
		VectorStore: fmt.Sprintf("healthy - %d chunks across %d documents", h.Chunks, h.Documents),
	}
}
