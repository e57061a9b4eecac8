// Package store persists document chunks with their embeddings and serves
// similarity search over them.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store cannot be reached. Every
// operation fails with it when the store is down; callers surface it as a
// service-level failure rather than retrying.
var ErrUnavailable = errors.New("vector store unavailable")

// Metadata is attached to every chunk of a document. All chunks sharing a
// DocumentID carry identical Filename, FileSize, UploadedAt and Category;
// the store does not enforce this, ingestion guarantees it by stamping the
// whole batch from one document record.
type Metadata struct {
	DocumentID string
	Filename   string
	FileSize   int64
	UploadedAt time.Time
	Category   string
	ChunkIndex int
}

// Chunk is one retrievable segment of a document.
type Chunk struct {
	ID       string
	Content  string
	Metadata Metadata
}

// SearchResult is a chunk matched by similarity search. Relevance is
// 1 - distance, clamped to [0,1]; it is only comparable within one query's
// result set.
type SearchResult struct {
	ID        string
	Content   string
	Metadata  Metadata
	Relevance float64
}

// DocumentInfo summarises one ingested document, reconstructed by grouping
// stored chunks.
type DocumentInfo struct {
	ID         string
	Name       string
	Type       string
	Size       int64
	UploadedAt time.Time
	Category   string
	Chunks     int
}

// Health reports store reachability and index size.
type Health struct {
	Chunks    int
	Documents int
}

// Store is the persistent chunk index. Implementations must support
// concurrent readers and make Upsert of one document's batch atomic from
// the caller's perspective.
type Store interface {
	// Upsert adds chunks under their ids; re-adding an id overwrites the
	// prior content.
	Upsert(ctx context.Context, chunks []Chunk) error

	// Search returns at most topK chunks ordered by decreasing relevance,
	// optionally pre-filtered to a category. Ties in distance break by
	// insertion order, first-indexed wins.
	Search(ctx context.Context, query string, topK int, categoryFilter string) ([]SearchResult, error)

	// ListDocuments reconstructs one summary per distinct document id.
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)

	// DeleteDocument removes every chunk of the document. A document id
	// with no chunks is a silent no-op.
	DeleteDocument(ctx context.Context, documentID string) error

	// Health reports reachability and chunk/document counts.
	Health(ctx context.Context) (Health, error)

	// Close releases the underlying connections.
	Close()
}
