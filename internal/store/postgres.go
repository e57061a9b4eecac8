package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Embedder turns text into a vector. The store embeds query and chunk text
// internally so callers stay text-in, text-out.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

// Postgres is the pgvector-backed chunk index.
type Postgres struct {
	pool *pgxpool.Pool
	emb  Embedder
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to Postgres and verifies the connection.
func NewPostgres(ctx context.Context, connString string, emb Embedder) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", unavailable(err))
	}

	return &Postgres{pool: pool, emb: emb}, nil
}

// Init creates the pgvector extension, the chunk table and its indexes.
// The seq column records insertion order and is the distance tie-breaker.
func (s *Postgres) Init(ctx context.Context, dimensions int) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", unavailable(err))
	}

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS hr_chunks (
            seq BIGSERIAL,
            chunk_id TEXT PRIMARY KEY,
            content TEXT NOT NULL,
            document_id TEXT NOT NULL,
            filename TEXT NOT NULL,
            file_size BIGINT NOT NULL,
            uploaded_at TIMESTAMPTZ NOT NULL,
            category TEXT NOT NULL,
            chunk_index INT NOT NULL,
            embedding vector(%d) NOT NULL
        )
    `, dimensions))
	if err != nil {
		return fmt.Errorf("failed to create hr_chunks table: %w", unavailable(err))
	}

	_, err = s.pool.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS hr_chunks_embedding_idx ON hr_chunks
        USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
    `)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", unavailable(err))
	}

	_, err = s.pool.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS hr_chunks_document_id_idx ON hr_chunks (document_id);
        CREATE INDEX IF NOT EXISTS hr_chunks_category_idx ON hr_chunks (category);
    `)
	if err != nil {
		return fmt.Errorf("failed to create metadata indexes: %w", unavailable(err))
	}

	return nil
}

// Upsert embeds and writes the chunk batch inside one transaction, so a
// document either appears completely or not at all.
func (s *Postgres) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors := make([]pgvector.Vector, len(chunks))
	for i, c := range chunks {
		vec, err := s.emb.Embed(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		vectors[i] = vec
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", unavailable(err))
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(`
            INSERT INTO hr_chunks
                (chunk_id, content, document_id, filename, file_size, uploaded_at, category, chunk_index, embedding)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            ON CONFLICT (chunk_id) DO UPDATE SET
                content = EXCLUDED.content,
                document_id = EXCLUDED.document_id,
                filename = EXCLUDED.filename,
                file_size = EXCLUDED.file_size,
                uploaded_at = EXCLUDED.uploaded_at,
                category = EXCLUDED.category,
                chunk_index = EXCLUDED.chunk_index,
                embedding = EXCLUDED.embedding
        `,
			c.ID, c.Content, c.Metadata.DocumentID, c.Metadata.Filename,
			c.Metadata.FileSize, c.Metadata.UploadedAt, c.Metadata.Category,
			c.Metadata.ChunkIndex, vectors[i],
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to upsert chunk %d: %w", i, unavailable(err))
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to flush chunk batch: %w", unavailable(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunk batch: %w", unavailable(err))
	}
	return nil
}

// Search embeds the query and runs cosine nearest-neighbour retrieval.
// Equal distances resolve by insertion order via seq.
func (s *Postgres) Search(ctx context.Context, query string, topK int, categoryFilter string) ([]SearchResult, error) {
	vec, err := s.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	sql := `
        SELECT chunk_id, content, document_id, filename, file_size, uploaded_at,
               category, chunk_index, embedding <=> $1 AS distance
        FROM hr_chunks`
	args := []any{vec}
	if categoryFilter != "" {
		sql += ` WHERE category = $2`
		args = append(args, categoryFilter)
	}
	sql += fmt.Sprintf(` ORDER BY distance, seq LIMIT $%d`, len(args)+1)
	args = append(args, topK)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", unavailable(err))
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var distance float64
		if err := rows.Scan(
			&r.ID, &r.Content, &r.Metadata.DocumentID, &r.Metadata.Filename,
			&r.Metadata.FileSize, &r.Metadata.UploadedAt, &r.Metadata.Category,
			&r.Metadata.ChunkIndex, &distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		r.Relevance = relevance(distance)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", unavailable(err))
	}
	return results, nil
}

// ListDocuments loads chunk metadata in insertion order and groups it into
// per-document summaries.
func (s *Postgres) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT document_id, filename, file_size, uploaded_at, category, chunk_index
        FROM hr_chunks ORDER BY seq
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", unavailable(err))
	}
	defer rows.Close()

	var metas []Metadata
	for rows.Next() {
		var m Metadata
		if err := rows.Scan(&m.DocumentID, &m.Filename, &m.FileSize, &m.UploadedAt, &m.Category, &m.ChunkIndex); err != nil {
			return nil, fmt.Errorf("failed to scan chunk metadata: %w", err)
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk metadata: %w", unavailable(err))
	}

	return GroupDocuments(metas), nil
}

// DeleteDocument removes every chunk carrying the document id as one batch
// delete by id list. Zero matches is a silent no-op.
func (s *Postgres) DeleteDocument(ctx context.Context, documentID string) error {
	rows, err := s.pool.Query(ctx, `SELECT chunk_id FROM hr_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to find document chunks: %w", unavailable(err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read chunk ids: %w", unavailable(err))
	}
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM hr_chunks WHERE chunk_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", unavailable(err))
	}
	return nil
}

// Health pings the store and counts chunks and distinct documents.
func (s *Postgres) Health(ctx context.Context) (Health, error) {
	var h Health
	err := s.pool.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(DISTINCT document_id) FROM hr_chunks
    `).Scan(&h.Chunks, &h.Documents)
	if err != nil {
		return Health{}, fmt.Errorf("failed to count chunks: %w", unavailable(err))
	}
	return h, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// relevance converts a cosine distance into the [0,1] score exposed on
// search results.
func relevance(distance float64) float64 {
	return math.Max(0, math.Min(1, 1-distance))
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
