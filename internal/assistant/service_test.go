package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrkb/assistant/internal/category"
	"github.com/hrkb/assistant/internal/chunker"
	"github.com/hrkb/assistant/internal/documents"
	"github.com/hrkb/assistant/internal/rag"
	"github.com/hrkb/assistant/internal/store"
)

// memoryStore is a store.Store double keeping chunks in insertion order.
// Search returns matching chunks with synthetic relevance, filtered by
// category when requested.
type memoryStore struct {
	chunks []store.Chunk

	upsertErr error
	searchErr error
	listErr   error
	deleteErr error
	healthErr error
}

func (m *memoryStore) Upsert(_ context.Context, chunks []store.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, c := range chunks {
		replaced := false
		for i := range m.chunks {
			if m.chunks[i].ID == c.ID {
				m.chunks[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			m.chunks = append(m.chunks, c)
		}
	}
	return nil
}

func (m *memoryStore) Search(_ context.Context, _ string, topK int, categoryFilter string) ([]store.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var results []store.SearchResult
	for _, c := range m.chunks {
		if categoryFilter != "" && c.Metadata.Category != categoryFilter {
			continue
		}
		results = append(results, store.SearchResult{
			ID:        c.ID,
			Content:   c.Content,
			Metadata:  c.Metadata,
			Relevance: 0.9,
		})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (m *memoryStore) ListDocuments(_ context.Context) ([]store.DocumentInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var metas []store.Metadata
	for _, c := range m.chunks {
		metas = append(metas, c.Metadata)
	}
	return store.GroupDocuments(metas), nil
}

func (m *memoryStore) DeleteDocument(_ context.Context, documentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.Metadata.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *memoryStore) Health(_ context.Context) (store.Health, error) {
	if m.healthErr != nil {
		return store.Health{}, m.healthErr
	}
	docs := map[string]bool{}
	for _, c := range m.chunks {
		docs[c.Metadata.DocumentID] = true
	}
	return store.Health{Chunks: len(m.chunks), Documents: len(docs)}, nil
}

func (m *memoryStore) Close() {}

type stubGenerator struct {
	answer string
	err    error
}

func (g *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.answer, g.err
}

func newService(ms *memoryStore, gen rag.Generator) *Service {
	classifier := category.NewKeywordClassifier()
	return New(
		documents.NewProcessor(chunker.New(), classifier),
		ms,
		rag.NewRetriever(ms, rag.DefaultTopK),
		rag.NewComposer(gen, classifier),
		nil,
	)
}

func TestIngestAndList(t *testing.T) {
	ms := &memoryStore{}
	svc := newService(ms, &stubGenerator{answer: "ok"})

	text := strings.Repeat("Our 401k plan matches 401k contributions up to 4 percent. ", 40)
	res, err := svc.Ingest(context.Background(), text, "retirement-plan-guide.txt", int64(len(text)))
	require.NoError(t, err)
	assert.NotEmpty(t, res.DocumentID)
	assert.Greater(t, res.ChunksCreated, 1)

	docs, err := svc.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, res.DocumentID, docs[0].ID)
	assert.Equal(t, "retirement-plan-guide.txt", docs[0].Name)
	assert.Equal(t, res.ChunksCreated, docs[0].Chunks)
	assert.Equal(t, "benefits", docs[0].Category)
}

func TestIngestEmptyTextFails(t *testing.T) {
	svc := newService(&memoryStore{}, &stubGenerator{answer: "ok"})
	_, err := svc.Ingest(context.Background(), "", "empty.txt", 0)
	assert.ErrorIs(t, err, documents.ErrNoContent)
}

func TestIngestStoreFailurePropagates(t *testing.T) {
	ms := &memoryStore{upsertErr: store.ErrUnavailable}
	svc := newService(ms, &stubGenerator{answer: "ok"})

	_, err := svc.Ingest(context.Background(), "vacation vacation sick sick", "leave.txt", 24)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestQueryEmptyIndex(t *testing.T) {
	svc := newService(&memoryStore{}, &stubGenerator{answer: "unused"})

	resp := svc.Query(context.Background(), "What is the PTO policy?", 0, "")
	assert.Contains(t, resp.Answer, "couldn't find relevant information")
	assert.Equal(t, category.Unknown, resp.Category)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Empty(t, resp.Sources)
	assert.GreaterOrEqual(t, resp.ProcessingTime, 0.0)
}

func TestQueryStoreFailureDegradesInBand(t *testing.T) {
	ms := &memoryStore{searchErr: store.ErrUnavailable}
	svc := newService(ms, &stubGenerator{answer: "unused"})

	resp := svc.Query(context.Background(), "anything", 5, "")
	assert.Contains(t, resp.Answer, "error while processing your question")
	assert.Equal(t, category.Error, resp.Category)
	assert.Equal(t, 0.0, resp.Confidence)
}

func TestQueryCategoryFilter(t *testing.T) {
	ms := &memoryStore{}
	svc := newService(ms, &stubGenerator{answer: "The match is 4 percent."})
	ctx := context.Background()

	benefitsText := strings.Repeat("The 401k match applies to 401k deferrals. ", 30)
	_, err := svc.Ingest(ctx, benefitsText, "a-plan.txt", 100)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, benefitsText, "b-plan.txt", 100)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "harassment and discrimination reporting steps", "conduct.txt", 100)
	require.NoError(t, err)

	resp := svc.Query(ctx, "How much is the 401k match on my 401k?", 10, "benefits")
	require.NotEmpty(t, resp.Sources)
	for _, src := range resp.Sources {
		assert.NotEqual(t, "conduct.txt", src.Document)
	}
	assert.Equal(t, "The match is 4 percent.", resp.Answer)
	assert.Equal(t, "benefits", resp.Category)
}

func TestDeleteDocumentCompleteness(t *testing.T) {
	ms := &memoryStore{}
	svc := newService(ms, &stubGenerator{answer: "ok"})
	ctx := context.Background()

	res, err := svc.Ingest(ctx, strings.Repeat("vacation vacation sick days. ", 50), "leave.txt", 100)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDocument(ctx, res.DocumentID))

	docs, err := svc.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	results, err := ms.Search(ctx, "vacation", 10, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteUnknownDocumentIsNoOp(t *testing.T) {
	svc := newService(&memoryStore{}, &stubGenerator{answer: "ok"})
	assert.NoError(t, svc.DeleteDocument(context.Background(), "no-such-id"))
}

func TestHealth(t *testing.T) {
	ms := &memoryStore{}
	svc := newService(ms, &stubGenerator{answer: "ok"})
	ctx := context.Background()

	status := svc.Health(ctx)
	assert.Equal(t, "healthy", status.Status)

	_, err := svc.Ingest(ctx, "vacation vacation sick sick leave days", "leave.txt", 10)
	require.NoError(t, err)
	status = svc.Health(ctx)
	assert.Contains(t, status.VectorStore, "1 documents")

	ms.healthErr = errors.New("connection refused")
	status = svc.Health(ctx)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Contains(t, status.VectorStore, "connection refused")
}
