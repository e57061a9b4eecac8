package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrkb/assistant/internal/category"
	"github.com/hrkb/assistant/internal/store"
)

// mockGenerator implements Generator for testing.
type mockGenerator struct {
	answer    string
	err       error
	gotPrompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.gotPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func newComposer(gen Generator) *Composer {
	return NewComposer(gen, category.NewKeywordClassifier())
}

func namedResult(filename, content string, rel float64) store.SearchResult {
	return store.SearchResult{
		Content:   content,
		Relevance: rel,
		Metadata:  store.Metadata{Filename: filename},
	}
}

func TestComposeNoResultsShortCircuits(t *testing.T) {
	gen := &mockGenerator{answer: "should not be called"}
	c := newComposer(gen)

	resp := c.Compose(context.Background(), "What is the PTO policy?", nil)
	assert.Contains(t, resp.Answer, "couldn't find relevant information")
	assert.Equal(t, category.Unknown, resp.Category)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, gen.gotPrompt, "generator must not be invoked for empty results")
}

func TestComposePromptFraming(t *testing.T) {
	gen := &mockGenerator{answer: "Employees accrue 15 days."}
	c := newComposer(gen)

	results := []store.SearchResult{
		namedResult("leave.pdf", "Vacation accrues at 1.25 days per month.", 0.9),
		namedResult("handbook.pdf", "Carryover is capped at 5 days.", 0.8),
	}
	resp := c.Compose(context.Background(), "How much vacation do I get?", results)
	require.Equal(t, "Employees accrue 15 days.", resp.Answer)

	assert.Contains(t, gen.gotPrompt, "[Source 1: leave.pdf]\nVacation accrues at 1.25 days per month.")
	assert.Contains(t, gen.gotPrompt, "[Source 2: handbook.pdf]\nCarryover is capped at 5 days.")
	assert.Contains(t, gen.gotPrompt, "based ONLY on the provided HR document context")
	assert.Contains(t, gen.gotPrompt, "Question: How much vacation do I get?")
}

func TestComposeContextUsesAtMostFiveResults(t *testing.T) {
	gen := &mockGenerator{answer: "ok"}
	c := newComposer(gen)

	results := make([]store.SearchResult, 7)
	for i := range results {
		results[i] = namedResult("doc.pdf", "content", 0.5)
	}
	c.Compose(context.Background(), "q", results)
	assert.Contains(t, gen.gotPrompt, "[Source 5: doc.pdf]")
	assert.NotContains(t, gen.gotPrompt, "[Source 6:")
}

func TestComposeSources(t *testing.T) {
	gen := &mockGenerator{answer: "ok"}
	c := newComposer(gen)

	long := strings.Repeat("a", 250)
	results := []store.SearchResult{
		namedResult("leave.pdf", "[Page 3]\nVacation policy details.", 0.91),
		namedResult("handbook.pdf", long, 0.84),
		namedResult("", "no filename recorded", 0.7),
		namedResult("extra.pdf", "never cited", 0.6),
	}

	resp := c.Compose(context.Background(), "vacation?", results)
	require.Len(t, resp.Sources, 3)

	require.NotNil(t, resp.Sources[0].Page)
	assert.Equal(t, 3, *resp.Sources[0].Page)
	assert.Equal(t, "leave.pdf", resp.Sources[0].Document)

	assert.Nil(t, resp.Sources[1].Page)
	assert.Len(t, resp.Sources[1].Content, 203)
	assert.True(t, strings.HasSuffix(resp.Sources[1].Content, "..."))

	assert.Equal(t, "Unknown Document", resp.Sources[2].Document)
}

func TestComposeGenerationFailureDegrades(t *testing.T) {
	gen := &mockGenerator{err: errors.New("model timed out")}
	c := newComposer(gen)

	results := []store.SearchResult{namedResult("doc.pdf", "content", 0.9)}
	resp := c.Compose(context.Background(), "q", results)

	assert.Contains(t, resp.Answer, "model timed out")
	assert.Equal(t, category.Error, resp.Category)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Empty(t, resp.Sources)
}

func TestComposeCategorisesQuery(t *testing.T) {
	gen := &mockGenerator{answer: "ok"}
	c := newComposer(gen)

	results := []store.SearchResult{namedResult("doc.pdf", "content", 0.9)}
	resp := c.Compose(context.Background(), "how does the 401k match my 401k contributions", results)
	assert.Equal(t, "benefits", resp.Category)
}

func TestExtractPage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *int
	}{
		{"marker present", "[Page 12]\nsome text", intPtr(12)},
		{"marker mid-content", "intro\n[Page 4]\nbody", intPtr(4)},
		{"no marker", "plain text", nil},
		{"unterminated marker", "[Page 9", nil},
		{"non-numeric page", "[Page ix]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractPage(tt.content)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func intPtr(v int) *int { return &v }
