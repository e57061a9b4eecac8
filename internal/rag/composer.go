package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hrkb/assistant/internal/category"
	"github.com/hrkb/assistant/internal/store"
)

// Generator is the external text-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	// contextResults is how many ranked results feed the prompt context.
	contextResults = 5
	// citedSources is how many sources the response cites.
	citedSources = 3
	// sourcePreviewLen caps the cited content excerpt.
	sourcePreviewLen = 200
)

const noResultsAnswer = "I couldn't find relevant information in the HR documents to answer " +
	"your question. Please try rephrasing your query or contact HR directly."

// answerPrompt instructs the model to answer only from the supplied
// context blocks; the [Source i: filename] framing below matches it.
const answerPrompt = `You are an HR Knowledge Assistant. Answer the following question based ONLY on the provided HR document context.

Guidelines:
- Provide accurate, helpful information based on the context
- If the context doesn't contain enough information, say so clearly
- Be specific about policies, procedures, and requirements
- Use a professional but friendly tone
- Include relevant details like timeframes, requirements, or steps
- If multiple options exist, explain them clearly

Context from HR Documents:
%s

Question: %s

Answer:`

// Composer builds grounded answers from ranked search results.
type Composer struct {
	gen        Generator
	classifier category.Classifier
}

// NewComposer creates a composer over the given generation capability.
func NewComposer(gen Generator, classifier category.Classifier) *Composer {
	return &Composer{gen: gen, classifier: classifier}
}

// Compose turns ranked results into a QueryResponse. Zero results
// short-circuit to a fixed no-information answer without calling the
// generator; a generation failure degrades to an in-band error response.
// Compose never returns an error.
func (c *Composer) Compose(ctx context.Context, query string, results []store.SearchResult) QueryResponse {
	if len(results) == 0 {
		return QueryResponse{
			Answer:   noResultsAnswer,
			Sources:  []SourceDocument{},
			Category: category.Unknown,
		}
	}

	prompt := fmt.Sprintf(answerPrompt, buildContext(results), query)
	answer, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return ErrorResponse(fmt.Sprintf("I encountered an error while processing your question: %v", err))
	}

	return QueryResponse{
		Answer:     answer,
		Sources:    buildSources(results),
		Category:   c.classifier.Classify("", query),
		Confidence: Confidence(results),
	}
}

// ErrorResponse wraps a failure description in a valid, displayable
// response object.
func ErrorResponse(message string) QueryResponse {
	return QueryResponse{
		Answer:   message,
		Sources:  []SourceDocument{},
		Category: category.Error,
	}
}

// buildContext concatenates the top results as labelled source blocks
// separated by blank lines.
func buildContext(results []store.SearchResult) string {
	n := len(results)
	if n > contextResults {
		n = contextResults
	}
	parts := make([]string, 0, n)
	for i, r := range results[:n] {
		name := r.Metadata.Filename
		if name == "" {
			name = "Unknown Document"
		}
		parts = append(parts, fmt.Sprintf("[Source %d: %s]\n%s\n", i+1, name, r.Content))
	}
	return strings.Join(parts, "\n")
}

// buildSources cites the top results, truncating long excerpts.
func buildSources(results []store.SearchResult) []SourceDocument {
	n := len(results)
	if n > citedSources {
		n = citedSources
	}
	sources := make([]SourceDocument, 0, n)
	for _, r := range results[:n] {
		name := r.Metadata.Filename
		if name == "" {
			name = "Unknown Document"
		}
		content := r.Content
		if len(content) > sourcePreviewLen {
			content = content[:sourcePreviewLen] + "..."
		}
		sources = append(sources, SourceDocument{
			Document:  name,
			Page:      extractPage(r.Content),
			Relevance: r.Relevance,
			Content:   content,
		})
	}
	return sources
}

// extractPage scans for a literal "[Page N]" marker injected during PDF
// extraction. It is a best-effort heuristic: any parse failure yields nil
// (page unknown), never an error.
func extractPage(content string) *int {
	start := strings.Index(content, "[Page ")
	if start < 0 {
		return nil
	}
	rest := content[start+len("[Page "):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return nil
	}
	page, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil {
		return nil
	}
	return &page
}
