// Package rag orchestrates retrieval and grounded answer composition.
package rag

// SourceDocument is one cited source in a query response. Page is nil when
// no page marker could be recovered from the chunk content.
type SourceDocument struct {
	Document  string  `json:"document"`
	Page      *int    `json:"page"`
	Relevance float64 `json:"relevance"`
	Content   string  `json:"content"`
}

// QueryResponse is the answer surface returned for a query. It is built
// fresh per query and never persisted. Retrieval and generation failures
// degrade into a well-formed response instead of an error.
type QueryResponse struct {
	Answer         string           `json:"answer"`
	Sources        []SourceDocument `json:"sources"`
	Category       string           `json:"category"`
	Confidence     float64          `json:"confidence"`
	ProcessingTime float64          `json:"processing_time"`
}
