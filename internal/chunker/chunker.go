// Package chunker splits extracted document text into overlapping segments
// with deterministic identifiers suitable for idempotent re-ingestion.
package chunker

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters between
// adjacent chunks.
const DefaultOverlap = 200

// idPrefixLen is how many leading content characters participate in the
// chunk identifier.
const idPrefixLen = 100

// separators are tried from coarsest to finest; a finer one is only used
// when a segment still exceeds the chunk size. The empty string means a
// character-boundary split.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunk is one segment of a document in left-to-right order.
type Chunk struct {
	ID      string
	Index   int
	Content string
}

// Splitter performs recursive character splitting with overlap.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Overlap must leave room for new content in every chunk.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	return s
}

// Chunk splits text into ordered chunks whose identifiers are stable for
// identical (filename, text) input. Empty or whitespace-only text yields
// no chunks; callers treat that as a processing failure.
func (s *Splitter) Chunk(text, filename string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := s.Split(text)
	chunks := make([]Chunk, 0, len(pieces))
	for i, content := range pieces {
		chunks = append(chunks, Chunk{
			ID:      ChunkID(filename, i, content),
			Index:   i,
			Content: content,
		})
	}
	return chunks
}

// Split returns the chunk contents without identity.
func (s *Splitter) Split(text string) []string {
	return s.split(text, separators)
}

// split picks the coarsest separator present in text, partitions on it and
// merges the parts back into chunks. Parts that are still oversized are
// recursively split with the remaining, finer separators.
func (s *Splitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var finer []string
	for i, candidate := range seps {
		if candidate == "" {
			sep = ""
			finer = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			finer = seps[i+1:]
			break
		}
	}

	parts := partition(text, sep)

	var chunks []string
	var fitting []string
	for _, part := range parts {
		if len(part) <= s.chunkSize {
			fitting = append(fitting, part)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting)...)
			fitting = nil
		}
		if len(finer) == 0 {
			// An unbreakable segment is emitted whole, never truncated.
			chunks = append(chunks, part)
			continue
		}
		chunks = append(chunks, s.split(part, finer)...)
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting)...)
	}
	return chunks
}

// partition splits text on sep, keeping the separator attached to the
// preceding part so no characters are lost. An empty sep splits into
// individual characters.
func partition(text, sep string) []string {
	if sep == "" {
		parts := make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	raw := strings.Split(text, sep)
	parts := make([]string, 0, len(raw))
	for i, p := range raw {
		if i < len(raw)-1 {
			p += sep
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// merge greedily packs parts into chunks of at most chunkSize characters.
// When a chunk is emitted, its trailing parts totalling at most overlap
// characters seed the next chunk.
func (s *Splitter) merge(parts []string) []string {
	var chunks []string
	var window []string
	total := 0
	for _, part := range parts {
		if total+len(part) > s.chunkSize && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.overlap || (total+len(part) > s.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, part)
		total += len(part)
	}
	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// ChunkID derives a stable identifier from the document name, the chunk
// position and a prefix of the chunk content, so re-processing identical
// input yields identical ids.
func ChunkID(filename string, index int, content string) string {
	prefix := content
	if len(prefix) > idPrefixLen {
		prefix = prefix[:idPrefixLen]
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d_%s", filename, index, prefix)))
	return hex.EncodeToString(sum[:])
}
