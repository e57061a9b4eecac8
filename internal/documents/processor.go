package documents

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hrkb/assistant/internal/category"
	"github.com/hrkb/assistant/internal/chunker"
	"github.com/hrkb/assistant/internal/store"
)

// ErrNoContent means extraction produced no chunkable text. Callers treat
// it as a processing failure, not a silent success.
var ErrNoContent = errors.New("document produced no chunks")

// Processor turns extracted document text into a chunk batch stamped with
// shared per-document metadata.
type Processor struct {
	splitter   *chunker.Splitter
	classifier category.Classifier
}

// NewProcessor creates a processor from the given splitter and classifier.
func NewProcessor(splitter *chunker.Splitter, classifier category.Classifier) *Processor {
	return &Processor{splitter: splitter, classifier: classifier}
}

// Process chunks text and returns the batch together with the minted
// document id. The id is unique per ingestion event: re-uploading the same
// file produces a new one, while chunk ids stay stable. Every chunk of the
// batch carries identical filename, size, category and upload timestamp.
func (p *Processor) Process(text, filename string, fileSize int64) ([]store.Chunk, string, error) {
	pieces := p.splitter.Chunk(text, filename)
	if len(pieces) == 0 {
		return nil, "", ErrNoContent
	}

	documentID := uuid.NewString()
	meta := store.Metadata{
		DocumentID: documentID,
		Filename:   filename,
		FileSize:   fileSize,
		UploadedAt: time.Now().UTC(),
		Category:   p.classifier.Classify(filename, text),
	}

	chunks := make([]store.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		m := meta
		m.ChunkIndex = piece.Index
		chunks = append(chunks, store.Chunk{
			ID:       piece.ID,
			Content:  piece.Content,
			Metadata: m,
		})
	}
	return chunks, documentID, nil
}
