package memory

import (
	"context"
	"fmt"
	"strings"
)

// ChunkInserter stores one embedded chunk of a private document.
type ChunkInserter interface {
	InsertChunk(ctx context.Context, ownerID, title, content string, embedding []float32) (string, error)
}

// Ingestor chunks and embeds uploaded documents into the private corpus.
type Ingestor struct {
	embedder Embedder
	store    ChunkInserter
}

func NewIngestor(embedder Embedder, store ChunkInserter) *Ingestor {
	return &Ingestor{embedder: embedder, store: store}
}

// Ingest splits a document, embeds every chunk and stores them under the
// owner. It returns the number of chunks stored.
func (i *Ingestor) Ingest(ctx context.Context, ownerID, title, content string) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("document %q is empty", title)
	}

	chunks := splitText(content, chunkSize, chunkOverlap)
	vectors, err := i.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed document: %w", err)
	}

	for idx, chunk := range chunks {
		if _, err := i.store.InsertChunk(ctx, ownerID, title, chunk, vectors[idx]); err != nil {
			return idx, fmt.Errorf("store chunk %d: %w", idx, err)
		}
	}
	return len(chunks), nil
}
