package memory

import (
	"context"
	"fmt"
)

// ChunkStore searches stored document chunks by embedding.
type ChunkStore interface {
	SimilarChunks(ctx context.Context, ownerID string, queryEmbedding []float32, maxDocs int, scoreThreshold float64) (snippets, refs []string, err error)
}

// DocumentRetriever answers text queries against an owner's private corpus
// by embedding the query and delegating to the chunk store.
type DocumentRetriever struct {
	embedder Embedder
	store    ChunkStore
}

func NewDocumentRetriever(embedder Embedder, store ChunkStore) *DocumentRetriever {
	return &DocumentRetriever{embedder: embedder, store: store}
}

func (r *DocumentRetriever) SimilarChunks(ctx context.Context, ownerID, query string, maxDocs int, scoreThreshold float64) (snippets, refs []string, err error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil, nil
	}
	return r.store.SimilarChunks(ctx, ownerID, vectors[0], maxDocs, scoreThreshold)
}
