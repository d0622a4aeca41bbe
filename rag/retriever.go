package rag

import (
	"context"
	"fmt"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.Retriever = (*Retriever)(nil)

// Retriever answers similarity queries against the chunk store.
type Retriever struct {
	embedder gias.Embedder
	store    gias.ChunkStore
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder gias.Embedder, store gias.ChunkStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds query and returns the k nearest chunks as snippets.
func (r *Retriever) Retrieve(ctx context.Context, repo gias.Repository, query string, k int) ([]gias.Snippet, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	chunks, err := r.store.Search(ctx, repo, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", repo, err)
	}
	snippets := make([]gias.Snippet, len(chunks))
	for i, c := range chunks {
		snippets[i] = gias.Snippet{Source: c.Source, Content: c.Content}
	}
	return snippets, nil
}
