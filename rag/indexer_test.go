package rag_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/mock"
	"github.com/fwojciec/gias/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRepo = gias.Repository{Owner: "psf", Name: "requests"}

func lengthEmbedder() *mock.Embedder {
	return &mock.Embedder{
		EmbedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = []float32{float32(len(text))}
			}
			return out, nil
		},
	}
}

func docsLoader(docs ...gias.Document) *mock.RepositoryLoader {
	return &mock.RepositoryLoader{
		LoadFn: func(context.Context, gias.Repository) ([]gias.Document, error) {
			return docs, nil
		},
	}
}

func TestIndexer_Build(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var stored []gias.Chunk
	store := &mock.ChunkStore{
		ReplaceFn: func(_ context.Context, repo gias.Repository, chunks []gias.Chunk) error {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, testRepo, repo)
			stored = chunks
			return nil
		},
	}
	loader := docsLoader(
		gias.Document{Path: "api.py", Content: "aaaa\n\nbbbb\n\ncccc"},
		gias.Document{Path: "models.py", Content: "x = 1"},
	)

	ix := rag.NewIndexer(loader, lengthEmbedder(), store,
		rag.WithSplitter(rag.NewSplitter(10, 0)),
		rag.WithBatchSize(1),
		rag.WithWorkers(2),
	)

	n, err := ix.Build(context.Background(), testRepo)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, stored, 3)
	assert.Equal(t, "api.py", stored[0].Source)
	assert.Equal(t, "aaaa\n\nbbbb", stored[0].Content)
	assert.Equal(t, "psf/requests:api.py:0", stored[0].ID)
	assert.Equal(t, "models.py", stored[2].Source)
	for _, c := range stored {
		assert.Equal(t, []float32{float32(len(c.Content))}, c.Embedding)
	}
}

func TestIndexer_Build_NoDocuments(t *testing.T) {
	t.Parallel()

	store := &mock.ChunkStore{
		ReplaceFn: func(context.Context, gias.Repository, []gias.Chunk) error {
			t.Fatal("store must not be touched")
			return nil
		},
	}

	_, err := rag.NewIndexer(docsLoader(), lengthEmbedder(), store).Build(context.Background(), testRepo)

	assert.ErrorIs(t, err, gias.ErrNoDocuments)
}

func TestIndexer_Build_EmbedError(t *testing.T) {
	t.Parallel()

	embedErr := errors.New("ollama down")
	embedder := &mock.Embedder{
		EmbedFn: func(context.Context, []string) ([][]float32, error) { return nil, embedErr },
	}
	store := &mock.ChunkStore{
		ReplaceFn: func(context.Context, gias.Repository, []gias.Chunk) error {
			t.Fatal("store must not be touched")
			return nil
		},
	}
	loader := docsLoader(gias.Document{Path: "a.py", Content: "x = 1"})

	_, err := rag.NewIndexer(loader, embedder, store).Build(context.Background(), testRepo)

	assert.ErrorIs(t, err, embedErr)
}

func TestIndexer_Build_LoadError(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("clone failed")
	loader := &mock.RepositoryLoader{
		LoadFn: func(context.Context, gias.Repository) ([]gias.Document, error) { return nil, loadErr },
	}

	_, err := rag.NewIndexer(loader, lengthEmbedder(), &mock.ChunkStore{}).Build(context.Background(), testRepo)

	assert.ErrorIs(t, err, loadErr)
}

func TestRetriever_Retrieve(t *testing.T) {
	t.Parallel()

	store := &mock.ChunkStore{
		SearchFn: func(_ context.Context, repo gias.Repository, vector []float32, k int) ([]gias.Chunk, error) {
			assert.Equal(t, testRepo, repo)
			assert.Equal(t, []float32{5}, vector)
			assert.Equal(t, 3, k)
			return []gias.Chunk{{ID: "1", Source: "api.py", Content: "def get()"}}, nil
		},
	}

	got, err := rag.NewRetriever(lengthEmbedder(), store).Retrieve(context.Background(), testRepo, "query", 3)

	require.NoError(t, err)
	assert.Equal(t, []gias.Snippet{{Source: "api.py", Content: "def get()"}}, got)
}

func TestRetriever_Retrieve_SearchError(t *testing.T) {
	t.Parallel()

	searchErr := errors.New("db locked")
	store := &mock.ChunkStore{
		SearchFn: func(context.Context, gias.Repository, []float32, int) ([]gias.Chunk, error) {
			return nil, searchErr
		},
	}

	_, err := rag.NewRetriever(lengthEmbedder(), store).Retrieve(context.Background(), testRepo, "q", 3)

	assert.ErrorIs(t, err, searchErr)
}
