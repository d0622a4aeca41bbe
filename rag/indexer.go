package rag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fwojciec/gias"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Indexer defaults.
const (
	DefaultBatchSize = 32
	DefaultWorkers   = 4
)

// Indexer loads a repository, splits it into chunks, embeds them and
// replaces the repository's entries in the chunk store.
type Indexer struct {
	loader    gias.RepositoryLoader
	embedder  gias.Embedder
	store     gias.ChunkStore
	splitter  *Splitter
	batchSize int
	workers   int
	logger    logr.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithSplitter sets the splitter.
func WithSplitter(s *Splitter) IndexerOption {
	return func(ix *Indexer) { ix.splitter = s }
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithWorkers sets the number of concurrent embedding requests.
func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithIndexLogger sets the logger.
func WithIndexLogger(l logr.Logger) IndexerOption {
	return func(ix *Indexer) { ix.logger = l }
}

// NewIndexer creates an Indexer.
func NewIndexer(loader gias.RepositoryLoader, embedder gias.Embedder, store gias.ChunkStore, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		loader:    loader,
		embedder:  embedder,
		store:     store,
		splitter:  NewSplitter(DefaultChunkSize, DefaultChunkOverlap),
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		logger:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Build rebuilds the index for repo and returns the number of documents indexed.
// The store is left untouched when loading or embedding fails.
func (ix *Indexer) Build(ctx context.Context, repo gias.Repository) (int, error) {
	docs, err := ix.loader.Load(ctx, repo)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w: %w", repo, gias.ErrUpstream, err)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%s: %w", repo, gias.ErrNoDocuments)
	}
	ix.logger.Info("loaded repository", "repository", repo.FullName(), "documents", len(docs))

	var chunks []gias.Chunk
	for _, doc := range docs {
		for i, text := range ix.splitter.Split(doc.Content) {
			chunks = append(chunks, gias.Chunk{
				ID:      repo.FullName() + ":" + doc.Path + ":" + strconv.Itoa(i),
				Source:  doc.Path,
				Content: text,
			})
		}
	}
	ix.logger.Info("split documents", "chunks", len(chunks))

	if err := ix.embed(ctx, chunks); err != nil {
		return 0, err
	}
	if err := ix.store.Replace(ctx, repo, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	ix.logger.Info("index built", "repository", repo.FullName(), "documents", len(docs), "chunks", len(chunks))
	return len(docs), nil
}

// embed fills in the Embedding of every chunk, one batch per goroutine.
func (ix *Indexer) embed(ctx context.Context, chunks []gias.Chunk) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Content
			}
			vectors, err := ix.embedder.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w: %w", start, end, gias.ErrUpstream, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end, len(vectors))
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			ix.logger.V(1).Info("embedded batch", "start", start, "end", end)
			return nil
		})
	}

	return g.Wait()
}
