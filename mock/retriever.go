package mock

import (
	"context"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var (
	_ gias.Retriever        = (*Retriever)(nil)
	_ gias.IssueFetcher     = (*IssueFetcher)(nil)
	_ gias.RepositoryLoader = (*RepositoryLoader)(nil)
)

// Retriever is a mock implementation of gias.Retriever.
type Retriever struct {
	RetrieveFn func(ctx context.Context, repo gias.Repository, query string, k int) ([]gias.Snippet, error)
}

func (r *Retriever) Retrieve(ctx context.Context, repo gias.Repository, query string, k int) ([]gias.Snippet, error) {
	return r.RetrieveFn(ctx, repo, query, k)
}

// IssueFetcher is a mock implementation of gias.IssueFetcher.
type IssueFetcher struct {
	IssueFn func(ctx context.Context, repo gias.Repository, number int) (*gias.Issue, error)
}

func (f *IssueFetcher) Issue(ctx context.Context, repo gias.Repository, number int) (*gias.Issue, error) {
	return f.IssueFn(ctx, repo, number)
}

// RepositoryLoader is a mock implementation of gias.RepositoryLoader.
type RepositoryLoader struct {
	LoadFn func(ctx context.Context, repo gias.Repository) ([]gias.Document, error)
}

func (l *RepositoryLoader) Load(ctx context.Context, repo gias.Repository) ([]gias.Document, error) {
	return l.LoadFn(ctx, repo)
}
