package mock

import (
	"context"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var (
	_ gias.PatchStore = (*PatchStore)(nil)
	_ gias.ChunkStore = (*ChunkStore)(nil)
	_ gias.RunLog     = (*RunLog)(nil)
)

// PatchStore is a mock implementation of gias.PatchStore.
type PatchStore struct {
	CreatePatchFn  func(changes *gias.ChangeSet, opts gias.PatchOptions) (string, error)
	SaveMetadataFn func(meta gias.PatchMetadata) (string, error)
	ListFn         func() ([]gias.PatchListing, error)
	GetFn          func(name string) (*gias.PatchListing, error)
	ReadFn         func(name string) (string, error)
}

func (s *PatchStore) CreatePatch(changes *gias.ChangeSet, opts gias.PatchOptions) (string, error) {
	return s.CreatePatchFn(changes, opts)
}

func (s *PatchStore) SaveMetadata(meta gias.PatchMetadata) (string, error) {
	return s.SaveMetadataFn(meta)
}

func (s *PatchStore) List() ([]gias.PatchListing, error) {
	return s.ListFn()
}

func (s *PatchStore) Get(name string) (*gias.PatchListing, error) {
	return s.GetFn(name)
}

func (s *PatchStore) Read(name string) (string, error) {
	return s.ReadFn(name)
}

// ChunkStore is a mock implementation of gias.ChunkStore.
type ChunkStore struct {
	ReplaceFn func(ctx context.Context, repo gias.Repository, chunks []gias.Chunk) error
	SearchFn  func(ctx context.Context, repo gias.Repository, vector []float32, k int) ([]gias.Chunk, error)
	CountFn   func(ctx context.Context, repo gias.Repository) (int, error)
}

func (s *ChunkStore) Replace(ctx context.Context, repo gias.Repository, chunks []gias.Chunk) error {
	return s.ReplaceFn(ctx, repo, chunks)
}

func (s *ChunkStore) Search(ctx context.Context, repo gias.Repository, vector []float32, k int) ([]gias.Chunk, error) {
	return s.SearchFn(ctx, repo, vector, k)
}

func (s *ChunkStore) Count(ctx context.Context, repo gias.Repository) (int, error) {
	return s.CountFn(ctx, repo)
}

// RunLog is a mock implementation of gias.RunLog.
type RunLog struct {
	AppendFn func(record gias.RunRecord) error
}

func (l *RunLog) Append(record gias.RunRecord) error {
	return l.AppendFn(record)
}
