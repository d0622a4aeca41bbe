// Package gias provides domain types for analyzing GitHub issues and turning
// model-written fix proposals into reviewable patch artifacts.
package gias

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// String implements fmt.Stringer.
func (r Repository) String() string {
	return r.FullName()
}

// IsZero reports whether neither owner nor name is set.
func (r Repository) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// ParseRepository parses an "owner/name" string.
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// Issue is a GitHub issue as seen by the analysis pipeline.
type Issue struct {
	Number int
	Title  string
	Body   string
	URL    string
}

// Document is a source file loaded from a repository.
type Document struct {
	Path    string
	Content string
}

// Snippet is a retrieved piece of source text with the path it came from.
type Snippet struct {
	Source  string
	Content string
}

// Chunk is an indexed piece of a document together with its embedding.
type Chunk struct {
	ID        string
	Source    string
	Content   string
	Embedding []float32
}

// RunRecord is a single entry of the analysis run log.
type RunRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Repository string    `json:"repository"`
	IssueID    int       `json:"issue_id,omitempty"`
	Query      string    `json:"query,omitempty"`
	Status     Status    `json:"patch_status"`
	PatchFile  string    `json:"patch_file,omitempty"`
	Message    string    `json:"message,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// IssueFetcher retrieves issues from the hosting service.
type IssueFetcher interface {
	Issue(ctx context.Context, repo Repository, number int) (*Issue, error)
}

// RepositoryLoader loads the source files of a repository.
type RepositoryLoader interface {
	Load(ctx context.Context, repo Repository) ([]Document, error)
}

// Retriever returns the snippets most relevant to a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, repo Repository, query string, k int) ([]Snippet, error)
}

// Completer sends a prompt to a language model and returns its free-form answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder converts texts to embedding vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists embedded chunks per repository.
type ChunkStore interface {
	// Replace discards the repository's existing chunks and stores the given ones.
	Replace(ctx context.Context, repo Repository, chunks []Chunk) error
	// Search returns up to k chunks closest to vector.
	Search(ctx context.Context, repo Repository, vector []float32, k int) ([]Chunk, error)
	// Count returns how many chunks are stored for the repository.
	Count(ctx context.Context, repo Repository) (int, error)
}

// TokenCounter counts model tokens in text.
type TokenCounter interface {
	Count(text string) int
}

// DiffRenderer renders a before/after pair as a unified diff fragment.
type DiffRenderer interface {
	// Render returns the empty string when original and modified are equal.
	Render(original, modified, path string, contextLines int) string
}

// PatchStore writes and reads patch artifacts in a single directory.
type PatchStore interface {
	CreatePatch(changes *ChangeSet, opts PatchOptions) (string, error)
	SaveMetadata(meta PatchMetadata) (string, error)
	List() ([]PatchListing, error)
	Get(name string) (*PatchListing, error)
	Read(name string) (string, error)
}

// PatchApplier applies a patch file to a working tree.
type PatchApplier interface {
	// Apply reports whether the patch applied (or would apply when checkOnly).
	Apply(ctx context.Context, patchPath, targetDir string, checkOnly bool) bool
}

// DiffParser parses unified diff text.
type DiffParser interface {
	Parse(text string) (*Diff, error)
}

// RunLog records analysis runs.
type RunLog interface {
	Append(record RunRecord) error
}

// Recorder receives operational measurements.
type Recorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
	ObservePatchOutcome(status Status)
	ObserveApply(checkOnly, applied bool)
}

// Clipboard copies text to the system clipboard.
type Clipboard interface {
	Copy(content string) error
}
