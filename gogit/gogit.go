// Package gogit loads repositories by shallow-cloning them with go-git.
package gogit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/fwojciec/gias"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-logr/logr"
)

// Compile-time interface verification.
var _ gias.RepositoryLoader = (*Loader)(nil)

// Loader implements gias.RepositoryLoader with a depth-1 clone. Large
// repositories load much faster this way than through the contents API.
type Loader struct {
	token   string
	baseURL string
	workDir string
	logger  logr.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithToken authenticates clones of private repositories.
func WithToken(token string) Option {
	return func(l *Loader) { l.token = token }
}

// WithWorkDir sets the parent directory for clones. Empty uses the system temp directory.
func WithWorkDir(dir string) Option {
	return func(l *Loader) { l.workDir = dir }
}

// WithBaseURL sets the host URL clones are made from.
func WithBaseURL(u string) Option {
	return func(l *Loader) { l.baseURL = u }
}

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{baseURL: "https://github.com", logger: logr.Discard()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load clones repo into a temporary directory, reads its source files and
// removes the clone.
func (l *Loader) Load(ctx context.Context, repo gias.Repository) ([]gias.Document, error) {
	dir, err := os.MkdirTemp(l.workDir, "gias-"+repo.Name+"-")
	if err != nil {
		return nil, fmt.Errorf("create clone directory: %w", err)
	}
	defer os.RemoveAll(dir)

	opts := &git.CloneOptions{
		URL:          l.baseURL + "/" + repo.FullName() + ".git",
		Depth:        1,
		SingleBranch: true,
	}
	if l.token != "" {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: l.token}
	}

	l.logger.Info("cloning repository", "repository", repo.FullName(), "dir", dir)
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return nil, fmt.Errorf("clone %s: %w", repo, err)
	}

	docs, err := LoadDir(dir, l.logger)
	if err != nil {
		return nil, err
	}
	l.logger.Info("repository loaded", "repository", repo.FullName(), "documents", len(docs))
	return docs, nil
}

// LoadDir reads the source files under root in lexical order. Paths are
// slash-separated and relative to root. Files that are not valid UTF-8 are skipped.
func LoadDir(root string, logger logr.Logger) ([]gias.Document, error) {
	var docs []gias.Document
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && gias.IsSkippedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !gias.IsSourceFile(rel, info.Size()) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			logger.V(1).Info("skipping non-UTF-8 file", "path", rel)
			return nil
		}
		docs = append(docs, gias.Document{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return docs, nil
}
