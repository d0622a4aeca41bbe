package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/gias"
	"github.com/go-logr/logr"
)

// Compile-time interface verification.
var _ gias.PatchStore = (*PatchStore)(nil)

// PatchStore owns a directory of patch documents and their metadata sidecars.
// Writes overwrite existing files of the same name.
type PatchStore struct {
	dir          string
	renderer     gias.DiffRenderer
	contextLines int
	now          func() time.Time
	logger       logr.Logger
}

// Option configures a PatchStore.
type Option func(*PatchStore)

// WithClock sets the time source used for headers and default names.
func WithClock(now func() time.Time) Option {
	return func(s *PatchStore) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(s *PatchStore) { s.logger = l }
}

// WithContextLines sets the number of context lines in rendered diffs.
func WithContextLines(n int) Option {
	return func(s *PatchStore) { s.contextLines = n }
}

// NewPatchStore creates a store rooted at dir. The directory is created on first write.
func NewPatchStore(dir string, renderer gias.DiffRenderer, opts ...Option) *PatchStore {
	s := &PatchStore{
		dir:          dir,
		renderer:     renderer,
		contextLines: gias.DefaultContextLines,
		now:          time.Now,
		logger:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the patch directory.
func (s *PatchStore) Dir() string {
	return s.dir
}

// CreatePatch assembles changes into a patch document and writes it,
// returning the path written.
func (s *PatchStore) CreatePatch(changes *gias.ChangeSet, opts gias.PatchOptions) (string, error) {
	now := s.now()
	name := opts.Name
	if name == "" {
		name = gias.DefaultPatchName(opts.Repository, now)
	}
	if err := gias.ValidatePatchName(name); err != nil {
		return "", err
	}

	header := gias.PatchHeader{
		Author:      opts.Author,
		Date:        now,
		Repository:  opts.Repository,
		Description: opts.Description,
	}
	text, err := gias.AssemblePatch(header, changes, s.renderer, s.contextLines)
	if err != nil {
		return "", err
	}
	for _, c := range changes.Changes() {
		if c.IsNoop() {
			s.logger.Info("skipping unchanged file", "patch", name, "path", c.Path)
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create patch directory: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write patch: %w", err)
	}
	s.logger.Info("patch written", "path", path, "files", len(changes.Effective()))
	return path, nil
}

// SaveMetadata writes the metadata sidecar for meta.PatchFile and returns its path.
// PatchFile may be a name or a path; the record always stores the bare name.
// A zero Timestamp is set to the current time.
func (s *PatchStore) SaveMetadata(meta gias.PatchMetadata) (string, error) {
	patchName := filepath.Base(meta.PatchFile)
	if err := gias.ValidatePatchName(patchName); err != nil {
		return "", err
	}
	meta.PatchFile = patchName
	if meta.Timestamp.IsZero() {
		meta.Timestamp = s.now()
	}
	if meta.FilesChanged == nil {
		meta.FilesChanged = []string{}
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create patch directory: %w", err)
	}
	path := filepath.Join(s.dir, gias.MetadataName(patchName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	s.logger.V(1).Info("metadata written", "path", path)
	return path, nil
}

// List returns every patch in the directory, newest first. Metadata is
// attached when its sidecar exists and parses.
func (s *PatchStore) List() ([]gias.PatchListing, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []gias.PatchListing{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read patch directory: %w", err)
	}

	listings := make([]gias.PatchListing, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), gias.PatchExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		listings = append(listings, gias.PatchListing{
			Name:     e.Name(),
			Path:     filepath.Join(s.dir, e.Name()),
			Size:     info.Size(),
			Created:  info.ModTime(),
			Metadata: s.loadMetadata(e.Name()),
		})
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if !listings[i].Created.Equal(listings[j].Created) {
			return listings[i].Created.After(listings[j].Created)
		}
		return listings[i].Name < listings[j].Name
	})
	return listings, nil
}

func (s *PatchStore) loadMetadata(patchName string) *gias.PatchMetadata {
	path := filepath.Join(s.dir, gias.MetadataName(patchName))
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error(err, "read metadata", "path", path)
		}
		return nil
	}
	var meta gias.PatchMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Error(err, "corrupt metadata", "path", path)
		return nil
	}
	return &meta
}

// Get returns the listing for the named patch.
func (s *PatchStore) Get(name string) (*gias.PatchListing, error) {
	if err := gias.ValidatePatchName(name); err != nil {
		return nil, err
	}
	listings, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range listings {
		if listings[i].Name == name {
			return &listings[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", gias.ErrPatchNotFound, name)
}

// Read returns the text of the named patch.
func (s *PatchStore) Read(name string) (string, error) {
	if err := gias.ValidatePatchName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", gias.ErrPatchNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("read patch: %w", err)
	}
	return string(data), nil
}
