package gias

// FileChange is the before/after content of a single file.
// An empty Original means the file is created.
type FileChange struct {
	Path     string
	Original string
	Modified string
}

// IsNoop reports whether the change leaves the file untouched.
func (c FileChange) IsNoop() bool {
	return c.Original == c.Modified
}

// ChangeSet is an ordered set of file changes keyed by path.
// The zero value is an empty set ready to use.
type ChangeSet struct {
	changes []FileChange
	index   map[string]int
}

// NewChangeSet returns a set holding the given changes in order.
func NewChangeSet(changes ...FileChange) *ChangeSet {
	s := &ChangeSet{}
	for _, c := range changes {
		s.Set(c.Path, c.Original, c.Modified)
	}
	return s
}

// Set records a change for path. Setting an existing path replaces its
// content but keeps the position of the first insertion.
func (s *ChangeSet) Set(path, original, modified string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	c := FileChange{Path: path, Original: original, Modified: modified}
	if i, ok := s.index[path]; ok {
		s.changes[i] = c
		return
	}
	s.index[path] = len(s.changes)
	s.changes = append(s.changes, c)
}

// Get returns the change recorded for path.
func (s *ChangeSet) Get(path string) (FileChange, bool) {
	if s == nil {
		return FileChange{}, false
	}
	i, ok := s.index[path]
	if !ok {
		return FileChange{}, false
	}
	return s.changes[i], true
}

// Len returns the number of entries, no-ops included.
func (s *ChangeSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.changes)
}

// Changes returns a copy of the entries in insertion order.
func (s *ChangeSet) Changes() []FileChange {
	if s == nil {
		return nil
	}
	out := make([]FileChange, len(s.changes))
	copy(out, s.changes)
	return out
}

// Paths returns the entry paths in insertion order.
func (s *ChangeSet) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, len(s.changes))
	for i, c := range s.changes {
		paths[i] = c.Path
	}
	return paths
}

// Effective returns the paths of entries that actually change their file.
func (s *ChangeSet) Effective() []string {
	if s == nil {
		return nil
	}
	var paths []string
	for _, c := range s.changes {
		if !c.IsNoop() {
			paths = append(paths, c.Path)
		}
	}
	return paths
}
