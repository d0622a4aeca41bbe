package gias

import "io/fs"

// Diff is a parsed patch containing one or more file changes.
type Diff struct {
	Files []FileDiff
}

// Stats returns the added and deleted line totals across all files.
func (d Diff) Stats() (added, deleted int) {
	for _, f := range d.Files {
		a, r := f.Stats()
		added += a
		deleted += r
	}
	return added, deleted
}

// FileStat summarizes the changes to one file.
type FileStat struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// FileStats returns per-file line counts in file order.
func (d Diff) FileStats() []FileStat {
	stats := make([]FileStat, 0, len(d.Files))
	for _, f := range d.Files {
		added, deleted := f.Stats()
		stats = append(stats, FileStat{Path: f.Path(), Added: added, Deleted: deleted})
	}
	return stats
}

// FileDiff represents changes to a single file.
type FileDiff struct {
	OldPath   string      // Without the a/ prefix; empty for new files
	NewPath   string      // Without the b/ prefix; empty for deleted files
	Operation FileOp      // Added, Deleted, Modified, Renamed, Copied
	IsBinary  bool        // Binary files have no hunks
	OldMode   fs.FileMode // 0 if unchanged
	NewMode   fs.FileMode
	Hunks     []Hunk
}

// Path returns the new path, or the old one for deleted files.
func (f FileDiff) Path() string {
	if f.NewPath == "" || f.Operation == FileDeleted {
		return f.OldPath
	}
	return f.NewPath
}

// Stats returns the number of added and deleted lines in the file.
func (f FileDiff) Stats() (added, deleted int) {
	for _, hunk := range f.Hunks {
		for _, line := range hunk.Lines {
			switch line.Type {
			case LineAdded:
				added++
			case LineDeleted:
				deleted++
			}
		}
	}
	return added, deleted
}

// FileOp represents the type of operation performed on a file.
type FileOp int

// File operation types.
const (
	FileModified FileOp = iota
	FileAdded
	FileDeleted
	FileRenamed
	FileCopied
)

// Hunk represents a contiguous block of changes within a file.
type Hunk struct {
	OldStart int    // From @@ -X,...
	OldCount int    // From @@ -X,Y ...
	NewStart int    // From @@ ...,+X
	NewCount int    // From @@ ...,+X,Y
	Section  string // Optional function name after @@ ... @@
	Lines    []Line
}

// Line represents a single line within a hunk.
type Line struct {
	Type       LineType
	Content    string
	OldLineNum int  // 0 if line is Added
	NewLineNum int  // 0 if line is Deleted
	NoNewline  bool // "\ No newline at end of file" marker
}

// LineType represents the type of a diff line.
type LineType int

// Line types.
const (
	LineContext LineType = iota
	LineAdded
	LineDeleted
)
