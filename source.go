package gias

import (
	"path"
	"strings"
)

// MaxSourceFileSize is the largest file loaded into the index, in bytes.
const MaxSourceFileSize = 1 << 20

// SkippedDirPrefixes name top-level directories that are never indexed.
var SkippedDirPrefixes = []string{".git", "venv", "node_modules", "docs", "examples", "tests"}

// SourceExtensions are the file extensions that are indexed.
var SourceExtensions = []string{".py", ".js", ".ts", ".go", ".java", ".c", ".cpp", ".h"}

// IsSkippedDir reports whether the repository-relative directory p is excluded.
func IsSkippedDir(p string) bool {
	p = strings.TrimPrefix(path.Clean(p), "./")
	for _, prefix := range SkippedDirPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// IsSourceFile reports whether a file at p with the given size is indexed.
func IsSourceFile(p string, size int64) bool {
	if size > MaxSourceFileSize {
		return false
	}
	ext := path.Ext(p)
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
