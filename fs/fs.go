// Package fs provides filesystem-backed storage for patches and cached completions.
package fs

import (
	"os"
	"path/filepath"
)

// DefaultCacheDir returns the default cache directory for gias.
// Uses XDG_CACHE_HOME if set, otherwise falls back to ~/.cache/gias,
// or system temp directory if home is unavailable.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gias")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "gias")
	}
	return filepath.Join(home, ".cache", "gias")
}
