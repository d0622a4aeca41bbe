// Package difflib renders unified diffs using the go-difflib library.
package difflib

import (
	"strings"

	"github.com/fwojciec/gias"
	"github.com/pmezard/go-difflib/difflib"
)

// Compile-time interface verification.
var _ gias.DiffRenderer = (*Renderer)(nil)

// Renderer implements gias.DiffRenderer.
type Renderer struct{}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render returns a unified diff of original and modified with headers
// "--- a/<path>" and "+++ b/<path>". Negative contextLines select
// gias.DefaultContextLines. Equal inputs render as the empty string.
func (r *Renderer) Render(original, modified, path string, contextLines int) string {
	if original == modified {
		return ""
	}
	if contextLines < 0 {
		contextLines = gias.DefaultContextLines
	}
	ud := difflib.UnifiedDiff{
		A:        splitLines(original),
		B:        splitLines(modified),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  contextLines,
	}
	var b strings.Builder
	// Writes to a strings.Builder cannot fail.
	_ = difflib.WriteUnifiedDiff(&b, ud)
	return b.String()
}

// splitLines treats empty text as zero lines and terminates every line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(s)
}
