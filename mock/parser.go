// Package mock provides test doubles for gias interfaces.
package mock

import "github.com/fwojciec/gias"

// Compile-time interface verification.
var (
	_ gias.DiffParser   = (*DiffParser)(nil)
	_ gias.DiffRenderer = (*DiffRenderer)(nil)
)

// DiffParser is a mock implementation of gias.DiffParser.
type DiffParser struct {
	ParseFn func(text string) (*gias.Diff, error)
}

func (p *DiffParser) Parse(text string) (*gias.Diff, error) {
	return p.ParseFn(text)
}

// DiffRenderer is a mock implementation of gias.DiffRenderer.
type DiffRenderer struct {
	RenderFn func(original, modified, path string, contextLines int) string
}

func (r *DiffRenderer) Render(original, modified, path string, contextLines int) string {
	return r.RenderFn(original, modified, path, contextLines)
}
