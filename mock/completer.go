package mock

import (
	"context"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var (
	_ gias.Completer = (*Completer)(nil)
	_ gias.Embedder  = (*Embedder)(nil)
)

// Completer is a mock implementation of gias.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, prompt string) (string, error)
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteFn(ctx, prompt)
}

// Embedder is a mock implementation of gias.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedFn(ctx, texts)
}
