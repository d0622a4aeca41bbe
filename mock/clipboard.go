package mock

import "github.com/fwojciec/gias"

// Compile-time interface verification.
var _ gias.Clipboard = (*Clipboard)(nil)

// Clipboard is a mock implementation of gias.Clipboard.
type Clipboard struct {
	CopyFn func(content string) error
}

func (c *Clipboard) Copy(content string) error {
	return c.CopyFn(content)
}
