package mock

import (
	"context"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.PatchApplier = (*PatchApplier)(nil)

// PatchApplier is a mock implementation of gias.PatchApplier.
type PatchApplier struct {
	ApplyFn func(ctx context.Context, patchPath, targetDir string, checkOnly bool) bool
}

func (a *PatchApplier) Apply(ctx context.Context, patchPath, targetDir string, checkOnly bool) bool {
	return a.ApplyFn(ctx, patchPath, targetDir, checkOnly)
}
