// Package git applies patches to working trees via the git command.
package git

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fwojciec/gias"
	"github.com/go-logr/logr"
)

// DefaultApplyTimeout bounds a single git apply invocation.
const DefaultApplyTimeout = 30 * time.Second

// Compile-time interface verification.
var _ gias.PatchApplier = (*Applier)(nil)

// Applier runs "git apply" with the patch text on stdin.
type Applier struct {
	binary  string
	timeout time.Duration
	logger  logr.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithTimeout overrides DefaultApplyTimeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Applier) { a.timeout = d }
}

// WithLogger sets the logger receiving apply diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(a *Applier) { a.logger = l }
}

// WithBinary sets the git executable name or path.
func WithBinary(name string) Option {
	return func(a *Applier) { a.binary = name }
}

// NewApplier creates a new Applier.
func NewApplier(opts ...Option) *Applier {
	a := &Applier{
		binary:  "git",
		timeout: DefaultApplyTimeout,
		logger:  logr.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply applies the patch at patchPath inside targetDir. With checkOnly the
// tree is left untouched and only applicability is reported. Every failure,
// including a timeout, is logged and reported as false.
func (a *Applier) Apply(ctx context.Context, patchPath, targetDir string, checkOnly bool) bool {
	patch, err := os.ReadFile(patchPath)
	if err != nil {
		a.logger.Error(err, "read patch", "path", patchPath)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := []string{"apply"}
	if checkOnly {
		args = append(args, "--check")
	}
	cmd := exec.CommandContext(ctx, a.binary, args...)
	cmd.Dir = targetDir
	cmd.Stdin = bytes.NewReader(patch)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			a.logger.Error(err, "git apply timed out", "path", patchPath, "timeout", a.timeout)
		case errors.As(err, &exitErr):
			a.logger.Error(err, "git apply failed", "path", patchPath, "dir", targetDir,
				"stderr", strings.TrimSpace(stderr.String()))
		default:
			a.logger.Error(err, "git apply could not run", "path", patchPath, "dir", targetDir)
		}
		return false
	}

	if checkOnly {
		a.logger.Info("patch applies cleanly", "path", patchPath, "dir", targetDir)
	} else {
		a.logger.Info("patch applied", "path", patchPath, "dir", targetDir)
	}
	return true
}
