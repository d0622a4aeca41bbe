package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.Completer = (*Completer)(nil)

// Completer wraps a Completer with file-based caching keyed by model and prompt.
type Completer struct {
	inner    gias.Completer
	model    string
	cacheDir string
}

// NewCompleter creates a new caching completer.
func NewCompleter(inner gias.Completer, model, cacheDir string) *Completer {
	return &Completer{
		inner:    inner,
		model:    model,
		cacheDir: cacheDir,
	}
}

type cachedCompletion struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// Complete returns a cached answer or delegates to the inner completer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	hash := c.hashPrompt(prompt)

	if cached, err := c.loadFromCache(hash); err == nil {
		return cached, nil
	}

	text, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	// Best-effort.
	_ = c.saveToCache(hash, text)

	return text, nil
}

func (c *Completer) hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

func (c *Completer) cachePath(hash string) string {
	return filepath.Join(c.cacheDir, hash+".json")
}

func (c *Completer) loadFromCache(hash string) (string, error) {
	data, err := os.ReadFile(c.cachePath(hash))
	if err != nil {
		return "", err
	}
	var entry cachedCompletion
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", err
	}
	return entry.Text, nil
}

func (c *Completer) saveToCache(hash, text string) error {
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(cachedCompletion{Model: c.model, Text: text})
	if err != nil {
		return err
	}
	return os.WriteFile(c.cachePath(hash), data, 0o644)
}
