package chroma

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.LanguageDetector = (*Detector)(nil)

// Detector maps file paths to chroma lexer names. Results are cached per
// file extension because a patch usually touches many files of one language.
type Detector struct {
	mu    sync.Mutex
	cache map[string]string
}

// NewDetector creates a new chroma-based language detector.
func NewDetector() *Detector {
	return &Detector{cache: make(map[string]string)}
}

// DetectFromPath returns the language name for the given path, or an empty
// string if the language cannot be determined. Strips "a/" or "b/" prefixes.
func (d *Detector) DetectFromPath(path string) string {
	path = strings.TrimPrefix(path, "a/")
	path = strings.TrimPrefix(path, "b/")
	filename := filepath.Base(path)

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		d.mu.Lock()
		lang, ok := d.cache[ext]
		d.mu.Unlock()
		if ok {
			return lang
		}
	}

	var lang string
	if lexer := lexers.Match(filename); lexer != nil {
		lang = lexer.Config().Name
	}

	if ext != "" {
		d.mu.Lock()
		d.cache[ext] = lang
		d.mu.Unlock()
	}
	return lang
}
