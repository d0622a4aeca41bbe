// Package chroma provides syntax highlighting for the patch browser using the chroma library.
package chroma

import (
	"errors"
	"strings"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.Tokenizer = (*Tokenizer)(nil)

// StyleFunc maps chroma token types to gias styles.
type StyleFunc func(chromalib.TokenType) gias.Style

// Tokenizer extracts syntax tokens using chroma.
type Tokenizer struct {
	styleFunc StyleFunc
}

// NewTokenizer creates a tokenizer with the given style function.
// Use StyleFromPalette to derive one from a theme palette.
func NewTokenizer(styleFunc StyleFunc) (*Tokenizer, error) {
	if styleFunc == nil {
		return nil, errors.New("chroma: styleFunc cannot be nil")
	}
	return &Tokenizer{styleFunc: styleFunc}, nil
}

// Tokenize splits a single line of source into styled tokens.
// Returns nil if the language is not supported or lexing fails,
// and an empty slice for empty source.
func (t *Tokenizer) Tokenize(language, source string) []gias.Token {
	if source == "" {
		return []gias.Token{}
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}
	lexer = chromalib.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil
	}

	var tokens []gias.Token
	for token := iterator(); token != chromalib.EOF; token = iterator() {
		tokens = append(tokens, gias.Token{
			Text:  token.Value,
			Style: t.styleFunc(token.Type),
		})
	}
	// Lexers append a newline to unterminated input; the renderer owns line breaks.
	if n := len(tokens); n > 0 && !strings.HasSuffix(source, "\n") {
		tokens[n-1].Text = strings.TrimSuffix(tokens[n-1].Text, "\n")
		if tokens[n-1].Text == "" {
			tokens = tokens[:n-1]
		}
	}
	return tokens
}
