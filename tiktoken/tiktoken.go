// Package tiktoken implements gias.TokenCounter with BPE token counts.
package tiktoken

import (
	"fmt"

	"github.com/fwojciec/gias"
	"github.com/tiktoken-go/tokenizer"
)

// Compile-time interface verification.
var _ gias.TokenCounter = (*Counter)(nil)

// Counter counts tokens with the cl100k encoding. Provider models differ in
// tokenization; the count is used as a budget estimate only.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a Counter.
func NewCounter() (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("tiktoken: load codec: %w", err)
	}
	return &Counter{codec: codec}, nil
}

// Count returns the number of tokens in text. Encoding failures fall back
// to four bytes per token.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	n, err := c.codec.Count(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return n
}
