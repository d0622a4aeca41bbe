package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/gias"
)

// Compile-time interface verification.
var _ gias.Completer = (*Completer)(nil)

// Completer implements gias.Completer using Google Gemini.
type Completer struct {
	client      GenerativeClient
	model       string
	system      string
	temperature float32
	maxTokens   int32
}

// NewCompleter creates a new Completer. An empty system prompt sends none.
func NewCompleter(client GenerativeClient, model, system string, temperature float64, maxTokens int) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{
		client:      client,
		model:       model,
		system:      system,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
	}
}

// Complete sends prompt as a single user turn.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*Content{{
		Parts: []*Part{{Text: prompt}},
	}}

	temp := c.temperature
	config := &GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: c.maxTokens,
	}
	if c.system != "" {
		config.SystemInstruction = &Content{Parts: []*Part{{Text: c.system}}}
	}

	resp, err := c.client.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: returned nil response")
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("gemini: %w", gias.ErrEmptyCompletion)
	}
	return resp.Text, nil
}
