// Package anthropic implements gias.Completer using Claude models.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropiclib "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/gias"
)

// DefaultModel is the Claude model used when none is configured.
const DefaultModel = "claude-sonnet-4-5"

// Compile-time interface verification.
var _ gias.Completer = (*Completer)(nil)

// Completer implements gias.Completer with the Messages API.
type Completer struct {
	client      anthropiclib.Client
	model       anthropiclib.Model
	system      string
	temperature float64
	maxTokens   int64
}

// NewCompleter creates a new Completer. Extra request options such as a
// base URL are passed to the SDK client.
func NewCompleter(apiKey, model, system string, temperature float64, maxTokens int, opts ...option.RequestOption) *Completer {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Completer{
		client:      anthropiclib.NewClient(opts...),
		model:       anthropiclib.Model(model),
		system:      system,
		temperature: temperature,
		maxTokens:   int64(maxTokens),
	}
}

// Complete sends prompt as a single user message and joins the text blocks of the reply.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	params := anthropiclib.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropiclib.Float(c.temperature),
		Messages: []anthropiclib.MessageParam{
			anthropiclib.NewUserMessage(anthropiclib.NewTextBlock(prompt)),
		},
	}
	if c.system != "" {
		params.System = []anthropiclib.TextBlockParam{{Text: c.system, Type: "text"}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var text strings.Builder
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			text.WriteString(resp.Content[i].Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("anthropic: %w", gias.ErrEmptyCompletion)
	}
	return text.String(), nil
}
