// Package openrouter implements gias.Completer against OpenRouter's
// OpenAI-compatible chat completions API.
package openrouter

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/gias"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Compile-time interface verification.
var _ gias.Completer = (*Completer)(nil)

// Config configures a Completer.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	System      string
	Temperature float64
	MaxTokens   int
}

// Completer implements gias.Completer with chat completions.
type Completer struct {
	client openai.Client
	cfg    Config
}

// NewCompleter creates a new Completer. Extra request options are passed to the SDK client.
func NewCompleter(cfg Config, opts ...option.RequestOption) *Completer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	}, opts...)
	return &Completer{client: openai.NewClient(opts...), cfg: cfg}
}

// Complete sends the system prompt, when set, followed by prompt as a user message.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if c.cfg.System != "" {
		messages = append(messages, openai.SystemMessage(c.cfg.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: openai.Float(c.cfg.Temperature),
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.cfg.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openrouter: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openrouter: %w", gias.ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
