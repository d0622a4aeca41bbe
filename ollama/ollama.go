// Package ollama implements gias.Completer and gias.Embedder against a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/gias"
	"github.com/ollama/ollama/api"
)

// Defaults for a locally running Ollama server.
const (
	DefaultHost      = "http://localhost:11434"
	DefaultChatModel = "llama3.2"
)

// Compile-time interface verification.
var (
	_ gias.Completer = (*Completer)(nil)
	_ gias.Embedder  = (*Embedder)(nil)
)

// NewClient creates an Ollama API client for host.
func NewClient(host string, httpClient *http.Client) (*api.Client, error) {
	if host == "" {
		host = DefaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return api.NewClient(u, httpClient), nil
}

// Completer implements gias.Completer using the Ollama chat endpoint.
type Completer struct {
	client      *api.Client
	model       string
	system      string
	temperature float64
}

// NewCompleter creates a new Completer.
func NewCompleter(client *api.Client, model, system string, temperature float64) *Completer {
	return &Completer{client: client, model: model, system: system, temperature: temperature}
}

// Complete sends prompt as a single user message without streaming.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	var messages []api.Message
	if c.system != "" {
		messages = append(messages, api.Message{Role: "system", Content: c.system})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{"temperature": c.temperature},
	}

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if strings.TrimSpace(content.String()) == "" {
		return "", fmt.Errorf("ollama: %w", gias.ErrEmptyCompletion)
	}
	return content.String(), nil
}

// Embedder implements gias.Embedder using the Ollama embed endpoint.
type Embedder struct {
	client *api.Client
	model  string
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(client *api.Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

// Embed returns one vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
