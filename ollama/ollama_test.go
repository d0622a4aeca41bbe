package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"llama3","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"the fix"},"done":true}`)
	})
	client, err := ollama.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	text, err := ollama.NewCompleter(client, "llama3", "be brief", 0.1).Complete(context.Background(), "explain")

	require.NoError(t, err)
	assert.Equal(t, "the fix", text)
	assert.Equal(t, "llama3", body["model"])
	assert.Equal(t, false, body["stream"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "explain", messages[1].(map[string]any)["content"])
}

func TestCompleter_Complete_EmptyAnswer(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":""},"done":true}`)
	})
	client, err := ollama.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = ollama.NewCompleter(client, "m", "", 0).Complete(context.Background(), "p")

	assert.ErrorIs(t, err, gias.ErrEmptyCompletion)
}

func TestCompleter_Complete_ServerError(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"model not loaded"}`)
	})
	client, err := ollama.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = ollama.NewCompleter(client, "m", "", 0).Complete(context.Background(), "p")

	assert.Error(t, err)
}

func TestEmbedder_Embed(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"embeddinggemma","embeddings":[[0.1,0.2],[0.3,0.4]]}`)
	})
	client, err := ollama.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	vectors, err := ollama.NewEmbedder(client, "embeddinggemma").Embed(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 0.3, vectors[1][0], 1e-6)
	assert.Equal(t, []any{"a", "b"}, body["input"])
}

func TestEmbedder_Embed_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"model":"m","embeddings":[[0.1]]}`)
	})
	client, err := ollama.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = ollama.NewEmbedder(client, "m").Embed(context.Background(), []string{"a", "b"})

	assert.Error(t, err)
}

func TestEmbedder_Embed_NoInput(t *testing.T) {
	t.Parallel()

	client, err := ollama.NewClient("http://127.0.0.1:1", nil)
	require.NoError(t, err)

	vectors, err := ollama.NewEmbedder(client, "m").Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vectors)
}
