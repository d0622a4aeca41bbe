package github_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRepo = gias.Repository{Owner: "psf", Name: "requests"}

func newClient(t *testing.T, handler http.HandlerFunc) *github.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return github.NewClient("ghp_test", github.WithBaseURL(srv.URL+"/"))
}

func TestClient_Issue(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/psf/requests/issues/42", r.URL.Path)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"number":42,"title":"Header bug","body":"Headers are dropped.",
			"html_url":"https://github.com/psf/requests/issues/42"}`)
	})

	issue, err := c.Issue(context.Background(), testRepo, 42)

	require.NoError(t, err)
	assert.Equal(t, &gias.Issue{
		Number: 42,
		Title:  "Header bug",
		Body:   "Headers are dropped.",
		URL:    "https://github.com/psf/requests/issues/42",
	}, issue)
}

func TestClient_Issue_NotFound(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	})

	_, err := c.Issue(context.Background(), testRepo, 9999)

	assert.ErrorIs(t, err, gias.ErrIssueNotFound)
}

func TestClient_Issue_ServerError(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"boom"}`)
	})

	_, err := c.Issue(context.Background(), testRepo, 1)

	require.Error(t, err)
	assert.NotErrorIs(t, err, gias.ErrIssueNotFound)
}

func fileJSON(path, content string) string {
	return fmt.Sprintf(`{"type":"file","path":%q,"size":%d,"encoding":"base64","content":%q}`,
		path, len(content), base64.StdEncoding.EncodeToString([]byte(content)))
}

func TestClient_Load(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/psf/requests":
			_, _ = io.WriteString(w, `{"full_name":"psf/requests"}`)
		case "/repos/psf/requests/contents/":
			_, _ = io.WriteString(w, `[
				{"type":"dir","path":"requests"},
				{"type":"dir","path":"tests"},
				{"type":"file","path":"setup.py","size":15},
				{"type":"file","path":"README.md","size":5}
			]`)
		case "/repos/psf/requests/contents/requests":
			_, _ = io.WriteString(w, `[
				{"type":"file","path":"requests/api.py","size":12},
				{"type":"file","path":"requests/huge.py","size":2000000}
			]`)
		case "/repos/psf/requests/contents/setup.py":
			_, _ = io.WriteString(w, fileJSON("setup.py", "from setuptools"))
		case "/repos/psf/requests/contents/requests/api.py":
			_, _ = io.WriteString(w, fileJSON("requests/api.py", "def get(): 1"))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	docs, err := c.Load(context.Background(), testRepo)

	require.NoError(t, err)
	assert.Equal(t, []gias.Document{
		{Path: "requests/api.py", Content: "def get(): 1"},
		{Path: "setup.py", Content: "from setuptools"},
	}, docs)
}

func TestClient_Load_MissingRepository(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	})

	_, err := c.Load(context.Background(), testRepo)

	assert.Error(t, err)
}
