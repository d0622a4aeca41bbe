// Package github fetches issues and repository contents from the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/fwojciec/gias"
	"github.com/go-logr/logr"
	githublib "github.com/google/go-github/v53/github"
)

// Compile-time interface verification.
var (
	_ gias.IssueFetcher     = (*Client)(nil)
	_ gias.RepositoryLoader = (*Client)(nil)
)

// Client implements gias.IssueFetcher and gias.RepositoryLoader.
type Client struct {
	gh     *githublib.Client
	logger logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBaseURL points the client at another API root, such as GitHub Enterprise or a test server.
// The URL must end with a slash.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if parsed, err := c.gh.BaseURL.Parse(u); err == nil {
			c.gh.BaseURL = parsed
		}
	}
}

// NewClient creates a Client. An empty token makes unauthenticated requests.
func NewClient(token string, opts ...Option) *Client {
	httpClient := &http.Client{}
	if token != "" {
		httpClient.Transport = &tokenTransport{token: token, base: http.DefaultTransport}
	}
	c := &Client{
		gh:     githublib.NewClient(httpClient),
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue returns the issue with the given number.
func (c *Client) Issue(ctx context.Context, repo gias.Repository, number int) (*gias.Issue, error) {
	issue, _, err := c.gh.Issues.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s#%d", gias.ErrIssueNotFound, repo, number)
		}
		return nil, fmt.Errorf("get issue %s#%d: %w", repo, number, err)
	}
	return &gias.Issue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

// Load walks the repository through the contents API and returns its source files.
// Unreadable directories and files are skipped.
func (c *Client) Load(ctx context.Context, repo gias.Repository) ([]gias.Document, error) {
	c.logger.Info("loading repository contents", "repository", repo.FullName())

	if _, _, err := c.gh.Repositories.Get(ctx, repo.Owner, repo.Name); err != nil {
		return nil, fmt.Errorf("get repository %s: %w", repo, err)
	}

	var docs []gias.Document
	if err := c.walk(ctx, repo, "", &docs); err != nil {
		return nil, err
	}
	c.logger.Info("repository contents loaded", "repository", repo.FullName(), "documents", len(docs))
	return docs, nil
}

func (c *Client) walk(ctx context.Context, repo gias.Repository, dir string, docs *[]gias.Document) error {
	_, entries, _, err := c.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, dir, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.V(1).Info("skipping unreadable directory", "path", dir, "error", err.Error())
		return nil
	}

	for _, entry := range entries {
		p := entry.GetPath()
		switch entry.GetType() {
		case "dir":
			if gias.IsSkippedDir(p) {
				c.logger.V(1).Info("skipping directory", "path", p)
				continue
			}
			if err := c.walk(ctx, repo, p, docs); err != nil {
				return err
			}
		case "file":
			if !gias.IsSourceFile(p, int64(entry.GetSize())) {
				continue
			}
			content, err := c.fileContent(ctx, repo, entry)
			if err != nil {
				c.logger.Info("could not read file", "path", p, "error", err.Error())
				continue
			}
			*docs = append(*docs, gias.Document{Path: path.Clean(p), Content: content})
		}
	}
	return nil
}

// fileContent decodes the entry, fetching it when the listing omitted the body.
func (c *Client) fileContent(ctx context.Context, repo gias.Repository, entry *githublib.RepositoryContent) (string, error) {
	if entry.Content == nil {
		file, _, _, err := c.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, entry.GetPath(), nil)
		if err != nil {
			return "", err
		}
		if file == nil {
			return "", fmt.Errorf("%s is not a file", entry.GetPath())
		}
		entry = file
	}
	return entry.GetContent()
}

func isNotFound(err error) bool {
	var resp *githublib.ErrorResponse
	return errors.As(err, &resp) && resp.Response != nil && resp.Response.StatusCode == http.StatusNotFound
}

// tokenTransport adds a bearer token to every request.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}
