package analysis_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/analysis"
	"github.com/fwojciec/gias/difflib"
	"github.com/fwojciec/gias/fs"
	"github.com/fwojciec/gias/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRepo = gias.Repository{Owner: "psf", Name: "requests"}

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

const validSpec = "Summary: fix the header.\n\n```file: requests/api.py\nx = 1\n---\nx = 2\n```\n"

// fixture holds the collaborators of a Service under test.
type fixture struct {
	dir       string
	store     *fs.PatchStore
	issues    *mock.IssueFetcher
	retriever *mock.Retriever
	analyst   *mock.Completer
	patcher   *mock.Completer

	patchPrompts []string
	retrievals   []int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}
	f.store = fs.NewPatchStore(f.dir, difflib.NewRenderer(), fs.WithClock(func() time.Time { return fixedTime }))
	f.issues = &mock.IssueFetcher{
		IssueFn: func(_ context.Context, repo gias.Repository, number int) (*gias.Issue, error) {
			return &gias.Issue{Number: number, Title: "Header bug", Body: "Headers are dropped.", URL: "https://github.com/psf/requests/issues/42"}, nil
		},
	}
	f.retriever = &mock.Retriever{
		RetrieveFn: func(_ context.Context, _ gias.Repository, _ string, k int) ([]gias.Snippet, error) {
			f.retrievals = append(f.retrievals, k)
			return []gias.Snippet{
				{Source: "requests/api.py", Content: "x = 1"},
				{Source: "requests/models.py", Content: "class Response: pass"},
				{Source: "requests/api.py", Content: "def get(): pass"},
			}, nil
		},
	}
	f.analyst = &mock.Completer{
		CompleteFn: func(context.Context, string) (string, error) {
			return "The header is overwritten in api.py.", nil
		},
	}
	f.patcher = &mock.Completer{
		CompleteFn: func(_ context.Context, prompt string) (string, error) {
			f.patchPrompts = append(f.patchPrompts, prompt)
			return validSpec, nil
		},
	}
	return f
}

func (f *fixture) service(opts ...analysis.Option) *analysis.Service {
	opts = append([]analysis.Option{analysis.WithClock(func() time.Time { return fixedTime })}, opts...)
	return analysis.NewService(f.issues, f.retriever, f.analyst, f.patcher, f.store, opts...)
}

func patchRequest() analysis.PatchRequest {
	return analysis.PatchRequest{
		Repository: testRepo,
		IssueID:    42,
		IssueTitle: "Header bug",
		IssueBody:  "Headers are dropped.",
		Analysis:   "The header is overwritten in api.py.",
	}
}

func TestService_GeneratePatch_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	outcome := f.service().GeneratePatch(context.Background(), patchRequest())

	require.Equal(t, gias.StatusSuccess, outcome.Status, outcome.Message)
	assert.Equal(t, filepath.Join(f.dir, "issue_42_requests_fix.patch"), outcome.PatchFile)
	assert.Equal(t, filepath.Join(f.dir, "issue_42_requests_fix_metadata.json"), outcome.MetadataFile)
	assert.Equal(t, []string{"requests/api.py"}, outcome.FilesChanged)
	assert.True(t, strings.HasPrefix(outcome.CommitMessage, "Fix #42: Header bug\n\nThe header is overwritten in api.py.\n"))
	assert.Equal(t, []int{analysis.DefaultPatchK}, f.retrievals)

	data, err := os.ReadFile(outcome.PatchFile)
	require.NoError(t, err)
	assert.Equal(t, string(data), outcome.PatchContent)
	assert.Contains(t, outcome.PatchContent, "From: GIAS Patch Agent <gias@github.local>\n")
	assert.Contains(t, outcome.PatchContent, "\nFix for Header bug\n\nIssue: #42\nHeaders are dropped.\n\n---\n")
	assert.Contains(t, outcome.PatchContent, "-x = 1\n+x = 2\n")

	listing, err := f.store.Get("issue_42_requests_fix.patch")
	require.NoError(t, err)
	require.NotNil(t, listing.Metadata)
	assert.Equal(t, 42, listing.Metadata.IssueID)
	assert.Equal(t, "psf/requests", listing.Metadata.Repository)
	assert.Equal(t, "issue_42_requests_fix.patch", listing.Metadata.PatchFile)
	assert.Equal(t, []string{"requests/api.py"}, listing.Metadata.FilesChanged)
}

func TestService_GeneratePatch_TruncatesPromptInputs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	req := patchRequest()
	req.IssueBody = strings.Repeat("Z", 1500)
	req.Analysis = strings.Repeat("Q", 2500)

	outcome := f.service().GeneratePatch(context.Background(), req)

	require.Equal(t, gias.StatusSuccess, outcome.Status)
	require.Len(t, f.patchPrompts, 1)
	prompt := f.patchPrompts[0]
	assert.Contains(t, prompt, strings.Repeat("Z", analysis.PatchBodyLimit))
	assert.NotContains(t, prompt, strings.Repeat("Z", analysis.PatchBodyLimit+1))
	assert.Contains(t, prompt, strings.Repeat("Q", analysis.PatchAnalysisLimit))
	assert.NotContains(t, prompt, strings.Repeat("Q", analysis.PatchAnalysisLimit+1))
	assert.Contains(t, outcome.PatchContent, "Issue: #42\n"+strings.Repeat("Z", analysis.DescriptionBodyLimit)+"\n\n---\n")
	assert.Contains(t, outcome.CommitMessage, strings.Repeat("Q", analysis.CommitAnalysisLimit)+"\n\nFixes:")
}

func TestService_GeneratePatch_CustomQueryReplacesPatchQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	req := patchRequest()
	req.Query = "Only touch api.py"

	f.service().GeneratePatch(context.Background(), req)

	require.Len(t, f.patchPrompts, 1)
	assert.Contains(t, f.patchPrompts[0], "**Issue to Fix:**\nOnly touch api.py")
	assert.NotContains(t, f.patchPrompts[0], "Based on this GitHub issue")
}

func TestService_GeneratePatch_WarningWhenNoChanges(t *testing.T) {
	t.Parallel()

	for name, spec := range map[string]string{
		"prose":       "I could not determine a fix for this issue.",
		"all no-ops":  "```file: a.py\nsame\n---\nsame\n```",
		"no path tag": "```python\nx = 2\n```",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.patcher.CompleteFn = func(context.Context, string) (string, error) { return spec, nil }

			outcome := f.service().GeneratePatch(context.Background(), patchRequest())

			assert.Equal(t, gias.StatusWarning, outcome.Status)
			assert.Equal(t, spec, outcome.Specification)
			assert.Empty(t, outcome.PatchFile)
			patches, err := f.store.List()
			require.NoError(t, err)
			assert.Empty(t, patches)
		})
	}
}

func TestService_GeneratePatch_FailedWhenCompletionFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.patcher.CompleteFn = func(context.Context, string) (string, error) {
		return "", errors.New("rate limited")
	}

	outcome := f.service().GeneratePatch(context.Background(), patchRequest())

	assert.Equal(t, gias.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "rate limited")
}

func TestService_GeneratePatch_FailedWhenStoreFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	store := &mock.PatchStore{
		CreatePatchFn: func(*gias.ChangeSet, gias.PatchOptions) (string, error) {
			return "", errors.New("disk full")
		},
	}
	svc := analysis.NewService(f.issues, f.retriever, f.analyst, f.patcher, store)

	outcome := svc.GeneratePatch(context.Background(), patchRequest())

	assert.Equal(t, gias.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.Message, "disk full")
}

func TestService_GeneratePatch_RetrievalFailureDegrades(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.retriever.RetrieveFn = func(context.Context, gias.Repository, string, int) ([]gias.Snippet, error) {
		return nil, errors.New("index missing")
	}

	outcome := f.service().GeneratePatch(context.Background(), patchRequest())

	assert.Equal(t, gias.StatusSuccess, outcome.Status)
	require.Len(t, f.patchPrompts, 1)
	assert.Contains(t, f.patchPrompts[0], "**Code Context:**\n\n\n**Issue to Fix:**")
}

func TestService_GeneratePatch_RecordsOutcome(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var statuses []gias.Status
	recorder := &mock.Recorder{
		ObservePatchOutcomeFn: func(status gias.Status) { statuses = append(statuses, status) },
	}

	f.service(analysis.WithRecorder(recorder)).GeneratePatch(context.Background(), patchRequest())

	assert.Equal(t, []gias.Status{gias.StatusSuccess}, statuses)
}

func TestService_AnalyzeIssue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.issues.IssueFn = func(_ context.Context, repo gias.Repository, number int) (*gias.Issue, error) {
		assert.Equal(t, testRepo, repo)
		assert.Equal(t, 42, number)
		return &gias.Issue{Number: 42, Title: "Header bug"}, nil
	}
	var analysisPrompt string
	f.analyst.CompleteFn = func(_ context.Context, prompt string) (string, error) {
		analysisPrompt = prompt
		return "Root cause in api.py.", nil
	}

	result, err := f.service().AnalyzeIssue(context.Background(), analysis.AnalyzeRequest{Repository: testRepo, IssueID: 42})

	require.NoError(t, err)
	assert.Equal(t, "Root cause in api.py.", result.Analysis)
	assert.Equal(t, analysis.NoDescription, result.Issue.Body)
	assert.Equal(t, []string{"requests/api.py", "requests/models.py"}, result.Sources)
	assert.Contains(t, analysisPrompt, "Issue Title: Header bug\n\nIssue Description:\nNo description provided")
	assert.Contains(t, analysisPrompt, "### requests/models.py\n```\nclass Response: pass\n```")
	assert.Equal(t, []int{analysis.DefaultAnalysisK, analysis.DefaultPatchK}, f.retrievals)
	assert.Equal(t, gias.StatusSuccess, result.Patch.Status)
	assert.Equal(t, []string{"requests/api.py"}, result.Patch.FilesChanged)
}

func TestService_AnalyzeIssue_CustomQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var analysisPrompt string
	f.analyst.CompleteFn = func(_ context.Context, prompt string) (string, error) {
		analysisPrompt = prompt
		return "answer", nil
	}

	_, err := f.service(analysis.WithAutoPatch(false)).AnalyzeIssue(context.Background(),
		analysis.AnalyzeRequest{Repository: testRepo, IssueID: 42, Query: "Why do headers vanish?"})

	require.NoError(t, err)
	assert.Contains(t, analysisPrompt, "**Question:**\nWhy do headers vanish?")
	assert.NotContains(t, analysisPrompt, "Issue Title:")
}

func TestService_AnalyzeIssue_IssueNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.issues.IssueFn = func(context.Context, gias.Repository, int) (*gias.Issue, error) {
		return nil, errors.New("404 Not Found")
	}

	_, err := f.service().AnalyzeIssue(context.Background(), analysis.AnalyzeRequest{Repository: testRepo, IssueID: 7})

	assert.ErrorIs(t, err, gias.ErrIssueNotFound)
	assert.Contains(t, err.Error(), "404 Not Found")
}

func TestService_AnalyzeIssue_CompletionError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	completionErr := errors.New("upstream down")
	f.analyst.CompleteFn = func(context.Context, string) (string, error) { return "", completionErr }

	_, err := f.service().AnalyzeIssue(context.Background(), analysis.AnalyzeRequest{Repository: testRepo, IssueID: 42})

	assert.ErrorIs(t, err, completionErr)
}

func TestService_AnalyzeIssue_AutoPatchDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.patcher.CompleteFn = func(context.Context, string) (string, error) {
		t.Fatal("patch model must not be called")
		return "", nil
	}

	result, err := f.service(analysis.WithAutoPatch(false)).AnalyzeIssue(context.Background(),
		analysis.AnalyzeRequest{Repository: testRepo, IssueID: 42})

	require.NoError(t, err)
	assert.Equal(t, gias.StatusNotGenerated, result.Patch.Status)
}

func TestService_AnalyzeIssue_UnindexedRepository(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	index := &mock.ChunkStore{
		CountFn: func(context.Context, gias.Repository) (int, error) { return 0, nil },
	}

	result, err := f.service(analysis.WithIndex(index)).AnalyzeIssue(context.Background(),
		analysis.AnalyzeRequest{Repository: testRepo, IssueID: 42})

	require.NoError(t, err)
	assert.Equal(t, gias.StatusNotGenerated, result.Patch.Status)
	assert.Contains(t, result.Patch.Message, "psf/requests")
	assert.Empty(t, f.patchPrompts)
}

func TestService_AnalyzeIssue_RecordsRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var records []gias.RunRecord
	runs := &mock.RunLog{
		AppendFn: func(r gias.RunRecord) error {
			records = append(records, r)
			return nil
		},
	}

	_, err := f.service(analysis.WithRunLog(runs)).AnalyzeIssue(context.Background(),
		analysis.AnalyzeRequest{Repository: testRepo, IssueID: 42})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "psf/requests", records[0].Repository)
	assert.Equal(t, 42, records[0].IssueID)
	assert.Equal(t, gias.StatusSuccess, records[0].Status)
	assert.Equal(t, filepath.Join(f.dir, "issue_42_requests_fix.patch"), records[0].PatchFile)
	assert.Equal(t, fixedTime, records[0].Timestamp)
}

func TestService_Ask(t *testing.T) {
	t.Parallel()

	t.Run("plain question does not patch", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		result, err := f.service().Ask(context.Background(), testRepo, "How are sessions pooled?")

		require.NoError(t, err)
		assert.Equal(t, "The header is overwritten in api.py.", result.Answer)
		assert.Equal(t, gias.StatusNotGenerated, result.Patch.Status)
		assert.Empty(t, f.patchPrompts)
	})

	t.Run("issue reference triggers a patch", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		result, err := f.service().Ask(context.Background(), testRepo, "Please fix #1234 in the adapter")

		require.NoError(t, err)
		assert.Equal(t, gias.StatusSuccess, result.Patch.Status)
		assert.Equal(t, filepath.Join(f.dir, "issue_1234_requests_fix.patch"), result.Patch.PatchFile)
		assert.True(t, strings.HasPrefix(result.Patch.CommitMessage, "Fix #1234: Query Result Fix\n"))
		require.Len(t, f.patchPrompts, 1)
		assert.Contains(t, f.patchPrompts[0], "**Issue #1234: Query Result Fix**")
		assert.Contains(t, f.patchPrompts[0], "Please fix #1234 in the adapter")
	})
}

func TestFormatContext_RespectsTokenBudget(t *testing.T) {
	t.Parallel()

	snippets := []gias.Snippet{
		{Source: "a.py", Content: "aaaa"},
		{Source: "b.py", Content: "bbbb"},
		{Source: "c.py", Content: "cccc"},
	}
	counter := &mock.TokenCounter{CountFn: func(text string) int { return 10 }}

	text, sources := analysis.FormatContext(snippets, counter, 25)

	assert.Equal(t, []string{"a.py", "b.py"}, sources)
	assert.Contains(t, text, "bbbb")
	assert.NotContains(t, text, "cccc")

	_, all := analysis.FormatContext(snippets, counter, 0)
	assert.Len(t, all, 3)
}

func TestService_GeneratePatch_Author(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	outcome := f.service(analysis.WithAuthor("Release Bot")).GeneratePatch(context.Background(), patchRequest())

	require.Equal(t, gias.StatusSuccess, outcome.Status, outcome.Message)
	assert.Contains(t, outcome.PatchContent, "From: Release Bot <gias@github.local>\n")
}
