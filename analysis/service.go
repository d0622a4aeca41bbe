// Package analysis answers questions about repositories and turns issue
// analyses into patch documents.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/fwojciec/gias"
	"github.com/go-logr/logr"
)

// Retrieval defaults.
const (
	DefaultAnalysisK        = 5
	DefaultPatchK           = 10
	DefaultMaxContextTokens = 6000
)

// QueryPatchTitle is the issue title used for patches triggered by a query.
const QueryPatchTitle = "Query Result Fix"

var issueRef = regexp.MustCompile(`#(\d+)`)

// AnalyzeRequest identifies an issue to analyze. A non-empty Query replaces
// the question built from the issue.
type AnalyzeRequest struct {
	Repository gias.Repository
	IssueID    int
	Query      string
}

// PatchRequest carries everything needed to generate a patch. A non-empty
// Query replaces the patch query built from the other fields.
type PatchRequest struct {
	Repository gias.Repository
	IssueID    int
	IssueTitle string
	IssueBody  string
	Analysis   string
	Query      string
}

// Service coordinates retrieval, completion and patch storage.
type Service struct {
	issues    gias.IssueFetcher
	retriever gias.Retriever
	analyst   gias.Completer
	patcher   gias.Completer
	patches   gias.PatchStore

	tokens   gias.TokenCounter
	index    gias.ChunkStore
	runs     gias.RunLog
	recorder gias.Recorder
	logger   logr.Logger
	now      func() time.Time
	author   string

	analysisK        int
	patchK           int
	maxContextTokens int
	autoPatch        bool
}

// Option configures a Service.
type Option func(*Service)

// WithTokenCounter bounds retrieved context by token count.
func WithTokenCounter(c gias.TokenCounter) Option {
	return func(s *Service) { s.tokens = c }
}

// WithMaxContextTokens sets the context token budget. Non-positive disables the bound.
func WithMaxContextTokens(n int) Option {
	return func(s *Service) { s.maxContextTokens = n }
}

// WithRetrievalDepth sets how many snippets are retrieved for analyses and patches.
func WithRetrievalDepth(analysisK, patchK int) Option {
	return func(s *Service) {
		if analysisK > 0 {
			s.analysisK = analysisK
		}
		if patchK > 0 {
			s.patchK = patchK
		}
	}
}

// WithIndex makes automatic patch generation require an indexed repository.
func WithIndex(store gias.ChunkStore) Option {
	return func(s *Service) { s.index = store }
}

// WithRunLog records every completed analysis or query.
func WithRunLog(l gias.RunLog) Option {
	return func(s *Service) { s.runs = l }
}

// WithRecorder reports patch outcomes.
func WithRecorder(r gias.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAuthor sets the From name of written patches.
func WithAuthor(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.author = name
		}
	}
}

// WithAutoPatch enables or disables patch generation after analyses and queries.
func WithAutoPatch(enabled bool) Option {
	return func(s *Service) { s.autoPatch = enabled }
}

// NewService creates a Service. The analyst answers questions and the patcher
// writes patch specifications; they may be the same Completer.
func NewService(issues gias.IssueFetcher, retriever gias.Retriever, analyst, patcher gias.Completer, patches gias.PatchStore, opts ...Option) *Service {
	s := &Service{
		issues:           issues,
		retriever:        retriever,
		analyst:          analyst,
		patcher:          patcher,
		patches:          patches,
		logger:           logr.Discard(),
		now:              time.Now,
		author:           gias.AgentAuthor,
		analysisK:        DefaultAnalysisK,
		patchK:           DefaultPatchK,
		maxContextTokens: DefaultMaxContextTokens,
		autoPatch:        true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeIssue fetches an issue, analyzes it against the repository index and,
// when automatic patching applies, generates a patch from the analysis.
func (s *Service) AnalyzeIssue(ctx context.Context, req AnalyzeRequest) (*gias.AnalysisResult, error) {
	start := s.now()

	issue, err := s.issues.Issue(ctx, req.Repository, req.IssueID)
	if err != nil {
		if errors.Is(err, gias.ErrIssueNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s#%d: %w", gias.ErrIssueNotFound, req.Repository, req.IssueID, err)
	}
	if issue.Body == "" {
		issue.Body = NoDescription
	}

	question := req.Query
	if question == "" {
		question = BuildIssueQuestion(*issue)
	}
	s.logger.Info("analyzing issue", "repository", req.Repository.FullName(), "issue", req.IssueID, "query_length", len(question))

	answer, sources, err := s.answer(ctx, req.Repository, question)
	if err != nil {
		s.record(start, req.Repository, req.IssueID, question, gias.StatusFailed, "", err.Error())
		return nil, err
	}

	outcome := s.autoGenerate(ctx, PatchRequest{
		Repository: req.Repository,
		IssueID:    req.IssueID,
		IssueTitle: issue.Title,
		IssueBody:  issue.Body,
		Analysis:   answer,
	})
	s.record(start, req.Repository, req.IssueID, question, outcome.Status, outcome.PatchFile, outcome.Message)

	return &gias.AnalysisResult{
		Repository: req.Repository,
		Issue:      *issue,
		Analysis:   answer,
		Sources:    sources,
		Patch:      outcome,
	}, nil
}

// Ask answers a free-form question about repo. A query referencing an issue
// as "#<number>" also attempts a patch for that issue.
func (s *Service) Ask(ctx context.Context, repo gias.Repository, query string) (*gias.QueryResult, error) {
	start := s.now()
	s.logger.Info("answering query", "repository", repo.FullName(), "query", gias.Truncate(query, 100))

	answer, sources, err := s.answer(ctx, repo, query)
	if err != nil {
		s.record(start, repo, 0, query, gias.StatusFailed, "", err.Error())
		return nil, err
	}

	outcome := gias.PatchOutcome{Status: gias.StatusNotGenerated, Message: "query does not reference an issue"}
	issueID := 0
	if m := issueRef.FindStringSubmatch(query); m != nil {
		issueID, _ = strconv.Atoi(m[1])
	}
	if issueID > 0 {
		s.logger.Info("query references issue", "issue", issueID)
		outcome = s.autoGenerate(ctx, PatchRequest{
			Repository: repo,
			IssueID:    issueID,
			IssueTitle: QueryPatchTitle,
			IssueBody:  gias.Truncate(query, QueryBodyLimit),
			Analysis:   answer,
		})
	}
	s.record(start, repo, issueID, query, outcome.Status, outcome.PatchFile, outcome.Message)

	return &gias.QueryResult{
		Repository: repo,
		Query:      query,
		Answer:     answer,
		Sources:    sources,
		Patch:      outcome,
	}, nil
}

// GeneratePatch asks the patch model for a specification and writes it as a
// patch document with metadata. It never returns an error: every failure is
// reported as a failed outcome.
func (s *Service) GeneratePatch(ctx context.Context, req PatchRequest) gias.PatchOutcome {
	outcome := s.generatePatch(ctx, req)
	if s.recorder != nil {
		s.recorder.ObservePatchOutcome(outcome.Status)
	}
	return outcome
}

func (s *Service) generatePatch(ctx context.Context, req PatchRequest) gias.PatchOutcome {
	s.logger.Info("generating patch", "repository", req.Repository.FullName(), "issue", req.IssueID, "title", req.IssueTitle)

	query := req.Query
	if query == "" {
		query = BuildPatchQuery(req.IssueID, req.IssueTitle, req.IssueBody, req.Analysis)
	}

	snippets := s.retrieve(ctx, req.Repository, query, s.patchK)
	codeContext, _ := FormatContext(snippets, s.tokens, s.maxContextTokens)

	spec, err := s.patcher.Complete(ctx, BuildPatchPrompt(codeContext, query))
	if err != nil {
		s.logger.Error(err, "patch completion failed", "issue", req.IssueID)
		return failed(fmt.Errorf("generate specification: %w", err))
	}

	changes := gias.ParseSpecification(spec)
	if len(changes.Effective()) == 0 {
		s.logger.Info("specification contains no code changes", "issue", req.IssueID, "blocks", changes.Len())
		return gias.PatchOutcome{
			Status:        gias.StatusWarning,
			Message:       "Patch specification generated but contains no code changes",
			Specification: spec,
		}
	}

	name := gias.IssuePatchName(req.IssueID, req.Repository)
	patchPath, err := s.patches.CreatePatch(changes, gias.PatchOptions{
		Name:        name,
		Repository:  req.Repository,
		Description: PatchDescription(req.IssueID, req.IssueTitle, req.IssueBody),
		Author:      s.author,
	})
	if err != nil {
		s.logger.Error(err, "failed to write patch", "name", name)
		return failed(fmt.Errorf("write patch: %w", err))
	}

	files := changes.Effective()
	metaPath, err := s.patches.SaveMetadata(gias.PatchMetadata{
		Timestamp:    s.now(),
		Repository:   req.Repository.FullName(),
		IssueID:      req.IssueID,
		IssueTitle:   req.IssueTitle,
		PatchFile:    name,
		Analysis:     req.Analysis,
		FilesChanged: files,
	})
	if err != nil {
		s.logger.Error(err, "failed to write patch metadata", "name", name)
		return failed(fmt.Errorf("write metadata: %w", err))
	}

	content, err := s.patches.Read(name)
	if err != nil {
		s.logger.V(1).Info("could not read back patch", "name", name, "error", err.Error())
	}

	s.logger.Info("patch generated", "path", patchPath, "files", len(files))
	return gias.PatchOutcome{
		Status:        gias.StatusSuccess,
		Message:       "Patch generated",
		PatchFile:     patchPath,
		MetadataFile:  metaPath,
		CommitMessage: gias.CommitMessage(req.Repository, req.IssueID, req.IssueTitle, gias.Truncate(req.Analysis, CommitAnalysisLimit)),
		FilesChanged:  files,
		PatchContent:  content,
	}
}

// autoGenerate runs GeneratePatch when automatic patching is enabled and the
// repository has been indexed.
func (s *Service) autoGenerate(ctx context.Context, req PatchRequest) gias.PatchOutcome {
	if !s.autoPatch {
		return gias.PatchOutcome{Status: gias.StatusNotGenerated, Message: "automatic patch generation is disabled"}
	}
	if s.index != nil {
		n, err := s.index.Count(ctx, req.Repository)
		if err != nil || n == 0 {
			s.logger.Info("repository not indexed, skipping patch generation", "repository", req.Repository.FullName())
			return gias.PatchOutcome{
				Status:  gias.StatusNotGenerated,
				Message: fmt.Sprintf("repository %s is not indexed; build the index to enable patch generation", req.Repository),
			}
		}
	}
	return s.GeneratePatch(ctx, req)
}

// answer retrieves context and asks the analysis model.
func (s *Service) answer(ctx context.Context, repo gias.Repository, question string) (string, []string, error) {
	snippets := s.retrieve(ctx, repo, question, s.analysisK)
	codeContext, sources := FormatContext(snippets, s.tokens, s.maxContextTokens)

	answer, err := s.analyst.Complete(ctx, BuildAnalysisPrompt(codeContext, question))
	if err != nil {
		return "", nil, fmt.Errorf("analyze: %w: %w", gias.ErrUpstream, err)
	}
	return answer, sources, nil
}

// retrieve degrades to no context when retrieval fails.
func (s *Service) retrieve(ctx context.Context, repo gias.Repository, query string, k int) []gias.Snippet {
	snippets, err := s.retriever.Retrieve(ctx, repo, query, k)
	if err != nil {
		s.logger.Error(err, "retrieval failed, continuing without context", "repository", repo.FullName())
		return nil
	}
	return snippets
}

func (s *Service) record(start time.Time, repo gias.Repository, issueID int, query string, status gias.Status, patchFile, message string) {
	if s.runs == nil {
		return
	}
	rec := gias.RunRecord{
		Timestamp:  start,
		Repository: repo.FullName(),
		IssueID:    issueID,
		Query:      gias.Truncate(query, QueryBodyLimit),
		Status:     status,
		PatchFile:  patchFile,
		Message:    message,
		DurationMS: s.now().Sub(start).Milliseconds(),
	}
	if err := s.runs.Append(rec); err != nil {
		s.logger.Error(err, "failed to record run")
	}
}

func failed(err error) gias.PatchOutcome {
	return gias.PatchOutcome{Status: gias.StatusFailed, Message: err.Error()}
}
