package gin

import (
	"errors"
	"net/http"

	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/analysis"
	ginlib "github.com/gin-gonic/gin"
)

type repositoryRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// repository resolves the request repository, falling back to the configured default.
func (s *Server) repository(r repositoryRequest) (gias.Repository, error) {
	if r.Owner == "" && r.Repo == "" {
		if s.info.Repository.IsZero() {
			return gias.Repository{}, gias.ErrInvalidRepository
		}
		return s.info.Repository, nil
	}
	return gias.ParseRepository(r.Owner + "/" + r.Repo)
}

func (s *Server) health(c *ginlib.Context) {
	c.JSON(http.StatusOK, ginlib.H{
		"status":          "healthy",
		"repository":      s.info.Repository.FullName(),
		"provider":        s.info.Provider,
		"analysis_model":  s.info.AnalysisModel,
		"patch_model":     s.info.PatchModel,
		"embedding_model": s.info.EmbeddingModel,
	})
}

type analyzeIssueRequest struct {
	repositoryRequest
	IssueID int    `json:"issue_id" binding:"required,min=1"`
	Query   string `json:"query"`
}

type analyzeIssueResponse struct {
	Status     string            `json:"status"`
	IssueURL   string            `json:"issue_url"`
	IssueTitle string            `json:"issue_title"`
	IssueBody  string            `json:"issue_body"`
	Analysis   string            `json:"analysis"`
	Sources    []string          `json:"sources"`
	Patch      gias.PatchOutcome `json:"patch"`
}

func (s *Server) analyzeIssue(c *ginlib.Context) {
	var req analyzeIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Owner == "" || req.Repo == "" {
		badRequest(c, "invalid request: owner, repo and issue_id are required")
		return
	}
	repo, err := s.repository(req.repositoryRequest)
	if err != nil {
		badRequest(c, "invalid request: owner, repo and issue_id are required")
		return
	}

	result, err := s.deps.Analyzer.AnalyzeIssue(c.Request.Context(), analysis.AnalyzeRequest{
		Repository: repo,
		IssueID:    req.IssueID,
		Query:      req.Query,
	})
	if err != nil {
		s.fail(c, err, "analysis failed")
		return
	}

	c.JSON(http.StatusOK, analyzeIssueResponse{
		Status:     "success",
		IssueURL:   result.Issue.URL,
		IssueTitle: result.Issue.Title,
		IssueBody:  gias.Truncate(result.Issue.Body, analysis.DescriptionBodyLimit),
		Analysis:   result.Analysis,
		Sources:    orEmpty(result.Sources),
		Patch:      result.Patch,
	})
}

type queryRequest struct {
	repositoryRequest
	Query string `json:"query" binding:"required"`
}

func (s *Server) query(c *ginlib.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: query is required")
		return
	}
	repo, err := s.repository(req.repositoryRequest)
	if err != nil {
		badRequest(c, "invalid request: unknown repository")
		return
	}

	result, err := s.deps.Analyzer.Ask(c.Request.Context(), repo, req.Query)
	if err != nil {
		s.fail(c, err, "query failed")
		return
	}

	c.JSON(http.StatusOK, ginlib.H{
		"status":  "success",
		"result":  result.Answer,
		"sources": orEmpty(result.Sources),
		"patch":   result.Patch,
	})
}

func (s *Server) buildIndex(c *ginlib.Context) {
	var req repositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Owner == "" || req.Repo == "" {
		badRequest(c, "invalid request: owner and repo are required")
		return
	}
	repo, err := s.repository(req)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	n, err := s.deps.Indexer.Build(c.Request.Context(), repo)
	if err != nil {
		s.fail(c, err, "index build failed")
		return
	}

	s.logger.Info("index built", "repository", repo.FullName(), "documents", n)
	c.JSON(http.StatusOK, ginlib.H{
		"status":         "success",
		"message":        "index built for " + repo.FullName(),
		"document_count": n,
	})
}

type generatePatchRequest struct {
	repositoryRequest
	IssueID    int    `json:"issue_id" binding:"required,min=1"`
	IssueTitle string `json:"issue_title" binding:"required"`
	IssueBody  string `json:"issue_body"`
	Analysis   string `json:"analysis" binding:"required"`
	Query      string `json:"query"`
}

func (s *Server) generatePatch(c *ginlib.Context) {
	var req generatePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: issue_id, issue_title and analysis are required")
		return
	}
	repo, err := s.repository(req.repositoryRequest)
	if err != nil {
		badRequest(c, "invalid request: unknown repository")
		return
	}

	outcome := s.deps.Analyzer.GeneratePatch(c.Request.Context(), analysis.PatchRequest{
		Repository: repo,
		IssueID:    req.IssueID,
		IssueTitle: req.IssueTitle,
		IssueBody:  req.IssueBody,
		Analysis:   req.Analysis,
		Query:      req.Query,
	})
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) listPatches(c *ginlib.Context) {
	patches, err := s.deps.Patches.List()
	if err != nil {
		s.fail(c, err, "failed to list patches")
		return
	}
	if patches == nil {
		patches = []gias.PatchListing{}
	}
	c.JSON(http.StatusOK, ginlib.H{
		"status":      "success",
		"patches":     patches,
		"total_count": len(patches),
	})
}

func (s *Server) getPatch(c *ginlib.Context) {
	name := c.Param("name")
	listing, err := s.deps.Patches.Get(name)
	if err != nil {
		s.fail(c, err, "failed to load patch")
		return
	}
	text, err := s.deps.Patches.Read(name)
	if err != nil {
		s.fail(c, err, "failed to read patch")
		return
	}

	resp := ginlib.H{"status": "success", "patch": listing}
	diff, err := s.deps.Parser.Parse(text)
	if err != nil {
		s.logger.Info("patch does not parse", "name", name, "error", err.Error())
		resp["parse_error"] = err.Error()
	} else {
		added, deleted := diff.Stats()
		resp["files"] = diff.FileStats()
		resp["additions"] = added
		resp["deletions"] = deleted
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) rawPatch(c *ginlib.Context) {
	text, err := s.deps.Patches.Read(c.Param("name"))
	if err != nil {
		s.fail(c, err, "failed to read patch")
		return
	}
	c.Data(http.StatusOK, "text/x-diff; charset=utf-8", []byte(text))
}

type applyPatchRequest struct {
	TargetDir string `json:"target_dir" binding:"required"`
	CheckOnly bool   `json:"check_only"`
}

func (s *Server) applyPatch(c *ginlib.Context) {
	var req applyPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: target_dir is required")
		return
	}
	listing, err := s.deps.Patches.Get(c.Param("name"))
	if err != nil {
		s.fail(c, err, "failed to load patch")
		return
	}

	applied := s.deps.Applier.Apply(c.Request.Context(), listing.Path, req.TargetDir, req.CheckOnly)
	if s.recorder != nil {
		s.recorder.ObserveApply(req.CheckOnly, applied)
	}
	c.JSON(http.StatusOK, ginlib.H{
		"status":     "success",
		"applied":    applied,
		"check_only": req.CheckOnly,
	})
}

// fail maps err to a status code and writes an error body.
func (s *Server) fail(c *ginlib.Context, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(err, msg, "route", c.FullPath())
	}
	c.JSON(status, ginlib.H{"status": "error", "error": msg + ": " + err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, gias.ErrIssueNotFound), errors.Is(err, gias.ErrPatchNotFound), errors.Is(err, gias.ErrNoDocuments):
		return http.StatusNotFound
	case errors.Is(err, gias.ErrInvalidPatchName), errors.Is(err, gias.ErrInvalidRepository):
		return http.StatusBadRequest
	case errors.Is(err, gias.ErrUpstream), errors.Is(err, gias.ErrEmptyCompletion):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func badRequest(c *ginlib.Context, msg string) {
	c.JSON(http.StatusBadRequest, ginlib.H{"status": "error", "error": msg})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
