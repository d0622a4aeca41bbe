// Package gin exposes the analysis service and patch history over HTTP.
package gin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/analysis"
	ginlib "github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Analyzer is the analysis surface the server exposes.
type Analyzer interface {
	AnalyzeIssue(ctx context.Context, req analysis.AnalyzeRequest) (*gias.AnalysisResult, error)
	Ask(ctx context.Context, repo gias.Repository, query string) (*gias.QueryResult, error)
	GeneratePatch(ctx context.Context, req analysis.PatchRequest) gias.PatchOutcome
}

// Indexer rebuilds the retrieval index of a repository.
type Indexer interface {
	Build(ctx context.Context, repo gias.Repository) (int, error)
}

// Info describes the running configuration for the health endpoint.
type Info struct {
	Repository     gias.Repository
	Provider       string
	AnalysisModel  string
	PatchModel     string
	EmbeddingModel string
}

// Dependencies are the collaborators the server routes to.
type Dependencies struct {
	Analyzer Analyzer
	Indexer  Indexer
	Patches  gias.PatchStore
	Parser   gias.DiffParser
	Applier  gias.PatchApplier
}

// Server is the HTTP API.
type Server struct {
	deps     Dependencies
	info     Info
	recorder gias.Recorder
	metrics  http.Handler
	logger   logr.Logger
	engine   *ginlib.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithInfo sets the configuration reported by the health endpoint.
func WithInfo(info Info) Option {
	return func(s *Server) { s.info = info }
}

// WithRecorder records request and apply metrics.
func WithRecorder(r gias.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a Server with all routes registered.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{deps: deps, logger: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = ginlib.New()
	s.engine.Use(ginlib.Recovery(), s.observe())
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze-issue", s.analyzeIssue)
		api.POST("/query", s.query)
		api.POST("/build-rag", s.buildIndex)
		api.POST("/generate-patch", s.generatePatch)
		api.GET("/patches", s.listPatches)
		api.GET("/patches/:name", s.getPatch)
		api.GET("/patches/:name/raw", s.rawPatch)
		api.POST("/patches/:name/apply", s.applyPatch)
	}
	if s.metrics != nil {
		s.engine.GET("/metrics", ginlib.WrapH(s.metrics))
	}
}

// observe logs each request and feeds the recorder.
func (s *Server) observe() ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		if s.recorder != nil {
			s.recorder.ObserveRequest(c.Request.Method, route, status, elapsed)
		}
		s.logger.V(1).Info("request", "method", c.Request.Method, "route", route, "status", status, "elapsed", elapsed.String())
	}
}
