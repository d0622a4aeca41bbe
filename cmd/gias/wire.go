package main

import (
	"context"
	"fmt"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/gias"
	"github.com/fwojciec/gias/analysis"
	"github.com/fwojciec/gias/anthropic"
	"github.com/fwojciec/gias/bubbletea"
	"github.com/fwojciec/gias/chroma"
	"github.com/fwojciec/gias/clipboard"
	"github.com/fwojciec/gias/config"
	"github.com/fwojciec/gias/difflib"
	"github.com/fwojciec/gias/fs"
	"github.com/fwojciec/gias/gemini"
	"github.com/fwojciec/gias/gin"
	"github.com/fwojciec/gias/git"
	"github.com/fwojciec/gias/gitdiff"
	"github.com/fwojciec/gias/github"
	"github.com/fwojciec/gias/gogit"
	"github.com/fwojciec/gias/jsonl"
	"github.com/fwojciec/gias/lipgloss"
	"github.com/fwojciec/gias/ollama"
	"github.com/fwojciec/gias/openrouter"
	"github.com/fwojciec/gias/prometheus"
	"github.com/fwojciec/gias/rag"
	"github.com/fwojciec/gias/sqlite"
	"github.com/fwojciec/gias/tiktoken"
	"github.com/fwojciec/gias/zap"
	"github.com/go-logr/logr"
)

// Setup loads the configuration and wires the production collaborators into a.
func Setup(a *App, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := zap.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	repo, err := cfg.DefaultRepository()
	if err != nil {
		return err
	}

	s := &stack{
		app:     a,
		cfg:     cfg,
		logger:  logger,
		metrics: prometheus.NewMetrics(),
		runs:    jsonl.NewRunLog(cfg.RunLog),
	}
	a.Repository = repo
	a.Addr = cfg.Server.Addr
	a.Patches = fs.NewPatchStore(cfg.Patches.Dir, difflib.NewRenderer(),
		fs.WithContextLines(cfg.Patches.ContextLines),
		fs.WithLogger(logger.WithName("patches")),
	)
	a.Parser = gitdiff.NewParser()
	a.Applier = git.NewApplier(
		git.WithTimeout(cfg.ApplyTimeout()),
		git.WithLogger(logger.WithName("git")),
	)
	a.Runs = s.runs

	theme := lipgloss.DefaultTheme()
	syntax, err := chroma.NewTokenizer(chroma.StyleFromPalette(theme.Palette()))
	if err != nil {
		return err
	}
	a.Render = bubbletea.RenderOptions{
		Styles:    theme.Styles(),
		Detector:  chroma.NewDetector(),
		Tokenizer: syntax,
	}

	a.NewAnalyzer = func(ctx context.Context, autoPatch bool) (gin.Analyzer, error) {
		return s.analyzer(ctx, autoPatch)
	}
	a.NewIndexer = func(context.Context) (gin.Indexer, error) {
		return s.indexer()
	}
	a.NewServer = s.server
	a.NewBrowser = s.browser
	return nil
}

// stack builds the network-facing collaborators on first use.
type stack struct {
	app     *App
	cfg     config.Config
	logger  logr.Logger
	metrics *prometheus.Metrics
	runs    *jsonl.RunLog

	store  *sqlite.ChunkStore
	github *github.Client
}

func (s *stack) chunkStore() (*sqlite.ChunkStore, error) {
	if s.store != nil {
		return s.store, nil
	}
	store, err := sqlite.Open(s.cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	s.app.onClose(store.Close)
	s.store = store
	return store, nil
}

func (s *stack) githubClient() *github.Client {
	if s.github == nil {
		s.github = github.NewClient(s.cfg.GitHub.Token, github.WithLogger(s.logger.WithName("github")))
	}
	return s.github
}

func (s *stack) loader() gias.RepositoryLoader {
	if s.cfg.GitHub.Loader == config.LoaderAPI {
		return s.githubClient()
	}
	return gogit.NewLoader(
		gogit.WithToken(s.cfg.GitHub.Token),
		gogit.WithWorkDir(s.cfg.GitHub.CloneDir),
		gogit.WithLogger(s.logger.WithName("clone")),
	)
}

func (s *stack) embedder() (*ollama.Embedder, error) {
	client, err := ollama.NewClient(s.cfg.Embedding.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	return ollama.NewEmbedder(client, s.cfg.Embedding.Model), nil
}

func (s *stack) indexer() (*rag.Indexer, error) {
	store, err := s.chunkStore()
	if err != nil {
		return nil, err
	}
	embedder, err := s.embedder()
	if err != nil {
		return nil, err
	}
	return rag.NewIndexer(s.loader(), embedder, store,
		rag.WithSplitter(rag.NewSplitter(s.cfg.Index.ChunkSize, s.cfg.Index.ChunkOverlap)),
		rag.WithBatchSize(s.cfg.Embedding.BatchSize),
		rag.WithWorkers(s.cfg.Embedding.Workers),
		rag.WithIndexLogger(s.logger.WithName("index")),
	), nil
}

func (s *stack) models() (analysisModel, patchModel string) {
	var fallback string
	switch s.cfg.LLM.Provider {
	case config.ProviderGemini:
		fallback = gemini.DefaultModel
	case config.ProviderAnthropic:
		fallback = anthropic.DefaultModel
	case config.ProviderOllama:
		fallback = ollama.DefaultChatModel
	}
	return s.cfg.LLM.Models(fallback)
}

// completer builds a Completer for model on the configured provider,
// cached on disk when a cache directory is set.
func (s *stack) completer(ctx context.Context, model, system string) (gias.Completer, error) {
	llm := s.cfg.LLM
	var c gias.Completer
	switch llm.Provider {
	case config.ProviderOpenRouter:
		c = openrouter.NewCompleter(openrouter.Config{
			APIKey:      llm.APIKey,
			BaseURL:     llm.BaseURL,
			Model:       model,
			System:      system,
			Temperature: llm.Temperature,
			MaxTokens:   llm.MaxTokens,
		})
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, llm.APIKey)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		c = gemini.NewCompleter(client, model, system, llm.Temperature, llm.MaxTokens)
	case config.ProviderAnthropic:
		var opts []anthropicoption.RequestOption
		if llm.BaseURL != "" {
			opts = append(opts, anthropicoption.WithBaseURL(llm.BaseURL))
		}
		c = anthropic.NewCompleter(llm.APIKey, model, system, llm.Temperature, llm.MaxTokens, opts...)
	case config.ProviderOllama:
		host := llm.BaseURL
		if host == "" {
			host = s.cfg.Embedding.BaseURL
		}
		client, err := ollama.NewClient(host, nil)
		if err != nil {
			return nil, err
		}
		c = ollama.NewCompleter(client, model, system, llm.Temperature)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llm.Provider)
	}
	if llm.CacheDir != "" {
		c = fs.NewCompleter(c, llm.Provider+"/"+model, llm.CacheDir)
	}
	return c, nil
}

func (s *stack) analyzer(ctx context.Context, autoPatch bool) (*analysis.Service, error) {
	store, err := s.chunkStore()
	if err != nil {
		return nil, err
	}
	embedder, err := s.embedder()
	if err != nil {
		return nil, err
	}
	analysisModel, patchModel := s.models()
	analyst, err := s.completer(ctx, analysisModel, analysis.AnalysisSystemPrompt)
	if err != nil {
		return nil, err
	}
	patcher, err := s.completer(ctx, patchModel, analysis.PatchSystemPrompt)
	if err != nil {
		return nil, err
	}
	counter, err := tiktoken.NewCounter()
	if err != nil {
		return nil, err
	}
	llm := s.cfg.LLM
	return analysis.NewService(s.githubClient(), rag.NewRetriever(embedder, store), analyst, patcher, s.app.Patches,
		analysis.WithTokenCounter(counter),
		analysis.WithMaxContextTokens(llm.MaxContextTokens),
		analysis.WithRetrievalDepth(llm.AnalysisK, llm.PatchK),
		analysis.WithIndex(store),
		analysis.WithRunLog(s.runs),
		analysis.WithRecorder(s.metrics),
		analysis.WithAuthor(s.cfg.Patches.Author),
		analysis.WithAutoPatch(autoPatch && s.cfg.Patches.AutoPatch),
		analysis.WithLogger(s.logger.WithName("analysis")),
	), nil
}

func (s *stack) server(ctx context.Context) (Server, error) {
	svc, err := s.analyzer(ctx, true)
	if err != nil {
		return nil, err
	}
	ix, err := s.indexer()
	if err != nil {
		return nil, err
	}
	analysisModel, patchModel := s.models()
	return gin.NewServer(gin.Dependencies{
		Analyzer: svc,
		Indexer:  ix,
		Patches:  s.app.Patches,
		Parser:   s.app.Parser,
		Applier:  s.app.Applier,
	},
		gin.WithInfo(gin.Info{
			Repository:     s.app.Repository,
			Provider:       s.cfg.LLM.Provider,
			AnalysisModel:  analysisModel,
			PatchModel:     patchModel,
			EmbeddingModel: s.cfg.Embedding.Model,
		}),
		gin.WithRecorder(s.metrics),
		gin.WithMetricsHandler(s.metrics.Handler()),
		gin.WithLogger(s.logger.WithName("http")),
	), nil
}

func (s *stack) browser(themeName string) (Browser, error) {
	theme, err := lipgloss.ByName(themeName)
	if err != nil {
		return nil, err
	}
	tokenizer, err := chroma.NewTokenizer(chroma.StyleFromPalette(theme.Palette()))
	if err != nil {
		return nil, err
	}
	opts := []bubbletea.HistoryOption{
		bubbletea.WithTheme(theme),
		bubbletea.WithSyntax(chroma.NewDetector(), tokenizer),
	}
	if clip, err := clipboard.Detect(); err == nil {
		opts = append(opts, bubbletea.WithClipboard(clip))
	} else {
		s.logger.V(1).Info("clipboard disabled", "reason", err.Error())
	}
	return bubbletea.NewBrowser(s.app.Patches, s.app.Parser, opts...), nil
}
